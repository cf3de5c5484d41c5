package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateReport(_ context.Context, in storage.NewReport) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	r := models.Report{
		ID:         storage.NewID(),
		ReporterID: in.ReporterID,
		Target:     in.Target,
		Reason:     in.Reason,
		Details:    in.Details,
		Status:     models.ReportOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.reports[r.ID] = r
	return cloneReport(r), nil
}

func (s *Store) GetReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	return cloneReport(r), nil
}

func (s *Store) ListReports(_ context.Context, status models.ReportStatus, page storage.Page) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.reports, cloneReport, func(r *models.Report) bool {
		return status == "" || r.Status == status
	})
	newestFirst(out, func(r *models.Report) time.Time { return r.CreatedAt })
	return paginate(out, page), nil
}

func (s *Store) UpdateReport(_ context.Context, id string, patch storage.ReportPatch) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.HandledBy != nil {
		r.HandledBy = strPtr(patch.HandledBy)
	}
	if patch.Resolution != nil {
		r.Resolution = *patch.Resolution
	}
	r.UpdatedAt = s.now()
	s.reports[id] = r
	return cloneReport(r), nil
}

func (s *Store) CreateAuditLog(_ context.Context, in storage.NewAuditLog) (*models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := models.AuditLog{
		ID:        storage.NewID(),
		Action:    in.Action,
		ActorID:   in.ActorID,
		Target:    in.Target,
		Metadata:  cloneMap(in.Metadata),
		CreatedAt: s.now(),
	}
	s.auditLogs = append(s.auditLogs, a)
	return cloneAuditLog(a), nil
}

func (s *Store) ListAuditLogs(_ context.Context, f storage.AuditFilter) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AuditLog, 0, len(s.auditLogs))
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		a := s.auditLogs[i]
		if f.ActorID != "" && a.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && a.Action != f.Action {
			continue
		}
		if f.Target != nil && a.Target != *f.Target {
			continue
		}
		out = append(out, *cloneAuditLog(a))
	}
	return paginate(out, f.Page), nil
}

package sqlstore

import (
	"context"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateReport(ctx context.Context, in storage.NewReport) (*models.Report, error) {
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
	if err := s.conn(ctx).Create(&r).Error; err != nil {
		return nil, s.wrap("create_report", err)
	}
	return &r, nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	r, err := take[models.Report](s.conn(ctx), "id = ?", id)
	return r, s.wrap("get_report", err)
}

func (s *Store) ListReports(ctx context.Context, status models.ReportStatus, page storage.Page) ([]models.Report, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out, err := findPage[models.Report](q, page)
	return out, s.wrap("list_reports", err)
}

func (s *Store) UpdateReport(ctx context.Context, id string, patch storage.ReportPatch) (*models.Report, error) {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.HandledBy != nil {
		updates["handled_by"] = strPtr(patch.HandledBy)
	}
	if patch.Resolution != nil {
		updates["resolution"] = *patch.Resolution
	}
	return patchRow[models.Report](s, ctx, "update_report", "id", id, updates)
}

func (s *Store) CreateAuditLog(ctx context.Context, in storage.NewAuditLog) (*models.AuditLog, error) {
	a := models.AuditLog{
		ID:        storage.NewID(),
		Action:    in.Action,
		ActorID:   in.ActorID,
		Target:    in.Target,
		Metadata:  in.Metadata,
		CreatedAt: s.now(),
	}
	if err := s.conn(ctx).Create(&a).Error; err != nil {
		return nil, s.wrap("create_audit_log", err)
	}
	return &a, nil
}

func (s *Store) ListAuditLogs(ctx context.Context, f storage.AuditFilter) ([]models.AuditLog, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Target != nil {
		q = q.Where("target_kind = ? AND target_id = ?", f.Target.Kind, f.Target.ID)
	}
	out, err := findPage[models.AuditLog](q, f.Page)
	return out, s.wrap("list_audit_logs", err)
}

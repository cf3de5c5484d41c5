package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

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
	if _, err := s.c(colReports).InsertOne(ctx, r); err != nil {
		return nil, s.wrap("create_report", err)
	}
	return &r, nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	r, err := findOne[models.Report](ctx, s.c(colReports), byID(id))
	return r, s.wrap("get_report", err)
}

func (s *Store) ListReports(ctx context.Context, status models.ReportStatus, page storage.Page) ([]models.Report, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	out, err := findPage[models.Report](ctx, s.c(colReports), filter, newestFirst, page)
	return out, s.wrap("list_reports", err)
}

func (s *Store) UpdateReport(ctx context.Context, id string, p storage.ReportPatch) (*models.Report, error) {
	set := bson.M{}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.HandledBy != nil {
		set["handled_by"] = strPtr(p.HandledBy)
	}
	if p.Resolution != nil {
		set["resolution"] = *p.Resolution
	}
	return patch[models.Report](s, ctx, colReports, "update_report", byID(id), set)
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
	if _, err := s.c(colAuditLogs).InsertOne(ctx, a); err != nil {
		return nil, s.wrap("create_audit_log", err)
	}
	return &a, nil
}

func (s *Store) ListAuditLogs(ctx context.Context, f storage.AuditFilter) ([]models.AuditLog, error) {
	filter := bson.M{}
	if f.ActorID != "" {
		filter["actor_id"] = f.ActorID
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	if f.Target != nil {
		filter["target.kind"] = f.Target.Kind
		filter["target.id"] = f.Target.ID
	}
	out, err := findPage[models.AuditLog](ctx, s.c(colAuditLogs), filter, newestFirst, f.Page)
	return out, s.wrap("list_audit_logs", err)
}

package service

import (
	"context"
	"log/slog"
	"strings"

	"evcircle/internal/middleware"
	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const (
	maxReasonLen     = 120
	maxReportDetails = 2000
)

// SystemActor performs actions started from the admin command line.
var SystemActor = Actor{ID: "system", Role: models.RoleAdmin, Status: models.StatusActive}

type ModerationService struct {
	store  storage.Storage
	notify *NotificationService
}

func NewModerationService(store storage.Storage, notify *NotificationService) *ModerationService {
	return &ModerationService{store: store, notify: notify}
}

func requireModerator(actor Actor) error {
	if !actor.CanModerate() {
		return models.NewForbiddenError("Moderator access required")
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

func recordAudit(ctx context.Context, store storage.ModerationStore, actor Actor, action string, target models.Target, meta map[string]interface{}) error {
	_, err := store.CreateAuditLog(ctx, storage.NewAuditLog{
		Action:   action,
		ActorID:  actor.ID,
		Target:   target,
		Metadata: meta,
	})
	return err
}

// auditRemoval logs a moderator removing someone else's content. The removal
// already happened, so failures are only logged.
func auditRemoval(ctx context.Context, store storage.ModerationStore, actor Actor, target models.Target, ownerID string) {
	err := recordAudit(ctx, store, actor, models.AuditContentRemoved, target, map[string]interface{}{"owner_id": ownerID})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to write audit log",
			slog.String("action", models.AuditContentRemoved), slog.String("target", target.String()),
			slog.String("error", err.Error()))
	}
}

type CreateReportInput struct {
	Target  models.Target
	Reason  string
	Details string
}

func (s *ModerationService) CreateReport(ctx context.Context, actor Actor, in CreateReportInput) (*models.Report, error) {
	if err := in.Target.Validate(models.ReportTargets...); err != nil {
		return nil, err
	}
	if in.Target.Kind == models.TargetUser && in.Target.ID == actor.ID {
		return nil, models.NewValidationError("You cannot report yourself")
	}
	reason := strings.TrimSpace(in.Reason)
	if err := validation.ValidateRequired("reason", reason, maxReasonLen); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateLength("details", in.Details, maxReportDetails); err != nil {
		return nil, invalid(err)
	}
	return s.store.CreateReport(ctx, storage.NewReport{
		ReporterID: actor.ID,
		Target:     in.Target,
		Reason:     reason,
		Details:    strings.TrimSpace(in.Details),
	})
}

func (s *ModerationService) ListReports(ctx context.Context, actor Actor, status models.ReportStatus, page storage.Page) ([]models.Report, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, models.NewValidationError("Invalid report status")
	}
	return s.store.ListReports(ctx, status, page)
}

type ReviewReportInput struct {
	Status     models.ReportStatus
	Resolution *string
}

// ReviewReport moves a report through review and tells the reporter.
func (s *ModerationService) ReviewReport(ctx context.Context, actor Actor, id string, in ReviewReportInput) (*models.Report, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, models.NewValidationError("Invalid report status")
	}
	resolution := trimmed(in.Resolution)
	if resolution != nil {
		if err := validation.ValidateLength("resolution", *resolution, maxReportDetails); err != nil {
			return nil, invalid(err)
		}
	}
	existing, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, models.NewNotFoundError("Report", id)
	}

	handledBy := actor.ID
	report, err := s.store.UpdateReport(ctx, id, storage.ReportPatch{
		Status:     &in.Status,
		HandledBy:  &handledBy,
		Resolution: resolution,
	})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, models.NewNotFoundError("Report", id)
	}

	meta := map[string]interface{}{"from": string(existing.Status), "to": string(report.Status)}
	if err := recordAudit(ctx, s.store, actor, models.AuditReportUpdated, report.Target, meta); err != nil {
		return nil, err
	}
	if report.Status == models.ReportResolved || report.Status == models.ReportDismissed {
		s.notify.notifyQuietly(ctx, storage.NewNotification{
			UserID:  report.ReporterID,
			Type:    models.NotifyReportUpdate,
			ActorID: actor.ID,
			Target:  report.Target,
			Message: "your report was " + strings.ToLower(string(report.Status)),
		})
	}
	return report, nil
}

func (s *ModerationService) ListAuditLogs(ctx context.Context, actor Actor, filter storage.AuditFilter) ([]models.AuditLog, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	return s.store.ListAuditLogs(ctx, filter)
}

func (s *ModerationService) loadUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return u, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *ModerationService) SetRole(ctx context.Context, actor Actor, userID string, role models.UserRole) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}
	if userID == actor.ID && role != models.RoleAdmin {
		return nil, models.NewConflictError("You cannot demote yourself")
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == role {
		return u, nil
	}
	updated, err := s.store.UpdateUser(ctx, userID, storage.UserPatch{Role: &role})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	meta := map[string]interface{}{"from": string(u.Role), "to": string(role)}
	if err := recordAudit(ctx, s.store, actor, models.AuditRoleChanged, models.NewTarget(models.TargetUser, userID), meta); err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatus suspends, bans or reinstates a user.
func (s *ModerationService) SetStatus(ctx context.Context, actor Actor, userID string, status models.UserStatus, reason string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}
	if userID == actor.ID {
		return nil, models.NewConflictError("You cannot change your own status")
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Status == status {
		return u, nil
	}
	updated, err := s.store.UpdateUser(ctx, userID, storage.UserPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	meta := map[string]interface{}{"from": string(u.Status), "to": string(status)}
	if reason = strings.TrimSpace(reason); reason != "" {
		meta["reason"] = reason
	}
	if err := recordAudit(ctx, s.store, actor, models.AuditStatusChanged, models.NewTarget(models.TargetUser, userID), meta); err != nil {
		return nil, err
	}
	return updated, nil
}

// Recount rebuilds every derived counter.
func (s *ModerationService) Recount(ctx context.Context, actor Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.RecountCounters(ctx); err != nil {
		return err
	}
	return recordAudit(ctx, s.store, actor, models.AuditCountersRecount, models.Target{}, map[string]interface{}{"backend": s.store.Backend()})
}

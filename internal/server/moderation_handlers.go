package server

import (
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/reports
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req struct {
		Kind    models.TargetKind `json:"kind"`
		ID      string            `json:"id"`
		Reason  string            `json:"reason"`
		Details string            `json:"details"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	report, err := s.svc.Moderation.CreateReport(c.UserContext(), actor(c), service.CreateReportInput{
		Target:  models.NewTarget(models.TargetKind(strings.ToUpper(string(req.Kind))), req.ID),
		Reason:  req.Reason,
		Details: req.Details,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReports handles GET /api/admin/reports?status=
func (s *Server) GetReports(c *fiber.Ctx) error {
	status := models.ReportStatus(strings.ToUpper(c.Query("status")))
	reports, err := s.svc.Moderation.ListReports(c.UserContext(), actor(c), status, parsePagination(c, storage.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(reports))
}

// ReviewReport handles PUT /api/admin/reports/:id
func (s *Server) ReviewReport(c *fiber.Ctx) error {
	var req struct {
		Status     models.ReportStatus `json:"status"`
		Resolution *string             `json:"resolution"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	report, err := s.svc.Moderation.ReviewReport(c.UserContext(), actor(c), c.Params("id"), service.ReviewReportInput{
		Status:     models.ReportStatus(strings.ToUpper(string(req.Status))),
		Resolution: req.Resolution,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// GetAuditLogs handles GET /api/admin/audit-logs?actor_id=&action=
func (s *Server) GetAuditLogs(c *fiber.Ctx) error {
	filter := storage.AuditFilter{
		ActorID: c.Query("actor_id"),
		Action:  c.Query("action"),
		Page:    parsePagination(c, 50),
	}
	if kind, id := c.Query("target_kind"), c.Query("target_id"); kind != "" && id != "" {
		target := models.NewTarget(models.TargetKind(strings.ToUpper(kind)), id)
		filter.Target = &target
	}

	logs, err := s.svc.Moderation.ListAuditLogs(c.UserContext(), actor(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(logs))
}

// SetUserRole handles PUT /api/admin/users/:id/role (admins only)
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	var req struct {
		Role models.UserRole `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	role := models.UserRole(strings.ToUpper(string(req.Role)))
	user, err := s.svc.Moderation.SetRole(c.UserContext(), actor(c), c.Params("id"), role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// SetUserStatus handles PUT /api/admin/users/:id/status (admins only)
func (s *Server) SetUserStatus(c *fiber.Ctx) error {
	var req struct {
		Status models.UserStatus `json:"status"`
		Reason string            `json:"reason"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	status := models.UserStatus(strings.ToUpper(string(req.Status)))
	user, err := s.svc.Moderation.SetStatus(c.UserContext(), actor(c), c.Params("id"), status, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// RecountCounters handles POST /api/admin/recount (admins only)
func (s *Server) RecountCounters(c *fiber.Ctx) error {
	if err := s.svc.Moderation.Recount(c.UserContext(), actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok", "backend": s.store.Backend()})
}

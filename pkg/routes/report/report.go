package report

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Service is the lifecycle surface behind the report routes
type Service interface {
	RunAutoMatchForReport(ctx context.Context, reportID string) int
	Candidates(ctx context.Context, reportID string) []*models.Match
	ChangeReportStatus(ctx context.Context, reportID string, status models.ReportStatus) bool
	RelatedReports(ctx context.Context, reportID string) []*models.Report
}

type Handler struct {
	service Service
}

type AutoMatchResponse struct {
	Created int `json:"created"`
}

type StatusRequest struct {
	Status models.ReportStatus `json:"status"`
}

// Register registers report routes. admin guards status changes.
func Register(g *echo.Group, service Service, admin ...echo.MiddlewareFunc) {
	h := &Handler{service: service}

	g.POST("/:id/auto-match", h.AutoMatch)
	g.GET("/:id/candidates", h.Candidates)
	g.GET("/:id/related", h.Related)
	g.PUT("/:id/status", h.UpdateStatus, admin...)
}

// AutoMatch saves new matches for the report and returns how many were created
func (h *Handler) AutoMatch(c echo.Context) error {
	created := h.service.RunAutoMatchForReport(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, AutoMatchResponse{Created: created})
}

// Candidates returns the ranked matches a run would propose, without saving
func (h *Handler) Candidates(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Candidates(c.Request().Context(), c.Param("id")))
}

func (h *Handler) Related(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.RelatedReports(c.Request().Context(), c.Param("id")))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Status.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "status must be one of pending, processing, matched, contacted, closed")
	}

	if !h.service.ChangeReportStatus(c.Request().Context(), c.Param("id"), req.Status) {
		return httperror.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, req)
}

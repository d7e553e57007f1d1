package match

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Service is the lifecycle surface behind the match routes
type Service interface {
	GetMatchesWithDetails(ctx context.Context, status models.MatchStatus) []models.MatchDetails
	ConfirmMatch(ctx context.Context, matchID string) bool
	RejectMatch(ctx context.Context, matchID string) bool
}

type Handler struct {
	service Service
	logger  ectologger.Logger
}

// Register registers match routes. review guards the decision routes.
func Register(g *echo.Group, service Service, logger ectologger.Logger, review ...echo.MiddlewareFunc) {
	h := &Handler{service: service, logger: logger}

	g.GET("", h.ListMatches)
	g.POST("/:id/confirm", h.ConfirmMatch, review...)
	g.POST("/:id/reject", h.RejectMatch, review...)
}

// ListMatches lists matches with both reports, optionally filtered by status
func (h *Handler) ListMatches(c echo.Context) error {
	status := models.MatchStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "status must be one of pending, confirmed, rejected")
	}

	return c.JSON(http.StatusOK, h.service.GetMatchesWithDetails(c.Request().Context(), status))
}

func (h *Handler) ConfirmMatch(c echo.Context) error {
	return h.decide(c, models.MatchStatusConfirmed, h.service.ConfirmMatch)
}

func (h *Handler) RejectMatch(c echo.Context) error {
	return h.decide(c, models.MatchStatusRejected, h.service.RejectMatch)
}

func (h *Handler) decide(c echo.Context, status models.MatchStatus, apply func(ctx context.Context, id string) bool) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !apply(ctx, id) {
		return httperror.NewHTTPError(http.StatusNotFound, "match not found or not pending")
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"match_id": id,
		"status":   status,
	}).Info("Match reviewed")

	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

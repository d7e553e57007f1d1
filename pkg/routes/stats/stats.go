package stats

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
)

type Service interface {
	Stats(ctx context.Context) models.SystemStats
}

// Register registers the system statistics route
func Register(g *echo.Group, service Service) {
	g.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, service.Stats(c.Request().Context()))
	})
}

package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

type fixedStats models.SystemStats

func (f fixedStats) Stats(context.Context) models.SystemStats { return models.SystemStats(f) }

func TestStats(t *testing.T) {
	e := echo.New()
	Register(e.Group("/api/v1/stats"), fixedStats{TotalLostReports: 4, TotalFoundReports: 2, SuccessfulMatches: 3, MatchRate: 50})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4.0, body["total_lost_reports"])
	assert.Equal(t, 50.0, body["match_rate"])
}

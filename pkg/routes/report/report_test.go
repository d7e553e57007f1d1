package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeService struct {
	statuses map[string]models.ReportStatus
}

func (f *fakeService) RunAutoMatchForReport(_ context.Context, id string) int {
	if id == "lost-1" {
		return 2
	}
	return 0
}

func (f *fakeService) Candidates(_ context.Context, _ string) []*models.Match {
	return []*models.Match{{LostReportID: "lost-1", FoundReportID: "found-1", FinalScore: 0.65}}
}

func (f *fakeService) ChangeReportStatus(_ context.Context, id string, status models.ReportStatus) bool {
	if _, ok := f.statuses[id]; !ok {
		return false
	}
	f.statuses[id] = status
	return true
}

func (f *fakeService) RelatedReports(_ context.Context, _ string) []*models.Report {
	return []*models.Report{}
}

func newServer(svc Service) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	Register(e.Group("/api/v1/reports"), svc)
	return e
}

func TestAutoMatch(t *testing.T) {
	e := newServer(&fakeService{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reports/lost-1/auto-match", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body AutoMatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Created)
}

func TestCandidates(t *testing.T) {
	e := newServer(&fakeService{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/lost-1/candidates", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body []models.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, 0.65, body[0].FinalScore)
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name string
		id   string
		body string
		code int
	}{
		{"closed", "lost-1", `{"status":"closed"}`, http.StatusOK},
		{"invalid status", "lost-1", `{"status":"gone"}`, http.StatusBadRequest},
		{"malformed body", "lost-1", `{`, http.StatusBadRequest},
		{"unknown report", "missing", `{"status":"closed"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{statuses: map[string]models.ReportStatus{"lost-1": models.ReportStatusPending}}
			e := newServer(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/reports/"+tt.id+"/status", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, models.ReportStatusClosed, svc.statuses["lost-1"])
			}
		})
	}
}

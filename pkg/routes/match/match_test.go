package match

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeService struct {
	pending map[string]bool
	listed  models.MatchStatus
}

func (f *fakeService) GetMatchesWithDetails(_ context.Context, status models.MatchStatus) []models.MatchDetails {
	f.listed = status
	return []models.MatchDetails{{Match: models.Match{ID: "m-1", Status: models.MatchStatusPending}}}
}

func (f *fakeService) decide(id string) bool {
	if !f.pending[id] {
		return false
	}
	f.pending[id] = false
	return true
}

func (f *fakeService) ConfirmMatch(_ context.Context, id string) bool { return f.decide(id) }
func (f *fakeService) RejectMatch(_ context.Context, id string) bool  { return f.decide(id) }

func newServer(svc Service) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	Register(e.Group("/api/v1/matches"), svc, logger)
	return e
}

func do(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestListMatches(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		code   int
		listed models.MatchStatus
	}{
		{"all", "", http.StatusOK, ""},
		{"pending", "?status=pending", http.StatusOK, models.MatchStatusPending},
		{"invalid", "?status=maybe", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(newServer(svc), http.MethodGet, "/api/v1/matches"+tt.query)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.listed, svc.listed)
			if tt.code == http.StatusOK {
				var body []models.MatchDetails
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Len(t, body, 1)
			}
		})
	}
}

func TestConfirmAndReject(t *testing.T) {
	tests := []struct {
		name   string
		action string
		status string
	}{
		{"confirm", "confirm", "confirmed"},
		{"reject", "reject", "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(&fakeService{pending: map[string]bool{"m-1": true}})

			rec := do(e, http.MethodPost, "/api/v1/matches/m-1/"+tt.action)
			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])

			// decided matches are final
			rec = do(e, http.MethodPost, "/api/v1/matches/m-1/"+tt.action)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

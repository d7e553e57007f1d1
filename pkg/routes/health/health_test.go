package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, c *Checker, path string) (int, Response) {
	t.Helper()
	e := echo.New()
	c.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("connection refused") }

func TestChecker_Health(t *testing.T) {
	tests := []struct {
		name     string
		critical CheckFunc
		optional CheckFunc
		code     int
		status   Status
	}{
		{"all healthy", ok, ok, http.StatusOK, StatusHealthy},
		{"optional down", ok, fail, http.StatusOK, StatusDegraded},
		{"critical down", fail, ok, http.StatusServiceUnavailable, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker("test")
			c.AddCheck("database", true, tt.critical)
			c.AddCheck("graph", false, tt.optional)

			code, body := serve(t, c, "/api/v1/health")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
			assert.Len(t, body.Checks, 2)
		})
	}
}

func TestChecker_Readiness(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", true, ok)

	code, body := serve(t, c, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "startup")

	c.SetReady(true)
	code, body = serve(t, c, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, body.Status)
}

func TestChecker_Liveness(t *testing.T) {
	c := NewChecker("v1.2.3")
	c.AddCheck("database", true, fail)

	code, body := serve(t, c, "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "v1.2.3", body.Version)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"courrierkit/internal/dashboard"
	"courrierkit/internal/logging"
	"courrierkit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, query string) (*dashboard.Response, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*dashboard.Response)
	return resp, args.Error(1)
}

func newTestHandlers(a dashboard.Analyzer) *Handlers {
	return NewHandlers(a, models.Info{ServiceName: "courrierkit agent", Version: "test", UptimeSince: time.Unix(0, 0).UTC(), ReadOnly: true},
		logging.NewLogger("error", "json", io.Discard))
}

func TestDashboardAI(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		query string
	}{
		{"query", `{"query": "courriers en retard"}`, "courriers en retard"},
		{"empty body", ``, ""},
		{"invalid json", `{"query":`, ""},
		{"wrong type", `{"query": 12}`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := new(MockAnalyzer)
			want := &dashboard.Response{Mode: dashboard.Classify(tc.query), Source: dashboard.Source, Query: tc.query}
			analyzer.On("Analyze", mock.Anything, tc.query).Return(want, nil)

			req := httptest.NewRequest(http.MethodPost, "/dashboard-ai", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			newTestHandlers(analyzer).DashboardAI(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "flask-agent", got["source"])
			assert.Equal(t, tc.query, got["query"])
			analyzer.AssertExpectations(t)
		})
	}
}

func TestDashboardAI_Error(t *testing.T) {
	analyzer := new(MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, "x").Return(nil, errors.New("database is locked"))

	req := httptest.NewRequest(http.MethodPost, "/dashboard-ai", strings.NewReader(`{"query":"x"}`))
	rr := httptest.NewRecorder()
	newTestHandlers(analyzer).DashboardAI(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"database is locked"}`, rr.Body.String())
}

func TestDashboardAI_BodyTooLarge(t *testing.T) {
	analyzer := new(MockAnalyzer)

	body := `{"query":"` + strings.Repeat("a", maxRequestBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/dashboard-ai", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newTestHandlers(analyzer).DashboardAI(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.JSONEq(t, `{"error":"request body too large"}`, rr.Body.String())
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandlers(new(MockAnalyzer))

	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = httptest.NewRecorder()
	h.GetInfo(rr, httptest.NewRequest(http.MethodGet, "/api/info", nil))
	var info models.Info
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "courrierkit agent", info.ServiceName)
	assert.True(t, info.ReadOnly)
}

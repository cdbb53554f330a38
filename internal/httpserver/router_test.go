package httpserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"courrierkit/internal/dashboard"
	"courrierkit/internal/httpserver/handlers"
	"courrierkit/internal/logging"
	"courrierkit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAnalyzer struct{}

func (staticAnalyzer) Analyze(_ context.Context, query string) (*dashboard.Response, error) {
	return &dashboard.Response{Mode: dashboard.Classify(query), Source: dashboard.Source, Query: query}, nil
}

func newTestServerHandler() http.Handler {
	quiet := logging.NewLogger("error", "json", io.Discard)
	h := handlers.NewHandlers(staticAnalyzer{}, models.Info{ServiceName: "agent"}, quiet)
	return NewHandler(SetupRouter(h), quiet)
}

func TestRouter(t *testing.T) {
	srv := httptest.NewServer(newTestServerHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/dashboard-ai", strings.NewReader(`{"query":"urgent"}`))
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, string(body), `"mode":"urgent_focus"`)

	resp, err = http.Get(srv.URL + "/dashboard-ai")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"not found"}`, string(body))
}

func TestServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer("127.0.0.1", 0, newTestServerHandler(), logging.NewLogger("error", "json", io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, ln) }()

	url := fmt.Sprintf("http://%s/health", ln.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, "127.0.0.1:0", s.Addr())
}

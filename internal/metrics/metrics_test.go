package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsCommandOutcomes(t *testing.T) {
	recorder := NewRecorder()

	recorder.ObserveCommand("leaderboard.add_player", nil, time.Millisecond)
	recorder.ObserveCommand("leaderboard.add_player", nil, time.Millisecond)
	recorder.ObserveCommand("leaderboard.add_player", errors.New("conflict"), time.Millisecond)

	if value := testutil.ToFloat64(recorder.commandsTotal.WithLabelValues("leaderboard.add_player", outcomeSuccess)); value != 2 {
		t.Fatalf("expected 2 successful commands, got %v", value)
	}
	if value := testutil.ToFloat64(recorder.commandsTotal.WithLabelValues("leaderboard.add_player", outcomeError)); value != 1 {
		t.Fatalf("expected 1 failed command, got %v", value)
	}
	if count := testutil.CollectAndCount(recorder.commandDuration); count != 1 {
		t.Fatalf("expected one duration series, got %d", count)
	}
}

func TestMiddlewareCountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := NewRecorder()

	router := gin.New()
	router.Use(recorder.Middleware())
	router.GET("/api/players/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, path := range []string{"/api/players/1", "/api/players/2", "/missing"} {
		response := httptest.NewRecorder()
		router.ServeHTTP(response, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if value := testutil.ToFloat64(recorder.requestsTotal.WithLabelValues(http.MethodGet, "/api/players/:id", "204")); value != 2 {
		t.Fatalf("expected 2 requests on the templated route, got %v", value)
	}
	if value := testutil.ToFloat64(recorder.requestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")); value != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", value)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	recorder := NewRecorder()
	recorder.ObserveCommand("leaderboard.remove_game", nil, time.Millisecond)

	response := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if response.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", response.Code)
	}
	if !strings.Contains(response.Body.String(), `scoreboard_commands_total{operation="leaderboard.remove_game",outcome="success"} 1`) {
		t.Fatalf("expected command counter in exposition, got %s", response.Body.String())
	}
}

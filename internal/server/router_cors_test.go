package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORSPreflightAllowsMutatingMethods(t *testing.T) {
	server := newTestServer(t, nil)

	request := httptest.NewRequest(http.MethodOptions, "/api/scores", http.NoBody)
	request.Header.Set("Origin", "https://scores.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	request.Header.Set("Access-Control-Request-Headers", "Authorization")

	recorder := httptest.NewRecorder()
	server.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected wildcard origin, got %q", origin)
	}
	allowMethods := recorder.Header().Get("Access-Control-Allow-Methods")
	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodHead} {
		if !strings.Contains(allowMethods, method) {
			t.Fatalf("expected Access-Control-Allow-Methods to include %s, got %q", method, allowMethods)
		}
	}
}

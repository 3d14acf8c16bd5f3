// README: Handler validation tests — all checks happen before any service call.
package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"safeparking/internal/http/handlers"
)

// buildTestRouter wires the handlers with nil services; every test below must
// fail validation before a service method would be reached.
func buildTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	assistant := handlers.NewAssistantHandler(nil)
	r.POST("/api/assistant/message", assistant.Message)
	r.POST("/api/assistant/reset", assistant.Reset)

	parking := handlers.NewParkingHandler(nil, 5)
	r.GET("/api/parking-lots/nearby", parking.Nearby)
	r.GET("/api/parking-lots/search", parking.Search)

	mapsHandler := handlers.NewMapsHandler(nil, nil)
	r.GET("/api/places/search", mapsHandler.SearchPlaces)
	r.POST("/api/directions", mapsHandler.Directions)

	zones := handlers.NewZonesHandler(nil)
	r.POST("/api/zones/check", zones.Check)

	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMessage_RejectsMissingFields(t *testing.T) {
	r := buildTestRouter()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"no session", map[string]any{"message": "주차장 찾아줘"}},
		{"no message", map[string]any{"sessionId": "s1"}},
		{"blank message", map[string]any{"sessionId": "s1", "message": "   "}},
		{"oversized message", map[string]any{"sessionId": "s1", "message": strings.Repeat("가", 501)}},
	}
	for _, tt := range tests {
		if w := doRequest(r, http.MethodPost, "/api/assistant/message", tt.body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, w.Code)
		}
	}
}

func TestMessage_RejectsMalformedJSON(t *testing.T) {
	r := buildTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/message", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReset_RequiresSessionID(t *testing.T) {
	r := buildTestRouter()
	if w := doRequest(r, http.MethodPost, "/api/assistant/reset", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestNearby_RequiresCoordinates(t *testing.T) {
	r := buildTestRouter()

	for _, path := range []string{
		"/api/parking-lots/nearby",
		"/api/parking-lots/nearby?lat=37.5",
		"/api/parking-lots/nearby?lat=abc&lng=127",
		"/api/parking-lots/nearby?lat=91&lng=127",
	} {
		if w := doRequest(r, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	r := buildTestRouter()
	for _, path := range []string{"/api/parking-lots/search", "/api/places/search", "/api/places/search?q=++"} {
		if w := doRequest(r, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestDirections_RequiresEndpoints(t *testing.T) {
	r := buildTestRouter()
	w := doRequest(r, http.MethodPost, "/api/directions", map[string]any{
		"origin": map[string]float64{"lat": 37.5, "lng": 127.0},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestZoneCheck_RequiresVehicleID(t *testing.T) {
	r := buildTestRouter()
	w := doRequest(r, http.MethodPost, "/api/zones/check", map[string]any{"lat": 37.5, "lng": 127.0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

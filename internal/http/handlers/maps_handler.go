// README: Map handlers — place search and direct directions queries.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"safeparking/internal/maps"
	"safeparking/internal/types"
)

type MapsHandler struct {
	places *maps.PlacesService
	routes *maps.RouteService
}

func NewMapsHandler(places *maps.PlacesService, routes *maps.RouteService) *MapsHandler {
	return &MapsHandler{places: places, routes: routes}
}

// SearchPlaces handles GET /api/places/search?q=&lat=&lng=.
func (h *MapsHandler) SearchPlaces(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, http.StatusBadRequest, "q is required")
		return
	}
	origin := types.Point{
		Lat: queryFloat(c, "lat", 0),
		Lng: queryFloat(c, "lng", 0),
	}

	places, err := h.places.Search(c.Request.Context(), q, origin)
	if err != nil {
		writeError(c, http.StatusBadGateway, "place search failed")
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"places": places, "count": len(places)})
}

type directionsReq struct {
	Origin      types.Point   `json:"origin"`
	Destination types.Point   `json:"destination"`
	Waypoints   []types.Point `json:"waypoints,omitempty"`
	Preference  string        `json:"preference,omitempty"`
}

// Directions handles POST /api/directions.
func (h *MapsHandler) Directions(c *gin.Context) {
	var req directionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Origin.IsZero() || req.Destination.IsZero() {
		writeError(c, http.StatusBadRequest, "origin and destination are required")
		return
	}

	summary, err := h.routes.Route(c.Request.Context(), req.Origin, req.Waypoints, req.Destination, req.Preference)
	if err != nil {
		writeError(c, http.StatusBadGateway, "route lookup failed")
		return
	}
	writeJSON(c, http.StatusOK, summary)
}

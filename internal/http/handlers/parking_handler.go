// README: Parking inventory handler (nearby radius search, name search).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"safeparking/internal/modules/parking"
	"safeparking/internal/types"
)

type ParkingHandler struct {
	parking       *parking.Service
	defaultRadius float64
	maxRadius     float64
}

func NewParkingHandler(svc *parking.Service, defaultRadiusKm float64) *ParkingHandler {
	return &ParkingHandler{parking: svc, defaultRadius: defaultRadiusKm, maxRadius: 50}
}

// Nearby handles GET /api/parking-lots/nearby?lat=&lng=&radiusKm=.
func (h *ParkingHandler) Nearby(c *gin.Context) {
	lat, lng, ok := requireLatLng(c)
	if !ok {
		return
	}
	radius := queryFloat(c, "radiusKm", h.defaultRadius)
	if radius <= 0 || radius > h.maxRadius {
		radius = h.defaultRadius
	}

	lots, err := h.parking.FindNearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"lots": lots, "count": len(lots)})
}

// Search handles GET /api/parking-lots/search?q=.
func (h *ParkingHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, http.StatusBadRequest, "q is required")
		return
	}

	lots, err := h.parking.SearchByName(c.Request.Context(), q, 20)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"lots": lots, "count": len(lots)})
}

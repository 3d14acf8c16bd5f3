// README: Restricted-zone handler (per-vehicle dwell check).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"safeparking/internal/modules/zones"
	"safeparking/internal/types"
)

type ZonesHandler struct {
	zones *zones.Service
}

func NewZonesHandler(svc *zones.Service) *ZonesHandler {
	return &ZonesHandler{zones: svc}
}

type zoneCheckReq struct {
	VehicleID string  `json:"vehicleId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Check handles POST /api/zones/check.
func (h *ZonesHandler) Check(c *gin.Context) {
	var req zoneCheckReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.VehicleID = strings.TrimSpace(req.VehicleID)
	if req.VehicleID == "" {
		writeError(c, http.StatusBadRequest, "missing vehicleId")
		return
	}

	status, err := h.zones.Check(c.Request.Context(), types.ID(req.VehicleID), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, status)
}

// README: Base handler utilities (JSON helpers, query parsing).
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// queryFloat parses a float query parameter, falling back to def when absent
// or malformed.
func queryFloat(c *gin.Context, name string, def float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// requireLatLng reads lat/lng query parameters; both must be present and valid.
func requireLatLng(c *gin.Context) (lat, lng float64, ok bool) {
	latRaw, lngRaw := c.Query("lat"), c.Query("lng")
	if latRaw == "" || lngRaw == "" {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return 0, 0, false
	}
	lat, errA := strconv.ParseFloat(latRaw, 64)
	lng, errB := strconv.ParseFloat(lngRaw, 64)
	if errA != nil || errB != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return 0, 0, false
	}
	return lat, lng, true
}

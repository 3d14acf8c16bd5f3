// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"safeparking/internal/http/handlers"
	"safeparking/internal/http/middleware"
	"safeparking/internal/maps"
	"safeparking/internal/modules/parking"
	"safeparking/internal/modules/zones"
	"safeparking/internal/service"
)

type RouterDeps struct {
	Pipeline        *service.Pipeline
	Parking         *parking.Service
	Places          *maps.PlacesService
	Routes          *maps.RouteService
	Zones           *zones.Service
	DefaultRadiusKm float64
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	assistant := handlers.NewAssistantHandler(deps.Pipeline)
	r.POST("/api/assistant/message", assistant.Message)
	r.POST("/api/assistant/reset", assistant.Reset)

	parkingHandler := handlers.NewParkingHandler(deps.Parking, deps.DefaultRadiusKm)
	r.GET("/api/parking-lots/nearby", parkingHandler.Nearby)
	r.GET("/api/parking-lots/search", parkingHandler.Search)

	mapsHandler := handlers.NewMapsHandler(deps.Places, deps.Routes)
	r.GET("/api/places/search", mapsHandler.SearchPlaces)
	r.POST("/api/directions", mapsHandler.Directions)

	zonesHandler := handlers.NewZonesHandler(deps.Zones)
	r.POST("/api/zones/check", zonesHandler.Check)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}

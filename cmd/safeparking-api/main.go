// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"safeparking/internal/ai"
	"safeparking/internal/config"
	httptransport "safeparking/internal/http"
	"safeparking/internal/infra"
	"safeparking/internal/maps"
	"safeparking/internal/modules/convo"
	"safeparking/internal/modules/parking"
	"safeparking/internal/modules/request"
	"safeparking/internal/modules/retrieve"
	"safeparking/internal/modules/zones"
	"safeparking/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	gemini, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.ClassifyModel, cfg.AI.AnswerModel)
	if err != nil {
		log.Fatalf("gemini init: %v", err)
	}
	defer gemini.Close()

	placesSvc, err := maps.NewPlacesService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("places init: %v", err)
	}
	routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("routes init: %v", err)
	}

	parkingStore := parking.NewStore(dbPool)
	parkingSvc := parking.NewService(parkingStore)

	retrieveSvc, err := retrieve.NewService(parkingSvc, placesSvc, retrieve.Options{
		DedupRadiusM:     cfg.Pipeline.DedupRadiusM,
		BackfillCutoffKm: cfg.Pipeline.BackfillCutoffKm,
	})
	if err != nil {
		log.Fatalf("retrieve init: %v", err)
	}

	zonesStore := zones.NewStore(redisClient)
	zonesSvc := zones.NewService(zonesStore, cfg.Zones.RadiusM, cfg.Zones.WarnAfter)
	go runZoneSweeper(ctx, zonesSvc, cfg.Zones.CheckInterval)

	pipeline := service.NewPipeline(
		gemini,
		gemini,
		convo.NewSessions(cfg.Pipeline.HistoryDepth),
		request.NewValidator(cfg.Pipeline.DefaultRadiusKm, cfg.Pipeline.DefaultLimit, cfg.Pipeline.MaxLimit),
		retrieveSvc,
		placesSvc,
		routeSvc,
		cfg.Pipeline.ExternalTimeout,
	)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Pipeline:        pipeline,
		Parking:         parkingSvc,
		Places:          placesSvc,
		Routes:          routeSvc,
		Zones:           zonesSvc,
		DefaultRadiusKm: cfg.Pipeline.DefaultRadiusKm,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// runZoneSweeper periodically drops stale dwell records.
func runZoneSweeper(ctx context.Context, svc *zones.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.Sweep(10 * interval)
		}
	}
}

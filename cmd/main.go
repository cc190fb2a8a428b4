package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/scribenote/scribenote/internal/config"
	"github.com/scribenote/scribenote/internal/delivery"
	"github.com/scribenote/scribenote/internal/domain"
	"github.com/scribenote/scribenote/internal/domain/stations"
	"github.com/scribenote/scribenote/internal/infra"
)

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	zl := logger.NewZapLogger(zcore.Sugar())

	// CONFIG
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	// POSTGRES
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		panic("cannot connect pgxpool: " + err.Error())
	}
	defer pool.Close()

	ctxPing, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()

	if err := pool.Ping(ctxPing); err != nil {
		panic("postgres ping failed: " + err.Error())
	}

	// GATEWAY
	gateway := infra.NewGateway(cfg.BotToken, cfg.GatewayURL, cfg.APIBaseURL, zl)
	go gateway.Run(ctx)

	// SERVICES
	userRepo := infra.NewPostgresUserRepo(pool)
	quota := domain.NewQuotaService(userRepo, cfg.DailyCapSeconds, cfg.AdminUserID)
	pending := domain.NewPendingJobs(cfg.PendingTTL)

	whisper := infra.NewWhisperClient(cfg.OpenAIAPIKey)
	openrouter := infra.NewOpenRouterClient(cfg.OpenRouterAPIKey)

	// STATIONS
	s1 := stations.NewS1FetchVoice(gateway)
	s2 := stations.NewS2Transcode()
	s3 := stations.NewS3Transcribe(whisper)
	s4 := stations.NewS4Structure(openrouter)

	// VOICE SERVICE
	voiceService := domain.NewVoiceService(
		gateway,
		quota,
		pending,
		s1, s2, s3, s4,
		cfg.TmpDir,
		zl,
	)
	go voiceService.Run(ctx)

	// HANDLERS
	usageHandler := delivery.NewUsageHandler(quota, zl)

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	delivery.RegisterRoutes(r, usageHandler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "server started",
		Fields:  map[string]any{"port": cfg.Port},
	})

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
	}
}

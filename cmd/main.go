package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Vovarama1992/speechflow/internal/config"
	"github.com/Vovarama1992/speechflow/internal/delivery"
	"github.com/Vovarama1992/speechflow/internal/domain"
	"github.com/Vovarama1992/speechflow/internal/error_notificator"
	"github.com/Vovarama1992/speechflow/internal/speech"
)

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	var errInfra error_notificator.Notificator
	if cfg.TelegramAlertToken != "" && cfg.TelegramAlertChatID != 0 {
		tg, err := error_notificator.NewTelegramInfra(cfg.TelegramAlertToken, cfg.TelegramAlertChatID)
		if err != nil {
			baseLogger.Warn("telegram alerts disabled", zap.Error(err))
		} else {
			errInfra = tg
		}
	}
	errService := error_notificator.NewService(errInfra, baseLogger)

	// =========================================================================
	// CLIENTS (OpenAI / Google)
	// =========================================================================

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout + 5*time.Second}

	var vendor speech.Vendor
	switch {
	case !cfg.HasCredential():
		baseLogger.Warn("speech vendor not configured; requests will fail",
			zap.String("vendor", cfg.Vendor.String()),
			zap.String("missing", cfg.MissingCredential()),
		)
	case cfg.Vendor == speech.VendorOpenAI:
		vendor = speech.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, httpClient)
	case cfg.Vendor == speech.VendorGoogle:
		gc, err := speech.NewGoogleClient(context.Background(), cfg.GoogleAPIKey, speech.GoogleOptions{
			TTSURL:     cfg.GoogleTTSURL,
			SampleRate: cfg.GoogleSampleRate,
			HTTPClient: httpClient,
		})
		if err != nil {
			log.Fatalf("failed to init google speech: %v", err)
		}
		defer gc.Close()
		vendor = gc
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	authService := domain.NewAuthService(cfg.JWTSecret, cfg.JWTAudience)

	gateway := speech.NewGateway(vendor, speech.Options{
		Guard: speech.GuardSettings{
			MaxConcurrency:  cfg.UpstreamMaxConcurrency,
			BreakerFailures: cfg.BreakerMaxFailures,
			BreakerCooldown: cfg.BreakerCooldown,
			OnTrip: func(v speech.VendorKind) {
				errService.NotifyAsync("breaker", errors.New(v.String()+" circuit opened"), "upstream failing repeatedly")
			},
		},
		UpstreamTimeout:   cfg.UpstreamTimeout,
		DefaultLanguage:   cfg.DefaultLanguage,
		DefaultVoice:      cfg.DefaultVoice,
		MissingCredential: cfg.MissingCredential(),
	}, baseLogger)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()

	speechHandler := delivery.NewSpeechHandler(gateway, zl, cfg.MaxBodyBytes)

	delivery.RegisterRoutes(r, speechHandler, authService, delivery.RouteOptions{
		AuthRequired:       cfg.AuthRequired,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Notifier:           errService,
		Log:                baseLogger,
	})

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
	}

	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "listening at " + addr + " (vendor: " + gateway.VendorKind().String() + ")",
			Service: "speechflow",
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Log(logger.LogEntry{Level: "error", Message: "shutdown failed", Service: "speechflow", Error: err})
	}
}

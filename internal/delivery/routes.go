package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Vovarama1992/speechflow/internal/error_notificator"
	"github.com/Vovarama1992/speechflow/internal/ports"
)

type RouteOptions struct {
	AuthRequired       bool
	RateLimitPerMinute int
	Notifier           error_notificator.Notificator
	Log                *zap.Logger
}

func RegisterRoutes(
	r chi.Router,
	hSpeech *SpeechHandler,
	authSvc ports.AuthService,
	opts RouteOptions,
) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Use(RequestID, Recover(opts.Notifier, log))

	// --- health ---
	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("API is running..."))
	})
	r.Handle("/metrics", promhttp.Handler())

	guarded := []func(http.Handler) http.Handler{}
	if opts.RateLimitPerMinute > 0 {
		guarded = append(guarded, httprate.Limit(
			opts.RateLimitPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeFailure(w, http.StatusTooManyRequests, msgTooManyRequests)
			}),
		))
	}
	if opts.AuthRequired {
		guarded = append(guarded, AuthMiddleware(authSvc))
	}

	// --- REST ---
	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
		}))

		api.Group(func(pr chi.Router) {
			pr.Use(guarded...)
			pr.Post("/ai/speech-to-text", hSpeech.Transcribe)
			pr.Post("/ai/text-to-speech", hSpeech.Synthesize)
		})
	})

	// --- function invocation ---
	fn := NewFunctionHandler(hSpeech)
	r.With(FunctionCORS).With(guarded...).HandleFunc("/functions/v1/{name}", fn.Invoke)
}

package delivery

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Vovarama1992/speechflow/internal/error_notificator"
	"github.com/Vovarama1992/speechflow/internal/speech"
)

// Recover turns a handler panic into the failure envelope and an operator alert.
func Recover(notifier error_notificator.Notificator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				route := r.Method + " " + r.URL.Path
				log.Error("handler panic",
					zap.String("route", route),
					zap.String("request_id", speech.RequestID(r.Context())),
					zap.Error(err),
					zap.ByteString("stack", debug.Stack()),
				)
				if notifier != nil {
					go func() {
						_ = notifier.Notify(context.Background(), "panic", err, route)
					}()
				}

				if ww.Status() == 0 {
					writeFailure(w, http.StatusInternalServerError, msgInternal)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

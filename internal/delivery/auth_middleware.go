package delivery

import (
	"context"
	"net/http"
	"strings"

	"github.com/Vovarama1992/speechflow/internal/ports"
)

type subjectKey struct{}

// Subject returns the authenticated caller, if any.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				writeFailure(w, http.StatusUnauthorized, msgNotAuthorized)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			sub, err := auth.ValidateToken(r.Context(), token)
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, msgNotAuthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, sub)))
		})
	}
}

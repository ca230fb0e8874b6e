package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kay-kewl/shop-platform/internal/requestid"
)

// RequestID tags every request with an id, reusing the caller's X-Request-ID
// when one is supplied so ids survive hops through the ingress.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			next.ServeHTTP(w, r.WithContext(requestid.With(r.Context(), id)))
		},
	)
}

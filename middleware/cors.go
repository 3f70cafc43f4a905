package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the listed browser origins call the API with the session cookie.
// With no origins only same-origin requests get through; "*" is never used
// since browsers refuse it on credentialed requests.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(allowedOrigins) == 0 {
		// an empty list means "any origin" to cors.Handler
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
	}
	return cors.Handler(opts)
}

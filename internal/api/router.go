/**
 * @description
 * This file sets up the HTTP router for the USSD gateway using the `chi`
 * routing library.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(ussdHandler *USSDHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Aggregator callback. Both paths are registered because aggregators
	// differ in whether they append a suffix to the configured URL.
	r.Post("/", ussdHandler.Handle)
	r.Post("/ussd", ussdHandler.Handle)

	return r
}

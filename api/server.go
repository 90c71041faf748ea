/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/loans/*   Lender operations (full access, token visible)
  /api/share/*   Borrower view (read-only, token IS the credential)

SECURITY NOTE:
  No authentication middleware on lender routes. The share routes need
  none: an unguessable token in the URL is the access grant, and every
  handler behind them is read-only.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Lender routes
		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.ListLoans)
			r.Post("/", h.CreateLoan)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLoan)
				r.Put("/", h.UpdateLoan)
				r.Delete("/", h.DeleteLoan)
				r.Post("/token/rotate", h.RotateShareToken)

				r.Get("/payments", h.ListPayments)
				r.Post("/payments", h.AddPayment)
				r.Put("/payments", h.ReplacePayments)
				r.Post("/payments/import", h.ImportPayments)

				r.Get("/ledger", h.GetLedger)
				r.Get("/ledger.csv", h.GetLedgerCSV)
				r.Get("/summary", h.GetSummary)
				r.Get("/statement", h.GetStatement)
			})
		})

		// Borrower share routes (read-only)
		r.Route("/share/{token}", func(r chi.Router) {
			r.Get("/", h.GetSharedLoan)
			r.Get("/ledger", h.GetSharedLedger)
			r.Get("/ledger.csv", h.GetSharedLedgerCSV)
			r.Get("/statement", h.GetSharedStatement)
		})
	})

	return r
}

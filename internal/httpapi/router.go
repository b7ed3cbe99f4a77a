// Package httpapi wires the HTTP surface of the bookkeeping service.
// Handlers stay thin and delegate every rule to the books application context.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tinoosan/microfin/internal/auth"
	"github.com/tinoosan/microfin/internal/ledger"
)

// Options tunes the server. Ready, when set, backs /readyz.
type Options struct {
	CORSOrigins []string
	Ready       func(context.Context) error
}

// Server wires handlers and middleware using Chi.
type Server struct {
	books  Books
	tokens *auth.Tokens
	ready  func(context.Context) error
	log    *slog.Logger
	rt     *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(b Books, tokens *auth.Tokens, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s := &Server{books: b, tokens: tokens, ready: opts.Ready, log: logger, rt: r}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())

	s.rt.Post("/v1/login", s.login)
	s.rt.Get("/v1/dictionary/transaction-types", s.transactionTypes)

	s.rt.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/v1/me", s.me)
		r.Get("/v1/fund-state", s.fundState)
		r.Get("/v1/records", s.records)

		r.Post("/v1/bank-accounts", s.postBankAccount)
		r.Post("/v1/bank-accounts/{id}/transactions", s.postBankTransaction)
		r.Post("/v1/clients", s.postClient)
		r.Patch("/v1/clients/{id}/status", s.patchClientStatus)
		r.Post("/v1/loans", s.postLoan)
		r.Post("/v1/dps", s.postDPS)
		r.Post("/v1/fdr", s.postFDR)
		r.Post("/v1/dps/{id}/close", s.closeSavings(ledger.KindDPS))
		r.Post("/v1/fdr/{id}/close", s.closeSavings(ledger.KindFDR))
		r.Post("/v1/transactions", s.postTransaction)

		r.Post("/v1/branches", s.postBranch)
		r.Post("/v1/users", s.postUser)
		r.Put("/v1/users/{id}/password", s.putPassword)
	})
}

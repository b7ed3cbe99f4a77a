package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/microfin/internal/auth"
	"github.com/tinoosan/microfin/internal/ledger"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

// requestLogger logs basic request info at INFO.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := chimw.GetReqID(r.Context())
			l.Info("request started", "req_id", reqID, "method", r.Method, "path", r.URL.Path)

			next.ServeHTTP(ww, r)

			l.Info("request complete",
				"req_id", reqID,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer logs panics as ERROR and returns 500.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := chimw.GetReqID(r.Context())
					l.Error("panic", "req_id", reqID, "err", rec, "stack", string(debug.Stack()))
					writeErr(w, http.StatusInternalServerError, "internal error", "internal_error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate enforces Authorization: Bearer <jwt> and resolves the token subject to
// the current user record, which handlers receive through actorFrom.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "missing bearer token", "unauthenticated")
			return
		}
		claims, err := s.tokens.Parse(tok)
		if err != nil {
			s.log.Debug("token rejected", "req_id", chimw.GetReqID(r.Context()), "err", err)
			writeErr(w, http.StatusUnauthorized, "invalid token", "unauthenticated")
			return
		}
		u, err := s.books.User(r.Context(), claims.Subject)
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "unknown user", "unauthenticated")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyActor, &u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) *ledger.UserAccount {
	u, _ := ctx.Value(ctxKeyActor).(*ledger.UserAccount)
	return u
}

package httpapi

import (
	"net/http"

	"github.com/tinoosan/microfin/internal/errs"
)

// POST /v1/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.books.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeBooksErr(w, r, err)
		return
	}
	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		s.writeBooksErr(w, r, err)
		return
	}
	s.log.Info("login", "user_id", u.ID, "branch_id", u.BranchID)
	toJSON(w, http.StatusOK, loginResponse{Token: tok, ExpiresAt: exp, User: toUserResponse(u)})
}

// GET /v1/me
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := actorFrom(r.Context())
	if u == nil {
		s.writeBooksErr(w, r, errs.ErrUnauthenticated)
		return
	}
	toJSON(w, http.StatusOK, toUserResponse(*u))
}

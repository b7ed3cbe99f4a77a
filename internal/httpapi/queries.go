package httpapi

import "net/http"

// GET /v1/fund-state?branch_id=
func (s *Server) fundState(w http.ResponseWriter, r *http.Request) {
	rep, err := s.books.FundState(r.Context(), actorFrom(r.Context()), r.URL.Query().Get("branch_id"))
	if err != nil {
		s.writeBooksErr(w, r, err)
		return
	}
	cur := s.books.Currency()
	toJSON(w, http.StatusOK, fundStateResponse{
		Scope:      rep.Scope,
		BranchName: rep.BranchName,
		Currency:   cur,
		Fund:       rep.Fund,
		Formatted:  rep.Fund.Format(cur),
	})
}

// GET /v1/records?branch_id=
func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	view, err := s.books.ScopedRecords(r.Context(), actorFrom(r.Context()), r.URL.Query().Get("branch_id"))
	if err != nil {
		s.writeBooksErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toRecordsResponse(view))
}

package http

import (
	"net/http"

	"financy/internal/core"
)

type draftResponse struct {
	BudgetID int64        `json:"budget_id"`
	Pending  bool         `json:"pending"`
	Saved    *core.Budget `json:"saved,omitempty"`
}

// handlePutDraft queues a budget edit. The editor saves it once edits stop
// arriving, so the response is 202 with the draft state.
func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	if s.deps.Editor == nil {
		ErrorResponse(http.StatusServiceUnavailable, "budget editing is not configured").Write(w)
		return
	}
	id, err := ParseBudgetID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var update core.BudgetUpdate
	if err := DecodeJSON(r, &update); err != nil {
		s.fail(w, r, err)
		return
	}
	if update.IsEmpty() {
		BadRequestError("empty budget update").Write(w)
		return
	}
	if err := s.deps.Editor.Apply(id, update); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(s.draftState(id)).Write(w)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	if s.deps.Editor == nil {
		ErrorResponse(http.StatusServiceUnavailable, "budget editing is not configured").Write(w)
		return
	}
	id, err := ParseBudgetID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, s.draftState(id), nil)
}

func (s *Server) draftState(id int64) draftResponse {
	resp := draftResponse{BudgetID: id, Pending: s.deps.Editor.Pending(id)}
	if saved, ok := s.deps.Editor.Saved(id); ok {
		resp.Saved = &saved
	}
	return resp
}

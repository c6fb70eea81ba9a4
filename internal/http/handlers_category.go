package http

import (
	"net/http"
	"strings"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type categoryResponse struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{Name: c.Name, Color: c.Color})
	}
	respondJSON(w, http.StatusOK, "ok", out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	cat, err := s.ledger.AddCategory(r.Context(), userIDFrom(r.Context()),
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Color))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "category created", categoryResponse{Name: cat.Name, Color: cat.Color})
}

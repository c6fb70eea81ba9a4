package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"tally/internal/core"
)

type timePointResponse struct {
	Label      string `json:"label"`
	Start      string `json:"start"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type categoryTotalResponse struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	s.handleSeries(w, r, "days", 30, s.analytics.DailyTotals)
}

func (s *Server) handleWeeklyTotals(w http.ResponseWriter, r *http.Request) {
	s.handleSeries(w, r, "weeks", 12, s.analytics.WeeklyTotals)
}

func (s *Server) handleMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	s.handleSeries(w, r, "months", 12, s.analytics.MonthlyTotals)
}

func (s *Server) handleYearlyTotals(w http.ResponseWriter, r *http.Request) {
	s.handleSeries(w, r, "years", 5, s.analytics.YearlyTotals)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request, param string, defaultN int,
	series func(context.Context, core.UserID, int) ([]core.TimePoint, error)) {

	n := defaultN
	if v := r.URL.Query().Get(param); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 1000 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", param))
			return
		}
		n = parsed
	}

	points, err := series(r.Context(), userIDFrom(r.Context()), n)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]timePointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, timePointResponse{
			Label:      p.Label,
			Start:      p.Start.String(),
			Total:      p.Total.String(),
			TotalCents: p.Total.Cents,
		})
	}
	respondJSON(w, http.StatusOK, "ok", out)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := core.ParseDate(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := core.ParseDate(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	totals, err := s.analytics.CategoryBreakdown(r.Context(), userIDFrom(r.Context()), from, to)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]categoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryTotalResponse{
			Name:       t.Name,
			Color:      t.Color,
			Total:      t.Total.String(),
			TotalCents: t.Total.Cents,
		})
	}
	respondJSON(w, http.StatusOK, "ok", out)
}

package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"tally/internal/core"
)

type expenseRequest struct {
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
}

type expensePatchRequest struct {
	Amount        *string `json:"amount"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	Date          *string `json:"date"`
	Time          *string `json:"time"`
	PaymentMethod *string `json:"payment_method"`
	TransactionID *string `json:"transaction_id"`
}

type expenseResponse struct {
	ID            string `json:"id"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	Description   string `json:"description,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:            string(e.ID),
		Amount:        e.Amount.String(),
		AmountCents:   e.Amount.Cents,
		Category:      e.Category,
		Description:   e.Description,
		Date:          e.Date.String(),
		Time:          e.Time,
		PaymentMethod: e.PaymentMethod,
		TransactionID: e.TransactionID,
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     e.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Amount:        amount,
		Category:      strings.TrimSpace(req.Category),
		Description:   strings.TrimSpace(req.Description),
		Date:          date,
		Time:          strings.TrimSpace(req.Time),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		TransactionID: strings.TrimSpace(req.TransactionID),
	}, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	expense, err := req.toExpense()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	userID := userIDFrom(r.Context())
	id, err := s.ledger.Create(r.Context(), userID, expense)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	created, err := s.ledger.Get(r.Context(), userID, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "expense created", toExpenseResponse(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := core.ExpenseID(r.PathValue("id"))
	expense, err := s.ledger.Get(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expensePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if patch.IsEmpty() {
		respondError(w, http.StatusBadRequest, "patch changes nothing")
		return
	}

	userID := userIDFrom(r.Context())
	id := core.ExpenseID(r.PathValue("id"))
	if err := s.ledger.Update(r.Context(), userID, id, patch); err != nil {
		respondDomainError(w, r, err)
		return
	}

	updated, err := s.ledger.Get(r.Context(), userID, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "expense updated", toExpenseResponse(updated))
}

func (req expensePatchRequest) toPatch() (core.ExpensePatch, error) {
	var patch core.ExpensePatch
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		patch.Date = &date
	}
	patch.Category = req.Category
	patch.Description = req.Description
	patch.Time = req.Time
	patch.PaymentMethod = req.PaymentMethod
	patch.TransactionID = req.TransactionID
	return patch, nil
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := core.ExpenseID(r.PathValue("id"))
	if err := s.ledger.Delete(r.Context(), userIDFrom(r.Context()), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "expense deleted", nil)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	expenses, err := s.ledger.List(r.Context(), userIDFrom(r.Context()), filter)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	respondJSON(w, http.StatusOK, "ok", out)
}

func filterFromQuery(r *http.Request) (core.ExpenseFilter, error) {
	q := r.URL.Query()
	var filter core.ExpenseFilter

	if v := q.Get("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.ExpenseFilter{}, err
		}
		filter.From = d
	}
	if v := q.Get("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.ExpenseFilter{}, err
		}
		filter.To = d
	}
	filter.Category = strings.TrimSpace(q.Get("category"))
	filter.Search = strings.TrimSpace(q.Get("search"))
	filter.TransactionID = strings.TrimSpace(q.Get("transaction_id"))

	for param, target := range map[string]**int64{
		"amount":     &filter.ExactCents,
		"min_amount": &filter.MinCents,
		"max_amount": &filter.MaxCents,
	} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		m, err := core.ParseAmount(v)
		if err != nil {
			return core.ExpenseFilter{}, fmt.Errorf("%w: invalid %s", core.ErrValidation, param)
		}
		cents := m.Cents
		*target = &cents
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return core.ExpenseFilter{}, fmt.Errorf("%w: invalid limit", core.ErrValidation)
		}
		filter.Limit = limit
	}

	return filter, nil
}

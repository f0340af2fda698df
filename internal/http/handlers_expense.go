package http

import (
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, r, log.OpAdd, err)
		return
	}
	if err := req.validate(); err != nil {
		respondBadRequest(w, r, log.OpAdd, err)
		return
	}

	id, err := s.svc.AddExpense(r.Context(), core.Expense{
		Date:        *req.Date,
		Amount:      *req.Amount,
		Category:    *req.Category,
		Subcategory: req.Subcategory,
		Note:        req.Note,
	})
	if err != nil {
		respondError(w, r, log.OpAdd, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		JSON(core.AddResult{Status: core.StatusOK, ID: id}).
		Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	params, err := requireQuery(r.URL.Query(), "start_date", "end_date")
	if err != nil {
		respondBadRequest(w, r, log.OpList, err)
		return
	}

	expenses, err := s.svc.ListExpenses(r.Context(), params[0], params[1])
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().JSON(expenses).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondBadRequest(w, r, log.OpGet, err)
		return
	}

	expense, err := s.svc.GetExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, log.OpGet, err)
		return
	}
	NewJSONResponse().JSON(expense).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondBadRequest(w, r, log.OpUpdate, err)
		return
	}
	var update core.ExpenseUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondBadRequest(w, r, log.OpUpdate, err)
		return
	}

	n, err := s.svc.UpdateExpense(r.Context(), id, update)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().JSON(core.UpdateResult{Status: core.StatusOK, Updated: n}).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondBadRequest(w, r, log.OpDelete, err)
		return
	}

	n, err := s.svc.DeleteExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().JSON(core.DeleteResult{Status: core.StatusOK, Deleted: n}).Write(w)
}

func (s *Server) handleFilterExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expenses, err := s.svc.FilterExpenses(r.Context(), core.Filter{
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
	})
	if err != nil {
		respondError(w, r, log.OpFilter, err)
		return
	}
	NewJSONResponse().JSON(expenses).Write(w)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := requireQuery(q, "start_date", "end_date")
	if err != nil {
		respondBadRequest(w, r, log.OpSummarize, err)
		return
	}

	totals, err := s.svc.Summarize(r.Context(), params[0], params[1], q.Get("category"))
	if err != nil {
		respondError(w, r, log.OpSummarize, err)
		return
	}
	NewJSONResponse().JSON(totals).Write(w)
}

// handleCategories returns the catalog document exactly as stored.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.Categories(r.Context())
	if err != nil {
		respondError(w, r, log.OpCategories, err)
		return
	}
	NewJSONResponse().Raw(doc).Write(w)
}

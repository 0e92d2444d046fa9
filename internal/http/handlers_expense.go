package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"expense-tracker/internal/core"
	applog "expense-tracker/internal/log"
	"expense-tracker/internal/services"
)

// expenseResponse is the API view of an expense. Absent descriptions are
// rendered as an empty string.
type expenseResponse struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
}

func toResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Category:    e.Category.Name,
		Amount:      json.Number(e.Amount.String()),
		Date:        e.Date.String(),
		Description: e.Description,
	}
}

func toResponses(es []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toResponse(e))
	}
	return out
}

var requiredFields = []string{"category", "amount", "date"}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseDateQuery(query, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseDateQuery(query, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter := services.ListFilter{
		InsertionOrder: strings.EqualFold(query.Get("sort"), "insertion"),
		From:           from,
		To:             to,
	}
	NewJSONResponse().JSON(toResponses(s.store.List(filter))).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "Request body too large").Write(w)
			return
		}
		BadRequestError("Invalid request body").Write(w)
		return
	}
	if missing := p.Missing(requiredFields...); len(missing) > 0 {
		BadRequestError("Missing required fields: " + strings.Join(requiredFields, ", ")).Write(w)
		return
	}

	e, err := s.store.Create(r.Context(), p.Get("category"), p.Get("amount"), p.Get("date"), p.Get("description"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(toResponse(e)).
		Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(toResponse(e)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(map[string]string{"message": "Expense deleted successfully"}).Write(w)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	n := s.store.Clear(r.Context())
	NewJSONResponse().JSON(map[string]int{"removed": n}).Write(w)
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(toResponses(s.store.ByCategory(chi.URLParam(r, "category")))).Write(w)
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationErrorResponse(verr.Field, verr.Error()).Write(w)
	case services.IsNotFound(err):
		NotFoundError("Expense not found").Write(w)
	default:
		fields := applog.NewFields().
			WithError(err).
			WithErrorType(applog.ErrorTypeInternal).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		InternalServerError("Internal server error").Write(w)
	}
}

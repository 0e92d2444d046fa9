package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	applog "expense-tracker/internal/log"
	"expense-tracker/internal/services"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	svc := services.NewExpenseService(filepath.Join(t.TempDir(), "expenses.json"), nil, applog.Nop())
	srv := NewServer(":0", svc, opts)
	t.Cleanup(srv.limiter.Stop)
	return srv
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func create(t *testing.T, srv *Server, body string) expenseResponse {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decode[expenseResponse](t, rr)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health status=%d", rr.Code)
	}
	body := decode[map[string]string](t, rr)
	if body["status"] != "healthy" {
		t.Fatalf("health body=%v", body)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("request id header missing")
	}
}

func TestCreateExpense(t *testing.T) {
	srv := newTestServer(t, Options{})

	t.Run("json", func(t *testing.T) {
		e := create(t, srv, `{"category":" Food ","amount":15.5,"date":"2024-01-02","description":"lunch"}`)
		if e.ID == "" || e.Category != "Food" || e.Amount.String() != "15.50" || e.Date != "2024-01-02" || e.Description != "lunch" {
			t.Fatalf("created = %+v", e)
		}
	})

	t.Run("string amount and no description", func(t *testing.T) {
		rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", `{"category":"Transport","amount":"9","date":"2024-01-01"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), `"description":""`) {
			t.Errorf("absent description should render as empty string: %s", rr.Body.String())
		}
		if !strings.HasPrefix(rr.Header().Get("Location"), "/api/expenses/") {
			t.Errorf("Location = %q", rr.Header().Get("Location"))
		}
	})

	t.Run("form", func(t *testing.T) {
		rr := do(t, srv, http.MethodPost, "/api/expenses", "application/x-www-form-urlencoded", "category=Books&amount=12%2C30&date=2024-01-03")
		if rr.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
		}
		if e := decode[expenseResponse](t, rr); e.Amount.String() != "12.30" {
			t.Errorf("amount = %s", e.Amount)
		}
	})

	tests := []struct {
		name      string
		body      string
		wantField string
		wantError string
	}{
		{"missing fields", `{"category":"Food"}`, "", "Missing required fields: category, amount, date"},
		{"empty body", ``, "", "Missing required fields: category, amount, date"},
		{"malformed", `{"category":`, "", "Invalid request body"},
		{"empty category", `{"category":"  ","amount":1,"date":"2024-01-01"}`, "category", ""},
		{"negative amount", `{"category":"Food","amount":-1,"date":"2024-01-01"}`, "amount", ""},
		{"zero amount", `{"category":"Food","amount":0,"date":"2024-01-01"}`, "amount", ""},
		{"bad amount", `{"category":"Food","amount":"abc","date":"2024-01-01"}`, "amount", ""},
		{"bad date", `{"category":"Food","amount":1,"date":"2024-02-30"}`, "date", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
			}
			body := decode[errorBody](t, rr)
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
			if tt.wantError != "" && body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestListAndFilterExpenses(t *testing.T) {
	srv := newTestServer(t, Options{})
	create(t, srv, `{"category":"Food","amount":15.50,"date":"2024-01-02"}`)
	create(t, srv, `{"category":"Transport","amount":9,"date":"2024-01-01"}`)
	create(t, srv, `{"category":"food","amount":4.50,"date":"2024-01-03"}`)

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/expenses", []string{"2024-01-01", "2024-01-02", "2024-01-03"}},
		{"/api/expenses?sort=insertion", []string{"2024-01-02", "2024-01-01", "2024-01-03"}},
		{"/api/expenses?from=2024-01-02&to=2024-01-02", []string{"2024-01-02"}},
		{"/api/expenses/category/FOOD", []string{"2024-01-02", "2024-01-03"}},
		{"/api/expenses/category/Nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, tt.target, "", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			got := decode[[]expenseResponse](t, rr)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d expenses, want %d: %s", len(got), len(tt.want), rr.Body.String())
			}
			for i, e := range got {
				if e.Date != tt.want[i] {
					t.Errorf("[%d] date = %s, want %s", i, e.Date, tt.want[i])
				}
			}
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/expenses?from=yesterday", "", "")
	if rr.Code != http.StatusBadRequest || decode[errorBody](t, rr).Field != "from" {
		t.Errorf("bad from: status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetAndDeleteExpense(t *testing.T) {
	srv := newTestServer(t, Options{})
	a := create(t, srv, `{"category":"Food","amount":10,"date":"2024-01-02"}`)
	b := create(t, srv, `{"category":"Food","amount":10,"date":"2024-01-02"}`)

	rr := do(t, srv, http.MethodGet, "/api/expenses/"+a.ID, "", "")
	if rr.Code != http.StatusOK || decode[expenseResponse](t, rr).ID != a.ID {
		t.Fatalf("get status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodDelete, "/api/expenses/"+b.ID, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if msg := decode[map[string]string](t, rr)["message"]; msg != "Expense deleted successfully" {
		t.Errorf("message = %q", msg)
	}

	rr = do(t, srv, http.MethodDelete, "/api/expenses/"+b.ID, "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodGet, "/api/expenses/"+b.ID, "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted status=%d", rr.Code)
	}

	remaining := decode[[]expenseResponse](t, do(t, srv, http.MethodGet, "/api/expenses", "", ""))
	if len(remaining) != 1 || remaining[0].ID != a.ID {
		t.Fatalf("remaining = %+v", remaining)
	}
}

func TestClearExpenses(t *testing.T) {
	srv := newTestServer(t, Options{})
	create(t, srv, `{"category":"Food","amount":10,"date":"2024-01-02"}`)
	create(t, srv, `{"category":"Rent","amount":800,"date":"2024-01-01"}`)

	rr := do(t, srv, http.MethodDelete, "/api/expenses", "", "")
	if rr.Code != http.StatusOK || decode[map[string]int](t, rr)["removed"] != 2 {
		t.Fatalf("clear status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode[[]expenseResponse](t, do(t, srv, http.MethodGet, "/api/expenses", "", "")); len(got) != 0 {
		t.Fatalf("expenses after clear = %v", got)
	}
}

func TestStatisticsAndCategories(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/statistics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("statistics status=%d", rr.Code)
	}
	empty := decode[map[string]any](t, rr)
	if empty["highest_category"] != nil || empty["expense_count"].(float64) != 0 {
		t.Errorf("empty statistics = %v", empty)
	}

	create(t, srv, `{"category":"Food","amount":15.50,"date":"2024-01-02"}`)
	create(t, srv, `{"category":"Transport","amount":9,"date":"2024-01-01"}`)
	create(t, srv, `{"category":"Food","amount":4.50,"date":"2024-01-01"}`)

	rr = do(t, srv, http.MethodGet, "/api/statistics", "", "")
	body := rr.Body.String()
	for _, want := range []string{
		`"total_expense":29.00`,
		`"expense_count":3`,
		`"expense_trend":{"2024-01-01":13.50,"2024-01-02":15.50}`,
		`"highest_category":"Food"`,
		`"lowest_category":"Transport"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("statistics missing %s: %s", want, body)
		}
	}

	rr = do(t, srv, http.MethodGet, "/api/categories", "", "")
	cats := decode[struct {
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
		Stats map[string]struct {
			Count int `json:"expense_count"`
		} `json:"category_statistics"`
	}](t, rr)
	if len(cats.Categories) != 2 || cats.Stats["Food"].Count != 2 {
		t.Errorf("categories = %+v", cats)
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 1})

	create(t, srv, `{"category":"Food","amount":1,"date":"2024-01-01"}`)
	rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", `{"category":"Food","amount":1,"date":"2024-01-01"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}

	for i := 0; i < 3; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/expenses", "", ""); rr.Code != http.StatusOK {
			t.Fatalf("reads must not be limited, got %d", rr.Code)
		}
	}
}

func TestCORSAndUnknownRoutes(t *testing.T) {
	srv := newTestServer(t, Options{CORSAllowedOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("preflight status=%d headers=%v", rr.Code, rr.Header())
	}

	rr = do(t, srv, http.MethodGet, "/api/nope", "", "")
	if rr.Code != http.StatusNotFound || decode[errorBody](t, rr).Error == "" {
		t.Fatalf("unknown route status=%d body=%s", rr.Code, rr.Body.String())
	}
}

package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"koinochrista/internal/cache"
	"koinochrista/internal/core"
	"koinochrista/internal/ledger/memory"
	"koinochrista/internal/log"
	"koinochrista/internal/services"
)

func testServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.SeedBuilding(core.Building{ID: 1, Name: "Odos Ermou 12", MillsTotal: 1000}, []core.Apartment{
		{ID: 1, BuildingID: 1, Number: "A1", OwnerName: "Papadopoulos", Mills: 500},
		{ID: 2, BuildingID: 1, Number: "B1", OwnerName: "Georgiou", Mills: 300},
		{ID: 3, BuildingID: 1, Number: "B2", OwnerName: "Nikolaou", Mills: 200},
	})
	store.SeedCategories([]core.ExpenseCategory{
		{ID: 10, Name: "Cleaning", GroupType: core.GroupOperational, Pool: core.PoolResident, Method: core.DistributeMills},
	})

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	c := cache.NewStatementCache(32, time.Minute)
	statements := services.NewStatementService(store, c, logger)
	ledgerService := services.NewLedgerService(store, c, nil, logger)
	s := NewServer(":0", statements, ledgerService)
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s, store
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateExpenseAndGetStatement(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(s, http.MethodPost, "/api/buildings/1/expenses",
		`{"category_id":10,"amount":"130.00","date":"2025-07-10","description":"stairwell cleaning"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST expense status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/buildings/1/statement?month=2025-07", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET statement status = %d, body %s", rec.Code, rec.Body.String())
	}

	var st core.Statement
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode statement: %v", err)
	}
	if st.MonthLabel != "2025-07" {
		t.Errorf("month = %s, want 2025-07", st.MonthLabel)
	}
	if len(st.Apartments) != 3 {
		t.Fatalf("expected 3 apartment lines, got %d", len(st.Apartments))
	}
	wantNets := []int64{6500, 3900, 2600}
	for i, want := range wantNets {
		if got := st.Apartments[i].NetObligation.Cents; got != want {
			t.Errorf("apartment %d net = %d, want %d", st.Apartments[i].ApartmentID, got, want)
		}
	}
	if !st.HasMonthlyActivity {
		t.Error("expected monthly activity")
	}
}

func TestGetStatementEmptyMonthIsNotAnError(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(s, http.MethodGet, "/api/buildings/1/statement?month=2025-03", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET statement status = %d, body %s", rec.Code, rec.Body.String())
	}

	var st core.Statement
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode statement: %v", err)
	}
	if st.HasMonthlyActivity {
		t.Error("empty month should report has_monthly_activity=false")
	}
	if len(st.Apartments) != 3 {
		t.Errorf("apartments still appear for empty months, got %d lines", len(st.Apartments))
	}
}

func TestGetStatementValidation(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown building", "/api/buildings/99/statement?month=2025-07", http.StatusNotFound},
		{"bad building id", "/api/buildings/abc/statement", http.StatusBadRequest},
		{"bad month", "/api/buildings/1/statement?month=July", http.StatusBadRequest},
		{"month out of range", "/api/buildings/1/statement?month=2025-13", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestGetStatementInconsistentMills(t *testing.T) {
	s, store := testServer(t)

	// Break the reference data: mills no longer sum to the building total.
	store.SeedBuilding(core.Building{ID: 1, MillsTotal: 1000}, []core.Apartment{
		{ID: 1, BuildingID: 1, Number: "A1", Mills: 500},
		{ID: 2, BuildingID: 1, Number: "B1", Mills: 300},
	})

	rec := doRequest(s, http.MethodGet, "/api/buildings/1/statement?month=2025-07", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"negative amount", `{"category_id":10,"amount":"-5.00","date":"2025-07-01","description":"x"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"category_id":10,"amount":"0","date":"2025-07-01","description":"x"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"category_id":10,"amount":"5.00","date":"July 1","description":"x"}`, http.StatusUnprocessableEntity},
		{"missing category", `{"amount":"5.00","date":"2025-07-01","description":"x"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"category_id":10,"amount":"5.00","date":"2025-07-01","description":"  "}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"amount":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/buildings/1/expenses", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestCreatePaymentAffectsStatement(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(s, http.MethodPost, "/api/buildings/1/expenses",
		`{"category_id":10,"amount":"130.00","date":"2025-07-10","description":"cleaning"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST expense status = %d", rec.Code)
	}
	rec = doRequest(s, http.MethodPost, "/api/buildings/1/payments",
		`{"apartment_id":1,"amount":"65.00","date":"2025-07-20","description":"bank transfer"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST payment status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/buildings/1/statement?month=2025-07", "")
	var st core.Statement
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode statement: %v", err)
	}
	if got := st.Apartments[0].NetObligation.Cents; got != 0 {
		t.Errorf("apartment 1 net after payment = %d, want 0", got)
	}
	if st.Apartments[0].Status != core.StatusCurrent {
		t.Errorf("apartment 1 status = %s, want current", st.Apartments[0].Status)
	}
}

func TestReserveEndpoints(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(s, http.MethodPost, "/api/buildings/1/reserve-transactions",
		`{"amount":"50.00","date":"2025-06-01","memo":"contributions"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST reserve status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(s, http.MethodPost, "/api/buildings/1/reserve-transactions",
		`{"amount":"20.00","withdrawal":true,"date":"2025-07-15","memo":"pump repair"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST withdrawal status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/buildings/1/reserve?month=2025-07", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET reserve status = %d, body %s", rec.Code, rec.Body.String())
	}
	var state core.ReserveState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode reserve state: %v", err)
	}
	if state.Balance.Cents != 3000 {
		t.Errorf("reserve balance = %d, want 3000", state.Balance.Cents)
	}
	if !state.HasActivity {
		t.Error("expected reserve activity in July")
	}
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected healthz body: %s", rec.Body.String())
	}
}

// Package http serves the JSON API over the statement and ledger services.
//
// This file implements utilities for parsing and validating request data:
// path parameters, the month query parameter, and the JSON write bodies.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"koinochrista/internal/core"
)

// parseBuildingID extracts the building ID from the {id} path segment.
func parseBuildingID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid building id %q", raw)
	}
	return id, nil
}

// parseMonthParam reads the month query parameter in YYYY-MM form,
// defaulting to the current month when absent.
func parseMonthParam(r *http.Request) (core.Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return core.MonthOf(time.Now()), nil
	}
	m, err := core.ParseMonth(raw)
	if err != nil {
		return core.Month{}, fmt.Errorf("invalid month %q, want YYYY-MM", raw)
	}
	return m, nil
}

// Write request bodies. Amounts are decimal strings ("45.30") so clients
// never send floats for money.
type (
	expenseRequest struct {
		CategoryID  int64             `json:"category_id"`
		Amount      string            `json:"amount"`
		Date        string            `json:"date"`
		Description string            `json:"description"`
		FixedShares map[string]string `json:"fixed_shares,omitempty"`
	}

	incomeRequest struct {
		CategoryID  int64  `json:"category_id"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
		Description string `json:"description"`
	}

	paymentRequest struct {
		ApartmentID int64  `json:"apartment_id"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
		Description string `json:"description"`
	}

	reserveRequest struct {
		Amount     string `json:"amount"`
		Withdrawal bool   `json:"withdrawal"`
		Date       string `json:"date"`
		Memo       string `json:"memo"`
	}
)

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (req expenseRequest) toExpense(buildingID int64) (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid amount: %w", err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid date: %w", err)
	}

	var fixed map[int64]core.Money
	if len(req.FixedShares) > 0 {
		fixed = make(map[int64]core.Money, len(req.FixedShares))
		for rawID, rawAmount := range req.FixedShares {
			apartmentID, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				return core.Expense{}, fmt.Errorf("invalid apartment id %q in fixed shares", rawID)
			}
			shareCents, err := core.ParseDecimalToCents(rawAmount)
			if err != nil {
				return core.Expense{}, fmt.Errorf("invalid fixed share for apartment %d: %w", apartmentID, err)
			}
			fixed[apartmentID] = core.Money{Cents: shareCents}
		}
	}

	return core.Expense{
		BuildingID:  buildingID,
		CategoryID:  req.CategoryID,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: sanitizeInput(req.Description),
		FixedShares: fixed,
	}, nil
}

func (req incomeRequest) toIncome(buildingID int64) (core.Income, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Income{}, fmt.Errorf("invalid amount: %w", err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Income{}, fmt.Errorf("invalid date: %w", err)
	}
	return core.Income{
		BuildingID:  buildingID,
		CategoryID:  req.CategoryID,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: sanitizeInput(req.Description),
	}, nil
}

func (req paymentRequest) toPayment(buildingID int64) (core.Payment, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Payment{}, fmt.Errorf("invalid amount: %w", err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Payment{}, fmt.Errorf("invalid date: %w", err)
	}
	return core.Payment{
		BuildingID:  buildingID,
		ApartmentID: req.ApartmentID,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: sanitizeInput(req.Description),
	}, nil
}

func (req reserveRequest) toTransaction(buildingID int64) (core.ReserveTransaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.ReserveTransaction{}, fmt.Errorf("invalid amount: %w", err)
	}
	if req.Withdrawal {
		cents = -cents
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.ReserveTransaction{}, fmt.Errorf("invalid date: %w", err)
	}
	return core.ReserveTransaction{
		BuildingID: buildingID,
		Amount:     core.Money{Cents: cents},
		Date:       date,
		Memo:       sanitizeInput(req.Memo),
	}, nil
}

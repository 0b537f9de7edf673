// Package memory provides an in-memory ledger store for development and
// tests. It implements the same ports as the SQLite store behind
// DATA_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"koinochrista/internal/core"
	"koinochrista/internal/ledger"
)

type Store struct {
	mu sync.Mutex

	buildings  map[int64]core.Building
	apartments map[int64][]core.Apartment
	categories map[int64]core.ExpenseCategory

	expenses  []core.Expense
	incomes   []core.Income
	payments  []core.Payment
	reserve   []core.ReserveTransaction
	recurring []core.RecurringCharge
	readings  map[readingKey]int64

	nextID int64
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		buildings:  make(map[int64]core.Building),
		apartments: make(map[int64][]core.Apartment),
		categories: make(map[int64]core.ExpenseCategory),
		nextID:     1,
	}
}

// SeedBuilding registers a building with its apartments. Existing entries
// for the same ID are replaced.
func (s *Store) SeedBuilding(b core.Building, apartments []core.Apartment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildings[b.ID] = b
	s.apartments[b.ID] = append([]core.Apartment(nil), apartments...)
}

// SeedCategories registers category reference data.
func (s *Store) SeedCategories(cats []core.ExpenseCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cats {
		s.categories[c.ID] = c
	}
}

// SeedRecurring registers a recurring charge template.
func (s *Store) SeedRecurring(rc core.RecurringCharge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rc.ID == 0 {
		rc.ID = s.nextID
		s.nextID++
	}
	s.recurring = append(s.recurring, rc)
}

func (s *Store) GetBuilding(_ context.Context, id int64) (core.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buildings[id]
	if !ok {
		return core.Building{}, fmt.Errorf("%w: %d", core.ErrBuildingNotFound, id)
	}
	return b, nil
}

func (s *Store) ListApartments(_ context.Context, buildingID int64) ([]core.Apartment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Apartment(nil), s.apartments[buildingID]...), nil
}

func (s *Store) ListCategories(_ context.Context) (map[int64]core.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]core.ExpenseCategory, len(s.categories))
	for id, c := range s.categories {
		out[id] = c
	}
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, buildingID int64, m core.Month) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.BuildingID == buildingID && e.Date.In(m) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListIncomes(_ context.Context, buildingID int64, m core.Month) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Income
	for _, i := range s.incomes {
		if i.BuildingID == buildingID && i.Date.In(m) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *Store) ListPayments(_ context.Context, buildingID int64, m core.Month) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Payment
	for _, p := range s.payments {
		if p.BuildingID == buildingID && p.Date.In(m) {
			out = append(out, p)
		}
	}
	return out, nil
}

// readings are stored per (building, apartment, month)
type readingKey struct {
	buildingID  int64
	apartmentID int64
	month       core.Month
}

func (s *Store) ListReadings(_ context.Context, buildingID int64, m core.Month) (map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int64)
	for key, units := range s.readings {
		if key.buildingID == buildingID && key.month == m {
			out[key.apartmentID] = units
		}
	}
	return out, nil
}

// SeedReading records a consumption reading for one apartment and month.
func (s *Store) SeedReading(r core.ConsumptionReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readings == nil {
		s.readings = make(map[readingKey]int64)
	}
	s.readings[readingKey{r.BuildingID, r.ApartmentID, r.Month}] = r.Units
}

func (s *Store) ListReserveTransactions(_ context.Context, buildingID int64, through core.Month) ([]core.ReserveTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, end := through.Bounds()
	var out []core.ReserveTransaction
	for _, tx := range s.reserve {
		if tx.BuildingID == buildingID && tx.Date.Before(end) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) FirstActivityMonth(_ context.Context, buildingID int64) (core.Month, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first core.Month
	found := false
	consider := func(d core.Date) {
		m := core.MonthOf(d.Time)
		if !found || m.Before(first) {
			first = m
			found = true
		}
	}
	for _, e := range s.expenses {
		if e.BuildingID == buildingID {
			consider(e.Date)
		}
	}
	for _, i := range s.incomes {
		if i.BuildingID == buildingID {
			consider(i.Date)
		}
	}
	for _, p := range s.payments {
		if p.BuildingID == buildingID {
			consider(p.Date)
		}
	}
	for _, tx := range s.reserve {
		if tx.BuildingID == buildingID {
			consider(tx.Date)
		}
	}
	return first, found, nil
}

func (s *Store) AppendExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) AppendIncome(_ context.Context, i core.Income) (int64, error) {
	if err := i.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = s.nextID
	s.nextID++
	s.incomes = append(s.incomes, i)
	return i.ID, nil
}

func (s *Store) AppendPayment(_ context.Context, p core.Payment) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.payments = append(s.payments, p)
	return p.ID, nil
}

func (s *Store) AppendReserveTransaction(_ context.Context, tx core.ReserveTransaction) (int64, error) {
	if err := tx.Date.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextID
	s.nextID++
	s.reserve = append(s.reserve, tx)
	return tx.ID, nil
}

func (s *Store) ListActiveRecurringCharges(_ context.Context, now time.Time) ([]core.RecurringCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringCharge
	for _, rc := range s.recurring {
		if rc.StartDate.After(now) {
			continue
		}
		if !rc.EndDate.IsZero() && rc.EndDate.Before(now) {
			continue
		}
		out = append(out, rc)
	}
	return out, nil
}

func (s *Store) MarkRecurringExecuted(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring[i].LastExecution = at
			return nil
		}
	}
	return fmt.Errorf("recurring charge %d not found", id)
}

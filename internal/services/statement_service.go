// Package services orchestrates the statement engine over the ledger stores,
// the statement cache and AMQP.
package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"koinochrista/internal/cache"
	"koinochrista/internal/core"
	"koinochrista/internal/engine"
	"koinochrista/internal/ledger"
	"koinochrista/internal/log"
)

// StatementService serves computed monthly statements. Reads go through the
// versioned cache; on a miss it fetches reference data and every month bundle
// from the building's first active month through the requested month, and
// hands the run to the engine.
type StatementService struct {
	store  ledger.Store
	cache  *cache.StatementCache
	logger *log.Logger
}

func NewStatementService(store ledger.Store, c *cache.StatementCache, logger *log.Logger) *StatementService {
	return &StatementService{
		store:  store,
		cache:  c,
		logger: logger.WithComponent(log.ComponentStatement),
	}
}

// ComputeApartmentBalances returns the statement for (building, month).
func (s *StatementService) ComputeApartmentBalances(ctx context.Context, buildingID int64, m core.Month) (*core.Statement, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if st, ok := s.cache.Get(buildingID, m); ok {
			s.logger.Debug("statement cache hit", log.FieldBuildingID, buildingID, log.FieldMonth, m.String())
			return st, nil
		}
	}

	in, err := s.loadInputs(ctx, buildingID, m)
	if err != nil {
		return nil, err
	}

	st, err := engine.ComputeStatement(in)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(buildingID, m, st)
	}
	s.logger.InfoContext(ctx, "Computed statement",
		log.FieldBuildingID, buildingID,
		log.FieldMonth, m.String(),
		"apartments", len(st.Apartments),
		"warnings", len(st.Warnings))
	return st, nil
}

// ReserveState returns the reserve fund position as of the end of the month.
func (s *StatementService) ReserveState(ctx context.Context, buildingID int64, m core.Month) (core.ReserveState, error) {
	if err := m.Validate(); err != nil {
		return core.ReserveState{}, err
	}
	if _, err := s.store.GetBuilding(ctx, buildingID); err != nil {
		return core.ReserveState{}, err
	}
	txs, err := s.store.ListReserveTransactions(ctx, buildingID, m)
	if err != nil {
		return core.ReserveState{}, fmt.Errorf("list reserve transactions: %w", err)
	}
	return engine.ReserveBalance(buildingID, txs, m), nil
}

// loadInputs fetches reference data and the chronological month bundles.
func (s *StatementService) loadInputs(ctx context.Context, buildingID int64, m core.Month) (engine.Inputs, error) {
	var (
		building   core.Building
		apartments []core.Apartment
		categories map[int64]core.ExpenseCategory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		building, err = s.store.GetBuilding(gctx, buildingID)
		return err
	})
	g.Go(func() error {
		var err error
		apartments, err = s.store.ListApartments(gctx, buildingID)
		if err != nil {
			return fmt.Errorf("list apartments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return engine.Inputs{}, err
	}

	// The replay starts at the first month with any ledger activity. An
	// empty ledger, or one whose first entry is after the requested month,
	// degenerates to a single empty bundle for the requested month.
	start := m
	if first, ok, err := s.store.FirstActivityMonth(ctx, buildingID); err != nil {
		return engine.Inputs{}, fmt.Errorf("first activity month: %w", err)
	} else if ok && first.Before(m) {
		start = first
	}

	bundles, err := s.loadBundles(ctx, buildingID, start, m)
	if err != nil {
		return engine.Inputs{}, err
	}

	return engine.Inputs{
		Building:   building,
		Apartments: apartments,
		Categories: engine.Catalog(categories),
		Bundles:    bundles,
	}, nil
}

// loadBundles fetches the consecutive months [start, end] concurrently and
// buckets reserve movements into the month each is dated in.
func (s *StatementService) loadBundles(ctx context.Context, buildingID int64, start, end core.Month) ([]engine.MonthBundle, error) {
	n := start.MonthsUntil(end)
	bundles := make([]engine.MonthBundle, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range bundles {
		m := start
		for j := 0; j < i; j++ {
			m = m.Next()
		}
		bundles[i].Month = m
		i := i
		g.Go(func() error {
			data, err := s.loadMonthData(gctx, buildingID, bundles[i].Month)
			if err != nil {
				return err
			}
			bundles[i].Data = data
			return nil
		})
	}

	var reserveTxs []core.ReserveTransaction
	g.Go(func() error {
		var err error
		reserveTxs, err = s.store.ListReserveTransactions(gctx, buildingID, end)
		if err != nil {
			return fmt.Errorf("list reserve transactions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byKey := make(map[int]int, n)
	for i, b := range bundles {
		byKey[b.Month.Key()] = i
	}
	for _, tx := range reserveTxs {
		if i, ok := byKey[core.MonthOf(tx.Date.Time).Key()]; ok {
			bundles[i].Data.ReserveTxs = append(bundles[i].Data.ReserveTxs, tx)
		}
	}
	return bundles, nil
}

func (s *StatementService) loadMonthData(ctx context.Context, buildingID int64, m core.Month) (engine.MonthData, error) {
	var data engine.MonthData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Expenses, err = s.store.ListExpenses(gctx, buildingID, m)
		if err != nil {
			return fmt.Errorf("list expenses %s: %w", m, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.Incomes, err = s.store.ListIncomes(gctx, buildingID, m)
		if err != nil {
			return fmt.Errorf("list incomes %s: %w", m, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.Payments, err = s.store.ListPayments(gctx, buildingID, m)
		if err != nil {
			return fmt.Errorf("list payments %s: %w", m, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.Readings, err = s.store.ListReadings(gctx, buildingID, m)
		if err != nil {
			return fmt.Errorf("list readings %s: %w", m, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return engine.MonthData{}, err
	}
	return data, nil
}

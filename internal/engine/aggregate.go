package engine

import (
	"errors"
	"fmt"
	"sort"

	"koinochrista/internal/core"
)

type (
	// MonthData is the pre-fetched ledger content for a single month.
	// Readings maps apartment ID to consumption units for the month.
	MonthData struct {
		Expenses   []core.Expense
		Incomes    []core.Income
		Payments   []core.Payment
		Readings   map[int64]int64
		ReserveTxs []core.ReserveTransaction
	}

	// MonthBundle pairs a month with its ledger data.
	MonthBundle struct {
		Month core.Month
		Data  MonthData
	}

	// Inputs is everything ComputeStatement needs: reference data plus a
	// chronological run of month bundles from the building's first active
	// month through the requested month. The carry-forward chain is
	// replayed over the run, so the requested month's opening balances
	// depend only on earlier months.
	Inputs struct {
		Building   core.Building
		Apartments []core.Apartment
		Categories Catalog
		Bundles    []MonthBundle
	}
)

// ComputeStatement computes the statement for the last bundle's month,
// replaying earlier bundles to resolve carried-forward balances. It is
// deterministic and idempotent: identical inputs produce identical output.
//
// Per-record classification and distribution failures are collected as
// warnings on the statement; building-wide consistency failures (mills,
// temporal leakage) abort with no partial result.
func ComputeStatement(in Inputs) (*core.Statement, error) {
	if len(in.Bundles) == 0 {
		return nil, errors.New("no month bundles supplied")
	}
	if len(in.Apartments) == 0 {
		return nil, core.ErrNoApartments
	}
	if err := CheckMills(in.Building, in.Apartments); err != nil {
		return nil, err
	}
	for i, b := range in.Bundles {
		if err := b.Month.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && b.Month != in.Bundles[i-1].Month.Next() {
			return nil, fmt.Errorf("month bundles not consecutive: %s after %s", b.Month, in.Bundles[i-1].Month)
		}
		if err := guardMonthData(b.Month, b.Data); err != nil {
			return nil, err
		}
	}

	var (
		prev           *core.Statement
		reserveBalance int64
	)
	for _, bundle := range in.Bundles {
		openings := OpeningBalances(prev, in.Apartments)
		st, err := computeMonth(in.Building, in.Apartments, in.Categories, bundle.Month, bundle.Data, openings, reserveBalance)
		if err != nil {
			return nil, err
		}
		for _, tx := range bundle.Data.ReserveTxs {
			reserveBalance += tx.Amount.Cents
		}
		prev = st
	}
	return prev, nil
}

// poolGroup keys the per-group charge totals.
type poolGroup struct {
	pool  core.PayerPool
	group string
}

func computeMonth(
	b core.Building,
	apartments []core.Apartment,
	catalog Catalog,
	m core.Month,
	data MonthData,
	openings map[int64]int64,
	reserveBefore int64,
) (*core.Statement, error) {
	resident := make(map[int64]int64, len(apartments))
	owner := make(map[int64]int64, len(apartments))
	shared := make(map[int64]int64, len(apartments))
	groups := make(map[poolGroup]int64)
	var warnings []core.Warning

	accumulate := func(pool core.PayerPool, shares map[int64]int64, sign int64) {
		var dst map[int64]int64
		switch pool {
		case core.PoolResident:
			dst = resident
		case core.PoolOwner:
			dst = owner
		default:
			dst = shared
		}
		for id, cents := range shares {
			dst[id] += sign * cents
		}
	}

	for _, e := range data.Expenses {
		cls, err := catalog.Classify(e.CategoryID, e.ID)
		if err != nil {
			warnings = append(warnings, classifyWarning(e.ID, err))
			continue
		}
		shares, err := Distribute(e.Amount.Cents, cls.Method, apartments, data.Readings, e.FixedShares)
		if err != nil {
			warnings = append(warnings, distributeWarning(e.ID, err))
			continue
		}
		accumulate(cls.Pool, shares, 1)
		groups[poolGroup{cls.Pool, cls.Group}] += e.Amount.Cents
	}

	for _, inc := range data.Incomes {
		cls, err := catalog.Classify(inc.CategoryID, inc.ID)
		if err != nil {
			warnings = append(warnings, classifyWarning(inc.ID, err))
			continue
		}
		shares, err := Distribute(inc.Amount.Cents, cls.Method, apartments, data.Readings, nil)
		if err != nil {
			warnings = append(warnings, distributeWarning(inc.ID, err))
			continue
		}
		accumulate(cls.Pool, shares, -1)
		groups[poolGroup{cls.Pool, cls.Group}] -= inc.Amount.Cents
	}

	reserve := ReserveContributions(b, m, apartments, core.Money{Cents: reserveBefore})

	fees := make(map[int64]int64, len(apartments))
	if b.ManagementFee.Cents > 0 {
		method := core.DistributeEqual
		if b.ManagementFeeMode == core.FeeMills {
			method = core.DistributeMills
		}
		var err error
		fees, err = Distribute(b.ManagementFee.Cents, method, apartments, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("distribute management fee: %w", err)
		}
	}

	payments := make(map[int64]int64, len(apartments))
	for _, p := range data.Payments {
		payments[p.ApartmentID] += p.Amount.Cents
	}

	lines := make([]core.ApartmentBalance, 0, len(apartments))
	for _, a := range apartments {
		expenseShare := resident[a.ID] + owner[a.ID] + shared[a.ID]
		net := openings[a.ID] + expenseShare + reserve[a.ID] + fees[a.ID] - payments[a.ID]
		line := core.ApartmentBalance{
			ApartmentID:         a.ID,
			ApartmentNumber:     a.Number,
			OwnerName:           a.OwnerName,
			PreviousBalance:     core.Money{Cents: openings[a.ID]},
			ResidentShare:       core.Money{Cents: resident[a.ID]},
			OwnerShare:          core.Money{Cents: owner[a.ID]},
			SharedShare:         core.Money{Cents: shared[a.ID]},
			ExpenseShare:        core.Money{Cents: expenseShare},
			ReserveContribution: core.Money{Cents: reserve[a.ID]},
			ManagementFee:       core.Money{Cents: fees[a.ID]},
			TotalPayments:       core.Money{Cents: payments[a.ID]},
			NetObligation:       core.Money{Cents: net},
			CurrentBalance:      core.Money{Cents: net},
			Status:              core.ClassifyBalance(core.Money{Cents: net}),
			Mills:               a.Mills,
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ApartmentID < lines[j].ApartmentID })
	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].RecordID != warnings[j].RecordID {
			return warnings[i].RecordID < warnings[j].RecordID
		}
		return warnings[i].Kind < warnings[j].Kind
	})

	groupTotals := make([]core.GroupTotal, 0, len(groups))
	for key, cents := range groups {
		groupTotals = append(groupTotals, core.GroupTotal{
			Group:  key.group,
			Pool:   key.pool,
			Amount: core.Money{Cents: cents},
		})
	}
	sort.Slice(groupTotals, func(i, j int) bool {
		if groupTotals[i].Pool != groupTotals[j].Pool {
			return groupTotals[i].Pool < groupTotals[j].Pool
		}
		return groupTotals[i].Group < groupTotals[j].Group
	})

	hasActivity := len(data.Expenses) > 0 || len(data.Incomes) > 0 ||
		len(data.Payments) > 0 || len(data.ReserveTxs) > 0

	return &core.Statement{
		BuildingID:         b.ID,
		Month:              m,
		MonthLabel:         m.String(),
		Apartments:         lines,
		Summary:            Summarize(lines),
		Groups:             groupTotals,
		HasMonthlyActivity: hasActivity,
		Warnings:           warnings,
	}, nil
}

func classifyWarning(recordID int64, err error) core.Warning {
	return core.Warning{RecordID: recordID, Kind: core.WarnUnknownCategory, Message: err.Error()}
}

func distributeWarning(recordID int64, err error) core.Warning {
	kind := core.WarnUndistributed
	var missing *core.MissingConsumptionDataError
	if errors.As(err, &missing) {
		missing.ExpenseID = recordID
	}
	if errors.Is(err, core.ErrFixedShareMismatch) {
		kind = core.WarnFixedShareMismatch
	}
	return core.Warning{RecordID: recordID, Kind: kind, Message: err.Error()}
}

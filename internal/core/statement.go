package core

// Status thresholds in cents. An apartment within ±0.30 of zero is treated
// as settled; above 100.00 the debt is critical.
const (
	DebtToleranceCents = 30
	CriticalDebtCents  = 10000
)

// BalanceStatus classifies an apartment's net obligation.
type BalanceStatus string

const (
	StatusCurrent  BalanceStatus = "current"
	StatusDebt     BalanceStatus = "debt"
	StatusCritical BalanceStatus = "critical"
	StatusCredit   BalanceStatus = "credit"
)

// ClassifyBalance maps a net obligation to its status bucket.
// Boundary behavior: exactly 0.30 or -0.30 is current, exactly 100.00 is
// debt, 100.01 is critical.
func ClassifyBalance(net Money) BalanceStatus {
	switch {
	case net.Cents > CriticalDebtCents:
		return StatusCritical
	case net.Cents > DebtToleranceCents:
		return StatusDebt
	case net.Cents < -DebtToleranceCents:
		return StatusCredit
	default:
		return StatusCurrent
	}
}

type (
	// ApartmentBalance is one apartment's computed statement line for a
	// month. It is a pure function output, never a persisted row:
	// recomputing it for the same (building, month, ledger) inputs is
	// idempotent.
	ApartmentBalance struct {
		ApartmentID     int64  `json:"apartment_id"`
		ApartmentNumber string `json:"apartment_number"`
		OwnerName       string `json:"owner_name"`

		PreviousBalance Money `json:"previous_balance"`

		// Per-pool charges distributed to this apartment this month.
		ResidentShare Money `json:"resident_share"`
		OwnerShare    Money `json:"owner_share"`
		SharedShare   Money `json:"shared_share"`

		// ExpenseShare is the sum of the three pool shares.
		ExpenseShare Money `json:"expense_share"`

		ReserveContribution Money `json:"reserve_contribution"`
		ManagementFee       Money `json:"management_fee"`
		TotalPayments       Money `json:"total_payments"`

		// NetObligation = previous_balance + expense_share +
		// reserve_contribution + management_fee - total_payments.
		// CurrentBalance mirrors it for display consumers.
		NetObligation  Money `json:"net_obligation"`
		CurrentBalance Money `json:"current_balance"`

		Status BalanceStatus `json:"status"`
		Mills  int64         `json:"participation_mills"`
	}

	// GroupTotal is a building-level charge total for one display group
	// and pool, feeding the grouped expense breakdown.
	GroupTotal struct {
		Group  string    `json:"group"`
		Pool   PayerPool `json:"pool"`
		Amount Money     `json:"amount"`
	}

	// Summary aggregates the per-apartment lines into building totals.
	Summary struct {
		// TotalObligations sums positive net obligations only; credits
		// are excluded.
		TotalObligations Money `json:"total_obligations"`
		TotalPayments    Money `json:"total_payments"`
		// TotalNetObligations is the signed sum over all apartments.
		TotalNetObligations Money `json:"total_net_obligations"`

		ActiveCount int `json:"active_count"`
		// DebtCount counts every apartment owing more than the
		// tolerance; CriticalCount is the >100.00 subset of those.
		DebtCount     int `json:"debt_count"`
		CriticalCount int `json:"critical_count"`
		CreditCount   int `json:"credit_count"`
	}

	// Warning is a collected per-record data-quality problem. The record
	// it names was excluded from totals; the rest of the statement is
	// still usable.
	Warning struct {
		RecordID int64  `json:"record_id"`
		Kind     string `json:"kind"`
		Message  string `json:"message"`
	}

	// Statement is the full computed result for one (building, month).
	Statement struct {
		BuildingID int64              `json:"building_id"`
		Month      Month              `json:"-"`
		MonthLabel string             `json:"month"`
		Apartments []ApartmentBalance `json:"apartments"`
		Summary    Summary            `json:"summary"`
		Groups     []GroupTotal       `json:"groups,omitempty"`

		// HasMonthlyActivity is false for months with no ledger entries
		// at all; apartments still appear with carried-forward balances.
		HasMonthlyActivity bool      `json:"has_monthly_activity"`
		Warnings           []Warning `json:"warnings,omitempty"`
	}

	// ReserveState is the reserve-fund position as of the end of a month.
	// HasActivity is false when the month recorded no reserve movement,
	// in which case Balance still reflects the dated sum but consumers
	// should not present it as a fresh figure.
	ReserveState struct {
		BuildingID  int64 `json:"building_id"`
		Balance     Money `json:"balance"`
		HasActivity bool  `json:"has_monthly_activity"`
	}
)

// Warning kinds.
const (
	WarnUnknownCategory    = "unknown_category"
	WarnUndistributed      = "undistributed"
	WarnFixedShareMismatch = "fixed_share_mismatch"
)

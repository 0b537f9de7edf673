package http

import (
	"errors"
	"log/slog"
	"net/http"

	"koinochrista/internal/core"
)

// handleGetStatement serves the computed statement for
// GET /api/buildings/{id}/statement?month=YYYY-MM.
//
// A month with no ledger activity is still a successful response: the
// apartments appear with carried-forward balances and
// has_monthly_activity=false. Only lookup and computation failures are
// errors.
func (s *Server) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseBuildingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := parseMonthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := s.statements.ComputeApartmentBalances(r.Context(), buildingID, m)
	if err != nil {
		s.writeComputeError(w, r, buildingID, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleGetReserve serves GET /api/buildings/{id}/reserve?month=YYYY-MM.
func (s *Server) handleGetReserve(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseBuildingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := parseMonthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.statements.ReserveState(r.Context(), buildingID, m)
	if err != nil {
		s.writeComputeError(w, r, buildingID, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseBuildingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := req.toExpense(buildingID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.RecordExpense(r.Context(), expense)
	if err != nil {
		s.writeRecordError(w, r, buildingID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseBuildingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req incomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	income, err := req.toIncome(buildingID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.RecordIncome(r.Context(), income)
	if err != nil {
		s.writeRecordError(w, r, buildingID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseBuildingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payment, err := req.toPayment(buildingID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.RecordPayment(r.Context(), payment)
	if err != nil {
		s.writeRecordError(w, r, buildingID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleCreateReserveTransaction(w http.ResponseWriter, r *http.Request) {
	buildingID, err := parseBuildingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req reserveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := req.toTransaction(buildingID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.RecordReserveTransaction(r.Context(), tx)
	if err != nil {
		s.writeRecordError(w, r, buildingID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeComputeError maps a read-path failure to a status code.
func (s *Server) writeComputeError(w http.ResponseWriter, r *http.Request, buildingID int64, err error) {
	var mills *core.InconsistentMillsError
	switch {
	case errors.Is(err, core.ErrBuildingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidMonth), errors.Is(err, core.ErrNoApartments):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &mills):
		// Reference data is broken; recomputing cannot help until the
		// mills are fixed.
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Statement computation failed",
			"building_id", buildingID,
			"error", err)
		writeError(w, http.StatusInternalServerError, "statement computation failed")
	}
}

// writeRecordError maps a write-path failure to a status code.
func (s *Server) writeRecordError(w http.ResponseWriter, r *http.Request, buildingID int64, err error) {
	switch {
	case errors.Is(err, core.ErrBuildingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrMissingApartment):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Ledger write failed",
			"building_id", buildingID,
			"error", err)
		writeError(w, http.StatusInternalServerError, "ledger write failed")
	}
}

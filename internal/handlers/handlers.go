package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"cashly/internal/db"
	"cashly/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto the machine-readable reason
// strings the client switches on.
func respondServiceError(w http.ResponseWriter, err error) {
	var elig *services.EligibilityError
	if errors.As(err, &elig) {
		respondError(w, http.StatusConflict, string(elig.Reason))
		return
	}
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, services.ErrInvalidTerm):
		respondError(w, http.StatusBadRequest, "invalid_term")
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	case errors.Is(err, services.ErrWalletLimitExceeded):
		respondError(w, http.StatusBadRequest, "wallet_limit_exceeded")
	case errors.Is(err, services.ErrAmountExceedsDue):
		respondError(w, http.StatusBadRequest, "amount_exceeds_due")
	case errors.Is(err, services.ErrInvalidLoanState):
		respondError(w, http.StatusConflict, "loan_not_open")
	case errors.Is(err, services.ErrCreditCheckAlreadyPaid):
		respondError(w, http.StatusConflict, "already_paid")
	case errors.Is(err, services.ErrNotPendingWithdrawal):
		respondError(w, http.StatusConflict, "not_pending")
	case errors.Is(err, services.ErrKYCNotSubmittable):
		respondError(w, http.StatusConflict, "kyc_already_submitted")
	case errors.Is(err, services.ErrUnauthorizedLoan):
		respondError(w, http.StatusForbidden, "access_denied")
	case errors.Is(err, db.ErrTxRetryLimit):
		respondError(w, http.StatusConflict, "conflict_retry")
	case errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "not_found")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error")
	}
}

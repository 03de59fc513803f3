package handlers

import (
	"net/http"

	"cashly/internal/middleware"
	"cashly/internal/services"
	"cashly/internal/store"

	"github.com/jmoiron/sqlx"
)

// SubmitKYC moves the user into the pending queue. Document handling
// happens in a separate back office system; only the status gate lives
// here.
func (h *Handler) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	if user.KYCStatus != store.KYCNotSubmitted && user.KYCStatus != store.KYCRejected {
		respondServiceError(w, services.ErrKYCNotSubmittable)
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.UpdateKYCStatus(r.Context(), tx, userID, store.KYCPending); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, userID, "kyc_submitted", "user", userID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to submit kyc")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"kyc_status": store.KYCPending})
}

func (h *Handler) PayCreditCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	entry, err := h.creditCheck.PayCreditCheckFee(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, transactionResponse(entry))
}

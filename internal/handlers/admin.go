package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cashly/internal/middleware"
	"cashly/internal/money"
	"cashly/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.wallet.ApproveWithdrawal(r.Context(), adminID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.wallet.RejectWithdrawal(r.Context(), adminID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) ApproveKYC(w http.ResponseWriter, r *http.Request) {
	h.resolveKYC(w, r, store.KYCApproved)
}

func (h *Handler) RejectKYC(w http.ResponseWriter, r *http.Request) {
	h.resolveKYC(w, r, store.KYCRejected)
}

func (h *Handler) resolveKYC(w http.ResponseWriter, r *http.Request, status string) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID := chi.URLParam(r, "userID")
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if user.KYCStatus != store.KYCPending {
		respondError(w, http.StatusConflict, "kyc_not_pending")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.UpdateKYCStatus(r.Context(), tx, userID, status); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"kyc_status": status})
		return h.audit.Log(r.Context(), tx, adminID, "kyc_resolved", "user", userID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update kyc status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"kyc_status": status})
}

type creditLimitRequest struct {
	UserID      string      `json:"user_id"`
	CreditLimit json.Number `json:"credit_limit"`
	CreditScore int         `json:"credit_score"`
}

// SetCreditLimit records the credit authority's decision. The scoring
// itself runs out of band; this endpoint only lands the result.
func (h *Handler) SetCreditLimit(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req creditLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	limit, err := money.Parse(req.CreditLimit.String())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if _, err := h.users.GetByID(r.Context(), req.UserID); err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.SetCreditLimit(r.Context(), tx, req.UserID, limit.Int64(), req.CreditScore); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"credit_limit": limit.Format(),
			"credit_score": strconv.Itoa(req.CreditScore),
		})
		return h.audit.Log(r.Context(), tx, adminID, "credit_limit_set", "user", req.UserID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to set credit limit")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":      req.UserID,
		"credit_limit": limit.Int64(),
		"credit_score": req.CreditScore,
	})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"cashly/internal/middleware"
	"cashly/internal/money"
	"cashly/internal/services"

	"github.com/go-chi/chi/v5"
)

type applyLoanRequest struct {
	Amount  json.Number `json:"amount"`
	Term    int         `json:"term"`
	Purpose string      `json:"purpose"`
}

func (h *Handler) ApplyLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req applyLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	principal, err := money.Parse(req.Amount.String())
	if err != nil || principal <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	loan, err := h.loans.Apply(r.Context(), services.ApplyRequest{
		UserID:    userID,
		Principal: principal,
		Term:      req.Term,
		Purpose:   req.Purpose,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, loanResponse(loan))
}

func (h *Handler) MyLoans(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loans, err := h.loans.MyLoans(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load loans")
		return
	}
	respondJSON(w, http.StatusOK, loanListResponse(loans))
}

func (h *Handler) ActiveLoans(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loans, err := h.loans.ActiveLoans(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load loans")
		return
	}
	respondJSON(w, http.StatusOK, loanListResponse(loans))
}

func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loan, err := h.loans.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loanResponse(loan))
}

func (h *Handler) RepayLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	amount, err := decodeAmount(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	loan, err := h.loans.Repay(r.Context(), userID, chi.URLParam(r, "id"), amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loanResponse(loan))
}

func (h *Handler) ExtendLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loan, err := h.loans.Extend(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loanResponse(loan))
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cashly/internal/auth"
	"cashly/internal/middleware"
	"cashly/internal/websocket"
)

type amountRequest struct {
	Amount json.RawMessage `json:"amount"`
}

func (h *Handler) WalletBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	wallet, err := h.wallet.Balance(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load wallet")
		return
	}
	respondJSON(w, http.StatusOK, walletResponse(wallet))
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
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
	entry, err := h.wallet.Deposit(r.Context(), userID, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, transactionResponse(entry))
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
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
	entry, err := h.wallet.RequestWithdrawal(r.Context(), userID, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, transactionResponse(entry))
}

func (h *Handler) WithdrawalRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	entries, err := h.wallet.WithdrawalRequests(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawal requests")
		return
	}
	respondJSON(w, http.StatusOK, transactionListResponse(entries))
}

func (h *Handler) WalletSelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.wallet.SelfCheck(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to self_check")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) TransactionHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	txType := r.URL.Query().Get("type")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	entries, err := h.wallet.History(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, transactionListResponse(entries))
}

// WSBalances upgrades to a websocket pushing balance updates. Browsers
// cannot set headers on websocket dials, so the token also rides in the
// query string.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cashly/internal/money"
)

var errInvalidAmount = errors.New("invalid amount")

// decodeAmount reads {"amount": ...} accepting both a JSON number and a
// string, the way the mobile client sends it.
func decodeAmount(r *http.Request) (money.Money, error) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, errInvalidAmount
	}
	raw := strings.Trim(strings.TrimSpace(string(req.Amount)), `"`)
	amount, err := money.Parse(raw)
	if err != nil || amount <= 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

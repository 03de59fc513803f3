package handlers

import (
	"time"

	"cashly/internal/money"
	"cashly/internal/store"
)

func userResponse(user store.User) map[string]any {
	return map[string]any{
		"id":                user.ID,
		"username":          user.Username,
		"email":             user.Email,
		"kyc_status":        user.KYCStatus,
		"credit_check_paid": user.CreditCheckPaid,
		"credit_limit":      user.CreditLimit,
		"credit_score":      user.CreditScore,
		"created_at":        user.CreatedAt,
	}
}

func walletResponse(wallet store.Wallet) map[string]any {
	return map[string]any{
		"id":                wallet.ID,
		"user_id":           wallet.UserID,
		"balance":           wallet.Balance,
		"frozen_balance":    wallet.FrozenBalance,
		"available_balance": wallet.Available(),
		"total_deposited":   wallet.TotalDeposited,
		"total_withdrawn":   wallet.TotalWithdrawn,
		"balance_display":   money.Money(wallet.Balance).Format(),
	}
}

func transactionResponse(entry store.Transaction) map[string]any {
	return map[string]any{
		"id":            entry.ID,
		"wallet_id":     entry.WalletID,
		"type":          entry.Type,
		"amount":        entry.Amount,
		"balance_after": entry.BalanceAfter,
		"status":        entry.Status,
		"reference":     entry.Reference,
		"created_at":    entry.CreatedAt,
	}
}

func transactionListResponse(entries []store.Transaction) []map[string]any {
	response := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		response = append(response, transactionResponse(entry))
	}
	return response
}

func loanResponse(loan store.Loan) map[string]any {
	view := map[string]any{
		"id":              loan.ID,
		"user_id":         loan.UserID,
		"loan_number":     loan.LoanNumber,
		"principal":       loan.Principal,
		"term":            loan.Term,
		"interest_rate":   loan.InterestRate,
		"interest_amount": loan.InterestAmount,
		"total_amount":    loan.TotalAmount,
		"paid_amount":     loan.PaidAmount,
		"remaining":       loan.Remaining(),
		"late_fee":        loan.LateFee,
		"extension_count": loan.ExtensionCount,
		"status":          loan.Status,
		"purpose":         loan.Purpose,
		"created_at":      loan.CreatedAt,
	}
	if loan.DisbursedAt != nil {
		view["disbursed_at"] = loan.DisbursedAt.Format(time.RFC3339)
	}
	if loan.DueDate != nil {
		view["due_date"] = loan.DueDate.Format(time.RFC3339)
	}
	return view
}

func loanListResponse(loans []store.Loan) []map[string]any {
	response := make([]map[string]any, 0, len(loans))
	for _, loan := range loans {
		response = append(response, loanResponse(loan))
	}
	return response
}

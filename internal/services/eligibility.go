package services

import (
	"cashly/internal/config"
	"cashly/internal/money"
	"cashly/internal/store"
)

// CanApplyForLoan runs the ordered application gate. The order is part of
// the product contract: the first failing check names the next remediation
// step for the user (approve KYC, pay the credit-check fee, wait for a
// limit, then fix the amount).
func CanApplyForLoan(user store.User, requested money.Money, cfg config.LoanConfig) error {
	if user.KYCStatus != store.KYCApproved {
		return reject(ReasonKYCNotApproved)
	}
	if !user.CreditCheckPaid {
		return reject(ReasonCreditCheckRequired)
	}
	if user.CreditLimit <= 0 {
		return reject(ReasonCreditLimitPending)
	}
	if requested < cfg.MinLoanAmount {
		return reject(ReasonBelowMinimum)
	}
	if requested.Int64() > user.CreditLimit {
		return reject(ReasonExceedsCreditLimit)
	}
	return nil
}

// CanExtend guards the paid rollover. The shortest term is never
// extendable; every other open loan can roll at most MaxLoanExtensions
// times. Overdue loans may extend back into the extended state.
func CanExtend(loan store.Loan, cfg config.LoanConfig) error {
	switch loan.Status {
	case store.LoanActive, store.LoanExtended, store.LoanOverdue:
	default:
		return reject(ReasonLoanNotOpen)
	}
	if loan.Term == 14 {
		return reject(ReasonTermNotExtendable)
	}
	if loan.ExtensionCount >= cfg.MaxLoanExtensions {
		return reject(ReasonMaxExtensionsReached)
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrWalletLimitExceeded    = errors.New("wallet balance limit exceeded")
	ErrInvalidTerm            = errors.New("invalid loan term")
	ErrInvalidLoanState       = errors.New("operation not valid for loan status")
	ErrAmountExceedsDue       = errors.New("amount exceeds remaining due")
	ErrUnauthorizedLoan       = errors.New("loan does not belong to user")
	ErrCreditCheckAlreadyPaid = errors.New("credit check fee already paid")
	ErrNotPendingWithdrawal   = errors.New("transaction is not a pending withdrawal")
	ErrKYCNotSubmittable      = errors.New("kyc already submitted or approved")
)

// RejectReason is the machine-readable code the client renders remediation
// guidance from. It replaces the ad hoc toast strings of the mobile app.
type RejectReason string

const (
	ReasonKYCNotApproved       RejectReason = "kyc_not_approved"
	ReasonCreditCheckRequired  RejectReason = "credit_check_required"
	ReasonCreditLimitPending   RejectReason = "credit_limit_pending"
	ReasonBelowMinimum         RejectReason = "below_minimum"
	ReasonExceedsCreditLimit   RejectReason = "exceeds_credit_limit"
	ReasonLoanNotOpen          RejectReason = "loan_not_open"
	ReasonTermNotExtendable    RejectReason = "term_not_extendable"
	ReasonMaxExtensionsReached RejectReason = "max_extensions_reached"
)

// EligibilityError carries the first failing gate check. A rejection is
// raised before any mutation, so it always implies zero side effects.
type EligibilityError struct {
	Reason RejectReason
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("eligibility rejected: %s", e.Reason)
}

func reject(reason RejectReason) error {
	return &EligibilityError{Reason: reason}
}

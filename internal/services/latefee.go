package services

import (
	"cashly/internal/money"
	"cashly/internal/store"

	"github.com/shopspring/decimal"
)

// LateFeePolicy decides the fee booked when a loan turns overdue. The
// schedule was never pinned down numerically by the product, so it stays
// pluggable and the shipped policy takes its rate from configuration.
type LateFeePolicy interface {
	Assess(loan store.Loan) money.Money
}

// PercentOfRemaining charges a flat percentage of the remaining amount
// once, at the moment the loan transitions into overdue.
type PercentOfRemaining struct {
	Rate decimal.Decimal
}

func (p PercentOfRemaining) Assess(loan store.Loan) money.Money {
	return money.Money(loan.Remaining()).MulPercent(p.Rate)
}

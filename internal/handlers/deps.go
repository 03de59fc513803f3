package handlers

import (
	"context"

	"cashly/internal/money"
	"cashly/internal/services"
	"cashly/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (store.User, error)
	GetByID(ctx context.Context, userID string) (store.User, error)
	UpdateKYCStatus(ctx context.Context, tx store.Execer, userID, status string) error
	SetCreditLimit(ctx context.Context, tx store.Execer, userID string, creditLimit int64, creditScore int) error
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, createdBy *string) error
	HasAnyAdmin(ctx context.Context) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type WalletService interface {
	Deposit(ctx context.Context, userID string, amount money.Money) (store.Transaction, error)
	RequestWithdrawal(ctx context.Context, userID string, amount money.Money) (store.Transaction, error)
	ApproveWithdrawal(ctx context.Context, adminID, transactionID string) error
	RejectWithdrawal(ctx context.Context, adminID, transactionID string) error
	Balance(ctx context.Context, userID string) (store.Wallet, error)
	History(ctx context.Context, userID, txType string, limit, offset int) ([]store.Transaction, error)
	WithdrawalRequests(ctx context.Context, userID string) ([]store.Transaction, error)
	SelfCheck(ctx context.Context, userID string) (services.SelfCheckResult, error)
}

type LoanService interface {
	Apply(ctx context.Context, req services.ApplyRequest) (store.Loan, error)
	Repay(ctx context.Context, userID, loanID string, amount money.Money) (store.Loan, error)
	Extend(ctx context.Context, userID, loanID string) (store.Loan, error)
	Get(ctx context.Context, userID, loanID string) (store.Loan, error)
	MyLoans(ctx context.Context, userID string) ([]store.Loan, error)
	ActiveLoans(ctx context.Context, userID string) ([]store.Loan, error)
}

type CreditCheckService interface {
	PayCreditCheckFee(ctx context.Context, userID string) (store.Transaction, error)
}

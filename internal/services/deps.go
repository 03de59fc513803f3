package services

import (
	"context"
	"time"

	"cashly/internal/store"
	"cashly/internal/websocket"
)

type UserStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.User, error)
	SetCreditCheckPaid(ctx context.Context, tx store.Execer, userID string, paidAt time.Time) (int64, error)
}

type WalletStore interface {
	GetByUserID(ctx context.Context, userID string) (store.Wallet, error)
	GetForUpdate(ctx context.Context, tx store.Getter, walletID string) (store.Wallet, error)
	GetForUpdateByUser(ctx context.Context, tx store.Tx, userID, newID string) (store.Wallet, error)
	UpdateBalances(ctx context.Context, tx store.Execer, walletID string, balance, frozen, deposited, withdrawn int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (store.Transaction, error)
	Complete(ctx context.Context, tx store.Execer, transactionID string, balanceAfter int64) (int64, error)
	Fail(ctx context.Context, tx store.Execer, transactionID string) (int64, error)
	ListByWallet(ctx context.Context, walletID, txType string, limit, offset int) ([]store.Transaction, error)
	ListPendingWithdrawals(ctx context.Context, walletID string) ([]store.Transaction, error)
	SumCompletedSigned(ctx context.Context, walletID string) (int64, error)
}

type LoanStore interface {
	Create(ctx context.Context, tx store.Execer, input store.LoanInput) error
	NextLoanNumber(ctx context.Context, tx store.Getter) (string, error)
	GetByID(ctx context.Context, loanID string) (store.Loan, error)
	GetForUpdate(ctx context.Context, tx store.Getter, loanID string) (store.Loan, error)
	ListByUser(ctx context.Context, userID string) ([]store.Loan, error)
	ListActiveByUser(ctx context.Context, userID string) ([]store.Loan, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]store.Loan, error)
	UpdateRepayment(ctx context.Context, tx store.Execer, loanID string, paidAmount, lateFee int64, status string) error
	UpdateExtension(ctx context.Context, tx store.Execer, loanID string, dueDate time.Time, extensionCount int, status string) error
	MarkOverdue(ctx context.Context, tx store.Execer, loanID string, lateFee int64) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

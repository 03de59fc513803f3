package services

import (
	"context"
	"io"
	"time"

	"cashly/internal/config"
	"cashly/internal/store"
	"cashly/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	getForUpdateFn       func(ctx context.Context, tx store.Getter, userID string) (store.User, error)
	setCreditCheckPaidFn func(ctx context.Context, tx store.Execer, userID string, paidAt time.Time) (int64, error)
}

func (s stubUserStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.User, error) {
	return s.getForUpdateFn(ctx, tx, userID)
}

func (s stubUserStore) SetCreditCheckPaid(ctx context.Context, tx store.Execer, userID string, paidAt time.Time) (int64, error) {
	if s.setCreditCheckPaidFn == nil {
		return 1, nil
	}
	return s.setCreditCheckPaidFn(ctx, tx, userID, paidAt)
}

type stubWalletStore struct {
	getByUserIDFn        func(ctx context.Context, userID string) (store.Wallet, error)
	getForUpdateFn       func(ctx context.Context, tx store.Getter, walletID string) (store.Wallet, error)
	getForUpdateByUserFn func(ctx context.Context, tx store.Tx, userID, newID string) (store.Wallet, error)
	updateBalancesFn     func(ctx context.Context, tx store.Execer, walletID string, balance, frozen, deposited, withdrawn int64) error
}

func (s stubWalletStore) GetByUserID(ctx context.Context, userID string) (store.Wallet, error) {
	return s.getByUserIDFn(ctx, userID)
}

func (s stubWalletStore) GetForUpdate(ctx context.Context, tx store.Getter, walletID string) (store.Wallet, error) {
	return s.getForUpdateFn(ctx, tx, walletID)
}

func (s stubWalletStore) GetForUpdateByUser(ctx context.Context, tx store.Tx, userID, newID string) (store.Wallet, error) {
	return s.getForUpdateByUserFn(ctx, tx, userID, newID)
}

func (s stubWalletStore) UpdateBalances(ctx context.Context, tx store.Execer, walletID string, balance, frozen, deposited, withdrawn int64) error {
	if s.updateBalancesFn == nil {
		return nil
	}
	return s.updateBalancesFn(ctx, tx, walletID, balance, frozen, deposited, withdrawn)
}

type stubTransactionStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	getForUpdateFn func(ctx context.Context, tx store.Getter, transactionID string) (store.Transaction, error)
	completeFn     func(ctx context.Context, tx store.Execer, transactionID string, balanceAfter int64) (int64, error)
	failFn         func(ctx context.Context, tx store.Execer, transactionID string) (int64, error)
	listByWalletFn func(ctx context.Context, walletID, txType string, limit, offset int) ([]store.Transaction, error)
	listPendingFn  func(ctx context.Context, walletID string) ([]store.Transaction, error)
	sumFn          func(ctx context.Context, walletID string) (int64, error)
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransactionStore) GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (store.Transaction, error) {
	return s.getForUpdateFn(ctx, tx, transactionID)
}

func (s stubTransactionStore) Complete(ctx context.Context, tx store.Execer, transactionID string, balanceAfter int64) (int64, error) {
	if s.completeFn == nil {
		return 1, nil
	}
	return s.completeFn(ctx, tx, transactionID, balanceAfter)
}

func (s stubTransactionStore) Fail(ctx context.Context, tx store.Execer, transactionID string) (int64, error) {
	if s.failFn == nil {
		return 1, nil
	}
	return s.failFn(ctx, tx, transactionID)
}

func (s stubTransactionStore) ListByWallet(ctx context.Context, walletID, txType string, limit, offset int) ([]store.Transaction, error) {
	return s.listByWalletFn(ctx, walletID, txType, limit, offset)
}

func (s stubTransactionStore) ListPendingWithdrawals(ctx context.Context, walletID string) ([]store.Transaction, error) {
	return s.listPendingFn(ctx, walletID)
}

func (s stubTransactionStore) SumCompletedSigned(ctx context.Context, walletID string) (int64, error) {
	return s.sumFn(ctx, walletID)
}

type stubLoanStore struct {
	createFn          func(ctx context.Context, tx store.Execer, input store.LoanInput) error
	nextLoanNumberFn  func(ctx context.Context, tx store.Getter) (string, error)
	getByIDFn         func(ctx context.Context, loanID string) (store.Loan, error)
	getForUpdateFn    func(ctx context.Context, tx store.Getter, loanID string) (store.Loan, error)
	listByUserFn      func(ctx context.Context, userID string) ([]store.Loan, error)
	listActiveFn      func(ctx context.Context, userID string) ([]store.Loan, error)
	listDueFn         func(ctx context.Context, now time.Time, limit int) ([]store.Loan, error)
	updateRepaymentFn func(ctx context.Context, tx store.Execer, loanID string, paidAmount, lateFee int64, status string) error
	updateExtensionFn func(ctx context.Context, tx store.Execer, loanID string, dueDate time.Time, extensionCount int, status string) error
	markOverdueFn     func(ctx context.Context, tx store.Execer, loanID string, lateFee int64) (int64, error)
}

func (s stubLoanStore) Create(ctx context.Context, tx store.Execer, input store.LoanInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubLoanStore) NextLoanNumber(ctx context.Context, tx store.Getter) (string, error) {
	if s.nextLoanNumberFn == nil {
		return "CL-000001", nil
	}
	return s.nextLoanNumberFn(ctx, tx)
}

func (s stubLoanStore) GetByID(ctx context.Context, loanID string) (store.Loan, error) {
	return s.getByIDFn(ctx, loanID)
}

func (s stubLoanStore) GetForUpdate(ctx context.Context, tx store.Getter, loanID string) (store.Loan, error) {
	return s.getForUpdateFn(ctx, tx, loanID)
}

func (s stubLoanStore) ListByUser(ctx context.Context, userID string) ([]store.Loan, error) {
	return s.listByUserFn(ctx, userID)
}

func (s stubLoanStore) ListActiveByUser(ctx context.Context, userID string) ([]store.Loan, error) {
	return s.listActiveFn(ctx, userID)
}

func (s stubLoanStore) ListDue(ctx context.Context, now time.Time, limit int) ([]store.Loan, error) {
	return s.listDueFn(ctx, now, limit)
}

func (s stubLoanStore) UpdateRepayment(ctx context.Context, tx store.Execer, loanID string, paidAmount, lateFee int64, status string) error {
	if s.updateRepaymentFn == nil {
		return nil
	}
	return s.updateRepaymentFn(ctx, tx, loanID, paidAmount, lateFee, status)
}

func (s stubLoanStore) UpdateExtension(ctx context.Context, tx store.Execer, loanID string, dueDate time.Time, extensionCount int, status string) error {
	if s.updateExtensionFn == nil {
		return nil
	}
	return s.updateExtensionFn(ctx, tx, loanID, dueDate, extensionCount, status)
}

func (s stubLoanStore) MarkOverdue(ctx context.Context, tx store.Execer, loanID string, lateFee int64) (int64, error) {
	if s.markOverdueFn == nil {
		return 1, nil
	}
	return s.markOverdueFn(ctx, tx, loanID, lateFee)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	calls []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.calls = append(s.calls, update)
}

func testLoanConfig() config.LoanConfig {
	return config.LoanConfig{
		MinLoanAmount:       10000,
		MinDepositAmount:    1000,
		MinWithdrawalAmount: 10000,
		CreditCheckFee:      3000,
		MaxLoanExtensions:   4,
		MaxWalletBalance:    10000000,
		TermRates: map[int]decimal.Decimal{
			14: decimal.RequireFromString("1.8"),
			21: decimal.RequireFromString("2.4"),
			90: decimal.RequireFromString("2.4"),
		},
		LateFeeRate: decimal.RequireFromString("2.0"),
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func approvedUser(id string) store.User {
	return store.User{
		ID:              id,
		KYCStatus:       store.KYCApproved,
		CreditCheckPaid: true,
		CreditLimit:     100000,
		CreditScore:     650,
	}
}

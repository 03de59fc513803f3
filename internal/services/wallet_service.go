package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"cashly/internal/config"
	"cashly/internal/db"
	"cashly/internal/money"
	"cashly/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type WalletService struct {
	txRunner     db.TxRunner
	ledger       *Ledger
	wallets      WalletStore
	transactions TransactionStore
	auditStore   AuditStore
	hub          BalanceHub
	cfg          config.LoanConfig
	log          *logrus.Logger
}

func NewWalletService(txRunner db.TxRunner, ledger *Ledger, wallets WalletStore, transactions TransactionStore, auditStore AuditStore, hub BalanceHub, cfg config.LoanConfig, log *logrus.Logger) *WalletService {
	return &WalletService{
		txRunner:     txRunner,
		ledger:       ledger,
		wallets:      wallets,
		transactions: transactions,
		auditStore:   auditStore,
		hub:          hub,
		cfg:          cfg,
		log:          log,
	}
}

func (s *WalletService) Deposit(ctx context.Context, userID string, amount money.Money) (store.Transaction, error) {
	if amount < s.cfg.MinDepositAmount {
		return store.Transaction{}, ErrInvalidAmount
	}
	var entry store.Transaction
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		entry, wallet, err = s.ledger.Credit(ctx, tx, userID, amount, store.TxDeposit, "deposit")
		if err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"transaction_id": entry.ID, "amount": amount.Format()})
		return s.auditStore.Log(ctx, tx, userID, "deposit", "transaction", entry.ID, string(data))
	})
	if err != nil {
		return store.Transaction{}, err
	}
	s.broadcast(userID, wallet)
	return entry, nil
}

// RequestWithdrawal places a hold on the amount and books a pending
// withdrawal. The balance itself only moves when an operator approves.
func (s *WalletService) RequestWithdrawal(ctx context.Context, userID string, amount money.Money) (store.Transaction, error) {
	if amount < s.cfg.MinWithdrawalAmount {
		return store.Transaction{}, ErrInvalidAmount
	}
	var entry store.Transaction
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		wallet, err = s.wallets.GetForUpdateByUser(ctx, tx, userID, uuid.NewString())
		if err != nil {
			return err
		}
		if wallet.Available() < amount.Int64() {
			return ErrInsufficientFunds
		}
		newFrozen := wallet.FrozenBalance + amount.Int64()
		input := store.TransactionInput{
			ID:           uuid.NewString(),
			WalletID:     wallet.ID,
			Type:         store.TxWithdrawal,
			Amount:       amount.Int64(),
			BalanceAfter: wallet.Balance,
			Status:       store.TxStatusPending,
			Reference:    "withdrawal request",
		}
		if err := s.transactions.Create(ctx, tx, input); err != nil {
			return err
		}
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, wallet.Balance, newFrozen, wallet.TotalDeposited, wallet.TotalWithdrawn); err != nil {
			return err
		}
		wallet.FrozenBalance = newFrozen
		entry = transactionFromInput(input)
		data, _ := json.Marshal(map[string]string{"transaction_id": entry.ID, "amount": amount.Format()})
		return s.auditStore.Log(ctx, tx, userID, "withdrawal_requested", "transaction", entry.ID, string(data))
	})
	if err != nil {
		return store.Transaction{}, err
	}
	s.broadcast(userID, wallet)
	return entry, nil
}

// ApproveWithdrawal resolves a pending hold: the frozen amount leaves the
// balance and the entry completes. The pending-status guard on Complete
// makes a double approval lose.
func (s *WalletService) ApproveWithdrawal(ctx context.Context, adminID, transactionID string) error {
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		entry, err := s.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if entry.Type != store.TxWithdrawal || entry.Status != store.TxStatusPending {
			return ErrNotPendingWithdrawal
		}
		wallet, err = s.wallets.GetForUpdate(ctx, tx, entry.WalletID)
		if err != nil {
			return err
		}
		if wallet.FrozenBalance < entry.Amount || wallet.Balance < entry.Amount {
			return ErrInsufficientFunds
		}
		newBalance := wallet.Balance - entry.Amount
		newFrozen := wallet.FrozenBalance - entry.Amount
		affected, err := s.transactions.Complete(ctx, tx, transactionID, newBalance)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotPendingWithdrawal
		}
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, newBalance, newFrozen, wallet.TotalDeposited, wallet.TotalWithdrawn+entry.Amount); err != nil {
			return err
		}
		wallet.Balance = newBalance
		wallet.FrozenBalance = newFrozen
		wallet.TotalWithdrawn += entry.Amount
		data, _ := json.Marshal(map[string]string{"transaction_id": transactionID})
		return s.auditStore.Log(ctx, tx, adminID, "withdrawal_approved", "transaction", transactionID, string(data))
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"transaction_id": transactionID, "admin_id": adminID}).Info("withdrawal approved")
	s.broadcast(wallet.UserID, wallet)
	return nil
}

// RejectWithdrawal releases the hold without moving the balance.
func (s *WalletService) RejectWithdrawal(ctx context.Context, adminID, transactionID string) error {
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		entry, err := s.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if entry.Type != store.TxWithdrawal || entry.Status != store.TxStatusPending {
			return ErrNotPendingWithdrawal
		}
		wallet, err = s.wallets.GetForUpdate(ctx, tx, entry.WalletID)
		if err != nil {
			return err
		}
		affected, err := s.transactions.Fail(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotPendingWithdrawal
		}
		newFrozen := wallet.FrozenBalance - entry.Amount
		if newFrozen < 0 {
			newFrozen = 0
		}
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, wallet.Balance, newFrozen, wallet.TotalDeposited, wallet.TotalWithdrawn); err != nil {
			return err
		}
		wallet.FrozenBalance = newFrozen
		data, _ := json.Marshal(map[string]string{"transaction_id": transactionID})
		return s.auditStore.Log(ctx, tx, adminID, "withdrawal_rejected", "transaction", transactionID, string(data))
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"transaction_id": transactionID, "admin_id": adminID}).Info("withdrawal rejected")
	s.broadcast(wallet.UserID, wallet)
	return nil
}

// Balance returns the user's wallet, or a zero wallet when none exists
// yet. Wallets are only materialized by the first ledger movement.
func (s *WalletService) Balance(ctx context.Context, userID string) (store.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Wallet{UserID: userID}, nil
	}
	if err != nil {
		return store.Wallet{}, err
	}
	return wallet, nil
}

func (s *WalletService) History(ctx context.Context, userID, txType string, limit, offset int) ([]store.Transaction, error) {
	wallet, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.ID == "" {
		return []store.Transaction{}, nil
	}
	return s.transactions.ListByWallet(ctx, wallet.ID, txType, limit, offset)
}

func (s *WalletService) WithdrawalRequests(ctx context.Context, userID string) ([]store.Transaction, error) {
	wallet, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.ID == "" {
		return []store.Transaction{}, nil
	}
	return s.transactions.ListPendingWithdrawals(ctx, wallet.ID)
}

type SelfCheckResult struct {
	WalletID      string `json:"wallet_id"`
	Balance       int64  `json:"balance"`
	LedgerSum     int64  `json:"ledger_sum"`
	FrozenBalance int64  `json:"frozen_balance"`
	Balanced      bool   `json:"balanced"`
}

// SelfCheck folds the completed ledger and compares it against the stored
// balance. Any drift means an invariant was broken and needs operator eyes.
func (s *WalletService) SelfCheck(ctx context.Context, userID string) (SelfCheckResult, error) {
	wallet, err := s.Balance(ctx, userID)
	if err != nil {
		return SelfCheckResult{}, err
	}
	if wallet.ID == "" {
		return SelfCheckResult{Balanced: true}, nil
	}
	sum, err := s.transactions.SumCompletedSigned(ctx, wallet.ID)
	if err != nil {
		return SelfCheckResult{}, err
	}
	result := SelfCheckResult{
		WalletID:      wallet.ID,
		Balance:       wallet.Balance,
		LedgerSum:     sum,
		FrozenBalance: wallet.FrozenBalance,
		Balanced:      sum == wallet.Balance,
	}
	if !result.Balanced {
		s.log.WithFields(logrus.Fields{"wallet_id": wallet.ID, "balance": wallet.Balance, "ledger_sum": sum}).Error("wallet out of balance")
	}
	return result, nil
}

func (s *WalletService) broadcast(userID string, wallet store.Wallet) {
	if userID == "" {
		return
	}
	s.hub.BroadcastBalance(userID, balanceUpdate(wallet))
}

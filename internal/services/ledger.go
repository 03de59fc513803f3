package services

import (
	"context"

	"cashly/internal/money"
	"cashly/internal/store"
	"cashly/internal/websocket"

	"github.com/google/uuid"
)

// Ledger holds the two wallet mutation primitives every money movement in
// the system goes through. Both run inside the caller's transaction with
// the wallet row locked, compute balance_after under the lock, and insert
// exactly one completed transaction row. The append-only ledger therefore
// reconciles against the wallet balance by construction.
type Ledger struct {
	wallets      WalletStore
	transactions TransactionStore
	maxBalance   money.Money
}

func NewLedger(wallets WalletStore, transactions TransactionStore, maxBalance money.Money) *Ledger {
	return &Ledger{wallets: wallets, transactions: transactions, maxBalance: maxBalance}
}

// Credit adds amount to the user's wallet and books a completed credit
// entry. The wallet is created lazily on first use.
func (l *Ledger) Credit(ctx context.Context, tx store.Tx, userID string, amount money.Money, txType, reference string) (store.Transaction, store.Wallet, error) {
	if amount <= 0 {
		return store.Transaction{}, store.Wallet{}, ErrInvalidAmount
	}
	wallet, err := l.wallets.GetForUpdateByUser(ctx, tx, userID, uuid.NewString())
	if err != nil {
		return store.Transaction{}, store.Wallet{}, err
	}
	newBalance := wallet.Balance + amount.Int64()
	if l.maxBalance > 0 && newBalance > l.maxBalance.Int64() {
		return store.Transaction{}, store.Wallet{}, ErrWalletLimitExceeded
	}
	deposited := wallet.TotalDeposited
	if txType == store.TxDeposit {
		deposited += amount.Int64()
	}
	entry := store.TransactionInput{
		ID:           uuid.NewString(),
		WalletID:     wallet.ID,
		Type:         txType,
		Amount:       amount.Int64(),
		BalanceAfter: newBalance,
		Status:       store.TxStatusCompleted,
		Reference:    reference,
	}
	if err := l.transactions.Create(ctx, tx, entry); err != nil {
		return store.Transaction{}, store.Wallet{}, err
	}
	if err := l.wallets.UpdateBalances(ctx, tx, wallet.ID, newBalance, wallet.FrozenBalance, deposited, wallet.TotalWithdrawn); err != nil {
		return store.Transaction{}, store.Wallet{}, err
	}
	wallet.Balance = newBalance
	wallet.TotalDeposited = deposited
	return transactionFromInput(entry), wallet, nil
}

// Debit removes amount from the user's available balance and books a
// completed debit entry. Frozen holds are untouched, so a pending
// withdrawal can never be spent twice.
func (l *Ledger) Debit(ctx context.Context, tx store.Tx, userID string, amount money.Money, txType, reference string) (store.Transaction, store.Wallet, error) {
	if amount <= 0 {
		return store.Transaction{}, store.Wallet{}, ErrInvalidAmount
	}
	wallet, err := l.wallets.GetForUpdateByUser(ctx, tx, userID, uuid.NewString())
	if err != nil {
		return store.Transaction{}, store.Wallet{}, err
	}
	if wallet.Available() < amount.Int64() {
		return store.Transaction{}, store.Wallet{}, ErrInsufficientFunds
	}
	newBalance := wallet.Balance - amount.Int64()
	entry := store.TransactionInput{
		ID:           uuid.NewString(),
		WalletID:     wallet.ID,
		Type:         txType,
		Amount:       amount.Int64(),
		BalanceAfter: newBalance,
		Status:       store.TxStatusCompleted,
		Reference:    reference,
	}
	if err := l.transactions.Create(ctx, tx, entry); err != nil {
		return store.Transaction{}, store.Wallet{}, err
	}
	if err := l.wallets.UpdateBalances(ctx, tx, wallet.ID, newBalance, wallet.FrozenBalance, wallet.TotalDeposited, wallet.TotalWithdrawn); err != nil {
		return store.Transaction{}, store.Wallet{}, err
	}
	wallet.Balance = newBalance
	return transactionFromInput(entry), wallet, nil
}

func balanceUpdate(wallet store.Wallet) websocket.BalanceUpdate {
	return websocket.BalanceUpdate{
		WalletID:         wallet.ID,
		Balance:          money.Money(wallet.Balance).Format(),
		AvailableBalance: money.Money(wallet.Available()).Format(),
	}
}

func transactionFromInput(input store.TransactionInput) store.Transaction {
	return store.Transaction{
		ID:           input.ID,
		WalletID:     input.WalletID,
		Type:         input.Type,
		Amount:       input.Amount,
		BalanceAfter: input.BalanceAfter,
		Status:       input.Status,
		Reference:    input.Reference,
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
)

type WalletStore struct {
	db DB
}

type Wallet struct {
	ID             string `db:"id"`
	UserID         string `db:"user_id"`
	Balance        int64  `db:"balance"`
	FrozenBalance  int64  `db:"frozen_balance"`
	TotalDeposited int64  `db:"total_deposited"`
	TotalWithdrawn int64  `db:"total_withdrawn"`
	CreatedAt      any    `db:"created_at"`
}

// Available is the spendable part of the balance; pending withdrawal holds
// sit in FrozenBalance until resolved.
func (w Wallet) Available() int64 {
	return w.Balance - w.FrozenBalance
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, id, userID string) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, frozen_balance, total_deposited, total_withdrawn)
		VALUES ($1, $2, 0, 0, 0, 0)
	`
	_, err := tx.ExecContext(ctx, query, id, userID)
	return err
}

const walletColumns = `id, user_id, balance, frozen_balance, total_deposited, total_withdrawn, created_at`

func (s *WalletStore) GetByUserID(ctx context.Context, userID string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) GetByID(ctx context.Context, walletID string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, walletID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) GetForUpdate(ctx context.Context, tx Getter, walletID string) (Wallet, error) {
	var row Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`, walletID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

// GetForUpdateByUser locks the user's wallet row, creating the wallet on
// first access. newID supplies the id should creation be needed.
func (s *WalletStore) GetForUpdateByUser(ctx context.Context, tx Tx, userID, newID string) (Wallet, error) {
	var row Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Wallet{}, err
	}
	if err := s.Create(ctx, tx, newID, userID); err != nil {
		return Wallet{}, err
	}
	return Wallet{ID: newID, UserID: userID}, nil
}

// UpdateBalances writes back every balance column at once; callers compute
// the new values under the row lock.
func (s *WalletStore) UpdateBalances(ctx context.Context, tx Execer, walletID string, balance, frozen, deposited, withdrawn int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = $1, frozen_balance = $2, total_deposited = $3, total_withdrawn = $4, updated_at = NOW()
		WHERE id = $5
	`, balance, frozen, deposited, withdrawn, walletID)
	return err
}

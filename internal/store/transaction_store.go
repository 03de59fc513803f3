package store

import (
	"context"
	"fmt"
)

// Transaction types. Credit types raise the balance, debit types lower it.
const (
	TxDeposit          = "deposit"
	TxWithdrawal       = "withdrawal"
	TxLoanDisbursement = "loan_disbursement"
	TxLoanPayment      = "loan_payment"
	TxCreditCheckFee   = "credit_check_fee"
	TxExtensionFee     = "extension_fee"
)

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// IsCreditType reports whether the type adds to the wallet balance.
func IsCreditType(txType string) bool {
	return txType == TxDeposit || txType == TxLoanDisbursement
}

type TransactionStore struct {
	db DB
}

type Transaction struct {
	ID           string `db:"id"`
	WalletID     string `db:"wallet_id"`
	Type         string `db:"type"`
	Amount       int64  `db:"amount"`
	BalanceAfter int64  `db:"balance_after"`
	Status       string `db:"status"`
	Reference    string `db:"reference"`
	CreatedAt    any    `db:"created_at"`
}

type TransactionInput struct {
	ID           string
	WalletID     string
	Type         string
	Amount       int64
	BalanceAfter int64
	Status       string
	Reference    string
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, wallet_id, type, amount, balance_after, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.WalletID, input.Type, input.Amount, input.BalanceAfter, input.Status, input.Reference,
	)
	return err
}

const transactionColumns = `id, wallet_id, type, amount, balance_after, status, reference, created_at`

func (s *TransactionStore) GetByID(ctx context.Context, transactionID string) (Transaction, error) {
	var row Transaction
	err := s.db.GetContext(ctx, &row, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, transactionID string) (Transaction, error) {
	var row Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	return row, nil
}

// Complete resolves a pending entry. The status guard keeps completed and
// failed entries immutable.
func (s *TransactionStore) Complete(ctx context.Context, tx Execer, transactionID string, balanceAfter int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'completed', balance_after = $1
		WHERE id = $2 AND status = 'pending'
	`, balanceAfter, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) Fail(ctx context.Context, tx Execer, transactionID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'failed'
		WHERE id = $1 AND status = 'pending'
	`, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransactionStore) ListByWallet(ctx context.Context, walletID, txType string, limit, offset int) ([]Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE wallet_id = $1
	`
	args := []any{walletID}
	param := 2
	if txType != "" {
		query += " AND type = $2"
		args = append(args, txType)
		param = 3
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", param, param+1)
	args = append(args, limit, offset)
	var rows []Transaction
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListPendingWithdrawals(ctx context.Context, walletID string) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE wallet_id = $1 AND type = 'withdrawal' AND status = 'pending'
		ORDER BY created_at DESC
	`, walletID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumCompletedSigned folds the completed ledger into one signed balance.
// The reconciliation invariant requires it to equal wallets.balance.
func (s *TransactionStore) SumCompletedSigned(ctx context.Context, walletID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(
			CASE WHEN type IN ('deposit', 'loan_disbursement') THEN amount ELSE -amount END
		), 0)
		FROM transactions
		WHERE wallet_id = $1 AND status = 'completed'
	`, walletID)
	return sum, err
}

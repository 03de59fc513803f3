package store

import (
	"context"
	"time"
)

// KYC statuses as the mobile client renders them.
const (
	KYCNotSubmitted = "not_submitted"
	KYCPending      = "pending"
	KYCApproved     = "approved"
	KYCRejected     = "rejected"
)

type UserStore struct {
	db DB
}

type User struct {
	ID                string     `db:"id"`
	Username          string     `db:"username"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash"`
	KYCStatus         string     `db:"kyc_status"`
	CreditCheckPaid   bool       `db:"credit_check_paid"`
	CreditCheckPaidAt *time.Time `db:"credit_check_paid_at"`
	CreditLimit       int64      `db:"credit_limit"`
	CreditScore       int        `db:"credit_score"`
	CreatedAt         time.Time  `db:"created_at"`
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, email, passwordHash string) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, kyc_status)
		VALUES ($1, $2, $3, $4, 'not_submitted')
	`
	_, err := tx.ExecContext(ctx, query, id, username, email, passwordHash)
	return err
}

const userColumns = `id, username, email, password_hash, kyc_status, credit_check_paid, credit_check_paid_at, credit_limit, credit_score, created_at`

func (s *UserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (User, error) {
	var row User
	err := tx.GetContext(ctx, &row, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

// SetCreditCheckPaid marks the one-time credit-check fee as paid. The
// credit_check_paid guard makes a concurrent double-pay lose the race.
func (s *UserStore) SetCreditCheckPaid(ctx context.Context, tx Execer, userID string, paidAt time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET credit_check_paid = TRUE, credit_check_paid_at = $1
		WHERE id = $2 AND credit_check_paid = FALSE
	`, paidAt, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) UpdateKYCStatus(ctx context.Context, tx Execer, userID, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET kyc_status = $1
		WHERE id = $2
	`, status, userID)
	return err
}

// SetCreditLimit records the credit authority's decision for a user.
func (s *UserStore) SetCreditLimit(ctx context.Context, tx Execer, userID string, creditLimit int64, creditScore int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET credit_limit = $1, credit_score = $2
		WHERE id = $3
	`, creditLimit, creditScore, userID)
	return err
}

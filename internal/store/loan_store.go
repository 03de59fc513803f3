package store

import (
	"context"
	"fmt"
	"time"
)

const (
	LoanPending   = "pending"
	LoanApproved  = "approved"
	LoanRejected  = "rejected"
	LoanActive    = "active"
	LoanExtended  = "extended"
	LoanOverdue   = "overdue"
	LoanCompleted = "completed"
)

type LoanStore struct {
	db DB
}

type Loan struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	LoanNumber     string     `db:"loan_number"`
	Principal      int64      `db:"principal"`
	Term           int        `db:"term"`
	InterestRate   string     `db:"interest_rate"`
	InterestAmount int64      `db:"interest_amount"`
	TotalAmount    int64      `db:"total_amount"`
	PaidAmount     int64      `db:"paid_amount"`
	LateFee        int64      `db:"late_fee"`
	ExtensionCount int        `db:"extension_count"`
	Status         string     `db:"status"`
	Purpose        string     `db:"purpose"`
	CreatedAt      time.Time  `db:"created_at"`
	DisbursedAt    *time.Time `db:"disbursed_at"`
	DueDate        *time.Time `db:"due_date"`
}

// Remaining is always derived from paid_amount, never stored.
func (l Loan) Remaining() int64 {
	return l.TotalAmount - l.PaidAmount
}

type LoanInput struct {
	ID             string
	UserID         string
	LoanNumber     string
	Principal      int64
	Term           int
	InterestRate   string
	InterestAmount int64
	TotalAmount    int64
	Status         string
	Purpose        string
	DisbursedAt    time.Time
	DueDate        time.Time
}

func NewLoanStore(db DB) *LoanStore {
	return &LoanStore{db: db}
}

func (s *LoanStore) Create(ctx context.Context, tx Execer, input LoanInput) error {
	query := `
		INSERT INTO loans (id, user_id, loan_number, principal, term, interest_rate, interest_amount,
		                   total_amount, paid_amount, late_fee, extension_count, status, purpose,
		                   disbursed_at, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, 0, $9, $10, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.LoanNumber, input.Principal, input.Term,
		input.InterestRate, input.InterestAmount, input.TotalAmount,
		input.Status, input.Purpose, input.DisbursedAt, input.DueDate,
	)
	return err
}

// NextLoanNumber draws from the loan number sequence, e.g. "CL-000042".
func (s *LoanStore) NextLoanNumber(ctx context.Context, tx Getter) (string, error) {
	var seq int64
	if err := tx.GetContext(ctx, &seq, `SELECT nextval('loan_number_seq')`); err != nil {
		return "", err
	}
	return fmt.Sprintf("CL-%06d", seq), nil
}

const loanColumns = `id, user_id, loan_number, principal, term, interest_rate, interest_amount,
	total_amount, paid_amount, late_fee, extension_count, status, purpose, created_at, disbursed_at, due_date`

func (s *LoanStore) GetByID(ctx context.Context, loanID string) (Loan, error) {
	var row Loan
	err := s.db.GetContext(ctx, &row, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID)
	if err != nil {
		return Loan{}, err
	}
	return row, nil
}

func (s *LoanStore) GetForUpdate(ctx context.Context, tx Getter, loanID string) (Loan, error) {
	var row Loan
	err := tx.GetContext(ctx, &row, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = $1
		FOR UPDATE
	`, loanID)
	if err != nil {
		return Loan{}, err
	}
	return row, nil
}

func (s *LoanStore) ListByUser(ctx context.Context, userID string) ([]Loan, error) {
	var rows []Loan
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LoanStore) ListActiveByUser(ctx context.Context, userID string) ([]Loan, error) {
	var rows []Loan
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE user_id = $1 AND status IN ('active', 'extended', 'overdue')
		ORDER BY due_date ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDue feeds the overdue sweep: open loans whose due date has passed.
func (s *LoanStore) ListDue(ctx context.Context, now time.Time, limit int) ([]Loan, error) {
	var rows []Loan
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE status IN ('active', 'extended')
		  AND due_date < $1
		  AND total_amount - paid_amount > 0
		ORDER BY due_date ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LoanStore) UpdateRepayment(ctx context.Context, tx Execer, loanID string, paidAmount, lateFee int64, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET paid_amount = $1, late_fee = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`, paidAmount, lateFee, status, loanID)
	return err
}

func (s *LoanStore) UpdateExtension(ctx context.Context, tx Execer, loanID string, dueDate time.Time, extensionCount int, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET due_date = $1, extension_count = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`, dueDate, extensionCount, status, loanID)
	return err
}

// MarkOverdue transitions a past-due open loan to overdue and books the
// late fee. The status guard makes re-running the sweep a no-op for loans
// already marked, so the fee is never applied twice; the due-date guard
// refuses loans whose due date has not passed yet.
func (s *LoanStore) MarkOverdue(ctx context.Context, tx Execer, loanID string, lateFee int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET status = 'overdue', late_fee = late_fee + $1, updated_at = NOW()
		WHERE id = $2 AND status IN ('active', 'extended') AND due_date < NOW()
	`, lateFee, loanID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package services

import (
	"context"
	"encoding/json"
	"time"

	"cashly/internal/config"
	"cashly/internal/db"
	"cashly/internal/money"
	"cashly/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type LoanService struct {
	txRunner   db.TxRunner
	ledger     *Ledger
	loans      LoanStore
	users      UserStore
	auditStore AuditStore
	hub        BalanceHub
	lateFee    LateFeePolicy
	cfg        config.LoanConfig
	log        *logrus.Logger
	now        func() time.Time
}

func NewLoanService(txRunner db.TxRunner, ledger *Ledger, loans LoanStore, users UserStore, auditStore AuditStore, hub BalanceHub, lateFee LateFeePolicy, cfg config.LoanConfig, log *logrus.Logger) *LoanService {
	return &LoanService{
		txRunner:   txRunner,
		ledger:     ledger,
		loans:      loans,
		users:      users,
		auditStore: auditStore,
		hub:        hub,
		lateFee:    lateFee,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

type ApplyRequest struct {
	UserID    string
	Principal money.Money
	Term      int
	Purpose   string
}

// Apply runs the eligibility gate, writes the loan and disburses the
// principal to the wallet, all in one transaction. The user row is locked
// first so eligibility cannot change underneath the application.
func (s *LoanService) Apply(ctx context.Context, req ApplyRequest) (store.Loan, error) {
	rate, ok := s.cfg.TermRates[req.Term]
	if !ok {
		return store.Loan{}, ErrInvalidTerm
	}
	var loan store.Loan
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if err := CanApplyForLoan(user, req.Principal, s.cfg); err != nil {
			return err
		}
		loanNumber, err := s.loans.NextLoanNumber(ctx, tx)
		if err != nil {
			return err
		}
		interest := req.Principal.MulPercent(rate)
		total := req.Principal.Add(interest)
		now := s.now().UTC()
		dueDate := now.AddDate(0, 0, req.Term)
		input := store.LoanInput{
			ID:             uuid.NewString(),
			UserID:         req.UserID,
			LoanNumber:     loanNumber,
			Principal:      req.Principal.Int64(),
			Term:           req.Term,
			InterestRate:   rate.String(),
			InterestAmount: interest.Int64(),
			TotalAmount:    total.Int64(),
			Status:         store.LoanActive,
			Purpose:        req.Purpose,
			DisbursedAt:    now,
			DueDate:        dueDate,
		}
		if err := s.loans.Create(ctx, tx, input); err != nil {
			return err
		}
		_, wallet, err = s.ledger.Credit(ctx, tx, req.UserID, req.Principal, store.TxLoanDisbursement, loanNumber)
		if err != nil {
			return err
		}
		loan = store.Loan{
			ID:             input.ID,
			UserID:         input.UserID,
			LoanNumber:     input.LoanNumber,
			Principal:      input.Principal,
			Term:           input.Term,
			InterestRate:   input.InterestRate,
			InterestAmount: input.InterestAmount,
			TotalAmount:    input.TotalAmount,
			Status:         input.Status,
			Purpose:        input.Purpose,
			CreatedAt:      now,
			DisbursedAt:    &input.DisbursedAt,
			DueDate:        &input.DueDate,
		}
		data, _ := json.Marshal(map[string]string{
			"loan_number": loanNumber,
			"principal":   req.Principal.Format(),
			"total":       total.Format(),
		})
		return s.auditStore.Log(ctx, tx, req.UserID, "loan_applied", "loan", input.ID, string(data))
	})
	if err != nil {
		return store.Loan{}, err
	}
	s.log.WithFields(logrus.Fields{
		"loan_number": loan.LoanNumber,
		"user_id":     loan.UserID,
		"principal":   loan.Principal,
		"term":        loan.Term,
	}).Info("loan disbursed")
	s.broadcast(req.UserID, wallet)
	return loan, nil
}

// Repay debits the wallet and applies the payment, late fee first, then
// paid_amount. A payment that clears the remaining amount completes the
// loan; overpayment is rejected before any money moves.
func (s *LoanService) Repay(ctx context.Context, userID, loanID string, amount money.Money) (store.Loan, error) {
	if amount <= 0 {
		return store.Loan{}, ErrInvalidAmount
	}
	var loan store.Loan
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		loan, err = s.loans.GetForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return ErrUnauthorizedLoan
		}
		switch loan.Status {
		case store.LoanActive, store.LoanExtended, store.LoanOverdue:
		default:
			return ErrInvalidLoanState
		}
		due := loan.Remaining() + loan.LateFee
		if amount.Int64() > due {
			return ErrAmountExceedsDue
		}
		_, wallet, err = s.ledger.Debit(ctx, tx, userID, amount, store.TxLoanPayment, loan.LoanNumber)
		if err != nil {
			return err
		}
		remainder := amount.Int64()
		newLateFee := loan.LateFee
		if newLateFee > 0 {
			if remainder >= newLateFee {
				remainder -= newLateFee
				newLateFee = 0
			} else {
				newLateFee -= remainder
				remainder = 0
			}
		}
		newPaid := loan.PaidAmount + remainder
		newStatus := loan.Status
		if newPaid >= loan.TotalAmount && newLateFee == 0 {
			newStatus = store.LoanCompleted
		}
		if err := s.loans.UpdateRepayment(ctx, tx, loanID, newPaid, newLateFee, newStatus); err != nil {
			return err
		}
		loan.PaidAmount = newPaid
		loan.LateFee = newLateFee
		loan.Status = newStatus
		data, _ := json.Marshal(map[string]string{"loan_number": loan.LoanNumber, "amount": amount.Format()})
		return s.auditStore.Log(ctx, tx, userID, "loan_repaid", "loan", loanID, string(data))
	})
	if err != nil {
		return store.Loan{}, err
	}
	if loan.Status == store.LoanCompleted {
		s.log.WithFields(logrus.Fields{"loan_number": loan.LoanNumber, "user_id": userID}).Info("loan completed")
	}
	s.broadcast(userID, wallet)
	return loan, nil
}

// Extend rolls the due date forward by one full term against a fee equal
// to the original interest amount. The fee is debited up front; a wallet
// that cannot cover it aborts the whole extension.
func (s *LoanService) Extend(ctx context.Context, userID, loanID string) (store.Loan, error) {
	var loan store.Loan
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		loan, err = s.loans.GetForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return ErrUnauthorizedLoan
		}
		if err := CanExtend(loan, s.cfg); err != nil {
			return err
		}
		fee := money.Money(loan.InterestAmount)
		_, wallet, err = s.ledger.Debit(ctx, tx, userID, fee, store.TxExtensionFee, loan.LoanNumber)
		if err != nil {
			return err
		}
		base := s.now().UTC()
		if loan.DueDate != nil {
			base = *loan.DueDate
		}
		newDueDate := base.AddDate(0, 0, loan.Term)
		newCount := loan.ExtensionCount + 1
		if err := s.loans.UpdateExtension(ctx, tx, loanID, newDueDate, newCount, store.LoanExtended); err != nil {
			return err
		}
		loan.DueDate = &newDueDate
		loan.ExtensionCount = newCount
		loan.Status = store.LoanExtended
		data, _ := json.Marshal(map[string]string{
			"loan_number": loan.LoanNumber,
			"fee":         fee.Format(),
			"due_date":    newDueDate.Format(time.RFC3339),
		})
		return s.auditStore.Log(ctx, tx, userID, "loan_extended", "loan", loanID, string(data))
	})
	if err != nil {
		return store.Loan{}, err
	}
	s.log.WithFields(logrus.Fields{
		"loan_number":     loan.LoanNumber,
		"user_id":         userID,
		"extension_count": loan.ExtensionCount,
	}).Info("loan extended")
	s.broadcast(userID, wallet)
	return loan, nil
}

// AssessOverdue moves one past-due loan into overdue and books the late
// fee. The due date is re-read under the row lock, so a loan extended
// after the sweep listed it keeps its fresh due date. The status guard
// inside MarkOverdue makes the call idempotent, so overlapping sweeps
// never double-charge.
func (s *LoanService) AssessOverdue(ctx context.Context, loanID string) (bool, error) {
	var marked bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := s.loans.GetForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.DueDate == nil || !s.now().UTC().After(*loan.DueDate) || loan.Remaining() <= 0 {
			return nil
		}
		fee := s.lateFee.Assess(loan)
		affected, err := s.loans.MarkOverdue(ctx, tx, loanID, fee.Int64())
		if err != nil {
			return err
		}
		marked = affected > 0
		if !marked {
			return nil
		}
		data, _ := json.Marshal(map[string]string{"loan_number": loan.LoanNumber, "late_fee": fee.Format()})
		return s.auditStore.Log(ctx, tx, "", "loan_overdue", "loan", loanID, string(data))
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

// SweepOverdue is the cron entry point: it walks open loans whose due date
// passed and assesses each one. Per-loan failures are logged and skipped
// so one bad row never stalls the sweep.
func (s *LoanService) SweepOverdue(ctx context.Context, batchSize int) (int, error) {
	due, err := s.loans.ListDue(ctx, s.now().UTC(), batchSize)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, loan := range due {
		ok, err := s.AssessOverdue(ctx, loan.ID)
		if err != nil {
			s.log.WithFields(logrus.Fields{"loan_number": loan.LoanNumber, "error": err.Error()}).Warn("overdue assessment failed")
			continue
		}
		if ok {
			marked++
		}
	}
	if marked > 0 {
		s.log.WithFields(logrus.Fields{"checked": len(due), "marked": marked}).Info("overdue sweep finished")
	}
	return marked, nil
}

// Get returns a single loan, refusing to show another user's loan.
func (s *LoanService) Get(ctx context.Context, userID, loanID string) (store.Loan, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return store.Loan{}, err
	}
	if loan.UserID != userID {
		return store.Loan{}, ErrUnauthorizedLoan
	}
	return loan, nil
}

func (s *LoanService) MyLoans(ctx context.Context, userID string) ([]store.Loan, error) {
	return s.loans.ListByUser(ctx, userID)
}

func (s *LoanService) ActiveLoans(ctx context.Context, userID string) ([]store.Loan, error) {
	return s.loans.ListActiveByUser(ctx, userID)
}

func (s *LoanService) broadcast(userID string, wallet store.Wallet) {
	if userID == "" {
		return
	}
	s.hub.BroadcastBalance(userID, balanceUpdate(wallet))
}

package services

import (
	"context"
	"encoding/json"
	"time"

	"cashly/internal/config"
	"cashly/internal/db"
	"cashly/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// CreditCheckService charges the one-time credit check fee that unlocks
// loan applications. The actual scoring happens at an external authority;
// this service only collects the fee and flips the paid flag.
type CreditCheckService struct {
	txRunner   db.TxRunner
	ledger     *Ledger
	users      UserStore
	auditStore AuditStore
	hub        BalanceHub
	cfg        config.LoanConfig
	log        *logrus.Logger
	now        func() time.Time
}

func NewCreditCheckService(txRunner db.TxRunner, ledger *Ledger, users UserStore, auditStore AuditStore, hub BalanceHub, cfg config.LoanConfig, log *logrus.Logger) *CreditCheckService {
	return &CreditCheckService{
		txRunner:   txRunner,
		ledger:     ledger,
		users:      users,
		auditStore: auditStore,
		hub:        hub,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// PayCreditCheckFee debits the fee and marks the user as checked. Both
// the locked read and the guarded update reject a second payment, so a
// concurrent double-tap charges exactly once.
func (s *CreditCheckService) PayCreditCheckFee(ctx context.Context, userID string) (store.Transaction, error) {
	var entry store.Transaction
	var wallet store.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.CreditCheckPaid {
			return ErrCreditCheckAlreadyPaid
		}
		entry, wallet, err = s.ledger.Debit(ctx, tx, userID, s.cfg.CreditCheckFee, store.TxCreditCheckFee, "credit check")
		if err != nil {
			return err
		}
		affected, err := s.users.SetCreditCheckPaid(ctx, tx, userID, s.now().UTC())
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCreditCheckAlreadyPaid
		}
		data, _ := json.Marshal(map[string]string{"transaction_id": entry.ID, "fee": s.cfg.CreditCheckFee.Format()})
		return s.auditStore.Log(ctx, tx, userID, "credit_check_paid", "user", userID, string(data))
	})
	if err != nil {
		return store.Transaction{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID}).Info("credit check fee collected")
	s.hub.BroadcastBalance(userID, balanceUpdate(wallet))
	return entry, nil
}

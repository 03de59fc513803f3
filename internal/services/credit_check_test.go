package services

import (
	"context"
	"testing"
	"time"

	"cashly/internal/store"
)

func newCreditCheckService(users stubUserStore, wallets stubWalletStore, transactions stubTransactionStore, hub *stubHub) *CreditCheckService {
	cfg := testLoanConfig()
	ledger := NewLedger(wallets, transactions, cfg.MaxWalletBalance)
	return NewCreditCheckService(fakeTxRunner{}, ledger, users, stubAuditStore{}, hub, cfg, testLogger())
}

func TestPayCreditCheckFee(t *testing.T) {
	var debit store.TransactionInput
	paid := false
	hub := &stubHub{}
	service := newCreditCheckService(stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (store.User, error) {
			return store.User{ID: "user-1", KYCStatus: store.KYCApproved}, nil
		},
		setCreditCheckPaidFn: func(context.Context, store.Execer, string, time.Time) (int64, error) {
			paid = true
			return 1, nil
		},
	}, stubWalletStore{
		getForUpdateByUserFn: func(context.Context, store.Tx, string, string) (store.Wallet, error) {
			return store.Wallet{ID: "w1", UserID: "user-1", Balance: 5000}, nil
		},
	}, stubTransactionStore{
		createFn: func(_ context.Context, _ store.Execer, input store.TransactionInput) error {
			debit = input
			return nil
		},
	}, hub)

	entry, err := service.PayCreditCheckFee(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !paid {
		t.Fatalf("expected paid flag to be set")
	}
	if debit.Type != store.TxCreditCheckFee || debit.Amount != 3000 || debit.BalanceAfter != 2000 {
		t.Fatalf("unexpected fee debit: %#v", debit)
	}
	if entry.Status != store.TxStatusCompleted {
		t.Fatalf("fee entry should complete immediately, got %s", entry.Status)
	}
	if len(hub.calls) != 1 {
		t.Fatalf("expected balance broadcast")
	}
}

func TestPayCreditCheckFeeTwice(t *testing.T) {
	service := newCreditCheckService(stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (store.User, error) {
			return store.User{ID: "user-1", CreditCheckPaid: true}, nil
		},
	}, stubWalletStore{
		getForUpdateByUserFn: func(context.Context, store.Tx, string, string) (store.Wallet, error) {
			t.Fatalf("second payment must not touch the wallet")
			return store.Wallet{}, nil
		},
	}, stubTransactionStore{}, &stubHub{})

	_, err := service.PayCreditCheckFee(context.Background(), "user-1")
	if err != ErrCreditCheckAlreadyPaid {
		t.Fatalf("expected ErrCreditCheckAlreadyPaid, got %v", err)
	}
}

func TestPayCreditCheckFeeLosesRace(t *testing.T) {
	service := newCreditCheckService(stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (store.User, error) {
			return store.User{ID: "user-1"}, nil
		},
		setCreditCheckPaidFn: func(context.Context, store.Execer, string, time.Time) (int64, error) {
			return 0, nil
		},
	}, stubWalletStore{
		getForUpdateByUserFn: func(context.Context, store.Tx, string, string) (store.Wallet, error) {
			return store.Wallet{ID: "w1", UserID: "user-1", Balance: 5000}, nil
		},
	}, stubTransactionStore{}, &stubHub{})

	_, err := service.PayCreditCheckFee(context.Background(), "user-1")
	if err != ErrCreditCheckAlreadyPaid {
		t.Fatalf("expected ErrCreditCheckAlreadyPaid, got %v", err)
	}
}

func TestPayCreditCheckFeeInsufficientFunds(t *testing.T) {
	service := newCreditCheckService(stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (store.User, error) {
			return store.User{ID: "user-1"}, nil
		},
	}, stubWalletStore{
		getForUpdateByUserFn: func(context.Context, store.Tx, string, string) (store.Wallet, error) {
			return store.Wallet{ID: "w1", UserID: "user-1", Balance: 2999}, nil
		},
	}, stubTransactionStore{}, &stubHub{})

	_, err := service.PayCreditCheckFee(context.Background(), "user-1")
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

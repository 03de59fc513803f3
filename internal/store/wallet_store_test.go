package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestWalletAvailable(t *testing.T) {
	w := Wallet{Balance: 50000, FrozenBalance: 20000}
	if w.Available() != 30000 {
		t.Fatalf("unexpected available: %d", w.Available())
	}
}

func TestWalletStoreGetForUpdateLocksRow(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{})
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected FOR UPDATE, got: %s", query)
			}
			if len(args) != 1 || args[0] != "w1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*Wallet) = Wallet{ID: "w1", Balance: 1000}
			return nil
		},
	}
	wallet, err := store.GetForUpdate(ctx, getter, "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.Balance != 1000 {
		t.Fatalf("unexpected wallet: %#v", wallet)
	}
}

func TestWalletStoreGetForUpdateByUserCreatesLazily(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{})
	created := false
	tx := stubTx{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO wallets") {
				t.Fatalf("unexpected query: %s", query)
			}
			created = true
			return stubResult{rows: 1}, nil
		},
	}
	wallet, err := store.GetForUpdateByUser(ctx, tx, "user-1", "new-wallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || wallet.ID != "new-wallet" || wallet.Balance != 0 {
		t.Fatalf("unexpected wallet: %#v", wallet)
	}
}

func TestWalletStoreGetForUpdateByUserPropagatesError(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{})
	boom := errors.New("boom")
	tx := stubTx{
		getFn: func(context.Context, any, string, ...any) error {
			return boom
		},
	}
	if _, err := store.GetForUpdateByUser(ctx, tx, "user-1", "id"); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestWalletStoreUpdateBalances(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{})
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE wallets") {
				t.Fatalf("unexpected query: %s", query)
			}
			want := []any{int64(5000), int64(1000), int64(7000), int64(2000), "w1"}
			if len(args) != len(want) {
				t.Fatalf("unexpected args: %#v", args)
			}
			for i := range want {
				if args[i] != want[i] {
					t.Fatalf("arg %d: expected %v, got %v", i, want[i], args[i])
				}
			}
			return stubResult{rows: 1}, nil
		},
	}
	if err := store.UpdateBalances(ctx, execer, "w1", 5000, 1000, 7000, 2000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

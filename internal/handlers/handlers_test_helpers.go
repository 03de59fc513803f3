package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cashly/internal/auth"
	"cashly/internal/config"
	"cashly/internal/middleware"
	"cashly/internal/money"
	"cashly/internal/services"
	"cashly/internal/store"
	"cashly/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn          func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn      func(ctx context.Context, email string) (store.User, error)
	getByIDFn         func(ctx context.Context, userID string) (store.User, error)
	updateKYCStatusFn func(ctx context.Context, tx store.Execer, userID, status string) error
	setCreditLimitFn  func(ctx context.Context, tx store.Execer, userID string, creditLimit int64, creditScore int) error
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (store.User, error) {
	if s.getByEmailFn == nil {
		return store.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) UpdateKYCStatus(ctx context.Context, tx store.Execer, userID, status string) error {
	if s.updateKYCStatusFn == nil {
		return nil
	}
	return s.updateKYCStatusFn(ctx, tx, userID, status)
}

func (s stubUserStore) SetCreditLimit(ctx context.Context, tx store.Execer, userID string, creditLimit int64, creditScore int) error {
	if s.setCreditLimitFn == nil {
		return nil
	}
	return s.setCreditLimitFn(ctx, tx, userID, creditLimit, creditScore)
}

type stubAdminStore struct {
	isAdminFn     func(ctx context.Context, userID string) (bool, error)
	createAdminFn func(ctx context.Context, tx store.Execer, userID string, createdBy *string) error
	hasAnyAdminFn func(ctx context.Context) (bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminFn == nil {
		return false, nil
	}
	return s.isAdminFn(ctx, userID)
}

func (s stubAdminStore) CreateAdmin(ctx context.Context, tx store.Execer, userID string, createdBy *string) error {
	if s.createAdminFn == nil {
		return nil
	}
	return s.createAdminFn(ctx, tx, userID, createdBy)
}

func (s stubAdminStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return false, nil
	}
	return s.hasAnyAdminFn(ctx)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubWalletService struct {
	depositFn            func(ctx context.Context, userID string, amount money.Money) (store.Transaction, error)
	requestWithdrawalFn  func(ctx context.Context, userID string, amount money.Money) (store.Transaction, error)
	approveWithdrawalFn  func(ctx context.Context, adminID, transactionID string) error
	rejectWithdrawalFn   func(ctx context.Context, adminID, transactionID string) error
	balanceFn            func(ctx context.Context, userID string) (store.Wallet, error)
	historyFn            func(ctx context.Context, userID, txType string, limit, offset int) ([]store.Transaction, error)
	withdrawalRequestsFn func(ctx context.Context, userID string) ([]store.Transaction, error)
	selfCheckFn          func(ctx context.Context, userID string) (services.SelfCheckResult, error)
}

func (s stubWalletService) Deposit(ctx context.Context, userID string, amount money.Money) (store.Transaction, error) {
	if s.depositFn == nil {
		return store.Transaction{}, nil
	}
	return s.depositFn(ctx, userID, amount)
}

func (s stubWalletService) RequestWithdrawal(ctx context.Context, userID string, amount money.Money) (store.Transaction, error) {
	if s.requestWithdrawalFn == nil {
		return store.Transaction{}, nil
	}
	return s.requestWithdrawalFn(ctx, userID, amount)
}

func (s stubWalletService) ApproveWithdrawal(ctx context.Context, adminID, transactionID string) error {
	if s.approveWithdrawalFn == nil {
		return nil
	}
	return s.approveWithdrawalFn(ctx, adminID, transactionID)
}

func (s stubWalletService) RejectWithdrawal(ctx context.Context, adminID, transactionID string) error {
	if s.rejectWithdrawalFn == nil {
		return nil
	}
	return s.rejectWithdrawalFn(ctx, adminID, transactionID)
}

func (s stubWalletService) Balance(ctx context.Context, userID string) (store.Wallet, error) {
	if s.balanceFn == nil {
		return store.Wallet{}, nil
	}
	return s.balanceFn(ctx, userID)
}

func (s stubWalletService) History(ctx context.Context, userID, txType string, limit, offset int) ([]store.Transaction, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, userID, txType, limit, offset)
}

func (s stubWalletService) WithdrawalRequests(ctx context.Context, userID string) ([]store.Transaction, error) {
	if s.withdrawalRequestsFn == nil {
		return nil, nil
	}
	return s.withdrawalRequestsFn(ctx, userID)
}

func (s stubWalletService) SelfCheck(ctx context.Context, userID string) (services.SelfCheckResult, error) {
	if s.selfCheckFn == nil {
		return services.SelfCheckResult{}, nil
	}
	return s.selfCheckFn(ctx, userID)
}

type stubLoanService struct {
	applyFn       func(ctx context.Context, req services.ApplyRequest) (store.Loan, error)
	repayFn       func(ctx context.Context, userID, loanID string, amount money.Money) (store.Loan, error)
	extendFn      func(ctx context.Context, userID, loanID string) (store.Loan, error)
	getFn         func(ctx context.Context, userID, loanID string) (store.Loan, error)
	myLoansFn     func(ctx context.Context, userID string) ([]store.Loan, error)
	activeLoansFn func(ctx context.Context, userID string) ([]store.Loan, error)
}

func (s stubLoanService) Apply(ctx context.Context, req services.ApplyRequest) (store.Loan, error) {
	if s.applyFn == nil {
		return store.Loan{}, nil
	}
	return s.applyFn(ctx, req)
}

func (s stubLoanService) Repay(ctx context.Context, userID, loanID string, amount money.Money) (store.Loan, error) {
	if s.repayFn == nil {
		return store.Loan{}, nil
	}
	return s.repayFn(ctx, userID, loanID, amount)
}

func (s stubLoanService) Extend(ctx context.Context, userID, loanID string) (store.Loan, error) {
	if s.extendFn == nil {
		return store.Loan{}, nil
	}
	return s.extendFn(ctx, userID, loanID)
}

func (s stubLoanService) Get(ctx context.Context, userID, loanID string) (store.Loan, error) {
	if s.getFn == nil {
		return store.Loan{}, nil
	}
	return s.getFn(ctx, userID, loanID)
}

func (s stubLoanService) MyLoans(ctx context.Context, userID string) ([]store.Loan, error) {
	if s.myLoansFn == nil {
		return nil, nil
	}
	return s.myLoansFn(ctx, userID)
}

func (s stubLoanService) ActiveLoans(ctx context.Context, userID string) ([]store.Loan, error) {
	if s.activeLoansFn == nil {
		return nil, nil
	}
	return s.activeLoansFn(ctx, userID)
}

type stubCreditCheckService struct {
	payFn func(ctx context.Context, userID string) (store.Transaction, error)
}

func (s stubCreditCheckService) PayCreditCheckFee(ctx context.Context, userID string) (store.Transaction, error) {
	if s.payFn == nil {
		return store.Transaction{}, nil
	}
	return s.payFn(ctx, userID)
}

func newTestHandler(users UserStore, admin AdminStore, audit AuditStore, wallet WalletService, loans LoanService, creditCheck CreditCheckService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(fakeTxRunner{}, cfg, users, admin, audit, wallet, loans, creditCheck, websocket.NewHub(), log)
}

func serveWithAuth(t *testing.T, handler http.HandlerFunc, method, target, body string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}

func serveNoAuth(t *testing.T, handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	handler.ServeHTTP(rr, httptest.NewRequest(method, target, reader))
	return rr
}

// serveRouted drives a request through the full router so URL params and
// route middleware apply.
func serveRouted(t *testing.T, h *Handler, method, target, body string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	h.Routes().ServeHTTP(rr, req)
	return rr
}

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cashly/internal/auth"
	"cashly/internal/store"
)

func TestRegisterRejectsBadEmail(t *testing.T) {
	handler := newTestHandler(stubUserStore{}, stubAdminStore{}, stubAuditStore{}, stubWalletService{}, stubLoanService{}, stubCreditCheckService{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"bayar","email":"not-an-email","password":"Secret123"}`))
	handler.Register(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	adminCreated := false
	handler := newTestHandler(stubUserStore{}, stubAdminStore{
		hasAnyAdminFn: func(context.Context) (bool, error) { return false, nil },
		createAdminFn: func(context.Context, store.Execer, string, *string) error {
			adminCreated = true
			return nil
		},
	}, stubAuditStore{}, stubWalletService{}, stubLoanService{}, stubCreditCheckService{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"bayar","email":"bayar@example.mn","password":"Secret123"}`))
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !adminCreated {
		t.Fatalf("first registered user should bootstrap as admin")
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["token"] == "" {
		t.Fatalf("expected token in response, got %s", rr.Body.String())
	}
}

func TestRegisterSecondUserNotAdmin(t *testing.T) {
	handler := newTestHandler(stubUserStore{}, stubAdminStore{
		hasAnyAdminFn: func(context.Context) (bool, error) { return true, nil },
		createAdminFn: func(context.Context, store.Execer, string, *string) error {
			t.Fatalf("second user must not become admin")
			return nil
		},
	}, stubAuditStore{}, stubWalletService{}, stubLoanService{}, stubCreditCheckService{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"saraa","email":"saraa@example.mn","password":"Secret123"}`))
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(context.Context, string) (store.User, error) {
			return store.User{}, sql.ErrNoRows
		},
	}, stubAdminStore{}, stubAuditStore{}, stubWalletService{}, stubLoanService{}, stubCreditCheckService{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ghost@example.mn","password":"Secret123"}`))
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("Correct123")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(context.Context, string) (store.User, error) {
			return store.User{ID: "user-1", PasswordHash: hash}, nil
		},
	}, stubAdminStore{}, stubAuditStore{}, stubWalletService{}, stubLoanService{}, stubCreditCheckService{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"bayar@example.mn","password":"Wrong123"}`))
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("Correct123")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(context.Context, string) (store.User, error) {
			return store.User{ID: "user-1", PasswordHash: hash}, nil
		},
	}, stubAdminStore{}, stubAuditStore{}, stubWalletService{}, stubLoanService{}, stubCreditCheckService{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"bayar@example.mn","password":"Correct123"}`))
	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["token"] == "" {
		t.Fatalf("expected token, got %s", rr.Body.String())
	}
}

func TestMe(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		getByIDFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, Username: "bayar", KYCStatus: store.KYCApproved, CreditLimit: 100000}, nil
		},
	}, stubAdminStore{}, stubAuditStore{}, stubWalletService{}, stubLoanService{}, stubCreditCheckService{})

	rr := serveWithAuth(t, handler.Me, http.MethodGet, "/auth/me", "", "user-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["id"] != "user-1" || body["kyc_status"] != store.KYCApproved {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

package handlers

import (
	"net/http"

	"cashly/internal/config"
	"cashly/internal/db"
	"cashly/internal/middleware"
	"cashly/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	txRunner    db.TxRunner
	cfg         config.Config
	users       UserStore
	admin       AdminStore
	audit       AuditStore
	wallet      WalletService
	loans       LoanService
	creditCheck CreditCheckService
	hub         *websocket.Hub
	log         *logrus.Logger
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, admin AdminStore, audit AuditStore, wallet WalletService, loans LoanService, creditCheck CreditCheckService, hub *websocket.Hub, log *logrus.Logger) *Handler {
	return &Handler{
		txRunner:    txRunner,
		cfg:         cfg,
		users:       users,
		admin:       admin,
		audit:       audit,
		wallet:      wallet,
		loans:       loans,
		creditCheck: creditCheck,
		hub:         hub,
		log:         log,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Route("/wallet", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/balance", h.WalletBalance)
		r.Post("/deposit", h.Deposit)
		r.Post("/request-withdrawal", h.RequestWithdrawal)
		r.Get("/withdrawal-requests", h.WithdrawalRequests)
		r.Get("/self-check", h.WalletSelfCheck)
	})
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/transaction/history", h.TransactionHistory)

	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/kyc/submit", h.SubmitKYC)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/user/credit-check", h.PayCreditCheck)

	router.Route("/loan", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/apply", h.ApplyLoan)
		r.Get("/my-loans", h.MyLoans)
		r.Get("/active-loans", h.ActiveLoans)
		r.Get("/{id}", h.GetLoan)
		r.Post("/repay/{id}", h.RepayLoan)
		r.Post("/extend/{id}", h.ExtendLoan)
	})

	router.Get("/ws/balances", h.WSBalances)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin(h.admin))
		r.Post("/withdrawals/{id}/approve", h.ApproveWithdrawal)
		r.Post("/withdrawals/{id}/reject", h.RejectWithdrawal)
		r.Post("/kyc/{userID}/approve", h.ApproveKYC)
		r.Post("/kyc/{userID}/reject", h.RejectKYC)
		r.Post("/credit-limit", h.SetCreditLimit)
		r.Get("/audit", h.ListAuditLogs)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

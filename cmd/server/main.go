package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cashly/internal/config"
	"cashly/internal/db"
	"cashly/internal/handlers"
	"cashly/internal/services"
	"cashly/internal/store"
	"cashly/internal/websocket"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const overdueSweepBatch = 500

func main() {
	cfg := config.Load()
	log := newLogger(cfg)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	transactions := store.NewTransactionStore(database)
	loans := store.NewLoanStore(database)
	admin := store.NewAdminStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	ledger := services.NewLedger(wallets, transactions, cfg.Loan.MaxWalletBalance)
	walletService := services.NewWalletService(txRunner, ledger, wallets, transactions, audit, hub, cfg.Loan, log)
	lateFee := services.PercentOfRemaining{Rate: cfg.Loan.LateFeeRate}
	loanService := services.NewLoanService(txRunner, ledger, loans, users, audit, hub, lateFee, cfg.Loan, log)
	creditCheckService := services.NewCreditCheckService(txRunner, ledger, users, audit, hub, cfg.Loan, log)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		marked, err := loanService.SweepOverdue(ctx, overdueSweepBatch)
		if err != nil {
			log.WithError(err).Error("overdue sweep failed")
			return
		}
		if marked > 0 {
			log.WithField("marked", marked).Info("overdue sweep completed")
		}
	}); err != nil {
		log.WithError(err).Fatal("invalid sweep schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := handlers.New(txRunner, cfg, users, admin, audit, walletService, loanService, creditCheckService, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("cashly API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jvilaplana/cartera/internal/auth"
	"github.com/jvilaplana/cartera/internal/config"
	"github.com/jvilaplana/cartera/internal/database"
	carteraHttp "github.com/jvilaplana/cartera/internal/http"
	importHandler "github.com/jvilaplana/cartera/internal/http/importcsv"
	sessionHandler "github.com/jvilaplana/cartera/internal/http/session"
	summaryHandler "github.com/jvilaplana/cartera/internal/http/summary"
	txHandler "github.com/jvilaplana/cartera/internal/http/transaction"
	walletHandler "github.com/jvilaplana/cartera/internal/http/wallet"
	"github.com/jvilaplana/cartera/internal/importer"
	"github.com/jvilaplana/cartera/internal/notify"
	"github.com/jvilaplana/cartera/internal/remote"
	"github.com/jvilaplana/cartera/internal/remote/memory"
	"github.com/jvilaplana/cartera/internal/remote/postgres"
	"github.com/jvilaplana/cartera/internal/transaction"
	"github.com/jvilaplana/cartera/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var store remote.Store

	switch cfg.Store.Backend {
	case "postgres":
		db, err := database.Open(context.Background(), cfg.ConnectionString())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store = postgres.New(db)
	case "memory":
		store = memory.New()
	default:
		slog.Error("unknown store backend", "backend", cfg.Store.Backend)
		os.Exit(1)
	}

	var (
		gate     = auth.NewGate()
		verifier = auth.NewVerifier(cfg.Auth.Secret)
		notifier = &notify.Log{}
	)

	var (
		walletService      = wallet.NewService(store, gate, notifier)
		transactionService = transaction.NewService(store, gate, notifier, names{walletService})
	)

	var (
		sessionH     = sessionHandler.NewHandler(gate, verifier, walletService, transactionService)
		walletH      = walletHandler.NewHandler(walletService, transactionService)
		transactionH = txHandler.NewHandler(transactionService)
		importH      = importHandler.NewHandler(importer.NewParser(), transactionService)
		summaryH     = summaryHandler.NewHandler(transactionService, gate)
	)

	router := carteraHttp.New(gate, verifier, sessionH, walletH, transactionH, importH, summaryH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port, "backend", cfg.Store.Backend)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// names resolves wallet display names from the wallet cache. Categories
// keep their stored denormalized name.
type names struct {
	wallets *wallet.Service
}

func (n names) WalletName(id string) (string, bool) { return n.wallets.Name(id) }

func (n names) CategoryName(id string) (string, bool) { return "", false }

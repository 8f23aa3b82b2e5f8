package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/app"
	"github.com/sentra-pos/sentra-pos/internal/audit"
	"github.com/sentra-pos/sentra-pos/internal/integration"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/ledger"
	"github.com/sentra-pos/sentra-pos/internal/observability"
	"github.com/sentra-pos/sentra-pos/internal/payments"
	"github.com/sentra-pos/sentra-pos/internal/platform/cache"
	"github.com/sentra-pos/sentra-pos/internal/platform/db"
	"github.com/sentra-pos/sentra-pos/internal/purchases"
	"github.com/sentra-pos/sentra-pos/internal/reports"
	"github.com/sentra-pos/sentra-pos/internal/sales"
	"github.com/sentra-pos/sentra-pos/internal/shared"
	"github.com/sentra-pos/sentra-pos/internal/transactions"
	"github.com/sentra-pos/sentra-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	journalRepo := journal.NewRepository(pool)
	journalService := journal.NewService(journalRepo, auditLogger, reportCache, metrics)
	journalHandler := journal.NewHandler(logger, journalService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, accountsService, reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	transactionsRepo := transactions.NewRepository(pool)
	transactionsService := transactions.NewService(transactionsRepo, journalService, accountsService, auditLogger)
	transactionsHandler := transactions.NewHandler(logger, transactionsService)

	hooks := integration.NewHooks(journalService, transactionsRepo, accountsService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, hooks, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService)

	purchasesRepo := purchases.NewRepository(pool)
	purchasesService := purchases.NewService(purchasesRepo, hooks, auditLogger)
	purchasesHandler := purchases.NewHandler(logger, purchasesService)

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, journalService, accountsService, idempotencyStore, auditLogger)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Metrics:             metrics,
		AccountsHandler:     accountsHandler,
		JournalHandler:      journalHandler,
		LedgerHandler:       ledgerHandler,
		ReportsHandler:      reportsHandler,
		TransactionsHandler: transactionsHandler,
		SalesHandler:        salesHandler,
		PurchasesHandler:    purchasesHandler,
		PaymentsHandler:     paymentsHandler,
		AuditHandler:        auditHandler,
		JobHandler:          jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

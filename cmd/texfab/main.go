package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/texfab-erp/texfab-erp/internal/app"
	"github.com/texfab-erp/texfab-erp/internal/auth"
	"github.com/texfab-erp/texfab-erp/internal/billing"
	"github.com/texfab-erp/texfab-erp/internal/gate"
	"github.com/texfab-erp/texfab-erp/internal/inventory"
	"github.com/texfab-erp/texfab-erp/internal/masterdata/categories"
	"github.com/texfab-erp/texfab-erp/internal/masterdata/companies"
	"github.com/texfab-erp/texfab-erp/internal/observability"
	"github.com/texfab-erp/texfab-erp/internal/partners/customers"
	"github.com/texfab-erp/texfab-erp/internal/partners/suppliers"
	"github.com/texfab-erp/texfab-erp/internal/platform/db"
	"github.com/texfab-erp/texfab-erp/internal/procurement"
	"github.com/texfab-erp/texfab-erp/internal/production"
	"github.com/texfab-erp/texfab-erp/internal/production/process"
	"github.com/texfab-erp/texfab-erp/internal/reports"
	"github.com/texfab-erp/texfab-erp/internal/reports/export"
	"github.com/texfab-erp/texfab-erp/internal/sales/orders"
	"github.com/texfab-erp/texfab-erp/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Service: authService}

	companiesHandler := companies.NewHandler(logger, companies.NewService(companies.NewRepository(pool)))
	categoriesHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(pool)))
	customersHandler := customers.NewHandler(customers.NewService(customers.NewRepository(pool)), validate)
	suppliersHandler := suppliers.NewHandler(suppliers.NewService(suppliers.NewRepository(pool)), validate)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	procurementService := procurement.NewService(procurement.NewRepository(pool),
		inventoryService, auditLogger, idempotencyStore, logger)
	procurementHandler := procurement.NewHandler(procurementService, validate)

	salesService := orders.NewService(orders.NewRepository(pool), inventoryService, auditLogger, logger)
	salesHandler := orders.NewHandler(salesService, validate)

	productionService := production.NewService(production.NewRepository(pool), auditLogger, logger)
	productionHandler := production.NewHandler(productionService, validate)

	processCache := process.NewRedisCache(redisClient)
	processService := process.NewService(process.NewRepository(pool), processCache, auditLogger, logger)
	processHandler := process.NewHandler(processService, validate)

	billingService := billing.NewService(billing.NewRepository(pool), salesService, auditLogger, logger)
	billingHandler := billing.NewHandler(billingService, validate)

	gateService := gate.NewService(gate.NewRepository(pool), auditLogger, logger)
	gateHandler := gate.NewHandler(gateService, validate)

	reportsService := reports.NewService(reports.NewRepository(pool))
	pdfRenderer := export.NewPDFRenderer(cfg.GotenbergURL)
	reportsHandler := reports.NewHandler(reportsService, pdfRenderer)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Pool:               pool,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		CompaniesHandler:   companiesHandler,
		CategoriesHandler:  categoriesHandler,
		CustomersHandler:   customersHandler,
		SuppliersHandler:   suppliersHandler,
		InventoryHandler:   inventoryHandler,
		ProcurementHandler: procurementHandler,
		SalesHandler:       salesHandler,
		ProductionHandler:  productionHandler,
		ProcessHandler:     processHandler,
		BillingHandler:     billingHandler,
		GateHandler:        gateHandler,
		ReportsHandler:     reportsHandler,
		Metrics:            metrics,
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

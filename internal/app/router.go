package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/texfab-erp/texfab-erp/internal/auth"
	"github.com/texfab-erp/texfab-erp/internal/billing"
	"github.com/texfab-erp/texfab-erp/internal/gate"
	"github.com/texfab-erp/texfab-erp/internal/inventory"
	"github.com/texfab-erp/texfab-erp/internal/masterdata/categories"
	"github.com/texfab-erp/texfab-erp/internal/masterdata/companies"
	"github.com/texfab-erp/texfab-erp/internal/observability"
	"github.com/texfab-erp/texfab-erp/internal/partners/customers"
	"github.com/texfab-erp/texfab-erp/internal/partners/suppliers"
	"github.com/texfab-erp/texfab-erp/internal/procurement"
	"github.com/texfab-erp/texfab-erp/internal/production"
	"github.com/texfab-erp/texfab-erp/internal/production/process"
	"github.com/texfab-erp/texfab-erp/internal/reports"
	"github.com/texfab-erp/texfab-erp/internal/sales/orders"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool

	AuthMiddleware auth.Middleware

	AuthHandler        *auth.Handler
	CompaniesHandler   *companies.Handler
	CategoriesHandler  *categories.Handler
	CustomersHandler   *customers.Handler
	SuppliersHandler   *suppliers.Handler
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	SalesHandler       *orders.Handler
	ProductionHandler  *production.Handler
	ProcessHandler     *process.Handler
	BillingHandler     *billing.Handler
	GateHandler        *gate.Handler
	ReportsHandler     *reports.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with every module mounted under
// /api/v1. Everything except login, healthz and metrics requires a
// bearer token.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthz(params.Pool))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)

			params.CompaniesHandler.MountRoutes(r)
			params.CategoriesHandler.MountRoutes(r)
			params.CustomersHandler.MountRoutes(r)
			params.SuppliersHandler.MountRoutes(r)
			params.InventoryHandler.MountRoutes(r)
			params.ProcurementHandler.MountRoutes(r)
			params.SalesHandler.MountRoutes(r)
			params.ProductionHandler.MountRoutes(r)
			params.ProcessHandler.MountRoutes(r)
			params.BillingHandler.MountRoutes(r)
			params.GateHandler.MountRoutes(r)
			params.ReportsHandler.MountRoutes(r)
		})
	})

	return r
}

func healthz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

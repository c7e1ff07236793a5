package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/texfab-erp/texfab-erp/internal/platform/httpx"
	"github.com/texfab-erp/texfab-erp/internal/shared"
)

// Handler exposes the stock endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock", h.listBalances)
	r.Get("/stock/{itemCode}", h.getBalance)
	r.Get("/stock-movements", h.listMovements)
	r.Post("/stock-adjustments", h.postAdjustment)
	r.Post("/stock-transfers", h.postTransfer)
}

func (h *Handler) listBalances(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	page, perPage := shared.PageParams(r)

	balances, total, err := h.service.ListBalances(r.Context(), identity.CompanyID,
		r.URL.Query().Get("search"), perPage, shared.Offset(page, perPage))
	if err != nil {
		h.logger.Error("list balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "stock balances", map[string]any{
		"items":      balances,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	balance, err := h.service.GetBalance(r.Context(), identity.CompanyID, chi.URLParam(r, "itemCode"))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "stock balance", balance)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	page, perPage := shared.PageParams(r)

	filter := MovementFilter{
		CompanyID: identity.CompanyID,
		ItemCode:  r.URL.Query().Get("item_code"),
		Type:      MovementType(r.URL.Query().Get("type")),
		RefModule: r.URL.Query().Get("ref_module"),
		Limit:     perPage,
		Offset:    shared.Offset(page, perPage),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = parsed
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = parsed.AddDate(0, 0, 1)
		}
	}

	movements, total, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "stock movements", map[string]any{
		"items":      movements,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

type adjustmentRequest struct {
	ItemCode string  `json:"item_code" validate:"required,max=50"`
	Qty      float64 `json:"qty" validate:"required"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
	Note     string  `json:"note" validate:"max=500"`
}

func (h *Handler) postAdjustment(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	movement, err := h.service.PostAdjustment(r.Context(), AdjustmentInput{
		CompanyID: identity.CompanyID,
		ItemCode:  req.ItemCode,
		Qty:       req.Qty,
		UnitCost:  req.UnitCost,
		RefModule: "inventory",
		RefID:     uuid.NewString(),
		Note:      req.Note,
		ActorID:   identity.UserID,
	})
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusCreated, "adjustment posted", movement)
}

type transferRequest struct {
	ItemCode     string  `json:"item_code" validate:"required,max=50"`
	Qty          float64 `json:"qty" validate:"required,gt=0"`
	FromLocation string  `json:"from_location" validate:"required,max=100"`
	ToLocation   string  `json:"to_location" validate:"required,max=100"`
	Note         string  `json:"note" validate:"max=500"`
}

func (h *Handler) postTransfer(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	movement, err := h.service.PostTransfer(r.Context(), TransferInput{
		CompanyID:    identity.CompanyID,
		ItemCode:     req.ItemCode,
		Qty:          req.Qty,
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		RefID:        uuid.NewString(),
		Note:         req.Note,
		ActorID:      identity.UserID,
	})
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusCreated, "transfer posted", movement)
}

// mapError translates inventory sentinels to the httpx error kinds.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, ErrNegativeStock),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrItemRequired):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		return err
	}
}

package production

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/texfab-erp/texfab-erp/internal/auth"
	"github.com/texfab-erp/texfab-erp/internal/platform/httpx"
	"github.com/texfab-erp/texfab-erp/internal/shared"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

// Handler serves production order endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service, validate *validator.Validate) *Handler {
	return &Handler{service: service, validate: validate}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/production-orders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Post("/{id}/cancel", h.cancel)
		r.Post("/{id}/stages/{seq}/start", h.stageAction(h.service.StartStage))
		r.Post("/{id}/stages/{seq}/complete", h.stageAction(h.service.CompleteStage))
		r.Post("/{id}/stages/{seq}/hold", h.stageAction(h.service.HoldStage))
		r.Post("/{id}/stages/{seq}/resume", h.stageAction(h.service.ResumeStage))
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	order, err := h.service.Create(r.Context(), ident.CompanyID, req, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusCreated, "production order created", order)
}

type stageActionFunc func(ctx context.Context, companyID, orderID int64, seq int, req StageActionRequest, actorID int64) (*ProductionOrder, error)

func (h *Handler) stageAction(action stageActionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.CurrentIdentity(r)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid production order id", httpx.ErrValidation))
			return
		}
		seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
		if err != nil || seq < 1 {
			httpx.RespondError(w, fmt.Errorf("%w: invalid stage seq", httpx.ErrValidation))
			return
		}
		var req StageActionRequest
		if r.ContentLength > 0 {
			if err := httpx.DecodeJSON(r, &req); err != nil {
				httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
				return
			}
			if err := h.validate.Struct(req); err != nil {
				httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
				return
			}
		}
		order, err := action(r.Context(), ident.CompanyID, id, seq, req, ident.UserID)
		if err != nil {
			httpx.RespondError(w, mapError(err))
			return
		}
		httpx.OK(w, http.StatusOK, "production stage updated", order)
	}
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid production order id", httpx.ErrValidation))
		return
	}
	order, err := h.service.Cancel(r.Context(), ident.CompanyID, id, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "production order cancelled", order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid production order id", httpx.ErrValidation))
		return
	}
	order, err := h.service.Get(r.Context(), ident.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "production order", order)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	page, perPage := shared.PageParams(r)
	req := ListOrdersRequest{
		CompanyID: ident.CompanyID,
		Search:    r.URL.Query().Get("search"),
		Limit:     perPage,
		Offset:    shared.Offset(page, perPage),
	}
	if v := r.URL.Query().Get("sales_order_id"); v != "" {
		salesOrderID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid sales_order_id", httpx.ErrValidation))
			return
		}
		req.SalesOrderID = &salesOrderID
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := OrderStatus(v)
		req.Status = &status
	}
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "production orders", map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrStageNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, ErrPredecessorIncomplete),
		errors.Is(err, ErrOrderClosed),
		errors.Is(err, ErrHoldReasonRequired):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		return err
	}
}

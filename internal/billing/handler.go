package billing

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/texfab-erp/texfab-erp/internal/auth"
	"github.com/texfab-erp/texfab-erp/internal/platform/httpx"
	"github.com/texfab-erp/texfab-erp/internal/sales/orders"
	"github.com/texfab-erp/texfab-erp/internal/shared"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

// Handler serves invoice endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service, validate *validator.Validate) *Handler {
	return &Handler{service: service, validate: validate}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Post("/{id}/transition", h.transition)
		r.Post("/{id}/payments", h.recordPayment)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	inv, err := h.service.CreateFromSalesOrder(r.Context(), ident.CompanyID, req, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusCreated, "invoice created", inv)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	inv, err := h.service.Transition(r.Context(), ident.CompanyID, id, req.Status, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "invoice status updated", inv)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req PaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	inv, err := h.service.RecordPayment(r.Context(), ident.CompanyID, id, req, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusCreated, "payment recorded", inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := invoiceID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), ident.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "invoice", inv)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	page, perPage := shared.PageParams(r)
	req := ListInvoicesRequest{
		CompanyID: ident.CompanyID,
		Search:    r.URL.Query().Get("search"),
		Limit:     perPage,
		Offset:    shared.Offset(page, perPage),
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		customerID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid customer_id", httpx.ErrValidation))
			return
		}
		req.CustomerID = &customerID
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "invoices", map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func invoiceID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid invoice id", httpx.ErrValidation)
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, orders.ErrNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, ErrNotPayable),
		errors.Is(err, ErrOverpayment),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrOrderNotInvoiceable):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		return err
	}
}

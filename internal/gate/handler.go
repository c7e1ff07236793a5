package gate

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

// Handler serves vehicle and gate pass endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service, validate *validator.Validate) *Handler {
	return &Handler{service: service, validate: validate}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Get("/", h.listVehicles)
		r.Post("/", h.registerVehicle)
		r.Get("/{id}", h.getVehicle)
	})
	r.Route("/gate-passes", func(r chi.Router) {
		r.Get("/", h.listPasses)
		r.Post("/", h.createPass)
		r.Get("/{id}", h.getPass)
		r.Post("/{id}/check-in", h.checkIn)
		r.Post("/{id}/check-out", h.checkOut)
		r.Post("/{id}/cancel", h.cancel)
	})
}

func (h *Handler) registerVehicle(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req RegisterVehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	vehicle, err := h.service.RegisterVehicle(r.Context(), ident.CompanyID, req, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusCreated, "vehicle registered", vehicle)
}

func (h *Handler) getVehicle(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	vehicle, err := h.service.GetVehicle(r.Context(), ident.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "vehicle", vehicle)
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	page, perPage := shared.PageParams(r)
	items, total, err := h.service.ListVehicles(r.Context(), ident.CompanyID,
		r.URL.Query().Get("search"), perPage, shared.Offset(page, perPage))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "vehicles", map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) createPass(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreatePassRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	pass, err := h.service.CreatePass(r.Context(), ident.CompanyID, req, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusCreated, "gate pass issued", pass)
}

func (h *Handler) getPass(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pass, err := h.service.GetPass(r.Context(), ident.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "gate pass", pass)
}

func (h *Handler) listPasses(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	page, perPage := shared.PageParams(r)
	req := ListPassesRequest{
		CompanyID: ident.CompanyID,
		Search:    r.URL.Query().Get("search"),
		Limit:     perPage,
		Offset:    shared.Offset(page, perPage),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := PassStatus(v)
		req.Status = &status
	}
	if v := r.URL.Query().Get("direction"); v != "" {
		direction := Direction(v)
		req.Direction = &direction
	}
	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		vehicleID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid vehicle_id", httpx.ErrValidation))
			return
		}
		req.VehicleID = &vehicleID
	}
	items, total, err := h.service.ListPasses(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, "gate passes", map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	h.passAction(w, r, h.service.CheckIn, "gate pass checked in")
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	h.passAction(w, r, h.service.CheckOut, "gate pass checked out")
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.passAction(w, r, h.service.Cancel, "gate pass cancelled")
}

type passActionFunc func(ctx context.Context, companyID, id, actorID int64) (*GatePass, error)

func (h *Handler) passAction(w http.ResponseWriter, r *http.Request, action passActionFunc, message string) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pass, err := action(r.Context(), ident.CompanyID, id, ident.UserID)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.OK(w, http.StatusOK, message, pass)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id", httpx.ErrValidation)
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrVehicleNotFound), errors.Is(err, ErrPassNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, ErrDuplicatePlate):
		return fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
	case errors.Is(err, ErrNoItems), errors.Is(err, workflow.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		return err
	}
}

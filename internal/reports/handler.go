package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/texfab-erp/texfab-erp/internal/auth"
	"github.com/texfab-erp/texfab-erp/internal/platform/httpx"
	"github.com/texfab-erp/texfab-erp/internal/reports/export"
)

// PDFPort renders a dataset to PDF. Satisfied by export.PDFRenderer; nil
// when no Gotenberg endpoint is configured.
type PDFPort interface {
	Render(ctx context.Context, ds export.Dataset) ([]byte, error)
}

// Handler serves report datasets and their exports.
type Handler struct {
	service *Service
	pdf     PDFPort
}

func NewHandler(service *Service, pdf PDFPort) *Handler {
	return &Handler{service: service, pdf: pdf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/{report}", h.run)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	kind := Kind(chi.URLParam(r, "report"))
	format := Format(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatJSON
	}

	filter, err := parseFilter(r, ident.CompanyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ds, err := h.service.Build(r.Context(), kind, filter)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}

	filename := fmt.Sprintf("%s-%s", kind, filter.From.Format("20060102"))
	switch format {
	case FormatJSON:
		httpx.OK(w, http.StatusOK, string(kind), ds)
	case FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		if err := export.WriteCSV(w, ds); err != nil {
			// Headers are already out; nothing sensible left to send.
			return
		}
	case FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
		if err := export.WriteXLSX(w, ds); err != nil {
			return
		}
	case FormatPDF:
		if h.pdf == nil {
			httpx.RespondError(w, fmt.Errorf("%w: pdf rendering not configured", httpx.ErrValidation))
			return
		}
		doc, err := h.pdf.Render(r.Context(), ds)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, filename))
		_, _ = w.Write(doc)
	default:
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, ErrUnknownFormat))
	}
}

// parseFilter reads the from/to query window; defaults to the last 30 days.
func parseFilter(r *http.Request, companyID int64) (Filter, error) {
	now := time.Now().UTC()
	f := Filter{
		CompanyID: companyID,
		From:      now.AddDate(0, 0, -30),
		To:        now,
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: invalid from date", httpx.ErrValidation)
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: invalid to date", httpx.ErrValidation)
		}
		// Inclusive end date: the queries use a half-open window.
		f.To = t.AddDate(0, 0, 1)
	}
	if !f.To.After(f.From) {
		return Filter{}, fmt.Errorf("%w: empty date window", httpx.ErrValidation)
	}
	return f, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownReport):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, ErrUnknownFormat):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		return err
	}
}

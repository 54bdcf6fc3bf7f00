package billing

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careportal/portal/internal/platform/auth"
	"github.com/careportal/portal/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/billing", auth.RequireRole("patient", "billing"))
	g.GET("/invoices", h.ListInvoices)
	g.GET("/summary", h.GetSummary)
	g.POST("/refresh", h.Refresh)
}

// patientID resolves the patient the request is about. Patients always
// act on their own account; billing staff and admins may target any
// patient with the patient_id query parameter.
func (h *Handler) patientID(c echo.Context) (string, error) {
	ctx := c.Request().Context()
	if pid := c.QueryParam("patient_id"); pid != "" {
		for _, role := range auth.RolesFromContext(ctx) {
			if role == "billing" || role == "admin" {
				return pid, nil
			}
		}
		return "", echo.NewHTTPError(http.StatusForbidden, "patient_id override requires the billing role")
	}
	pid := auth.PatientIDFromContext(ctx)
	if pid == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	return pid, nil
}

func (h *Handler) ListInvoices(c echo.Context) error {
	pid, err := h.patientID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)

	stmt, err := h.svc.Statement(c.Request().Context(), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	total := len(stmt.Invoices)
	start := pg.Offset
	if start > total {
		start = total
	}
	end := start + pg.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(stmt.Invoices[start:end], total, pg.Limit, pg.Offset))
}

func (h *Handler) GetSummary(c echo.Context) error {
	pid, err := h.patientID(c)
	if err != nil {
		return err
	}
	stmt, err := h.svc.Statement(c.Request().Context(), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, SummaryResponse{
		PatientID: stmt.PatientID,
		Summary:   stmt.Summary,
		FetchedAt: stmt.FetchedAt,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	pid, err := h.patientID(c)
	if err != nil {
		return err
	}
	snap, err := h.svc.RefreshSnapshot(c.Request().Context(), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, RefreshResponse{
		PatientID: snap.PatientID,
		Invoices:  len(snap.Invoices),
		Payments:  len(snap.Payments),
		FetchedAt: snap.FetchedAt,
	})
}

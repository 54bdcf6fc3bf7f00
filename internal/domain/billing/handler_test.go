package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/careportal/portal/internal/platform/auth"
	"github.com/careportal/portal/internal/recon"
)

func newHandlerContext(t *testing.T, method, target, patientID string, roles []string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), auth.PatientIDKey, patientID)
	ctx = context.WithValue(ctx, auth.RolesKey, roles)
	rec := httptest.NewRecorder()
	return e.NewContext(req.WithContext(ctx), rec), rec
}

func seededHandler() (*Handler, *mockSnapshotRepo) {
	repo := newMockSnapshotRepo()
	repo.items["pat-1"] = &Snapshot{
		PatientID: "pat-1",
		Invoices: []recon.RawRecord{
			{"_id": "inv-1", "total": 100.0, "createdAt": "2026-01-01T00:00:00Z"},
			{"_id": "inv-2", "total": 60.0, "createdAt": "2026-02-01T00:00:00Z"},
		},
		Payments: []recon.RawRecord{
			{"_id": "pay-1", "invoiceId": "inv-1", "amount": 100.0, "status": "paid"},
		},
	}
	svc := newTestService(repo, &mockUpstream{})
	return NewHandler(svc), repo
}

func TestListInvoices_OwnAccount(t *testing.T) {
	h, _ := seededHandler()
	c, rec := newHandlerContext(t, http.MethodGet, "/api/billing/invoices", "pat-1", []string{"patient"})

	if err := h.ListInvoices(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data  []recon.Invoice `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Errorf("got total %d with %d items, want 2", resp.Total, len(resp.Data))
	}
}

func TestListInvoices_Paginates(t *testing.T) {
	h, _ := seededHandler()
	c, rec := newHandlerContext(t, http.MethodGet, "/api/billing/invoices?limit=1&offset=1", "pat-1", []string{"patient"})

	if err := h.ListInvoices(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []recon.Invoice `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 {
		t.Errorf("got total %d with %d items, want total 2 with 1 item", resp.Total, len(resp.Data))
	}
}

func TestListInvoices_PatientCannotOverrideTarget(t *testing.T) {
	h, _ := seededHandler()
	c, _ := newHandlerContext(t, http.MethodGet, "/api/billing/invoices?patient_id=pat-2", "pat-1", []string{"patient"})

	err := h.ListInvoices(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestListInvoices_BillingRoleOverridesTarget(t *testing.T) {
	h, repo := seededHandler()
	repo.items["pat-2"] = &Snapshot{
		PatientID: "pat-2",
		Invoices:  []recon.RawRecord{{"_id": "inv-9", "total": 30.0}},
	}
	c, rec := newHandlerContext(t, http.MethodGet, "/api/billing/invoices?patient_id=pat-2", "staff-1", []string{"billing"})

	if err := h.ListInvoices(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want pat-2's single invoice", resp.Total)
	}
}

func TestGetSummary(t *testing.T) {
	h, _ := seededHandler()
	c, rec := newHandlerContext(t, http.MethodGet, "/api/billing/summary", "pat-1", []string{"patient"})

	if err := h.GetSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp SummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PatientID != "pat-1" {
		t.Errorf("patient_id = %s", resp.PatientID)
	}
	// inv-1 is fully paid, inv-2 still open.
	if resp.Summary.TotalOutstanding != 60 {
		t.Errorf("outstanding = %v, want 60", resp.Summary.TotalOutstanding)
	}
	if resp.Summary.TotalPaid != 100 {
		t.Errorf("paid = %v, want 100", resp.Summary.TotalPaid)
	}
}

func TestRefresh(t *testing.T) {
	repo := newMockSnapshotRepo()
	up := &mockUpstream{
		invoices: []recon.RawRecord{{"_id": "inv-1", "total": 10.0}},
		payments: []recon.RawRecord{},
	}
	h := NewHandler(newTestService(repo, up))
	c, rec := newHandlerContext(t, http.MethodPost, "/api/billing/refresh", "pat-1", []string{"patient"})

	if err := h.Refresh(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp RefreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Invoices != 1 || resp.Payments != 0 {
		t.Errorf("counts = %+v", resp)
	}
	if _, err := repo.GetByPatient(context.Background(), "pat-1"); err != nil {
		t.Errorf("snapshot not stored: %v", err)
	}
}

func TestRefresh_MissingPatient(t *testing.T) {
	h, _ := seededHandler()
	c, _ := newHandlerContext(t, http.MethodPost, "/api/billing/refresh", "", []string{"patient"})

	err := h.Refresh(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

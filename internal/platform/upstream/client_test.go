package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Invoices_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/billing/invoices" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("patientId"); got != "pat-1" {
			t.Errorf("patientId = %q", got)
		}
		w.Write([]byte(`[{"_id":"inv-1","total":100},{"_id":"inv-2","total":"50.00"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	records, err := c.Invoices(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["_id"] != "inv-1" {
		t.Errorf("first record = %v", records[0])
	}
}

func TestClient_Payments_Envelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":1,"data":[{"_id":"pay-1","amount":25,"status":"paid"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	records, err := c.Payments(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0]["_id"] != "pay-1" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.Invoices(context.Background(), "pat-1"); err == nil {
		t.Fatal("expected error for non-200 upstream response")
	}
}

func TestDecodeCollection_DropsNonObjectEntries(t *testing.T) {
	records, err := decodeCollection(strings.NewReader(`[{"_id":"a"},"junk",42,null,{"_id":"b"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestDecodeCollection_RejectsUnknownShapes(t *testing.T) {
	if _, err := decodeCollection(strings.NewReader(`"just a string"`)); err == nil {
		t.Error("expected error for scalar payload")
	}
	if _, err := decodeCollection(strings.NewReader(`{"unrelated":true}`)); err == nil {
		t.Error("expected error for envelope without record array")
	}
}

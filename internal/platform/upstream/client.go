// Package upstream talks to the hospital information system that owns
// the billing records. The payloads it returns are loosely shaped and
// vary between upstream revisions, so everything is surfaced as raw
// records for the reconciliation engine to normalize.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/careportal/portal/internal/recon"
)

// Client fetches raw invoice and payment collections for a patient.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an upstream client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Invoices fetches the raw invoice collection for a patient.
func (c *Client) Invoices(ctx context.Context, patientID string) ([]recon.RawRecord, error) {
	return c.fetch(ctx, "/billing/invoices", patientID)
}

// Payments fetches the raw payment collection for a patient.
func (c *Client) Payments(ctx context.Context, patientID string) ([]recon.RawRecord, error) {
	return c.fetch(ctx, "/billing/payments", patientID)
}

func (c *Client) fetch(ctx context.Context, path, patientID string) ([]recon.RawRecord, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("build upstream url: %w", err)
	}
	q := u.Query()
	q.Set("patientId", patientID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, u.Path)
	}

	return decodeCollection(resp.Body)
}

// decodeCollection accepts both payload shapes the upstream has
// shipped: a bare JSON array, or an envelope with the array under
// "data", "items" or "results".
func decodeCollection(r io.Reader) ([]recon.RawRecord, error) {
	var payload interface{}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}

	list, ok := payload.([]interface{})
	if !ok {
		envelope, isMap := payload.(map[string]interface{})
		if !isMap {
			return nil, fmt.Errorf("unexpected upstream payload shape %T", payload)
		}
		for _, key := range []string{"data", "items", "results"} {
			if inner, found := envelope[key].([]interface{}); found {
				list = inner
				break
			}
		}
		if list == nil {
			return nil, fmt.Errorf("upstream envelope carries no record array")
		}
	}

	records := make([]recon.RawRecord, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]interface{}); ok {
			records = append(records, recon.RawRecord(m))
		}
		// Non-object entries are dropped; one bad record never fails
		// the batch.
	}
	return records, nil
}

package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/careportal/portal/internal/recon"
)

// Snapshot maps to the billing_snapshot table. It caches the raw
// invoice and payment payloads fetched from the hospital information
// system so statements can be recomputed without refetching. Payloads
// are stored as-is; normalization happens at read time.
type Snapshot struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	PatientID string            `db:"patient_id" json:"patient_id"`
	Invoices  []recon.RawRecord `db:"invoices" json:"invoices"`
	Payments  []recon.RawRecord `db:"payments" json:"payments"`
	FetchedAt time.Time         `db:"fetched_at" json:"fetched_at"`
}

// Statement is the reconciled view of a patient's billing snapshot.
type Statement struct {
	PatientID string           `json:"patient_id"`
	Invoices  []recon.Invoice  `json:"invoices"`
	Summary   recon.Aggregates `json:"summary"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// SummaryResponse is the payload of the summary endpoint.
type SummaryResponse struct {
	PatientID string           `json:"patient_id"`
	Summary   recon.Aggregates `json:"summary"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// RefreshResponse reports the outcome of a snapshot refresh.
type RefreshResponse struct {
	PatientID string    `json:"patient_id"`
	Invoices  int       `json:"invoices"`
	Payments  int       `json:"payments"`
	FetchedAt time.Time `json:"fetched_at"`
}

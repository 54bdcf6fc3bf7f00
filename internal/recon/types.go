// Package recon implements the billing reconciliation engine behind the
// patient portal's statement views. It normalizes the loosely-shaped
// invoice and payment records returned by the hospital information
// system, allocates payments against outstanding invoices (direct
// attributions first, then a shared repayment pool drained oldest debt
// first), derives a canonical lifecycle status per invoice, and folds
// the results into portfolio aggregates.
//
// The engine is a pure computation over an in-memory snapshot: it
// performs no I/O, holds no state between calls, and never mutates its
// inputs. Every call is a full recomputation from scratch.
package recon

import "time"

// Status is the canonical lifecycle state of an invoice.
type Status string

const (
	StatusUnpaid          Status = "unpaid"
	StatusPendingApproval Status = "pending-approval"
	StatusPaid            Status = "paid"
	StatusOverdue         Status = "overdue"
	StatusWaived          Status = "waived"
)

// PaymentKind classifies how a payment participates in allocation.
type PaymentKind string

const (
	// KindDirect marks a payment tied to a single invoice.
	KindDirect PaymentKind = "direct"
	// KindPool marks an undesignated repayment available to any invoice.
	KindPool PaymentKind = "pool"
	// KindUnknown means the upstream record carried no usable kind and
	// classification falls back to the free-text heuristic.
	KindUnknown PaymentKind = ""
)

// RawRecord is an untyped payload from the upstream system. Field names
// and value types vary between upstream revisions; the normalizer maps
// them onto the canonical types below.
type RawRecord map[string]interface{}

// Invoice is a canonical billable record. Covered, BalanceDue and
// Status are derived by the engine; the remaining fields come from
// normalization.
type Invoice struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	DueAt          time.Time `json:"due_at"`
	ExplicitStatus Status    `json:"explicit_status"`
	Covered        float64   `json:"covered"`
	BalanceDue     float64   `json:"balance_due"`
	Status         Status    `json:"status"`
}

// Payment is a canonical record of money moved, optionally linked to a
// specific invoice.
type Payment struct {
	ID        string      `json:"id"`
	InvoiceID string      `json:"invoice_id,omitempty"`
	Amount    float64     `json:"amount"`
	Status    string      `json:"status"`
	Kind      PaymentKind `json:"kind,omitempty"`
	Method    string      `json:"method,omitempty"`
	Title     string      `json:"title,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Aggregates holds the portfolio-level numbers derived from a
// reconciled invoice set.
type Aggregates struct {
	TotalOutstanding float64 `json:"total_outstanding"`
	TotalOverdue     float64 `json:"total_overdue"`
	TotalPaid        float64 `json:"total_paid"`
	CreditLimit      float64 `json:"credit_limit"`
	AvailableCredit  float64 `json:"available_credit"`
}

// Snapshot is the raw input consumed by a single reconciliation run.
type Snapshot struct {
	Invoices []RawRecord `json:"invoices"`
	Payments []RawRecord `json:"payments"`
}

// Result is the output of a reconciliation run: invoices annotated with
// coverage and recomputed status, plus the portfolio aggregates.
type Result struct {
	Invoices   []Invoice  `json:"invoices"`
	Aggregates Aggregates `json:"aggregates"`
}

package recon

import "time"

// Reconcile runs the full pipeline over a raw snapshot: normalize,
// allocate, derive statuses, aggregate. Each stage returns new values;
// nothing upstream is mutated, and identical inputs always produce
// identical output. Callers that need fresher data re-fetch a
// consistent snapshot and call Reconcile again -- there are no
// incremental-update semantics.
func Reconcile(snap Snapshot, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	invoices := make([]Invoice, 0, len(snap.Invoices))
	for _, raw := range snap.Invoices {
		invoices = append(invoices, normalizeInvoiceAt(raw, now))
	}
	payments := make([]Payment, 0, len(snap.Payments))
	for _, raw := range snap.Payments {
		payments = append(payments, normalizePaymentAt(raw, now))
	}

	invoices = Allocate(invoices, payments)

	for i := range invoices {
		invoices[i].Status = DeriveStatus(invoices[i], now)
	}

	return Result{
		Invoices:   invoices,
		Aggregates: Summarize(invoices, payments, opts),
	}
}

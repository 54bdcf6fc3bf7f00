package recon

import (
	"math"
	"time"
)

// DefaultCreditLimit applies when the configured limit is absent or
// non-positive.
const DefaultCreditLimit = 5000

// Options tunes a reconciliation run. The zero value is usable: the
// default credit limit applies, "now" is the wall clock, and the paid
// total is sourced automatically.
type Options struct {
	// CreditLimit is the patient's credit ceiling; values <= 0 fall
	// back to DefaultCreditLimit.
	CreditLimit float64
	// Now anchors overdue checks; the zero value means time.Now().
	Now time.Time
	// TotalPaidFromInvoices selects the source for the paid total. Nil
	// prefers successful payment rows and falls back to Paid-invoice
	// amounts only when no successful payment rows exist at all (some
	// backends mark invoices paid without emitting payment rows). The
	// two sources are never combined.
	TotalPaidFromInvoices *bool
}

// BoolPtr is a helper for the optional Options fields.
func BoolPtr(b bool) *bool { return &b }

func (o Options) creditLimit() float64 {
	if o.CreditLimit > 0 {
		return o.CreditLimit
	}
	return DefaultCreditLimit
}

// Summarize folds reconciled invoices and the payment set into
// portfolio aggregates.
func Summarize(invoices []Invoice, payments []Payment, opts Options) Aggregates {
	agg := Aggregates{CreditLimit: opts.creditLimit()}

	for _, inv := range invoices {
		switch inv.Status {
		case StatusOverdue:
			agg.TotalOverdue += inv.BalanceDue
			agg.TotalOutstanding += inv.BalanceDue
		case StatusUnpaid:
			agg.TotalOutstanding += inv.BalanceDue
		}
	}

	var paidFromPayments float64
	haveSuccessful := false
	for _, p := range payments {
		if p.Succeeded() {
			haveSuccessful = true
			paidFromPayments += p.Amount
		}
	}

	useInvoices := !haveSuccessful
	if opts.TotalPaidFromInvoices != nil {
		useInvoices = *opts.TotalPaidFromInvoices
	}
	if useInvoices {
		for _, inv := range invoices {
			if inv.Status == StatusPaid {
				agg.TotalPaid += inv.Amount
			}
		}
	} else {
		agg.TotalPaid = paidFromPayments
	}

	agg.AvailableCredit = math.Max(0, agg.CreditLimit-agg.TotalOutstanding)
	return agg
}

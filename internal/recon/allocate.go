package recon

import (
	"math"
	"sort"
	"strings"
)

// successfulStatuses is the fixed set of terminal payment states that
// count as money received. Compared case-insensitively.
var successfulStatuses = map[string]bool{
	"paid":      true,
	"approved":  true,
	"succeeded": true,
	"success":   true,
	"completed": true,
	"settled":   true,
	"captured":  true,
}

// Succeeded reports whether the payment is in a terminal success state.
func (p Payment) Succeeded() bool {
	return successfulStatuses[strings.ToLower(p.Status)]
}

// repaymentMarkers are the free-text fragments that identify an
// undesignated payment as a repayment when the upstream record carries
// no explicit kind. This heuristic is a known weak point of the
// upstream contract; an explicit kind field always takes precedence.
var repaymentMarkers = []string{"repay", "careflex"}

// IsRepayment reports whether an undesignated payment belongs in the
// shared repayment pool.
func (p Payment) IsRepayment() bool {
	switch p.Kind {
	case KindPool:
		return true
	case KindDirect:
		return false
	}
	for _, marker := range repaymentMarkers {
		if strings.Contains(strings.ToLower(p.Method), marker) ||
			strings.Contains(strings.ToLower(p.Title), marker) {
			return true
		}
	}
	return false
}

// Allocate computes how much of each invoice is covered by the given
// payments and returns a new invoice slice annotated with Covered and
// BalanceDue. The inputs are not mutated.
//
// Allocation is a two-tier waterfall. Successful payments linked to an
// existing invoice are applied first, in input order, clamped so no
// invoice is ever covered beyond its total. The remaining successful,
// undesignated repayments form a single pool that drains into the
// oldest outstanding invoice before touching a newer one (stable order,
// ties broken by input position). Waived invoices allocate at a total
// of zero, so payments referencing them are never absorbed. Invoices
// the upstream already marks as paid allocate as fully covered: some
// backends flip the invoice status without emitting payment rows, and
// a settled invoice must not resurface as outstanding debt.
func Allocate(invoices []Invoice, payments []Payment) []Invoice {
	out := make([]Invoice, len(invoices))
	copy(out, invoices)

	totals := make([]float64, len(out))
	covered := make([]float64, len(out))
	byID := make(map[string]int, len(out))
	for i := range out {
		if out[i].ExplicitStatus != StatusWaived {
			totals[i] = out[i].Amount
		}
		if out[i].ExplicitStatus == StatusPaid {
			covered[i] = totals[i]
		}
		if _, exists := byID[out[i].ID]; !exists {
			byID[out[i].ID] = i
		}
	}

	// Tier one: direct attributions.
	for _, p := range payments {
		if !p.Succeeded() || p.InvoiceID == "" {
			continue
		}
		i, ok := byID[p.InvoiceID]
		if !ok {
			continue
		}
		remaining := totals[i] - covered[i]
		if remaining <= 0 {
			continue
		}
		covered[i] += math.Min(remaining, p.Amount)
	}

	// Tier two: pool of successful repayments not linked to any known
	// invoice.
	var pool float64
	for _, p := range payments {
		if !p.Succeeded() {
			continue
		}
		if _, linked := byID[p.InvoiceID]; linked && p.InvoiceID != "" {
			continue
		}
		if !p.IsRepayment() {
			continue
		}
		pool += p.Amount
	}

	if pool > 0 {
		order := make([]int, len(out))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return out[order[a]].CreatedAt.Before(out[order[b]].CreatedAt)
		})
		for _, i := range order {
			if pool <= 0 {
				break
			}
			remaining := math.Max(0, totals[i]-covered[i])
			if remaining <= 0 {
				continue
			}
			applied := math.Min(remaining, pool)
			covered[i] += applied
			pool -= applied
		}
	}

	for i := range out {
		out[i].Covered = covered[i]
		// Clamp against float drift so a balance never goes negative.
		out[i].BalanceDue = math.Max(0, totals[i]-covered[i])
	}
	return out
}

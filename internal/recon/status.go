package recon

import "time"

// DeriveStatus recomputes an invoice's lifecycle state from its
// allocated balance and due date. Waived is terminal and ignores the
// balance entirely. The engine itself never produces PendingApproval;
// that state only survives as an explicit upstream status on invoices
// awaiting manual review, which are re-derived like any other once a
// balance exists.
func DeriveStatus(inv Invoice, now time.Time) Status {
	if inv.ExplicitStatus == StatusWaived {
		return StatusWaived
	}
	if inv.BalanceDue <= 0 {
		return StatusPaid
	}
	if inv.DueAt.Before(now) {
		return StatusOverdue
	}
	return StatusUnpaid
}

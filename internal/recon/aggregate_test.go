package recon

import "testing"

func TestSummarize_Outstanding(t *testing.T) {
	invoices := []Invoice{
		{ID: "a", Amount: 100, BalanceDue: 100, Status: StatusOverdue},
		{ID: "b", Amount: 50, BalanceDue: 30, Status: StatusUnpaid},
		{ID: "c", Amount: 40, BalanceDue: 0, Status: StatusPaid},
		{ID: "d", Amount: 25, BalanceDue: 0, Status: StatusWaived},
	}

	agg := Summarize(invoices, nil, Options{CreditLimit: 200})
	if agg.TotalOutstanding != 130 {
		t.Errorf("outstanding = %v, want 130", agg.TotalOutstanding)
	}
	if agg.TotalOverdue != 100 {
		t.Errorf("overdue = %v, want 100", agg.TotalOverdue)
	}
	if agg.AvailableCredit != 70 {
		t.Errorf("available credit = %v, want 70", agg.AvailableCredit)
	}
}

func TestSummarize_AvailableCreditClampsAtZero(t *testing.T) {
	invoices := []Invoice{
		{ID: "a", BalanceDue: 900, Status: StatusUnpaid},
	}

	agg := Summarize(invoices, nil, Options{CreditLimit: 500})
	if agg.AvailableCredit != 0 {
		t.Errorf("available credit = %v, want 0", agg.AvailableCredit)
	}
}

func TestSummarize_CreditLimitDefault(t *testing.T) {
	agg := Summarize(nil, nil, Options{})
	if agg.CreditLimit != DefaultCreditLimit {
		t.Errorf("credit limit = %v, want default %v", agg.CreditLimit, DefaultCreditLimit)
	}
	agg = Summarize(nil, nil, Options{CreditLimit: -10})
	if agg.CreditLimit != DefaultCreditLimit {
		t.Errorf("non-positive limit must fall back, got %v", agg.CreditLimit)
	}
}

func TestSummarize_TotalPaidFromPayments(t *testing.T) {
	invoices := []Invoice{
		{ID: "a", Amount: 100, Status: StatusPaid},
	}
	payments := []Payment{
		{ID: "p1", Amount: 60, Status: "paid"},
		{ID: "p2", Amount: 40, Status: "approved"},
		{ID: "p3", Amount: 99, Status: "pending"},
	}

	agg := Summarize(invoices, payments, Options{})
	// Payment rows exist, so the invoice amounts are not double-counted.
	if agg.TotalPaid != 100 {
		t.Errorf("paid = %v, want 100 from payment rows", agg.TotalPaid)
	}
}

func TestSummarize_TotalPaidInvoiceFallback(t *testing.T) {
	// A backend that only flips invoice status without emitting payment
	// rows: fall back to the paid invoices' amounts.
	invoices := []Invoice{
		{ID: "a", Amount: 50, Status: StatusPaid},
		{ID: "b", Amount: 30, Status: StatusUnpaid, BalanceDue: 30},
	}
	payments := []Payment{
		{ID: "p1", Amount: 99, Status: "pending"},
	}

	agg := Summarize(invoices, payments, Options{})
	if agg.TotalPaid != 50 {
		t.Errorf("paid = %v, want 50 via invoice fallback", agg.TotalPaid)
	}
}

func TestSummarize_TotalPaidSourceOverride(t *testing.T) {
	invoices := []Invoice{{ID: "a", Amount: 50, Status: StatusPaid}}
	payments := []Payment{{ID: "p1", Amount: 75, Status: "paid"}}

	agg := Summarize(invoices, payments, Options{TotalPaidFromInvoices: BoolPtr(true)})
	if agg.TotalPaid != 50 {
		t.Errorf("paid = %v, want 50 with invoice source forced", agg.TotalPaid)
	}
	agg = Summarize(invoices, payments, Options{TotalPaidFromInvoices: BoolPtr(false)})
	if agg.TotalPaid != 75 {
		t.Errorf("paid = %v, want 75 with payment source forced", agg.TotalPaid)
	}
}

package recon

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Candidate field lists, in priority order. The upstream system has
// shipped several payload revisions with different field names; the
// first candidate that yields a usable value wins.
var (
	invoiceAmountFields = []string{
		"total", "grandTotal", "grand_total",
		"amountTotal", "amount_total", "totalAmount", "total_amount",
		"amount", "subtotal", "subTotal", "sub_total",
	}
	lineItemsFields     = []string{"items", "lineItems", "line_items", "lines"}
	lineAmountFields    = []string{"amount", "total", "netAmount", "net_amount", "lineTotal", "line_total"}
	lineUnitPriceFields = []string{"unitPrice", "unit_price", "price"}
	lineQuantityFields  = []string{"quantity", "qty", "count"}
	invoiceTaxFields    = []string{"tax", "vat", "taxAmount", "tax_amount", "gst"}

	createdAtFields = []string{"createdAt", "created_at", "created", "issuedAt", "issued_at", "date"}
	dueAtFields     = []string{"dueAt", "due_at", "dueDate", "due_date", "due"}

	titleFields    = []string{"title", "name", "description", "label"}
	currencyFields = []string{"currency", "currencyCode", "currency_code"}
	statusFields   = []string{"status", "state", "paymentStatus", "payment_status"}

	paidFlagFields = []string{"paid", "isPaid", "is_paid", "settled"}
	paidAtFields   = []string{"paidAt", "paid_at", "paymentDate", "payment_date"}

	paymentAmountFields  = []string{"amount", "value", "total", "amountPaid", "amount_paid"}
	paymentInvoiceFields = []string{"invoiceId", "invoice_id", "invoiceID", "invoice", "billId", "bill_id"}
	paymentKindFields    = []string{"kind", "type", "category"}
	paymentMethodFields  = []string{"method", "paymentMethod", "payment_method", "channel"}
	paymentTitleFields   = []string{"title", "name", "description", "note"}
)

// NormalizeInvoice converts an arbitrary raw invoice payload into a
// canonical Invoice. It is a total function: malformed or missing fields
// resolve to conservative defaults (zero amount, "now" timestamps,
// unpaid status) instead of failing the batch. The worst outcome of bad
// input is an invoice that shows as fully unpaid with a zero amount --
// it never falsely appears settled.
func NormalizeInvoice(raw RawRecord) Invoice {
	return normalizeInvoiceAt(raw, time.Now().UTC())
}

// normalizeInvoiceAt pins the clock used for timestamp defaults so a
// pipeline run shares one "now" across normalization and status
// derivation. An invoice whose dates default to now must never read as
// overdue against that same now.
func normalizeInvoiceAt(raw RawRecord, now time.Time) Invoice {
	inv := Invoice{ID: resolveID(raw)}

	inv.Title, _ = firstString(raw, titleFields)
	inv.Currency, _ = firstString(raw, currencyFields)
	inv.Amount = resolveInvoiceAmount(raw)

	created, ok := firstTime(raw, createdAtFields)
	if !ok {
		created = now
	}
	inv.CreatedAt = created
	// A missing due date defaults to the creation date so the invoice is
	// never spuriously overdue from absent data.
	due, ok := firstTime(raw, dueAtFields)
	if !ok {
		due = created
	}
	inv.DueAt = due

	inv.ExplicitStatus = resolveInvoiceStatus(raw)
	inv.Status = inv.ExplicitStatus
	return inv
}

// NormalizePayment converts an arbitrary raw payment payload into a
// canonical Payment. Like NormalizeInvoice it never fails; a payment
// with no usable status simply never counts as successful.
func NormalizePayment(raw RawRecord) Payment {
	return normalizePaymentAt(raw, time.Now().UTC())
}

func normalizePaymentAt(raw RawRecord, now time.Time) Payment {
	p := Payment{ID: resolveID(raw)}

	p.InvoiceID = resolveInvoiceRef(raw)
	if amount, ok := firstNumber(raw, paymentAmountFields); ok {
		p.Amount = amount
	}
	if status, ok := firstString(raw, statusFields); ok {
		p.Status = strings.ToLower(status)
	}
	p.Kind = resolvePaymentKind(raw)
	p.Method, _ = firstString(raw, paymentMethodFields)
	p.Title, _ = firstString(raw, paymentTitleFields)

	created, ok := firstTime(raw, createdAtFields)
	if !ok {
		created = now
	}
	p.CreatedAt = created
	return p
}

// resolveID prefers the database-style identifier, then a generic id,
// and only as a last resort generates a fresh random identifier so the
// record can still participate in allocation without colliding with a
// real id in the batch.
func resolveID(raw RawRecord) string {
	if id, ok := firstString(raw, []string{"_id", "id"}); ok {
		return id
	}
	// Some revisions wrap ids: {"_id": {"$oid": "..."}}.
	for _, f := range []string{"_id", "id"} {
		if m, ok := raw[f].(map[string]interface{}); ok {
			if id, ok := firstString(m, []string{"$oid", "value", "id"}); ok {
				return id
			}
		}
	}
	return uuid.NewString()
}

// resolveInvoiceAmount walks the amount fallback chain: top-level total
// fields first, then a sum over the line-items array (explicit line
// amount, else unitPrice x quantity) plus any tax field. A chain with no
// usable candidate resolves to zero.
func resolveInvoiceAmount(raw RawRecord) float64 {
	if amount, ok := firstNumber(raw, invoiceAmountFields); ok {
		return amount
	}
	var sum float64
	for _, f := range lineItemsFields {
		items, ok := raw[f].([]interface{})
		if !ok {
			continue
		}
		for _, entry := range items {
			item, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			sum += resolveLineAmount(item)
		}
		break
	}
	if tax, ok := firstNumber(raw, invoiceTaxFields); ok {
		sum += tax
	}
	if sum <= 0 {
		return 0
	}
	return sum
}

func resolveLineAmount(item RawRecord) float64 {
	if amount, ok := firstNumber(item, lineAmountFields); ok {
		return amount
	}
	price, ok := firstNumber(item, lineUnitPriceFields)
	if !ok {
		return 0
	}
	qty, ok := firstNumber(item, lineQuantityFields)
	if !ok {
		qty = 1
	}
	return price * qty
}

// resolveInvoiceStatus lower-cases the textual status field and maps it
// onto the canonical vocabulary. An explicit paid marker (boolean flag
// or a paid timestamp) forces Paid regardless of the textual status.
func resolveInvoiceStatus(raw RawRecord) Status {
	for _, f := range paidFlagFields {
		if b, ok := toBool(raw[f]); ok && b {
			return StatusPaid
		}
	}
	for _, f := range paidAtFields {
		if _, ok := toTime(raw[f]); ok {
			return StatusPaid
		}
	}
	status, _ := firstString(raw, statusFields)
	return statusFromString(status)
}

func statusFromString(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return StatusPaid
	case "void", "waived":
		return StatusWaived
	case "overdue":
		return StatusOverdue
	case "pending", "pending approval", "pending-approval", "pending_approval":
		return StatusPendingApproval
	default:
		return StatusUnpaid
	}
}

// resolveInvoiceRef extracts the linked invoice identifier. References
// arrive either as a bare id string or as an embedded object carrying
// its own id; anything else means the payment is undesignated.
func resolveInvoiceRef(raw RawRecord) string {
	for _, f := range paymentInvoiceFields {
		v, present := raw[f]
		if !present {
			continue
		}
		if s, ok := toString(v); ok {
			return s
		}
		if m, ok := v.(map[string]interface{}); ok {
			if id, ok := firstString(m, []string{"_id", "id", "$oid"}); ok {
				return id
			}
		}
	}
	return ""
}

// resolvePaymentKind honors an explicit kind field when the upstream
// sends one. Classification of undesignated payments without a kind is
// deferred to the free-text heuristic at allocation time.
func resolvePaymentKind(raw RawRecord) PaymentKind {
	kind, ok := firstString(raw, paymentKindFields)
	if !ok {
		return KindUnknown
	}
	switch strings.ToLower(kind) {
	case "direct", "invoice", "charge":
		return KindDirect
	case "pool", "repayment", "repay", "credit", "topup", "top-up":
		return KindPool
	default:
		return KindUnknown
	}
}

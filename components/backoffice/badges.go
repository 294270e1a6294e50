package backoffice

import (
	"fmt"
	"html"
	"strings"
)

// Badge is a small status indicator: a visual variant plus its label. Raw
// carries the original status code when the code fell outside the known
// vocabulary.
type Badge struct {
	Variant string
	Label   string
	Raw     string
}

// HTML renders the badge markup used by the server templates. Unknown labels
// are escaped; known ones come from the fixed tables below.
func (b Badge) HTML() string {
	return fmt.Sprintf(`<span class="badge bg-%s">%s</span>`, b.Variant, html.EscapeString(b.Label))
}

// Generic reports whether the badge was rendered through the fallback arm.
func (b Badge) Generic() bool { return b.Raw != "" }

// PaymentStatus is the closed payment vocabulary. Codes are normalized to
// upper case before matching.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING_PAYMENT"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus normalizes a raw code into the closed vocabulary. The
// second return reports whether the code is known.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	s := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled, PaymentRefunded:
		return s, true
	}
	return s, false
}

// Badge renders the payment badge. Unknown codes render the neutral variant
// carrying the raw value; this function never fails.
func (s PaymentStatus) Badge() Badge {
	switch s {
	case PaymentPending:
		return Badge{Variant: "warning", Label: "awaiting payment"}
	case PaymentPaid:
		return Badge{Variant: "success", Label: "paid"}
	case PaymentCancelled:
		return Badge{Variant: "danger", Label: "cancelled"}
	case PaymentRefunded:
		return Badge{Variant: "secondary", Label: "refunded"}
	default:
		return Badge{Variant: "secondary", Label: string(s), Raw: string(s)}
	}
}

// FulfillmentStatus is the closed fulfillment vocabulary.
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "PENDING"
	FulfillmentAccepted  FulfillmentStatus = "ACCEPTED"
	FulfillmentPreparing FulfillmentStatus = "PREPARING"
	FulfillmentShipped   FulfillmentStatus = "SHIPPED"
	FulfillmentDelivered FulfillmentStatus = "DELIVERED"
	FulfillmentRejected  FulfillmentStatus = "REJECTED"
)

// ParseFulfillmentStatus normalizes a raw code into the closed vocabulary.
func ParseFulfillmentStatus(raw string) (FulfillmentStatus, bool) {
	s := FulfillmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case FulfillmentPending, FulfillmentAccepted, FulfillmentPreparing,
		FulfillmentShipped, FulfillmentDelivered, FulfillmentRejected:
		return s, true
	}
	return s, false
}

// Badge renders the fulfillment badge with the same fallback contract as
// PaymentStatus.Badge.
func (s FulfillmentStatus) Badge() Badge {
	switch s {
	case FulfillmentPending:
		return Badge{Variant: "info", Label: "under review"}
	case FulfillmentAccepted:
		return Badge{Variant: "primary", Label: "accepted"}
	case FulfillmentPreparing:
		return Badge{Variant: "primary", Label: "preparing"}
	case FulfillmentShipped:
		return Badge{Variant: "primary", Label: "shipped"}
	case FulfillmentDelivered:
		return Badge{Variant: "success", Label: "delivered"}
	case FulfillmentRejected:
		return Badge{Variant: "danger", Label: "rejected"}
	default:
		return Badge{Variant: "secondary", Label: string(s), Raw: string(s)}
	}
}

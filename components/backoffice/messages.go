package backoffice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MessageType discriminates server-pushed payloads on the dashboard feed.
type MessageType string

const (
	MessageConnectionEstablished MessageType = "connection_established"
	MessageNewOrder              MessageType = "new_order"
	MessageOrderStatusChanged    MessageType = "order_status_changed"
	MessageStatsUpdate           MessageType = "stats_update"
	MessagePong                  MessageType = "pong"
)

// Message is the decoded wire envelope. Every payload field is optional;
// consumers must tolerate absence.
type Message struct {
	Type  MessageType        `json:"type"`
	Order *OrderSummary      `json:"order,omitempty"`
	Stats map[string]float64 `json:"stats,omitempty"`
	Text  string             `json:"message,omitempty"`
}

// Ping is the client->server keep-alive frame.
type Ping struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// NewPing builds a keep-alive frame carrying the wall clock in epoch millis.
func NewPing(clock Clock) Ping {
	return Ping{Type: "ping", Timestamp: clock.Now().UnixMilli()}
}

// OrderSummary is the partial order payload attached to order events. The
// backend emits whichever fields the triggering change touched, so all of
// them are best-effort.
type OrderSummary struct {
	ID                FlexID  `json:"id"`
	UserName          string  `json:"user_name,omitempty"`
	StoreName         string  `json:"store_name,omitempty"`
	TotalAmount       float64 `json:"total_amount,omitempty"`
	GrandTotal        float64 `json:"grand_total,omitempty"`
	Status            string  `json:"status,omitempty"`
	PaymentStatus     string  `json:"payment_status,omitempty"`
	FulfillmentStatus string  `json:"fulfillment_status,omitempty"`
	CreatedAt         string  `json:"created_at,omitempty"`
}

// Amount resolves the order total, preferring grand_total over total_amount.
func (o *OrderSummary) Amount() float64 {
	if o == nil {
		return 0
	}
	if o.GrandTotal != 0 {
		return o.GrandTotal
	}
	return o.TotalAmount
}

// Payment resolves the payment status field.
func (o *OrderSummary) Payment() string {
	if o == nil {
		return ""
	}
	return o.PaymentStatus
}

// Fulfillment resolves the fulfillment status, falling back to the generic
// status field older backends emit.
func (o *OrderSummary) Fulfillment() string {
	if o == nil {
		return ""
	}
	if o.FulfillmentStatus != "" {
		return o.FulfillmentStatus
	}
	return o.Status
}

// FlexID tolerates numeric or string identifiers on the wire and normalizes
// them to their decimal string form.
type FlexID string

// UnmarshalJSON accepts "42", 42, and 42.0 alike.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*id = FlexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = FlexID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

// DecodeMessage parses a raw frame from the dashboard feed. Payloads that are
// not valid JSON objects produce an error; callers log and drop them rather
// than propagating.
func DecodeMessage(raw []byte) (Message, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Message{}, fmt.Errorf("backoffice: decode message: %w", err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return Message{}, fmt.Errorf("backoffice: message is not an object")
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("backoffice: decode message: %w", err)
	}
	return msg, nil
}

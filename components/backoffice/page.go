package backoffice

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ettle/strcase"
)

// Page is the in-memory stand-in for the server-rendered document: the
// regions the realtime layer patches. A nil region means the page does not
// carry that anchor, and every patch against it is a silent no-op.
type Page struct {
	Stats  *StatsPanel
	Orders *OrdersTable
	Count  *CountBadge
}

// HasOrdersTable reports whether the page carries an orders table region.
func (p *Page) HasOrdersTable() bool { return p != nil && p.Orders != nil }

// StatsPanel models the dashboard stat cards, keyed by their data-stat
// attribute. Values are kept as display text, the same way the DOM holds
// them.
type StatsPanel struct {
	mu          sync.RWMutex
	values      map[string]string
	highlighted map[string]bool
	clock       Clock
	flash       time.Duration
}

// NewStatsPanel builds an empty panel. Highlights decay after the flash
// duration (500ms when zero).
func NewStatsPanel(clock Clock, flash time.Duration) *StatsPanel {
	if flash <= 0 {
		flash = 500 * time.Millisecond
	}
	return &StatsPanel{
		values:      map[string]string{},
		highlighted: map[string]bool{},
		clock:       normalizeClock(clock),
		flash:       flash,
	}
}

// Set overwrites a stat's display text with a transient highlight.
func (p *StatsPanel) Set(key, value string) {
	p.mu.Lock()
	p.values[key] = value
	p.highlighted[key] = true
	p.mu.Unlock()
	p.clock.AfterFunc(p.flash, func() {
		p.mu.Lock()
		delete(p.highlighted, key)
		p.mu.Unlock()
	})
}

// Increment bumps a counter stat, parsing the current text and defaulting to
// zero when it is not a number. Returns the new count.
func (p *StatsPanel) Increment(key string) int {
	p.mu.RLock()
	cur, _ := strconv.Atoi(strings.TrimSpace(p.values[key]))
	p.mu.RUnlock()
	next := cur + 1
	p.Set(key, strconv.Itoa(next))
	return next
}

// Value returns a stat's display text.
func (p *StatsPanel) Value(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[key]
}

// Highlighted reports whether a stat is mid-flash.
func (p *StatsPanel) Highlighted(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.highlighted[key]
}

// Label derives a human label from a wire key ("orders_today" -> "Orders
// Today").
func (p *StatsPanel) Label(key string) string {
	return strcase.ToCase(key, strcase.TitleCase, ' ')
}

// OrderRow is one row of an orders table.
type OrderRow struct {
	ID          string
	Customer    string
	Store       string
	Total       string
	Payment     Badge
	Fulfillment Badge
	Created     string
}

// OrdersTable models the orders list / recent-orders table body. Rows are
// ordered newest first. A non-zero cap bounds the table, evicting the oldest
// row on overflow.
type OrdersTable struct {
	mu          sync.RWMutex
	rows        []OrderRow
	cap         int
	highlighted map[string]bool
	clock       Clock
}

// RecentOrdersCap is the bound used by the dashboard's recent-orders region.
const RecentOrdersCap = 10

// NewOrdersTable builds a table. limit <= 0 means unbounded.
func NewOrdersTable(limit int, clock Clock) *OrdersTable {
	return &OrdersTable{
		cap:         limit,
		highlighted: map[string]bool{},
		clock:       normalizeClock(clock),
	}
}

// Prepend inserts a row at the top. Rows already present (same id) are left
// untouched; overflow evicts from the bottom.
func (t *OrdersTable) Prepend(row OrderRow) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.rows {
		if r.ID == row.ID {
			return false
		}
	}
	t.rows = append([]OrderRow{row}, t.rows...)
	if t.cap > 0 && len(t.rows) > t.cap {
		t.rows = t.rows[:t.cap]
	}
	return true
}

// UpdateStatus patches the badges and total of the row matching the order id.
// It returns false when the row is absent or nothing changed, which routes
// the caller to the coarse refresh path.
func (t *OrdersTable) UpdateStatus(id string, payment, fulfillment, total string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.rows[i].ID != id {
			continue
		}
		applied := false
		if payment != "" {
			status, _ := ParsePaymentStatus(payment)
			t.rows[i].Payment = status.Badge()
			applied = true
		}
		if fulfillment != "" {
			status, _ := ParseFulfillmentStatus(fulfillment)
			t.rows[i].Fulfillment = status.Badge()
			applied = true
		}
		if total != "" {
			t.rows[i].Total = total
			applied = true
		}
		return applied
	}
	return false
}

// ReplaceAll swaps the full row set, as the refresh fallback does with the
// fetched table body.
func (t *OrdersTable) ReplaceAll(rows []OrderRow) {
	t.mu.Lock()
	t.rows = append([]OrderRow(nil), rows...)
	t.mu.Unlock()
}

// Row returns the row for an order id.
func (t *OrdersTable) Row(id string) (OrderRow, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.rows {
		if r.ID == id {
			return r, true
		}
	}
	return OrderRow{}, false
}

// Rows returns a copy of the current rows, newest first.
func (t *OrdersTable) Rows() []OrderRow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]OrderRow(nil), t.rows...)
}

// Len returns the current row count.
func (t *OrdersTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Highlight flags a row for the given duration, then clears it. Missing rows
// are ignored.
func (t *OrdersTable) Highlight(id string, d time.Duration) {
	t.mu.Lock()
	found := false
	for _, r := range t.rows {
		if r.ID == id {
			found = true
			break
		}
	}
	if found {
		t.highlighted[id] = true
	}
	t.mu.Unlock()
	if !found {
		return
	}
	t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.highlighted, id)
		t.mu.Unlock()
	})
}

// Highlighted reports whether a row is currently flagged.
func (t *OrdersTable) Highlighted(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.highlighted[id]
}

// CountBadge models the order-count badge in the list card header.
type CountBadge struct {
	mu   sync.RWMutex
	text string
}

// Set overwrites the badge text.
func (b *CountBadge) Set(text string) {
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
}

// Text returns the badge text.
func (b *CountBadge) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

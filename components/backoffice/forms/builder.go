// Package forms holds the page-scoped form controllers: the order builder
// with its cascading selections and cart, catalog loaders, variant CRUD, the
// user form's conditional sections, and the pricing field validators.
package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-backoffice/pkg/restapi"
)

// CatalogAPI is the slice of the REST client the order builder needs.
type CatalogAPI interface {
	Stores(ctx context.Context) ([]restapi.Store, error)
	ProductsByStore(ctx context.Context, storeID int64) ([]restapi.Product, error)
	VariantsByProduct(ctx context.Context, productID int64) ([]restapi.Variant, error)
}

// Option is a populated select option.
type Option struct {
	ID    string
	Label string
	Price float64
}

// CartLine is one picked product. Field names match the JSON the order form
// submits in its hidden field.
type CartLine struct {
	StoreID     string  `json:"storeId"`
	StoreName   string  `json:"storeName"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	VariantID   string  `json:"variantId"`
	VariantName string  `json:"variantName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

const cartPayloadSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["storeId", "productId", "variantId", "quantity", "price", "total"],
		"properties": {
			"storeId": {"type": "string", "minLength": 1},
			"storeName": {"type": "string"},
			"productId": {"type": "string", "minLength": 1},
			"productName": {"type": "string"},
			"variantId": {"type": "string", "minLength": 1},
			"variantName": {"type": "string"},
			"quantity": {"type": "integer", "minimum": 1},
			"price": {"type": "number", "minimum": 0},
			"total": {"type": "number", "minimum": 0}
		}
	}
}`

var (
	cartSchemaOnce sync.Once
	cartSchema     *jsonschema.Schema
	cartSchemaErr  error
)

func compiledCartSchema() (*jsonschema.Schema, error) {
	cartSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("cart.json", bytes.NewReader([]byte(cartPayloadSchema))); err != nil {
			cartSchemaErr = fmt.Errorf("forms: load cart schema: %w", err)
			return
		}
		cartSchema, cartSchemaErr = compiler.Compile("cart.json")
	})
	return cartSchema, cartSchemaErr
}

// Level is one step of the cascading selection.
type Level int

const (
	LevelStore Level = iota
	LevelProduct
	LevelVariant
	LevelQuantity
)

var (
	errStoreRequired   = errors.New("forms: select a store first")
	errProductRequired = errors.New("forms: select a product first")
	errVariantRequired = errors.New("forms: select a variant first")
	errStoreMismatch   = errors.New("forms: billing store and product store differ")
	errBadQuantity     = errors.New("forms: quantity must be a positive integer")
)

// OrderBuilder drives the order-creation form: the store -> product ->
// variant -> quantity cascade, the cart lines, totals, and the serialized
// payload the form submits. Each level is disabled until its predecessor
// holds a value and resets whenever an ancestor changes.
type OrderBuilder struct {
	api CatalogAPI

	mu       sync.Mutex
	stores   []Option
	products []Option
	variants []Option

	store    *Option
	product  *Option
	variant  *Option
	quantity int

	lines        []CartLine
	billingStore string
}

// NewOrderBuilder builds an empty builder over the catalog API.
func NewOrderBuilder(api CatalogAPI) *OrderBuilder {
	return &OrderBuilder{api: api, quantity: 1}
}

// LoadStores populates the store select; the form calls it once at init.
func (b *OrderBuilder) LoadStores(ctx context.Context) error {
	stores, err := b.api.Stores(ctx)
	if err != nil {
		return fmt.Errorf("forms: load stores: %w", err)
	}
	b.mu.Lock()
	b.stores = storeOptions(stores)
	b.mu.Unlock()
	return nil
}

// Stores returns the store options.
func (b *OrderBuilder) Stores() []Option {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Option(nil), b.stores...)
}

// Products returns the product options for the selected store.
func (b *OrderBuilder) Products() []Option {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Option(nil), b.products...)
}

// Variants returns the variant options for the selected product.
func (b *OrderBuilder) Variants() []Option {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Option(nil), b.variants...)
}

// SelectStore picks a store and loads its products; product, variant, and
// quantity reset and lock until the load lands. An empty id clears the
// cascade.
func (b *OrderBuilder) SelectStore(ctx context.Context, id string) error {
	b.mu.Lock()
	b.resetBelow(LevelStore)
	b.store = nil
	for i := range b.stores {
		if b.stores[i].ID == id {
			b.store = &b.stores[i]
			break
		}
	}
	selected := b.store != nil
	b.mu.Unlock()
	if !selected {
		return nil
	}
	storeID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("forms: bad store id %q: %w", id, err)
	}
	products, err := b.api.ProductsByStore(ctx, storeID)
	if err != nil {
		return fmt.Errorf("forms: load products: %w", err)
	}
	b.mu.Lock()
	b.products = productOptions(products)
	b.mu.Unlock()
	return nil
}

// SelectProduct picks a product and loads its variants.
func (b *OrderBuilder) SelectProduct(ctx context.Context, id string) error {
	b.mu.Lock()
	if b.store == nil {
		b.mu.Unlock()
		return errStoreRequired
	}
	b.resetBelow(LevelProduct)
	b.product = nil
	for i := range b.products {
		if b.products[i].ID == id {
			b.product = &b.products[i]
			break
		}
	}
	selected := b.product != nil
	b.mu.Unlock()
	if !selected {
		return nil
	}
	productID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("forms: bad product id %q: %w", id, err)
	}
	variants, err := b.api.VariantsByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("forms: load variants: %w", err)
	}
	b.mu.Lock()
	b.variants = variantOptions(variants)
	b.mu.Unlock()
	return nil
}

// SelectVariant picks a variant; its bound price drives the line total.
func (b *OrderBuilder) SelectVariant(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.product == nil {
		return errProductRequired
	}
	b.variant = nil
	for i := range b.variants {
		if b.variants[i].ID == id {
			b.variant = &b.variants[i]
			return nil
		}
	}
	return nil
}

// SetQuantity sets the line quantity; it must be a positive integer.
func (b *OrderBuilder) SetQuantity(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.product == nil {
		return errProductRequired
	}
	if n < 1 {
		return errBadQuantity
	}
	b.quantity = n
	return nil
}

// Enabled reports whether a cascade level is interactive: its predecessor
// holds a value and the store mismatch guard is clear.
func (b *OrderBuilder) Enabled(level Level) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if level != LevelStore && b.storeMismatchLocked() {
		return false
	}
	switch level {
	case LevelStore:
		return true
	case LevelProduct:
		return b.store != nil
	case LevelVariant, LevelQuantity:
		return b.product != nil
	default:
		return false
	}
}

// PriceDisplay formats the current selection's line total.
func (b *OrderBuilder) PriceDisplay() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.variant == nil {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", b.variant.Price*float64(b.quantity))
}

// AddLine appends the current selection to the cart and resets the cascade.
func (b *OrderBuilder) AddLine() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.storeMismatchLocked() {
		return errStoreMismatch
	}
	if b.store == nil {
		return errStoreRequired
	}
	if b.product == nil {
		return errProductRequired
	}
	if b.variant == nil {
		return errVariantRequired
	}
	if b.quantity < 1 {
		return errBadQuantity
	}
	line := CartLine{
		StoreID:     b.store.ID,
		StoreName:   b.store.Label,
		ProductID:   b.product.ID,
		ProductName: b.product.Label,
		VariantID:   b.variant.ID,
		VariantName: b.variant.Label,
		Quantity:    b.quantity,
		Price:       b.variant.Price,
		Total:       b.variant.Price * float64(b.quantity),
	}
	b.lines = append(b.lines, line)
	b.resetBelow(LevelStore)
	b.store = nil
	b.products = nil
	return nil
}

// RemoveLine drops a cart line by index and recomputes totals.
func (b *OrderBuilder) RemoveLine(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.lines) {
		return fmt.Errorf("forms: no cart line at index %d", index)
	}
	b.lines = append(b.lines[:index], b.lines[index+1:]...)
	return nil
}

// Lines returns a copy of the cart.
func (b *OrderBuilder) Lines() []CartLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]CartLine(nil), b.lines...)
}

// ItemCount sums line quantities.
func (b *OrderBuilder) ItemCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, l := range b.lines {
		n += l.Quantity
	}
	return n
}

// GrandTotal sums line totals. Presentational only: the backend recomputes
// the authoritative total at submit time.
func (b *OrderBuilder) GrandTotal() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0.0
	for _, l := range b.lines {
		total += l.Total
	}
	return total
}

// GrandTotalDisplay formats the grand total for the read-only field.
func (b *OrderBuilder) GrandTotalDisplay() string {
	return fmt.Sprintf("%.2f", b.GrandTotal())
}

// Payload serializes the cart to the hidden-field JSON, validated against
// the cart schema before it is handed to the form.
func (b *OrderBuilder) Payload() ([]byte, error) {
	lines := b.Lines()
	if lines == nil {
		lines = []CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("forms: encode cart: %w", err)
	}
	schema, err := compiledCartSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("forms: normalize cart: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("forms: cart payload failed validation: %w", err)
	}
	return data, nil
}

// SetBillingStore records the order form's billing store selection for the
// mismatch guard.
func (b *OrderBuilder) SetBillingStore(id string) {
	b.mu.Lock()
	b.billingStore = id
	b.mu.Unlock()
}

// StoreMismatch reports whether the billing store and the builder's store
// both hold values and differ. While mismatched, every product-level control
// is disabled and the form shows a warning; neither field is auto-corrected
// — the operator reconciles manually.
func (b *OrderBuilder) StoreMismatch() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.storeMismatchLocked()
}

func (b *OrderBuilder) storeMismatchLocked() bool {
	if b.billingStore == "" || b.store == nil {
		return false
	}
	return b.billingStore != b.store.ID
}

// resetBelow clears every level under the given one. Callers hold the lock.
func (b *OrderBuilder) resetBelow(level Level) {
	if level <= LevelStore {
		b.product = nil
		b.products = nil
	}
	if level <= LevelProduct {
		b.variant = nil
		b.variants = nil
	}
	b.quantity = 1
}

func storeOptions(stores []restapi.Store) []Option {
	out := make([]Option, len(stores))
	for i, s := range stores {
		out[i] = Option{ID: strconv.FormatInt(s.ID, 10), Label: s.Name}
	}
	return out
}

func productOptions(products []restapi.Product) []Option {
	out := make([]Option, len(products))
	for i, p := range products {
		out[i] = Option{ID: strconv.FormatInt(p.ID, 10), Label: p.Name}
	}
	return out
}

func variantOptions(variants []restapi.Variant) []Option {
	out := make([]Option, len(variants))
	for i, v := range variants {
		label := v.OptionsDisplay
		if label == "" {
			label = "default"
		}
		out[i] = Option{
			ID:    strconv.FormatInt(v.ID, 10),
			Label: fmt.Sprintf("%s - %.2f", label, v.Price),
			Price: v.Price,
		}
	}
	return out
}

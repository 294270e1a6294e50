package forms

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-backoffice/pkg/restapi"
)

// CategoryAPI is the slice of the REST client the product form needs.
type CategoryAPI interface {
	CategoriesByStore(ctx context.Context, storeID int64) ([]restapi.Category, error)
}

// CategoryLoader repopulates the product form's category select whenever the
// store selection changes. The select stays disabled until a store is picked
// and its categories arrive; a store with no categories keeps it disabled.
type CategoryLoader struct {
	api CategoryAPI

	options []Option
	enabled bool
}

// NewCategoryLoader builds a loader over the catalog API.
func NewCategoryLoader(api CategoryAPI) *CategoryLoader {
	return &CategoryLoader{api: api}
}

// SelectStore reacts to a store change: the current categories clear and the
// select locks, then the new store's categories load. An empty id just
// clears. A fetch failure leaves the select disabled and returns the error;
// the form logs it without interrupting the operator.
func (l *CategoryLoader) SelectStore(ctx context.Context, storeID string) error {
	l.options = nil
	l.enabled = false
	if storeID == "" {
		return nil
	}
	id, err := strconv.ParseInt(storeID, 10, 64)
	if err != nil {
		return fmt.Errorf("forms: bad store id %q: %w", storeID, err)
	}
	categories, err := l.api.CategoriesByStore(ctx, id)
	if err != nil {
		return fmt.Errorf("forms: load categories: %w", err)
	}
	if len(categories) == 0 {
		return nil
	}
	l.options = make([]Option, len(categories))
	for i, c := range categories {
		l.options[i] = Option{ID: strconv.FormatInt(c.ID, 10), Label: c.Name}
	}
	l.enabled = true
	return nil
}

// Options returns the loaded category options.
func (l *CategoryLoader) Options() []Option {
	return append([]Option(nil), l.options...)
}

// Enabled reports whether the category select is interactive.
func (l *CategoryLoader) Enabled() bool {
	return l.enabled
}

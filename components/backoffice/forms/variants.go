package forms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
	"github.com/goliatone/go-backoffice/pkg/restapi"
)

// VariantAPI is the slice of the REST client the variant panel needs.
type VariantAPI interface {
	CreateVariant(ctx context.Context, productID int64, input restapi.CreateVariantInput) (restapi.Variant, error)
	DeleteVariant(ctx context.Context, variantID int64) error
}

// VariantInput is the raw field values of the inline variant form before
// normalization.
type VariantInput struct {
	Price         string
	SKU           string
	OptionsText   string
	CoverImageURL string
}

// VariantManager runs the product page's inline variant panel: it creates
// variants from the collapsible form, keeps the visible row list in sync,
// and deletes rows on request. Failures the operator triggered surface as
// notices rather than silent log lines.
type VariantManager struct {
	api       VariantAPI
	notices   *backoffice.NoticeCenter
	productID int64

	rows       []restapi.Variant
	formOpen   bool
	submitting bool
}

// NewVariantManager builds a manager for one product's panel.
func NewVariantManager(api VariantAPI, productID int64, notices *backoffice.NoticeCenter) *VariantManager {
	return &VariantManager{api: api, notices: notices, productID: productID}
}

// ToggleForm opens or closes the inline form. Closing resets nothing here;
// Cancel does.
func (m *VariantManager) ToggleForm() bool {
	m.formOpen = !m.formOpen
	return m.formOpen
}

// Cancel closes the form.
func (m *VariantManager) Cancel() {
	m.formOpen = false
}

// FormOpen reports whether the inline form is showing.
func (m *VariantManager) FormOpen() bool {
	return m.formOpen
}

// Submitting reports whether a create is in flight; the form disables its
// save button while true.
func (m *VariantManager) Submitting() bool {
	return m.submitting
}

// Submit normalizes the form fields, posts the new variant, and on success
// prepends it to the row list and closes the form. An unparsable price
// submits as zero, matching the form's lenient handling.
func (m *VariantManager) Submit(ctx context.Context, input VariantInput) (restapi.Variant, error) {
	if m.productID == 0 {
		m.notify(backoffice.NoticeDanger, "product identifier not found")
		return restapi.Variant{}, fmt.Errorf("forms: variant submit without product id")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(input.Price), 64)
	if err != nil {
		price = 0
	}
	payload := restapi.CreateVariantInput{
		Price:         price,
		SKU:           strings.TrimSpace(input.SKU),
		OptionsText:   input.OptionsText,
		CoverImageURL: strings.TrimSpace(input.CoverImageURL),
	}
	m.submitting = true
	variant, err := m.api.CreateVariant(ctx, m.productID, payload)
	m.submitting = false
	if err != nil {
		m.notify(backoffice.NoticeDanger, fmt.Sprintf("could not save variant: %v", err))
		return restapi.Variant{}, err
	}
	m.rows = append([]restapi.Variant{variant}, m.rows...)
	m.formOpen = false
	m.notify(backoffice.NoticeSuccess, "variant saved")
	return variant, nil
}

// Delete removes a variant remotely and drops its row on success.
func (m *VariantManager) Delete(ctx context.Context, variantID int64) error {
	if err := m.api.DeleteVariant(ctx, variantID); err != nil {
		m.notify(backoffice.NoticeDanger, fmt.Sprintf("could not delete variant: %v", err))
		return err
	}
	for i, row := range m.rows {
		if row.ID == variantID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	m.notify(backoffice.NoticeSuccess, "variant deleted")
	return nil
}

// SetRows seeds the row list from the server-rendered page.
func (m *VariantManager) SetRows(rows []restapi.Variant) {
	m.rows = append([]restapi.Variant(nil), rows...)
}

// Rows returns the visible variant rows, newest first.
func (m *VariantManager) Rows() []restapi.Variant {
	return append([]restapi.Variant(nil), m.rows...)
}

func (m *VariantManager) notify(level backoffice.NoticeLevel, message string) {
	if m.notices != nil {
		m.notices.Publish(level, message)
	}
}

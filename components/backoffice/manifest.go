package backoffice

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version.
	ManifestVersion = manifestVersionV1
)

// PageKind names a server-rendered page type the client layer binds to.
type PageKind string

const (
	PageDashboard   PageKind = "dashboard"
	PageOrdersList  PageKind = "orders_list"
	PageOrderDetail PageKind = "order_detail"
	PageOrderForm   PageKind = "order_form"
	PageProductForm PageKind = "product_form"
	PagePricingForm PageKind = "pricing_form"
	PageUserForm    PageKind = "user_form"
)

// PageManifest declares, per page kind, which anchor regions the templates
// emit and which realtime channels to open. Pages not listed carry nothing;
// controllers probing for an absent region stay no-ops.
type PageManifest struct {
	Version string      `json:"version" yaml:"version"`
	Pages   []PageEntry `json:"pages" yaml:"pages"`
	Source  string      `json:"-" yaml:"-"`
}

// PageEntry is one page kind's declaration.
type PageEntry struct {
	Kind     PageKind `json:"kind" yaml:"kind"`
	Regions  []string `json:"regions,omitempty" yaml:"regions,omitempty"`
	Channels []string `json:"channels,omitempty" yaml:"channels,omitempty"`
}

// HasRegion reports whether the entry declares a region.
func (e PageEntry) HasRegion(name string) bool {
	for _, r := range e.Regions {
		if r == name {
			return true
		}
	}
	return false
}

// Page returns the entry for a kind.
func (m *PageManifest) Page(kind PageKind) (PageEntry, bool) {
	for _, p := range m.Pages {
		if p.Kind == kind {
			return p, true
		}
	}
	return PageEntry{}, false
}

// ReadManifestFile loads a manifest from disk.
func ReadManifestFile(path string) (*PageManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("backoffice: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("backoffice: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest parses manifest YAML (JSON being a YAML subset).
func DecodeManifest(r io.Reader) (*PageManifest, error) {
	var doc PageManifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Version != manifestVersionV1 {
		return nil, fmt.Errorf("unsupported manifest version %q", doc.Version)
	}
	for i, page := range doc.Pages {
		if page.Kind == "" {
			return nil, fmt.Errorf("page entry %d is missing a kind", i)
		}
	}
	return &doc, nil
}

// DefaultManifest mirrors the templates shipped with the admin: which regions
// each page emits and the channels it opens.
func DefaultManifest() *PageManifest {
	return &PageManifest{
		Version: manifestVersionV1,
		Pages: []PageEntry{
			{Kind: PageDashboard, Regions: []string{"stats", "recent_orders", "orders_chart"}, Channels: []string{"dashboard"}},
			{Kind: PageOrdersList, Regions: []string{"orders_table", "count_badge"}, Channels: []string{"orders_list"}},
			{Kind: PageOrderDetail, Regions: []string{"driver_map"}, Channels: []string{"order_tracking"}},
			{Kind: PageOrderForm, Regions: []string{"order_builder", "shipping_snapshot"}},
			{Kind: PageProductForm, Regions: []string{"category_select", "variant_form"}},
			{Kind: PagePricingForm, Regions: []string{"pricing_fields"}},
			{Kind: PageUserForm, Regions: []string{"role_sections"}},
		},
	}
}

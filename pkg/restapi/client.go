// Package restapi is the typed client for the dashboard's REST endpoints:
// catalog lookups used by the form controllers plus the variant CRUD calls.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// Config configures the REST client.
type Config struct {
	// BaseURL is the page origin, e.g. https://admin.example.com.
	BaseURL string
	// CSRFToken is sent on mutating calls. When empty, the client falls back
	// to the csrftoken cookie from its jar, the way the page scripts read it.
	CSRFToken  string
	HTTPClient *http.Client
}

// Client talks to the dashboard REST API with same-origin credentials.
type Client struct {
	baseURL   string
	csrfToken string
	client    *http.Client
}

// NewClient builds a client with a cookie jar and a 10s timeout unless a
// custom http.Client is supplied.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("restapi: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("restapi: cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: 10 * time.Second, Jar: jar}
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		csrfToken: cfg.CSRFToken,
		client:    httpClient,
	}, nil
}

// Store is a selectable store.
type Store struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a selectable product within a store.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Variant is a purchasable product variant.
type Variant struct {
	ID             int64   `json:"id"`
	Price          float64 `json:"price"`
	SKU            string  `json:"sku,omitempty"`
	OptionsDisplay string  `json:"options_display,omitempty"`
}

// Category is a store-scoped product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Stores lists the stores the operator may order for.
func (c *Client) Stores(ctx context.Context) ([]Store, error) {
	var resp struct {
		Stores []Store `json:"stores"`
	}
	if err := c.get(ctx, "/dashboard/api/stores/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stores, nil
}

// ProductsByStore lists a store's products.
func (c *Client) ProductsByStore(ctx context.Context, storeID int64) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	q := url.Values{"store_id": {fmt.Sprint(storeID)}}
	if err := c.get(ctx, "/dashboard/api/products-by-store/", q, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// VariantsByProduct lists a product's variants.
func (c *Client) VariantsByProduct(ctx context.Context, productID int64) ([]Variant, error) {
	var resp struct {
		Variants []Variant `json:"variants"`
	}
	q := url.Values{"product_id": {fmt.Sprint(productID)}}
	if err := c.get(ctx, "/dashboard/api/product-variants/", q, &resp); err != nil {
		return nil, err
	}
	return resp.Variants, nil
}

// CategoriesByStore lists a store's categories.
func (c *Client) CategoriesByStore(ctx context.Context, storeID int64) ([]Category, error) {
	var resp struct {
		Categories []Category `json:"categories"`
	}
	q := url.Values{"store_id": {fmt.Sprint(storeID)}}
	if err := c.get(ctx, "/dashboard/api/categories-by-store/", q, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// CreateVariantInput carries the variant form fields.
type CreateVariantInput struct {
	Price         float64 `json:"price"`
	SKU           string  `json:"sku,omitempty"`
	OptionsText   string  `json:"options_text,omitempty"`
	CoverImageURL string  `json:"cover_image_url,omitempty"`
}

// CreateVariant posts a new variant for a product.
func (c *Client) CreateVariant(ctx context.Context, productID int64, input CreateVariantInput) (Variant, error) {
	var variant Variant
	path := fmt.Sprintf("/api/products/%d/variants/", productID)
	if err := c.do(ctx, http.MethodPost, path, input, &variant); err != nil {
		return Variant{}, err
	}
	return variant, nil
}

// DeleteVariant removes a variant.
func (c *Client) DeleteVariant(ctx context.Context, variantID int64) error {
	path := fmt.Sprintf("/api/products/variants/%d/", variantID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("restapi: build request: %w", err)
	}
	return c.send(req, target)
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("restapi: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("restapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.csrf(req.URL); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}
	return c.send(req, target)
}

func (c *Client) send(req *http.Request, target any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("restapi: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("restapi: remote error %d: %s", resp.StatusCode, buf.String())
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("restapi: decode response: %w", err)
	}
	return nil
}

// csrf resolves the token: the configured one wins, then the csrftoken
// cookie for the request host.
func (c *Client) csrf(u *url.URL) string {
	if c.csrfToken != "" {
		return c.csrfToken
	}
	if c.client.Jar == nil {
		return ""
	}
	for _, cookie := range c.client.Jar.Cookies(u) {
		if cookie.Name == "csrftoken" {
			return cookie.Value
		}
	}
	return ""
}

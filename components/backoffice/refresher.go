package backoffice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const refreshHighlightFor = 2 * time.Second

// TableRefresher implements the fallback path: it re-requests the current
// page URL (query string included, so filters/sort/pagination survive),
// extracts the orders table body and count badge from the returned document,
// and swaps them into the page model. Missing elements on either side make
// the whole operation a silent no-op.
type TableRefresher struct {
	pageURL   string
	client    *http.Client
	page      *Page
	clock     Clock
	telemetry Telemetry
}

// RefresherOptions configures a TableRefresher.
type RefresherOptions struct {
	PageURL    string
	HTTPClient *http.Client
	Page       *Page
	Clock      Clock
	Telemetry  Telemetry
}

// NewTableRefresher builds a refresher with safe defaults.
func NewTableRefresher(opts RefresherOptions) *TableRefresher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Page == nil {
		opts.Page = &Page{}
	}
	return &TableRefresher{
		pageURL:   opts.PageURL,
		client:    client,
		page:      opts.Page,
		clock:     normalizeClock(opts.Clock),
		telemetry: normalizeTelemetry(opts.Telemetry),
	}
}

// Refresh re-fetches the page and swaps the table body in place. Errors are
// returned for the caller to record; they are never user-facing.
func (r *TableRefresher) Refresh(ctx context.Context, highlightOrderID string) error {
	if r.page.Orders == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.pageURL, nil)
	if err != nil {
		return fmt.Errorf("backoffice: build refresh request: %w", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("backoffice: refresh fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backoffice: refresh fetch: status %d", resp.StatusCode)
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("backoffice: parse refreshed page: %w", err)
	}

	tbody := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "tbody" && hasAncestorClass(n, "table")
	})
	if tbody == nil {
		return nil
	}
	r.page.Orders.ReplaceAll(parseOrderRows(tbody))

	if r.page.Count != nil {
		if badge := findNode(doc, func(n *html.Node) bool {
			return hasClass(n, "badge") && hasAncestorClass(n, "card-header")
		}); badge != nil {
			r.page.Count.Set(strings.TrimSpace(nodeText(badge)))
		}
	}

	if highlightOrderID != "" {
		r.page.Orders.Highlight(highlightOrderID, refreshHighlightFor)
	}
	r.telemetry.Record(ctx, "backoffice.refresh.applied", map[string]any{
		"rows":     r.page.Orders.Len(),
		"order_id": highlightOrderID,
	})
	return nil
}

// parseOrderRows converts tbody tr elements into rows. Cell positions follow
// the orders list template: id, customer, store, items, amount, status
// badges, created. Out-of-shape rows keep whatever cells they have.
func parseOrderRows(tbody *html.Node) []OrderRow {
	var rows []OrderRow
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != html.ElementNode || tr.Data != "tr" {
			continue
		}
		row := OrderRow{ID: attrValue(tr, "data-order-id")}
		var cells []*html.Node
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if td.Type == html.ElementNode && td.Data == "td" {
				cells = append(cells, td)
			}
		}
		if row.ID == "" && len(cells) > 0 {
			row.ID = strings.TrimPrefix(strings.TrimSpace(nodeText(cells[0])), "#")
		}
		if len(cells) > 1 {
			row.Customer = strings.TrimSpace(nodeText(cells[1]))
		}
		if len(cells) > 2 {
			row.Store = strings.TrimSpace(nodeText(cells[2]))
		}
		if len(cells) > 4 {
			row.Total = strings.TrimSpace(nodeText(cells[4]))
		}
		if len(cells) > 5 {
			badges := findNodes(cells[5], func(n *html.Node) bool { return hasClass(n, "badge") })
			if len(badges) > 0 {
				row.Payment = Badge{Variant: "secondary", Label: strings.TrimSpace(nodeText(badges[0]))}
			}
			if len(badges) > 1 {
				row.Fulfillment = Badge{Variant: "secondary", Label: strings.TrimSpace(nodeText(badges[1]))}
			}
		}
		if len(cells) > 6 {
			row.Created = strings.TrimSpace(nodeText(cells[6]))
		}
		rows = append(rows, row)
	}
	return rows
}

func findNode(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func findNodes(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	if pred(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findNodes(c, pred)...)
	}
	return out
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func hasAncestorClass(n *html.Node, class string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if hasClass(p, class) {
			return true
		}
	}
	return false
}

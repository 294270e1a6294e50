package backoffice

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const ordersChartHeight = "360px"

// OrdersChart renders the orders-by-day line chart and memoizes the markup
// until the series changes or a new order marks it stale.
type OrdersChart struct {
	mu       sync.Mutex
	labels   []string
	values   []float64
	theme    string
	title    string
	html     string
	stale    bool
	rendered time.Time
	ttl      time.Duration
	clock    Clock
}

// OrdersChartOption customizes the chart.
type OrdersChartOption func(*OrdersChart)

// WithChartTheme overrides the default theme.
func WithChartTheme(theme string) OrdersChartOption {
	return func(c *OrdersChart) { c.theme = theme }
}

// WithChartTTL bounds how long cached markup is served even without
// invalidation.
func WithChartTTL(ttl time.Duration) OrdersChartOption {
	return func(c *OrdersChart) { c.ttl = ttl }
}

// WithChartClock injects a clock for the TTL bookkeeping.
func WithChartClock(clock Clock) OrdersChartOption {
	return func(c *OrdersChart) { c.clock = clock }
}

// NewOrdersChart builds an empty chart.
func NewOrdersChart(title string, options ...OrdersChartOption) *OrdersChart {
	c := &OrdersChart{
		title: title,
		theme: types.ThemeWesteros,
		ttl:   5 * time.Minute,
		stale: true,
		clock: systemClock{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SetSeries replaces the plotted data and invalidates the cached markup.
func (c *OrdersChart) SetSeries(labels []string, values []float64) {
	c.mu.Lock()
	c.labels = append([]string(nil), labels...)
	c.values = append([]float64(nil), values...)
	c.stale = true
	c.mu.Unlock()
}

// MarkStale invalidates the cached markup; the next Render re-draws. This is
// the hook the dispatcher pulls on new_order.
func (c *OrdersChart) MarkStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Render returns the chart HTML, re-rendering when stale or past the TTL.
func (c *OrdersChart) Render() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stale && c.html != "" && c.clock.Now().Sub(c.rendered) < c.ttl {
		return c.html, nil
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: c.title}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  c.theme,
			Width:  "100%",
			Height: ordersChartHeight,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(c.labels)
	points := make([]opts.LineData, len(c.values))
	for i, v := range c.values {
		points[i] = opts.LineData{Value: v}
	}
	line.AddSeries("orders", points)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("backoffice: render orders chart: %w", err)
	}
	c.html = buf.String()
	c.stale = false
	c.rendered = c.clock.Now()
	return c.html, nil
}

// Stale reports whether the next Render will re-draw.
func (c *OrdersChart) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

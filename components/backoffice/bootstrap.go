package backoffice

import (
	"context"
	"fmt"
)

// Controller is a page-scoped feature that binds to anchor regions. Probe
// reports whether the page carries the controller's anchors; Init only runs
// on a successful probe.
type Controller interface {
	Name() string
	Probe(entry PageEntry) bool
	Init(ctx context.Context) error
}

// Bootstrap initializes every controller that probes true for the page
// entry. Controllers are isolated: a failing or panicking Init is recorded
// and the rest still run, the same way each script guards its own init.
func Bootstrap(ctx context.Context, entry PageEntry, telemetry Telemetry, controllers ...Controller) {
	telemetry = normalizeTelemetry(telemetry)
	for _, c := range controllers {
		if c == nil || !c.Probe(entry) {
			continue
		}
		if err := safeInit(ctx, c); err != nil {
			telemetry.Record(ctx, "backoffice.controller.init_error", map[string]any{
				"controller": c.Name(),
				"error":      err.Error(),
			})
			continue
		}
		telemetry.Record(ctx, "backoffice.controller.ready", map[string]any{
			"controller": c.Name(),
		})
	}
}

// ControllerFunc adapts a plain init func into a Controller bound to one
// anchor region.
type ControllerFunc struct {
	name   string
	region string
	init   func(ctx context.Context) error
}

// NewController builds a region-bound controller from a func.
func NewController(name, region string, init func(ctx context.Context) error) ControllerFunc {
	return ControllerFunc{name: name, region: region, init: init}
}

// Name returns the controller name.
func (c ControllerFunc) Name() string { return c.name }

// Probe reports whether the page declares the controller's region.
func (c ControllerFunc) Probe(entry PageEntry) bool { return entry.HasRegion(c.region) }

// Init runs the wrapped func.
func (c ControllerFunc) Init(ctx context.Context) error {
	if c.init == nil {
		return nil
	}
	return c.init(ctx)
}

func safeInit(ctx context.Context, c Controller) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backoffice: controller %s panicked: %v", c.Name(), r)
		}
	}()
	return c.Init(ctx)
}

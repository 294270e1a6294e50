// Package tracking models the live driver map on the order detail page: a
// single marker fed by a location stream, with a one-shot recenter on the
// first valid fix.
package tracking

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"
)

// Fix is one decoded driver position. Lat/Lng are always finite; Speed,
// Heading and TS are optional.
type Fix struct {
	Lat     float64
	Lng     float64
	Speed   *float64
	Heading *float64
	TS      *time.Time
}

type locationEvent struct {
	Event   string   `json:"event"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Speed   *float64 `json:"speed"`
	Heading *float64 `json:"heading"`
	TS      *int64   `json:"ts"`
}

// DecodeFix parses an order-channel frame. It returns false for frames that
// are not location updates or whose coordinates are missing or non-finite;
// such frames are discarded, never an error for the stream.
func DecodeFix(raw []byte) (Fix, bool) {
	var evt locationEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return Fix{}, false
	}
	if evt.Event != "location_update" || evt.Lat == nil || evt.Lng == nil {
		return Fix{}, false
	}
	if !finite(*evt.Lat) || !finite(*evt.Lng) {
		return Fix{}, false
	}
	fix := Fix{Lat: *evt.Lat, Lng: *evt.Lng, Speed: evt.Speed, Heading: evt.Heading}
	if evt.TS != nil {
		ts := time.UnixMilli(*evt.TS)
		fix.TS = &ts
	}
	return fix, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LatLng is a map coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// Marker is the driver marker: position plus rotation in degrees [0,360).
type Marker struct {
	Position LatLng
	Rotation float64
}

const (
	defaultZoom  = 12
	firstFixZoom = 15
)

// DefaultCenter is the initial map center before any fix arrives.
var DefaultCenter = LatLng{Lat: 24.7136, Lng: 46.6753}

// MapView holds the map state the tracking channel patches. The first valid
// fix recenters and zooms once; later fixes only move the marker.
type MapView struct {
	mu       sync.RWMutex
	marker   *Marker
	center   LatLng
	zoom     int
	firstFix bool
	status   string
}

// NewMapView builds a view at the default center and zoom.
func NewMapView() *MapView {
	return &MapView{
		center:   DefaultCenter,
		zoom:     defaultZoom,
		firstFix: true,
		status:   "connecting",
	}
}

// Apply moves the marker to the fix, recentering on the very first one.
func (m *MapView) Apply(fix Fix) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := LatLng{Lat: fix.Lat, Lng: fix.Lng}
	if m.marker == nil {
		m.marker = &Marker{Position: pos}
	} else {
		m.marker.Position = pos
	}
	if fix.Heading != nil {
		m.marker.Rotation = normalizeHeading(*fix.Heading)
	}
	if m.firstFix {
		m.center = pos
		m.zoom = firstFixZoom
		m.firstFix = false
	}
	m.status = statusLine(fix)
}

// SetStatus overwrites the status line (used by lifecycle callbacks).
func (m *MapView) SetStatus(status string) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

// Marker returns the current marker, or false before the first fix.
func (m *MapView) Marker() (Marker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.marker == nil {
		return Marker{}, false
	}
	return *m.marker, true
}

// Center returns the current map center and zoom.
func (m *MapView) Center() (LatLng, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.center, m.zoom
}

// Status returns the current status line.
func (m *MapView) Status() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func normalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func statusLine(fix Fix) string {
	s := fmt.Sprintf("driver at %.6f, %.6f", fix.Lat, fix.Lng)
	if fix.Speed != nil {
		s += fmt.Sprintf(" | speed %.1f m/s", *fix.Speed)
	}
	if fix.Heading != nil {
		s += fmt.Sprintf(" | heading %.0f°", normalizeHeading(*fix.Heading))
	}
	if fix.TS != nil {
		s += " | last update " + fix.TS.Format(time.RFC3339)
	}
	return s
}

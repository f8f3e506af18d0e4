// Package mapsession owns a visitor's map canvas state: the view and the set
// of overlays (office markers, the search marker and the route path).
//
// The overlay set is an explicit collection of descriptors. The browser
// reconciles its map against Snapshot(); nothing here talks to a rendering
// surface, so the overlay invariants are checkable without one.
package mapsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/evcraddock/courier-site/internal/geo"
	"github.com/evcraddock/courier-site/internal/maps"
	"github.com/evcraddock/courier-site/internal/office"
)

// SearchTransition is the animated pan/zoom duration used when showing a search result.
const SearchTransition = 500 * time.Millisecond

var (
	// ErrStale is returned when a newer action was issued after the ticket
	// was taken. The result is discarded.
	ErrStale = errors.New("superseded by a newer request")

	// ErrUnknownOverlay is returned by Click for ids that are not clickable markers.
	ErrUnknownOverlay = errors.New("unknown overlay")

	// ErrNotLive is returned by drawing operations before Initialize succeeded.
	ErrNotLive = errors.New("map session is not initialized")
)

// OverlayKind identifies what an overlay draws.
type OverlayKind string

const (
	KindOfficeMarker OverlayKind = "office-marker"
	KindSearchMarker OverlayKind = "search-marker"
	KindRoute        OverlayKind = "route"
)

const (
	searchOverlayID = "search"
	routeOverlayID  = "route"
)

// Overlay is a drawable map object.
type Overlay struct {
	ID        string           `json:"id"`
	Kind      OverlayKind      `json:"kind"`
	OfficeID  string           `json:"office_id,omitempty"`
	Label     string           `json:"label,omitempty"`
	Position  *geo.Coordinate  `json:"position,omitempty"`
	Path      []geo.Coordinate `json:"path,omitempty"`
	Clickable bool             `json:"clickable"`
}

// View is the camera. Bounds, when set, takes precedence over Center/Zoom.
type View struct {
	Center       geo.Coordinate `json:"center"`
	Zoom         int            `json:"zoom"`
	Bounds       *geo.Bounds    `json:"bounds,omitempty"`
	TransitionMS int64          `json:"transition_ms"`
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Live     bool      `json:"live"`
	Revision uint64    `json:"revision"`
	View     View      `json:"view"`
	Overlays []Overlay `json:"overlays"`
}

// Provider is the geocoding and routing capability the binding needs.
// *maps.Client implements it.
type Provider interface {
	Geocode(ctx context.Context, query string) (maps.Place, error)
	Route(ctx context.Context, from, to geo.Coordinate) (maps.Route, error)
}

// Ticket orders asynchronous actions. Only the most recently issued ticket
// may mutate the session.
type Ticket uint64

// Binding mediates every drawing operation on one map session.
// It is safe for concurrent use.
type Binding struct {
	provider Provider
	registry *office.Registry
	onSelect func(officeID string)

	mu          sync.Mutex
	live        bool
	revision    uint64
	seq         uint64
	defaultView View
	view        View
	overlays    []Overlay
}

// NewBinding creates a binding. provider may be nil when the map provider
// is unavailable; Initialize is then a no-op. onSelect receives the office
// id of every clicked marker and may be nil.
func NewBinding(provider Provider, registry *office.Registry, onSelect func(officeID string)) *Binding {
	return &Binding{
		provider: provider,
		registry: registry,
		onSelect: onSelect,
	}
}

// Initialize creates the canvas once and places one clickable marker per
// office. Calls on a live session, or without a provider, do nothing.
func (b *Binding) Initialize(center geo.Coordinate, zoom int, offices []office.Office) {
	if b.provider == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.live {
		return
	}

	b.defaultView = View{Center: center, Zoom: zoom}
	b.view = b.defaultView
	b.overlays = officeMarkers(offices)
	b.live = true
	b.revision++
}

// Live reports whether Initialize has created the canvas.
func (b *Binding) Live() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Begin issues a new ticket, superseding every earlier one.
func (b *Binding) Begin() Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return Ticket(b.seq)
}

// Current reports whether t is still the latest ticket.
func (b *Binding) Current(t Ticket) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Ticket(b.seq) == t
}

// Geocode resolves query through the provider. A query with no match
// returns an error wrapping maps.ErrNotFound.
func (b *Binding) Geocode(ctx context.Context, query string) (maps.Place, error) {
	if b.provider == nil {
		return maps.Place{}, ErrNotLive
	}
	return b.provider.Geocode(ctx, query)
}

// ShowSearchMarker replaces the search marker with one at place and fits the
// view to the place bounds.
func (b *Binding) ShowSearchMarker(t Ticket, place maps.Place) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.live {
		return ErrNotLive
	}
	if Ticket(b.seq) != t {
		return ErrStale
	}

	b.removeKind(KindSearchMarker)

	pos := place.Location
	b.overlays = append(b.overlays, Overlay{
		ID:       searchOverlayID,
		Kind:     KindSearchMarker,
		Label:    place.Label,
		Position: &pos,
	})

	bounds := place.Bounds
	b.view = View{
		Center:       place.Location,
		Zoom:         b.view.Zoom,
		Bounds:       &bounds,
		TransitionMS: SearchTransition.Milliseconds(),
	}
	b.revision++
	return nil
}

// DrawRoute requests a driving route from origin to dest. On success every
// overlay is replaced by the route path plus a fresh marker for each
// registry office. On failure, or when t has been superseded, the session
// is left untouched.
func (b *Binding) DrawRoute(ctx context.Context, t Ticket, origin geo.Coordinate, dest office.Office) (maps.Route, error) {
	if !b.Live() {
		return maps.Route{}, ErrNotLive
	}

	route, err := b.provider.Route(ctx, origin, dest.Location)
	if err != nil {
		return maps.Route{}, fmt.Errorf("routing to %s: %w", dest.ID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if Ticket(b.seq) != t {
		return maps.Route{}, ErrStale
	}

	overlays := []Overlay{{
		ID:       routeOverlayID,
		Kind:     KindRoute,
		OfficeID: dest.ID,
		Label:    dest.City,
		Path:     append([]geo.Coordinate(nil), route.Path...),
	}}
	b.overlays = append(overlays, officeMarkers(b.registry.All())...)

	points := make([]geo.Coordinate, 0, len(route.Path)+2)
	points = append(points, origin, dest.Location)
	bounds := geo.BoundsOf(append(points, route.Path...)...)
	b.view = View{Center: bounds.Center(), Zoom: b.view.Zoom, Bounds: &bounds}
	b.revision++
	return route, nil
}

// ResetToDefaultView clears all overlays, re-places the default office
// markers and restores the initial camera. In-flight actions are superseded.
func (b *Binding) ResetToDefaultView() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	if !b.live {
		return
	}

	b.overlays = officeMarkers(b.registry.All())
	b.view = b.defaultView
	b.revision++
}

// Click handles a marker click and reports its office to the selection callback.
func (b *Binding) Click(overlayID string) (string, error) {
	b.mu.Lock()
	var officeID string
	for _, o := range b.overlays {
		if o.ID == overlayID && o.Clickable {
			officeID = o.OfficeID
			break
		}
	}
	b.mu.Unlock()

	if officeID == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownOverlay, overlayID)
	}
	if b.onSelect != nil {
		b.onSelect(officeID)
	}
	return officeID, nil
}

// Snapshot returns a deep copy of the session.
func (b *Binding) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		Live:     b.live,
		Revision: b.revision,
		View:     b.view,
		Overlays: make([]Overlay, len(b.overlays)),
	}
	if b.view.Bounds != nil {
		bounds := *b.view.Bounds
		s.View.Bounds = &bounds
	}
	for i, o := range b.overlays {
		if o.Position != nil {
			pos := *o.Position
			o.Position = &pos
		}
		o.Path = append([]geo.Coordinate(nil), o.Path...)
		s.Overlays[i] = o
	}
	return s
}

// removeKind drops every overlay of kind k. Callers hold b.mu.
func (b *Binding) removeKind(k OverlayKind) {
	kept := b.overlays[:0]
	for _, o := range b.overlays {
		if o.Kind != k {
			kept = append(kept, o)
		}
	}
	b.overlays = kept
}

func officeMarkers(offices []office.Office) []Overlay {
	out := make([]Overlay, len(offices))
	for i, o := range offices {
		pos := o.Location
		out[i] = Overlay{
			ID:        "office:" + o.ID,
			Kind:      KindOfficeMarker,
			OfficeID:  o.ID,
			Label:     o.City,
			Position:  &pos,
			Clickable: true,
		}
	}
	return out
}

// Count returns how many overlays of kind k are present.
func (s Snapshot) Count(k OverlayKind) int {
	n := 0
	for _, o := range s.Overlays {
		if o.Kind == k {
			n++
		}
	}
	return n
}

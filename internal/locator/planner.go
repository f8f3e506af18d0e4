// Package locator implements the office locator: free-text location search,
// route planning to an office, and the selection/route-mode UI state around
// one map session.
package locator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/evcraddock/courier-site/internal/geo"
	"github.com/evcraddock/courier-site/internal/maps"
	"github.com/evcraddock/courier-site/internal/mapsession"
	"github.com/evcraddock/courier-site/internal/office"
)

// NoticeKind classifies a user-facing message.
type NoticeKind string

const (
	NoticeValidation NoticeKind = "validation"
	NoticeNotFound   NoticeKind = "not-found"
	NoticeTransport  NoticeKind = "transport"
)

// User-facing messages.
const (
	MsgEnterAddress   = "Please enter an address."
	MsgUnknownOffice  = "Unknown office."
	MsgAddressMissing = "Address not found."
	MsgSearchFailed   = "Search failed, please try again."
	MsgNoRoute        = "No route found to this office."
	MsgRouteFailed    = "Route planning failed, please try again."
)

// ErrUnknownOffice is returned by Select for ids not in the registry.
var ErrUnknownOffice = errors.New("unknown office")

// Notice is an inline message shown next to the search box.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// State is the UI state shown alongside the map.
type State struct {
	RouteMode        bool    `json:"route_mode"`
	SelectedOfficeID string  `json:"selected_office_id,omitempty"`
	Notice           *Notice `json:"notice,omitempty"`
}

// Outcome reports what a Search or PlanRoute call did.
type Outcome struct {
	// Applied is true when the map was updated.
	Applied bool `json:"applied"`
	// Superseded is true when a newer action overtook this one and its
	// result was dropped.
	Superseded bool        `json:"superseded,omitempty"`
	Notice     *Notice     `json:"notice,omitempty"`
	Place      *maps.Place `json:"place,omitempty"`
	Route      *maps.Route `json:"route,omitempty"`
}

// Planner drives one map session on behalf of one visitor.
type Planner struct {
	registry *office.Registry
	binding  *mapsession.Binding
	log      *slog.Logger

	mu    sync.Mutex
	state State
}

// NewPlanner creates a planner with its own map binding. provider may be nil
// when the map provider is unavailable.
func NewPlanner(provider mapsession.Provider, registry *office.Registry, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	p := &Planner{registry: registry, log: log}
	p.binding = mapsession.NewBinding(provider, registry, func(officeID string) {
		if err := p.Select(officeID); err != nil {
			p.log.Warn("marker click for unknown office", "office_id", officeID, "error", err)
		}
	})
	return p
}

// Mount initializes the map with the default view if it is not live yet.
func (p *Planner) Mount(center geo.Coordinate, zoom int) {
	p.binding.Initialize(center, zoom, p.registry.All())
}

// Binding exposes the underlying map binding.
func (p *Planner) Binding() *mapsession.Binding {
	return p.binding
}

// State returns a copy of the UI state.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	if s.Notice != nil {
		n := *s.Notice
		s.Notice = &n
	}
	return s
}

// Search geocodes query and marks the best match on the map.
func (p *Planner) Search(ctx context.Context, query string) Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return p.fail(&Notice{Kind: NoticeValidation, Message: MsgEnterAddress})
	}

	ticket := p.binding.Begin()

	place, err := p.binding.Geocode(ctx, query)
	if err != nil {
		if !p.binding.Current(ticket) {
			return Outcome{Superseded: true}
		}
		return p.fail(p.classify(err, "search", MsgAddressMissing, MsgSearchFailed))
	}

	if err := p.binding.ShowSearchMarker(ticket, place); err != nil {
		if errors.Is(err, mapsession.ErrStale) {
			return Outcome{Superseded: true}
		}
		return p.fail(p.classify(err, "search", MsgAddressMissing, MsgSearchFailed))
	}

	p.setNotice(nil)
	return Outcome{Applied: true, Place: &place}
}

// PlanRoute geocodes query as the origin and draws a driving route to the
// office. Route mode is switched on only when the route was drawn.
func (p *Planner) PlanRoute(ctx context.Context, query, officeID string) Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return p.fail(&Notice{Kind: NoticeValidation, Message: MsgEnterAddress})
	}

	dest, ok := p.registry.Lookup(officeID)
	if !ok {
		return p.fail(&Notice{Kind: NoticeValidation, Message: MsgUnknownOffice})
	}

	ticket := p.binding.Begin()

	origin, err := p.binding.Geocode(ctx, query)
	if err != nil {
		if !p.binding.Current(ticket) {
			return Outcome{Superseded: true}
		}
		return p.fail(p.classify(err, "route origin", MsgAddressMissing, MsgSearchFailed))
	}

	route, err := p.binding.DrawRoute(ctx, ticket, origin.Location, dest)
	if err != nil {
		if errors.Is(err, mapsession.ErrStale) || !p.binding.Current(ticket) {
			return Outcome{Superseded: true}
		}
		return p.fail(p.classify(err, "route", MsgNoRoute, MsgRouteFailed))
	}

	p.mu.Lock()
	// A reset between drawing and here already cleared the route.
	if p.binding.Current(ticket) {
		p.state.RouteMode = true
		p.state.Notice = nil
	}
	p.mu.Unlock()

	return Outcome{Applied: true, Place: &origin, Route: &route}
}

// Reset restores the default marker view and leaves route mode.
func (p *Planner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.binding.ResetToDefaultView()
	p.state.RouteMode = false
	p.state.Notice = nil
}

// Select opens the detail panel for an office.
func (p *Planner) Select(officeID string) error {
	if _, ok := p.registry.Lookup(officeID); !ok {
		return ErrUnknownOffice
	}
	p.mu.Lock()
	p.state.SelectedOfficeID = officeID
	p.mu.Unlock()
	return nil
}

// Dismiss closes the detail panel.
func (p *Planner) Dismiss() {
	p.mu.Lock()
	p.state.SelectedOfficeID = ""
	p.mu.Unlock()
}

// SelectedOffice resolves the selected office against the registry.
func (p *Planner) SelectedOffice() (office.Office, bool) {
	id := p.State().SelectedOfficeID
	if id == "" {
		return office.Office{}, false
	}
	return p.registry.Lookup(id)
}

// classify maps a provider error onto a notice. Not-found is an expected
// outcome; only transport failures are logged.
func (p *Planner) classify(err error, op, notFoundMsg, failedMsg string) *Notice {
	if errors.Is(err, maps.ErrNotFound) {
		return &Notice{Kind: NoticeNotFound, Message: notFoundMsg}
	}
	p.log.Warn("map provider call failed", "op", op, "error", err)
	return &Notice{Kind: NoticeTransport, Message: failedMsg}
}

func (p *Planner) fail(n *Notice) Outcome {
	p.setNotice(n)
	return Outcome{Notice: n}
}

func (p *Planner) setNotice(n *Notice) {
	p.mu.Lock()
	p.state.Notice = n
	p.mu.Unlock()
}

package web

import (
	"errors"
	"net/http"

	"github.com/evcraddock/courier-site/internal/locator"
	"github.com/evcraddock/courier-site/internal/mapsession"
	"github.com/evcraddock/courier-site/internal/office"
	"github.com/evcraddock/courier-site/internal/session"
)

// mapResponse is what the browser reconciles its map against.
type mapResponse struct {
	Available bool                `json:"available"`
	Session   mapsession.Snapshot `json:"session"`
	State     locator.State       `json:"state"`
	Selected  *office.Office      `json:"selected,omitempty"`
	Outcome   *locator.Outcome    `json:"outcome,omitempty"`
}

func (s *Server) mapState(v *session.Visitor, outcome *locator.Outcome) mapResponse {
	resp := mapResponse{
		Available: s.mapAvailable,
		Session:   v.Planner.Binding().Snapshot(),
		State:     v.Planner.State(),
		Outcome:   outcome,
	}
	if o, ok := v.Planner.SelectedOffice(); ok {
		resp.Selected = &o
	}
	return resp
}

// apiMap mounts the visitor's map if needed and returns its state.
func (s *Server) apiMap(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	s.mount(v)
	apiJSON(w, s.mapState(v, nil), http.StatusOK)
}

// apiSearch geocodes a free-text location and marks it on the map.
func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	if !s.mapAvailable {
		apiError(w, "map provider unavailable", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	v := s.visitor(w, r)
	s.mount(v)
	outcome := v.Planner.Search(r.Context(), req.Query)
	apiJSON(w, s.mapState(v, &outcome), http.StatusOK)
}

// apiRoute plans a driving route from a free-text origin to an office.
func (s *Server) apiRoute(w http.ResponseWriter, r *http.Request) {
	if !s.mapAvailable {
		apiError(w, "map provider unavailable", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Query    string `json:"query"`
		OfficeID string `json:"office_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if _, ok := s.registry.Lookup(req.OfficeID); !ok {
		apiError(w, "office not found", http.StatusNotFound)
		return
	}

	v := s.visitor(w, r)
	s.mount(v)
	outcome := v.Planner.PlanRoute(r.Context(), req.Query, req.OfficeID)
	apiJSON(w, s.mapState(v, &outcome), http.StatusOK)
}

// apiReset restores the default office markers and leaves route mode.
func (s *Server) apiReset(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	v.Planner.Reset()
	apiJSON(w, s.mapState(v, nil), http.StatusOK)
}

// apiMarkerClick selects the office behind a clicked marker.
func (s *Server) apiMarkerClick(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	if _, err := v.Planner.Binding().Click(r.PathValue("overlay")); err != nil {
		if errors.Is(err, mapsession.ErrUnknownOverlay) {
			apiError(w, "marker not found", http.StatusNotFound)
			return
		}
		apiError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	apiJSON(w, s.mapState(v, nil), http.StatusOK)
}

// apiDismiss closes the office detail panel.
func (s *Server) apiDismiss(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	v.Planner.Dismiss()
	apiJSON(w, s.mapState(v, nil), http.StatusOK)
}

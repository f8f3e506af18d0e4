package web

import (
	"bytes"
	"net/http"

	"github.com/evcraddock/courier-site/internal/contact"
	"github.com/evcraddock/courier-site/internal/locator"
	"github.com/evcraddock/courier-site/internal/office"
	"github.com/evcraddock/courier-site/internal/session"
)

type feature struct {
	Title string
	Body  string
}

var features = []feature{
	{"Same-day delivery", "Parcels collected before noon arrive the same day within the city."},
	{"Live tracking", "Follow every parcel from pickup to doorstep."},
	{"Cross-border", "Daily runs between our London and Paris hubs."},
	{"Insured handling", "Every shipment is insured and signed for on delivery."},
}

type homeData struct {
	Offices      []office.Office
	Selected     *office.Office
	Locator      locator.State
	Contact      contact.State
	Fields       contact.Fields
	Errors       map[string]string
	Features     []feature
	MapAvailable bool
}

type officeData struct {
	Office       office.Office
	Offices      []office.Office
	MapAvailable bool
}

func (s *Server) homeData(v *session.Visitor) homeData {
	data := homeData{
		Offices:      s.registry.All(),
		Locator:      v.Planner.State(),
		Contact:      v.Form.State(),
		Fields:       v.Form.Fields(),
		Features:     features,
		MapAvailable: s.mapAvailable,
	}
	if o, ok := v.Planner.SelectedOffice(); ok {
		data.Selected = &o
	}
	return data
}

// handleHome renders the landing page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	s.mount(v)
	s.render(w, "home.html", s.homeData(v))
}

// handleOffice renders an office's detail panel and selects it on the
// visitor's map.
func (s *Server) handleOffice(w http.ResponseWriter, r *http.Request) {
	o, ok := s.registry.Lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	v := s.visitor(w, r)
	s.mount(v)
	if err := v.Planner.Select(o.ID); err != nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, "office.html", officeData{
		Office:       o,
		Offices:      s.registry.All(),
		MapAvailable: s.mapAvailable,
	})
}

// render executes a page template with status 200.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, http.StatusOK, name, data)
}

// renderStatus executes a page template. Output is buffered so a template
// error never leaves a half-written page.
func (s *Server) renderStatus(w http.ResponseWriter, code int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn("writing page", "template", name, "error", err)
	}
}

package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/evcraddock/courier-site/internal/contact"
	"github.com/evcraddock/courier-site/internal/db"
	"github.com/evcraddock/courier-site/internal/geo"
	"github.com/evcraddock/courier-site/internal/inquiry"
	"github.com/evcraddock/courier-site/internal/maps"
	"github.com/evcraddock/courier-site/internal/office"
	"github.com/evcraddock/courier-site/internal/session"
)

// fakeProvider answers geocode queries from a fixed table.
type fakeProvider struct{}

func (fakeProvider) Geocode(ctx context.Context, query string) (maps.Place, error) {
	switch strings.ToLower(query) {
	case "nowhere":
		return maps.Place{}, maps.ErrNotFound
	case "offline":
		return maps.Place{}, errors.New("dial tcp: connection refused")
	case "island":
		return maps.Place{Label: "Island", Location: geo.Coordinate{Lat: 49.2, Lng: -2.1}}, nil
	}
	loc := geo.Coordinate{Lat: 51.5033, Lng: -0.1196}
	return maps.Place{
		Label:    "London Eye, London",
		Location: loc,
		Bounds:   geo.Bounds{South: 51.50, West: -0.13, North: 51.51, East: -0.11},
	}, nil
}

func (fakeProvider) Route(ctx context.Context, from, to geo.Coordinate) (maps.Route, error) {
	if from.Lat == 49.2 {
		return maps.Route{}, maps.ErrNotFound
	}
	return maps.Route{
		Path:            []geo.Coordinate{from, {Lat: 51.52, Lng: -0.10}, to},
		DistanceMeters:  4200,
		DurationSeconds: 900,
	}, nil
}

// fakeRelay records submissions and answers with a fixed response.
type fakeRelay struct {
	mu      sync.Mutex
	resp    contact.Response
	err     error
	calls   int
	key     string
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeRelay) SubmitForm(ctx context.Context, fields contact.Fields, key string) (contact.Response, error) {
	f.mu.Lock()
	f.calls++
	f.key = key
	f.mu.Unlock()
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	return f.resp, f.err
}

func (f *fakeRelay) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testOptions(relay contact.Relay) Options {
	return Options{
		Registry:       office.Default(),
		Provider:       fakeProvider{},
		Relay:          relay,
		RelayName:      "fake",
		DestinationKey: "key-123",
		ClientRate:     1000,
		ClientBurst:    1000,
		DevMode:        true,
		Logger:         quietLogger(),
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(testOptions(&fakeRelay{resp: contact.Response{Success: true}}))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func testServerWithDB(t *testing.T, relay contact.Relay) (*Server, *sql.DB) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	opts := testOptions(relay)
	opts.Inquiries = inquiry.NewRepository(d)
	srv, err := NewServer(opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, d
}

// visitorCookie returns the session cookie set on a response.
func visitorCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no visitor cookie set")
	return nil
}

func pageRequest(srv *Server, method, path string, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	w := pageRequest(srv, "GET", "/health", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["offices"] != float64(2) {
		t.Errorf("body = %v", body)
	}
}

func TestHomePage(t *testing.T) {
	srv := testServer(t)

	w := pageRequest(srv, "GET", "/", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Our offices", "London", "Paris", "Why SwiftParcel", `id="contact-form"`, `id="map"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}

	c := visitorCookie(t, w)
	if !c.HttpOnly {
		t.Error("visitor cookie should be HttpOnly")
	}

	v, ok := srv.Sessions().Get(c.Value)
	if !ok {
		t.Fatal("visitor not stored")
	}
	if !v.Planner.Binding().Live() {
		t.Error("visiting the page should mount the map")
	}
}

func TestHomePageReusesVisitor(t *testing.T) {
	srv := testServer(t)

	first := pageRequest(srv, "GET", "/", nil, nil)
	c := visitorCookie(t, first)

	second := pageRequest(srv, "GET", "/", c, nil)
	if len(second.Result().Cookies()) != 0 {
		t.Error("known visitor should not get a new cookie")
	}
	if srv.Sessions().Len() != 1 {
		t.Errorf("visitors = %d, want 1", srv.Sessions().Len())
	}
}

func TestHomePageMapUnavailable(t *testing.T) {
	opts := testOptions(&fakeRelay{})
	opts.Provider = nil
	srv, err := NewServer(opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	w := pageRequest(srv, "GET", "/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "currently unavailable") {
		t.Error("expected map unavailable message")
	}
	if !strings.Contains(w.Body.String(), "London") {
		t.Error("office list should render without a map")
	}
}

func TestUnknownPath(t *testing.T) {
	srv := testServer(t)

	w := pageRequest(srv, "GET", "/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestOfficePage(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"london", "/offices/london", http.StatusOK, "12 Wharf Road"},
		{"paris", "/offices/paris", http.StatusOK, "Rue de Rivoli"},
		{"unknown", "/offices/berlin", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := pageRequest(srv, "GET", tt.path, nil, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected %q in page", tt.wantBody)
			}
		})
	}
}

func TestOfficePageSelectsOffice(t *testing.T) {
	srv := testServer(t)

	w := pageRequest(srv, "GET", "/offices/paris", nil, nil)
	c := visitorCookie(t, w)

	v, _ := srv.Sessions().Get(c.Value)
	if got := v.Planner.State().SelectedOfficeID; got != "paris" {
		t.Errorf("selected = %q, want paris", got)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{"/static/map.js", "/static/style.css"} {
		w := pageRequest(srv, "GET", path, nil, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}

func validContactForm() url.Values {
	return url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"ada@example.com"},
		"subject": {"Collection"},
		"message": {"Please collect two parcels tomorrow morning."},
	}
}

func TestContactPostSuccess(t *testing.T) {
	relay := &fakeRelay{resp: contact.Response{Success: true}}
	srv, _ := testServerWithDB(t, relay)

	w := pageRequest(srv, "POST", "/contact", nil, validContactForm())
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/#contact" {
		t.Errorf("location = %q, want /#contact", loc)
	}
	if relay.key != "key-123" {
		t.Errorf("destination key = %q, want key-123", relay.key)
	}

	c := visitorCookie(t, w)
	page := pageRequest(srv, "GET", "/", c, nil)
	if !strings.Contains(page.Body.String(), "Send another") {
		t.Error("expected success panel with send another button")
	}

	list, err := srv.inquiries.List(0)
	if err != nil {
		t.Fatalf("list inquiries: %v", err)
	}
	if len(list) != 1 || list[0].Status != inquiry.StatusSuccess || list[0].Relay != "fake" {
		t.Errorf("inquiries = %+v", list)
	}

	// Scenario D: "send another" returns to an empty, idle form.
	reset := pageRequest(srv, "POST", "/contact/reset", c, url.Values{})
	if reset.Code != http.StatusSeeOther {
		t.Fatalf("reset status = %d", reset.Code)
	}
	page = pageRequest(srv, "GET", "/", c, nil)
	body := page.Body.String()
	if !strings.Contains(body, `id="contact-form"`) {
		t.Error("expected the form after reset")
	}
	if strings.Contains(body, "Ada Lovelace") {
		t.Error("fields should be cleared after a successful submission")
	}
}

func TestContactPostValidation(t *testing.T) {
	relay := &fakeRelay{resp: contact.Response{Success: true}}
	srv, err := NewServer(testOptions(relay))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	form := validContactForm()
	form.Set("email", "not-an-email")
	form.Set("message", "")

	w := pageRequest(srv, "POST", "/contact", nil, form)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Enter a valid email address.") {
		t.Error("expected email error")
	}
	if !strings.Contains(body, "This field is required.") {
		t.Error("expected required error")
	}
	if !strings.Contains(body, "Ada Lovelace") {
		t.Error("expected entered values to be kept")
	}
	if relay.callCount() != 0 {
		t.Error("invalid form must not reach the relay")
	}
}

func TestContactPostRelayFailure(t *testing.T) {
	relay := &fakeRelay{resp: contact.Response{Success: false, Message: "Invalid access key"}}
	srv, _ := testServerWithDB(t, relay)

	w := pageRequest(srv, "POST", "/contact", nil, validContactForm())
	c := visitorCookie(t, w)

	page := pageRequest(srv, "GET", "/", c, nil)
	body := page.Body.String()
	if !strings.Contains(body, "Invalid access key") {
		t.Error("expected provider message on page")
	}
	if !strings.Contains(body, "Ada Lovelace") {
		t.Error("fields should be kept for correction")
	}

	failed, err := srv.inquiries.Count(inquiry.StatusError)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed inquiries = %d, want 1", failed)
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/courier-site/internal/db"
	"github.com/evcraddock/courier-site/internal/inquiry"
	"github.com/evcraddock/courier-site/internal/office"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range []string{"serve", "offices", "geocode", "route", "inquiries", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help should list %q", sub)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	dbFlag := root.PersistentFlags().Lookup("db")
	if dbFlag == nil {
		t.Fatal("expected --db flag to exist")
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"geocode requires query", []string{"geocode"}},
		{"route requires office and origin", []string{"route", "london"}},
		{"offices takes no args", []string{"offices", "extra"}},
		{"inquiries takes no args", []string{"inquiries", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Fatal("expected args error")
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("output = %q, want %q", out, Version)
	}
}

func TestOfficesText(t *testing.T) {
	out, err := executeCommand("offices")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"london", "paris", "Total: 2 offices"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOfficesJSONFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offices.yaml")
	data := `offices:
  - id: lyon
    city: Lyon
    address: 1 Place Bellecour, 69002 Lyon
    location: {lat: 45.7578, lng: 4.8320}
    phone: "+33 1 23 45 67 89"
    email: lyon@example.com
    hours: Mon-Fri 09:00-18:00
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write offices: %v", err)
	}
	t.Setenv("COURIER_OFFICES_FILE", path)

	out, err := executeCommand("offices", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var offices []office.Office
	if err := json.Unmarshal([]byte(out), &offices); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(offices) != 1 || offices[0].ID != "lyon" {
		t.Errorf("offices = %+v", offices)
	}
}

func mapProvider(t *testing.T) {
	t.Helper()
	geocoder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "nowhere" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"display_name":"Big Ben, London","lat":"51.5007","lon":"-0.1246","boundingbox":["51.50","51.51","-0.13","-0.12"]}]`)
	}))
	router := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"Ok","routes":[{"distance":5300,"duration":1260,"geometry":{"coordinates":[[-0.1246,51.5007],[-0.0958,51.5319]]}}]}`)
	}))
	t.Cleanup(geocoder.Close)
	t.Cleanup(router.Close)

	t.Setenv("COURIER_GEOCODE_URL", geocoder.URL)
	t.Setenv("COURIER_ROUTE_URL", router.URL)
	t.Setenv("COURIER_MAP_RPS", "100")
}

func TestGeocode(t *testing.T) {
	mapProvider(t)

	out, err := executeCommand("geocode", "Big", "Ben")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Big Ben, London") || !strings.Contains(out, "51.50070,-0.12460") {
		t.Errorf("output = %q", out)
	}

	if _, err := executeCommand("geocode", "nowhere"); err == nil || !strings.Contains(err.Error(), "no match") {
		t.Errorf("err = %v, want no match", err)
	}
}

func TestRoute(t *testing.T) {
	mapProvider(t)

	out, err := executeCommand("route", "london", "Big", "Ben")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"To:       London", "5.3 km", "21 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := executeCommand("route", "berlin", "Big Ben"); err == nil {
		t.Error("expected error for unknown office")
	}
}

func TestInquiries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courier.db")

	out, err := executeCommand("inquiries", "--db", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No inquiries found.") {
		t.Errorf("output = %q", out)
	}

	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := inquiry.NewRepository(d).Add(inquiry.Inquiry{
		Name: "Ada", Email: "ada@example.com", Subject: "Quote", Status: inquiry.StatusSuccess,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err = executeCommand("inquiries", "--db", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ada@example.com", "Quote", "success", "Total: 1 inquiries"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

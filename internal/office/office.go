// Package office holds the static registry of service locations.
package office

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/courier-site/internal/geo"
	"github.com/evcraddock/courier-site/internal/phone"
)

// Office is a fixed service location.
type Office struct {
	ID       string         `json:"id" yaml:"id"`
	City     string         `json:"city" yaml:"city"`
	Address  string         `json:"address" yaml:"address"`
	Location geo.Coordinate `json:"location" yaml:"location"`
	Phone    string         `json:"phone" yaml:"phone"`
	Email    string         `json:"email" yaml:"email"`
	Hours    string         `json:"hours" yaml:"hours"`
}

// Registry is an immutable, ordered set of offices.
type Registry struct {
	offices []Office
	byID    map[string]int
}

var validate = validator.New()

// NewRegistry validates offices and builds a registry.
// Every office needs a unique id, a coordinate inside region, a valid phone
// number and a valid email address.
func NewRegistry(offices []Office, region geo.Bounds) (*Registry, error) {
	if len(offices) == 0 {
		return nil, errors.New("office registry is empty")
	}

	r := &Registry{
		offices: make([]Office, len(offices)),
		byID:    make(map[string]int, len(offices)),
	}
	copy(r.offices, offices)

	var errs []error
	for i, o := range r.offices {
		id := strings.TrimSpace(o.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("office %d: id is required", i))
			continue
		}
		if _, dup := r.byID[id]; dup {
			errs = append(errs, fmt.Errorf("office %s: duplicate id", id))
			continue
		}
		r.offices[i].ID = id
		r.byID[id] = i

		if !o.Location.Valid() || !region.Contains(o.Location) {
			errs = append(errs, fmt.Errorf("office %s: coordinate %s outside service region", id, o.Location))
		}
		if !phone.Valid(o.Phone) {
			errs = append(errs, fmt.Errorf("office %s: invalid phone %q", id, o.Phone))
		}
		if err := validate.Var(o.Email, "required,email"); err != nil {
			errs = append(errs, fmt.Errorf("office %s: invalid email %q", id, o.Email))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// All returns the offices in registry order.
func (r *Registry) All() []Office {
	out := make([]Office, len(r.offices))
	copy(out, r.offices)
	return out
}

// Lookup finds an office by id.
func (r *Registry) Lookup(id string) (Office, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Office{}, false
	}
	return r.offices[i], true
}

// Len returns the number of offices.
func (r *Registry) Len() int {
	return len(r.offices)
}

// Bounds returns the box enclosing every office.
func (r *Registry) Bounds() geo.Bounds {
	points := make([]geo.Coordinate, len(r.offices))
	for i, o := range r.offices {
		points[i] = o.Location
	}
	return geo.BoundsOf(points...)
}

// registryFile is the on-disk layout read by LoadFile.
type registryFile struct {
	Offices []Office `yaml:"offices"`
}

// LoadFile reads a YAML office list and validates it against region.
func LoadFile(path string, region geo.Bounds) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading office file: %w", err)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing office file: %w", err)
	}

	return NewRegistry(f.Offices, region)
}

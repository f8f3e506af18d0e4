// Package geo provides the coordinate and region types shared by the office
// registry, the provider client and the map session.
package geo

import "fmt"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid returns true if the coordinate lies on the globe.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}

// Bounds is a south-west / north-east bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// ServiceRegion covers the UK and mainland Europe.
var ServiceRegion = Bounds{South: 34, West: -25, North: 72, East: 45}

// Contains reports whether c lies inside b (edges inclusive).
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lng >= b.West && c.Lng <= b.East
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Coordinate {
	return Coordinate{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
}

// Extend returns a copy of b grown to include c.
func (b Bounds) Extend(c Coordinate) Bounds {
	if c.Lat < b.South {
		b.South = c.Lat
	}
	if c.Lat > b.North {
		b.North = c.Lat
	}
	if c.Lng < b.West {
		b.West = c.Lng
	}
	if c.Lng > b.East {
		b.East = c.Lng
	}
	return b
}

// BoundsOf returns the smallest box containing every point.
// It returns the zero Bounds for an empty slice.
func BoundsOf(points ...Coordinate) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{South: points[0].Lat, North: points[0].Lat, West: points[0].Lng, East: points[0].Lng}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

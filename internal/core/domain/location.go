package domain

import (
	"fmt"
	"math"
	"time"
)

// KmPerDegree is the flat-earth conversion factor used by DistanceKm.
const KmPerDegree = 111.0

// Coordinates represents a geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat" msgpack:"lat"`
	Lng float64 `json:"lng" bson:"lng" msgpack:"lng"`
}

// LocationRecord is the driver's last reported GPS fix plus device telemetry.
type LocationRecord struct {
	Coordinates  Coordinates `json:"coordinates" bson:"coordinates" msgpack:"coordinates"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at" msgpack:"updated_at"`
	BatteryLevel *int        `json:"battery_level,omitempty" bson:"battery_level,omitempty" msgpack:"battery_level,omitempty"` // optional, 0-100
	DeviceType   string      `json:"device_type" bson:"device_type" msgpack:"device_type"`
	Active       bool        `json:"active" bson:"active" msgpack:"active"`
}

// SamePosition reports whether both records carry exactly the same lat/long.
// Exact float comparison is intended: any change reported by the device counts.
func (r LocationRecord) SamePosition(other LocationRecord) bool {
	return r.Coordinates.Lat == other.Coordinates.Lat && r.Coordinates.Lng == other.Coordinates.Lng
}

// MapsURL returns a Google Maps link pointing at the record's position.
func (r LocationRecord) MapsURL() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", r.Coordinates.Lat, r.Coordinates.Lng)
}

// Movement describes the change between two consecutive location records.
type Movement struct {
	Moved      bool    `json:"moved" bson:"moved" msgpack:"moved"`
	DistanceKm float64 `json:"distance_km" bson:"distance_km" msgpack:"distance_km"`
}

// DetectMovement compares prev and curr. DistanceKm is only populated when
// the position changed.
func DetectMovement(prev, curr LocationRecord) Movement {
	if prev.SamePosition(curr) {
		return Movement{}
	}
	return Movement{Moved: true, DistanceKm: DistanceKm(prev.Coordinates, curr.Coordinates)}
}

// DistanceKm approximates the distance between a and b as
// sqrt(dLat² + dLng²) × 111.
//
// This is a planar approximation: it ignores longitude convergence towards
// the poles and is only meaningful for small displacements near the equator.
// It is not a geodesic distance.
func DistanceKm(a, b Coordinates) float64 {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	return math.Sqrt(dLat*dLat+dLng*dLng) * KmPerDegree
}

// Package geo computes great-circle distances between coordinates.
//
// Inputs are decimal degrees. Latitudes outside ±90 or longitudes outside
// ±180 produce an unspecified (but finite) result; callers that need a
// guarantee should check Point.Valid first.
package geo

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
	EarthRadiusKm = 6371.0
	// KmPerMile converts statute miles to kilometers.
	KmPerMile = 1.609344
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether p lies within ±90 latitude and ±180 longitude.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lon >= -180 && p.Lon <= 180
}

// Distance returns the Haversine distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether point lies within miles of center.
func WithinRadius(center, point Point, miles float64) bool {
	return Distance(center, point) <= MilesToKm(miles)
}

// MilesToKm converts miles to kilometers.
func MilesToKm(miles float64) float64 { return miles * KmPerMile }

// KmToMiles converts kilometers to miles.
func KmToMiles(km float64) float64 { return km / KmPerMile }

func radians(deg float64) float64 { return deg * math.Pi / 180 }

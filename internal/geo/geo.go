// Package geo holds the great-circle math shared by the SQL distance
// strategies and by in-process result checks.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by every distance computation.
const EarthRadiusMeters = 6371000.0

// metersPerDegree is the length of one degree of latitude at EarthRadiusMeters.
const metersPerDegree = EarthRadiusMeters * math.Pi / 180

func ValidLat(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

func ValidLng(lng float64) bool {
	return !math.IsNaN(lng) && lng >= -180 && lng <= 180
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	if a > 1 {
		a = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(a))
}

type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Bounds returns a box that contains every point within radius meters of (lat, lng).
// Near the poles or across the antimeridian the longitude range widens to the full circle.
func Bounds(lat, lng, radius float64) BoundingBox {
	dLat := radius / metersPerDegree
	box := BoundingBox{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}

	if math.Abs(lat)+dLat >= 90 {
		return box
	}

	s := math.Sin(radius/EarthRadiusMeters) / math.Cos(lat*math.Pi/180)
	if s >= 1 {
		return box
	}
	dLng := math.Asin(s) * 180 / math.Pi
	if lng-dLng < -180 || lng+dLng > 180 {
		return box
	}

	box.MinLng = lng - dLng
	box.MaxLng = lng + dLng
	return box
}

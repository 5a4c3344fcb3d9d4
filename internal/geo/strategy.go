package geo

import "fmt"

const (
	ModeAuto      = "auto"
	ModeNative    = "native"
	ModeHaversine = "haversine"
)

// DistanceStrategy renders a SQL expression that evaluates to the distance in
// meters between the row's lat/lng columns and a query point.
type DistanceStrategy interface {
	Name() string
	Expr(lat, lng float64) (string, []interface{})
}

type haversineStrategy struct{}

// NewHaversine computes the distance with trigonometric SQL functions available
// on both Postgres and MySQL.
func NewHaversine() DistanceStrategy {
	return haversineStrategy{}
}

func (haversineStrategy) Name() string { return ModeHaversine }

func (haversineStrategy) Expr(lat, lng float64) (string, []interface{}) {
	expr := fmt.Sprintf(
		"2 * %.0f * ASIN(SQRT(LEAST(1, "+
			"POWER(SIN(RADIANS(lat - ?) / 2), 2) + "+
			"COS(RADIANS(?)) * COS(RADIANS(lat)) * POWER(SIN(RADIANS(lng - ?) / 2), 2))))",
		EarthRadiusMeters)
	return expr, []interface{}{lat, lat, lng}
}

type nativeStrategy struct {
	dialect string
}

// NewNative uses the database's spherical distance function: PostGIS
// ST_DistanceSphere on postgres, ST_Distance_Sphere on mysql.
func NewNative(dialect string) (DistanceStrategy, error) {
	switch dialect {
	case "postgres", "mysql":
		return nativeStrategy{dialect: dialect}, nil
	default:
		return nil, fmt.Errorf("no native spherical distance for dialect %q", dialect)
	}
}

func (s nativeStrategy) Name() string { return ModeNative }

func (s nativeStrategy) Expr(lat, lng float64) (string, []interface{}) {
	if s.dialect == "postgres" {
		// PostGIS uses its own sphere radius (about 6370986 m); it takes no radius argument.
		return "ST_DistanceSphere(ST_MakePoint(lng, lat), ST_MakePoint(?, ?))", []interface{}{lng, lat}
	}
	return fmt.Sprintf("ST_Distance_Sphere(POINT(lng, lat), POINT(?, ?), %.0f)", EarthRadiusMeters),
		[]interface{}{lng, lat}
}

// Resolve picks the strategy for the configured mode. In auto mode nativeAvailable
// is consulted once; a false answer falls back to Haversine.
func Resolve(mode, dialect string, nativeAvailable func() bool) (DistanceStrategy, error) {
	switch mode {
	case ModeHaversine:
		return NewHaversine(), nil
	case ModeNative:
		return NewNative(dialect)
	case ModeAuto, "":
		if nativeAvailable != nil && nativeAvailable() {
			if s, err := NewNative(dialect); err == nil {
				return s, nil
			}
		}
		return NewHaversine(), nil
	default:
		return nil, fmt.Errorf("unknown distance mode %q", mode)
	}
}

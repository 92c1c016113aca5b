package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// earthRadiusMeters is the mean Earth radius used for great-circle distances.
const earthRadiusMeters = 6371000.0

// DistanceMeters returns the haversine great-circle distance in meters
// between two coordinates. Symmetric, zero for identical points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180.0
	rLat2 := lat2 * math.Pi / 180.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))
	return c * earthRadiusMeters
}

// Neighborhood is a coarse s2 cell covering of a circular area. It is a
// superset of the circle, so membership can only produce false positives,
// never false negatives; callers still apply the exact distance check.
type Neighborhood struct {
	covering s2.CellUnion
}

// NewNeighborhood builds a coarse covering of the circle of radiusMeters
// around the given point.
func NewNeighborhood(lat, lon, radiusMeters float64) *Neighborhood {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	angle := s1.Angle(radiusMeters / earthRadiusMeters)
	region := s2.CapFromCenterAngle(center, angle)
	coverer := s2.RegionCoverer{MaxLevel: 30, MaxCells: 8}
	return &Neighborhood{covering: coverer.Covering(region)}
}

// Contains reports whether the point may fall inside the neighborhood.
func (n *Neighborhood) Contains(lat, lon float64) bool {
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon))
	return n.covering.ContainsCellID(cell)
}

package gridshift

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Coverage returns the area of the grid widened by tol degrees on every
// side. Grid longitudes in 0-360 form are wrapped, so grids crossing the
// antimeridian give an inverted longitude interval.
func (h *Header) Coverage(tol float64) s2.Rect {
	lat := r1.Interval{
		Lo: degrees(math.Max(h.MinLat-tol, -90)),
		Hi: degrees(math.Min(h.MaxLat+tol, 90)),
	}
	var lng s1.Interval
	if h.MaxLon-h.MinLon+2*tol >= 360 {
		lng = s1.FullInterval()
	} else {
		lng = s1.IntervalFromEndpoints(degrees(wrapLon(h.MinLon-tol)), degrees(wrapLon(h.MaxLon+tol)))
	}
	return s2.Rect{Lat: lat, Lng: lng}
}

// Covers reports whether (lat, lon) lies in the grid widened by tol. It
// agrees with Locate.
func (h *Header) Covers(lat, lon, tol float64) bool {
	_, _, ok := h.Locate(lat, lon, tol)
	return ok
}

func degrees(d float64) float64 { return (s1.Angle(d) * s1.Degree).Radians() }

// wrapLon maps any longitude into [-180, 180].
func wrapLon(lon float64) float64 {
	return math.Remainder(lon, 360)
}

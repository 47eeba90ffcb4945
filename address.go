package gridshift

import "math"

// Cell is a node index pair. On grids of at least 3x3 nodes Locate keeps
// Row in [1, Rows-2] and Col in [1, Cols-2] so a full 3x3 neighbourhood
// exists around it.
type Cell struct {
	Row, Col int
}

// NoCell is the out-of-tolerance address.
var NoCell = Cell{Row: -1, Col: -1}

// Point is the fractional position of a query relative to the south-west
// node of its 3x3 neighbourhood, in units of node spacing. It is not clamped
// to [0,1]; values outside it select another quadrant of the neighbourhood.
type Point struct {
	X, Y float64 // X along longitude, Y along latitude
}

// Row returns the grid row for latitude lat, or -1 when lat is further than
// tol outside [MinLat, MaxLat].
func (h *Header) Row(lat, tol float64) int {
	return staggeredIndex(lat, h.MinLat, h.MaxLat, h.DLat, tol, h.Rows)
}

// Col returns the grid column for longitude lon, or -1 when lon is further
// than tol outside [MinLon, MaxLon].
func (h *Header) Col(lon, tol float64) int {
	return staggeredIndex(lon, h.MinLon, h.MaxLon, h.DLon, tol, h.Cols)
}

// staggeredIndex maps v onto a node index along one axis. Values within tol
// of the range are clamped to the boundary first; the index is then found on
// the half-spacing mesh and folded back to the coarse node index, which
// is the node nearest to v.
func staggeredIndex(v, min, max, delta, tol float64, count int) int {
	if math.IsNaN(v) {
		return -1
	}
	if v < min {
		if v < min-tol {
			return -1
		}
		v = min
	}
	if v > max {
		if v > max+tol {
			return -1
		}
		v = max
	}
	d := (v - min) / (delta / 2)
	idx2 := int(math.Floor(d)) + 1
	var idx int
	if idx2%2 != 0 {
		idx = (idx2+1)/2 - 1
	} else {
		idx = idx2 / 2
	}
	if idx < 1 {
		idx = 1
	}
	if idx > count-2 {
		idx = count - 2
	}
	return idx
}

// Locate resolves (lat, lon) to its cell and interpolation point. ok is
// false when either axis is out of tolerance; the cell is then NoCell.
// lon is first shifted by whole turns into the grid's longitude frame, so
// -169.5 and 190.5 address the same node.
// The point is computed from the unclamped query so that positions inside
// the tolerance band extrapolate from the boundary cell.
func (h *Header) Locate(lat, lon, tol float64) (c Cell, p Point, ok bool) {
	lon = h.alignLon(lon)
	row := h.Row(lat, tol)
	col := h.Col(lon, tol)
	if row == -1 || col == -1 {
		return NoCell, Point{}, false
	}
	p = Point{
		X: (lon - h.MinLon - h.DLon*float64(col-1)) / h.DLon,
		Y: (lat - h.MinLat - h.DLat*float64(row-1)) / h.DLat,
	}
	return Cell{Row: row, Col: col}, p, true
}

// alignLon returns the longitude equal to lon modulo 360 that is nearest
// the middle of the grid.
func (h *Header) alignLon(lon float64) float64 {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return lon
	}
	mid := (h.MinLon + h.MaxLon) / 2
	return lon + 360*math.Round((mid-lon)/360)
}

// NodeLatLon returns the coordinates of node (row, col).
func (h *Header) NodeLatLon(row, col int) (lat, lon float64) {
	return h.MinLat + float64(row)*h.DLat, h.MinLon + float64(col)*h.DLon
}

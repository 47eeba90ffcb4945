package gridshift

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NoCorrection is returned in place of a value when the neighbourhood around
// a point is unusable. Downstream consumers compare against it exactly.
const NoCorrection = 999999.0

// Interpolate ranks a 3x3 block and interpolates it at p: biquadratic over
// the whole block when it is complete, bilinear over the active quadrant when
// only outer nodes are missing, and NoCorrection otherwise.
func Interpolate(p Point, values []float64) (float64, Rank, error) {
	if len(values) != 9 {
		return 0, 0, fmt.Errorf("%w: got %d values", ErrBlockShape, len(values))
	}
	rank := RankBlock(values, p)
	switch rank {
	case RankFull:
		return Biquadratic(p, values), rank, nil
	case RankDegraded:
		q := Quadrant(p)
		var quad [4]float64
		for i, idx := range q {
			quad[i] = values[idx]
		}
		// Re-express p relative to the quadrant's south-west node.
		qp := Point{X: p.X - float64(q[0]%3), Y: p.Y - float64(q[0]/3)}
		return Bilinear(qp, quad), rank, nil
	default:
		return NoCorrection, rank, nil
	}
}

// Biquadratic interpolates a row-major 3x3 block whose nodes sit at
// offsets 0, 1, 2 along each axis. Rows are blended along x first, then the
// three row results along y.
func Biquadratic(p Point, values []float64) float64 {
	wx := quadraticWeights(p.X)
	rowVals := make([]float64, 3)
	for r := 0; r < 3; r++ {
		rowVals[r] = floats.Dot(wx, values[r*3:r*3+3])
	}
	return floats.Dot(quadraticWeights(p.Y), rowVals)
}

// Bilinear interpolates a 2x2 block {sw, se, nw, ne} at p, with nodes at
// offsets 0 and 1 along each axis.
func Bilinear(p Point, quad [4]float64) float64 {
	wx := []float64{1 - p.X, p.X}
	south := floats.Dot(wx, quad[0:2])
	north := floats.Dot(wx, quad[2:4])
	return floats.Dot([]float64{1 - p.Y, p.Y}, []float64{south, north})
}

// quadraticWeights returns the Lagrange weights of nodes 0, 1, 2 at t.
func quadraticWeights(t float64) []float64 {
	return []float64{
		(t - 1) * (t - 2) / 2,
		-t * (t - 2),
		t * (t - 1) / 2,
	}
}

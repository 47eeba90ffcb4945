package gridshift

// Rank classifies a 3x3 neighbourhood by its missing data.
type Rank int

const (
	RankUnusable Rank = 1 // missing data inside the active 2x2 quadrant
	RankDegraded Rank = 2 // missing data only outside the active quadrant
	RankFull     Rank = 3 // no missing data
)

func (r Rank) String() string {
	switch r {
	case RankFull:
		return "full"
	case RankDegraded:
		return "degraded"
	case RankUnusable:
		return "unusable"
	}
	return "none"
}

// Quadrant returns the flattened 3x3 indices of the 2x2 quadrant that holds
// p. A coordinate inside [0,1] (ends included) selects the lower half of its
// axis, anything else the upper half.
func Quadrant(p Point) [4]int {
	x, y := inUnit(p.X), inUnit(p.Y)
	switch {
	case x && y:
		return [4]int{0, 1, 3, 4}
	case !x && y:
		return [4]int{1, 2, 4, 5}
	case x && !y:
		return [4]int{3, 4, 6, 7}
	default:
		return [4]int{4, 5, 7, 8}
	}
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

// RankBlock ranks a 3x3 block for an interpolation at p.
func RankBlock(values []float64, p Point) Rank {
	missing := false
	for _, v := range values {
		if isMissing(v) {
			missing = true
			break
		}
	}
	if !missing {
		return RankFull
	}
	for _, i := range Quadrant(p) {
		if isMissing(values[i]) {
			return RankUnusable
		}
	}
	return RankDegraded
}

package gridshift

import "errors"

// Sentinel errors. Callers test for them with errors.Is; the returned errors
// wrap them with file names, offsets and counts.
var (
	// ErrOutOfRange is returned by the codec when a field would extend past
	// the end of the buffer.
	ErrOutOfRange = errors.New("gridshift: offset out of range")

	// ErrTruncatedHeader is returned when a grid file ends before the
	// configured header length.
	ErrTruncatedHeader = errors.New("gridshift: truncated grid header")

	// ErrInvalidHeader is returned when header fields violate the grid
	// constraints (rows, cols >= 2; positive spacing).
	ErrInvalidHeader = errors.New("gridshift: invalid grid header")

	// ErrGridNotFound is returned when the resolved grid file does not exist.
	ErrGridNotFound = errors.New("gridshift: grid file not found")

	// ErrOutOfBounds is returned by block lookups when the query lies
	// outside the grid plus tolerance. It means "no data at this point" and
	// is not an I/O failure.
	ErrOutOfBounds = errors.New("gridshift: coordinate out of grid bounds")

	// ErrUnknownRegion is returned when a grid is requested for a region the
	// definition does not list.
	ErrUnknownRegion = errors.New("gridshift: unknown region")

	// ErrGridTooSmall is returned by lookups on grids with fewer than three
	// rows or columns, which have no 3x3 neighbourhood around any node.
	ErrGridTooSmall = errors.New("gridshift: grid too small for a 3x3 neighbourhood")

	// ErrBlockShape is returned when a block handed to the interpolator is
	// not 3x3.
	ErrBlockShape = errors.New("gridshift: interpolation needs a 3x3 block")
)

// Package gridshift reads datum-shift correction grids stored in the ".b"
// binary format (a fixed header followed by padded row records) and
// interpolates corrections at geodetic coordinates.
package gridshift

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// Header field offsets. The header length itself is a format-version
// constant supplied by the grid definition; these fields always sit in its
// first MinHeaderLen bytes.
//
//	0..3    reserved (record marker)
//	4..11   min latitude   (float64)
//	12..19  min longitude  (float64)
//	20..27  lat spacing    (float64)
//	28..35  lon spacing    (float64)
//	36..39  rows           (int32)
//	40..43  cols           (int32)
//	44..47  value kind     (int32)
const (
	offMinLat = 4
	offMinLon = 12
	offDLat   = 20
	offDLon   = 28
	offRows   = 36
	offCols   = 40
	offKind   = 44

	// MinHeaderLen is the smallest header that holds every field.
	MinHeaderLen = 48
)

// Input sanity limits, well above any published grid.
const (
	// maxGridDim caps rows and cols so corrupt headers cannot produce
	// absurd record lengths or offsets.
	maxGridDim = 1 << 20

	// maxBigEndianKind is the largest value-kind magnitude accepted when the
	// header is read big-endian. Anything larger means the file is
	// little-endian. The format has no byte-order tag.
	maxBigEndianKind = 2
)

// Value kinds. Kinds 0 and 1 store 4-byte IEEE floats; every other kind
// stores 2-byte signed integers.
const (
	KindFloat    = 0
	KindFloatAlt = 1
	KindInt16    = 2
)

// Header describes one grid file. It is derived once from the file and is
// read-only afterwards, so it can be shared between goroutines.
type Header struct {
	Order          ByteOrder
	MinLat, MinLon float64 // south-west node, degrees
	DLat, DLon     float64 // nominal node spacing, degrees
	Rows, Cols     int     // node counts
	Kind           int     // value kind tag

	HeaderLen int // bytes before the first row record
	CellSize  int // 4 for float kinds, 2 otherwise
	RecordLen int // (Cols+2) * CellSize

	MaxLat, MaxLon float64 // Min + (count-1)*spacing
}

// CellSizeForKind returns the on-disk width of one value of the given kind.
func CellSizeForKind(kind int) int {
	if kind == KindFloat || kind == KindFloatAlt {
		return 4
	}
	return 2
}

// ParseHeader decodes a header from b. len(b) is taken as the header
// length. The byte order is inferred: the value kind is read big-endian and,
// if its magnitude exceeds 2, the whole header is re-read little-endian.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < MinHeaderLen {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", ErrTruncatedHeader, MinHeaderLen, len(b))
	}
	order := BigEndian
	kind, err := Codec{Order: BigEndian}.Int32(b, offKind)
	if err != nil {
		return Header{}, err
	}
	if k := int64(kind); k > maxBigEndianKind || k < -maxBigEndianKind {
		order = LittleEndian
	}
	c := Codec{Order: order}

	h := Header{Order: order, HeaderLen: len(b)}
	floats := []struct {
		off int
		dst *float64
	}{
		{offMinLat, &h.MinLat},
		{offMinLon, &h.MinLon},
		{offDLat, &h.DLat},
		{offDLon, &h.DLon},
	}
	for _, f := range floats {
		if *f.dst, err = c.Float64(b, f.off); err != nil {
			return Header{}, err
		}
	}
	rows, err := c.Int32(b, offRows)
	if err != nil {
		return Header{}, err
	}
	cols, err := c.Int32(b, offCols)
	if err != nil {
		return Header{}, err
	}
	kind, err = c.Int32(b, offKind)
	if err != nil {
		return Header{}, err
	}
	h.Rows, h.Cols, h.Kind = int(rows), int(cols), int(kind)

	if err := h.validate(); err != nil {
		return Header{}, err
	}
	h.derive()
	return h, nil
}

// ReadHeader reads and parses the first headerLen bytes of r.
func ReadHeader(r io.ReaderAt, headerLen int) (Header, error) {
	if headerLen < MinHeaderLen {
		return Header{}, fmt.Errorf("%w: header length %d below minimum %d", ErrInvalidHeader, headerLen, MinHeaderLen)
	}
	buf := make([]byte, headerLen)
	n, err := r.ReadAt(buf, 0)
	if n < headerLen {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Header{}, fmt.Errorf("%w: read %d of %d bytes: %v", ErrTruncatedHeader, n, headerLen, err)
	}
	return ParseHeader(buf)
}

func (h *Header) validate() error {
	if h.Rows < 2 || h.Cols < 2 || h.Rows > maxGridDim || h.Cols > maxGridDim {
		return fmt.Errorf("%w: grid dimensions %dx%d (want 2..%d)", ErrInvalidHeader, h.Rows, h.Cols, maxGridDim)
	}
	if !(h.DLat > 0) || !(h.DLon > 0) || math.IsInf(h.DLat, 0) || math.IsInf(h.DLon, 0) {
		return fmt.Errorf("%w: spacing dlat=%g dlon=%g", ErrInvalidHeader, h.DLat, h.DLon)
	}
	if math.IsNaN(h.MinLat) || math.IsNaN(h.MinLon) || math.IsInf(h.MinLat, 0) || math.IsInf(h.MinLon, 0) {
		return fmt.Errorf("%w: origin (%g, %g)", ErrInvalidHeader, h.MinLat, h.MinLon)
	}
	return nil
}

// derive fills the fields computed from the stored ones.
func (h *Header) derive() {
	h.MaxLat = h.MinLat + float64(h.Rows-1)*h.DLat
	h.MaxLon = h.MinLon + float64(h.Cols-1)*h.DLon
	h.CellSize = CellSizeForKind(h.Kind)
	h.RecordLen = (h.Cols + 2) * h.CellSize
}

// Codec returns a codec for the header's byte order.
func (h *Header) Codec() Codec { return Codec{Order: h.Order} }

// cellOffset returns the file offset of node (row, col). Each record starts
// with one padding cell.
func (h *Header) cellOffset(row, col int) int64 {
	return int64(h.HeaderLen) + int64(row)*int64(h.RecordLen) + int64(col+1)*int64(h.CellSize)
}

// Size returns the expected size of the grid file in bytes.
func (h *Header) Size() int64 {
	return int64(h.HeaderLen) + int64(h.Rows)*int64(h.RecordLen)
}

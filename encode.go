package gridshift

import (
	"fmt"
	"io"
	"math"
)

// EncodeHeader packs h into a header of h.HeaderLen bytes in h.Order.
// Bytes not covered by a field are zero.
func EncodeHeader(h Header) ([]byte, error) {
	if h.HeaderLen < MinHeaderLen {
		return nil, fmt.Errorf("%w: header length %d below minimum %d", ErrInvalidHeader, h.HeaderLen, MinHeaderLen)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	b := make([]byte, h.HeaderLen)
	c := h.Codec()
	for _, f := range []struct {
		off int
		v   float64
	}{
		{offMinLat, h.MinLat},
		{offMinLon, h.MinLon},
		{offDLat, h.DLat},
		{offDLon, h.DLon},
	} {
		if err := c.PutFloat64(b, f.off, f.v); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		off int
		v   int
	}{
		{offRows, h.Rows},
		{offCols, h.Cols},
		{offKind, h.Kind},
	} {
		if err := c.PutInt32(b, f.off, int32(f.v)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// WriteGrid writes a complete grid file: the header followed by one record
// per row, each padded with one zero cell on either side. values holds
// h.Rows*h.Cols nodes, row-major from south to north. Only the stored header
// fields of h are used; derived fields are recomputed.
func WriteGrid(w io.Writer, h Header, values []float64) error {
	hdr, err := EncodeHeader(h)
	if err != nil {
		return err
	}
	h.derive()
	if len(values) != h.Rows*h.Cols {
		return fmt.Errorf("write grid: got %d values for %dx%d grid", len(values), h.Rows, h.Cols)
	}
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("write grid: header: %w", err)
	}
	c := h.Codec()
	rec := make([]byte, h.RecordLen)
	for j := 0; j < h.Rows; j++ {
		for i := 0; i < h.Cols; i++ {
			off := (i + 1) * h.CellSize
			v := values[j*h.Cols+i]
			if h.CellSize == 4 {
				err = c.PutFloat32(rec, off, float32(v))
			} else {
				r := math.Round(v)
				if math.IsNaN(r) || r < math.MinInt16 || r > math.MaxInt16 {
					return fmt.Errorf("write grid: value %g at row %d col %d does not fit in int16", v, j, i)
				}
				err = c.PutInt16(rec, off, int16(r))
			}
			if err != nil {
				return err
			}
		}
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("write grid: row %d: %w", j, err)
		}
	}
	return nil
}

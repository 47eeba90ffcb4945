package gridshift

import (
	"errors"
	"fmt"
	"io"
)

// MissingData marks a grid node with no measured correction.
const MissingData = -999

// Block is a rectangular neighbourhood of grid nodes.
// Values are stored row-major from south to north: Values[r*Cols+c].
type Block struct {
	Row, Col   int // grid node of Values[0]
	Rows, Cols int
	Values     []float64
}

// At returns the value at block-relative (r, c).
func (b *Block) At(r, c int) float64 {
	return b.Values[r*b.Cols+c]
}

// HasMissing reports whether any node in the block is the missing-data
// sentinel.
func (b *Block) HasMissing() bool {
	for _, v := range b.Values {
		if isMissing(v) {
			return true
		}
	}
	return false
}

// isMissing truncates toward zero before comparing, so -999.4 counts as
// missing and NaN does not.
func isMissing(v float64) bool {
	return v > MissingData-1 && v <= MissingData
}

// ReadBlock reads rows x cols nodes whose south-west node is (row, col).
// Each row is one positioned read, so concurrent calls on the same r are
// safe when r is safe for concurrent ReadAt.
func ReadBlock(r io.ReaderAt, h *Header, row, col, rows, cols int) (*Block, error) {
	if rows < 1 || cols < 1 || row < 0 || col < 0 || row > h.Rows-rows || col > h.Cols-cols {
		return nil, fmt.Errorf("block: %dx%d window at (%d,%d) outside %dx%d grid: %w",
			rows, cols, row, col, h.Rows, h.Cols, ErrOutOfRange)
	}
	c := h.Codec()
	vals := make([]float64, rows*cols)
	rec := make([]byte, cols*h.CellSize)
	for j := 0; j < rows; j++ {
		off := h.cellOffset(row+j, col)
		n, err := r.ReadAt(rec, off)
		if n < len(rec) {
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("block: reading row %d at offset %d: %w", row+j, off, err)
		}
		for i := 0; i < cols; i++ {
			v, err := decodeCell(c, rec, i*h.CellSize, h.CellSize)
			if err != nil {
				return nil, fmt.Errorf("block: row %d col %d: %w", row+j, col+i, err)
			}
			vals[j*cols+i] = v
		}
	}
	return &Block{Row: row, Col: col, Rows: rows, Cols: cols, Values: vals}, nil
}

// ReadGrid reads every node of the grid.
func ReadGrid(r io.ReaderAt, h *Header) (*Block, error) {
	return ReadBlock(r, h, 0, 0, h.Rows, h.Cols)
}

func decodeCell(c Codec, rec []byte, off, size int) (float64, error) {
	if size == 4 {
		f, err := c.Float32(rec, off)
		return float64(f), err
	}
	s, err := c.Int16(rec, off)
	return float64(s), err
}

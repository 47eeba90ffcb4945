package gridshift

import (
	"bytes"
	"testing"
)

// testHeader is a 5x6 grid at (10N, 100W) with 0.5 x 0.25 degree spacing
// and a 64-byte header.
func testHeader(order ByteOrder, kind int) Header {
	h := Header{
		Order:     order,
		MinLat:    10,
		MinLon:    -100,
		DLat:      0.5,
		DLon:      0.25,
		Rows:      5,
		Cols:      6,
		Kind:      kind,
		HeaderLen: 64,
	}
	h.derive()
	return h
}

// nodeValue is the fixture value of node (row, col). It is exact in both
// float32 and int16.
func nodeValue(row, col int) float64 { return float64(row*10 + col) }

func testValues(h Header) []float64 {
	vals := make([]float64, h.Rows*h.Cols)
	for r := 0; r < h.Rows; r++ {
		for c := 0; c < h.Cols; c++ {
			vals[r*h.Cols+c] = nodeValue(r, c)
		}
	}
	return vals
}

// gridBytes encodes a complete grid file.
func gridBytes(t testing.TB, h Header, vals []float64) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteGrid(&buf, h, vals); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	return buf.Bytes()
}

package gridshift

import (
	"bytes"
	"testing"
)

// FuzzParseHeader feeds arbitrary bytes to ParseHeader.
// It must never panic, and accepted headers must satisfy the grid limits.
// Run with: go test -fuzz=FuzzParseHeader -fuzztime=60s .
func FuzzParseHeader(f *testing.F) {
	seeds := [][]byte{
		{},
		make([]byte, 47),
		make([]byte, 48),
		bytes.Repeat([]byte{0xFF}, 64),
	}
	for _, order := range []ByteOrder{BigEndian, LittleEndian} {
		b, err := EncodeHeader(testHeader(order, KindInt16))
		if err != nil {
			f.Fatal(err)
		}
		seeds = append(seeds, b)
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		h, err := ParseHeader(data)
		if err != nil {
			return
		}
		if h.Rows < 2 || h.Cols < 2 || h.Rows > maxGridDim || h.Cols > maxGridDim {
			t.Fatalf("accepted dimensions %dx%d", h.Rows, h.Cols)
		}
		if h.RecordLen != (h.Cols+2)*h.CellSize {
			t.Fatalf("record length %d for %d cols of %d bytes", h.RecordLen, h.Cols, h.CellSize)
		}
	})
}

// FuzzReadBlock reads a 3x3 block from a valid header followed by
// arbitrary record bytes. It must never panic.
// Run with: go test -fuzz=FuzzReadBlock -fuzztime=60s .
func FuzzReadBlock(f *testing.F) {
	h := testHeader(BigEndian, KindFloat)
	full := gridBytes(f, h, testValues(h))
	f.Add(full[h.HeaderLen:], 1, 1)
	f.Add([]byte{}, 0, 0)
	f.Add(bytes.Repeat([]byte{0x7F}, 10), 2, 3)

	f.Fuzz(func(t *testing.T, body []byte, row, col int) {
		data := append(append([]byte{}, full[:h.HeaderLen]...), body...)
		_, _ = ReadBlock(bytes.NewReader(data), &h, row, col, 3, 3)
	})
}

// FuzzLocate checks that every accepted query resolves to an interior cell.
// Run with: go test -fuzz=FuzzLocate -fuzztime=60s .
func FuzzLocate(f *testing.F) {
	h := testHeader(BigEndian, KindFloat)
	f.Add(10.3, -99.4)
	f.Add(9.995, -100.0)
	f.Add(12.02, -98.75)

	f.Fuzz(func(t *testing.T, lat, lon float64) {
		c, _, ok := h.Locate(lat, lon, 0.01)
		if !ok {
			return
		}
		if c.Row < 1 || c.Row > h.Rows-2 || c.Col < 1 || c.Col > h.Cols-2 {
			t.Fatalf("Locate(%g, %g) = %+v outside the interior", lat, lon, c)
		}
	})
}

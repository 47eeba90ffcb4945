package gridshift

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func mustEncodeHeader(t *testing.T, h Header) []byte {
	t.Helper()
	b, err := EncodeHeader(h)
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	return b
}

// TestParseHeaderBigEndian parses a float grid header and derives its
// extents and record layout.
func TestParseHeaderBigEndian(t *testing.T) {
	want := testHeader(BigEndian, KindFloat)
	got, err := ParseHeader(mustEncodeHeader(t, want))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
	if got.Order != BigEndian {
		t.Errorf("order: got %v", got.Order)
	}
	if got.CellSize != 4 || got.RecordLen != 32 {
		t.Errorf("cell size %d, record length %d; want 4, 32", got.CellSize, got.RecordLen)
	}
	if got.MaxLat != 12 || got.MaxLon != -98.75 {
		t.Errorf("max (%g, %g), want (12, -98.75)", got.MaxLat, got.MaxLon)
	}
	if got.HeaderLen != 64 {
		t.Errorf("header length %d, want 64", got.HeaderLen)
	}
}

// TestParseHeaderInfersLittleEndian re-reads the header little-endian when
// the big-endian kind is implausible.
func TestParseHeaderInfersLittleEndian(t *testing.T) {
	cases := []struct {
		kind     int
		cellSize int
	}{
		{KindFloatAlt, 4},
		{KindInt16, 2},
		{3, 2},
	}
	for _, tc := range cases {
		want := testHeader(LittleEndian, tc.kind)
		got, err := ParseHeader(mustEncodeHeader(t, want))
		if err != nil {
			t.Fatalf("kind %d: %v", tc.kind, err)
		}
		if got.Order != LittleEndian {
			t.Errorf("kind %d: order %v, want little-endian", tc.kind, got.Order)
		}
		if got.Kind != tc.kind || got.Rows != 5 || got.Cols != 6 {
			t.Errorf("kind %d: got kind %d rows %d cols %d", tc.kind, got.Kind, got.Rows, got.Cols)
		}
		if got.CellSize != tc.cellSize {
			t.Errorf("kind %d: cell size %d, want %d", tc.kind, got.CellSize, tc.cellSize)
		}
	}
}

// TestParseHeaderNegativeKindStaysBigEndian keeps big-endian for small
// negative kinds.
func TestParseHeaderNegativeKindStaysBigEndian(t *testing.T) {
	got, err := ParseHeader(mustEncodeHeader(t, testHeader(BigEndian, -1)))
	if err != nil {
		t.Fatal(err)
	}
	if got.Order != BigEndian || got.Kind != -1 || got.CellSize != 2 {
		t.Errorf("got order %v kind %d cell size %d", got.Order, got.Kind, got.CellSize)
	}
}

// TestParseHeaderLittleEndianKindZeroIsMisread documents the limit of the
// byte-order heuristic: a little-endian kind 0 reads as a plausible
// big-endian kind, and the byte-swapped dimensions are then rejected.
func TestParseHeaderLittleEndianKindZeroIsMisread(t *testing.T) {
	_, err := ParseHeader(mustEncodeHeader(t, testHeader(LittleEndian, KindFloat)))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("got %v, want ErrInvalidHeader", err)
	}
}

// TestParseHeaderTooShort rejects buffers smaller than the field block.
func TestParseHeaderTooShort(t *testing.T) {
	for _, n := range []int{0, 4, 47} {
		if _, err := ParseHeader(make([]byte, n)); !errors.Is(err, ErrTruncatedHeader) {
			t.Errorf("len %d: got %v, want ErrTruncatedHeader", n, err)
		}
	}
}

// TestReadHeader reads the configured header length from a file.
func TestReadHeader(t *testing.T) {
	h := testHeader(BigEndian, KindInt16)
	data := gridBytes(t, h, testValues(h))
	got, err := ReadHeader(bytes.NewReader(data), 64)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("got %+v\nwant %+v", got, h)
	}
	if got.Size() != int64(len(data)) {
		t.Errorf("Size %d, file is %d bytes", got.Size(), len(data))
	}
}

// TestReadHeaderTruncated fails when the file ends inside the header.
func TestReadHeaderTruncated(t *testing.T) {
	b := mustEncodeHeader(t, testHeader(BigEndian, KindFloat))
	_, err := ReadHeader(bytes.NewReader(b[:40]), 64)
	if !errors.Is(err, ErrTruncatedHeader) {
		t.Errorf("got %v, want ErrTruncatedHeader", err)
	}
}

// TestReadHeaderLengthBelowMinimum rejects a header length that cannot
// hold the fields.
func TestReadHeaderLengthBelowMinimum(t *testing.T) {
	b := mustEncodeHeader(t, testHeader(BigEndian, KindFloat))
	if _, err := ReadHeader(bytes.NewReader(b), 47); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("got %v, want ErrInvalidHeader", err)
	}
}

// TestCellOffset checks the padded record addressing.
func TestCellOffset(t *testing.T) {
	h := testHeader(BigEndian, KindFloat)
	cases := []struct {
		row, col int
		want     int64
	}{
		{0, 0, 64 + 4},
		{0, 5, 64 + 6*4},
		{1, 0, 64 + 32 + 4},
		{4, 2, 64 + 4*32 + 3*4},
	}
	for _, tc := range cases {
		if got := h.cellOffset(tc.row, tc.col); got != tc.want {
			t.Errorf("cellOffset(%d,%d): got %d, want %d", tc.row, tc.col, got, tc.want)
		}
	}
}

// TestCellSizeForKind covers every kind class.
func TestCellSizeForKind(t *testing.T) {
	for kind, want := range map[int]int{0: 4, 1: 4, 2: 2, 3: 2, -1: 2, math.MaxInt32: 2} {
		if got := CellSizeForKind(kind); got != want {
			t.Errorf("kind %d: got %d, want %d", kind, got, want)
		}
	}
}

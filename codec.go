package gridshift

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"
)

// ByteOrder selects how multi-byte fields are laid out in a grid file.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// Other returns the opposite byte order.
func (o ByteOrder) Other() ByteOrder {
	if o == LittleEndian {
		return BigEndian
	}
	return LittleEndian
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Codec reads and writes fixed-width scalars and fixed-length text in a
// byte buffer under one byte order. Floats are exact bit reinterpretations
// of the integer of the same width. The zero Codec is big-endian.
type Codec struct {
	Order ByteOrder
}

// span returns b[off:off+n] or ErrOutOfRange.
func span(b []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > len(b) || len(b)-off < n {
		return nil, fmt.Errorf("%w: %d bytes at offset %d (buffer %d)", ErrOutOfRange, n, off, len(b))
	}
	return b[off : off+n], nil
}

func (c Codec) Int16(b []byte, off int) (int16, error) {
	s, err := span(b, off, 2)
	if err != nil {
		return 0, err
	}
	return int16(c.Order.binary().Uint16(s)), nil
}

func (c Codec) Int32(b []byte, off int) (int32, error) {
	s, err := span(b, off, 4)
	if err != nil {
		return 0, err
	}
	return int32(c.Order.binary().Uint32(s)), nil
}

func (c Codec) Int64(b []byte, off int) (int64, error) {
	s, err := span(b, off, 8)
	if err != nil {
		return 0, err
	}
	return int64(c.Order.binary().Uint64(s)), nil
}

func (c Codec) Float32(b []byte, off int) (float32, error) {
	s, err := span(b, off, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(c.Order.binary().Uint32(s)), nil
}

func (c Codec) Float64(b []byte, off int) (float64, error) {
	s, err := span(b, off, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(c.Order.binary().Uint64(s)), nil
}

// String decodes n bytes at off as ISO-8859-1 text. There is no length
// prefix and NUL bytes are kept.
func (c Codec) String(b []byte, off, n int) (string, error) {
	s, err := span(b, off, n)
	if err != nil {
		return "", err
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(s)
	if err != nil {
		return "", fmt.Errorf("codec: decoding text at %d: %w", off, err)
	}
	return string(out), nil
}

func (c Codec) PutInt16(b []byte, off int, v int16) error {
	s, err := span(b, off, 2)
	if err != nil {
		return err
	}
	c.Order.binary().PutUint16(s, uint16(v))
	return nil
}

func (c Codec) PutInt32(b []byte, off int, v int32) error {
	s, err := span(b, off, 4)
	if err != nil {
		return err
	}
	c.Order.binary().PutUint32(s, uint32(v))
	return nil
}

func (c Codec) PutInt64(b []byte, off int, v int64) error {
	s, err := span(b, off, 8)
	if err != nil {
		return err
	}
	c.Order.binary().PutUint64(s, uint64(v))
	return nil
}

func (c Codec) PutFloat32(b []byte, off int, v float32) error {
	return c.PutInt32(b, off, int32(math.Float32bits(v)))
}

func (c Codec) PutFloat64(b []byte, off int, v float64) error {
	return c.PutInt64(b, off, int64(math.Float64bits(v)))
}

// PutString encodes str as ISO-8859-1 at off. Runes outside Latin-1 are an
// error; the encoded text must fit in the buffer.
func (c Codec) PutString(b []byte, off int, str string) error {
	enc, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(str))
	if err != nil {
		return fmt.Errorf("codec: encoding %q: %w", str, err)
	}
	s, err := span(b, off, len(enc))
	if err != nil {
		return err
	}
	copy(s, enc)
	return nil
}

package index

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

func float32FromBits(v uint32) float32 { return math.Float32frombits(v) }
func float32Bits(v float32) uint32     { return math.Float32bits(v) }

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// byteCursor is a tiny little-endian reader over an in-memory buffer, used
// by readers of small, fully-loaded artifacts (term dictionary, position
// dictionary, document map).
type byteCursor struct {
	buf []byte
	pos int
}

var errShortRead = errors.New("index: short read")

func (c *byteCursor) u32() (uint32, error) {
	if c.pos+4 > len(c.buf) {
		return 0, errShortRead
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *byteCursor) u64() (uint64, error) {
	if c.pos+8 > len(c.buf) {
		return 0, errShortRead
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *byteCursor) f32() (float32, error) {
	v, err := c.u32()
	if err != nil {
		return 0, err
	}
	return float32FromBits(v), nil
}

func (c *byteCursor) bytes(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, errShortRead
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

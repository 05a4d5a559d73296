// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

// cursor walks a blob left to right without backtracking, the way the
// signature grammar and the compressed-unsigned reader both require
// (spec §4.6, §4.7): every step either advances by a definite amount or
// fails.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, invalidData("cursor.readByte", "unexpected end of blob")
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, invalidData("cursor.readBytes", "unexpected end of blob")
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// peekUnsigned decodes the compressed-unsigned integer at the cursor
// without advancing, returning its value and its encoded width in bytes
// (spec §4.4 "Cell reads", §4.6 "peek_unsigned").
func (c *cursor) peekUnsigned() (uint32, int, error) {
	if c.pos >= len(c.buf) {
		return 0, 0, invalidData("cursor.peekUnsigned", "unexpected end of blob")
	}
	b0 := c.buf[c.pos]
	switch {
	case b0&0x80 == 0:
		return uint32(b0), 1, nil
	case b0&0xC0 == 0x80:
		if c.pos+1 >= len(c.buf) {
			return 0, 0, invalidData("cursor.peekUnsigned", "truncated 2-byte compressed integer")
		}
		b1 := c.buf[c.pos+1]
		return (uint32(b0&0x3F) << 8) | uint32(b1), 2, nil
	case b0&0xE0 == 0xC0:
		if c.pos+3 >= len(c.buf) {
			return 0, 0, invalidData("cursor.peekUnsigned", "truncated 4-byte compressed integer")
		}
		b1, b2, b3 := c.buf[c.pos+1], c.buf[c.pos+2], c.buf[c.pos+3]
		return (uint32(b0&0x1F) << 24) | (uint32(b1) << 16) | (uint32(b2) << 8) | uint32(b3), 4, nil
	default:
		return 0, 0, invalidData("cursor.peekUnsigned", "invalid compressed integer lead byte %#x", b0)
	}
}

// readUnsigned decodes and advances past a compressed-unsigned integer
// (spec §4.6 "read_unsigned").
func (c *cursor) readUnsigned() (uint32, error) {
	v, n, err := c.peekUnsigned()
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

// readExpected advances past the next compressed-unsigned integer only
// if it equals tag (spec §4.6 "read_expected").
func (c *cursor) readExpected(tag uint32) (bool, error) {
	v, n, err := c.peekUnsigned()
	if err != nil {
		return false, err
	}
	if v != tag {
		return false, nil
	}
	c.pos += n
	return true, nil
}

// readPrefixedString reads a compressed-unsigned byte length followed by
// that many UTF-8 bytes (the shape used by custom-attribute blob names
// and string arguments, spec §4.7).
func (c *cursor) readPrefixedString() (string, error) {
	// 0xFF is the documented "null string" marker in custom attribute blobs.
	if c.pos < len(c.buf) && c.buf[c.pos] == 0xFF {
		c.pos++
		return "", nil
	}
	n, err := c.readUnsigned()
	if err != nil {
		return "", err
	}
	b, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readBlobCell reads a `u32` heap index, then the compressed-length
// prefixed bytes of the blob it points at (spec §4.4 "blob(row, column)").
func (img *image) readBlobCell(idx uint32) ([]byte, error) {
	const op = "readBlobCell"
	heap := img.streams.blob
	c := newCursor(heap)
	c.pos = int(idx)
	if c.pos > len(heap) {
		return nil, invalidData(op, "blob index %#x outside #Blob heap", idx)
	}
	n, err := c.readUnsigned()
	if err != nil {
		return nil, wrapInvalidData(op, err)
	}
	return c.readBytes(int(n))
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeCompressedUnsigned(v uint32) []byte {
	switch {
	case v < 0x80:
		return []byte{byte(v)}
	case v < 0x4000:
		return []byte{byte(v>>8) | 0x80, byte(v)}
	default:
		return []byte{
			byte(v>>24) | 0xC0,
			byte(v >> 16),
			byte(v >> 8),
			byte(v),
		}
	}
}

func TestCompressedUnsignedRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x3F, 0x7F, 0x80, 0x2FFF, 0x3FFF, 0x4000, 0x1FFFFFFF}
	for _, v := range values {
		buf := encodeCompressedUnsigned(v)
		c := newCursor(buf)
		got, err := c.readUnsigned()
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, len(buf), c.pos)
	}
}

func TestPeekUnsignedDoesNotAdvance(t *testing.T) {
	c := newCursor(encodeCompressedUnsigned(0x80))
	v, n, err := c.peekUnsigned()
	require.NoError(t, err)
	require.Equal(t, uint32(0x80), v)
	require.Equal(t, 2, n)
	require.Equal(t, 0, c.pos)
}

func TestReadExpected(t *testing.T) {
	c := newCursor(encodeCompressedUnsigned(5))
	ok, err := c.readExpected(6)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, c.pos)

	ok, err = c.readExpected(5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, c.pos)
}

func TestReadPrefixedStringNullMarker(t *testing.T) {
	c := newCursor([]byte{0xFF})
	s, err := c.readPrefixedString()
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestReadPrefixedString(t *testing.T) {
	buf := append(encodeCompressedUnsigned(5), []byte("hello")...)
	c := newCursor(buf)
	s, err := c.readPrefixedString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)
}

func TestReadUnsignedTruncated(t *testing.T) {
	c := newCursor([]byte{0x80})
	_, err := c.readUnsigned()
	require.Error(t, err)
	require.True(t, IsInvalidData(err))
}

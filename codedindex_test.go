// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodedIndexRoundTrip(t *testing.T) {
	img := &image{}
	for k := codedIndexKind(0); k < codedIndexKindCount; k++ {
		s := codedSchema(k)
		for tag, tbl := range s.tables {
			if tbl == tableNone {
				continue
			}
			ref := rowRef{img: img, table: tbl, row: 7}
			code, err := encodeCoded(k, ref)
			require.NoErrorf(t, err, "family %d tag %d", k, tag)

			decoded, err := decodeCoded(img, k, code)
			require.NoErrorf(t, err, "family %d tag %d", k, tag)
			require.Equal(t, tbl, decoded.table)
			require.Equal(t, uint32(7), decoded.row)
		}
	}
}

func TestCodedIndexAbsent(t *testing.T) {
	ref, err := decodeCoded(nil, codedTypeDefOrRef, 0)
	require.NoError(t, err)
	require.True(t, ref.isAbsent())

	code, err := encodeCoded(codedTypeDefOrRef, rowRef{table: tableNone})
	require.NoError(t, err)
	require.Equal(t, uint32(0), code)
}

func TestCodedIndexUnassignedTag(t *testing.T) {
	// Tag 8 of HasCustomAttribute is the reserved "Permission" slot.
	s := codedSchema(codedHasCustomAttribute)
	code := uint32(8) | (1 << s.bits)
	_, err := decodeCoded(&image{}, codedHasCustomAttribute, code)
	require.Error(t, err)
	require.True(t, IsInvalidData(err))
}

func TestCodedIndexWidth(t *testing.T) {
	var rowCounts [tableSlotCount]uint32
	// TypeDefOrRef is 2 bits wide: threshold is 2^14.
	require.Equal(t, uint32(2), codedIndexWidth(codedTypeDefOrRef, rowCounts))

	rowCounts[tableTypeRef] = 1 << 14
	require.Equal(t, uint32(4), codedIndexWidth(codedTypeDefOrRef, rowCounts))
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMinimalTablesStream assembles a synthetic `#~` stream with 2-byte
// heap widths, two TypeDef rows and three Field rows, wired so TypeDef
// row 0 owns Field rows [0,1] and TypeDef row 1 owns Field row [2] (spec
// §4.4 "Child-list resolution"). No .winmd binary fixture ships in the
// retrieval pack, so table-engine tests build their own byte-literal
// stream the way `original_source/src/cache.rs`'s own unit tests do.
func buildMinimalTablesStream(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer

	buf.Write(make([]byte, 4)) // reserved
	buf.WriteByte(2)           // major version
	buf.WriteByte(0)           // minor version
	buf.WriteByte(0)           // heap_sizes: all heaps 2-byte
	buf.WriteByte(0)           // reserved

	valid := uint64(1)<<tableTypeDef | uint64(1)<<tableField
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, valid))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(0))) // sorted, unused

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2))) // TypeDef rows
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(3))) // Field rows

	writeTypeDefRow := func(fieldList uint16) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // Flags
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // Name
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // Namespace
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // Extends
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, fieldList)) // FieldList
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // MethodList
	}
	writeTypeDefRow(1)
	writeTypeDefRow(3)

	writeFieldRow := func() {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // Flags
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // Name
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // Signature
	}
	writeFieldRow()
	writeFieldRow()
	writeFieldRow()

	return buf.Bytes()
}

func TestParseTablesRowCounts(t *testing.T) {
	tbl, err := parseTables(buildMinimalTablesStream(t))
	require.NoError(t, err)
	require.Equal(t, uint32(2), tbl.rowCounts[tableTypeDef])
	require.Equal(t, uint32(3), tbl.rowCounts[tableField])
	require.Equal(t, uint32(2), tbl.strWidth)
	require.Equal(t, uint32(2), tbl.blobWidth)
}

func TestTableEngineCellReads(t *testing.T) {
	tbl, err := parseTables(buildMinimalTablesStream(t))
	require.NoError(t, err)

	col := tbl.columnIndex(tableTypeDef, "FieldList")
	require.NotEqual(t, -1, col)

	v, err := tbl.cell(tableTypeDef, 0, col)
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)

	v, err = tbl.cell(tableTypeDef, 1, col)
	require.NoError(t, err)
	require.Equal(t, uint32(3), v)

	_, err = tbl.cell(tableTypeDef, 2, col)
	require.Error(t, err)
	require.True(t, IsInvalidData(err))
}

func TestChildRange(t *testing.T) {
	tbl, err := parseTables(buildMinimalTablesStream(t))
	require.NoError(t, err)
	col := tbl.columnIndex(tableTypeDef, "FieldList")

	lo, hi, err := tbl.childRange(tableTypeDef, col, tableField, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), lo)
	require.Equal(t, uint32(2), hi)

	lo, hi, err = tbl.childRange(tableTypeDef, col, tableField, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(2), lo)
	require.Equal(t, uint32(3), hi)
}

func TestBinarySearch(t *testing.T) {
	tbl, err := parseTables(buildMinimalTablesStream(t))
	require.NoError(t, err)
	col := tbl.columnIndex(tableTypeDef, "FieldList")

	lo, err := tbl.lowerBound(tableTypeDef, col, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), lo)

	hi, err := tbl.upperBound(tableTypeDef, col, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), hi)

	lo, hi, err = tbl.equalRange(tableTypeDef, col, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), lo)
	require.Equal(t, uint32(1), hi)
}

func TestParseTablesTruncatedHeader(t *testing.T) {
	_, err := parseTables(make([]byte, 4))
	require.Error(t, err)
	require.True(t, IsInvalidData(err))
}

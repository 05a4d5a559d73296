// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import "encoding/binary"

// tables holds the per-file layout computed once at load time: row
// counts, per-table column layouts and heap-index widths (spec §4.4).
type tables struct {
	data        []byte
	rowCounts   [tableSlotCount]uint32
	descriptors [tableSlotCount]tableDescriptor
	strWidth    uint32
	guidWidth   uint32
	blobWidth   uint32
}

func readU8At(b []byte, off uint32) (uint8, error) {
	if off >= uint32(len(b)) {
		return 0, errOutsideBoundary
	}
	return b[off], nil
}

func readU16At(b []byte, off uint32) (uint16, error) {
	if uint32(len(b)) < 2 || off > uint32(len(b))-2 {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint16(b[off:]), nil
}

func readU32At(b []byte, off uint32) (uint32, error) {
	if uint32(len(b)) < 4 || off > uint32(len(b))-4 {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint32(b[off:]), nil
}

func readU64At(b []byte, off uint32) (uint64, error) {
	if uint32(len(b)) < 8 || off > uint32(len(b))-8 {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint64(b[off:]), nil
}

// parseTables decodes the #~ stream header and row data (spec §4.4).
func parseTables(streamData []byte) (*tables, error) {
	const op = "parseTables"

	heapSizes, err := readU8At(streamData, 6)
	if err != nil {
		return nil, wrapInvalidData(op, err)
	}
	valid, err := readU64At(streamData, 8)
	if err != nil {
		return nil, wrapInvalidData(op, err)
	}

	t := &tables{data: streamData}
	if heapSizes&0x01 != 0 {
		t.strWidth = 4
	} else {
		t.strWidth = 2
	}
	if heapSizes&0x02 != 0 {
		t.guidWidth = 4
	} else {
		t.guidWidth = 2
	}
	if heapSizes&0x04 != 0 {
		t.blobWidth = 4
	} else {
		t.blobWidth = 2
	}

	// Sorted bit vector occupies bytes 16..24; this reader does not need
	// it, since the set of sorted columns is fixed by ECMA-335 (spec
	// §4.4) rather than discovered at runtime.
	offset := uint32(24)
	for i := 0; i <= 44; i++ {
		if valid&(1<<uint(i)) == 0 {
			continue
		}
		id := tableID(i)
		if schema(id) == nil {
			return nil, invalidData(op, "valid_bits sets unknown table id %#x", i)
		}
		rc, err := readU32At(streamData, offset)
		if err != nil {
			return nil, wrapInvalidData(op, err)
		}
		t.rowCounts[id] = rc
		offset += 4
	}

	if err := t.resolveLayout(); err != nil {
		return nil, err
	}

	// Row data blocks follow the header in wire-id order.
	dataOffset := offset
	for _, id := range allTableIDs {
		d := &t.descriptors[id]
		d.id = id
		d.rowCount = t.rowCounts[id]
		d.dataOffset = dataOffset
		size := d.rowCount * d.rowSize
		if uint32(len(streamData)) < dataOffset || uint32(len(streamData))-dataOffset < size {
			return nil, invalidData(op, "table %s row data runs past end of #~ stream", id)
		}
		dataOffset += size
	}

	return t, nil
}

// resolveLayout fills column offsets/widths for every present table, once
// row counts (and therefore coded-index and table-index widths) are known.
func (t *tables) resolveLayout() error {
	var codedWidths [codedIndexKindCount]uint32
	for k := codedIndexKind(0); k < codedIndexKindCount; k++ {
		codedWidths[k] = codedIndexWidth(k, t.rowCounts)
	}

	for _, id := range allTableIDs {
		spec := schema(id)
		d := &t.descriptors[id]
		var off uint32
		cols := make([]columnDesc, 0, len(spec))
		for _, cs := range spec {
			var w uint32
			switch cs.kind {
			case colU16:
				w = 2
			case colU32:
				w = 4
			case colStr:
				w = t.strWidth
			case colGUID:
				w = t.guidWidth
			case colBlob:
				w = t.blobWidth
			case colTableIdx:
				if t.rowCounts[cs.table] < (1 << 16) {
					w = 2
				} else {
					w = 4
				}
			case colCoded:
				w = codedWidths[cs.coded]
			}
			cols = append(cols, columnDesc{columnSpec: cs, offset: off, width: w})
			off += w
		}
		d.columns = cols
		d.rowSize = off
	}
	return nil
}

// cell reads the raw little-endian value of a column, widened to u32
// (spec §4.4 "u32(row, column)").
func (t *tables) cell(id tableID, row uint32, col int) (uint32, error) {
	const op = "cell"
	d := &t.descriptors[id]
	if col < 0 || col >= len(d.columns) {
		return 0, invalidData(op, "table %s has no column %d", id, col)
	}
	if row >= d.rowCount {
		return 0, invalidData(op, "table %s row %d out of range (%d rows)", id, row, d.rowCount)
	}
	c := d.columns[col]
	off := d.dataOffset + row*d.rowSize + c.offset
	switch c.width {
	case 1:
		v, err := readU8At(t.data, off)
		return uint32(v), err
	case 2:
		v, err := readU16At(t.data, off)
		return uint32(v), err
	case 4:
		return readU32At(t.data, off)
	default:
		return 0, invalidData(op, "unsupported column width %d", c.width)
	}
}

func (t *tables) columnIndex(id tableID, name string) int {
	for i, c := range t.descriptors[id].columns {
		if c.name == name {
			return i
		}
	}
	return -1
}

// upperBound returns the smallest row index i with cell(i, col) > value,
// or rowCount if none (spec §4.4).
func (t *tables) upperBound(id tableID, col int, value uint32) (uint32, error) {
	d := &t.descriptors[id]
	lo, hi := uint32(0), d.rowCount
	for lo < hi {
		mid := lo + (hi-lo)/2
		v, err := t.cell(id, mid, col)
		if err != nil {
			return 0, err
		}
		if v > value {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// lowerBound returns the smallest row index i with cell(i, col) >= value,
// or rowCount if none (spec §4.4).
func (t *tables) lowerBound(id tableID, col int, value uint32) (uint32, error) {
	d := &t.descriptors[id]
	lo, hi := uint32(0), d.rowCount
	for lo < hi {
		mid := lo + (hi-lo)/2
		v, err := t.cell(id, mid, col)
		if err != nil {
			return 0, err
		}
		if v < value {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// equalRange returns the half-open [lo, hi) of rows whose column equals
// value (spec §4.4).
func (t *tables) equalRange(id tableID, col int, value uint32) (uint32, uint32, error) {
	lo, err := t.lowerBound(id, col, value)
	if err != nil {
		return 0, 0, err
	}
	hi, err := t.upperBound(id, col, value)
	if err != nil {
		return 0, 0, err
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi, nil
}

// childRange resolves a TypeDef-style prefix-sum child list: the rows
// owned by parent row `row` of `parentTable` via `listCol` are
// [cell(row, listCol)-1, next-1) in the zero-based child table, where
// `next` is the same column of row+1, or the child table's row count for
// the last parent row (spec §4.4 "Child-list resolution").
func (t *tables) childRange(parentTable tableID, listCol int, childTable tableID, row uint32) (uint32, uint32, error) {
	parent := &t.descriptors[parentTable]
	start, err := t.cell(parentTable, row, listCol)
	if err != nil {
		return 0, 0, err
	}
	var end uint32
	if row+1 < parent.rowCount {
		end, err = t.cell(parentTable, row+1, listCol)
		if err != nil {
			return 0, 0, err
		}
	} else {
		end = t.rowCounts[childTable] + 1
	}
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = 1
	}
	return start - 1, end - 1, nil
}

// strCell reads a string-heap column: a heap-index cell followed by a
// 0-terminated UTF-8 string in #Strings (spec §4.4 "str(row, column)").
func (img *image) strCell(id tableID, row uint32, col int) (string, error) {
	idx, err := img.tables.cell(id, row, col)
	if err != nil {
		return "", err
	}
	if idx == 0 {
		return "", nil
	}
	s, err := readCStringFrom(img.streams.strings, idx)
	if err != nil {
		return "", wrapInvalidData("strCell", err)
	}
	return s, nil
}

func readCStringFrom(heap []byte, idx uint32) (string, error) {
	if idx > uint32(len(heap)) {
		return "", invalidData("readCStringFrom", "string index %#x outside #Strings heap", idx)
	}
	end := idx
	for end < uint32(len(heap)) && heap[end] != 0 {
		end++
	}
	if end >= uint32(len(heap)) {
		return "", invalidData("readCStringFrom", "unterminated string at index %#x", idx)
	}
	return string(heap[idx:end]), nil
}

// blobCell reads a blob-heap column (spec §4.4 "blob(row, column)").
func (img *image) blobCell(id tableID, row uint32, col int) ([]byte, error) {
	idx, err := img.tables.cell(id, row, col)
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	return img.readBlobCell(idx)
}

// guidCell reads a GUID-heap column, returning the raw 16 bytes. A
// 1-based index of 0 means absent.
func (img *image) guidCell(id tableID, row uint32, col int) ([]byte, error) {
	idx, err := img.tables.cell(id, row, col)
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	off := (idx - 1) * 16
	if uint32(len(img.streams.guid)) < off+16 {
		return nil, invalidData("guidCell", "GUID index %#x outside #GUID heap", idx)
	}
	return img.streams.guid[off : off+16], nil
}

// tableIdxCell reads a simple (non-coded) table-index column, returning
// the 0-based row index and whether it was present.
func (img *image) tableIdxCell(id tableID, row uint32, col int) (uint32, bool, error) {
	v, err := img.tables.cell(id, row, col)
	if err != nil {
		return 0, false, err
	}
	if v == 0 {
		return 0, false, nil
	}
	return v - 1, true, nil
}

// codedCell reads a coded-index column and decodes it into a typed row
// reference (spec §4.5).
func (img *image) codedCell(id tableID, row uint32, col int, kind codedIndexKind) (rowRef, error) {
	v, err := img.tables.cell(id, row, col)
	if err != nil {
		return rowRef{}, err
	}
	return decodeCoded(img, kind, v)
}

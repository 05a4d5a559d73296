// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"bytes"
	"encoding/binary"
)

// FileAlignmentHardcodedValue is the value PointerToRawData must be at
// least equal to, or it is rounded to zero.
const FileAlignmentHardcodedValue = 0x200

// Max returns the larger of x or y.
func Max(x, y uint32) uint32 {
	if x < y {
		return y
	}
	return x
}

// getSectionByRva returns the section containing the given address.
func (r *image) getSectionByRva(rva uint32) *Section {
	for i := range r.Sections {
		if r.Sections[i].Contains(rva, r) {
			return &r.Sections[i]
		}
	}
	return nil
}

// GetOffsetFromRva translates an RVA to a file offset through the
// section table (spec §4.2 step 4).
func (r *image) GetOffsetFromRva(rva uint32) (uint32, error) {
	section := r.getSectionByRva(rva)
	if section == nil {
		if rva < r.size {
			return rva, nil
		}
		return 0, invalidData("GetOffsetFromRva", "rva %#x is not covered by any section", rva)
	}
	sectionAlignment := r.adjustSectionAlignment(section.Header.VirtualAddress)
	fileAlignment := r.adjustFileAlignment(section.Header.PointerToRawData)
	return rva - sectionAlignment + fileAlignment, nil
}

// The alignment factor that is used to align the raw data of sections in
// the image file.
func (r *image) adjustFileAlignment(va uint32) uint32 {
	fileAlignment := r.fileAlignment()
	if fileAlignment < FileAlignmentHardcodedValue {
		return va
	}
	return (va / 0x200) * 0x200
}

// The alignment of sections when loaded into memory.
func (r *image) adjustSectionAlignment(va uint32) uint32 {
	fileAlignment := r.fileAlignment()
	sectionAlignment := r.sectionAlignment()
	if sectionAlignment < 0x1000 {
		sectionAlignment = fileAlignment
	}
	if sectionAlignment != 0 && va%sectionAlignment != 0 {
		return sectionAlignment * (va / sectionAlignment)
	}
	return va
}

// ReadUint64 reads a little-endian uint64 at offset.
func (r *image) ReadUint64(offset uint32) (uint64, error) {
	if offset+8 > r.size {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint64(r.data[offset:]), nil
}

// ReadUint32 reads a little-endian uint32 at offset.
func (r *image) ReadUint32(offset uint32) (uint32, error) {
	if r.size < 4 || offset > r.size-4 {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint32(r.data[offset:]), nil
}

// ReadUint16 reads a little-endian uint16 at offset.
func (r *image) ReadUint16(offset uint32) (uint16, error) {
	if r.size < 2 || offset > r.size-2 {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint16(r.data[offset:]), nil
}

// ReadUint8 reads a byte at offset.
func (r *image) ReadUint8(offset uint32) (uint8, error) {
	if offset+1 > r.size {
		return 0, errOutsideBoundary
	}
	return r.data[offset], nil
}

// structUnpack decodes a fixed-size little-endian struct at offset.
func (r *image) structUnpack(iface interface{}, offset, size uint32) error {
	totalSize := offset + size
	if (totalSize > offset) != (size > 0) {
		return errOutsideBoundary
	}
	if offset >= r.size || totalSize > r.size {
		return errOutsideBoundary
	}
	buf := bytes.NewReader(r.data[offset : offset+size])
	return binary.Read(buf, binary.LittleEndian, iface)
}

// ReadBytesAtOffset returns a byte slice view [offset, offset+size) of
// the image (spec §4.1 sub).
func (r *image) ReadBytesAtOffset(offset, size uint32) ([]byte, error) {
	totalSize := offset + size
	if (totalSize > offset) != (size > 0) {
		return nil, errOutsideBoundary
	}
	if offset >= r.size || totalSize > r.size {
		return nil, errOutsideBoundary
	}
	return r.data[offset : offset+size], nil
}

// ReadCString returns the 0-terminated byte slice starting at offset,
// excluding the terminator (spec §4.1 peek_cstr).
func (r *image) ReadCString(offset uint32) ([]byte, error) {
	if offset > r.size {
		return nil, errOutsideBoundary
	}
	end := offset
	for end < r.size && r.data[end] != 0 {
		end++
	}
	if end >= r.size {
		return nil, errOutsideBoundary
	}
	return r.data[offset:end], nil
}


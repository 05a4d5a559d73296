// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"encoding/binary"
	"sort"
	"strings"
)

// ImageSectionHeader is one row of the section table, which immediately
// follows the optional header. Binary spec: 40 bytes, no padding.
type ImageSectionHeader struct {
	Name                 [8]uint8
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// Section is one parsed PE section header; Data reads the section's bytes
// from the image on demand.
type Section struct {
	Header ImageSectionHeader
}

// parseSectionHeader parses the section table. The CLI metadata root is
// reached by translating an RVA through these entries (spec §4.2 step 4).
func (r *image) parseSectionHeader() error {
	const op = "parseSectionHeader"

	optionalHeaderOffset := r.DOSHeader.AddressOfNewEXEHeader + 4 +
		uint32(binary.Size(r.NtHeader.FileHeader))
	offset := optionalHeaderOffset + uint32(r.NtHeader.FileHeader.SizeOfOptionalHeader)

	secHeader := ImageSectionHeader{}
	numberOfSections := r.NtHeader.FileHeader.NumberOfSections
	secHeaderSize := uint32(binary.Size(secHeader))

	for i := uint16(0); i < numberOfSections; i++ {
		if err := r.structUnpack(&secHeader, offset, secHeaderSize); err != nil {
			return wrapInvalidData(op, err)
		}

		if (ImageSectionHeader{}) == secHeader {
			r.Anomalies = append(r.Anomalies, "section "+sectionName(secHeader)+" has no content")
		}
		if secHeader.SizeOfRawData+secHeader.PointerToRawData > r.size {
			r.Anomalies = append(r.Anomalies, "section "+sectionName(secHeader)+" SizeOfRawData exceeds file size")
		}

		r.Sections = append(r.Sections, Section{Header: secHeader})
		offset += secHeaderSize
	}

	sort.Sort(byVirtualAddress(r.Sections))
	r.HasSections = true
	return nil
}

func sectionName(h ImageSectionHeader) string {
	return strings.Replace(string(h.Name[:]), "\x00", "", -1)
}

// String stringifies the section name.
func (section *Section) String() string {
	return sectionName(section.Header)
}

// Contains reports whether the section covers the given RVA.
func (section *Section) Contains(rva uint32, r *image) bool {
	size := Max(section.Header.SizeOfRawData, section.Header.VirtualSize)
	vaAdj := r.adjustSectionAlignment(section.Header.VirtualAddress)
	return vaAdj <= rva && rva < vaAdj+size
}

// Data returns a data chunk from the section, given an RVA and a length;
// length 0 means "to the end of the section's raw data".
func (section *Section) Data(start, length uint32, r *image) []byte {
	pointerToRawDataAdj := r.adjustFileAlignment(section.Header.PointerToRawData)
	virtualAddressAdj := r.adjustSectionAlignment(section.Header.VirtualAddress)

	var offset uint32
	if start == 0 {
		offset = pointerToRawDataAdj
	} else {
		offset = (start - virtualAddressAdj) + pointerToRawDataAdj
	}
	if offset > r.size {
		return nil
	}

	var end uint32
	if length != 0 {
		end = offset + length
	} else {
		end = offset + section.Header.SizeOfRawData
	}
	if end > r.size {
		end = r.size
	}
	return r.data[offset:end]
}

// byVirtualAddress sorts sections by VirtualAddress, matching the
// ordering the teacher's RVA-translation helpers assume.
type byVirtualAddress []Section

func (s byVirtualAddress) Len() int      { return len(s) }
func (s byVirtualAddress) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byVirtualAddress) Less(i, j int) bool {
	return s[i].Header.VirtualAddress < s[j].Header.VirtualAddress
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"encoding/binary"
)

// ImageDOSHeader represents the DOS stub of a PE.
type ImageDOSHeader struct {
	Magic                    uint16
	BytesOnLastPageOfFile    uint16
	PagesInFile              uint16
	Relocations              uint16
	SizeOfHeader             uint16
	MinExtraParagraphsNeeded uint16
	MaxExtraParagraphsNeeded uint16
	InitialSS                uint16
	InitialSP                uint16
	Checksum                 uint16
	InitialIP                uint16
	InitialCS                uint16
	AddressOfRelocationTable uint16
	OverlayNumber            uint16
	ReservedWords1           [4]uint16
	OEMIdentifier            uint16
	OEMInformation           uint16
	ReservedWords2           [10]uint16
	// AddressOfNewEXEHeader is e_lfanew: the file offset of the NT headers.
	AddressOfNewEXEHeader uint32
}

// parseDOSHeader parses the DOS header stub that every PE file begins
// with. Its only load-bearing field for this reader is e_lfanew, which
// locates the NT headers (spec §4.2 step 1).
func (r *image) parseDOSHeader() error {
	const op = "parseDOSHeader"

	size := uint32(binary.Size(r.DOSHeader))
	if err := r.structUnpack(&r.DOSHeader, 0, size); err != nil {
		return wrapInvalidData(op, err)
	}

	// It can be ZM on a (non-PE) EXE. That is rejected here too: only the
	// MZ signature is accepted.
	if r.DOSHeader.Magic != ImageDOSSignature {
		return invalidData(op, "DOS header magic not found")
	}

	if r.DOSHeader.AddressOfNewEXEHeader < 4 ||
		r.DOSHeader.AddressOfNewEXEHeader > r.size {
		return invalidData(op, "invalid e_lfanew value %#x", r.DOSHeader.AddressOfNewEXEHeader)
	}

	r.HasDOSHdr = true
	return nil
}

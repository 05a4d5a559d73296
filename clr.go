// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import "encoding/binary"

// metadataRootMagic is "BSJB" little-endian: the metadata root signature
// (spec §4.2 step 6).
const metadataRootMagic = 0x424A5342

// ImageCorHeader is the CLI/CLR header (IMAGE_COR20_HEADER), reached
// through data directory entry 14 (spec §4.2 step 5).
type ImageCorHeader struct {
	Cb                      uint32
	MajorRuntimeVersion     uint16
	MinorRuntimeVersion     uint16
	MetaData                DataDirectory
	Flags                   uint32
	EntryPointToken         uint32
	Resources               DataDirectory
	StrongNameSignature     DataDirectory
	CodeManagerTable        DataDirectory
	VTableFixups            DataDirectory
	ExportAddressTableJumps DataDirectory
	ManagedNativeHeader     DataDirectory
}

// parseCLRHeader locates and reads the CLI header, then translates its
// metadata-root RVA and checks the BSJB signature, completing spec §4.2
// steps 4-6. It returns the absolute file offset of the metadata root.
func (r *image) parseCLRHeader() (uint32, error) {
	const op = "parseCLRHeader"

	dir := r.dataDirectory(ImageDirectoryEntryCLR)
	if dir.VirtualAddress == 0 {
		return 0, invalidData(op, "image carries no CLR/COM descriptor directory")
	}

	clrOffset, err := r.GetOffsetFromRva(dir.VirtualAddress)
	if err != nil {
		return 0, wrapInvalidData(op, err)
	}

	size := uint32(binary.Size(ImageCorHeader{}))
	if err := r.structUnpack(&r.CLR, clrOffset, size); err != nil {
		return 0, wrapInvalidData(op, err)
	}
	if r.CLR.Cb != size {
		return 0, invalidData(op, "IMAGE_COR20_HEADER.cb (%d) does not match sizeof(ImageCorHeader) (%d)", r.CLR.Cb, size)
	}

	rootOffset, err := r.GetOffsetFromRva(r.CLR.MetaData.VirtualAddress)
	if err != nil {
		return 0, wrapInvalidData(op, err)
	}

	magic, err := r.ReadUint32(rootOffset)
	if err != nil {
		return 0, wrapInvalidData(op, err)
	}
	if magic != metadataRootMagic {
		return 0, invalidData(op, "metadata root signature %#x is not BSJB", magic)
	}

	r.HasCLR = true
	return rootOffset, nil
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

// streamTable holds the byte ranges of the four streams this reader
// understands (spec §4.3). #US (the user-string heap) is recognised and
// skipped; it carries no metadata this reader exposes.
type streamTable struct {
	strings []byte
	guid    []byte
	blob    []byte
	tables  []byte
}

// parseStreams walks the stream header table starting at the metadata
// root and slices out the four streams this reader uses (spec §4.3).
func (r *image) parseStreams(rootOffset uint32) (streamTable, error) {
	const op = "parseStreams"
	var st streamTable

	versionLengthOffset := rootOffset + 12
	versionLength, err := r.ReadUint32(versionLengthOffset)
	if err != nil {
		return st, wrapInvalidData(op, err)
	}

	streamCountOffset := versionLengthOffset + 4 + versionLength + 2
	streamCount, err := r.ReadUint16(streamCountOffset)
	if err != nil {
		return st, wrapInvalidData(op, err)
	}

	offset := streamCountOffset + 2
	for i := uint16(0); i < streamCount; i++ {
		streamOffset, err := r.ReadUint32(offset)
		if err != nil {
			return st, wrapInvalidData(op, err)
		}
		streamSize, err := r.ReadUint32(offset + 4)
		if err != nil {
			return st, wrapInvalidData(op, err)
		}
		name, err := r.ReadCString(offset + 8)
		if err != nil {
			return st, wrapInvalidData(op, err)
		}

		absOffset := rootOffset + streamOffset
		data, err := r.ReadBytesAtOffset(absOffset, streamSize)
		if err != nil {
			return st, wrapInvalidData(op, err)
		}

		switch string(name) {
		case "#Strings":
			st.strings = data
		case "#GUID":
			st.guid = data
		case "#Blob":
			st.blob = data
		case "#~":
			st.tables = data
		case "#US":
			// User-string heap: recognised, not used by this reader.
		default:
			return st, invalidData(op, "unrecognised metadata stream name %q", name)
		}

		// Name occupies len(name)+1 bytes (including the terminator),
		// rounded up to a multiple of 4; a name whose length is already
		// a multiple of 4 still consumes a full extra 4 bytes, since the
		// terminator alone pushes it past the boundary (spec §4.3).
		nameField := uint32(len(name)) + 1
		nameField = (nameField + 3) &^ 3
		offset += 8 + nameField
	}

	if st.tables == nil {
		return st, invalidData(op, "metadata root has no #~ tables stream")
	}
	return st, nil
}

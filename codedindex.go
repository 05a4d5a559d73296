// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

// codedIndexKind names one of the 13 tagged-index families (spec §3, §4.5).
type codedIndexKind int

const (
	codedTypeDefOrRef codedIndexKind = iota
	codedHasCustomAttribute
	codedHasConstant
	codedHasFieldMarshal
	codedHasDeclSecurity
	codedMemberRefParent
	codedHasSemantics
	codedMethodDefOrRef
	codedMemberForwarded
	codedImplementation
	codedCustomAttributeType
	codedResolutionScope
	codedTypeOrMethodDef

	codedIndexKindCount
)

// codedIndexSchema is the bit width and tag-ordered member-table list for
// one coded-index family, bit-exact with spec §3's table.
type codedIndexSchema struct {
	bits   uint
	tables []tableID
}

func codedSchema(k codedIndexKind) codedIndexSchema {
	switch k {
	case codedTypeDefOrRef:
		return codedIndexSchema{2, []tableID{tableTypeDef, tableTypeRef, tableTypeSpec}}
	case codedHasCustomAttribute:
		return codedIndexSchema{5, []tableID{
			tableMethodDef, tableField, tableTypeRef, tableTypeDef, tableParam,
			tableInterfaceImpl, tableMemberRef, tableModule, tableNone, /* Permission */
			tableProperty, tableEvent, tableStandAloneSig, tableModuleRef,
			tableTypeSpec, tableAssembly, tableAssemblyRef, tableFile,
			tableExportedType, tableManifestResource, tableGenericParam,
			tableGenericParamConstraint, tableMethodSpec,
		}}
	case codedHasConstant:
		return codedIndexSchema{2, []tableID{tableField, tableParam, tableProperty}}
	case codedHasFieldMarshal:
		return codedIndexSchema{1, []tableID{tableField, tableParam}}
	case codedHasDeclSecurity:
		return codedIndexSchema{2, []tableID{tableTypeDef, tableMethodDef, tableAssembly}}
	case codedMemberRefParent:
		return codedIndexSchema{3, []tableID{tableTypeDef, tableTypeRef, tableModuleRef, tableMethodDef, tableTypeSpec}}
	case codedHasSemantics:
		return codedIndexSchema{1, []tableID{tableEvent, tableProperty}}
	case codedMethodDefOrRef:
		return codedIndexSchema{1, []tableID{tableMethodDef, tableMemberRef}}
	case codedMemberForwarded:
		return codedIndexSchema{1, []tableID{tableField, tableMethodDef}}
	case codedImplementation:
		return codedIndexSchema{2, []tableID{tableFile, tableAssemblyRef, tableExportedType}}
	case codedCustomAttributeType:
		return codedIndexSchema{3, []tableID{tableNone, tableNone, tableMethodDef, tableMemberRef}}
	case codedResolutionScope:
		return codedIndexSchema{2, []tableID{tableModule, tableModuleRef, tableAssemblyRef, tableTypeRef}}
	case codedTypeOrMethodDef:
		return codedIndexSchema{1, []tableID{tableTypeDef, tableMethodDef}}
	default:
		return codedIndexSchema{}
	}
}

// rowRef is a resolved, typed reference to a single row in one table of
// one file (spec §3 "Row reference"). A table of tableNone denotes
// "absent"; the zero value is not absent (it names row 0 of Module).
type rowRef struct {
	img   *image
	table tableID
	row   uint32 // 0-based
}

func (r rowRef) isAbsent() bool { return r.table == tableNone }

// decodeCoded turns a raw coded-index cell value into a typed row
// reference (spec §4.5). code == 0 means absent.
func decodeCoded(img *image, k codedIndexKind, code uint32) (rowRef, error) {
	if code == 0 {
		return rowRef{table: tableNone}, nil
	}
	s := codedSchema(k)
	mask := uint32(1)<<s.bits - 1
	tag := code & mask
	row := (code >> s.bits) - 1
	if int(tag) >= len(s.tables) || s.tables[tag] == tableNone {
		return rowRef{}, invalidData("decodeCoded", "coded index tag %d is not assigned for this family", tag)
	}
	return rowRef{img: img, table: s.tables[tag], row: row}, nil
}

// encodeCoded is the inverse of decodeCoded. It builds the search key for
// the equal-range lookups over coded Parent columns, and tests use it to
// round-trip the bit-exact widths spec §8 requires.
func encodeCoded(k codedIndexKind, ref rowRef) (uint32, error) {
	s := codedSchema(k)
	if ref.isAbsent() {
		return 0, nil
	}
	for tag, t := range s.tables {
		if t == ref.table {
			return ((ref.row + 1) << s.bits) | uint32(tag), nil
		}
	}
	return 0, invalidData("encodeCoded", "table %s is not a member of this coded-index family", ref.table)
}

// codedIndexWidth is 2 bytes if every member table has fewer than
// 2^(16-bits) rows, else 4 (spec §3).
func codedIndexWidth(k codedIndexKind, rowCounts [tableSlotCount]uint32) uint32 {
	s := codedSchema(k)
	threshold := uint32(1) << (16 - s.bits)
	for _, t := range s.tables {
		if t == tableNone {
			continue
		}
		if rowCounts[t] >= threshold {
			return 4
		}
	}
	return 2
}

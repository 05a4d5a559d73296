// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

// tableID is one of the 38 ECMA-335 metadata table wire ids (spec §4.4).
type tableID int

// tableNone marks an unused slot in a coded-index member-table list (the
// "Permission" slot at HasCustomAttribute tag 8, the unused CustomAttributeType
// tags 0 and 1).
const tableNone tableID = -1

// Wire ids, fixed by ECMA-335. Gaps (0x03, 0x05, 0x07, 0x13, 0x16, 0x1E, 0x1F)
// are reserved and never set in the valid_bits mask.
const (
	tableModule                 tableID = 0x00
	tableTypeRef                tableID = 0x01
	tableTypeDef                tableID = 0x02
	tableField                  tableID = 0x04
	tableMethodDef               tableID = 0x06
	tableParam                  tableID = 0x08
	tableInterfaceImpl           tableID = 0x09
	tableMemberRef               tableID = 0x0A
	tableConstant                tableID = 0x0B
	tableCustomAttribute          tableID = 0x0C
	tableFieldMarshal             tableID = 0x0D
	tableDeclSecurity             tableID = 0x0E
	tableClassLayout             tableID = 0x0F
	tableFieldLayout             tableID = 0x10
	tableStandAloneSig            tableID = 0x11
	tableEventMap                tableID = 0x12
	tableEvent                  tableID = 0x14
	tablePropertyMap              tableID = 0x15
	tableProperty                tableID = 0x17
	tableMethodSemantics          tableID = 0x18
	tableMethodImpl               tableID = 0x19
	tableModuleRef                tableID = 0x1A
	tableTypeSpec                tableID = 0x1B
	tableImplMap                 tableID = 0x1C
	tableFieldRVA                 tableID = 0x1D
	tableAssembly                tableID = 0x20
	tableAssemblyProcessor         tableID = 0x21
	tableAssemblyOS               tableID = 0x22
	tableAssemblyRef              tableID = 0x23
	tableAssemblyRefProcessor       tableID = 0x24
	tableAssemblyRefOS            tableID = 0x25
	tableFile                   tableID = 0x26
	tableExportedType             tableID = 0x27
	tableManifestResource          tableID = 0x28
	tableNestedClass              tableID = 0x29
	tableGenericParam             tableID = 0x2A
	tableMethodSpec               tableID = 0x2B
	tableGenericParamConstraint     tableID = 0x2C

	// tableSlotCount sizes the direct-indexed arrays the engine keeps per
	// table (row counts, descriptors): one slot per possible wire id.
	tableSlotCount = 0x2D
)

func (t tableID) String() string {
	names := map[tableID]string{
		tableModule: "Module", tableTypeRef: "TypeRef", tableTypeDef: "TypeDef",
		tableField: "Field", tableMethodDef: "MethodDef", tableParam: "Param",
		tableInterfaceImpl: "InterfaceImpl", tableMemberRef: "MemberRef",
		tableConstant: "Constant", tableCustomAttribute: "CustomAttribute",
		tableFieldMarshal: "FieldMarshal", tableDeclSecurity: "DeclSecurity",
		tableClassLayout: "ClassLayout", tableFieldLayout: "FieldLayout",
		tableStandAloneSig: "StandAloneSig", tableEventMap: "EventMap",
		tableEvent: "Event", tablePropertyMap: "PropertyMap",
		tableProperty: "Property", tableMethodSemantics: "MethodSemantics",
		tableMethodImpl: "MethodImpl", tableModuleRef: "ModuleRef",
		tableTypeSpec: "TypeSpec", tableImplMap: "ImplMap",
		tableFieldRVA: "FieldRVA", tableAssembly: "Assembly",
		tableAssemblyProcessor: "AssemblyProcessor", tableAssemblyOS: "AssemblyOS",
		tableAssemblyRef: "AssemblyRef", tableAssemblyRefProcessor: "AssemblyRefProcessor",
		tableAssemblyRefOS: "AssemblyRefOS", tableFile: "File",
		tableExportedType: "ExportedType", tableManifestResource: "ManifestResource",
		tableNestedClass: "NestedClass", tableGenericParam: "GenericParam",
		tableMethodSpec: "MethodSpec", tableGenericParamConstraint: "GenericParamConstraint",
	}
	if n, ok := names[t]; ok {
		return n
	}
	return "?"
}

// columnKind tags how a column's bytes are interpreted (spec §4.4 cell reads).
type columnKind int

const (
	colU16 columnKind = iota
	colU32
	colStr
	colGUID
	colBlob
	colTableIdx
	colCoded
)

// columnSpec describes one column of a table's ECMA-335 schema, before
// widths are resolved against the file's actual row counts.
type columnSpec struct {
	name  string
	kind  columnKind
	table tableID        // for colTableIdx
	coded codedIndexKind // for colCoded
}

// columnDesc is a columnSpec with its resolved byte offset/width.
type columnDesc struct {
	columnSpec
	offset uint32
	width  uint32
}

// tableDescriptor is the per-table layout computed at load time (spec §3
// "Table descriptor").
type tableDescriptor struct {
	id         tableID
	rowCount   uint32
	rowSize    uint32
	dataOffset uint32
	columns    []columnDesc
}

// schema returns the fixed ECMA-335 column layout for a table, in wire
// column order. Widths are filled in later by resolveLayout.
func schema(id tableID) []columnSpec {
	switch id {
	case tableModule:
		return []columnSpec{
			{name: "Generation", kind: colU16},
			{name: "Name", kind: colStr},
			{name: "Mvid", kind: colGUID},
			{name: "EncId", kind: colGUID},
			{name: "EncBaseId", kind: colGUID},
		}
	case tableTypeRef:
		return []columnSpec{
			{name: "ResolutionScope", kind: colCoded, coded: codedResolutionScope},
			{name: "Name", kind: colStr},
			{name: "Namespace", kind: colStr},
		}
	case tableTypeDef:
		return []columnSpec{
			{name: "Flags", kind: colU32},
			{name: "Name", kind: colStr},
			{name: "Namespace", kind: colStr},
			{name: "Extends", kind: colCoded, coded: codedTypeDefOrRef},
			{name: "FieldList", kind: colTableIdx, table: tableField},
			{name: "MethodList", kind: colTableIdx, table: tableMethodDef},
		}
	case tableField:
		return []columnSpec{
			{name: "Flags", kind: colU16},
			{name: "Name", kind: colStr},
			{name: "Signature", kind: colBlob},
		}
	case tableMethodDef:
		return []columnSpec{
			{name: "Rva", kind: colU32},
			{name: "ImplFlags", kind: colU16},
			{name: "Flags", kind: colU16},
			{name: "Name", kind: colStr},
			{name: "Signature", kind: colBlob},
			{name: "ParamList", kind: colTableIdx, table: tableParam},
		}
	case tableParam:
		return []columnSpec{
			{name: "Flags", kind: colU16},
			{name: "Sequence", kind: colU16},
			{name: "Name", kind: colStr},
		}
	case tableInterfaceImpl:
		return []columnSpec{
			{name: "Class", kind: colTableIdx, table: tableTypeDef},
			{name: "Interface", kind: colCoded, coded: codedTypeDefOrRef},
		}
	case tableMemberRef:
		return []columnSpec{
			{name: "Class", kind: colCoded, coded: codedMemberRefParent},
			{name: "Name", kind: colStr},
			{name: "Signature", kind: colBlob},
		}
	case tableConstant:
		return []columnSpec{
			{name: "Type", kind: colU16}, // 1-byte Type + 1-byte padding, read as u16
			{name: "Parent", kind: colCoded, coded: codedHasConstant},
			{name: "Value", kind: colBlob},
		}
	case tableCustomAttribute:
		return []columnSpec{
			{name: "Parent", kind: colCoded, coded: codedHasCustomAttribute},
			{name: "Type", kind: colCoded, coded: codedCustomAttributeType},
			{name: "Value", kind: colBlob},
		}
	case tableFieldMarshal:
		return []columnSpec{
			{name: "Parent", kind: colCoded, coded: codedHasFieldMarshal},
			{name: "NativeType", kind: colBlob},
		}
	case tableDeclSecurity:
		return []columnSpec{
			{name: "Action", kind: colU16},
			{name: "Parent", kind: colCoded, coded: codedHasDeclSecurity},
			{name: "PermissionSet", kind: colBlob},
		}
	case tableClassLayout:
		return []columnSpec{
			{name: "PackingSize", kind: colU16},
			{name: "ClassSize", kind: colU32},
			{name: "Parent", kind: colTableIdx, table: tableTypeDef},
		}
	case tableFieldLayout:
		return []columnSpec{
			{name: "Offset", kind: colU32},
			{name: "Field", kind: colTableIdx, table: tableField},
		}
	case tableStandAloneSig:
		return []columnSpec{
			{name: "Signature", kind: colBlob},
		}
	case tableEventMap:
		return []columnSpec{
			{name: "Parent", kind: colTableIdx, table: tableTypeDef},
			{name: "EventList", kind: colTableIdx, table: tableEvent},
		}
	case tableEvent:
		return []columnSpec{
			{name: "EventFlags", kind: colU16},
			{name: "Name", kind: colStr},
			{name: "EventType", kind: colCoded, coded: codedTypeDefOrRef},
		}
	case tablePropertyMap:
		return []columnSpec{
			{name: "Parent", kind: colTableIdx, table: tableTypeDef},
			{name: "PropertyList", kind: colTableIdx, table: tableProperty},
		}
	case tableProperty:
		return []columnSpec{
			{name: "Flags", kind: colU16},
			{name: "Name", kind: colStr},
			{name: "Type", kind: colBlob},
		}
	case tableMethodSemantics:
		return []columnSpec{
			{name: "Semantics", kind: colU16},
			{name: "Method", kind: colTableIdx, table: tableMethodDef},
			{name: "Association", kind: colCoded, coded: codedHasSemantics},
		}
	case tableMethodImpl:
		return []columnSpec{
			{name: "Class", kind: colTableIdx, table: tableTypeDef},
			{name: "MethodBody", kind: colCoded, coded: codedMethodDefOrRef},
			{name: "MethodDeclaration", kind: colCoded, coded: codedMethodDefOrRef},
		}
	case tableModuleRef:
		return []columnSpec{
			{name: "Name", kind: colStr},
		}
	case tableTypeSpec:
		return []columnSpec{
			{name: "Signature", kind: colBlob},
		}
	case tableImplMap:
		return []columnSpec{
			{name: "MappingFlags", kind: colU16},
			{name: "MemberForwarded", kind: colCoded, coded: codedMemberForwarded},
			{name: "ImportName", kind: colStr},
			{name: "ImportScope", kind: colTableIdx, table: tableModuleRef},
		}
	case tableFieldRVA:
		return []columnSpec{
			{name: "Rva", kind: colU32},
			{name: "Field", kind: colTableIdx, table: tableField},
		}
	case tableAssembly:
		return []columnSpec{
			{name: "HashAlgId", kind: colU32},
			{name: "MajorVersion", kind: colU16},
			{name: "MinorVersion", kind: colU16},
			{name: "BuildNumber", kind: colU16},
			{name: "RevisionNumber", kind: colU16},
			{name: "Flags", kind: colU32},
			{name: "PublicKey", kind: colBlob},
			{name: "Name", kind: colStr},
			{name: "Culture", kind: colStr},
		}
	case tableAssemblyProcessor:
		return []columnSpec{{name: "Processor", kind: colU32}}
	case tableAssemblyOS:
		return []columnSpec{
			{name: "OSPlatformId", kind: colU32},
			{name: "OSMajorVersion", kind: colU32},
			{name: "OSMinorVersion", kind: colU32},
		}
	case tableAssemblyRef:
		return []columnSpec{
			{name: "MajorVersion", kind: colU16},
			{name: "MinorVersion", kind: colU16},
			{name: "BuildNumber", kind: colU16},
			{name: "RevisionNumber", kind: colU16},
			{name: "Flags", kind: colU32},
			{name: "PublicKeyOrToken", kind: colBlob},
			{name: "Name", kind: colStr},
			{name: "Culture", kind: colStr},
			{name: "HashValue", kind: colBlob},
		}
	case tableAssemblyRefProcessor:
		return []columnSpec{
			{name: "Processor", kind: colU32},
			{name: "AssemblyRef", kind: colTableIdx, table: tableAssemblyRef},
		}
	case tableAssemblyRefOS:
		return []columnSpec{
			{name: "OSPlatformId", kind: colU32},
			{name: "OSMajorVersion", kind: colU32},
			{name: "OSMinorVersion", kind: colU32},
			{name: "AssemblyRef", kind: colTableIdx, table: tableAssemblyRef},
		}
	case tableFile:
		return []columnSpec{
			{name: "Flags", kind: colU32},
			{name: "Name", kind: colStr},
			{name: "HashValue", kind: colBlob},
		}
	case tableExportedType:
		return []columnSpec{
			{name: "Flags", kind: colU32},
			{name: "TypeDefId", kind: colU32},
			{name: "TypeName", kind: colStr},
			{name: "TypeNamespace", kind: colStr},
			{name: "Implementation", kind: colCoded, coded: codedImplementation},
		}
	case tableManifestResource:
		return []columnSpec{
			{name: "Offset", kind: colU32},
			{name: "Flags", kind: colU32},
			{name: "Name", kind: colStr},
			{name: "Implementation", kind: colCoded, coded: codedImplementation},
		}
	case tableNestedClass:
		return []columnSpec{
			{name: "NestedClass", kind: colTableIdx, table: tableTypeDef},
			{name: "EnclosingClass", kind: colTableIdx, table: tableTypeDef},
		}
	case tableGenericParam:
		return []columnSpec{
			{name: "Number", kind: colU16},
			{name: "Flags", kind: colU16},
			{name: "Owner", kind: colCoded, coded: codedTypeOrMethodDef},
			{name: "Name", kind: colStr},
		}
	case tableMethodSpec:
		return []columnSpec{
			{name: "Method", kind: colCoded, coded: codedMethodDefOrRef},
			{name: "Instantiation", kind: colBlob},
		}
	case tableGenericParamConstraint:
		return []columnSpec{
			{name: "Owner", kind: colTableIdx, table: tableGenericParam},
			{name: "Constraint", kind: colCoded, coded: codedTypeDefOrRef},
		}
	default:
		return nil
	}
}

// allTableIDs lists every table, in wire-id order (the order row data
// blocks appear in, spec §4.4 "Row data placement").
var allTableIDs = []tableID{
	tableModule, tableTypeRef, tableTypeDef, tableField, tableMethodDef,
	tableParam, tableInterfaceImpl, tableMemberRef, tableConstant,
	tableCustomAttribute, tableFieldMarshal, tableDeclSecurity, tableClassLayout,
	tableFieldLayout, tableStandAloneSig, tableEventMap, tableEvent,
	tablePropertyMap, tableProperty, tableMethodSemantics, tableMethodImpl,
	tableModuleRef, tableTypeSpec, tableImplMap, tableFieldRVA, tableAssembly,
	tableAssemblyProcessor, tableAssemblyOS, tableAssemblyRef,
	tableAssemblyRefProcessor, tableAssemblyRefOS, tableFile, tableExportedType,
	tableManifestResource, tableNestedClass, tableGenericParam, tableMethodSpec,
	tableGenericParamConstraint,
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import "strings"

// TypeDef flag bits this reader interprets (ECMA-335 TypeAttributes).
const (
	typeAttrInterface      = 1 << 5
	typeAttrWindowsRuntime = 1 << 14
)

// MethodDef flag bits this reader interprets (ECMA-335 MethodAttributes).
const methodAttrSpecialName = 1 << 11

// row is the shape every accessor shares: an image pointer plus a row
// index (spec §4.8 "a row accessor is {image_ref, table_id, row_index}").
// Accessors are trivially copyable and never outlive img.
type row struct {
	img *image
	idx uint32
}

// TypeDef is a row of the TypeDef table.
type TypeDef struct{ row }

// TypeRef is a row of the TypeRef table.
type TypeRef struct{ row }

// TypeSpec is a row of the TypeSpec table.
type TypeSpec struct{ row }

// Field is a row of the Field table.
type Field struct{ row }

// MethodDef is a row of the MethodDef table.
type MethodDef struct{ row }

// Param is a row of the Param table.
type Param struct{ row }

// Constant is a row of the Constant table.
type Constant struct{ row }

// CustomAttribute is a row of the CustomAttribute table.
type CustomAttribute struct{ row }

// MemberRef is a row of the MemberRef table.
type MemberRef struct{ row }

func typeDefCol(name string) int  { return colIdx(tableTypeDef, name) }
func typeRefCol(name string) int  { return colIdx(tableTypeRef, name) }
func fieldCol(name string) int    { return colIdx(tableField, name) }
func methodCol(name string) int   { return colIdx(tableMethodDef, name) }
func paramCol(name string) int    { return colIdx(tableParam, name) }
func constCol(name string) int    { return colIdx(tableConstant, name) }
func attrCol(name string) int     { return colIdx(tableCustomAttribute, name) }
func memberRefCol(name string) int { return colIdx(tableMemberRef, name) }

func colIdx(id tableID, name string) int {
	for i, c := range schema(id) {
		if c.name == name {
			return i
		}
	}
	return -1
}

// typeDefRowCount reports how many TypeDef rows an image carries (0 for
// an image parsed with Options.Fast, which has no table stream).
func (img *image) typeDefRowCount() uint32 {
	if img.tables == nil {
		return 0
	}
	return img.tables.rowCounts[tableTypeDef]
}

// TypeDefAt returns the TypeDef row at the given 0-based index.
func (img *image) TypeDefAt(i uint32) TypeDef { return TypeDef{row{img, i}} }

// Flags is the raw TypeAttributes value.
func (t TypeDef) Flags() (uint32, error) { return t.img.tables.cell(tableTypeDef, t.idx, typeDefCol("Flags")) }

// IsWindowsRuntime reports whether the windows_runtime flag bit is set.
func (t TypeDef) IsWindowsRuntime() (bool, error) {
	f, err := t.Flags()
	return f&typeAttrWindowsRuntime != 0, err
}

// IsInterface reports whether the type is an interface rather than a class.
func (t TypeDef) IsInterface() (bool, error) {
	f, err := t.Flags()
	return f&typeAttrInterface != 0, err
}

// Name is the type's simple name.
func (t TypeDef) Name() (string, error) { return t.img.strCell(tableTypeDef, t.idx, typeDefCol("Name")) }

// Namespace is the type's namespace.
func (t TypeDef) Namespace() (string, error) {
	return t.img.strCell(tableTypeDef, t.idx, typeDefCol("Namespace"))
}

// Extends decodes the TypeDefOrRef coded index naming the base type.
func (t TypeDef) Extends() (rowRef, error) {
	return t.img.codedCell(tableTypeDef, t.idx, typeDefCol("Extends"), codedTypeDefOrRef)
}

// Fields iterates this type's fields via the FieldList prefix sum.
func (t TypeDef) Fields() ([]Field, error) {
	lo, hi, err := t.img.tables.childRange(tableTypeDef, typeDefCol("FieldList"), tableField, t.idx)
	if err != nil {
		return nil, err
	}
	out := make([]Field, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Field{row{t.img, i}})
	}
	return out, nil
}

// Methods iterates this type's methods via the MethodList prefix sum.
func (t TypeDef) Methods() ([]MethodDef, error) {
	lo, hi, err := t.img.tables.childRange(tableTypeDef, typeDefCol("MethodList"), tableMethodDef, t.idx)
	if err != nil {
		return nil, err
	}
	out := make([]MethodDef, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, MethodDef{row{t.img, i}})
	}
	return out, nil
}

// Attributes yields every CustomAttribute whose Parent is this TypeDef.
func (t TypeDef) Attributes() ([]CustomAttribute, error) {
	ref := rowRef{img: t.img, table: tableTypeDef, row: t.idx}
	code, err := encodeCoded(codedHasCustomAttribute, ref)
	if err != nil {
		return nil, err
	}
	lo, hi, err := t.img.tables.equalRange(tableCustomAttribute, attrCol("Parent"), code)
	if err != nil {
		return nil, err
	}
	out := make([]CustomAttribute, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, CustomAttribute{row{t.img, i}})
	}
	return out, nil
}

// FindAttribute returns the first attribute on this type whose
// constructor's declaring type is "Namespace.Name".
func (t TypeDef) FindAttribute(fullName string) (CustomAttribute, bool, error) {
	attrs, err := t.Attributes()
	if err != nil {
		return CustomAttribute{}, false, err
	}
	for _, a := range attrs {
		ns, name, ok, err := a.typeName()
		if err != nil {
			return CustomAttribute{}, false, err
		}
		if ok && ns+"."+name == fullName {
			return a, true, nil
		}
	}
	return CustomAttribute{}, false, nil
}

// HasAttribute reports whether FindAttribute would succeed.
func (t TypeDef) HasAttribute(fullName string) (bool, error) {
	_, ok, err := t.FindAttribute(fullName)
	return ok, err
}

// Name is the referenced type's simple name.
func (t TypeRef) Name() (string, error) { return t.img.strCell(tableTypeRef, t.idx, typeRefCol("Name")) }

// Namespace is the referenced type's namespace.
func (t TypeRef) Namespace() (string, error) {
	return t.img.strCell(tableTypeRef, t.idx, typeRefCol("Namespace"))
}

// Name is the field's name.
func (f Field) Name() (string, error) { return f.img.strCell(tableField, f.idx, fieldCol("Name")) }

// Signature is the raw field signature blob.
func (f Field) Signature() ([]byte, error) { return f.img.blobCell(tableField, f.idx, fieldCol("Signature")) }

// Constants returns every Constant row whose Parent is this field
// (HasConstant::Field).
func (f Field) Constants() ([]Constant, error) {
	ref := rowRef{img: f.img, table: tableField, row: f.idx}
	code, err := encodeCoded(codedHasConstant, ref)
	if err != nil {
		return nil, err
	}
	lo, hi, err := f.img.tables.equalRange(tableConstant, constCol("Parent"), code)
	if err != nil {
		return nil, err
	}
	out := make([]Constant, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Constant{row{f.img, i}})
	}
	return out, nil
}

// Flags is the raw MethodAttributes value.
func (m MethodDef) Flags() (uint32, error) {
	return m.img.tables.cell(tableMethodDef, m.idx, methodCol("Flags"))
}

// IsSpecialName reports whether the SpecialName flag bit is set.
func (m MethodDef) IsSpecialName() (bool, error) {
	f, err := m.Flags()
	return f&methodAttrSpecialName != 0, err
}

// RawName is the method's name exactly as stored.
func (m MethodDef) RawName() (string, error) {
	return m.img.strCell(tableMethodDef, m.idx, methodCol("Name"))
}

// Name returns the normalised, snake-cased method name (spec §4.7
// "Method name normalisation").
func (m MethodDef) Name() (string, error) {
	raw, err := m.RawName()
	if err != nil {
		return "", err
	}
	special, err := m.IsSpecialName()
	if err != nil {
		return "", err
	}
	return normalizeMethodName(raw, special), nil
}

// normalizeMethodName implements spec §4.7's prefix substitution followed
// by letter-by-letter snake-casing.
func normalizeMethodName(raw string, special bool) string {
	name := raw
	if special {
		switch {
		case strings.HasPrefix(name, "get_"):
			name = strings.TrimPrefix(name, "get_")
		case strings.HasPrefix(name, "add_"):
			name = strings.TrimPrefix(name, "add_")
		case strings.HasPrefix(name, "put_"):
			name = "set_" + strings.TrimPrefix(name, "put_")
		case strings.HasPrefix(name, "remove_"):
			name = "revoke_" + strings.TrimPrefix(name, "remove_")
		}
	}
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(name[i-1])
			if prev >= 'a' && prev <= 'z' {
				b.WriteByte('_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Signature is the raw method signature blob (spec §4.7 "Method signature").
func (m MethodDef) Signature() ([]byte, error) {
	return m.img.blobCell(tableMethodDef, m.idx, methodCol("Signature"))
}

// Params iterates this method's parameters via the ParamList prefix sum,
// including the return-value pseudo-parameter (sequence 0) when present.
func (m MethodDef) Params() ([]Param, error) {
	lo, hi, err := m.img.tables.childRange(tableMethodDef, methodCol("ParamList"), tableParam, m.idx)
	if err != nil {
		return nil, err
	}
	out := make([]Param, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Param{row{m.img, i}})
	}
	return out, nil
}

// Parent returns the TypeDef that owns this method, found via
// upper_bound over TypeDef.MethodList (spec §4.8).
func (m MethodDef) Parent() (TypeDef, error) {
	i, err := m.img.tables.upperBound(tableTypeDef, typeDefCol("MethodList"), m.idx+1)
	if err != nil {
		return TypeDef{}, err
	}
	if i == 0 {
		return TypeDef{}, invalidData("MethodDef.Parent", "method %d has no owning TypeDef", m.idx)
	}
	return TypeDef{row{m.img, i - 1}}, nil
}

// Sequence is the parameter's ordinal; 0 denotes the return parameter.
func (p Param) Sequence() (uint16, error) {
	v, err := p.img.tables.cell(tableParam, p.idx, paramCol("Sequence"))
	return uint16(v), err
}

// Name is the parameter's name (empty for the return parameter, usually).
func (p Param) Name() (string, error) { return p.img.strCell(tableParam, p.idx, paramCol("Name")) }

// Type is the one-byte element-type code of the constant's value.
func (c Constant) Type() (byte, error) {
	v, err := c.img.tables.cell(tableConstant, c.idx, constCol("Type"))
	return byte(v), err
}

// ConstantValue is the small discriminated set spec §4.8 requires.
type ConstantValue struct {
	Kind byte // an elementType* code
	I64  int64
	U64  uint64
	F64  float64
	Str  string
	Bool bool
}

// Value decodes the constant's Value blob per its Type code (spec §4.8,
// §9 open question 1: covers all integer and floating primitives).
func (c Constant) Value() (ConstantValue, error) {
	const op = "Constant.Value"
	typ, err := c.Type()
	if err != nil {
		return ConstantValue{}, err
	}
	blob, err := c.img.blobCell(tableConstant, c.idx, constCol("Value"))
	if err != nil {
		return ConstantValue{}, err
	}
	cur := newCursor(blob)
	switch typ {
	case elementTypeBoolean:
		b, err := cur.readByte()
		return ConstantValue{Kind: typ, Bool: b != 0}, err
	case elementTypeChar:
		lo, err := cur.readByte()
		if err != nil {
			return ConstantValue{}, err
		}
		hi, err := cur.readByte()
		return ConstantValue{Kind: typ, U64: uint64(lo) | uint64(hi)<<8}, err
	case elementTypeI1:
		b, err := cur.readByte()
		return ConstantValue{Kind: typ, I64: int64(int8(b))}, err
	case elementTypeU1:
		b, err := cur.readByte()
		return ConstantValue{Kind: typ, U64: uint64(b)}, err
	case elementTypeI2, elementTypeU2, elementTypeI4, elementTypeU4, elementTypeI8, elementTypeU8:
		return readIntConstant(cur, typ)
	case elementTypeR4:
		b, err := cur.readBytes(4)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, F64: float64(bytesToFloat32(b))}, nil
	case elementTypeR8:
		b, err := cur.readBytes(8)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, F64: bytesToFloat64(b)}, nil
	case elementTypeString:
		return ConstantValue{Kind: typ, Str: string(blob)}, nil
	case elementTypeClass:
		// A null reference constant; the source leaves this unspecified
		// (spec §9 open question 1) beyond "must not read out of bounds".
		return ConstantValue{Kind: typ}, nil
	default:
		return ConstantValue{}, invalidData(op, "unsupported constant type code %#x", typ)
	}
}

func (c CustomAttribute) parentRef() (rowRef, error) {
	return c.img.codedCell(tableCustomAttribute, c.idx, attrCol("Parent"), codedHasCustomAttribute)
}

func (c CustomAttribute) constructorRef() (rowRef, error) {
	return c.img.codedCell(tableCustomAttribute, c.idx, attrCol("Type"), codedCustomAttributeType)
}

// typeName resolves the attribute's constructor's declaring type.
func (c CustomAttribute) typeName() (namespace, name string, ok bool, err error) {
	ctor, err := c.constructorRef()
	if err != nil || ctor.isAbsent() {
		return "", "", false, err
	}
	switch ctor.table {
	case tableMethodDef:
		parent, err := MethodDef{row{c.img, ctor.row}}.Parent()
		if err != nil {
			return "", "", false, err
		}
		ns, err := parent.Namespace()
		if err != nil {
			return "", "", false, err
		}
		n, err := parent.Name()
		return ns, n, true, err
	case tableMemberRef:
		class, err := c.img.codedCell(tableMemberRef, ctor.row, memberRefCol("Class"), codedMemberRefParent)
		if err != nil {
			return "", "", false, err
		}
		switch class.table {
		case tableTypeRef:
			tr := TypeRef{row{c.img, class.row}}
			ns, err := tr.Namespace()
			if err != nil {
				return "", "", false, err
			}
			n, err := tr.Name()
			return ns, n, true, err
		case tableTypeDef:
			td := TypeDef{row{c.img, class.row}}
			ns, err := td.Namespace()
			if err != nil {
				return "", "", false, err
			}
			n, err := td.Name()
			return ns, n, true, err
		}
	}
	return "", "", false, nil
}

// Value is the raw custom-attribute value blob, before signature decoding.
func (c CustomAttribute) Value() ([]byte, error) {
	return c.img.blobCell(tableCustomAttribute, c.idx, attrCol("Value"))
}

// HasName reports whether this attribute's constructor type is
// "Namespace.Name".
func (c CustomAttribute) HasName(fullName string) (bool, error) {
	ns, name, ok, err := c.typeName()
	if err != nil || !ok {
		return false, err
	}
	return ns+"."+name == fullName, nil
}

// Parent decodes the MemberRefParent coded index.
func (m MemberRef) Parent() (rowRef, error) {
	return m.img.codedCell(tableMemberRef, m.idx, memberRefCol("Class"), codedMemberRefParent)
}

// Name is the member's name.
func (m MemberRef) Name() (string, error) {
	return m.img.strCell(tableMemberRef, m.idx, memberRefCol("Name"))
}

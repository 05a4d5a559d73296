// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"encoding/binary"
	"math"
)

// Element-type codes, ECMA-335 §II.23.1.16, supplemented per SPEC_FULL.md
// §12 beyond the subset spec.md's grammar names.
const (
	elementTypeEnd         = 0x00
	elementTypeVoid        = 0x01
	elementTypeBoolean     = 0x02
	elementTypeChar        = 0x03
	elementTypeI1          = 0x04
	elementTypeU1          = 0x05
	elementTypeI2          = 0x06
	elementTypeU2          = 0x07
	elementTypeI4          = 0x08
	elementTypeU4          = 0x09
	elementTypeI8          = 0x0A
	elementTypeU8          = 0x0B
	elementTypeR4          = 0x0C
	elementTypeR8          = 0x0D
	elementTypeString      = 0x0E
	elementTypePtr         = 0x0F
	elementTypeByRef       = 0x10
	elementTypeValueType   = 0x11
	elementTypeClass       = 0x12
	elementTypeVar         = 0x13
	elementTypeArray       = 0x14
	elementTypeGenericInst = 0x15
	elementTypeTypedByRef  = 0x16
	elementTypeI           = 0x18
	elementTypeU           = 0x19
	elementTypeFnPtr       = 0x1B
	elementTypeObject      = 0x1C
	elementTypeSZArray     = 0x1D
	elementTypeMVar        = 0x1E
	elementTypeCModReqd    = 0x1F
	elementTypeCModOpt     = 0x20
	elementTypeInternal    = 0x21
	elementTypeSentinel    = 0x41
	elementTypePinned      = 0x45
)

// Serialization-type tags used only inside custom-attribute blobs (spec
// §4.7 "Custom-attribute blob"); the primitive codes alias ELEMENT_TYPE.
const (
	serializationTypeType         = 0x50
	serializationTypeTaggedObject = 0x51
	serializationTypeField        = 0x53
	serializationTypeProperty     = 0x54
	serializationTypeEnum         = 0x55
)

// TypeSig is a decoded type signature (spec §4.7 "Type signature").
type TypeSig struct {
	Array       bool
	Code        byte
	Ref         rowRef // VALUETYPE / CLASS / GENERICINST
	VarIndex    uint32 // VAR / MVAR
	GenericArgs []TypeSig
}

// ParamSig is a decoded parameter signature (spec §4.7 "Parameter signature").
type ParamSig struct {
	ByRef bool
	Type  TypeSig
}

// MethodSig is a decoded method signature (spec §4.7 "Method signature").
type MethodSig struct {
	CallingConvention uint32
	GenericParamCount uint32
	ReturnByRef       bool
	ReturnType        *TypeSig // nil means VOID
	Params            []ParamSig
}

func (c *cursor) peekByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, invalidData("cursor.peekByte", "unexpected end of blob")
	}
	return c.buf[c.pos], nil
}

// readTypeDefOrRefCoded reads a TypeDefOrRef coded index embedded in a
// signature, encoded as a single compressed-unsigned integer (distinct
// from the fixed-width coded-index cells of the table stream).
func readTypeDefOrRefCoded(img *image, c *cursor) (rowRef, error) {
	v, err := c.readUnsigned()
	if err != nil {
		return rowRef{}, err
	}
	return decodeCoded(img, codedTypeDefOrRef, v)
}

func skipCustomMods(img *image, c *cursor) error {
	for {
		b, err := c.peekByte()
		if err != nil {
			return err
		}
		if b != elementTypeCModOpt && b != elementTypeCModReqd {
			return nil
		}
		if _, err := c.readByte(); err != nil {
			return err
		}
		if _, err := readTypeDefOrRefCoded(img, c); err != nil {
			return err
		}
	}
}

// decodeTypeSignature implements spec §4.7 "Type signature".
func decodeTypeSignature(img *image, c *cursor) (TypeSig, error) {
	const op = "decodeTypeSignature"
	var sig TypeSig

	if b, err := c.peekByte(); err == nil && b == elementTypeSZArray {
		c.readByte()
		sig.Array = true
	}
	if err := skipCustomMods(img, c); err != nil {
		return sig, err
	}

	code, err := c.readByte()
	if err != nil {
		return sig, err
	}
	sig.Code = code

	switch code {
	case elementTypeBoolean, elementTypeChar, elementTypeI1, elementTypeU1,
		elementTypeI2, elementTypeU2, elementTypeI4, elementTypeU4,
		elementTypeI8, elementTypeU8, elementTypeR4, elementTypeR8,
		elementTypeString, elementTypeObject:
		// no further payload
	case elementTypeValueType, elementTypeClass:
		ref, err := readTypeDefOrRefCoded(img, c)
		if err != nil {
			return sig, err
		}
		sig.Ref = ref
	case elementTypeVar, elementTypeMVar:
		idx, err := c.readUnsigned()
		if err != nil {
			return sig, err
		}
		sig.VarIndex = idx
	case elementTypeGenericInst:
		if _, err := c.readByte(); err != nil { // CLASS or VALUETYPE marker
			return sig, err
		}
		ref, err := readTypeDefOrRefCoded(img, c)
		if err != nil {
			return sig, err
		}
		sig.Ref = ref
		argCount, err := c.readUnsigned()
		if err != nil {
			return sig, err
		}
		for i := uint32(0); i < argCount; i++ {
			arg, err := decodeTypeSignature(img, c)
			if err != nil {
				return sig, err
			}
			sig.GenericArgs = append(sig.GenericArgs, arg)
		}
	default:
		return sig, invalidData(op, "unsupported element type code %#x", code)
	}
	return sig, nil
}

// decodeMethodSignature implements spec §4.7 "Method signature".
func decodeMethodSignature(img *image, blob []byte) (MethodSig, error) {
	c := newCursor(blob)
	var sig MethodSig

	callConv, err := c.readUnsigned()
	if err != nil {
		return sig, err
	}
	sig.CallingConvention = callConv
	if callConv&0x10 != 0 {
		gpc, err := c.readUnsigned()
		if err != nil {
			return sig, err
		}
		sig.GenericParamCount = gpc
	}

	paramCount, err := c.readUnsigned()
	if err != nil {
		return sig, err
	}

	if err := skipCustomMods(img, c); err != nil {
		return sig, err
	}
	if b, err := c.peekByte(); err == nil && b == elementTypeByRef {
		c.readByte()
		sig.ReturnByRef = true
	}
	if b, err := c.peekByte(); err == nil && b == elementTypeVoid {
		c.readByte()
	} else {
		t, err := decodeTypeSignature(img, c)
		if err != nil {
			return sig, err
		}
		sig.ReturnType = &t
	}

	for i := uint32(0); i < paramCount; i++ {
		if err := skipCustomMods(img, c); err != nil {
			return sig, err
		}
		var p ParamSig
		if b, err := c.peekByte(); err == nil && b == elementTypeByRef {
			c.readByte()
			p.ByRef = true
		}
		t, err := decodeTypeSignature(img, c)
		if err != nil {
			return sig, err
		}
		p.Type = t
		sig.Params = append(sig.Params, p)
	}
	return sig, nil
}

// TypedSignature decodes this method's full signature (spec §4.8 MethodDef.signature).
func (m MethodDef) TypedSignature() (MethodSig, error) {
	blob, err := m.Signature()
	if err != nil {
		return MethodSig{}, err
	}
	return decodeMethodSignature(m.img, blob)
}

func readIntConstant(c *cursor, typ byte) (ConstantValue, error) {
	switch typ {
	case elementTypeI2:
		b, err := c.readBytes(2)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, I64: int64(int16(binary.LittleEndian.Uint16(b)))}, nil
	case elementTypeU2:
		b, err := c.readBytes(2)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, U64: uint64(binary.LittleEndian.Uint16(b))}, nil
	case elementTypeI4:
		b, err := c.readBytes(4)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, I64: int64(int32(binary.LittleEndian.Uint32(b)))}, nil
	case elementTypeU4:
		b, err := c.readBytes(4)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, U64: uint64(binary.LittleEndian.Uint32(b))}, nil
	case elementTypeI8:
		b, err := c.readBytes(8)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, I64: int64(binary.LittleEndian.Uint64(b))}, nil
	case elementTypeU8:
		b, err := c.readBytes(8)
		if err != nil {
			return ConstantValue{}, err
		}
		return ConstantValue{Kind: typ, U64: binary.LittleEndian.Uint64(b)}, nil
	default:
		return ConstantValue{}, invalidData("readIntConstant", "not an integer constant type %#x", typ)
	}
}

func bytesToFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func bytesToFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// AttributeArg is one fixed or named argument of a decoded custom
// attribute (spec §4.7 "Custom-attribute blob").
type AttributeArg struct {
	Kind      byte
	Bool      bool
	I64       int64
	U64       uint64
	F64       float64
	Str       string
	TypeName  string // kind == serializationTypeType or serializationTypeEnum
	EnumValue int64  // kind == serializationTypeEnum
}

func readAttributeValue(c *cursor, typeCode byte) (AttributeArg, error) {
	const op = "readAttributeValue"
	switch typeCode {
	case elementTypeBoolean:
		b, err := c.readByte()
		return AttributeArg{Kind: typeCode, Bool: b != 0}, err
	case elementTypeChar, elementTypeU2:
		b, err := c.readBytes(2)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, U64: uint64(binary.LittleEndian.Uint16(b))}, nil
	case elementTypeI1:
		b, err := c.readByte()
		return AttributeArg{Kind: typeCode, I64: int64(int8(b))}, err
	case elementTypeU1:
		b, err := c.readByte()
		return AttributeArg{Kind: typeCode, U64: uint64(b)}, err
	case elementTypeI2:
		b, err := c.readBytes(2)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, I64: int64(int16(binary.LittleEndian.Uint16(b)))}, nil
	case elementTypeI4:
		b, err := c.readBytes(4)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, I64: int64(int32(binary.LittleEndian.Uint32(b)))}, nil
	case elementTypeU4:
		b, err := c.readBytes(4)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, U64: uint64(binary.LittleEndian.Uint32(b))}, nil
	case elementTypeI8:
		b, err := c.readBytes(8)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, I64: int64(binary.LittleEndian.Uint64(b))}, nil
	case elementTypeU8:
		b, err := c.readBytes(8)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, U64: binary.LittleEndian.Uint64(b)}, nil
	case elementTypeR4:
		b, err := c.readBytes(4)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, F64: float64(bytesToFloat32(b))}, nil
	case elementTypeR8:
		b, err := c.readBytes(8)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, F64: bytesToFloat64(b)}, nil
	case elementTypeString:
		s, err := c.readPrefixedString()
		return AttributeArg{Kind: typeCode, Str: s}, err
	case serializationTypeType:
		s, err := c.readPrefixedString()
		return AttributeArg{Kind: typeCode, TypeName: s}, err
	case serializationTypeEnum:
		name, err := c.readPrefixedString()
		if err != nil {
			return AttributeArg{}, err
		}
		// The underlying integer width isn't self-describing in the blob;
		// Windows Runtime enums are always backed by Int32 (ECMA-335
		// §II.23.1.16 "enum ... represented as its underlying type").
		b, err := c.readBytes(4)
		if err != nil {
			return AttributeArg{}, err
		}
		return AttributeArg{Kind: typeCode, TypeName: name, EnumValue: int64(int32(binary.LittleEndian.Uint32(b)))}, nil
	default:
		return AttributeArg{}, invalidData(op, "unsupported custom-attribute argument type code %#x", typeCode)
	}
}

// Arguments decodes the attribute's fixed and named arguments using its
// constructor's method signature to type the fixed arguments (spec §4.7
// "Custom-attribute blob").
func (c CustomAttribute) Arguments() (fixed []AttributeArg, named map[string]AttributeArg, err error) {
	const op = "CustomAttribute.Arguments"

	ctorRef, err := c.constructorRef()
	if err != nil {
		return nil, nil, err
	}
	if ctorRef.isAbsent() {
		return nil, nil, invalidData(op, "custom attribute has no resolvable constructor")
	}

	var sigBlob []byte
	switch ctorRef.table {
	case tableMethodDef:
		sigBlob, err = MethodDef{row{c.img, ctorRef.row}}.Signature()
	case tableMemberRef:
		sigBlob, err = c.img.blobCell(tableMemberRef, ctorRef.row, memberRefCol("Signature"))
	default:
		return nil, nil, invalidData(op, "constructor coded index names unsupported table %s", ctorRef.table)
	}
	if err != nil {
		return nil, nil, err
	}
	ctorSig, err := decodeMethodSignature(c.img, sigBlob)
	if err != nil {
		return nil, nil, err
	}

	blob, err := c.Value()
	if err != nil {
		return nil, nil, err
	}
	cur := newCursor(blob)
	prolog, err := cur.readBytes(2)
	if err != nil {
		return nil, nil, err
	}
	if binary.LittleEndian.Uint16(prolog) != 0x0001 {
		return nil, nil, invalidData(op, "custom attribute blob prolog %#x is not 0x0001", prolog)
	}

	fixed = make([]AttributeArg, 0, len(ctorSig.Params))
	for _, p := range ctorSig.Params {
		v, err := readAttributeValue(cur, p.Type.Code)
		if err != nil {
			return nil, nil, err
		}
		fixed = append(fixed, v)
	}

	countBytes, err := cur.readBytes(2)
	if err != nil {
		return nil, nil, err
	}
	named = make(map[string]AttributeArg, binary.LittleEndian.Uint16(countBytes))
	for i := uint16(0); i < binary.LittleEndian.Uint16(countBytes); i++ {
		if _, err := cur.readByte(); err != nil { // FIELD/PROPERTY tag, unused
			return nil, nil, err
		}
		typeCode, err := cur.readByte()
		if err != nil {
			return nil, nil, err
		}
		name, err := cur.readPrefixedString()
		if err != nil {
			return nil, nil, err
		}
		v, err := readAttributeValue(cur, typeCode)
		if err != nil {
			return nil, nil, err
		}
		named[name] = v
	}
	return fixed, named, nil
}

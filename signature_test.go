// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTypeSignaturePrimitive(t *testing.T) {
	c := newCursor([]byte{elementTypeI4})
	sig, err := decodeTypeSignature(nil, c)
	require.NoError(t, err)
	require.False(t, sig.Array)
	require.Equal(t, byte(elementTypeI4), sig.Code)
}

func TestDecodeTypeSignatureSZArray(t *testing.T) {
	c := newCursor([]byte{elementTypeSZArray, elementTypeString})
	sig, err := decodeTypeSignature(nil, c)
	require.NoError(t, err)
	require.True(t, sig.Array)
	require.Equal(t, byte(elementTypeString), sig.Code)
}

func TestDecodeTypeSignatureVar(t *testing.T) {
	c := newCursor([]byte{elementTypeVar, 0x03})
	sig, err := decodeTypeSignature(nil, c)
	require.NoError(t, err)
	require.Equal(t, byte(elementTypeVar), sig.Code)
	require.Equal(t, uint32(3), sig.VarIndex)
}

func TestDecodeTypeSignatureUnsupportedCode(t *testing.T) {
	c := newCursor([]byte{elementTypeFnPtr})
	_, err := decodeTypeSignature(nil, c)
	require.Error(t, err)
	require.True(t, IsInvalidData(err))
}

func TestDecodeMethodSignatureVoidNoParams(t *testing.T) {
	blob := []byte{0x00, 0x00, elementTypeVoid}
	sig, err := decodeMethodSignature(nil, blob)
	require.NoError(t, err)
	require.Equal(t, uint32(0), sig.CallingConvention)
	require.Nil(t, sig.ReturnType)
	require.Empty(t, sig.Params)
}

func TestDecodeMethodSignatureOneParam(t *testing.T) {
	blob := []byte{0x00, 0x01, elementTypeVoid, elementTypeI4}
	sig, err := decodeMethodSignature(nil, blob)
	require.NoError(t, err)
	require.Nil(t, sig.ReturnType)
	require.Len(t, sig.Params, 1)
	require.Equal(t, byte(elementTypeI4), sig.Params[0].Type.Code)
	require.False(t, sig.Params[0].ByRef)
}

func TestDecodeMethodSignatureGeneric(t *testing.T) {
	blob := []byte{0x10, 0x02, 0x00, elementTypeVoid}
	sig, err := decodeMethodSignature(nil, blob)
	require.NoError(t, err)
	require.Equal(t, uint32(0x10), sig.CallingConvention)
	require.Equal(t, uint32(2), sig.GenericParamCount)
	require.Empty(t, sig.Params)
}

func TestDecodeMethodSignatureReturnValue(t *testing.T) {
	blob := []byte{0x00, 0x00, elementTypeBoolean}
	sig, err := decodeMethodSignature(nil, blob)
	require.NoError(t, err)
	require.NotNil(t, sig.ReturnType)
	require.Equal(t, byte(elementTypeBoolean), sig.ReturnType.Code)
}

func TestReadAttributeValueString(t *testing.T) {
	buf := append(encodeCompressedUnsigned(5), []byte("world")...)
	c := newCursor(buf)
	v, err := readAttributeValue(c, elementTypeString)
	require.NoError(t, err)
	require.Equal(t, "world", v.Str)
}

func TestReadAttributeValueBoolean(t *testing.T) {
	c := newCursor([]byte{1})
	v, err := readAttributeValue(c, elementTypeBoolean)
	require.NoError(t, err)
	require.True(t, v.Bool)
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// stringHeapBuilder accumulates a #Strings heap and returns each string's
// 1-based-style heap index (index 0 is reserved for the empty string, per
// spec §4.4).
type stringHeapBuilder struct{ heap []byte }

func newStringHeapBuilder() *stringHeapBuilder { return &stringHeapBuilder{heap: []byte{0}} }

func (b *stringHeapBuilder) add(s string) uint16 {
	if s == "" {
		return 0
	}
	off := uint16(len(b.heap))
	b.heap = append(b.heap, []byte(s)...)
	b.heap = append(b.heap, 0)
	return off
}

// buildNamespaceFixture assembles a two-table image (TypeRef, TypeDef)
// exercising four branches of spec §4.9's classification rule: an enum, a
// delegate, an interface, and a class with no base (namespace.go's
// baseTypeName/buildNamespaceIndex). The Attribute and ValueType branches
// are not covered by it.
func buildNamespaceFixture(t *testing.T) *image {
	t.Helper()
	sh := newStringHeapBuilder()

	enumName := sh.add("Enum")
	systemNS := sh.add("System")
	delegateName := sh.add("MulticastDelegate")
	fooName := sh.add("Foo")
	nsName := sh.add("NS")
	barName := sh.add("Bar")
	bazName := sh.add("Baz")
	ns2Name := sh.add("NS2")
	quxName := sh.add("Qux")

	var buf bytes.Buffer
	buf.Write(make([]byte, 4))
	buf.WriteByte(2)
	buf.WriteByte(0)
	buf.WriteByte(0) // heap_sizes: 2-byte heaps
	buf.WriteByte(0)

	valid := uint64(1)<<tableTypeRef | uint64(1)<<tableTypeDef
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, valid))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(0)))

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2))) // TypeRef rows
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(4))) // TypeDef rows

	writeTypeRefRow := func(name, ns uint16) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // ResolutionScope
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, name))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, ns))
	}
	writeTypeRefRow(enumName, systemNS)
	writeTypeRefRow(delegateName, systemNS)

	typeDefOrRef := func(trTag uint32, trRow uint32) uint16 {
		return uint16(((trRow + 1) << 2) | trTag)
	}
	writeTypeDefRow := func(flags uint32, name, ns uint16, extends uint16) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, flags))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, name))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, ns))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, extends))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // FieldList
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0))) // MethodList
	}
	writeTypeDefRow(0, fooName, nsName, typeDefOrRef(1, 0))               // NS.Foo : System.Enum
	writeTypeDefRow(0, barName, nsName, typeDefOrRef(1, 1))               // NS.Bar : System.MulticastDelegate
	writeTypeDefRow(typeAttrInterface, bazName, ns2Name, 0)               // NS2.Baz interface
	writeTypeDefRow(0, quxName, ns2Name, 0)                               // NS2.Qux : <none>

	tbl, err := parseTables(buf.Bytes())
	require.NoError(t, err)

	img := &image{tables: tbl, streams: streamTable{strings: sh.heap}}
	return img
}

func TestBuildNamespaceIndexClassification(t *testing.T) {
	img := buildNamespaceFixture(t)
	idx, err := buildNamespaceIndex([]*image{img}, false)
	require.NoError(t, err)

	require.Equal(t, []string{"NS", "NS2"}, idx.Namespaces())

	ns, ok := idx.Namespace("NS")
	require.True(t, ok)
	require.Len(t, ns.Enums(), 1)
	fooEnum, err := ns.Enums()[0].Name()
	require.NoError(t, err)
	require.Equal(t, "Foo", fooEnum)

	require.Len(t, ns.Delegates(), 1)
	barDelegate, err := ns.Delegates()[0].Name()
	require.NoError(t, err)
	require.Equal(t, "Bar", barDelegate)

	ns2, ok := idx.Namespace("NS2")
	require.True(t, ok)
	require.Len(t, ns2.Interfaces(), 1)
	bazIface, err := ns2.Interfaces()[0].Name()
	require.NoError(t, err)
	require.Equal(t, "Baz", bazIface)

	require.Len(t, ns2.Classes(), 1)
	quxClass, err := ns2.Classes()[0].Name()
	require.NoError(t, err)
	require.Equal(t, "Qux", quxClass)
}

func TestNamespaceIndexFind(t *testing.T) {
	img := buildNamespaceFixture(t)
	idx, err := buildNamespaceIndex([]*image{img}, false)
	require.NoError(t, err)

	td, ok := idx.Find("NS.Foo")
	require.True(t, ok)
	name, err := td.Name()
	require.NoError(t, err)
	require.Equal(t, "Foo", name)

	_, ok = idx.Find("NS.DoesNotExist")
	require.False(t, ok)
}

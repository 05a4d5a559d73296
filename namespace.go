// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

const apiContractAttribute = "Windows.Foundation.Metadata.ApiContractAttribute"

// namespaceEntry buckets the types declared in one namespace by Windows
// Runtime category (spec §4.9).
type namespaceEntry struct {
	name       string
	interfaces []TypeDef
	classes    []TypeDef
	enums      []TypeDef
	structs    []TypeDef
	delegates  []TypeDef
}

// Namespace is the read-only view returned by Reader.Namespace.
type Namespace struct{ e *namespaceEntry }

// Name is the namespace's dotted name.
func (n Namespace) Name() string { return n.e.name }

// Interfaces lists the interface types declared directly in this namespace.
func (n Namespace) Interfaces() []TypeDef { return n.e.interfaces }

// Classes lists the class types declared directly in this namespace.
func (n Namespace) Classes() []TypeDef { return n.e.classes }

// Enums lists the enum types declared directly in this namespace.
func (n Namespace) Enums() []TypeDef { return n.e.enums }

// Structs lists the struct (value) types declared directly in this namespace.
func (n Namespace) Structs() []TypeDef { return n.e.structs }

// Delegates lists the delegate types declared directly in this namespace.
func (n Namespace) Delegates() []TypeDef { return n.e.delegates }

// namespaceIndex is the cross-file type lookup built once after load
// (spec §4.9).
type namespaceIndex struct {
	order   []string
	byNS    map[string]*namespaceEntry
	byFull  map[string]TypeDef // "Namespace.Name" -> first-wins TypeDef
}

// baseTypeName resolves the (namespace, name) a TypeDefOrRef reference
// names, when it names a TypeRef or TypeDef (the only cases spec §4.9's
// classification rule inspects).
func baseTypeName(ref rowRef) (namespace, name string, ok bool, err error) {
	if ref.isAbsent() {
		return "", "", false, nil
	}
	switch ref.table {
	case tableTypeRef:
		tr := TypeRef{row{ref.img, ref.row}}
		ns, err := tr.Namespace()
		if err != nil {
			return "", "", false, err
		}
		n, err := tr.Name()
		return ns, n, true, err
	case tableTypeDef:
		td := TypeDef{row{ref.img, ref.row}}
		ns, err := td.Namespace()
		if err != nil {
			return "", "", false, err
		}
		n, err := td.Name()
		return ns, n, true, err
	default:
		return "", "", false, nil
	}
}

// buildNamespaceIndex runs the two-pass algorithm of spec §4.9 over every
// loaded image, in load order.
func buildNamespaceIndex(images []*image, winRTOnly bool) (*namespaceIndex, error) {
	idx := &namespaceIndex{
		byNS:   make(map[string]*namespaceEntry),
		byFull: make(map[string]TypeDef),
	}

	// Pass 1: select rows and record first-wins (namespace, name) entries.
	var selected []TypeDef
	for _, img := range images {
		n := img.typeDefRowCount()
		for i := uint32(0); i < n; i++ {
			td := TypeDef{row{img, i}}
			if winRTOnly {
				isWinRT, err := td.IsWindowsRuntime()
				if err != nil {
					return nil, err
				}
				if !isWinRT {
					continue
				}
			}
			ns, err := td.Namespace()
			if err != nil {
				return nil, err
			}
			name, err := td.Name()
			if err != nil {
				return nil, err
			}
			full := ns + "." + name
			if _, exists := idx.byFull[full]; exists {
				continue
			}
			idx.byFull[full] = td
			if _, exists := idx.byNS[ns]; !exists {
				idx.byNS[ns] = &namespaceEntry{name: ns}
				idx.order = append(idx.order, ns)
			}
			selected = append(selected, td)
		}
	}

	// Pass 2: classify each selected type by its Extends base name.
	for _, td := range selected {
		ns, err := td.Namespace()
		if err != nil {
			return nil, err
		}
		entry := idx.byNS[ns]

		isInterface, err := td.IsInterface()
		if err != nil {
			return nil, err
		}
		if isInterface {
			entry.interfaces = append(entry.interfaces, td)
			continue
		}

		extends, err := td.Extends()
		if err != nil {
			return nil, err
		}
		baseNS, baseName, ok, err := baseTypeName(extends)
		if err != nil {
			return nil, err
		}
		if !ok {
			entry.classes = append(entry.classes, td)
			continue
		}
		_ = baseNS

		switch baseName {
		case "Enum":
			entry.enums = append(entry.enums, td)
		case "MulticastDelegate":
			entry.delegates = append(entry.delegates, td)
		case "Attribute":
			// ignored
		case "ValueType":
			hasContract, err := td.HasAttribute(apiContractAttribute)
			if err != nil {
				return nil, err
			}
			if !hasContract {
				entry.structs = append(entry.structs, td)
			}
		default:
			entry.classes = append(entry.classes, td)
		}
	}

	return idx, nil
}

// Namespaces lists every namespace name discovered, in first-seen order
// (spec §5 "Namespace-bucket iteration yields types in the order inserted").
func (idx *namespaceIndex) Namespaces() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

// Namespace looks up one namespace's bucket view.
func (idx *namespaceIndex) Namespace(name string) (Namespace, bool) {
	e, ok := idx.byNS[name]
	if !ok {
		return Namespace{}, false
	}
	return Namespace{e}, true
}

// Find looks up a TypeDef by its full "Namespace.Name".
func (idx *namespaceIndex) Find(fullName string) (TypeDef, bool) {
	td, ok := idx.byFull[fullName]
	return td, ok
}

// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classbin is a classref.FormatDriver for the compact tagged-union
// binary wire format: a single control byte per element (a 5-bit shape
// tag plus HasRefId/HasTypeSpec/HasFullTypeSpec flag bits), followed by a
// shape-specific payload, an optional type name, and an optional
// variable-length reference id.
package classbin

import (
	"bufio"
	"fmt"
	"io"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/xconvert"
)

// Driver implements classref.FormatDriver for the binary wire format.
type Driver struct{}

func New() *Driver { return &Driver{} }

func (d *Driver) ReadFromStream(r io.Reader) (classref.Element, error) {
	br := bufio.NewReader(r)
	n, err := decodeNode(br)
	if err != nil {
		return nil, fmt.Errorf("classbin: %w", err)
	}
	return &element{node: n}, nil
}

func (d *Driver) WriteToStream(e classref.Element, w io.Writer) error {
	el, ok := e.(*element)
	if !ok {
		return fmt.Errorf("classbin: foreign element type %T", e)
	}
	bw := bufio.NewWriter(w)
	if err := encodeNode(bw, el.node); err != nil {
		return err
	}
	return bw.Flush()
}

func (d *Driver) FormatNull() classref.Element {
	return &element{node: &node{tag: tagNull}}
}

func (d *Driver) FormatSimple(v classref.SimpleValue) classref.Element {
	n := &node{simple: v, hasSimple: true}
	if v.Kind == classref.KindBool {
		if v.AsBool() {
			n.tag = tagTrue
		} else {
			n.tag = tagFalse
		}
		n.hasSimple = false
	} else {
		n.tag = tagForSimpleKind(v.Kind)
	}
	return &element{node: n}
}

func (d *Driver) FormatSelf(e classref.Element) classref.Element {
	return &element{node: nodeOf(e)}
}

func (d *Driver) FormatList(isTuple bool, elems []classref.Element) classref.Element {
	n := &node{tag: tagList}
	for _, e := range elems {
		n.children = append(n.children, nodeOf(e))
	}
	return &element{node: n}
}

func (d *Driver) FormatKeyValuePair(key, value classref.Element) classref.Element {
	return &element{node: &node{tag: tagKvp, children: []*node{nodeOf(key), nodeOf(value)}}}
}

func (d *Driver) FormatDictionary(entries []classref.DictEntry) classref.Element {
	keyKind := classref.KindString
	if len(entries) > 0 {
		if kel, ok := entries[0].Key.(*element); ok && kel.node.hasSimple {
			keyKind = kel.node.simple.Kind
		}
	}
	n := &node{tag: dictTagForKeyKind(keyKind)}
	for _, ent := range entries {
		sv, _ := ent.Key.Simple()
		n.entries = append(n.entries, dictEntry{value: nodeOf(ent.Value), key: sv})
	}
	return &element{node: n}
}

func (d *Driver) FormatObject(fields []classref.Field) classref.Element {
	n := &node{tag: tagDictionaryTwoStringsUtf8, isObject: true}
	for _, f := range fields {
		n.entries = append(n.entries, dictEntry{value: nodeOf(f.Value), name: f.Name, declType: f.DeclaringType})
	}
	return &element{node: n}
}

func (d *Driver) FormatReference(id uint64) classref.Element {
	return &element{node: &node{tag: tagRef, refTarget: id}}
}

func (d *Driver) FormatReferable(e classref.Element, id uint64) classref.Element {
	n := nodeOf(e)
	n.hasRefID = true
	n.refID = id
	return &element{node: n}
}

func (d *Driver) FormatWithType(e classref.Element, name string, full bool) classref.Element {
	n := nodeOf(e)
	n.hasType = true
	n.typeFull = full
	n.typeName = name
	return &element{node: n}
}

func (d *Driver) FormatFollowID(id string) classref.Element {
	return &element{node: &node{tag: tagFollowID, followID: id}}
}

func (d *Driver) ThrowMissingReferable(id uint64) error {
	return fmt.Errorf("classbin: reference %d: no referable was observed for it", id)
}

func nodeOf(e classref.Element) *node {
	if el, ok := e.(*element); ok {
		return el.node
	}
	return &node{tag: tagNull}
}

func canonicalDictKind(t tag) classref.SimpleKind {
	switch t {
	case tagDictionaryInt:
		return classref.KindInt32
	case tagDictionaryLong:
		return classref.KindInt64
	case tagDictionaryULong:
		return classref.KindUint64
	case tagDictionaryDouble:
		return classref.KindFloat64
	case tagDictionaryDateTime:
		return classref.KindDateTime
	default:
		return classref.KindString
	}
}

func writeSimplePayload(w *bufio.Writer, v classref.SimpleValue) error {
	switch v.Kind {
	case classref.KindBool:
		return w.WriteByte(boolByte(v.AsBool()))
	case classref.KindDecimal:
		return writeDecimal(w, v.AsDecimal())
	case classref.KindString:
		return writeString(w, v.AsString())
	default:
		return writeFixed(w, v)
	}
}

func readSimplePayloadAs(r *bufio.Reader, kind classref.SimpleKind) (classref.SimpleValue, error) {
	switch kind {
	case classref.KindBool:
		b, err := r.ReadByte()
		return classref.Bool(b != 0), err
	case classref.KindString:
		s, err := readString(r)
		return classref.String(s), err
	case classref.KindDecimal:
		dec, err := readDecimal(r)
		return classref.DecimalValue(dec), err
	default:
		return readFixed(r, tagForSimpleKind(kind))
	}
}

func writeKeyScalar(w *bufio.Writer, dictTag tag, key classref.SimpleValue) error {
	ck := canonicalDictKind(dictTag)
	cv, err := xconvert.Convert(ck, key)
	if err != nil {
		return err
	}
	return writeSimplePayload(w, cv)
}

func encodeNode(w *bufio.Writer, n *node) error {
	var flags byte
	if n.hasRefID {
		flags |= flagHasRefID
	}
	if n.hasType {
		if n.typeFull {
			flags |= flagHasFullType
		} else {
			flags |= flagHasTypeSpec
		}
	}
	if err := w.WriteByte(byte(n.tag) | flags); err != nil {
		return err
	}

	switch n.tag {
	case tagEnd, tagNull, tagFalse, tagTrue:
		// no payload
	case tagByte, tagSByte, tagShort, tagUShort, tagInt, tagUInt, tagLong, tagULong, tagFloat, tagDouble, tagDateTime:
		if err := writeFixed(w, n.simple); err != nil {
			return err
		}
	case tagDecimal:
		if err := writeDecimal(w, n.simple.AsDecimal()); err != nil {
			return err
		}
	case tagStringUtf8, tagStringUtf16:
		if err := writeString(w, n.simple.AsString()); err != nil {
			return err
		}
	case tagDictionaryInt, tagDictionaryLong, tagDictionaryULong, tagDictionaryDouble,
		tagDictionaryDateTime, tagDictionaryStringUtf8, tagDictionaryTwoStringsUtf8:
		for _, ent := range n.entries {
			if err := encodeNode(w, ent.value); err != nil {
				return err
			}
			if n.tag == tagDictionaryTwoStringsUtf8 {
				if err := writeString(w, ent.name); err != nil {
					return err
				}
				if err := writeString(w, ent.declType); err != nil {
					return err
				}
			} else if err := writeKeyScalar(w, n.tag, ent.key); err != nil {
				return err
			}
		}
		if err := w.WriteByte(byte(tagEnd)); err != nil {
			return err
		}
	case tagList:
		for _, c := range n.children {
			if err := encodeNode(w, c); err != nil {
				return err
			}
		}
		if err := w.WriteByte(byte(tagEnd)); err != nil {
			return err
		}
	case tagKvp:
		if err := encodeNode(w, n.children[0]); err != nil {
			return err
		}
		if err := encodeNode(w, n.children[1]); err != nil {
			return err
		}
	case tagRef:
		if err := writeVarUint(w, n.refTarget); err != nil {
			return err
		}
	case tagFollowID:
		if err := writeString(w, n.followID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("classbin: unknown tag %#x", n.tag)
	}

	if n.hasType {
		if err := writeString(w, n.typeName); err != nil {
			return err
		}
	}
	if n.hasRefID {
		if err := writeVarUint(w, n.refID); err != nil {
			return err
		}
	}
	return nil
}

func decodeNode(r *bufio.Reader) (*node, error) {
	ctrl, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	t := tag(ctrl & tagMask)
	flags := ctrl &^ tagMask
	if flags&flagHasTypeSpec != 0 && flags&flagHasFullType != 0 {
		return nil, fmt.Errorf("classbin: control byte %#x sets both HasTypeSpec and HasFullTypeSpec", ctrl)
	}
	n := &node{tag: t}

	switch t {
	case tagEnd, tagNull, tagFalse, tagTrue:
		// no payload
	case tagByte, tagSByte, tagShort, tagUShort, tagInt, tagUInt, tagLong, tagULong, tagFloat, tagDouble, tagDateTime:
		sv, err := readFixed(r, t)
		if err != nil {
			return nil, err
		}
		n.simple, n.hasSimple = sv, true
	case tagDecimal:
		dec, err := readDecimal(r)
		if err != nil {
			return nil, err
		}
		n.simple, n.hasSimple = classref.DecimalValue(dec), true
	case tagStringUtf8, tagStringUtf16:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		n.simple, n.hasSimple = classref.String(s), true
	case tagDictionaryInt, tagDictionaryLong, tagDictionaryULong, tagDictionaryDouble,
		tagDictionaryDateTime, tagDictionaryStringUtf8, tagDictionaryTwoStringsUtf8:
		n.isObject = t == tagDictionaryTwoStringsUtf8
		ck := canonicalDictKind(t)
		for {
			peek, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			if peek == byte(tagEnd) {
				break
			}
			if err := r.UnreadByte(); err != nil {
				return nil, err
			}
			val, err := decodeNode(r)
			if err != nil {
				return nil, err
			}
			if n.isObject {
				name, err := readString(r)
				if err != nil {
					return nil, err
				}
				decl, err := readString(r)
				if err != nil {
					return nil, err
				}
				n.entries = append(n.entries, dictEntry{value: val, name: name, declType: decl})
			} else {
				kv, err := readSimplePayloadAs(r, ck)
				if err != nil {
					return nil, err
				}
				n.entries = append(n.entries, dictEntry{value: val, key: kv})
			}
		}
	case tagList:
		for {
			peek, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			if peek == byte(tagEnd) {
				break
			}
			if err := r.UnreadByte(); err != nil {
				return nil, err
			}
			child, err := decodeNode(r)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
	case tagKvp:
		k, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		v, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		n.children = []*node{k, v}
	case tagRef:
		id, err := readVarUint(r)
		if err != nil {
			return nil, err
		}
		n.refTarget = id
	case tagFollowID:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		n.followID = s
	default:
		return nil, fmt.Errorf("classbin: unknown tag %#x", t)
	}

	if flags&flagHasFullType != 0 {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		n.typeName, n.typeFull, n.hasType = name, true, true
	} else if flags&flagHasTypeSpec != 0 {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		n.typeName, n.typeFull, n.hasType = name, false, true
	}
	if flags&flagHasRefID != 0 {
		id, err := readVarUint(r)
		if err != nil {
			return nil, err
		}
		n.hasRefID, n.refID = true, id
	}
	return n, nil
}

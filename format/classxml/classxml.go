// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classxml is a classref.FormatDriver that renders the IR as XML.
// Every IR node is written as a single XML element (<e>, or <f>, <k> or
// <val> where it is an object field, key or value); identity, type, and
// null information ride as attributes on that same element rather than
// as nested markers, since XML (unlike JSON) lets any element carry
// attributes regardless of its content. Scalar text that contains a
// control character below U+0020 is written with encoding="c-literal"
// (backslash escapes); a lone character at or below U+0020 is instead
// written with encoding="codepoint" as its decimal code point, since
// c-literal escapes would otherwise collide with legitimate backslash
// text.
package classxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/xconvert"
)

const (
	attrType     = "type"
	attrFullType = "fulltype"
	attrRef      = "ref"
	attrID       = "id"
	attrNull     = "null"
	attrFollowID = "followid"
	attrEncoding = "encoding"
	attrName     = "name"
	attrDecl     = "decl"
	attrTuple    = "tuple"
)

// Driver implements classref.FormatDriver for XML.
type Driver struct {
	// Indent, when non-empty, is used to pretty-print WriteToStream output.
	Indent string
}

func New() *Driver { return &Driver{} }

func (d *Driver) ReadFromStream(r io.Reader) (classref.Element, error) {
	dec := xml.NewDecoder(r)
	n, err := decodeNode(dec)
	if err != nil {
		return nil, fmt.Errorf("classxml: %w", err)
	}
	return &element{node: n}, nil
}

func (d *Driver) WriteToStream(e classref.Element, w io.Writer) error {
	el, ok := e.(*element)
	if !ok {
		return fmt.Errorf("classxml: foreign element type %T", e)
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if d.Indent != "" {
		enc.Indent("", d.Indent)
	}
	if err := encodeNode(enc, el.node); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (d *Driver) FormatNull() classref.Element {
	return &element{node: &node{Name: "e", Attrs: map[string]string{attrNull: "true"}}}
}

func (d *Driver) FormatSimple(v classref.SimpleValue) classref.Element {
	text, enc := encodeScalarText(v)
	n := &node{Name: "e", Attrs: map[string]string{}, Text: text, HasText: true}
	if enc != "" {
		n.Attrs[attrEncoding] = enc
	}
	return &element{node: n}
}

func (d *Driver) FormatSelf(e classref.Element) classref.Element {
	if inner, ok := e.(*element); ok {
		return &element{node: inner.node}
	}
	return &element{node: &node{Name: "e"}}
}

func (d *Driver) FormatList(isTuple bool, elems []classref.Element) classref.Element {
	n := &node{Name: "e", Attrs: map[string]string{}}
	if isTuple {
		n.Attrs[attrTuple] = "true"
	}
	for _, e := range elems {
		n.Children = append(n.Children, nodeOf(e))
	}
	return &element{node: n}
}

func (d *Driver) FormatKeyValuePair(key, value classref.Element) classref.Element {
	n := &node{Name: "e"}
	k := nodeOf(key)
	k.Name = "k"
	v := nodeOf(value)
	v.Name = "val"
	n.Children = []*node{k, v}
	return &element{node: n}
}

func (d *Driver) FormatDictionary(entries []classref.DictEntry) classref.Element {
	n := &node{Name: "e"}
	for _, ent := range entries {
		k := nodeOf(ent.Key)
		k.Name = "k"
		v := nodeOf(ent.Value)
		v.Name = "val"
		n.Children = append(n.Children, &node{Name: "entry", Children: []*node{k, v}})
	}
	return &element{node: n}
}

func (d *Driver) FormatObject(fields []classref.Field) classref.Element {
	n := &node{Name: "e"}
	for _, f := range fields {
		fn := nodeOf(f.Value)
		fn.Name = "f"
		if fn.Attrs == nil {
			fn.Attrs = map[string]string{}
		}
		fn.Attrs[attrName] = f.Name
		if f.DeclaringType != "" {
			fn.Attrs[attrDecl] = f.DeclaringType
		}
		n.Children = append(n.Children, fn)
	}
	return &element{node: n}
}

func (d *Driver) FormatReference(id uint64) classref.Element {
	return &element{node: &node{Name: "e", Attrs: map[string]string{attrRef: strconv.FormatUint(id, 10)}}}
}

func (d *Driver) FormatReferable(e classref.Element, id uint64) classref.Element {
	n := nodeOf(e)
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[attrID] = strconv.FormatUint(id, 10)
	return &element{node: n}
}

func (d *Driver) FormatWithType(e classref.Element, name string, full bool) classref.Element {
	n := nodeOf(e)
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	if full {
		n.Attrs[attrFullType] = name
	} else {
		n.Attrs[attrType] = name
	}
	return &element{node: n}
}

func (d *Driver) FormatFollowID(id string) classref.Element {
	return &element{node: &node{Name: "e", Attrs: map[string]string{attrFollowID: id}}}
}

func (d *Driver) ThrowMissingReferable(id uint64) error {
	return fmt.Errorf("classxml: reference %d: no referable was observed for it", id)
}

func nodeOf(e classref.Element) *node {
	if el, ok := e.(*element); ok {
		return el.node
	}
	return &node{Name: "e"}
}

// encodeScalarText renders v's text form and reports which, if any,
// special encoding attribute applies.
func encodeScalarText(v classref.SimpleValue) (text, encoding string) {
	text = xconvert.FormatString(v)
	if v.Kind == classref.KindChar {
		r := rune(v.AsChar())
		if r <= 0x20 {
			return strconv.Itoa(int(r)), "codepoint"
		}
		return text, ""
	}
	if hasControlChar(text) {
		return cLiteralEscape(text), "c-literal"
	}
	return text, ""
}

func hasControlChar(s string) bool {
	for _, r := range s {
		if r < 0x20 {
			return true
		}
	}
	return false
}

func cLiteralEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\\':
			b.WriteString(`\\`)
		case r < 0x20:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cLiteralUnescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		case 'x':
			if i+3 < len(s) {
				if n, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
					b.WriteByte(byte(n))
					i += 3
					continue
				}
			}
			b.WriteByte(s[i])
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

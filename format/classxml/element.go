// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classxml

import (
	"strconv"

	"github.com/classify-go/classify/classref"
)

type element struct {
	node *node
}

func (e *element) IsNull() bool {
	return e.node.Attrs[attrNull] == "true"
}

func (e *element) IsReference() bool {
	_, ok := e.node.Attrs[attrRef]
	return ok
}

func (e *element) ReferenceID() (uint64, bool) {
	s, ok := e.node.Attrs[attrRef]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil
}

func (e *element) IsReferable() bool {
	_, ok := e.node.Attrs[attrID]
	return ok
}

func (e *element) ReferableID() (uint64, bool) {
	s, ok := e.node.Attrs[attrID]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil
}

func (e *element) IsFollowID() bool {
	_, ok := e.node.Attrs[attrFollowID]
	return ok
}

func (e *element) FollowID() (string, bool) {
	s, ok := e.node.Attrs[attrFollowID]
	return s, ok
}

func (e *element) TypeTag() (string, bool, bool) {
	if s, ok := e.node.Attrs[attrFullType]; ok {
		return s, true, true
	}
	if s, ok := e.node.Attrs[attrType]; ok {
		return s, false, true
	}
	return "", false, false
}

func (e *element) Simple() (classref.SimpleValue, bool) {
	if len(e.node.Children) > 0 {
		return classref.SimpleValue{}, false
	}
	text := e.node.Text
	switch e.node.Attrs[attrEncoding] {
	case "c-literal":
		text = cLiteralUnescape(text)
	case "codepoint":
		n, err := strconv.Atoi(text)
		if err != nil {
			return classref.SimpleValue{}, false
		}
		return classref.CharValue(classref.Char(n)), true
	}
	return classref.String(text), true
}

func (e *element) Self() (classref.Element, bool) {
	return &element{node: e.node}, true
}

func (e *element) List(tupleArity int) ([]classref.Element, bool) {
	if tupleArity > 0 && len(e.node.Children) != tupleArity {
		return nil, false
	}
	elems := make([]classref.Element, len(e.node.Children))
	for i, c := range e.node.Children {
		elems[i] = &element{node: c}
	}
	return elems, true
}

func (e *element) KeyValuePair() (classref.Element, classref.Element, bool) {
	var k, v *node
	for _, c := range e.node.Children {
		switch c.Name {
		case "k":
			k = c
		case "val":
			v = c
		}
	}
	if k == nil || v == nil {
		return nil, nil, false
	}
	return &element{node: k}, &element{node: v}, true
}

func (e *element) Dictionary() ([]classref.DictEntry, bool) {
	entries := make([]classref.DictEntry, 0, len(e.node.Children))
	for _, entryNode := range e.node.Children {
		if entryNode.Name != "entry" {
			return nil, false
		}
		var k, v *node
		for _, c := range entryNode.Children {
			switch c.Name {
			case "k":
				k = c
			case "val":
				v = c
			}
		}
		if k == nil || v == nil {
			return nil, false
		}
		entries = append(entries, classref.DictEntry{Key: &element{node: k}, Value: &element{node: v}})
	}
	return entries, true
}

func (e *element) HasField(name, declaringType string) bool {
	_, ok := e.findField(name, declaringType)
	return ok
}

func (e *element) Field(name, declaringType string) (classref.Element, bool) {
	n, ok := e.findField(name, declaringType)
	if !ok {
		return nil, false
	}
	return &element{node: n}, true
}

// findField looks up a field by name, preferring a declaringType match
// when more than one field shares the name (a promoted-field collision);
// falling back to the first match otherwise, since a reader created from
// an XML document with no declaring-type attribute present still needs to
// resolve unambiguous field names.
func (e *element) findField(name, declaringType string) (*node, bool) {
	var firstMatch *node
	for _, c := range e.node.Children {
		if c.Name != "f" || c.Attrs[attrName] != name {
			continue
		}
		if firstMatch == nil {
			firstMatch = c
		}
		if declaringType != "" && c.Attrs[attrDecl] == declaringType {
			return c, true
		}
	}
	if firstMatch != nil {
		return firstMatch, true
	}
	return nil, false
}

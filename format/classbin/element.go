// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classbin

import "github.com/classify-go/classify/classref"

type element struct {
	node *node
}

func (e *element) IsNull() bool { return e.node.tag == tagNull }

func (e *element) IsReference() bool { return e.node.tag == tagRef }

func (e *element) ReferenceID() (uint64, bool) {
	if e.node.tag != tagRef {
		return 0, false
	}
	return e.node.refTarget, true
}

func (e *element) IsReferable() bool { return e.node.hasRefID }

func (e *element) ReferableID() (uint64, bool) { return e.node.refID, e.node.hasRefID }

func (e *element) IsFollowID() bool { return e.node.tag == tagFollowID }

func (e *element) FollowID() (string, bool) {
	if e.node.tag != tagFollowID {
		return "", false
	}
	return e.node.followID, true
}

func (e *element) TypeTag() (string, bool, bool) {
	if !e.node.hasType {
		return "", false, false
	}
	return e.node.typeName, e.node.typeFull, true
}

func (e *element) Simple() (classref.SimpleValue, bool) {
	switch e.node.tag {
	case tagTrue:
		return classref.Bool(true), true
	case tagFalse:
		return classref.Bool(false), true
	}
	if e.node.hasSimple {
		return e.node.simple, true
	}
	return classref.SimpleValue{}, false
}

func (e *element) Self() (classref.Element, bool) {
	return &element{node: e.node}, true
}

func (e *element) List(tupleArity int) ([]classref.Element, bool) {
	if e.node.tag != tagList {
		return nil, false
	}
	if tupleArity > 0 && len(e.node.children) != tupleArity {
		return nil, false
	}
	elems := make([]classref.Element, len(e.node.children))
	for i, c := range e.node.children {
		elems[i] = &element{node: c}
	}
	return elems, true
}

func (e *element) KeyValuePair() (classref.Element, classref.Element, bool) {
	if e.node.tag != tagKvp || len(e.node.children) != 2 {
		return nil, nil, false
	}
	return &element{node: e.node.children[0]}, &element{node: e.node.children[1]}, true
}

func (e *element) Dictionary() ([]classref.DictEntry, bool) {
	switch e.node.tag {
	case tagDictionaryInt, tagDictionaryLong, tagDictionaryULong, tagDictionaryDouble,
		tagDictionaryDateTime, tagDictionaryStringUtf8:
	default:
		return nil, false
	}
	entries := make([]classref.DictEntry, 0, len(e.node.entries))
	for _, ent := range e.node.entries {
		keyNode := &node{simple: ent.key, hasSimple: true}
		if ent.key.Kind == classref.KindBool {
			if ent.key.AsBool() {
				keyNode.tag = tagTrue
			} else {
				keyNode.tag = tagFalse
			}
			keyNode.hasSimple = false
		} else {
			keyNode.tag = tagForSimpleKind(ent.key.Kind)
		}
		entries = append(entries, classref.DictEntry{
			Key:   &element{node: keyNode},
			Value: &element{node: ent.value},
		})
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

func (e *element) findField(name, declaringType string) (*node, bool) {
	if e.node.tag != tagDictionaryTwoStringsUtf8 || !e.node.isObject {
		return nil, false
	}
	var firstMatch *node
	for _, ent := range e.node.entries {
		if ent.name != name {
			continue
		}
		if firstMatch == nil {
			firstMatch = ent.value
		}
		if declaringType != "" && ent.declType == declaringType {
			return ent.value, true
		}
	}
	if firstMatch != nil {
		return firstMatch, true
	}
	return nil, false
}

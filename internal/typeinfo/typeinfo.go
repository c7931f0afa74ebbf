// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package typeinfo computes and caches the Type Descriptor for a Go type:
// its Shape plus, for Object shapes, its member catalogue. Classification
// is the only place the engine consults Go's reflect package directly for
// "what kind of thing is this type"; everything downstream dispatches on
// the resulting Descriptor.
package typeinfo

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/xconvert"
)

// Member is one field of an Object-shape Type Descriptor.
type Member struct {
	Name          string // wire name, after backing-field normalization
	DeclaringType reflect.Type
	Type          reflect.Type
	Index         []int // reflect.Value.FieldByIndex path

	Ignore          bool
	Parent          bool
	Mandatory       bool
	IgnoreIfDefault bool
	IgnoreIfEmpty   bool
	IgnoreIfText    string
	HasIgnoreIf     bool
	FollowID        bool
}

// Descriptor is the memoized classification record for a concrete Go type.
// Once published to the cache it is never mutated, per the compute-once,
// publish, read-many discipline the Type Descriptor cache requires.
type Descriptor struct {
	Type  reflect.Type
	Shape classref.Shape

	// Simple shape.
	SimpleKind classref.SimpleKind

	// List shape.
	ElemType reflect.Type

	// Dictionary shape.
	KeyType reflect.Type

	// Tuple/KeyValuePair shape.
	Arity int

	// Object shape.
	Members []Member
}

var (
	elementType = reflect.TypeOf((*classref.Element)(nil)).Elem()

	cache  sync.Map // map[reflect.Type]*Descriptor
	flight singleflight.Group
)

// Of returns the Type Descriptor for t, computing and publishing it on
// first observation. Concurrent first-observations of the same type
// collapse into a single computation via singleflight, so unrelated types
// never contend with each other while the cache warms.
func Of(t reflect.Type) (*Descriptor, error) {
	if v, ok := cache.Load(t); ok {
		return v.(*Descriptor), nil
	}
	v, err, _ := flight.Do(fmt.Sprintf("%p", t), func() (interface{}, error) {
		if v, ok := cache.Load(t); ok {
			return v.(*Descriptor), nil
		}
		d, err := classify(t)
		if err != nil {
			return nil, err
		}
		cache.Store(t, d)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Descriptor), nil
}

// classify implements the Shape precedence order: SelfTyped, then Simple,
// then pointer unwrap, then the fixed-arity record shapes, then the
// reflect.Kind-driven map/slice/struct fallbacks.
func classify(t reflect.Type) (*Descriptor, error) {
	// SelfTyped: the member's declared type is the IR element type itself.
	if t == elementType {
		return &Descriptor{Type: t, Shape: classref.ShapeSelf}, nil
	}

	// Simple: recognized by the ExactConvert contract.
	if kind, ok := xconvert.KindForType(t); ok {
		return &Descriptor{Type: t, Shape: classref.ShapeSimple, SimpleKind: kind}, nil
	}

	// Nullable wrapper: pointers recurse on the pointee. A nil pointer is
	// Null at the value level (handled by the engine, not here); the
	// pointee's Shape is what governs traversal once dereferenced.
	if t.Kind() == reflect.Ptr {
		inner, err := Of(t.Elem())
		if err != nil {
			return nil, err
		}
		d := *inner
		d.Type = t
		return &d, nil
	}

	if arity, ok := tupleArity(t); ok {
		return classifyTuple(t, arity)
	}
	if ok := isKeyValuePair(t); ok {
		return classifyKeyValuePair(t)
	}

	switch t.Kind() {
	case reflect.Map:
		keyKind, ok := xconvert.KindForType(t.Key())
		if !ok || !supportedKeyKind(keyKind) {
			return nil, &UnsupportedKeyTypeError{Type: t.Key()}
		}
		return &Descriptor{Type: t, Shape: classref.ShapeDictionary, ElemType: t.Elem(), KeyType: t.Key()}, nil

	case reflect.Slice, reflect.Array:
		// Go fixed-size arrays have no idiomatic associative-array
		// reading in this ecosystem (unlike the source language's
		// notion of "array" under the Dictionary-capability rule);
		// they are classified as ordered sequences, the same as
		// slices. See DESIGN.md Open Question resolution.
		return &Descriptor{Type: t, Shape: classref.ShapeList, ElemType: t.Elem()}, nil

	case reflect.Struct:
		return classifyObject(t)
	}

	return nil, &UnsupportedValueTypeError{Type: t}
}

func supportedKeyKind(k classref.SimpleKind) bool {
	return k.IsInteger() || k == classref.KindString
}

// tupleArity reports whether t is one of the classify.TupleN[...] generic
// record types (arity 2..8), recognized structurally by name and field
// count rather than by a marker interface, since a zero-value of a generic
// type can't be type-asserted against an interface cheaply at this layer.
func tupleArity(t reflect.Type) (int, bool) {
	if t.Kind() != reflect.Struct || !strings.HasPrefix(t.Name(), "Tuple") {
		return 0, false
	}
	rest := strings.TrimPrefix(t.Name(), "Tuple")
	idx := strings.IndexByte(rest, '[')
	if idx > 0 {
		rest = rest[:idx]
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 2 || n > 8 || t.NumField() != n {
		return 0, false
	}
	return n, true
}

func isKeyValuePair(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.NumField() != 2 {
		return false
	}
	base := t.Name()
	if idx := strings.IndexByte(base, '['); idx > 0 {
		base = base[:idx]
	}
	return base == "KeyValuePair" && t.Field(0).Name == "Key" && t.Field(1).Name == "Value"
}

func classifyTuple(t reflect.Type, arity int) (*Descriptor, error) {
	return &Descriptor{Type: t, Shape: classref.ShapeTuple, Arity: arity}, nil
}

func classifyKeyValuePair(t reflect.Type) (*Descriptor, error) {
	return &Descriptor{Type: t, Shape: classref.ShapeKeyValuePair, Arity: 2}, nil
}

// classifyObject enumerates every exported instance field (including those
// promoted from embedded structs), normalizes each to a stable wire name,
// and applies the classify struct-tag attributes.
func classifyObject(t reflect.Type) (*Descriptor, error) {
	fields := reflect.VisibleFields(t)
	members := make([]Member, 0, len(fields))
	for _, f := range fields {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		m, skip, err := parseMember(t, f)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		members = append(members, m)
	}
	return &Descriptor{Type: t, Shape: classref.ShapeObject, Members: members}, nil
}

func parseMember(t reflect.Type, f reflect.StructField) (Member, bool, error) {
	m := Member{
		Name:          normalizeWireName(f.Name),
		Type:          f.Type,
		Index:         append([]int(nil), f.Index...),
		DeclaringType: declaringType(t, f),
	}
	tag, hasTag := f.Tag.Lookup("classify")
	if !hasTag {
		return m, false, nil
	}
	parts := strings.Split(tag, ",")
	if parts[0] == "-" {
		return m, true, nil
	}
	if parts[0] != "" {
		m.Name = parts[0]
	}
	for _, opt := range parts[1:] {
		switch {
		case opt == "ignore":
			return m, true, nil
		case opt == "parent":
			m.Parent = true
		case opt == "mandatory":
			m.Mandatory = true
		case opt == "ignoreifdefault":
			m.IgnoreIfDefault = true
		case opt == "ignoreifempty":
			m.IgnoreIfEmpty = true
		case opt == "followid":
			m.FollowID = true
		case strings.HasPrefix(opt, "ignoreif="):
			m.HasIgnoreIf = true
			m.IgnoreIfText = strings.TrimPrefix(opt, "ignoreif=")
		case opt == "":
			// tolerate a trailing comma
		default:
			return m, false, fmt.Errorf("typeinfo: unrecognized classify tag option %q on %s.%s", opt, t, f.Name)
		}
	}
	return m, false, nil
}

// normalizeWireName strips a single leading backing-field marker
// character ('_'). Only exported fields become members, and an exported Go
// name never begins with '_', so every member's wire name passes through
// unchanged; unexported backing fields are not serialized at all.
func normalizeWireName(name string) string {
	return strings.TrimPrefix(name, "_")
}

// declaringType returns the struct type that directly contains f, walking
// through any embedding chain recorded in f.Index.
func declaringType(t reflect.Type, f reflect.StructField) reflect.Type {
	if len(f.Index) <= 1 {
		return t
	}
	cur := t
	for _, i := range f.Index[:len(f.Index)-1] {
		cur = cur.Field(i).Type
		for cur.Kind() == reflect.Ptr {
			cur = cur.Elem()
		}
	}
	return cur
}

// UnsupportedKeyTypeError reports a Dictionary shape whose key type is not
// string, an integer width, or an enum (a named integer type).
type UnsupportedKeyTypeError struct{ Type reflect.Type }

func (e *UnsupportedKeyTypeError) Error() string {
	return fmt.Sprintf("classify: unsupported dictionary key type %s", e.Type)
}

// UnsupportedValueTypeError reports that a type classified as Object could
// not be given a recognized member layout (only possible for non-struct,
// non-slice, non-map, non-Simple kinds: chan, func, unsafe.Pointer, and
// bare interfaces other than classref.Element).
type UnsupportedValueTypeError struct{ Type reflect.Type }

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("classify: type %s has no recognized shape", e.Type)
}

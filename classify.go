// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classify walks a Go object graph and produces a format-neutral
// intermediate representation (classref.Element) that any FormatDriver can
// render to bytes, and the reverse: reading that representation back into
// a Go value. The engine never knows about JSON, XML, or binary layout; it
// only calls the capability methods classref.FormatDriver exposes.
package classify

import (
	"io"
	"reflect"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/typeinfo"
)

// Serialize classifies v (whose declared type is reflect.TypeOf(v), the
// dynamic type held by the interface{} argument) into an Element using
// driver.
func Serialize(driver classref.FormatDriver, v interface{}, opts *Options) (classref.Element, error) {
	s := &serializer{driver: driver, opts: opts, seen: make(map[identityKey]uint64)}
	return s.classifyValue(reflect.ValueOf(v), declaredTypeOf(v))
}

// SerializeTo classifies v and writes the wire form to w.
func SerializeTo(driver classref.FormatDriver, v interface{}, opts *Options, w io.Writer) error {
	e, err := Serialize(driver, v, opts)
	if err != nil {
		return err
	}
	return driver.WriteToStream(e, w)
}

func declaredTypeOf(v interface{}) reflect.Type {
	if v == nil {
		return nil
	}
	return reflect.TypeOf(v)
}

// identityKey distinguishes reference-eligible values (slices, maps, and
// addressable structs, which includes every struct reached through a
// pointer) by their backing address, so cycles and shared references collapse
// to a single referable element plus N reference elements.
type identityKey struct {
	kind reflect.Kind
	ptr  uintptr
}

type serializer struct {
	driver classref.FormatDriver
	opts   *Options
	seen   map[identityKey]uint64
	nextID uint64
}

func (s *serializer) classifyValue(rv reflect.Value, declared reflect.Type) (classref.Element, error) {
	if !rv.IsValid() {
		return s.driver.FormatNull(), nil
	}

	// SelfTyped fields carry a raw IR payload through untouched.
	if declared != nil && rv.Type().Implements(elementInterfaceType) && rv.Type() == elementInterfaceType {
		e, _ := rv.Interface().(classref.Element)
		return s.driver.FormatSelf(e), nil
	}

	rv, isNil := unwrapPointer(rv)
	if isNil {
		return s.driver.FormatNull(), nil
	}

	if dany, ok := asDeferredAny(rv); ok {
		return s.classifyDeferred(dany)
	}

	rv, err := s.applySubstitution(rv)
	if err != nil {
		return nil, err
	}

	if err := s.runPreSerialize(rv); err != nil {
		return nil, err
	}

	desc, err := typeinfo.Of(rv.Type())
	if err != nil {
		return nil, err
	}

	var e classref.Element
	var key identityKey
	var hasKey bool

	if key, hasKey = identityOf(rv); hasKey {
		if id, ok := s.seen[key]; ok {
			return s.driver.FormatReference(id), nil
		}
		s.nextID++
		id := s.nextID
		s.seen[key] = id
		e, err = s.classifyShape(rv, desc)
		if err != nil {
			return nil, err
		}
		e = s.driver.FormatReferable(e, id)
	} else {
		e, err = s.classifyShape(rv, desc)
		if err != nil {
			return nil, err
		}
	}

	if declared != nil && rv.Type() != derefType(declared) && !declaredIsContainer(declared) {
		name, full := s.tagFor(rv.Type(), derefType(declared))
		e = s.driver.FormatWithType(e, name, full)
	}

	e, err = s.runPostSerialize(rv, e)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func derefType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// declaredIsContainer reports whether the statically declared type t is
// itself List- or Dictionary-shaped: container-level polymorphism (a
// runtime slice/map type differing from its declared one) is the only case
// a type tag is never written for, since the element/value types within
// already carry their own tags where needed. A bare interface (including
// classref.Element) has no Shape of its own, so it is never a container
// for this purpose — every mismatched value placed through an interface
// field gets a tag, regardless of its runtime Shape.
func declaredIsContainer(t reflect.Type) bool {
	t = derefType(t)
	if t == nil || t.Kind() == reflect.Interface {
		return false
	}
	desc, err := typeinfo.Of(t)
	if err != nil {
		return false
	}
	return desc.Shape == classref.ShapeList || desc.Shape == classref.ShapeDictionary
}

var elementInterfaceType = reflect.TypeOf((*classref.Element)(nil)).Elem()

// unwrapPointer dereferences chained pointers down to the addressed value,
// reporting isNil if any link in the chain is nil (Nullable semantics: a
// nil pointer at any depth is simply Null).
func unwrapPointer(rv reflect.Value) (reflect.Value, bool) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv, true
		}
		rv = rv.Elem()
	}
	return rv, false
}

func identityOf(rv reflect.Value) (identityKey, bool) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return identityKey{}, false
		}
		return identityKey{kind: rv.Kind(), ptr: rv.Pointer()}, true
	case reflect.Struct:
		if rv.CanAddr() {
			return identityKey{kind: reflect.Struct, ptr: rv.UnsafeAddr()}, true
		}
	}
	return identityKey{}, false
}

func (s *serializer) applySubstitution(rv reflect.Value) (reflect.Value, error) {
	to := s.opts.get(rv.Type())
	if to == nil || to.Substitution == nil {
		return rv, nil
	}
	sub := to.Substitution
	out, err := sub.To(rv.Interface())
	if err != nil {
		return rv, &ConversionError{Cause: err}
	}
	return reflect.ValueOf(out), nil
}

func (s *serializer) runPreSerialize(rv reflect.Value) error {
	if to := s.opts.get(rv.Type()); to != nil && to.PreSerialize != nil {
		if err := to.PreSerialize(rv.Interface()); err != nil {
			return err
		}
	}
	if rv.CanAddr() {
		if ps, ok := rv.Addr().Interface().(PreSerializer); ok {
			return ps.ClassifyPreSerialize()
		}
	} else if ps, ok := rv.Interface().(PreSerializer); ok {
		return ps.ClassifyPreSerialize()
	}
	return nil
}

func (s *serializer) runPostSerialize(rv reflect.Value, e classref.Element) (classref.Element, error) {
	if to := s.opts.get(rv.Type()); to != nil && to.PostSerialize != nil {
		var err error
		e, err = to.PostSerialize(rv.Interface(), e)
		if err != nil {
			return nil, err
		}
	}
	var obj interface{}
	if rv.CanAddr() {
		obj = rv.Addr().Interface()
	} else {
		obj = rv.Interface()
	}
	if ps, ok := obj.(PostSerializer); ok {
		return ps.ClassifyPostSerialize(e)
	}
	return e, nil
}

func (s *serializer) classifyDeferred(d deferredAny) (classref.Element, error) {
	if d.hasEagerValue() && s.opts != nil && s.opts.FollowIDWriter != nil {
		if err := s.opts.FollowIDWriter(d.ID(), d.innerType(), d.eagerValue()); err != nil {
			return nil, err
		}
	}
	return s.driver.FormatFollowID(d.ID()), nil
}

func (s *serializer) classifyShape(rv reflect.Value, desc *typeinfo.Descriptor) (classref.Element, error) {
	switch desc.Shape {
	case classref.ShapeSimple:
		return s.classifySimple(rv, desc)
	case classref.ShapeSelf:
		e, _ := rv.Interface().(classref.Element)
		return s.driver.FormatSelf(e), nil
	case classref.ShapeList:
		return s.classifyList(rv, desc, false)
	case classref.ShapeTuple:
		return s.classifyTuple(rv, desc)
	case classref.ShapeKeyValuePair:
		return s.classifyKeyValuePair(rv)
	case classref.ShapeDictionary:
		return s.classifyDictionary(rv, desc)
	case classref.ShapeObject:
		return s.classifyObject(rv, desc)
	default:
		return nil, &UnsupportedValueTypeError{Type: rv.Type()}
	}
}

func (s *serializer) classifySimple(rv reflect.Value, desc *typeinfo.Descriptor) (classref.Element, error) {
	sv, err := simpleValueOf(rv, desc.SimpleKind)
	if err != nil {
		return nil, &ConversionError{Cause: err}
	}
	return s.driver.FormatSimple(sv), nil
}

func (s *serializer) classifyList(rv reflect.Value, desc *typeinfo.Descriptor, isTuple bool) (classref.Element, error) {
	n := rv.Len()
	elems := make([]classref.Element, n)
	for i := 0; i < n; i++ {
		e, err := s.classifyValue(rv.Index(i), desc.ElemType)
		if err != nil {
			return nil, wrapPath(indexPath(i), err)
		}
		elems[i] = e
	}
	return s.driver.FormatList(isTuple, elems), nil
}

// classifyTuple writes the F1..Fn fields of a TupleN[...] struct out as a
// fixed-arity list, in field order.
func (s *serializer) classifyTuple(rv reflect.Value, desc *typeinfo.Descriptor) (classref.Element, error) {
	elems := make([]classref.Element, desc.Arity)
	for i := 0; i < desc.Arity; i++ {
		fv := rv.Field(i)
		e, err := s.classifyValue(fv, fv.Type())
		if err != nil {
			return nil, wrapPath(indexPath(i), err)
		}
		elems[i] = e
	}
	return s.driver.FormatList(true, elems), nil
}

func (s *serializer) classifyKeyValuePair(rv reflect.Value) (classref.Element, error) {
	k, err := s.classifyValue(rv.Field(0), rv.Field(0).Type())
	if err != nil {
		return nil, wrapPath("Key", err)
	}
	v, err := s.classifyValue(rv.Field(1), rv.Field(1).Type())
	if err != nil {
		return nil, wrapPath("Value", err)
	}
	return s.driver.FormatKeyValuePair(k, v), nil
}

func (s *serializer) classifyDictionary(rv reflect.Value, desc *typeinfo.Descriptor) (classref.Element, error) {
	keys := rv.MapKeys()
	entries := make([]classref.DictEntry, 0, len(keys))
	for _, k := range keys {
		kv, err := s.classifyValue(k, k.Type())
		if err != nil {
			return nil, err
		}
		vv, err := s.classifyValue(rv.MapIndex(k), desc.ElemType)
		if err != nil {
			return nil, err
		}
		entries = append(entries, classref.DictEntry{Key: kv, Value: vv})
	}
	return s.driver.FormatDictionary(entries), nil
}

func (s *serializer) classifyObject(rv reflect.Value, desc *typeinfo.Descriptor) (classref.Element, error) {
	fields, err := s.classifyMembers(rv, desc.Members)
	if err != nil {
		return nil, err
	}
	return s.driver.FormatObject(fields), nil
}

func (s *serializer) classifyMembers(rv reflect.Value, members []typeinfo.Member) ([]classref.Field, error) {
	fields := make([]classref.Field, 0, len(members))
	for _, m := range members {
		if m.Ignore {
			continue
		}
		fv := rv.FieldByIndex(m.Index)

		if m.Parent {
			sub, err := s.classifyParentMembers(fv)
			if err != nil {
				return nil, wrapPath(m.Name, err)
			}
			fields = append(fields, sub...)
			continue
		}

		if shouldOmit(fv, m) {
			continue
		}

		if m.FollowID {
			if dany, ok := asDeferredAny(fv); ok {
				e, err := s.classifyDeferred(dany)
				if err != nil {
					return nil, wrapPath(m.Name, err)
				}
				fields = append(fields, classref.Field{Name: m.Name, DeclaringType: m.DeclaringType.Name(), Value: e})
				continue
			}
		}

		e, err := s.classifyValue(fv, m.Type)
		if err != nil {
			return nil, wrapPath(m.Name, err)
		}
		fields = append(fields, classref.Field{Name: m.Name, DeclaringType: m.DeclaringType.Name(), Value: e})
	}
	return fields, nil
}

// classifyParentMembers expands a "parent"-tagged field's own members
// directly into the containing element, rather than nesting a child
// Object element, by reclassifying through that field's Descriptor.
func (s *serializer) classifyParentMembers(fv reflect.Value) ([]classref.Field, error) {
	rv, isNil := unwrapPointer(fv)
	if isNil {
		return nil, nil
	}
	desc, err := typeinfo.Of(rv.Type())
	if err != nil {
		return nil, err
	}
	if desc.Shape != classref.ShapeObject {
		return nil, &UnsupportedValueTypeError{Type: rv.Type()}
	}
	return s.classifyMembers(rv, desc.Members)
}

func shouldOmit(fv reflect.Value, m typeinfo.Member) bool {
	if m.Mandatory {
		return false
	}
	if m.IgnoreIfDefault && fv.IsZero() {
		return true
	}
	if m.IgnoreIfEmpty {
		switch fv.Kind() {
		case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
			if fv.Len() == 0 {
				return true
			}
		}
	}
	if m.HasIgnoreIf && fv.CanInterface() {
		if sv, err := simpleValueOf(fv, 0); err == nil {
			if sv.Interface() == m.IgnoreIfText {
				return true
			}
		}
	}
	return false
}

func indexPath(i int) string {
	return "[" + itoa(i) + "]"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// tagFor decides the type tag written for a value whose runtime type
// differs from its declared field type. A tag from the same package as
// the declared type is written short (bare name); a tag crossing a
// package boundary is written fully-qualified, since a short name alone
// would be ambiguous to a reader resolving it against an arbitrary
// registry of known types.
func (s *serializer) tagFor(runtime, declared reflect.Type) (name string, full bool) {
	if declared != nil && runtime.PkgPath() == declared.PkgPath() {
		return runtime.Name(), false
	}
	if runtime.PkgPath() == "" {
		return runtime.String(), false
	}
	return runtime.PkgPath() + "." + runtime.Name(), true
}

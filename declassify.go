// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"fmt"
	"io"
	"reflect"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/typeinfo"
)

// Deserialize reconstructs a T from e using driver.
func Deserialize[T any](driver classref.FormatDriver, e classref.Element, opts *Options) (T, error) {
	var zero T
	d := &deserializer{driver: driver, opts: opts, refs: make(map[uint64]reflect.Value)}
	ptr := reflect.New(reflect.TypeOf(&zero).Elem())
	if err := d.declassifyInto(e, ptr.Elem(), ptr.Elem().Type(), nil); err != nil {
		return zero, err
	}
	return ptr.Elem().Interface().(T), nil
}

// DeserializeFrom reads one IR tree from r via driver, then deserializes it.
func DeserializeFrom[T any](driver classref.FormatDriver, r io.Reader, opts *Options) (T, error) {
	var zero T
	e, err := driver.ReadFromStream(r)
	if err != nil {
		return zero, &FormatError{Cause: err}
	}
	return Deserialize[T](driver, e, opts)
}

// DeserializeInto populates the value target points to from e, for callers
// that already hold an allocated instance (and want its identity, not a
// fresh one, preserved).
func DeserializeInto(driver classref.FormatDriver, e classref.Element, target interface{}, opts *Options) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("classify: DeserializeInto requires a non-nil pointer, got %T", target)
	}
	d := &deserializer{driver: driver, opts: opts, refs: make(map[uint64]reflect.Value)}
	return d.declassifyInto(e, rv.Elem(), rv.Elem().Type(), nil)
}

type deserializer struct {
	driver classref.FormatDriver
	opts   *Options
	refs   map[uint64]reflect.Value
}

// declassifyInto fills target (addressable, of static type declared) from
// e. parent is the enclosing object under construction, threaded through
// for FollowIDReader callbacks.
func (d *deserializer) declassifyInto(e classref.Element, target reflect.Value, declared reflect.Type, parent interface{}) error {
	if e == nil || e.IsNull() {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	if e.IsReference() {
		id, _ := e.ReferenceID()
		rv, ok := d.refs[id]
		if !ok {
			return &DanglingReferenceError{ID: id}
		}
		return assignResolved(target, rv)
	}

	if e.IsFollowID() {
		id, _ := e.FollowID()
		return d.setFollowID(target, id, parent)
	}

	if selfType(target.Type()) {
		inner, _ := e.Self()
		target.Set(reflect.ValueOf(inner))
		return nil
	}

	if isDeferredType(derefType(declared)) {
		return d.declassifyDeferred(e, target, parent)
	}

	// A registered substitution is reversed here: the element is read as
	// the substitute type, then From converts it back to the declared type.
	if to := d.opts.get(derefType(declared)); to != nil && to.Substitution != nil {
		sub := to.Substitution
		work := reflect.New(sub.SubstituteType).Elem()
		if err := d.declassifyInto(e, work, sub.SubstituteType, parent); err != nil {
			return err
		}
		out, err := sub.From(work.Interface())
		if err != nil {
			return &ConversionError{Cause: err}
		}
		return assignResolved(target, reflect.ValueOf(out))
	}

	resolved, err := resolveConcreteType(declared, e)
	if err != nil {
		return err
	}

	// A bare interface target (interface{}, or a named interface used for
	// polymorphic fields) has no concrete type of its own to fill in
	// place: allocate one of the resolved type, run the ordinary
	// shape-directed dispatch against that, then box the result into the
	// interface.
	if target.Kind() == reflect.Interface {
		work := reflect.New(resolved).Elem()
		if err := d.declassifyResolved(e, work, declared, resolved); err != nil {
			return err
		}
		target.Set(work)
		return nil
	}

	return d.declassifyResolved(e, target, declared, resolved)
}

// declassifyResolved dispatches on resolved's Shape once target's concrete
// type is known to match resolved (target is never a bare interface here).
func (d *deserializer) declassifyResolved(e classref.Element, target reflect.Value, declared, resolved reflect.Type) error {
	e, err := d.runPreDeserialize(resolved, e)
	if err != nil {
		return err
	}

	desc, err := typeinfo.Of(resolved)
	if err != nil {
		return err
	}

	switch desc.Shape {
	case classref.ShapeSimple:
		return d.declassifySimple(e, target, resolved)
	case classref.ShapeList:
		return d.declassifyList(e, target, desc)
	case classref.ShapeTuple:
		return d.declassifyTuple(e, target, desc)
	case classref.ShapeKeyValuePair:
		return d.declassifyKeyValuePair(e, target)
	case classref.ShapeDictionary:
		return d.declassifyDictionary(e, target, desc)
	case classref.ShapeObject:
		return d.declassifyObject(e, target, declared, resolved, desc)
	default:
		return &UnsupportedValueTypeError{Type: resolved}
	}
}

func selfType(t reflect.Type) bool { return t == elementInterfaceType }

// resolveConcreteType applies polymorphic type-tag resolution: if e
// carries a type tag, the registry supplies the concrete type; otherwise
// the statically declared type governs, dereferenced to its struct/value
// form for types classification cares about.
func resolveConcreteType(declared reflect.Type, e classref.Element) (reflect.Type, error) {
	base := derefType(declared)
	if base == nil {
		return nil, fmt.Errorf("classify: cannot resolve a type with no declared type and no type tag")
	}
	if name, full, ok := e.TypeTag(); ok {
		t, err := lookupTypeTag(name, full)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return base, nil
}

func (d *deserializer) declassifySimple(e classref.Element, target reflect.Value, resolved reflect.Type) error {
	sv, ok := e.Simple()
	if !ok {
		return &FormatError{Cause: fmt.Errorf("classify: expected a Simple-shape element for %s", resolved)}
	}
	out, err := convertInto(resolved, sv)
	if err != nil {
		return &ConversionError{Cause: err}
	}
	if target.Kind() == reflect.Ptr {
		p := reflect.New(out.Type())
		p.Elem().Set(out)
		target.Set(p)
		return nil
	}
	target.Set(out)
	return nil
}

func (d *deserializer) declassifyList(e classref.Element, target reflect.Value, desc *typeinfo.Descriptor) error {
	elems, ok := e.List(0)
	if !ok {
		return &FormatError{Cause: fmt.Errorf("classify: expected a List-shape element")}
	}
	sliceType := target.Type()
	out := reflect.MakeSlice(sliceType, len(elems), len(elems))
	d.registerReferable(e, out)
	for i, ce := range elems {
		if err := d.declassifyInto(ce, out.Index(i), desc.ElemType, target.Addr().Interface()); err != nil {
			return wrapPath(indexPath(i), err)
		}
	}
	target.Set(out)
	return nil
}

func (d *deserializer) declassifyTuple(e classref.Element, target reflect.Value, desc *typeinfo.Descriptor) error {
	elems, ok := e.List(desc.Arity)
	if !ok || len(elems) != desc.Arity {
		return &FormatError{Cause: fmt.Errorf("classify: expected a %d-element tuple", desc.Arity)}
	}
	for i := 0; i < desc.Arity; i++ {
		fv := target.Field(i)
		if err := d.declassifyInto(elems[i], fv, fv.Type(), nil); err != nil {
			return wrapPath(indexPath(i), err)
		}
	}
	return nil
}

func (d *deserializer) declassifyKeyValuePair(e classref.Element, target reflect.Value) error {
	k, v, ok := e.KeyValuePair()
	if !ok {
		return &FormatError{Cause: fmt.Errorf("classify: expected a KeyValuePair-shape element")}
	}
	if err := d.declassifyInto(k, target.Field(0), target.Field(0).Type(), nil); err != nil {
		return wrapPath("Key", err)
	}
	if err := d.declassifyInto(v, target.Field(1), target.Field(1).Type(), nil); err != nil {
		return wrapPath("Value", err)
	}
	return nil
}

func (d *deserializer) declassifyDictionary(e classref.Element, target reflect.Value, desc *typeinfo.Descriptor) error {
	entries, ok := e.Dictionary()
	if !ok {
		return &FormatError{Cause: fmt.Errorf("classify: expected a Dictionary-shape element")}
	}
	mapType := target.Type()
	out := reflect.MakeMapWithSize(mapType, len(entries))
	d.registerReferable(e, out)
	for _, entry := range entries {
		kv := reflect.New(mapType.Key()).Elem()
		if err := d.declassifyInto(entry.Key, kv, mapType.Key(), nil); err != nil {
			return err
		}
		vv := reflect.New(mapType.Elem()).Elem()
		if err := d.declassifyInto(entry.Value, vv, mapType.Elem(), nil); err != nil {
			return err
		}
		out.SetMapIndex(kv, vv)
	}
	target.Set(out)
	return nil
}

func (d *deserializer) declassifyObject(e classref.Element, target reflect.Value, declared, resolved reflect.Type, desc *typeinfo.Descriptor) error {
	if resolved.Kind() != reflect.Struct {
		return &ConstructorMissingError{Type: resolved}
	}
	ptr := reflect.New(resolved)
	d.registerReferable(e, ptr)

	if err := d.declassifyMembers(e, ptr.Elem(), desc.Members); err != nil {
		return err
	}

	if err := d.runPostDeserialize(ptr); err != nil {
		return err
	}

	return assignResolved(target, ptr)
}

func (d *deserializer) declassifyMembers(e classref.Element, target reflect.Value, members []typeinfo.Member) error {
	for _, m := range members {
		if m.Ignore {
			continue
		}
		fv := target.FieldByIndex(m.Index)

		if m.Parent {
			sub, err := allocParentTarget(fv)
			if err != nil {
				return wrapPath(m.Name, err)
			}
			desc, err := typeinfo.Of(sub.Type())
			if err != nil {
				return wrapPath(m.Name, err)
			}
			if err := d.declassifyMembers(e, sub, desc.Members); err != nil {
				return wrapPath(m.Name, err)
			}
			if fv.Kind() == reflect.Ptr {
				fv.Set(sub.Addr())
			}
			continue
		}

		if m.FollowID {
			if _, ok := asDeferredAny(fv); ok {
				fe, ok := e.Field(m.Name, m.DeclaringType.Name())
				if !ok {
					if m.Mandatory {
						return &FormatError{Cause: fmt.Errorf("classify: mandatory follow-id field %q missing", m.Name)}
					}
					continue
				}
				if err := d.declassifyDeferred(fe, fv, target.Addr().Interface()); err != nil {
					return wrapPath(m.Name, err)
				}
				continue
			}
		}

		fe, ok := e.Field(m.Name, m.DeclaringType.Name())
		if !ok {
			if m.Mandatory {
				return &FormatError{Cause: fmt.Errorf("classify: mandatory field %q missing", m.Name)}
			}
			continue
		}
		if err := d.declassifyInto(fe, fv, m.Type, target.Addr().Interface()); err != nil {
			return wrapPath(m.Name, err)
		}
	}
	return nil
}

// allocParentTarget returns an addressable struct value to fill for a
// "parent"-tagged field, allocating through the field's pointer if needed.
func allocParentTarget(fv reflect.Value) (reflect.Value, error) {
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		return fv.Elem(), nil
	}
	if !fv.CanAddr() {
		return reflect.Value{}, fmt.Errorf("classify: parent-tagged field is not addressable")
	}
	return fv, nil
}

func (d *deserializer) declassifyDeferred(e classref.Element, target reflect.Value, parent interface{}) error {
	id, ok := e.FollowID()
	if !ok {
		return &FormatError{Cause: fmt.Errorf("classify: expected a follow-id element")}
	}
	return d.setFollowID(target, id, parent)
}

func (d *deserializer) setFollowID(target reflect.Value, id string, parent interface{}) error {
	if !target.CanAddr() {
		return fmt.Errorf("classify: follow-id target is not addressable")
	}
	s, ok := target.Addr().Interface().(deferredSetter)
	if !ok {
		return fmt.Errorf("classify: follow-id field %s is not a DeferredObject", target.Type())
	}
	reader := d.opts.followIDReader()
	s.setReaderAny(id, parent, reader)
	return nil
}

func (o *Options) followIDReader() FollowIDReader {
	if o == nil || o.FollowIDReader == nil {
		return func(id string, innerType reflect.Type, parent interface{}) (interface{}, error) {
			return nil, &FollowIDUnresolvableError{ID: id}
		}
	}
	return o.FollowIDReader
}

func (d *deserializer) registerReferable(e classref.Element, rv reflect.Value) {
	if id, ok := e.ReferableID(); ok {
		d.refs[id] = rv
	}
}

func (d *deserializer) runPreDeserialize(resolved reflect.Type, e classref.Element) (classref.Element, error) {
	if to := d.opts.get(resolved); to != nil && to.PreDeserialize != nil {
		return to.PreDeserialize(e)
	}
	if reflect.PtrTo(resolved).Implements(preDeserializerType) {
		zero := reflect.New(resolved)
		return zero.Interface().(PreDeserializer).ClassifyPreDeserialize(e)
	}
	return e, nil
}

func (d *deserializer) runPostDeserialize(ptr reflect.Value) error {
	if to := d.opts.get(ptr.Elem().Type()); to != nil && to.PostDeserialize != nil {
		if err := to.PostDeserialize(ptr.Interface()); err != nil {
			return err
		}
	}
	if pd, ok := ptr.Interface().(PostDeserializer); ok {
		return pd.ClassifyPostDeserialize()
	}
	return nil
}

var preDeserializerType = reflect.TypeOf((*PreDeserializer)(nil)).Elem()

// assignResolved copies rv (a pointer-to-struct, slice, or map value
// carrying reference identity) into target, adapting pointer-vs-value and
// interface-vs-concrete shape as needed.
func assignResolved(target, rv reflect.Value) error {
	if rv.Type().AssignableTo(target.Type()) {
		target.Set(rv)
		return nil
	}
	if rv.Kind() == reflect.Ptr && rv.Elem().Type().AssignableTo(target.Type()) {
		target.Set(rv.Elem())
		return nil
	}
	if target.Kind() == reflect.Ptr && rv.Type().AssignableTo(target.Type().Elem()) {
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(rv)
		target.Set(p)
		return nil
	}
	return fmt.Errorf("classify: cannot assign resolved reference of type %s to %s", rv.Type(), target.Type())
}

func convertInto(dst reflect.Type, sv classref.SimpleValue) (reflect.Value, error) {
	return xconvertFromWire(dst, sv)
}

// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"reflect"
	"sync"
)

// DeferredObject holds an externally stored object reference: either an
// eager value already in hand, or a lazy factory that produces one. On
// serialize, a field of this type is written as a follow-id marker
// carrying ID(); on deserialize, it is populated with a thunk that
// resolves the value on first access via Value().
type DeferredObject[T any] struct {
	id       string
	hasValue bool
	value    T

	once    sync.Once
	factory func() (T, error)
	err     error
}

// NewDeferred wraps an already-available value under id.
func NewDeferred[T any](id string, value T) DeferredObject[T] {
	return DeferredObject[T]{id: id, hasValue: true, value: value}
}

// NewDeferredFactory wraps a lazily-produced value under id. factory runs
// at most once, on first call to Value.
func NewDeferredFactory[T any](id string, factory func() (T, error)) DeferredObject[T] {
	return DeferredObject[T]{id: id, factory: factory}
}

// ID returns the external reference id.
func (d *DeferredObject[T]) ID() string { return d.id }

// Value resolves and returns the wrapped value. If the DeferredObject was
// populated during Declassify without an external reader configured (see
// Options.FollowIDReader), Value returns FollowIDUnresolvableError.
func (d *DeferredObject[T]) Value() (T, error) {
	if d.hasValue {
		return d.value, nil
	}
	if d.factory != nil {
		d.once.Do(func() {
			d.value, d.err = d.factory()
			d.hasValue = d.err == nil
		})
		return d.value, d.err
	}
	var zero T
	return zero, &FollowIDUnresolvableError{ID: d.id}
}

// hasEagerValue reports whether Value would return without invoking a
// reader/factory, which the engine uses to decide whether a follow-id
// writer callback fires on serialize.
func (d *DeferredObject[T]) hasEagerValue() bool { return d.hasValue }

func (d *DeferredObject[T]) eagerValue() interface{} { return d.value }

func (d *DeferredObject[T]) innerType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// setFactoryFromReader installs reader as this DeferredObject's resolution
// strategy, invoked at most once on first Value() call. Used by the
// deserializer to wire Options.FollowIDReader into the reconstructed
// object.
func (d *DeferredObject[T]) setFactoryFromReader(id string, parent interface{}, reader FollowIDReader) {
	d.id = id
	d.factory = func() (T, error) {
		v, err := reader(id, reflect.TypeOf((*T)(nil)).Elem(), parent)
		if err != nil {
			var zero T
			return zero, err
		}
		tv, ok := v.(T)
		if !ok {
			var zero T
			return zero, &FollowIDUnresolvableError{ID: id}
		}
		return tv, nil
	}
}

// deferredAny is the type-erased surface the engine uses to drive an
// arbitrary DeferredObject[T] field through reflection, since T is only
// known at the call site that declared the field.
type deferredAny interface {
	ID() string
	hasEagerValue() bool
	eagerValue() interface{}
	innerType() reflect.Type
}

func asDeferredAny(rv reflect.Value) (deferredAny, bool) {
	if !rv.CanAddr() {
		vv := reflect.New(rv.Type()).Elem()
		vv.Set(rv)
		rv = vv
	}
	d, ok := rv.Addr().Interface().(deferredAny)
	return d, ok
}

func isDeferredType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && len(t.Name()) >= len("DeferredObject") && t.Name()[:len("DeferredObject")] == "DeferredObject"
}

// deferredSetter lets the engine install a reader callback without knowing
// T, by forwarding to the generic setFactoryFromReader method.
type deferredSetter interface {
	setReaderAny(id string, parent interface{}, reader FollowIDReader)
}

func (d *DeferredObject[T]) setReaderAny(id string, parent interface{}, reader FollowIDReader) {
	d.setFactoryFromReader(id, parent, reader)
}

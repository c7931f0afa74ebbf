// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"reflect"
	"sync"

	"github.com/classify-go/classify/classref"
)

// FollowIDWriter is invoked once per evaluated DeferredObject field during
// serialize, carrying the external id, the inner value's type, and the
// evaluated value itself.
type FollowIDWriter func(id string, innerType reflect.Type, value interface{}) error

// FollowIDReader is invoked at most once per DeferredObject field, on its
// first Value() access after deserialize, carrying the external id, the
// inner value's type, and the enclosing parent object.
type FollowIDReader func(id string, innerType reflect.Type, parent interface{}) (interface{}, error)

// Substitution is a user-defined (to, from, substituteType) triple that
// routes a value through a surrogate type during (de)serialization.
// Substitute must not equal the original type.
type Substitution struct {
	SubstituteType reflect.Type
	To             func(original interface{}) (substitute interface{}, err error)
	From           func(substitute interface{}) (original interface{}, err error)
}

// TypeOptions are the per-type overrides and hooks: an optional
// substitution plus optional type-level pre/post processors, invoked for
// every instance of the registered type in addition to any object-level
// processors that instance itself implements
// (see PreSerializer/PostSerializer/PreDeserializer/PostDeserializer).
type TypeOptions struct {
	Substitution    *Substitution
	PreSerialize    func(v interface{}) error
	PostSerialize   func(v interface{}, e classref.Element) (classref.Element, error)
	PreDeserialize  func(e classref.Element) (classref.Element, error)
	PostDeserialize func(v interface{}) error
}

// PreSerializer is the object-level hook interface: a value implementing
// it has ClassifyPreSerialize called before it is classified.
type PreSerializer interface{ ClassifyPreSerialize() error }

// PostSerializer is the object-level hook interface invoked after an
// Element has been produced for the value; it may mutate and return a
// different Element.
type PostSerializer interface {
	ClassifyPostSerialize(e classref.Element) (classref.Element, error)
}

// PreDeserializer is the object-level hook interface invoked on the raw
// Element before it is interpreted; it may mutate and return a different
// Element. It is called via a pointer to the zero value of the target
// type, since no instance exists yet.
type PreDeserializer interface {
	ClassifyPreDeserialize(e classref.Element) (classref.Element, error)
}

// PostDeserializer is the object-level hook interface invoked after the
// target has been fully populated.
type PostDeserializer interface{ ClassifyPostDeserialize() error }

// Options is the configuration bundle threaded through a
// Serialize/Deserialize call. Mutating an Options value concurrently with
// an in-flight operation that uses it is undefined; build it up front.
type Options struct {
	mu             sync.RWMutex
	typeOpts       map[reflect.Type]*TypeOptions
	FollowIDWriter FollowIDWriter
	FollowIDReader FollowIDReader
}

// NewOptions returns an empty Options bundle.
func NewOptions() *Options {
	return &Options{typeOpts: make(map[reflect.Type]*TypeOptions)}
}

// AddTypeOptions registers opts for t. Registering twice for the same type,
// or supplying a substitution whose SubstituteType equals t, is an
// OptionsConflictError.
func (o *Options) AddTypeOptions(t reflect.Type, opts TypeOptions) error {
	if opts.Substitution != nil && opts.Substitution.SubstituteType == t {
		return &OptionsConflictError{Type: t, Reason: "substitute type must not equal the original type"}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.typeOpts[t]; ok {
		return &OptionsConflictError{Type: t, Reason: "type options already registered"}
	}
	cp := opts
	o.typeOpts[t] = &cp
	return nil
}

func (o *Options) get(t reflect.Type) *TypeOptions {
	if o == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.typeOpts[t]
}

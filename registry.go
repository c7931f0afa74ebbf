// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/classify-go/classify/classref"
)

// typeRegistry maps a polymorphic type tag name back to a reflect.Type.
// Unlike serialization (which always has a live reflect.Value to read a
// tag from), deserialization starts from a bare string and has no other
// way to recover the concrete type it names, so every type that may be
// read back polymorphically must be registered once at init time.
type typeRegistry struct {
	mu        sync.RWMutex
	byFull    map[string]reflect.Type
	byShort   map[string]reflect.Type
	ambiguous map[string]bool
}

var globalRegistry = &typeRegistry{
	byFull:    make(map[string]reflect.Type),
	byShort:   make(map[string]reflect.Type),
	ambiguous: make(map[string]bool),
}

// RegisterType makes t resolvable by both its short name and its
// fully-qualified (import path + name) name during polymorphic
// deserialization. Calling it for two distinct types sharing a short name
// marks that short name ambiguous: a later tag lookup by short name alone
// fails, and only the fully-qualified tag resolves either type.
func RegisterType(t reflect.Type) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	full := t.PkgPath() + "." + t.Name()

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byFull[full] = t
	if existing, ok := globalRegistry.byShort[t.Name()]; ok && existing != t {
		globalRegistry.ambiguous[t.Name()] = true
	} else {
		globalRegistry.byShort[t.Name()] = t
	}
}

// RegisterTypeOf is a convenience wrapper: RegisterTypeOf(MyStruct{}).
func RegisterTypeOf(v interface{}) { RegisterType(reflect.TypeOf(v)) }

// init pre-registers the built-in scalar types the ExactConvert contract
// recognizes (internal/xconvert.KindForType), so a bare interface{} (or
// interface-typed) field holding one of these round-trips through a
// polymorphic type tag without the caller having to register anything:
// only user-defined aggregate types need an explicit RegisterType call.
func init() {
	for _, t := range []reflect.Type{
		reflect.TypeOf(false),
		reflect.TypeOf(int8(0)), reflect.TypeOf(int16(0)), reflect.TypeOf(int32(0)), reflect.TypeOf(int64(0)), reflect.TypeOf(int(0)),
		reflect.TypeOf(uint8(0)), reflect.TypeOf(uint16(0)), reflect.TypeOf(uint32(0)), reflect.TypeOf(uint64(0)), reflect.TypeOf(uint(0)),
		reflect.TypeOf(float32(0)), reflect.TypeOf(float64(0)),
		reflect.TypeOf(""),
		reflect.TypeOf(classref.Char(0)),
		reflect.TypeOf(classref.Decimal{}),
		reflect.TypeOf(time.Time{}),
	} {
		RegisterType(t)
	}
}

func lookupTypeTag(name string, full bool) (reflect.Type, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	if full {
		if t, ok := globalRegistry.byFull[name]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("classify: no type registered for fully-qualified tag %q", name)
	}
	if globalRegistry.ambiguous[name] {
		return nil, fmt.Errorf("classify: type tag %q is ambiguous between multiple registered types; a fully-qualified tag is required", name)
	}
	if t, ok := globalRegistry.byShort[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("classify: no type registered for tag %q", name)
}

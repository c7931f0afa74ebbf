// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"fmt"
	"reflect"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/xconvert"
)

// simpleValueOf extracts the SimpleValue carried by rv. When kind is
// classref.KindInvalid it is inferred from rv.Type() instead of being
// supplied by the caller's already-known Descriptor.
func simpleValueOf(rv reflect.Value, kind classref.SimpleKind) (classref.SimpleValue, error) {
	if kind == classref.KindInvalid {
		k, ok := xconvert.KindForType(rv.Type())
		if !ok {
			return classref.SimpleValue{}, fmt.Errorf("classify: %s is not a Simple type", rv.Type())
		}
		kind = k
	}
	return xconvert.ToWire(rv, kind), nil
}

// xconvertFromWire bridges the internal xconvert package's FromWire into
// the root package without every caller needing the internal import path.
func xconvertFromWire(dst reflect.Type, sv classref.SimpleValue) (reflect.Value, error) {
	return xconvert.FromWire(dst, sv)
}

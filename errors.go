// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/classify-go/classify/internal/typeinfo"
)

// UnsupportedKeyTypeError reports a Dictionary-shape type whose key is not
// string, an integer width, or an enum.
type UnsupportedKeyTypeError = typeinfo.UnsupportedKeyTypeError

// UnsupportedValueTypeError reports that an Object-shape type could not be
// given a recognized member layout.
type UnsupportedValueTypeError = typeinfo.UnsupportedValueTypeError

// ConstructorMissingError reports that an Object type's resolved runtime
// type has no usable zero-value allocation path: in Go terms, the
// resolved type of an Object-shape element is not a struct. Only struct
// types classify as Object and resolved types are always dereferenced,
// so no type this package resolves currently triggers it.
type ConstructorMissingError struct {
	Type reflect.Type
}

func (e *ConstructorMissingError) Error() string {
	return fmt.Sprintf("classify: type %s has no usable parameterless constructor", e.Type)
}

// ConversionError reports that ExactConvert could not produce a
// round-trippable result for a Simple-shape value.
type ConversionError struct {
	Cause error
}

func (e *ConversionError) Error() string { return fmt.Sprintf("classify: conversion failed: %v", e.Cause) }
func (e *ConversionError) Unwrap() error { return e.Cause }

// DanglingReferenceError reports that a ref element was observed with no
// matching referable after all elements were processed.
type DanglingReferenceError struct {
	ID uint64
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("classify: dangling reference to id %d: no referable was emitted for it", e.ID)
}

// FormatError reports that a format driver produced an ill-formed element:
// an invalid flag combination, a truncated stream, or similar.
type FormatError struct {
	Cause error
}

func (e *FormatError) Error() string { return fmt.Sprintf("classify: format error: %v", e.Cause) }
func (e *FormatError) Unwrap() error { return e.Cause }

// FollowIDUnresolvableError reports that a follow-id was read or written
// with no resolver callback configured in Options.
type FollowIDUnresolvableError struct {
	ID string
}

func (e *FollowIDUnresolvableError) Error() string {
	return fmt.Sprintf("classify: follow-id %q has no resolver configured", e.ID)
}

// OptionsConflictError reports that a substitution's to/from pair equals
// the original type, or that type options were registered twice for one
// type.
type OptionsConflictError struct {
	Type   reflect.Type
	Reason string
}

func (e *OptionsConflictError) Error() string {
	return fmt.Sprintf("classify: options conflict for type %s: %s", e.Type, e.Reason)
}

// WirePathError wraps an underlying error with the path (by refid or by
// member name from root) at which it occurred, so exactly one error
// object reaches the caller, carrying this context when constructible.
// Per-member and per-element errors are wrapped with WirePathError as the
// recursion unwinds; outer frames prepend their own path segment rather
// than replacing the inner one.
type WirePathError struct {
	Path  []string
	Cause error
}

func (e *WirePathError) Error() string {
	if len(e.Path) == 0 {
		return e.Cause.Error()
	}
	return fmt.Sprintf("classify: at %s: %v", strings.Join(e.Path, "."), e.Cause)
}

func (e *WirePathError) Unwrap() error { return e.Cause }

// wrapPath prepends segment to err's wire path, wrapping err in a
// WirePathError if it is not already one.
func wrapPath(segment string, err error) error {
	if err == nil {
		return nil
	}
	if wp, ok := err.(*WirePathError); ok {
		return &WirePathError{Path: append([]string{segment}, wp.Path...), Cause: wp.Cause}
	}
	return &WirePathError{Path: []string{segment}, Cause: err}
}

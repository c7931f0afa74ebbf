// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classref defines the format-neutral intermediate representation
// (IR) that the Classify serializer and deserializer exchange with a
// pluggable format driver. Everything in this package is capability-only:
// it says nothing about JSON, XML, or any wire layout, so the same engine
// runs unchanged over any concrete driver that implements FormatDriver.
package classref

// Shape is the closed catalogue of semantic categories a Go type can fall
// into during classification. A type's Shape is fixed for the lifetime of
// its Type Descriptor.
type Shape int8

const (
	// ShapeInvalid is the zero value and never produced by classification.
	ShapeInvalid Shape = iota
	// ShapeNull marks an absent value.
	ShapeNull
	// ShapeSimple marks a primitive scalar losslessly representable via
	// the ExactConvert contract.
	ShapeSimple
	// ShapeSelf marks a member whose declared type is the IR element type
	// itself; its payload is passed through raw.
	ShapeSelf
	// ShapeList marks an ordered sequence of a single element type.
	ShapeList
	// ShapeKeyValuePair marks a fixed 2-element record with named slots.
	ShapeKeyValuePair
	// ShapeTuple marks a fixed-arity 2..8 element record.
	ShapeTuple
	// ShapeDictionary marks a map from a string/integer/enum key to V.
	ShapeDictionary
	// ShapeObject marks a reference-type aggregate with named members.
	ShapeObject
	// ShapeReference marks an opaque back-reference to a previously
	// emitted referable.
	ShapeReference
	// ShapeFollowID marks an externally stored object reference.
	ShapeFollowID
)

func (s Shape) String() string {
	switch s {
	case ShapeNull:
		return "Null"
	case ShapeSimple:
		return "Simple"
	case ShapeSelf:
		return "SelfTyped"
	case ShapeList:
		return "List"
	case ShapeKeyValuePair:
		return "KeyValuePair"
	case ShapeTuple:
		return "Tuple"
	case ShapeDictionary:
		return "Dictionary"
	case ShapeObject:
		return "Object"
	case ShapeReference:
		return "Reference"
	case ShapeFollowID:
		return "FollowId"
	default:
		return "Invalid"
	}
}

// SimpleKind distinguishes the scalar kinds the ExactConvert contract
// knows how to convert between. It is the tag half of the Shape-tagged
// union that carries dictionary keys and Simple-shape payloads across the
// core.
type SimpleKind int8

const (
	KindInvalid SimpleKind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindDecimal
	KindString
	KindChar
	KindDateTime
)

func (k SimpleKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindChar:
		return "char"
	case KindDateTime:
		return "datetime"
	default:
		return "invalid"
	}
}

// IsInteger reports whether k is one of the signed/unsigned integer kinds.
func (k SimpleKind) IsInteger() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	default:
		return false
	}
}

// IsFractional reports whether k is one of the fractional-width kinds.
func (k SimpleKind) IsFractional() bool {
	switch k {
	case KindFloat32, KindFloat64, KindDecimal:
		return true
	default:
		return false
	}
}

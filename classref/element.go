// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classref

import "io"

// Field is one named slot of an Object-shape element, produced on write and
// consumed on read via Element.Field/HasField.
type Field struct {
	Name          string
	DeclaringType string
	Value         Element
}

// DictEntry is one key/value pair of a Dictionary-shape element.
type DictEntry struct {
	Key   Element
	Value Element
}

// Element is the format-neutral IR node exchanged between the Classify
// engine and a FormatDriver. An Element optionally carries a reference
// identity (refid), a reference pointer (ref), a type tag, and a primary
// payload whose accessor matches its Shape. Formats may attach the refid/
// type tag onto an existing element (as the JSON, binary and XML drivers
// do, the XML driver as attributes of the same node) or wrap it in an
// outer node; the engine never assumes which, and only calls the
// accessors below.
type Element interface {
	// IsNull reports whether this element is the null marker.
	IsNull() bool

	// IsReference reports whether this element stands for another,
	// already- or later-constructed object by id.
	IsReference() bool
	// ReferenceID returns the id an IsReference element points to.
	ReferenceID() (id uint64, ok bool)

	// IsReferable reports whether this element carries an id that a later
	// Reference element in the same document may point to.
	IsReferable() bool
	// ReferableID returns the id of an IsReferable element.
	ReferableID() (id uint64, ok bool)

	// IsFollowID reports whether this element is a follow-id marker
	// (an externally stored object reference, see DeferredObject).
	IsFollowID() bool
	// FollowID returns the external id string of an IsFollowID element.
	FollowID() (id string, ok bool)

	// TypeTag returns the type name attached to this element, if any, and
	// whether it is fully-qualified.
	TypeTag() (name string, full bool, ok bool)

	// Simple returns the scalar payload of a Simple-shape element.
	Simple() (SimpleValue, bool)

	// Self returns the raw IR payload of a SelfTyped-shape element.
	Self() (Element, bool)

	// List returns the ordered children of a List- or Tuple-shape
	// element. tupleArity is the expected arity for a Tuple/KeyValuePair
	// read (0 means "plain list, no arity check").
	List(tupleArity int) ([]Element, bool)

	// KeyValuePair returns the two named slots of a KeyValuePair-shape
	// element.
	KeyValuePair() (key, value Element, ok bool)

	// Dictionary returns the key/value pairs of a Dictionary-shape
	// element.
	Dictionary() ([]DictEntry, bool)

	// HasField reports whether an Object-shape element carries a field
	// with the given wire name, disambiguated by declaring type when the
	// driver supports it (the JSON driver ignores declaringType).
	HasField(name, declaringType string) bool
	// Field returns the value of the named field.
	Field(name, declaringType string) (Element, bool)
}

// FormatDriver is the capability surface a pluggable wire format must
// implement. The Classify engine depends on exactly this set: it never
// inspects bytes directly, and a FormatDriver never needs to know the
// shape of the Go type currently being walked.
type FormatDriver interface {
	// ReadFromStream parses one IR tree from r.
	ReadFromStream(r io.Reader) (Element, error)
	// WriteToStream serializes one IR tree to w.
	WriteToStream(e Element, w io.Writer) error

	FormatNull() Element
	FormatSimple(v SimpleValue) Element
	FormatSelf(e Element) Element
	// FormatList builds a List- or Tuple-shape element. isTuple selects
	// fixed-arity Tuple/KeyValuePair wire representation where the driver
	// distinguishes it from an ordinary List.
	FormatList(isTuple bool, elems []Element) Element
	FormatKeyValuePair(key, value Element) Element
	FormatDictionary(entries []DictEntry) Element
	FormatObject(fields []Field) Element

	FormatReference(id uint64) Element
	// FormatReferable promotes e to a referable element carrying id.
	// Promoting an already-referable element with the same id is a no-op.
	FormatReferable(e Element, id uint64) Element
	// FormatWithType attaches a type tag to e.
	FormatWithType(e Element, name string, full bool) Element
	// FormatFollowID builds a follow-id marker carrying id.
	FormatFollowID(id string) Element

	// ThrowMissingReferable reports that no referable with id was found
	// for a reference observed during a read; the drivers in format/
	// return a plain error naming id. The engine itself reports a missing
	// referable as classify.DanglingReferenceError without calling it.
	ThrowMissingReferable(id uint64) error
}

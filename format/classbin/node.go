// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classbin

import "github.com/classify-go/classify/classref"

// Tag is the low 5 bits of every on-wire control byte; the top 3 bits
// carry the HasRefId/HasTypeSpec/HasFullTypeSpec flags.
type tag byte

const (
	tagEnd    tag = 0x00
	tagByte   tag = 0x01 // uint8
	tagSByte  tag = 0x02 // int8
	tagShort  tag = 0x03 // int16
	tagUShort tag = 0x04 // uint16, also used for Char (binary-identical)
	tagInt    tag = 0x05 // int32
	tagUInt   tag = 0x06 // uint32
	tagLong   tag = 0x07 // int64
	tagULong  tag = 0x08 // uint64
	tagFloat  tag = 0x09 // float32
	tagDouble tag = 0x0a // float64

	tagDateTime tag = 0x0c
	tagDecimal  tag = 0x0d

	tagStringUtf8  tag = 0x0e
	tagStringUtf16 tag = 0x0f

	tagDictionaryInt            tag = 0x10
	tagDictionaryLong           tag = 0x11
	tagDictionaryULong          tag = 0x12
	tagDictionaryDouble         tag = 0x13
	tagDictionaryDateTime       tag = 0x14
	tagDictionaryStringUtf8     tag = 0x15
	tagDictionaryTwoStringsUtf8 tag = 0x16

	tagNull  tag = 0x19
	tagFalse tag = 0x1a
	tagTrue  tag = 0x1b

	// tagFollowID has no slot in the published enumeration (which covers
	// only the shapes spelled out for the compatibility floor); 0x1c is
	// the last free tag value below List/Kvp/Ref and is used here to
	// carry a follow-id marker's external id string.
	tagFollowID tag = 0x1c

	tagList tag = 0x1d
	tagKvp  tag = 0x1e
	tagRef  tag = 0x1f
)

const (
	flagHasRefID       byte = 0x20
	flagHasTypeSpec    byte = 0x40
	flagHasFullType    byte = 0x80
	tagMask            byte = 0x1f
)

// node is the in-memory form of a classbin Element: built directly by the
// Format* calls on write, or populated by decodeNode while reading a byte
// stream. Binary accessors (Simple, List, ...) read straight off this
// struct rather than re-parsing bytes, the same split JSON/XML use between
// their tree representation and their byte codec.
type node struct {
	tag tag

	typeName string
	typeFull bool
	hasType  bool

	hasRefID bool
	refID    uint64

	refTarget uint64
	followID  string

	simple      classref.SimpleValue
	hasSimple   bool

	children []*node // List, Kvp (len 2)

	entries  []dictEntry // Dictionary-shape or Object-shape (TwoStrings) entries
	isObject bool
}

type dictEntry struct {
	value    *node
	key      classref.SimpleValue
	name     string
	declType string
}

func dictTagForKeyKind(k classref.SimpleKind) tag {
	switch k {
	case classref.KindInt8, classref.KindInt16, classref.KindInt32:
		return tagDictionaryInt
	case classref.KindInt64:
		return tagDictionaryLong
	case classref.KindUint8, classref.KindUint16, classref.KindUint32, classref.KindUint64:
		return tagDictionaryULong
	case classref.KindFloat32, classref.KindFloat64:
		return tagDictionaryDouble
	case classref.KindDateTime:
		return tagDictionaryDateTime
	default:
		return tagDictionaryStringUtf8
	}
}

func tagForSimpleKind(k classref.SimpleKind) tag {
	switch k {
	case classref.KindUint8:
		return tagByte
	case classref.KindInt8:
		return tagSByte
	case classref.KindInt16:
		return tagShort
	case classref.KindUint16, classref.KindChar:
		return tagUShort
	case classref.KindInt32:
		return tagInt
	case classref.KindUint32:
		return tagUInt
	case classref.KindInt64:
		return tagLong
	case classref.KindUint64:
		return tagULong
	case classref.KindFloat32:
		return tagFloat
	case classref.KindFloat64:
		return tagDouble
	case classref.KindDateTime:
		return tagDateTime
	case classref.KindDecimal:
		return tagDecimal
	case classref.KindString:
		return tagStringUtf8
	case classref.KindBool:
		return tagTrue // overwritten to tagFalse by caller when value is false
	}
	return tagStringUtf8
}

// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classref

import (
	"fmt"
	"math/big"
	"time"
)

// Char is a 16-bit code unit, the Go-native stand-in for a single-character
// scalar type. It is a distinct named type (not a plain uint16 alias) so
// that classification can tell "a 16-bit unsigned integer" and "a
// character" apart by reflect.Type identity, per the ExactConvert contract
// (Integer <-> Char is binary-identical to the 16-bit unsigned conversion).
type Char uint16

// Decimal is an arbitrary-precision fractional value, the Go-native stand-in
// for a language's built-in decimal type. It wraps math/big.Rat; String
// renders an integral value exactly and any other value as its nearest
// float64.
type Decimal struct {
	Rat *big.Rat
}

func NewDecimal(r *big.Rat) Decimal { return Decimal{Rat: r} }

func (d Decimal) String() string {
	if d.Rat == nil {
		return "0"
	}
	if d.Rat.IsInt() {
		return d.Rat.Num().String()
	}
	f, _ := d.Rat.Float64()
	return fmt.Sprintf("%v", f)
}

// SimpleValue is the Shape-tagged scalar union that crosses the IR boundary
// for Simple-shape payloads and Dictionary keys. Kind disambiguates which
// accessor is valid; calling the wrong accessor panics, mirroring how a
// reflective wire value's accessors behave elsewhere in this kind of
// library.
type SimpleValue struct {
	Kind   SimpleKind
	native interface{}
}

func Bool(v bool) SimpleValue          { return SimpleValue{KindBool, v} }
func Int8(v int8) SimpleValue          { return SimpleValue{KindInt8, v} }
func Int16(v int16) SimpleValue        { return SimpleValue{KindInt16, v} }
func Int32(v int32) SimpleValue        { return SimpleValue{KindInt32, v} }
func Int64(v int64) SimpleValue        { return SimpleValue{KindInt64, v} }
func Uint8(v uint8) SimpleValue        { return SimpleValue{KindUint8, v} }
func Uint16(v uint16) SimpleValue      { return SimpleValue{KindUint16, v} }
func Uint32(v uint32) SimpleValue      { return SimpleValue{KindUint32, v} }
func Uint64(v uint64) SimpleValue      { return SimpleValue{KindUint64, v} }
func Float32(v float32) SimpleValue    { return SimpleValue{KindFloat32, v} }
func Float64(v float64) SimpleValue    { return SimpleValue{KindFloat64, v} }
func DecimalValue(v Decimal) SimpleValue { return SimpleValue{KindDecimal, v} }
func String(v string) SimpleValue      { return SimpleValue{KindString, v} }
func CharValue(v Char) SimpleValue     { return SimpleValue{KindChar, v} }
func DateTime(v time.Time) SimpleValue { return SimpleValue{KindDateTime, v} }

func (v SimpleValue) want(k SimpleKind) {
	if v.Kind != k {
		panic(fmt.Sprintf("classref: SimpleValue holds %s, not %s", v.Kind, k))
	}
}

func (v SimpleValue) AsBool() bool       { v.want(KindBool); return v.native.(bool) }
func (v SimpleValue) AsInt8() int8       { v.want(KindInt8); return v.native.(int8) }
func (v SimpleValue) AsInt16() int16     { v.want(KindInt16); return v.native.(int16) }
func (v SimpleValue) AsInt32() int32     { v.want(KindInt32); return v.native.(int32) }
func (v SimpleValue) AsInt64() int64     { v.want(KindInt64); return v.native.(int64) }
func (v SimpleValue) AsUint8() uint8     { v.want(KindUint8); return v.native.(uint8) }
func (v SimpleValue) AsUint16() uint16   { v.want(KindUint16); return v.native.(uint16) }
func (v SimpleValue) AsUint32() uint32   { v.want(KindUint32); return v.native.(uint32) }
func (v SimpleValue) AsUint64() uint64   { v.want(KindUint64); return v.native.(uint64) }
func (v SimpleValue) AsFloat32() float32 { v.want(KindFloat32); return v.native.(float32) }
func (v SimpleValue) AsFloat64() float64 { v.want(KindFloat64); return v.native.(float64) }
func (v SimpleValue) AsDecimal() Decimal { v.want(KindDecimal); return v.native.(Decimal) }
func (v SimpleValue) AsString() string   { v.want(KindString); return v.native.(string) }
func (v SimpleValue) AsChar() Char       { v.want(KindChar); return v.native.(Char) }
func (v SimpleValue) AsDateTime() time.Time {
	v.want(KindDateTime)
	return v.native.(time.Time)
}

// Interface returns the underlying native Go value, for callers that only
// need to print or hash it generically.
func (v SimpleValue) Interface() interface{} { return v.native }

// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xconvert implements the ExactConvert contract: a narrow,
// round-trip-exact conversion utility consumed by the Simple shape.
// Conversions succeed only if the round trip is lossless, except when the
// destination is fractional, where the nearest representable value is
// used instead. This package knows nothing about the IR or the engine; it
// only converts between classref.SimpleValue and reflect.Value.
package xconvert

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/classify-go/classify/classref"
)

var (
	charType    = reflect.TypeOf(classref.Char(0))
	decimalType = reflect.TypeOf(classref.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
)

// KindForType reports the SimpleKind a type is recognized under, if any.
// Classification (internal/typeinfo) consults this to decide Shape:
// Simple precedence applies only to types this function accepts.
func KindForType(t reflect.Type) (classref.SimpleKind, bool) {
	switch {
	case t == charType:
		return classref.KindChar, true
	case t == decimalType:
		return classref.KindDecimal, true
	case t == timeType:
		return classref.KindDateTime, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return classref.KindBool, true
	case reflect.Int8:
		return classref.KindInt8, true
	case reflect.Int16:
		return classref.KindInt16, true
	case reflect.Int32:
		return classref.KindInt32, true
	case reflect.Int64, reflect.Int:
		return classref.KindInt64, true
	case reflect.Uint8:
		return classref.KindUint8, true
	case reflect.Uint16:
		return classref.KindUint16, true
	case reflect.Uint32:
		return classref.KindUint32, true
	case reflect.Uint64, reflect.Uint:
		return classref.KindUint64, true
	case reflect.Float32:
		return classref.KindFloat32, true
	case reflect.Float64:
		return classref.KindFloat64, true
	case reflect.String:
		return classref.KindString, true
	}
	return classref.KindInvalid, false
}

// ToWire extracts the SimpleValue carried by a live reflect.Value whose
// type was already recognized under kind by KindForType.
func ToWire(rv reflect.Value, kind classref.SimpleKind) classref.SimpleValue {
	switch kind {
	case classref.KindBool:
		return classref.Bool(rv.Bool())
	case classref.KindInt8:
		return classref.Int8(int8(rv.Int()))
	case classref.KindInt16:
		return classref.Int16(int16(rv.Int()))
	case classref.KindInt32:
		return classref.Int32(int32(rv.Int()))
	case classref.KindInt64:
		return classref.Int64(rv.Int())
	case classref.KindUint8:
		return classref.Uint8(uint8(rv.Uint()))
	case classref.KindUint16:
		return classref.Uint16(uint16(rv.Uint()))
	case classref.KindUint32:
		return classref.Uint32(uint32(rv.Uint()))
	case classref.KindUint64:
		return classref.Uint64(rv.Uint())
	case classref.KindFloat32:
		return classref.Float32(float32(rv.Float()))
	case classref.KindFloat64:
		return classref.Float64(rv.Float())
	case classref.KindString:
		return classref.String(rv.String())
	case classref.KindChar:
		return classref.CharValue(rv.Interface().(classref.Char))
	case classref.KindDecimal:
		return classref.DecimalValue(rv.Interface().(classref.Decimal))
	case classref.KindDateTime:
		return classref.DateTime(rv.Interface().(time.Time))
	}
	panic(fmt.Sprintf("xconvert: unrecognized kind %s", kind))
}

// FromWire converts sv into a reflect.Value of type dst, applying the
// ExactConvert rules. It returns an error when the conversion cannot be
// made exact and dst is not fractional.
func FromWire(dst reflect.Type, sv classref.SimpleValue) (reflect.Value, error) {
	dstKind, ok := KindForType(dst)
	if !ok {
		return reflect.Value{}, fmt.Errorf("xconvert: type %s is not a recognized Simple type", dst)
	}
	out, err := Convert(dstKind, sv)
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(dst).Elem()
	switch dstKind {
	case classref.KindBool:
		rv.SetBool(out.AsBool())
	case classref.KindInt8:
		rv.SetInt(int64(out.AsInt8()))
	case classref.KindInt16:
		rv.SetInt(int64(out.AsInt16()))
	case classref.KindInt32:
		rv.SetInt(int64(out.AsInt32()))
	case classref.KindInt64:
		rv.SetInt(out.AsInt64())
	case classref.KindUint8:
		rv.SetUint(uint64(out.AsUint8()))
	case classref.KindUint16:
		rv.SetUint(uint64(out.AsUint16()))
	case classref.KindUint32:
		rv.SetUint(uint64(out.AsUint32()))
	case classref.KindUint64:
		rv.SetUint(out.AsUint64())
	case classref.KindFloat32:
		rv.SetFloat(float64(out.AsFloat32()))
	case classref.KindFloat64:
		rv.SetFloat(out.AsFloat64())
	case classref.KindString:
		rv.SetString(out.AsString())
	case classref.KindChar:
		rv.Set(reflect.ValueOf(out.AsChar()))
	case classref.KindDecimal:
		rv.Set(reflect.ValueOf(out.AsDecimal()))
	case classref.KindDateTime:
		rv.Set(reflect.ValueOf(out.AsDateTime()))
	}
	return rv, nil
}

// Convert converts v to dstKind under the ExactConvert rules: exact
// round-trip is required unless dstKind is fractional, in which case the
// nearest representable value is produced. Fractional sources converting
// to an integer destination always fail.
func Convert(dstKind classref.SimpleKind, v classref.SimpleValue) (classref.SimpleValue, error) {
	if v.Kind == dstKind {
		return v, nil
	}
	if v.Kind.IsFractional() && dstKind.IsInteger() {
		return classref.SimpleValue{}, fmt.Errorf("xconvert: fractional %s cannot convert to integer %s", v.Kind, dstKind)
	}
	if v.Kind == classref.KindString {
		return parseString(v.AsString(), dstKind)
	}
	if dstKind == classref.KindString {
		return classref.String(FormatString(v)), nil
	}
	if dstKind == classref.KindBool || v.Kind == classref.KindBool {
		return convertBool(dstKind, v)
	}
	if dstKind == classref.KindChar || v.Kind == classref.KindChar {
		return convertChar(dstKind, v)
	}
	if dstKind == classref.KindDateTime || v.Kind == classref.KindDateTime {
		return convertDateTime(dstKind, v)
	}
	if dstKind.IsFractional() {
		return convertFractional(dstKind, v)
	}
	if dstKind.IsInteger() {
		return convertInteger(dstKind, v)
	}
	return classref.SimpleValue{}, fmt.Errorf("xconvert: no conversion from %s to %s", v.Kind, dstKind)
}

func asInt64(v classref.SimpleValue) (int64, bool) {
	switch v.Kind {
	case classref.KindInt8:
		return int64(v.AsInt8()), true
	case classref.KindInt16:
		return int64(v.AsInt16()), true
	case classref.KindInt32:
		return int64(v.AsInt32()), true
	case classref.KindInt64:
		return v.AsInt64(), true
	}
	return 0, false
}

func asUint64(v classref.SimpleValue) (uint64, bool) {
	switch v.Kind {
	case classref.KindUint8:
		return uint64(v.AsUint8()), true
	case classref.KindUint16:
		return uint64(v.AsUint16()), true
	case classref.KindUint32:
		return uint64(v.AsUint32()), true
	case classref.KindUint64:
		return v.AsUint64(), true
	}
	return 0, false
}

func convertBool(dstKind classref.SimpleKind, v classref.SimpleValue) (classref.SimpleValue, error) {
	if dstKind == classref.KindBool {
		var n int64
		var ok bool
		if n, ok = asInt64(v); !ok {
			if u, uok := asUint64(v); uok {
				n, ok = int64(u), true
			}
		}
		if !ok {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: cannot convert %s to bool", v.Kind)
		}
		if n != 0 && n != 1 {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: integer %d is not 0 or 1, cannot convert to bool", n)
		}
		return classref.Bool(n == 1), nil
	}
	// source is bool, destination is some integer kind.
	var n int64
	if v.AsBool() {
		n = 1
	}
	return convertInteger(dstKind, classref.Int64(n))
}

func convertChar(dstKind classref.SimpleKind, v classref.SimpleValue) (classref.SimpleValue, error) {
	if dstKind == classref.KindChar {
		u, ok := asUint64(v)
		if !ok {
			if n, nok := asInt64(v); nok {
				u, ok = uint64(n), true
			}
		}
		if !ok || u > math.MaxUint16 {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: cannot convert %s to char", v.Kind)
		}
		return classref.CharValue(classref.Char(u)), nil
	}
	// source is char, destination is some integer kind: binary-identical
	// to the uint16 conversion.
	return convertInteger(dstKind, classref.Uint16(uint16(v.AsChar())))
}

func convertInteger(dstKind classref.SimpleKind, v classref.SimpleValue) (classref.SimpleValue, error) {
	if n, ok := asInt64(v); ok {
		return fitInteger(dstKind, n, n < 0)
	}
	if u, ok := asUint64(v); ok {
		return fitUnsigned(dstKind, u)
	}
	return classref.SimpleValue{}, fmt.Errorf("xconvert: cannot convert %s to %s", v.Kind, dstKind)
}

func fitInteger(dstKind classref.SimpleKind, n int64, negative bool) (classref.SimpleValue, error) {
	switch dstKind {
	case classref.KindInt8:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return classref.SimpleValue{}, rangeErr(n, dstKind)
		}
		return classref.Int8(int8(n)), nil
	case classref.KindInt16:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return classref.SimpleValue{}, rangeErr(n, dstKind)
		}
		return classref.Int16(int16(n)), nil
	case classref.KindInt32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return classref.SimpleValue{}, rangeErr(n, dstKind)
		}
		return classref.Int32(int32(n)), nil
	case classref.KindInt64:
		return classref.Int64(n), nil
	case classref.KindUint8, classref.KindUint16, classref.KindUint32, classref.KindUint64:
		if negative {
			return classref.SimpleValue{}, rangeErr(n, dstKind)
		}
		return fitUnsigned(dstKind, uint64(n))
	}
	return classref.SimpleValue{}, fmt.Errorf("xconvert: unreachable integer destination %s", dstKind)
}

func fitUnsigned(dstKind classref.SimpleKind, u uint64) (classref.SimpleValue, error) {
	switch dstKind {
	case classref.KindUint8:
		if u > math.MaxUint8 {
			return classref.SimpleValue{}, rangeErr(u, dstKind)
		}
		return classref.Uint8(uint8(u)), nil
	case classref.KindUint16:
		if u > math.MaxUint16 {
			return classref.SimpleValue{}, rangeErr(u, dstKind)
		}
		return classref.Uint16(uint16(u)), nil
	case classref.KindUint32:
		if u > math.MaxUint32 {
			return classref.SimpleValue{}, rangeErr(u, dstKind)
		}
		return classref.Uint32(uint32(u)), nil
	case classref.KindUint64:
		return classref.Uint64(u), nil
	case classref.KindInt8, classref.KindInt16, classref.KindInt32, classref.KindInt64:
		if u > math.MaxInt64 {
			return classref.SimpleValue{}, rangeErr(u, dstKind)
		}
		return fitInteger(dstKind, int64(u), false)
	}
	return classref.SimpleValue{}, fmt.Errorf("xconvert: unreachable unsigned destination %s", dstKind)
}

func rangeErr(v interface{}, dstKind classref.SimpleKind) error {
	return fmt.Errorf("xconvert: value %v out of range for %s", v, dstKind)
}

func convertFractional(dstKind classref.SimpleKind, v classref.SimpleValue) (classref.SimpleValue, error) {
	var f float64
	switch {
	case v.Kind == classref.KindFloat32:
		f = float64(v.AsFloat32())
	case v.Kind == classref.KindFloat64:
		f = v.AsFloat64()
	case v.Kind == classref.KindDecimal:
		f, _ = v.AsDecimal().Rat.Float64()
	default:
		if n, ok := asInt64(v); ok {
			f = float64(n)
		} else if u, ok := asUint64(v); ok {
			f = float64(u)
		} else {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: cannot convert %s to %s", v.Kind, dstKind)
		}
	}
	switch dstKind {
	case classref.KindFloat32:
		return classref.Float32(float32(f)), nil
	case classref.KindFloat64:
		return classref.Float64(f), nil
	case classref.KindDecimal:
		r := new(big.Rat).SetFloat64(f)
		if r == nil {
			r = new(big.Rat)
		}
		return classref.DecimalValue(classref.NewDecimal(r)), nil
	}
	return classref.SimpleValue{}, fmt.Errorf("xconvert: unreachable fractional destination %s", dstKind)
}

// Epoch is the tick origin used for the Integer <-> Date-time conversion:
// ticks are 100-nanosecond units elapsed since Epoch, in UTC.
var Epoch = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)

const ticksPerSecond = 10_000_000

// MaxDate is the latest representable date-time for tick conversion.
var MaxDate = time.Date(9999, 12, 31, 23, 59, 59, 999999900, time.UTC)

func ticksOf(t time.Time) int64 {
	if t.Location() != time.UTC {
		t = t.UTC()
	}
	// Whole seconds and the sub-second part are counted separately: a
	// time.Duration saturates at about 292 years, far short of MaxDate.
	return (t.Unix()-Epoch.Unix())*ticksPerSecond + int64(t.Nanosecond())/100
}

func timeFromTicks(ticks int64) time.Time {
	return time.Unix(Epoch.Unix()+ticks/ticksPerSecond, (ticks%ticksPerSecond)*100).UTC()
}

func convertDateTime(dstKind classref.SimpleKind, v classref.SimpleValue) (classref.SimpleValue, error) {
	if dstKind == classref.KindDateTime {
		var ticks int64
		if n, ok := asInt64(v); ok {
			ticks = n
		} else if u, ok := asUint64(v); ok {
			if u > math.MaxInt64 {
				return classref.SimpleValue{}, rangeErr(u, dstKind)
			}
			ticks = int64(u)
		} else {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: cannot convert %s to datetime", v.Kind)
		}
		if ticks < 0 || ticks > ticksOf(MaxDate) {
			return classref.SimpleValue{}, rangeErr(ticks, dstKind)
		}
		return classref.DateTime(timeFromTicks(ticks)), nil
	}
	// source is datetime, destination is an integer kind.
	ticks := ticksOf(v.AsDateTime())
	return convertInteger(dstKind, classref.Int64(ticks))
}

// FormatString renders v using culture-invariant, round-trip-exact text:
// floats use Go's round-trip ('g', -1) format plus the hard-coded tokens
// Inf/-Inf/NaN; date-times use an ISO-8601 form with trailing
// zero-components omitted; everything else uses its natural decimal text.
func FormatString(v classref.SimpleValue) string {
	switch v.Kind {
	case classref.KindBool:
		if v.AsBool() {
			return "True"
		}
		return "False"
	case classref.KindInt8:
		return strconv.FormatInt(int64(v.AsInt8()), 10)
	case classref.KindInt16:
		return strconv.FormatInt(int64(v.AsInt16()), 10)
	case classref.KindInt32:
		return strconv.FormatInt(int64(v.AsInt32()), 10)
	case classref.KindInt64:
		return strconv.FormatInt(v.AsInt64(), 10)
	case classref.KindUint8:
		return strconv.FormatUint(uint64(v.AsUint8()), 10)
	case classref.KindUint16:
		return strconv.FormatUint(uint64(v.AsUint16()), 10)
	case classref.KindUint32:
		return strconv.FormatUint(uint64(v.AsUint32()), 10)
	case classref.KindUint64:
		return strconv.FormatUint(v.AsUint64(), 10)
	case classref.KindFloat32:
		return formatFloat(float64(v.AsFloat32()), 32)
	case classref.KindFloat64:
		return formatFloat(v.AsFloat64(), 64)
	case classref.KindDecimal:
		return v.AsDecimal().String()
	case classref.KindString:
		return v.AsString()
	case classref.KindChar:
		return string(rune(v.AsChar()))
	case classref.KindDateTime:
		return formatTime(v.AsDateTime())
	}
	return ""
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func formatTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() == 0 {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02T15:04:05Z")
	}
	return t.Format("2006-01-02T15:04:05.999999999Z")
}

func parseString(s string, dstKind classref.SimpleKind) (classref.SimpleValue, error) {
	if dstKind == classref.KindString {
		return classref.String(s), nil
	}
	trimmed := strings.TrimSpace(s)
	switch dstKind {
	case classref.KindBool:
		switch strings.ToLower(trimmed) {
		case "true":
			return classref.Bool(true), nil
		case "false":
			return classref.Bool(false), nil
		}
		return classref.SimpleValue{}, fmt.Errorf("xconvert: %q is not True/False", s)
	case classref.KindChar:
		r := []rune(s)
		if len(r) != 1 {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: %q is not a single character", s)
		}
		if r[0] > math.MaxUint16 {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: character %q out of range", s)
		}
		return classref.CharValue(classref.Char(r[0])), nil
	case classref.KindDateTime:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return classref.DateTime(t.UTC()), nil
			}
		}
		return classref.SimpleValue{}, fmt.Errorf("xconvert: %q is not a valid ISO-8601 date-time", s)
	case classref.KindFloat32, classref.KindFloat64, classref.KindDecimal:
		switch strings.ToLower(trimmed) {
		case "inf":
			return convertFractional(dstKind, classref.Float64(math.Inf(1)))
		case "-inf":
			return convertFractional(dstKind, classref.Float64(math.Inf(-1)))
		case "nan":
			return convertFractional(dstKind, classref.Float64(math.NaN()))
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: %q is not a number: %w", s, err)
		}
		return convertFractional(dstKind, classref.Float64(f))
	case classref.KindInt8, classref.KindInt16, classref.KindInt32, classref.KindInt64:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: %q is not an integer: %w", s, err)
		}
		return fitInteger(dstKind, n, n < 0)
	case classref.KindUint8, classref.KindUint16, classref.KindUint32, classref.KindUint64:
		u, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return classref.SimpleValue{}, fmt.Errorf("xconvert: %q is not an unsigned integer: %w", s, err)
		}
		return fitUnsigned(dstKind, u)
	}
	return classref.SimpleValue{}, fmt.Errorf("xconvert: no string parse for %s", dstKind)
}

// ParseString parses s as dstKind under the culture-invariant rules
// FormatString's output obeys.
func ParseString(s string, dstKind classref.SimpleKind) (classref.SimpleValue, error) {
	return parseString(s, dstKind)
}

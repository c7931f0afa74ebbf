// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xconvert

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify/classref"
)

func TestConvertIntegerWidening(t *testing.T) {
	out, err := Convert(classref.KindInt64, classref.Int8(-7))
	require.NoError(t, err)
	require.Equal(t, int64(-7), out.AsInt64())
}

func TestConvertIntegerRangeError(t *testing.T) {
	_, err := Convert(classref.KindInt8, classref.Int64(1000))
	require.Error(t, err)
}

func TestConvertIntegerBoolOnlyZeroOrOne(t *testing.T) {
	out, err := Convert(classref.KindBool, classref.Int64(1))
	require.NoError(t, err)
	require.True(t, out.AsBool())

	_, err = Convert(classref.KindBool, classref.Int64(2))
	require.Error(t, err)
}

func TestConvertFractionalNeverToInteger(t *testing.T) {
	_, err := Convert(classref.KindInt32, classref.Float64(1.0))
	require.Error(t, err)
}

func TestConvertFractionalIsNearestRepresentable(t *testing.T) {
	out, err := Convert(classref.KindFloat32, classref.Float64(1.0/3.0))
	require.NoError(t, err)
	require.InDelta(t, 1.0/3.0, float64(out.AsFloat32()), 1e-6)
}

func TestConvertCharIsUint16Identical(t *testing.T) {
	out, err := Convert(classref.KindUint16, classref.CharValue(classref.Char('A')))
	require.NoError(t, err)
	require.Equal(t, uint16('A'), out.AsUint16())

	back, err := Convert(classref.KindChar, classref.Uint16(uint16('A')))
	require.NoError(t, err)
	require.Equal(t, classref.Char('A'), back.AsChar())
}

func TestConvertDateTimeRoundTripsThroughTicks(t *testing.T) {
	want := time.Date(2024, 3, 15, 1, 2, 3, 0, time.UTC)
	asTicks, err := Convert(classref.KindInt64, classref.DateTime(want))
	require.NoError(t, err)

	back, err := Convert(classref.KindDateTime, asTicks)
	require.NoError(t, err)
	require.True(t, want.Equal(back.AsDateTime()))
}

func TestFormatStringTokens(t *testing.T) {
	require.Equal(t, "True", FormatString(classref.Bool(true)))
	require.Equal(t, "Inf", FormatString(classref.Float64(math.Inf(1))))
	require.Equal(t, "-Inf", FormatString(classref.Float64(math.Inf(-1))))
	require.Equal(t, "NaN", FormatString(classref.Float64(math.NaN())))
}

func TestParseStringTokensCaseInsensitive(t *testing.T) {
	out, err := ParseString("true", classref.KindBool)
	require.NoError(t, err)
	require.True(t, out.AsBool())

	out, err = ParseString("nan", classref.KindFloat64)
	require.NoError(t, err)
	require.True(t, math.IsNaN(out.AsFloat64()))
}

func TestKindForTypeRecognizesScalars(t *testing.T) {
	kind, ok := KindForType(charType)
	require.True(t, ok)
	require.Equal(t, classref.KindChar, kind)

	kind, ok = KindForType(timeType)
	require.True(t, ok)
	require.Equal(t, classref.KindDateTime, kind)
}

func TestFromWireAssignsDestination(t *testing.T) {
	rv, err := FromWire(reflect.TypeOf(int32(0)), classref.Int8(5))
	require.NoError(t, err)
	require.Equal(t, int32(5), rv.Interface())
}

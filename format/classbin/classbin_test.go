// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classbin

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify/classref"
)

func roundTrip(t *testing.T, d *Driver, e classref.Element) classref.Element {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(e, &buf))
	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)
	return back
}

func TestSimpleRoundTrip(t *testing.T) {
	d := New()
	e := d.FormatSimple(classref.String("hello"))
	back := roundTrip(t, d, e)
	sv, ok := back.Simple()
	require.True(t, ok)
	require.Equal(t, "hello", sv.AsString())
}

func TestBoolRoundTrip(t *testing.T) {
	d := New()
	for _, b := range []bool{true, false} {
		back := roundTrip(t, d, d.FormatSimple(classref.Bool(b)))
		sv, ok := back.Simple()
		require.True(t, ok)
		require.Equal(t, b, sv.AsBool())
	}
}

func TestFixedWidthNumericRoundTrip(t *testing.T) {
	d := New()
	back := roundTrip(t, d, d.FormatSimple(classref.Int64(-12345)))
	sv, ok := back.Simple()
	require.True(t, ok)
	require.Equal(t, int64(-12345), sv.AsInt64())

	back = roundTrip(t, d, d.FormatSimple(classref.Float64(3.5)))
	sv, ok = back.Simple()
	require.True(t, ok)
	require.Equal(t, 3.5, sv.AsFloat64())
}

func TestDateTimeRoundTrip(t *testing.T) {
	d := New()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	back := roundTrip(t, d, d.FormatSimple(classref.DateTime(now)))
	sv, ok := back.Simple()
	require.True(t, ok)
	require.True(t, now.Equal(sv.AsDateTime()))
}

func TestListRoundTrip(t *testing.T) {
	d := New()
	e := d.FormatList(false, []classref.Element{
		d.FormatSimple(classref.Int32(1)),
		d.FormatSimple(classref.Int32(2)),
		d.FormatSimple(classref.Int32(3)),
	})
	back := roundTrip(t, d, e)
	elems, ok := back.List(0)
	require.True(t, ok)
	require.Len(t, elems, 3)
	sv, _ := elems[1].Simple()
	require.Equal(t, int32(2), sv.AsInt32())
}

func TestDictionaryRoundTrip(t *testing.T) {
	d := New()
	e := d.FormatDictionary([]classref.DictEntry{
		{Key: d.FormatSimple(classref.String("a")), Value: d.FormatSimple(classref.Int32(1))},
		{Key: d.FormatSimple(classref.String("b")), Value: d.FormatSimple(classref.Int32(2))},
	})
	back := roundTrip(t, d, e)
	entries, ok := back.Dictionary()
	require.True(t, ok)
	require.Len(t, entries, 2)
	k0, _ := entries[0].Key.Simple()
	v0, _ := entries[0].Value.Simple()
	require.Equal(t, "a", k0.AsString())
	require.Equal(t, int32(1), v0.AsInt32())
}

func TestObjectFieldsAndDeclaringType(t *testing.T) {
	d := New()
	e := d.FormatObject([]classref.Field{
		{Name: "Name", DeclaringType: "Base", Value: d.FormatSimple(classref.String("x"))},
		{Name: "Name", DeclaringType: "Derived", Value: d.FormatSimple(classref.String("y"))},
	})
	back := roundTrip(t, d, e)
	v, ok := back.Field("Name", "Derived")
	require.True(t, ok)
	sv, _ := v.Simple()
	require.Equal(t, "y", sv.AsString())
}

func TestReferenceAndReferableRoundTrip(t *testing.T) {
	d := New()
	inner := d.FormatObject(nil)
	referable := d.FormatReferable(inner, 7)
	ref := d.FormatReference(7)

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(referable, &buf))
	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)
	id, ok := back.ReferableID()
	require.True(t, ok)
	require.Equal(t, uint64(7), id)

	buf.Reset()
	require.NoError(t, d.WriteToStream(ref, &buf))
	back, err = d.ReadFromStream(&buf)
	require.NoError(t, err)
	refID, ok := back.ReferenceID()
	require.True(t, ok)
	require.Equal(t, uint64(7), refID)
}

func TestWithTypeRoundTrip(t *testing.T) {
	d := New()
	e := d.FormatWithType(d.FormatObject(nil), "Widget", false)
	back := roundTrip(t, d, e)
	name, full, ok := back.TypeTag()
	require.True(t, ok)
	require.False(t, full)
	require.Equal(t, "Widget", name)
}

func TestFollowIDRoundTrip(t *testing.T) {
	d := New()
	e := d.FormatFollowID("external-123")
	back := roundTrip(t, d, e)
	id, ok := back.FollowID()
	require.True(t, ok)
	require.Equal(t, "external-123", id)
}

func TestStringEscapeRoundTrip(t *testing.T) {
	d := New()
	back := roundTrip(t, d, d.FormatSimple(classref.String("has\xffsentinel\xffbytes")))
	sv, ok := back.Simple()
	require.True(t, ok)
	require.Equal(t, "has\xffsentinel\xffbytes", sv.AsString())
}

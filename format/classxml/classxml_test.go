// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classxml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify/classref"
)

func TestSimpleRoundTrip(t *testing.T) {
	d := New()
	e := d.FormatSimple(classref.String("hello"))

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(e, &buf))

	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)
	sv, ok := back.Simple()
	require.True(t, ok)
	require.Equal(t, "hello", sv.AsString())
}

func TestControlCharacterEscaping(t *testing.T) {
	d := New()
	e := d.FormatSimple(classref.String("line1\nline2\ttab"))

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(e, &buf))

	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)
	sv, ok := back.Simple()
	require.True(t, ok)
	require.Equal(t, "line1\nline2\ttab", sv.AsString())
}

func TestCodepointCharEncoding(t *testing.T) {
	d := New()
	e := d.FormatSimple(classref.CharValue(classref.Char(0x09)))

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(e, &buf))

	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)
	sv, ok := back.Simple()
	require.True(t, ok)
	require.Equal(t, classref.Char(0x09), sv.AsChar())
}

func TestObjectFieldsAndDeclaringType(t *testing.T) {
	d := New()
	e := d.FormatObject([]classref.Field{
		{Name: "Name", DeclaringType: "Base", Value: d.FormatSimple(classref.String("x"))},
		{Name: "Name", DeclaringType: "Derived", Value: d.FormatSimple(classref.String("y"))},
	})

	v, ok := e.Field("Name", "Derived")
	require.True(t, ok)
	sv, _ := v.Simple()
	require.Equal(t, "y", sv.AsString())
}

func TestReferenceRoundTrip(t *testing.T) {
	d := New()
	inner := d.FormatObject(nil)
	referable := d.FormatReferable(inner, 7)
	ref := d.FormatReference(7)

	id, ok := referable.ReferableID()
	require.True(t, ok)
	require.Equal(t, uint64(7), id)

	refID, ok := ref.ReferenceID()
	require.True(t, ok)
	require.Equal(t, uint64(7), refID)
}

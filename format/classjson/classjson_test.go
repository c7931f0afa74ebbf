// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classjson

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify/classref"
)

func TestSimpleRoundTrip(t *testing.T) {
	d := New()
	e := d.FormatSimple(classref.Int32(42))

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(e, &buf))

	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)

	sv, ok := back.Simple()
	require.True(t, ok)
	require.Equal(t, int64(42), sv.AsInt64())
}

func TestObjectFieldEscaping(t *testing.T) {
	d := New()
	e := d.FormatObject([]classref.Field{
		{Name: ":weird", Value: d.FormatSimple(classref.String("x"))},
		{Name: "Normal", Value: d.FormatSimple(classref.Bool(true))},
	})

	require.True(t, e.HasField(":weird", ""))
	require.True(t, e.HasField("Normal", ""))

	v, ok := e.Field(":weird", "")
	require.True(t, ok)
	sv, ok := v.Simple()
	require.True(t, ok)
	require.Equal(t, "x", sv.AsString())
}

func TestReferableAndReference(t *testing.T) {
	d := New()
	inner := d.FormatObject([]classref.Field{
		{Name: "Name", Value: d.FormatSimple(classref.String("root"))},
	})
	referable := d.FormatReferable(inner, 1)
	ref := d.FormatReference(1)

	require.True(t, referable.IsReferable())
	id, ok := referable.ReferableID()
	require.True(t, ok)
	require.Equal(t, uint64(1), id)

	require.True(t, ref.IsReference())
	refID, ok := ref.ReferenceID()
	require.True(t, ok)
	require.Equal(t, uint64(1), refID)
}

func TestListWrappedWithType(t *testing.T) {
	d := New()
	list := d.FormatList(false, []classref.Element{
		d.FormatSimple(classref.Int32(1)),
		d.FormatSimple(classref.Int32(2)),
	})
	tagged := d.FormatWithType(list, "IntList", false)

	name, full, ok := tagged.TypeTag()
	require.True(t, ok)
	require.False(t, full)
	require.Equal(t, "IntList", name)

	elems, ok := tagged.List(0)
	require.True(t, ok)
	require.Len(t, elems, 2)
}

func TestDictionaryRoundTrip(t *testing.T) {
	d := New()
	dict := d.FormatDictionary([]classref.DictEntry{
		{Key: d.FormatSimple(classref.String("a")), Value: d.FormatSimple(classref.Int32(1))},
	})

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(dict, &buf))

	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)

	entries, ok := back.Dictionary()
	require.True(t, ok)
	require.Len(t, entries, 1)
	ksv, _ := entries[0].Key.Simple()
	require.Equal(t, "a", ksv.AsString())
}

// TestDictionaryWireIsJSONObject pins the on-wire shape of a Dictionary
// element: a genuine JSON object keyed by the stringified key, e.g.
// {"Red":1,"Blue":2}, never an array of {"Key":...,"Value":...} pairs.
func TestDictionaryWireIsJSONObject(t *testing.T) {
	d := New()
	dict := d.FormatDictionary([]classref.DictEntry{
		{Key: d.FormatSimple(classref.String("Red")), Value: d.FormatSimple(classref.Int32(1))},
		{Key: d.FormatSimple(classref.String("Blue")), Value: d.FormatSimple(classref.Int32(2))},
	})

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(dict, &buf))

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &generic))
	require.Equal(t, float64(1), generic["Red"])
	require.Equal(t, float64(2), generic["Blue"])

	var asArray []interface{}
	require.Error(t, json.Unmarshal(buf.Bytes(), &asArray))
}

// TestDictionaryKeyCollidingWithControlKey checks a key that looks like a
// reserved control key round-trips via the same escaping Object fields use.
func TestDictionaryKeyCollidingWithControlKey(t *testing.T) {
	d := New()
	dict := d.FormatDictionary([]classref.DictEntry{
		{Key: d.FormatSimple(classref.String(":type")), Value: d.FormatSimple(classref.Int32(9))},
	})
	tagged := d.FormatWithType(dict, "IntDict", false)

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(tagged, &buf))

	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)

	name, _, ok := back.TypeTag()
	require.True(t, ok)
	require.Equal(t, "IntDict", name)

	entries, ok := back.Dictionary()
	require.True(t, ok)
	require.Len(t, entries, 1)
	ksv, _ := entries[0].Key.Simple()
	require.Equal(t, ":type", ksv.AsString())
}

// TestTupleRoundTrip covers the keyValues-wrapped list shape FormatList
// produces for isTuple=true, which payload() must unwrap the same way it
// unwraps the singular keyValue box.
func TestTupleRoundTrip(t *testing.T) {
	d := New()
	tuple := d.FormatList(true, []classref.Element{
		d.FormatSimple(classref.String("k")),
		d.FormatSimple(classref.Int32(7)),
	})
	tagged := d.FormatWithType(tuple, "KeyValuePair`2", false)

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(tagged, &buf))

	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)

	name, _, ok := back.TypeTag()
	require.True(t, ok)
	require.Equal(t, "KeyValuePair`2", name)

	elems, ok := back.List(2)
	require.True(t, ok)
	require.Len(t, elems, 2)
	sv, _ := elems[1].Simple()
	require.Equal(t, int64(7), sv.AsInt64())
}

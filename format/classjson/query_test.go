// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classjson

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify/classref"
)

func TestQueryLocatesNestedField(t *testing.T) {
	d := New()
	e := d.FormatObject([]classref.Field{
		{Name: "Name", Value: d.FormatSimple(classref.String("Ada"))},
		{Name: "Address", Value: d.FormatObject([]classref.Field{
			{Name: "City", Value: d.FormatSimple(classref.String("London"))},
		})},
	})

	var buf bytes.Buffer
	require.NoError(t, d.WriteToStream(e, &buf))
	back, err := d.ReadFromStream(&buf)
	require.NoError(t, err)

	got, err := Query(back, "Address.City")
	require.NoError(t, err)
	require.Equal(t, "London", got)
}

func TestQueryRejectsForeignElement(t *testing.T) {
	_, err := Query(fakeElement{}, "x")
	require.Error(t, err)
}

type fakeElement struct{}

func (fakeElement) IsNull() bool                                  { return true }
func (fakeElement) IsReference() bool                              { return false }
func (fakeElement) ReferenceID() (uint64, bool)                    { return 0, false }
func (fakeElement) IsReferable() bool                              { return false }
func (fakeElement) ReferableID() (uint64, bool)                    { return 0, false }
func (fakeElement) IsFollowID() bool                               { return false }
func (fakeElement) FollowID() (string, bool)                       { return "", false }
func (fakeElement) TypeTag() (string, bool, bool)                  { return "", false, false }
func (fakeElement) Simple() (classref.SimpleValue, bool)           { return classref.SimpleValue{}, false }
func (fakeElement) Self() (classref.Element, bool)                 { return nil, false }
func (fakeElement) List(int) ([]classref.Element, bool)            { return nil, false }
func (fakeElement) KeyValuePair() (classref.Element, classref.Element, bool) {
	return nil, nil, false
}
func (fakeElement) Dictionary() ([]classref.DictEntry, bool)       { return nil, false }
func (fakeElement) HasField(string, string) bool                   { return false }
func (fakeElement) Field(string, string) (classref.Element, bool)  { return nil, false }

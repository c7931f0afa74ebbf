// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify"
	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/format/classbin"
	"github.com/classify-go/classify/format/classjson"
	"github.com/classify-go/classify/format/classxml"
)

type Address struct {
	Street string
	City   string
}

type Person struct {
	Name      string
	Age       int32
	Addresses []Address
	Tags      map[string]string
}

func drivers() map[string]classref.FormatDriver {
	return map[string]classref.FormatDriver{
		"json": classjson.New(),
		"xml":  classxml.New(),
		"bin":  classbin.New(),
	}
}

func TestObjectRoundTripAcrossDrivers(t *testing.T) {
	p := Person{
		Name: "Ada Lovelace",
		Age:  36,
		Addresses: []Address{
			{Street: "1 Analytical Engine Way", City: "London"},
			{Street: "2 Bletchley Row", City: "Milton Keynes"},
		},
		Tags: map[string]string{"field": "mathematics"},
	}

	for name, d := range drivers() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, classify.SerializeTo(d, p, nil, &buf))

			got, err := classify.DeserializeFrom[Person](d, &buf, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(p, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type Node struct {
	Value int32
	Next  *Node
}

func TestCyclicGraphPreservesIdentity(t *testing.T) {
	for name, d := range drivers() {
		t.Run(name, func(t *testing.T) {
			a := &Node{Value: 1}
			b := &Node{Value: 2}
			a.Next = b
			b.Next = a

			e, err := classify.Serialize(d, a, nil)
			require.NoError(t, err)

			got, err := classify.Deserialize[*Node](d, e, nil)
			require.NoError(t, err)
			require.Equal(t, int32(1), got.Value)
			require.Equal(t, int32(2), got.Next.Value)
			require.Same(t, got, got.Next.Next)
		})
	}
}

func TestSharedReferenceDeduplicates(t *testing.T) {
	shared := &Address{Street: "1 Shared St", City: "Nowhere"}
	type Pair struct {
		First  *Address
		Second *Address
	}
	p := Pair{First: shared, Second: shared}

	d := classjson.New()
	e, err := classify.Serialize(d, p, nil)
	require.NoError(t, err)

	got, err := classify.Deserialize[Pair](d, e, nil)
	require.NoError(t, err)
	require.Same(t, got.First, got.Second)
}

type Base struct {
	ID string
}

type Derived struct {
	Base
	Extra int32
}

func TestTupleAndKeyValuePairShapes(t *testing.T) {
	type Bag struct {
		Pair  classify.KeyValuePair[string, int32]
		Trio  classify.Tuple3[string, int32, bool]
		Items []int32
	}
	b := Bag{
		Pair:  classify.KeyValuePair[string, int32]{Key: "count", Value: 3},
		Trio:  classify.Tuple3[string, int32, bool]{F1: "x", F2: 7, F3: true},
		Items: []int32{1, 2, 3},
	}

	for name, d := range drivers() {
		t.Run(name, func(t *testing.T) {
			e, err := classify.Serialize(d, b, nil)
			require.NoError(t, err)
			got, err := classify.Deserialize[Bag](d, e, nil)
			require.NoError(t, err)
			require.Equal(t, b, got)
		})
	}
}

func TestDeclaredTypeAndShapeMismatchErrors(t *testing.T) {
	d := classjson.New()
	e, err := classify.Serialize(d, 42, nil)
	require.NoError(t, err)

	_, err = classify.Deserialize[Person](d, e, nil)
	require.Error(t, err)
}

// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify"
	"github.com/classify-go/classify/format/classjson"
)

type Shape interface{ Area() float64 }

type Circle struct{ Radius float64 }

func (c Circle) Area() float64 { return 3.14159 * c.Radius * c.Radius }

type Square struct{ Side float64 }

func (s Square) Area() float64 { return s.Side * s.Side }

func init() {
	classify.RegisterTypeOf(Circle{})
	classify.RegisterTypeOf(Square{})
}

func TestPolymorphicFieldRoundTrip(t *testing.T) {
	type Drawing struct {
		Shapes []Shape
	}
	// Shape-typed slice elements classify by runtime type and carry a tag
	// the deserializer resolves back through the registry.
	d := Drawing{Shapes: []Shape{Circle{Radius: 2}, Square{Side: 3}}}

	driver := classjson.New()
	e, err := classify.Serialize(driver, d, nil)
	require.NoError(t, err)

	got, err := classify.Deserialize[Drawing](driver, e, nil)
	require.NoError(t, err)
	require.Len(t, got.Shapes, 2)
	require.InDelta(t, d.Shapes[0].Area(), got.Shapes[0].Area(), 0.0001)
	require.InDelta(t, d.Shapes[1].Area(), got.Shapes[1].Area(), 0.0001)
}

// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/classify-go/classify"
)

func TestGraphHashIgnoresMapOrderAndIdentity(t *testing.T) {
	type Wrapper struct {
		Tags map[string]int32
	}
	a := Wrapper{Tags: map[string]int32{"a": 1, "b": 2, "c": 3}}
	b := Wrapper{Tags: map[string]int32{"c": 3, "b": 2, "a": 1}}

	ha, err := classify.GraphHash(a)
	require.NoError(t, err)
	hb, err := classify.GraphHash(b)
	require.NoError(t, err)

	if ha != hb {
		t.Fatalf("hash differs across map iteration order:\na: %s\nb: %s", spew.Sdump(a), spew.Sdump(b))
	}
}

func TestGraphHashDistinguishesStructure(t *testing.T) {
	type Pair struct {
		X, Y int32
	}
	h1, err := classify.GraphHash(Pair{X: 1, Y: 2})
	require.NoError(t, err)
	h2, err := classify.GraphHash(Pair{X: 2, Y: 1})
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestGraphHashIgnoresPointerIdentityOfSharedNodes(t *testing.T) {
	type Node struct {
		Value    int32
		Children []*Node
	}
	leaf := &Node{Value: 1}
	root := &Node{Value: 0, Children: []*Node{leaf, leaf}}

	h1, err := classify.GraphHash(root)
	require.NoError(t, err)

	leafCopy := &Node{Value: 1}
	rootCopy := &Node{Value: 0, Children: []*Node{leafCopy, leafCopy}}
	h2, err := classify.GraphHash(rootCopy)
	require.NoError(t, err)

	require.Equal(t, h1, h2, "structurally identical graphs with different pointer identity should hash the same")
}

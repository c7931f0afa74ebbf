// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

// KeyValuePair is the fixed 2-element record with named Key/Value slots: a
// type classifies as KeyValuePair shape when it has exactly this field
// layout. Declare it with the key/value types your field needs, e.g.
// KeyValuePair[string, int].
type KeyValuePair[K, V any] struct {
	Key   K
	Value V
}

// Tuple2 through Tuple8 are the fixed-arity tuple records, arity 2..8.
// internal/typeinfo recognizes them structurally by name and field count.
type Tuple2[A, B any] struct {
	F1 A
	F2 B
}

type Tuple3[A, B, C any] struct {
	F1 A
	F2 B
	F3 C
}

type Tuple4[A, B, C, D any] struct {
	F1 A
	F2 B
	F3 C
	F4 D
}

type Tuple5[A, B, C, D, E any] struct {
	F1 A
	F2 B
	F3 C
	F4 D
	F5 E
}

type Tuple6[A, B, C, D, E, F any] struct {
	F1 A
	F2 B
	F3 C
	F4 D
	F5 E
	F6 F
}

type Tuple7[A, B, C, D, E, F, G any] struct {
	F1 A
	F2 B
	F3 C
	F4 D
	F5 E
	F6 F
	F7 G
}

type Tuple8[A, B, C, D, E, F, G, H any] struct {
	F1 A
	F2 B
	F3 C
	F4 D
	F5 E
	F6 F
	F7 G
	F8 H
}

// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classjson

import (
	"fmt"

	"github.com/jmespath/go-jmespath"

	"github.com/classify-go/classify/classref"
)

// Query runs a JMESPath expression against a document previously produced
// or read by this package's Driver, returning the matched sub-value as
// plain Go data (maps, slices, strings, json.Number, bool, nil). It is a
// read-only diagnostic helper for picking a field out of a serialized
// document without declassifying the whole thing into a typed value.
func Query(e classref.Element, expr string) (interface{}, error) {
	el, ok := e.(*element)
	if !ok {
		return nil, fmt.Errorf("classjson: query: foreign element type %T", e)
	}
	result, err := jmespath.Search(expr, el.raw)
	if err != nil {
		return nil, fmt.Errorf("classjson: query %q: %w", expr, err)
	}
	return result, nil
}

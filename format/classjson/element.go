// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classjson

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/xconvert"
)

// element is the classjson representation of classref.Element: a thin
// wrapper over whatever the encoding/json decoder produced (or whatever
// Format* built up), interpreted lazily by each accessor according to the
// shape its caller already expects.
type element struct {
	raw interface{}
}

// payload unwraps the keyValue box a non-object payload (Simple, List) gets
// wrapped in when FormatReferable or FormatWithType needs somewhere to
// attach a control key, and the keyValues box FormatList always puts a
// Tuple's array in. KeyValuePair, Dictionary and Tuple elements are already
// JSON objects, so control keys merge directly into them; for KeyValuePair
// and Dictionary payload() returns the object itself.
func (e *element) payload() interface{} {
	if m, ok := e.raw.(map[string]interface{}); ok {
		if v, ok2 := m[keyValue]; ok2 {
			return v
		}
		if v, ok2 := m[keyValues]; ok2 {
			return v
		}
	}
	return e.raw
}

func (e *element) controlMap() (map[string]interface{}, bool) {
	m, ok := e.raw.(map[string]interface{})
	return m, ok
}

func (e *element) IsNull() bool {
	if e.raw == nil {
		return true
	}
	if m, ok := e.controlMap(); ok {
		if v, ok2 := m[keyNull]; ok2 {
			b, _ := v.(bool)
			return b
		}
	}
	return false
}

func (e *element) IsReference() bool {
	m, ok := e.controlMap()
	if !ok {
		return false
	}
	_, ok2 := m[keyRef]
	return ok2
}

func (e *element) ReferenceID() (uint64, bool) {
	m, ok := e.controlMap()
	if !ok {
		return 0, false
	}
	s, ok2 := m[keyRef].(string)
	if !ok2 {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil
}

func (e *element) IsReferable() bool {
	m, ok := e.controlMap()
	if !ok {
		return false
	}
	_, ok2 := m[keyRefID]
	return ok2
}

func (e *element) ReferableID() (uint64, bool) {
	m, ok := e.controlMap()
	if !ok {
		return 0, false
	}
	s, ok2 := m[keyRefID].(string)
	if !ok2 {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil
}

func (e *element) IsFollowID() bool {
	m, ok := e.controlMap()
	if !ok {
		return false
	}
	_, ok2 := m[keyFollowID]
	return ok2
}

func (e *element) FollowID() (string, bool) {
	m, ok := e.controlMap()
	if !ok {
		return "", false
	}
	s, ok2 := m[keyFollowID].(string)
	return s, ok2
}

func (e *element) TypeTag() (string, bool, bool) {
	m, ok := e.controlMap()
	if !ok {
		return "", false, false
	}
	if s, ok2 := m[keyFullType].(string); ok2 {
		return s, true, true
	}
	if s, ok2 := m[keyType].(string); ok2 {
		return s, false, true
	}
	return "", false, false
}

func (e *element) Simple() (classref.SimpleValue, bool) {
	switch v := e.payload().(type) {
	case bool:
		return classref.Bool(v), true
	case string:
		return classref.String(v), true
	case json.Number:
		s := string(v)
		if !strings.ContainsAny(s, ".eE") {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return classref.Int64(n), true
			}
			if u, err := strconv.ParseUint(s, 10, 64); err == nil {
				return classref.Uint64(u), true
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return classref.SimpleValue{}, false
		}
		return classref.Float64(f), true
	case float64:
		return classref.Float64(v), true
	case int8, int16, int32, int64, int, uint8, uint16, uint32, uint64, uint, float32:
		// An element built by FormatSimple and not yet through a stream
		// still holds the native Go number simpleToJSON stored.
		rv := reflect.ValueOf(v)
		if kind, ok := xconvert.KindForType(rv.Type()); ok {
			return xconvert.ToWire(rv, kind), true
		}
	}
	return classref.SimpleValue{}, false
}

func (e *element) Self() (classref.Element, bool) {
	return &element{raw: e.raw}, true
}

func (e *element) List(tupleArity int) ([]classref.Element, bool) {
	arr, ok := e.payload().([]interface{})
	if !ok {
		return nil, false
	}
	if tupleArity > 0 && len(arr) != tupleArity {
		return nil, false
	}
	elems := make([]classref.Element, len(arr))
	for i, v := range arr {
		elems[i] = &element{raw: v}
	}
	return elems, true
}

func (e *element) KeyValuePair() (classref.Element, classref.Element, bool) {
	m, ok := e.payload().(map[string]interface{})
	if !ok {
		return nil, nil, false
	}
	k, ok1 := m["Key"]
	v, ok2 := m["Value"]
	if !ok1 || !ok2 {
		return nil, nil, false
	}
	return &element{raw: k}, &element{raw: v}, true
}

// reservedKeys are the control keys FormatReferable/FormatWithType/etc. may
// merge directly into a Dictionary's own JSON object (the same way they
// merge into an Object's field map); a Dictionary key stringifying to one
// of these literally is escaped by escapeUserKey, so anything appearing
// unescaped here is always a control key, never user data.
var reservedKeys = map[string]bool{
	keyType:           true,
	keyFullType:       true,
	keyRef:            true,
	keyRefID:          true,
	keyValue:          true,
	keyDeclaringTypes: true,
	keyValues:         true,
	keyFollowID:       true,
	keyNull:           true,
}

// unescapeUserKey reverses escapeUserKey's leading-colon doubling.
func unescapeUserKey(name string) string {
	if strings.HasPrefix(name, "::") {
		return name[1:]
	}
	return name
}

func (e *element) Dictionary() ([]classref.DictEntry, bool) {
	m, ok := e.payload().(map[string]interface{})
	if !ok {
		return nil, false
	}
	entries := make([]classref.DictEntry, 0, len(m))
	for k, v := range m {
		if reservedKeys[k] {
			continue
		}
		entries = append(entries, classref.DictEntry{
			Key:   &element{raw: unescapeUserKey(k)},
			Value: &element{raw: v},
		})
	}
	return entries, true
}

func (e *element) HasField(name, declaringType string) bool {
	m, ok := e.controlMap()
	if !ok {
		return false
	}
	_, ok2 := m[escapeUserKey(name)]
	return ok2
}

func (e *element) Field(name, declaringType string) (classref.Element, bool) {
	m, ok := e.controlMap()
	if !ok {
		return nil, false
	}
	v, ok2 := m[escapeUserKey(name)]
	if !ok2 {
		return nil, false
	}
	return &element{raw: v}, true
}

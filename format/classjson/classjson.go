// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classjson is a classref.FormatDriver that renders the IR as
// JSON. Reserved control keys carry identity and type information
// alongside a node's own fields; a user field that happens to start with
// ':' is escaped by doubling the leading colon, so it never collides with
// a control key on the wire.
package classjson

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/xconvert"
)

const (
	keyType           = ":type"
	keyFullType       = ":fulltype"
	keyRef            = ":ref"
	keyRefID          = ":refid"
	keyValue          = ":value"
	keyDeclaringTypes = ":declaringTypes"
	keyValues         = ":values"
	keyFollowID       = ":followid"
	keyNull           = ":null"
)

// Driver implements classref.FormatDriver for JSON.
type Driver struct {
	// Indent, when non-empty, is used as the per-level indent string for
	// WriteToStream (json.MarshalIndent-style pretty printing).
	Indent string
}

// New returns a compact-output JSON driver.
func New() *Driver { return &Driver{} }

func (d *Driver) ReadFromStream(r io.Reader) (classref.Element, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("classjson: %w", err)
	}
	return &element{raw: raw}, nil
}

func (d *Driver) WriteToStream(e classref.Element, w io.Writer) error {
	el, ok := e.(*element)
	if !ok {
		return fmt.Errorf("classjson: foreign element type %T", e)
	}
	enc := json.NewEncoder(w)
	if d.Indent != "" {
		enc.SetIndent("", d.Indent)
	}
	return enc.Encode(el.raw)
}

func (d *Driver) FormatNull() classref.Element {
	return &element{raw: map[string]interface{}{keyNull: true}}
}

func (d *Driver) FormatSimple(v classref.SimpleValue) classref.Element {
	return &element{raw: simpleToJSON(v)}
}

func (d *Driver) FormatSelf(e classref.Element) classref.Element {
	if inner, ok := e.(*element); ok {
		return &element{raw: inner.raw}
	}
	return &element{raw: nil}
}

func (d *Driver) FormatList(isTuple bool, elems []classref.Element) classref.Element {
	arr := make([]interface{}, len(elems))
	for i, e := range elems {
		arr[i] = rawOf(e)
	}
	if !isTuple {
		return &element{raw: arr}
	}
	return &element{raw: map[string]interface{}{keyValues: arr}}
}

func (d *Driver) FormatKeyValuePair(key, value classref.Element) classref.Element {
	return &element{raw: map[string]interface{}{
		"Key":   rawOf(key),
		"Value": rawOf(value),
	}}
}

// FormatDictionary renders a Dictionary-shape element as a genuine JSON
// object keyed by the stringified key, e.g. {"Red": 1, "Blue": 2}, not an
// array of key/value pairs. A key is read back as a Simple String value on
// Dictionary(), and the usual ExactConvert coercion (internal/xconvert)
// recovers the declared key type (int, enum-backed int, ...) from that
// string the same way a field's text form is parsed elsewhere.
func (d *Driver) FormatDictionary(entries []classref.DictEntry) classref.Element {
	m := make(map[string]interface{}, len(entries))
	for _, ent := range entries {
		m[escapeUserKey(dictKeyString(ent.Key))] = rawOf(ent.Value)
	}
	return &element{raw: m}
}

// dictKeyString renders a Dictionary key element to the text form its JSON
// object key takes on the wire.
func dictKeyString(keyEl classref.Element) string {
	el, ok := keyEl.(*element)
	if !ok {
		return ""
	}
	sv, ok := el.Simple()
	if !ok {
		return ""
	}
	return xconvert.FormatString(sv)
}

func (d *Driver) FormatObject(fields []classref.Field) classref.Element {
	m := make(map[string]interface{}, len(fields))
	declaring := make(map[string]string)
	for _, f := range fields {
		key := escapeUserKey(f.Name)
		m[key] = rawOf(f.Value)
		if f.DeclaringType != "" {
			declaring[f.Name] = f.DeclaringType
		}
	}
	if len(declaring) > 0 {
		m[keyDeclaringTypes] = declaring
	}
	return &element{raw: m}
}

func (d *Driver) FormatReference(id uint64) classref.Element {
	return &element{raw: map[string]interface{}{keyRef: strconv.FormatUint(id, 10)}}
}

func (d *Driver) FormatReferable(e classref.Element, id uint64) classref.Element {
	m, ok := e.(*element)
	if !ok {
		return e
	}
	obj, ok := m.raw.(map[string]interface{})
	if !ok {
		obj = map[string]interface{}{keyValue: m.raw}
	}
	obj[keyRefID] = strconv.FormatUint(id, 10)
	return &element{raw: obj}
}

func (d *Driver) FormatWithType(e classref.Element, name string, full bool) classref.Element {
	m, ok := e.(*element)
	if !ok {
		return e
	}
	obj, ok := m.raw.(map[string]interface{})
	if !ok {
		obj = map[string]interface{}{keyValue: m.raw}
	}
	if full {
		obj[keyFullType] = name
	} else {
		obj[keyType] = name
	}
	return &element{raw: obj}
}

func (d *Driver) FormatFollowID(id string) classref.Element {
	return &element{raw: map[string]interface{}{keyFollowID: id}}
}

func (d *Driver) ThrowMissingReferable(id uint64) error {
	return fmt.Errorf("classjson: reference %d: no referable was observed for it", id)
}

func rawOf(e classref.Element) interface{} {
	if el, ok := e.(*element); ok {
		return el.raw
	}
	return nil
}

// escapeUserKey doubles a leading colon on a user field name so it can
// never collide with a ":"-prefixed control key.
func escapeUserKey(name string) string {
	if len(name) > 0 && name[0] == ':' {
		return ":" + name
	}
	return name
}

func simpleToJSON(v classref.SimpleValue) interface{} {
	switch v.Kind {
	case classref.KindBool:
		return v.AsBool()
	case classref.KindInt8, classref.KindInt16, classref.KindInt32, classref.KindInt64,
		classref.KindUint8, classref.KindUint16, classref.KindUint32, classref.KindUint64,
		classref.KindFloat32, classref.KindFloat64:
		return v.Interface()
	case classref.KindString:
		return v.AsString()
	default:
		// Decimal, Char, and DateTime use the culture-invariant textual
		// form rather than a JSON number; a non-integral Decimal's text
		// is its nearest float64 (see classref.Decimal.String).
		return xconvert.FormatString(v)
	}
}

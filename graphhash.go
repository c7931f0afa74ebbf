// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"encoding/binary"
	"reflect"
	"sort"

	"github.com/spaolacci/murmur3"

	"github.com/classify-go/classify/classref"
	"github.com/classify-go/classify/internal/typeinfo"
	"github.com/classify-go/classify/internal/xconvert"
)

// GraphHash computes a structural-identity hash of v: two values produce
// the same hash whenever Classify would emit the same IR for both,
// independent of map iteration order, pointer identity, or which format
// drivers happen to be in use. It walks the same Shape dispatch Classify
// does, folding each node's contribution through a single running
// murmur3 state, so comparing the hash of a value before and after a
// Serialize/Deserialize cycle checks structure rather than just type.
func GraphHash(v interface{}) (uint64, error) {
	h := murmur3.New64()
	seen := make(map[identityKey]bool)
	if err := hashValue(h, reflect.ValueOf(v), seen); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func hashValue(h interface{ Write([]byte) (int, error) }, rv reflect.Value, seen map[identityKey]bool) error {
	w := func(tag byte, p []byte) error {
		if _, err := h.Write([]byte{tag}); err != nil {
			return err
		}
		_, err := h.Write(p)
		return err
	}

	rv, isNil := unwrapPointer(rv)
	if isNil {
		return w(0x00, nil)
	}

	if key, ok := identityOf(rv); ok {
		if seen[key] {
			return w(0x01, nil)
		}
		seen[key] = true
	}

	desc, err := typeinfo.Of(rv.Type())
	if err != nil {
		return err
	}

	switch desc.Shape {
	case classref.ShapeSimple:
		kind, _ := xconvert.KindForType(rv.Type())
		sv := xconvert.ToWire(rv, kind)
		buf := []byte(xconvert.FormatString(sv))
		return w(byte(kind)+0x10, buf)

	case classref.ShapeList:
		n := rv.Len()
		if err := w(0x20, lenBytes(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := hashValue(h, rv.Index(i), seen); err != nil {
				return err
			}
		}
		return nil

	case classref.ShapeTuple:
		n := desc.Arity
		if err := w(0x25, lenBytes(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := hashValue(h, rv.Field(i), seen); err != nil {
				return err
			}
		}
		return nil

	case classref.ShapeKeyValuePair:
		if err := w(0x21, nil); err != nil {
			return err
		}
		if err := hashValue(h, rv.Field(0), seen); err != nil {
			return err
		}
		return hashValue(h, rv.Field(1), seen)

	case classref.ShapeDictionary:
		keys := rv.MapKeys()
		type kv struct {
			text string
			key  reflect.Value
		}
		sortable := make([]kv, len(keys))
		for i, k := range keys {
			kind, _ := xconvert.KindForType(k.Type())
			sortable[i] = kv{text: xconvert.FormatString(xconvert.ToWire(k, kind)), key: k}
		}
		sort.Slice(sortable, func(i, j int) bool { return sortable[i].text < sortable[j].text })
		if err := w(0x22, lenBytes(len(sortable))); err != nil {
			return err
		}
		for _, e := range sortable {
			if err := hashValue(h, e.key, seen); err != nil {
				return err
			}
			if err := hashValue(h, rv.MapIndex(e.key), seen); err != nil {
				return err
			}
		}
		return nil

	case classref.ShapeObject:
		if err := w(0x23, []byte(rv.Type().Name())); err != nil {
			return err
		}
		for _, m := range desc.Members {
			if m.Ignore {
				continue
			}
			fv := rv.FieldByIndex(m.Index)
			if err := w(0x24, []byte(m.Name)); err != nil {
				return err
			}
			if err := hashValue(h, fv, seen); err != nil {
				return err
			}
		}
		return nil

	default:
		return w(0xFF, nil)
	}
}

func lenBytes(n int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	return buf[:]
}

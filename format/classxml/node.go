// Copyright 2024 The Classify Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classxml

import (
	"encoding/xml"
)

// node is the in-memory XML tree classxml builds and walks; it exists
// because the IR's shape is only known at the call site (unlike a fixed
// Go struct encoding/xml could marshal directly), so the tree is built by
// hand from xml.Token values instead.
type node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	HasText  bool
	Children []*node
}

func decodeNode(dec *xml.Decoder) (*node, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeElement(dec, start)
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (*node, error) {
	n := &node{Name: start.Name.Local, Attrs: map[string]string{}}
	for _, a := range start.Attr {
		n.Attrs[a.Name.Local] = a.Value
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			if len(n.Children) == 0 {
				n.Text += string(t)
				n.HasText = true
			}
		case xml.EndElement:
			return n, nil
		}
	}
}

func encodeNode(enc *xml.Encoder, n *node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}}
	for k, v := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: k}, Value: v})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.HasText {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: start.Name})
}

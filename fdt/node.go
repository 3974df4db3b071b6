// Copyright 2023 The Armored Witness authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fdt

import (
	"fmt"
	"strings"

	"github.com/google/btree"
)

// nodeNameChars is the character class both the node-name and
// unit-address parts of a node name are drawn from (spec.md §3): no
// '?' or '#', unlike property names.
const nodeNameChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz,._+-"

func validateNodeName(name string) error {
	if name == "" || len(name) > maxNameLen {
		return fmt.Errorf("%w: node name %q must be 1..%d bytes", ErrInvalidArgument, name, maxNameLen)
	}
	base, addr, hasAddr := strings.Cut(name, "@")
	if base == "" {
		return fmt.Errorf("%w: node name %q has an empty node-name part", ErrInvalidArgument, name)
	}
	if hasAddr && addr == "" {
		return fmt.Errorf("%w: node name %q has an empty unit-address part", ErrInvalidArgument, name)
	}
	for _, part := range []string{base, addr} {
		for _, c := range part {
			if !strings.ContainsRune(nodeNameChars, c) {
				return fmt.Errorf("%w: node name %q has disallowed character %q", ErrInvalidArgument, name, c)
			}
		}
	}
	return nil
}

// NodeName returns the part of a node's name before '@'.
func NodeName(n *Node) string {
	base, _, _ := strings.Cut(n.name, "@")
	return base
}

// UnitAddress returns the part of a node's name after '@', if present.
func UnitAddress(n *Node) (string, bool) {
	_, addr, ok := strings.Cut(n.name, "@")
	return addr, ok
}

// childItem is the btree.Item wrapping a named child, ordered by name.
type childItem struct {
	name  string
	piece Piece
}

func (c childItem) Less(than btree.Item) bool {
	return c.name < than.(childItem).name
}

// btreeDegree matches the default google/btree examples use for small
// in-memory ordered sets; node child counts in practice are small (tens
// of entries), so this is not performance sensitive.
const btreeDegree = 8

// Node is a piece owning an ordered collection of children keyed by
// name (spec.md §3, §4.5).
type Node struct {
	name     string
	parent   *Node
	children *btree.BTree
}

// newRoot creates the empty-named, parent-less root node of a fresh
// tree.
func newRoot() *Node {
	return &Node{children: btree.New(btreeDegree)}
}

func (n *Node) Name() string { return n.name }

func (n *Node) Parent() (*Node, bool) {
	if n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

// FindChild returns the direct child named name, or (nil, false). This
// is the find(name) of spec.md §4.5; it does not resolve a
// '/'-separated path or fall back to unit-address elision — see the
// path-resolving Find for that.
func (n *Node) FindChild(name string) (Piece, bool) {
	item := n.children.Get(childItem{name: name})
	if item == nil {
		return nil, false
	}
	return item.(childItem).piece, true
}

// Children returns all direct children in ascending byte-lex name
// order (spec.md §4.5, §8 "Ordering").
func (n *Node) Children() []Piece {
	out := make([]Piece, 0, n.children.Len())
	n.children.Ascend(func(i btree.Item) bool {
		out = append(out, i.(childItem).piece)
		return true
	})
	return out
}

// Properties returns the *Property children, in order.
func (n *Node) Properties() []*Property {
	var out []*Property
	for _, c := range n.Children() {
		if p, ok := c.(*Property); ok {
			out = append(out, p)
		}
	}
	return out
}

// Subnodes returns the *Node children, in order.
func (n *Node) Subnodes() []*Node {
	var out []*Node
	for _, c := range n.Children() {
		if sub, ok := c.(*Node); ok {
			out = append(out, sub)
		}
	}
	return out
}

// AddNode inserts and returns a new child node named name, failing
// ErrInvalidArgument if name is malformed or a child of that name
// already exists.
func (n *Node) AddNode(name string) (*Node, error) {
	if err := validateNodeName(name); err != nil {
		return nil, err
	}
	if _, exists := n.FindChild(name); exists {
		return nil, fmt.Errorf("%w: name %q exists", ErrInvalidArgument, name)
	}
	newChild := &Node{name: name, parent: n, children: btree.New(btreeDegree)}
	n.children.ReplaceOrInsert(childItem{name: name, piece: newChild})
	return newChild, nil
}

// AddProperty inserts and returns a new property named name, failing
// ErrInvalidArgument if name is malformed or a child of that name
// already exists.
func (n *Node) AddProperty(name string) (*Property, error) {
	if err := validatePropertyName(name); err != nil {
		return nil, err
	}
	if _, exists := n.FindChild(name); exists {
		return nil, fmt.Errorf("%w: name %q exists", ErrInvalidArgument, name)
	}
	prop := &Property{name: name, parent: n}
	n.children.ReplaceOrInsert(childItem{name: name, piece: prop})
	return prop, nil
}

// Equal reports whether n and o have the same name and their ordered
// child sequences are equal element-wise (spec.md §4.4).
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.name != o.name {
		return false
	}
	nc, oc := n.Children(), o.Children()
	if len(nc) != len(oc) {
		return false
	}
	for i := range nc {
		switch a := nc[i].(type) {
		case *Property:
			b, ok := oc[i].(*Property)
			if !ok || !a.Equal(b) {
				return false
			}
		case *Node:
			b, ok := oc[i].(*Node)
			if !ok || !a.Equal(b) {
				return false
			}
		}
	}
	return true
}

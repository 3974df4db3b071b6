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

// findChild resolves a single path component against n's children:
// exact name match first, then (if component has no '@') a
// unit-address-elided match against the lowest-named subnode whose
// node-name part equals component. Ported from find_impl in
// libfdt++.cpp; ambiguous matches are not diagnosed, per spec.md §9.
func findChild(n *Node, component string) (Piece, bool) {
	if piece, ok := n.FindChild(component); ok {
		return piece, true
	}
	if strings.Contains(component, "@") {
		return nil, false
	}
	var found Piece
	prefix := component + "@"
	n.children.AscendGreaterOrEqual(childItem{name: component}, func(i btree.Item) bool {
		name := i.(childItem).name
		if !strings.HasPrefix(name, component) {
			return false
		}
		if strings.HasPrefix(name, prefix) {
			found = i.(childItem).piece
			return false
		}
		// name shares the "component" prefix but diverges before
		// reaching '@' (e.g. "component1"); keep scanning until we
		// either find the "component@..." range or leave the shared
		// prefix entirely.
		return true
	})
	return found, found != nil
}

// find resolves a '/'-separated relative path against n, recursing
// component by component. An empty path (after any leading '/' has
// already been stripped by the caller) refers to n itself.
func find(n *Node, path string) (Piece, error) {
	if path == "" {
		return n, nil
	}
	component, rest, hasRest := strings.Cut(path, "/")
	if component == "" {
		return nil, fmt.Errorf("%w: empty path component in %q", ErrInvalidArgument, path)
	}
	piece, ok := findChild(n, component)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, component)
	}
	if !hasRest {
		return piece, nil
	}
	next, err := AsNode(piece)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is a property, not a node, partway through path", ErrBadCast, component)
	}
	return find(next, rest)
}

// Find resolves a relative path against n. path must not have a
// leading '/' and must not contain empty components.
func (n *Node) Find(path string) (Piece, error) {
	return find(n, path)
}

// GetNode resolves path against n and asserts the result is a node.
func (n *Node) GetNode(path string) (*Node, error) {
	p, err := find(n, path)
	if err != nil {
		return nil, err
	}
	return AsNode(p)
}

// GetProperty resolves path against n and asserts the result is a
// property.
func (n *Node) GetProperty(path string) (*Property, error) {
	p, err := find(n, path)
	if err != nil {
		return nil, err
	}
	return AsProperty(p)
}

// Find resolves an absolute path against the tree's root. path must
// start with '/'.
func (t *FDT) Find(path string) (Piece, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: absolute path %q must start with '/'", ErrInvalidArgument, path)
	}
	rest := path[1:]
	if rest == "" {
		return nil, fmt.Errorf("%w: %q must be followed by at least one component", ErrInvalidArgument, path)
	}
	return find(t.root, rest)
}

// GetNode resolves an absolute path against the tree and asserts the
// result is a node.
func (t *FDT) GetNode(path string) (*Node, error) {
	p, err := t.Find(path)
	if err != nil {
		return nil, err
	}
	return AsNode(p)
}

// GetProperty resolves an absolute path against the tree and asserts
// the result is a property.
func (t *FDT) GetProperty(path string) (*Property, error) {
	p, err := t.Find(path)
	if err != nil {
		return nil, err
	}
	return AsProperty(p)
}

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

import "fmt"

// Piece is the common supertype of properties and nodes (spec.md §3).
// It is a two-case tagged variant implemented by *Node and *Property,
// the idiomatic Go stand-in for the original's class hierarchy plus
// RTTI-style casts (spec.md §9's "dynamic dispatch between property and
// node" note).
type Piece interface {
	// Name returns the piece's name. Immutable after construction.
	Name() string

	// Parent returns the owning node and true, or (nil, false) for
	// the root node, which has no parent.
	Parent() (*Node, bool)
}

// IsNode reports whether p is a *Node.
func IsNode(p Piece) bool {
	_, ok := p.(*Node)
	return ok
}

// IsProperty reports whether p is a *Property.
func IsProperty(p Piece) bool {
	_, ok := p.(*Property)
	return ok
}

// AsNode casts p to *Node, failing with ErrBadCast if p is a property.
func AsNode(p Piece) (*Node, error) {
	n, ok := p.(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a node", ErrBadCast, p.Name())
	}
	return n, nil
}

// AsProperty casts p to *Property, failing with ErrBadCast if p is a
// node.
func AsProperty(p Piece) (*Property, error) {
	pr, ok := p.(*Property)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a property", ErrBadCast, p.Name())
	}
	return pr, nil
}

// Root walks p's parent chain up to the tree's root node.
func Root(p Piece) *Node {
	for {
		parent, ok := p.Parent()
		if !ok {
			if n, ok := p.(*Node); ok {
				return n
			}
			// A property with no parent cannot occur, but fall
			// through defensively rather than loop forever.
			return nil
		}
		p = parent
	}
}

// Path returns p's absolute path, the concatenation of every ancestor's
// name from the root down to p, separated by '/'.
func Path(p Piece) string {
	var segs []string
	for {
		segs = append(segs, p.Name())
		parent, ok := p.Parent()
		if !ok {
			break
		}
		p = parent
	}
	out := ""
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] == "" {
			continue // root's empty name contributes no segment
		}
		out += "/" + segs[i]
	}
	if out == "" {
		return "/"
	}
	return out
}

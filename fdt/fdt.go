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

// FDT is a tree wrapper owning exactly one root node (spec.md §3). The
// root's children are the tree's top-level nodes/properties; FDT itself
// is domain-agnostic — FIT conventions are layered on top by the fit
// package.
type FDT struct {
	root *Node
}

// New returns an empty tree: a root node with no children.
func New() *FDT {
	return &FDT{root: newRoot()}
}

// Root returns the tree's root node.
func (t *FDT) Root() *Node {
	return t.root
}

// Equal reports whether t and o have structurally equal root nodes
// (spec.md §4.4).
func (t *FDT) Equal(o *FDT) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.root.Equal(o.root)
}

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
	"encoding/binary"
	"errors"
	"fmt"
)

// errNoSpace is the internal "buffer exhausted, grow and retry" signal
// described in spec.md §4.3 and §9 ("resizable buffer with 'no space,
// retry' protocol"). It never escapes Serialize.
var errNoSpace = errors.New("fdt: no space")

// initialSerializeCapacity is the first guess trySerialize is attempted
// with; chosen large enough that small trees serialize in one try.
const initialSerializeCapacity = 4096

// Serialize encodes the tree into the canonical FDT binary format
// (spec.md §4.3): header, a single zero-pair reservation terminator
// (the memory-reservation block itself is a non-goal, per spec.md §1),
// depth-first structure block, deduplicated strings block, END tag.
//
// The output buffer grows geometrically and the whole attempt is
// retried whenever capacity runs out, the translation of the original's
// "call the serializer in a loop until it succeeds" contract into Go,
// where slices make resuming mid-write unnecessary (see DESIGN.md).
func (t *FDT) Serialize() ([]byte, error) {
	cap := initialSerializeCapacity
	for {
		buf, err := trySerialize(t, cap)
		if errors.Is(err, errNoSpace) {
			cap *= 2
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf, nil
	}
}

// writer is a capacity-bounded append buffer that reports errNoSpace
// instead of growing past cap, so Serialize's outer loop can restart at
// a larger capacity.
type writer struct {
	buf []byte
	cap int
}

func (w *writer) put(b []byte) error {
	if len(w.buf)+len(b) > w.cap {
		return errNoSpace
	}
	w.buf = append(w.buf, b...)
	return nil
}

func (w *writer) putU32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return w.put(b[:])
}

func (w *writer) putAligned(b []byte) error {
	if err := w.put(b); err != nil {
		return err
	}
	if pad := align4(len(b)) - len(b); pad > 0 {
		return w.put(make([]byte, pad))
	}
	return nil
}

func (w *writer) putCStringAligned(s string) error {
	return w.putAligned(append([]byte(s), 0))
}

func trySerialize(t *FDT, capacity int) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, capacity), cap: capacity}

	// Reserve the header; patched in place once offsets are known.
	if err := w.put(make([]byte, headerSize)); err != nil {
		return nil, err
	}

	offMemRsvmap := len(w.buf)
	if err := w.put(make([]byte, 16)); err != nil { // zero (addr, size) terminator
		return nil, err
	}

	// First pass: collect the deduplicated, first-encountered-order
	// strings table and each name's offset within it.
	stringsOrder, stringsOff := collectStrings(t.root)

	offDtStruct := len(w.buf)
	if err := writeStructNode(w, t.root, stringsOff); err != nil {
		return nil, err
	}
	if err := w.putU32(tagEnd); err != nil {
		return nil, err
	}
	sizeDtStruct := len(w.buf) - offDtStruct

	offDtStrings := len(w.buf)
	for _, s := range stringsOrder {
		if err := w.put(append([]byte(s), 0)); err != nil {
			return nil, err
		}
	}
	sizeDtStrings := len(w.buf) - offDtStrings

	totalSize := len(w.buf)
	h := header{
		magic:           magic,
		totalSize:       uint32(totalSize),
		offDtStruct:     uint32(offDtStruct),
		offDtStrings:    uint32(offDtStrings),
		offMemRsvmap:    uint32(offMemRsvmap),
		version:         formatVersion,
		lastCompVersion: lastCompVersion,
		bootCpuidPhys:   0,
		sizeDtStrings:   uint32(sizeDtStrings),
		sizeDtStruct:    uint32(sizeDtStruct),
	}
	putHeader(w.buf[:headerSize], h)

	return w.buf[:totalSize], nil
}

func putHeader(b []byte, h header) {
	fields := [10]uint32{
		h.magic, h.totalSize, h.offDtStruct, h.offDtStrings, h.offMemRsvmap,
		h.version, h.lastCompVersion, h.bootCpuidPhys, h.sizeDtStrings, h.sizeDtStruct,
	}
	for i, v := range fields {
		binary.BigEndian.PutUint32(b[i*4:i*4+4], v)
	}
}

// collectStrings walks the tree in the same depth-first, name-sorted
// order the structure block is emitted in, recording each distinct
// property name's offset on first encounter (spec.md §4.3's
// "deduplicated concatenation of NUL-terminated property names").
func collectStrings(n *Node) ([]string, map[string]uint32) {
	var order []string
	offsets := make(map[string]uint32)
	var off uint32
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.Children() {
			switch piece := c.(type) {
			case *Property:
				if _, ok := offsets[piece.name]; !ok {
					offsets[piece.name] = off
					order = append(order, piece.name)
					off += uint32(len(piece.name)) + 1
				}
			case *Node:
				walk(piece)
			}
		}
	}
	walk(n)
	return order, offsets
}

// writeStructNode emits one BEGIN_NODE/properties/subnodes/END_NODE
// run, depth-first, in the node's canonical ascending child order
// (spec.md §4.3).
func writeStructNode(w *writer, n *Node, stringsOff map[string]uint32) error {
	if err := w.putU32(tagBeginNode); err != nil {
		return err
	}
	if err := w.putCStringAligned(n.name); err != nil {
		return err
	}
	for _, c := range n.Children() {
		switch piece := c.(type) {
		case *Property:
			if err := writeStructProp(w, piece, stringsOff); err != nil {
				return err
			}
		case *Node:
			if err := writeStructNode(w, piece, stringsOff); err != nil {
				return err
			}
		}
	}
	return w.putU32(tagEndNode)
}

func writeStructProp(w *writer, p *Property, stringsOff map[string]uint32) error {
	off, ok := stringsOff[p.name]
	if !ok {
		return fmt.Errorf("%w: property %q missing from strings table", ErrMalformed, p.name)
	}
	if err := w.putU32(tagProp); err != nil {
		return err
	}
	if err := w.putU32(uint32(len(p.value))); err != nil {
		return err
	}
	if err := w.putU32(off); err != nil {
		return err
	}
	return w.putAligned(p.value)
}

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
	"fmt"
)

// Parse decodes a complete FDT blob into a tree (spec.md §4.2). b must
// already be fully resident in memory; reading it from disk or over
// the network is the caller's concern (spec.md §1's "file-I/O utility"
// external collaborator).
func Parse(b []byte) (*FDT, error) {
	h, err := parseHeader(b)
	if err != nil {
		return nil, err
	}
	structEnd := h.offDtStruct + h.sizeDtStruct
	if uint64(structEnd) > uint64(len(b)) {
		return nil, fmt.Errorf("%w: structure block extends past input", ErrTruncated)
	}
	stringsBlock, err := sliceRange(b, h.offDtStrings, h.sizeDtStrings, "strings block")
	if err != nil {
		return nil, err
	}

	t := New()
	off := h.offDtStruct
	stack := []*Node{t.root}

	for {
		tag, err := readU32At(b, off)
		if err != nil {
			return nil, fmt.Errorf("%w: reading structure tag at %d", ErrTruncated, off)
		}
		off += 4

		switch tag {
		case tagNop:
			// ignore (spec.md §4.2 step 5)

		case tagBeginNode:
			name, n, err := readCStringAligned(b, off)
			if err != nil {
				return nil, err
			}
			off += uint32(n)
			parent := stack[len(stack)-1]
			var child *Node
			if parent == t.root && name == "" {
				// The root node itself has no name in the
				// structure block's own BEGIN_NODE; it was
				// already allocated as t.root.
				child = t.root
			} else {
				child, err = parent.AddNode(name)
				if err != nil {
					return nil, err
				}
			}
			stack = append(stack, child)

		case tagEndNode:
			if len(stack) <= 1 {
				return nil, fmt.Errorf("%w: unexpected END_NODE at top level", ErrMalformed)
			}
			stack = stack[:len(stack)-1]

		case tagProp:
			valLen, err := readU32At(b, off)
			if err != nil {
				return nil, fmt.Errorf("%w: reading prop length at %d", ErrTruncated, off)
			}
			off += 4
			nameOff, err := readU32At(b, off)
			if err != nil {
				return nil, fmt.Errorf("%w: reading prop nameoff at %d", ErrTruncated, off)
			}
			off += 4
			name, err := readCStringAt(stringsBlock, nameOff)
			if err != nil {
				return nil, err
			}
			val, err := sliceRange(b, off, valLen, "property value")
			if err != nil {
				return nil, err
			}
			off += uint32(align4(int(valLen)))

			parent := stack[len(stack)-1]
			prop, err := parent.AddProperty(name)
			if err != nil {
				return nil, err
			}
			prop.SetBytes(val)

		case tagEnd:
			if len(stack) != 1 {
				return nil, fmt.Errorf("%w: END reached with unclosed nodes", ErrMalformed)
			}
			return t, nil

		default:
			return nil, fmt.Errorf("%w: unknown structure tag %d at offset %d", ErrMalformed, tag, off-4)
		}
	}
}

func parseHeader(b []byte) (header, error) {
	if len(b) < headerSize {
		return header{}, fmt.Errorf("%w: input shorter than header", ErrTruncated)
	}
	fields := make([]uint32, 10)
	for i := range fields {
		fields[i] = binary.BigEndian.Uint32(b[i*4 : i*4+4])
	}
	h := header{
		magic:           fields[0],
		totalSize:       fields[1],
		offDtStruct:     fields[2],
		offDtStrings:    fields[3],
		offMemRsvmap:    fields[4],
		version:         fields[5],
		lastCompVersion: fields[6],
		bootCpuidPhys:   fields[7],
		sizeDtStrings:   fields[8],
		sizeDtStruct:    fields[9],
	}
	if h.magic != magic {
		return header{}, fmt.Errorf("%w: bad magic %#08x", ErrMalformed, h.magic)
	}
	if h.version < minParseVersion || h.lastCompVersion > maxLastCompParse {
		return header{}, fmt.Errorf("%w: unsupported version %d (compatible %d)", ErrMalformed, h.version, h.lastCompVersion)
	}
	if uint64(h.totalSize) < uint64(headerSize) {
		return header{}, fmt.Errorf("%w: total size %d smaller than header", ErrTruncated, h.totalSize)
	}
	if uint64(h.totalSize) > uint64(len(b)) {
		return header{}, fmt.Errorf("%w: total size %d exceeds input length %d", ErrTruncated, h.totalSize, len(b))
	}
	return h, nil
}

func readU32At(b []byte, off uint32) (uint32, error) {
	v, err := sliceRange(b, off, 4, "u32")
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v), nil
}

// sliceRange returns b[off:off+length], bounds-checked.
func sliceRange(b []byte, off, length uint32, what string) ([]byte, error) {
	start := uint64(off)
	end := start + uint64(length)
	if end > uint64(len(b)) {
		return nil, fmt.Errorf("%w: %s at offset %d length %d exceeds input", ErrTruncated, what, off, length)
	}
	return b[start:end], nil
}

// readCStringAligned reads a NUL-terminated string starting at off and
// returns it along with the total number of bytes consumed (the string
// plus its NUL, padded up to a 4-byte boundary) — the BEGIN_NODE name
// encoding (spec.md §6).
func readCStringAligned(b []byte, off uint32) (string, int, error) {
	if uint64(off) > uint64(len(b)) {
		return "", 0, fmt.Errorf("%w: node name offset %d exceeds input", ErrTruncated, off)
	}
	rest := b[off:]
	nul := indexByte(rest, 0)
	if nul < 0 {
		return "", 0, fmt.Errorf("%w: unterminated node name at offset %d", ErrTruncated, off)
	}
	return string(rest[:nul]), align4(nul + 1), nil
}

// readCStringAt reads a NUL-terminated string from block starting at
// off, failing if the NUL is missing within the block's bounds
// (spec.md §4.2 step 4).
func readCStringAt(block []byte, off uint32) (string, error) {
	if uint64(off) > uint64(len(block)) {
		return "", fmt.Errorf("%w: strings-block offset %d out of range", ErrTruncated, off)
	}
	rest := block[off:]
	nul := indexByte(rest, 0)
	if nul < 0 {
		return "", fmt.Errorf("%w: unterminated string at strings-block offset %d", ErrMalformed, off)
	}
	return string(rest[:nul]), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

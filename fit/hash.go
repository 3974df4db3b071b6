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

package fit

import (
	"encoding/binary"
	"fmt"
	"hash"
	"strings"

	"github.com/transparency-dev/armored-witness-fit/fdt"
)

// Structure-block tags, duplicated from the fdt package rather than
// exported from it: libfit++.cpp itself keeps a thin raw-tag layer
// separate from its libfdt++ object-model wrapper, and hashRawNodes
// walks raw bytes the same way that raw layer does, never going through
// fdt.FDT at all.
const (
	rawTagBeginNode uint32 = 1
	rawTagEndNode   uint32 = 2
	rawTagProp      uint32 = 3
	rawTagNop       uint32 = 4
	rawTagEnd       uint32 = 9
)

func bytesIndexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// stringAt resolves a strings-block offset into the string it names,
// bounds-checked against the declared strings block extent.
func stringAt(blob []byte, stringsOff, stringsSize, nameOff uint32) (string, error) {
	if nameOff >= stringsSize {
		return "", fmt.Errorf("%w: string offset %d out of range", fdt.ErrTruncated, nameOff)
	}
	start := int(stringsOff) + int(nameOff)
	end := int(stringsOff) + int(stringsSize)
	if start > len(blob) || end > len(blob) {
		return "", fmt.Errorf("%w: strings block out of range", fdt.ErrTruncated)
	}
	rest := blob[start:end]
	nul := bytesIndexByte(rest, 0)
	if nul < 0 {
		return "", fmt.Errorf("%w: unterminated string in strings block", fdt.ErrTruncated)
	}
	return string(rest[:nul]), nil
}

// getHashValue returns the "value" of the first hash*-named subnode of n
// whose "algo" string equals algo. Subnodes without a string "algo" are
// skipped, and n itself is never examined. Ported from get_hash_value in
// libfit++.cpp.
func getHashValue(n *fdt.Node, algo string) ([]byte, error) {
	for _, sub := range n.Subnodes() {
		if !strings.HasPrefix(sub.Name(), "hash") {
			continue
		}
		got, err := getStringProperty(sub, "algo")
		if err != nil {
			continue
		}
		if got != algo {
			continue
		}
		val, err := sub.GetProperty("value")
		if err != nil {
			return nil, err
		}
		return val.AsBytes(), nil
	}
	return nil, fmt.Errorf("%w: no hash value for algorithm %q", ErrPolicy, algo)
}

// hashRawNodes streams a selected subset of an FDT blob's raw structure
// block through h: for every node whose absolute path is a key of
// hashedNodes with a true value, that node's BEGIN_NODE tag, its direct
// PROP/NOP children (except those named in excludeProps) and END_NODE
// tag are included. A direct subnode that is not itself listed
// contributes only its BEGIN_NODE and END_NODE tags; its properties and
// deeper descendants are skipped unless listed themselves. The final END
// tag is always included; everything else is skipped. A run of included bytes is
// coalesced and written to h in one call per contiguous run. Ported,
// tag for tag, from hash_raw_nodes in libfit++.cpp.
func hashRawNodes(blob []byte, structOff, structSize, stringsOff, stringsSize uint32, hashedNodes, excludeProps map[string]bool, h hash.Hash) error {
	base := int(structOff)
	limit := base + int(structSize)
	off, noff := 0, 0
	hoff := -1
	path := ""

	runHash := func(run bool) error {
		if run {
			if hoff < 0 {
				hoff = off
			}
			return nil
		}
		if hoff < 0 {
			return nil
		}
		if _, err := h.Write(blob[base+hoff : base+off]); err != nil {
			return err
		}
		hoff = -1
		return nil
	}

	var walk func(hlev int) error
	walk = func(hlev int) error {
		for {
			off = noff
			if base+off+4 > limit {
				return fmt.Errorf("%w: structure block truncated", fdt.ErrTruncated)
			}
			tag := binary.BigEndian.Uint32(blob[base+off : base+off+4])
			switch tag {
			case rawTagProp:
				if base+off+12 > limit {
					return fmt.Errorf("%w: truncated PROP header", fdt.ErrTruncated)
				}
				valLen := binary.BigEndian.Uint32(blob[base+off+4 : base+off+8])
				nameOff := binary.BigEndian.Uint32(blob[base+off+8 : base+off+12])
				name, err := stringAt(blob, stringsOff, stringsSize, nameOff)
				if err != nil {
					return err
				}
				noff = off + 12 + align4(int(valLen))
				if err := runHash(hlev > 1 && !excludeProps[name]); err != nil {
					return err
				}

			case rawTagNop:
				noff = off + 4
				if err := runHash(hlev > 1); err != nil {
					return err
				}

			case rawTagBeginNode:
				rest := blob[base+off+4:]
				nul := bytesIndexByte(rest, 0)
				if nul < 0 {
					return fmt.Errorf("%w: unterminated node name", fdt.ErrTruncated)
				}
				name := string(rest[:nul])
				noff = off + 4 + align4(nul+1)

				prevLen := len(path)
				if path == "" || path[len(path)-1] != '/' {
					path += "/"
				}
				path += name
				included := hashedNodes[path]

				if err := runHash(hlev > 1 || included); err != nil {
					return err
				}

				nextHlev := 0
				switch {
				case included:
					nextHlev = 2
				case hlev > 1:
					nextHlev = 1
				}
				if err := walk(nextHlev); err != nil {
					return err
				}
				path = path[:prevLen]

			case rawTagEndNode:
				noff = off + 4
				return runHash(hlev > 0)

			case rawTagEnd:
				noff = off + 4
				if err := runHash(true); err != nil {
					return err
				}
				return nil

			default:
				return fmt.Errorf("%w: unknown structure tag %d", fdt.ErrMalformed, tag)
			}
		}
	}

	if err := walk(0); err != nil {
		return err
	}
	off = noff
	return runHash(false)
}

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

// Structure-block tags (spec.md §6).
const (
	tagBeginNode uint32 = 1
	tagEndNode   uint32 = 2
	tagProp      uint32 = 3
	tagNop       uint32 = 4
	tagEnd       uint32 = 9
)

// magic is the fixed FDT header magic number.
const magic uint32 = 0xd00dfeed

// headerSize is the byte size of the ten big-endian uint32 header
// fields (versions 17 and compatible-to-16 share this layout).
const headerSize = 10 * 4

// formatVersion/lastCompVersion are the values this package emits when
// serializing. Parsing accepts any version >= 16 with
// last_comp_version <= 17, the "17, compatible-to-16" range spec.md §6
// names.
const (
	formatVersion    = 17
	lastCompVersion  = 16
	minParseVersion  = 16
	maxLastCompParse = 17
)

// header mirrors the ten fixed-offset big-endian uint32 fields at the
// front of every FDT blob.
type header struct {
	magic           uint32
	totalSize       uint32
	offDtStruct     uint32
	offDtStrings    uint32
	offMemRsvmap    uint32
	version         uint32
	lastCompVersion uint32
	bootCpuidPhys   uint32
	sizeDtStrings   uint32
	sizeDtStruct    uint32
}

// BlobInfo holds the header extents of an FDT blob that a caller
// working directly on the raw bytes needs — the Go equivalent of the
// original's direct use of libfdt's fdt_totalsize/fdt_off_dt_struct/
// fdt_off_dt_strings raw-blob accessors in libfit++.cpp, which reads
// these fields without building a tree.
type BlobInfo struct {
	TotalSize    uint32
	StructOff    uint32
	StructSize   uint32
	StringsOff   uint32
	StringsSize  uint32
}

// Inspect validates and returns blob's header extents without parsing
// its structure block into a tree.
func Inspect(b []byte) (BlobInfo, error) {
	h, err := parseHeader(b)
	if err != nil {
		return BlobInfo{}, err
	}
	return BlobInfo{
		TotalSize:   h.totalSize,
		StructOff:   h.offDtStruct,
		StructSize:  h.sizeDtStruct,
		StringsOff:  h.offDtStrings,
		StringsSize: h.sizeDtStrings,
	}, nil
}

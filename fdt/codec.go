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

// Uint is the set of unsigned integer widths the property model
// classifies and decodes. Mirrors the instantiations the original
// templated byte_size<T>/read_advance<T> helpers are used with.
type Uint interface {
	uint8 | uint16 | uint32 | uint64
}

// ByteSizeOf returns sizeof(T) for an unsigned integer width.
func ByteSizeOf[T Uint]() int {
	var v T
	switch any(v).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	case uint64:
		return 8
	}
	panic("fdt: unreachable Uint width")
}

// ReadUint decodes a big-endian unsigned integer of width T from b. b
// must be exactly ByteSizeOf[T]() bytes; a shorter or longer slice is
// ErrTruncated / ErrInvalidArgument respectively since the caller is
// expected to have already sliced the value to size.
func ReadUint[T Uint](b []byte) (T, error) {
	sz := ByteSizeOf[T]()
	if len(b) < sz {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, sz, len(b))
	}
	if len(b) > sz {
		return 0, fmt.Errorf("%w: need exactly %d bytes, have %d", ErrInvalidArgument, sz, len(b))
	}
	switch sz {
	case 1:
		return T(b[0]), nil
	case 2:
		return T(binary.BigEndian.Uint16(b)), nil
	case 4:
		return T(binary.BigEndian.Uint32(b)), nil
	default:
		return T(binary.BigEndian.Uint64(b)), nil
	}
}

// PutUint encodes v as a big-endian unsigned integer of width T into b.
// b must be exactly ByteSizeOf[T]() bytes long.
func PutUint[T Uint](b []byte, v T) {
	switch ByteSizeOf[T]() {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	default:
		binary.BigEndian.PutUint64(b, uint64(v))
	}
}

// ReadTuple decodes n consecutive big-endian T values from the front of
// b, which must be exactly n*ByteSizeOf[T]() bytes — the tight-packed,
// no-padding tuple layout spec.md §4.1 describes.
func ReadTuple[T Uint](b []byte, n int) ([]T, error) {
	sz := ByteSizeOf[T]()
	if len(b) != n*sz {
		return nil, fmt.Errorf("%w: tuple of %d needs %d bytes, have %d", ErrInvalidArgument, n, n*sz, len(b))
	}
	out := make([]T, n)
	for i := range out {
		v, err := ReadUint[T](b[i*sz : (i+1)*sz])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadArray decodes as many consecutive big-endian T values as fit in
// b. len(b) must be a positive multiple of ByteSizeOf[T]().
func ReadArray[T Uint](b []byte) ([]T, error) {
	sz := ByteSizeOf[T]()
	if len(b) == 0 || len(b)%sz != 0 {
		return nil, fmt.Errorf("%w: array needs a positive multiple of %d bytes, have %d", ErrInvalidArgument, sz, len(b))
	}
	return ReadTuple[T](b, len(b)/sz)
}

// align4 rounds n up to the next multiple of 4, the padding unit used
// throughout the structure block.
func align4(n int) int {
	return (n + 3) &^ 3
}

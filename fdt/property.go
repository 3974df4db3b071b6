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
)

const maxNameLen = 31

// propertyNameChars is the character class property names are drawn
// from (spec.md §3): unlike node names, '?' and '#' are allowed and
// '@' is not part of the class at all (properties have no unit
// address).
const propertyNameChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz,._+?#-"

func validatePropertyName(name string) error {
	if name == "" || len(name) > maxNameLen {
		return fmt.Errorf("%w: property name %q must be 1..%d bytes", ErrInvalidArgument, name, maxNameLen)
	}
	for _, c := range name {
		if !strings.ContainsRune(propertyNameChars, c) {
			return fmt.Errorf("%w: property name %q has disallowed character %q", ErrInvalidArgument, name, c)
		}
	}
	return nil
}

// Property is a piece carrying a byte sequence of arbitrary length
// (spec.md §3, §4.4).
type Property struct {
	name   string
	parent *Node
	value  []byte
}

func (p *Property) Name() string { return p.name }

func (p *Property) Parent() (*Node, bool) {
	if p.parent == nil {
		return nil, false
	}
	return p.parent, true
}

// IsEmpty reports whether the property's value has zero length.
func (p *Property) IsEmpty() bool {
	return len(p.value) == 0
}

// IsString reports whether the property's value is a NUL-terminated
// string with no other embedded NUL bytes.
func (p *Property) IsString() bool {
	b := p.value
	if len(b) < 2 || b[len(b)-1] != 0 {
		return false
	}
	for _, c := range b[:len(b)-1] {
		if c == 0 {
			return false
		}
	}
	return true
}

// IsStringList reports whether the property's value is a
// NUL-terminated sequence that is not entirely NUL bytes.
func (p *Property) IsStringList() bool {
	b := p.value
	if len(b) < 2 || b[len(b)-1] != 0 {
		return false
	}
	for _, c := range b {
		if c != 0 {
			return true
		}
	}
	return false
}

// AsBytes always succeeds, returning the raw value.
func (p *Property) AsBytes() []byte {
	return p.value
}

// AsString returns the property's value minus its trailing NUL, or
// ErrInvalidArgument if the string predicate does not hold.
func (p *Property) AsString() (string, error) {
	if !p.IsString() {
		return "", fmt.Errorf("%w: %q is not a string", ErrInvalidArgument, p.name)
	}
	return string(p.value[:len(p.value)-1]), nil
}

// AsStringList splits the property's value on NUL, dropping empty
// elements between consecutive NULs, or fails ErrInvalidArgument if the
// string-list predicate does not hold.
func (p *Property) AsStringList() ([]string, error) {
	if !p.IsStringList() {
		return nil, fmt.Errorf("%w: %q is not a string list", ErrInvalidArgument, p.name)
	}
	var out []string
	for _, s := range strings.Split(string(p.value[:len(p.value)-1]), "\x00") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// SetBytes replaces the property's value with a copy of b.
func (p *Property) SetBytes(b []byte) {
	p.value = append([]byte(nil), b...)
}

// SetString stores s plus a single trailing NUL, if one is not already
// present (spec.md §4.4).
func (p *Property) SetString(s string) {
	if strings.HasSuffix(s, "\x00") {
		p.value = []byte(s)
		return
	}
	p.value = append([]byte(s), 0)
}

// SetStringList concatenates each non-empty element of elems followed
// by a NUL.
func (p *Property) SetStringList(elems []string) {
	var b []byte
	for _, e := range elems {
		if e == "" {
			continue
		}
		b = append(b, e...)
		b = append(b, 0)
	}
	if b == nil {
		b = []byte{0}
	}
	p.value = b
}

// Equal reports whether p and o have the same name and byte sequence
// (spec.md §4.4).
func (p *Property) Equal(o *Property) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.name == o.name && string(p.value) == string(o.value)
}

// IsUint reports whether the property's value is exactly
// ByteSizeOf[T]() bytes (spec.md §4.4's "fixed-width integer of width
// W").
func IsUint[T Uint](p *Property) bool {
	return len(p.value) == ByteSizeOf[T]()
}

// AsUint decodes the property's value as a big-endian T, failing
// ErrInvalidArgument ("incompatible type") unless IsUint[T] holds.
func AsUint[T Uint](p *Property) (T, error) {
	if !IsUint[T](p) {
		var zero T
		return zero, fmt.Errorf("%w: %q is not a %d-byte integer", ErrInvalidArgument, p.name, ByteSizeOf[T]())
	}
	return ReadUint[T](p.value)
}

// SetUint stores v as a big-endian T, replacing the property's value.
func SetUint[T Uint](p *Property, v T) {
	b := make([]byte, ByteSizeOf[T]())
	PutUint(b, v)
	p.value = b
}

// IsTuple reports whether the property's value is exactly
// n*ByteSizeOf[T]() bytes — a fixed-size composite of n same-width
// integers (spec.md §4.4's "composite type T", narrowed per DESIGN.md's
// Open Question resolution to same-width tuples, which is all FIT
// itself ever needs — e.g. the hashed-strings (offset, length) pair).
func IsTuple[T Uint](p *Property, n int) bool {
	return len(p.value) == n*ByteSizeOf[T]()
}

// AsTuple decodes the property's value as n consecutive big-endian T
// values, failing ErrInvalidArgument unless IsTuple[T](p, n) holds.
func AsTuple[T Uint](p *Property, n int) ([]T, error) {
	if !IsTuple[T](p, n) {
		return nil, fmt.Errorf("%w: %q is not a %d-tuple of %d-byte integers", ErrInvalidArgument, p.name, n, ByteSizeOf[T]())
	}
	return ReadTuple[T](p.value, n)
}

// IsArray reports whether the property's value is a positive multiple
// of ByteSizeOf[T]() bytes.
func IsArray[T Uint](p *Property) bool {
	sz := ByteSizeOf[T]()
	return len(p.value) > 0 && len(p.value)%sz == 0
}

// AsArray decodes the property's value as a sequence of
// len(value)/ByteSizeOf[T]() big-endian T values, failing
// ErrInvalidArgument unless IsArray[T] holds.
func AsArray[T Uint](p *Property) ([]T, error) {
	if !IsArray[T](p) {
		return nil, fmt.Errorf("%w: %q is not an array of %d-byte integers", ErrInvalidArgument, p.name, ByteSizeOf[T]())
	}
	return ReadArray[T](p.value)
}

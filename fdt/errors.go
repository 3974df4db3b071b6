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

// Package fdt is an in-memory object model for Flattened Device Tree
// blobs: a binary codec, a typed property model, a node/tree model, and
// a path resolver.
package fdt

import "errors"

// Error taxonomy. Every fallible operation in this package returns one
// of these, wrapped with context via fmt.Errorf's %w.
var (
	// ErrInvalidArgument covers bad path syntax, empty or overlong
	// names, disallowed name characters, and incompatible typed
	// access to a property.
	ErrInvalidArgument = errors.New("fdt: invalid argument")

	// ErrNotFound is returned by lookups whose contract requires a
	// hit.
	ErrNotFound = errors.New("fdt: not found")

	// ErrBadCast is returned when a piece resolved by path is not of
	// the requested kind.
	ErrBadCast = errors.New("fdt: bad cast")

	// ErrTruncated is returned when the input is shorter than its
	// declared length.
	ErrTruncated = errors.New("fdt: truncated")

	// ErrMalformed is returned when the structure-block tag stream is
	// internally inconsistent.
	ErrMalformed = errors.New("fdt: malformed")
)

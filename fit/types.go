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

import "context"

// Sink receives zero-or-more contiguous chunks from a data-producing
// API. A sink must not retain a chunk beyond the call (spec.md §6).
type Sink func([]byte) error

// Reader delivers exactly length bytes starting at offset from
// external storage (the original blob, on disk or elsewhere), calling
// sink one or more times with contiguous chunks summing to length.
// spec.md §1 scopes the actual I/O as an external collaborator; Reader
// is the seam.
type Reader func(ctx context.Context, offset, length int64, sink Sink) error

// KeyPurpose distinguishes the three kinds of key material a
// KeyLookup can be asked for (spec.md §4.10's "Key-lookup contract").
type KeyPurpose int

const (
	PublicKey KeyPurpose = iota
	SymmetricKey
	SymmetricIV
)

func (p KeyPurpose) String() string {
	switch p {
	case PublicKey:
		return "public-key"
	case SymmetricKey:
		return "symmetric-key"
	case SymmetricIV:
		return "symmetric-iv"
	default:
		return "unknown"
	}
}

// KeyLookup resolves key material by purpose and caller-assigned hint.
// Returning (nil, nil) means "not required, skip" — meaningful only
// for PublicKey lookups, since a missing symmetric key or IV is always
// a hard error at the point of need (spec.md §4.10). A non-nil error
// means the lookup itself failed.
type KeyLookup func(purpose KeyPurpose, hint string) ([]byte, error)

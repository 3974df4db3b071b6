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

// Package fit is a verifier/extractor for Flattened Image Tree (FIT)
// packages layered on top of an fdt.FDT: image data retrieval, AES-CBC
// decryption, raw-structure-block hashing, and hash/signature
// verification.
package fit

import "errors"

// Error taxonomy, shared with fdt's where the FDT layer's own errors
// (ErrTruncated, ErrMalformed, ErrBadCast, ErrNotFound,
// ErrInvalidArgument) already propagate unwrapped-through. These add
// the FIT-specific categories from spec.md §7.
var (
	// ErrCryptoUnavailable is returned when the algorithm named in an
	// "algo" property is not registered.
	ErrCryptoUnavailable = errors.New("fit: crypto algorithm unavailable")

	// ErrCryptoFailure is returned when a cryptographic library
	// routine itself fails (as opposed to a verification mismatch,
	// which is reported as a boolean return, not this error).
	ErrCryptoFailure = errors.New("fit: crypto failure")

	// ErrPolicy is returned when a required ingredient is missing:
	// no hashes, no signatures, or a missing symmetric key. A
	// configuration signature that does not cover its own path is
	// reported as a (false, nil) verification result, not this error.
	ErrPolicy = errors.New("fit: policy violation")
)

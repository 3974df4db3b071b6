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
	"context"
	"fmt"

	"github.com/transparency-dev/armored-witness-fit/fdt"
)

func getUint32FromPiece(p fdt.Piece) (uint32, error) {
	prop, err := fdt.AsProperty(p)
	if err != nil {
		return 0, err
	}
	return fdt.AsUint[uint32](prop)
}

func getUint32Property(n *fdt.Node, name string) (uint32, error) {
	prop, err := n.GetProperty(name)
	if err != nil {
		return 0, err
	}
	return fdt.AsUint[uint32](prop)
}

func getStringProperty(n *fdt.Node, name string) (string, error) {
	prop, err := n.GetProperty(name)
	if err != nil {
		return "", err
	}
	return prop.AsString()
}

// ImageDataRaw delivers an image node's possibly-ciphered payload to
// sink, dispatching on which of the three data locators is present
// (spec.md §4.9): inline "data", offset-relative "data-offset" (relative
// to the 4-byte-aligned end of the blob's declared totalsize), or
// absolute "data-position". Ported from image_data_raw in libfit++.cpp.
func ImageDataRaw(ctx context.Context, n *fdt.Node, blob []byte, reader Reader, sink Sink) error {
	if d, ok := n.FindChild("data"); ok {
		prop, err := fdt.AsProperty(d)
		if err != nil {
			return err
		}
		return sink(prop.AsBytes())
	}

	dataSize, err := getUint32Property(n, "data-size")
	if err != nil {
		return err
	}

	if d, ok := n.FindChild("data-offset"); ok {
		info, err := fdt.Inspect(blob)
		if err != nil {
			return err
		}
		off, err := getUint32FromPiece(d)
		if err != nil {
			return err
		}
		dataBegin := align4(int(info.TotalSize))
		return reader(ctx, int64(dataBegin)+int64(off), int64(dataSize), sink)
	}

	if d, ok := n.FindChild("data-position"); ok {
		pos, err := getUint32FromPiece(d)
		if err != nil {
			return err
		}
		return reader(ctx, int64(pos), int64(dataSize), sink)
	}

	return fmt.Errorf("%w: image %q has no data locator", ErrPolicy, n.Name())
}

// ImageDataSize returns the size of an image's data after any
// decryption, preferring an explicit "data-size-unciphered" over the
// inline "data" length over "data-size" (spec.md §4.9).
func ImageDataSize(n *fdt.Node) (uint32, error) {
	if s, ok := n.FindChild("data-size-unciphered"); ok {
		return getUint32FromPiece(s)
	}
	if d, ok := n.FindChild("data"); ok {
		prop, err := fdt.AsProperty(d)
		if err != nil {
			return 0, err
		}
		return uint32(len(prop.AsBytes())), nil
	}
	return getUint32Property(n, "data-size")
}

// ImageData delivers an image node's plaintext payload to sink,
// transparently decrypting through a "cipher" subnode when present
// (spec.md §4.10). Ported from the two image_data overloads in
// libfit++.cpp.
func ImageData(ctx context.Context, n *fdt.Node, keyLookup KeyLookup, blob []byte, reader Reader, sink Sink) error {
	cipherPiece, hasCipher := n.FindChild("cipher")
	if !hasCipher {
		return ImageDataRaw(ctx, n, blob, reader, sink)
	}
	cipherNode, err := fdt.AsNode(cipherPiece)
	if err != nil {
		return err
	}

	algo, err := getStringProperty(cipherNode, "algo")
	if err != nil {
		return err
	}
	keyNameHint, _ := getStringProperty(cipherNode, "key-name-hint")
	ivNameHint, _ := getStringProperty(cipherNode, "iv-name-hint")
	cipherName, _ := cipherNameAndKeyBits(algo)

	key, err := keyLookup(SymmetricKey, keyNameHint)
	if err != nil {
		return err
	}
	if key == nil {
		return fmt.Errorf("%w: no symmetric key for %q", ErrPolicy, keyNameHint)
	}
	iv, err := keyLookup(SymmetricIV, ivNameHint)
	if err != nil {
		return err
	}
	if iv == nil {
		return fmt.Errorf("%w: no symmetric iv for %q", ErrPolicy, ivNameHint)
	}

	dec, err := newCBCDecryptor(cipherName, key, iv)
	if err != nil {
		return err
	}

	remain, err := getUint32Property(n, "data-size-unciphered")
	if err != nil {
		return err
	}

	return ImageDataRaw(ctx, n, blob, reader, func(ct []byte) error {
		return dec.decrypt(ct, func(pt []byte) error {
			if remain == 0 {
				return nil
			}
			sz := uint32(len(pt))
			if sz > remain {
				sz = remain
			}
			if err := sink(pt[:sz]); err != nil {
				return err
			}
			remain -= sz
			return nil
		})
	})
}

func align4(n int) int {
	return (n + 3) &^ 3
}

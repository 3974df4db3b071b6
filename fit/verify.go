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
	"crypto"
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/transparency-dev/armored-witness-fit/fdt"
)

// excludeFromConfigHash lists the image-data-locator properties that
// verify_config_signatures excludes from the structural hash even when
// walking inside an included image node, since they identify where the
// bytes live rather than being part of the signed content.
var excludeFromConfigHash = map[string]bool{
	"data":          true,
	"data-size":     true,
	"data-position": true,
	"data-offset":   true,
}

func cryptoHashFor(name string) (crypto.Hash, error) {
	switch name {
	case "sha1":
		return crypto.SHA1, nil
	case "sha256":
		return crypto.SHA256, nil
	case "sha512":
		return crypto.SHA512, nil
	case "md5":
		return crypto.MD5, nil
	default:
		return 0, fmt.Errorf("%w: hash algorithm %q has no crypto.Hash mapping", ErrCryptoUnavailable, name)
	}
}

// VerifyImageHashes checks every "hash*" subnode of an image node
// against the image's actual data, streamed through reader. crc32 is
// special-cased to a raw 4-byte big-endian comparison per spec.md
// §4.11; every other algorithm uses the hash registry. Returns
// (false, nil) on the first mismatch, (false, ErrPolicy) if the image
// declares no hashes at all, and (true, nil) once every declared hash
// has matched. Ported from verify_image_hashes in libfit++.cpp.
func VerifyImageHashes(ctx context.Context, n *fdt.Node, blob []byte, reader Reader) (bool, error) {
	haveHash := false
	for _, sub := range n.Subnodes() {
		if !strings.HasPrefix(sub.Name(), "hash") {
			continue
		}
		algo, err := getStringProperty(sub, "algo")
		if err != nil {
			continue
		}
		want, err := sub.GetProperty("value")
		if err != nil {
			return false, err
		}
		haveHash = true

		if algo == "crc32" {
			wantVal, err := fdt.AsUint[uint32](want)
			if err != nil {
				return false, err
			}
			h, err := newHasher("crc32")
			if err != nil {
				return false, err
			}
			if err := ImageDataRaw(ctx, n, blob, reader, func(b []byte) error {
				_, err := h.Write(b)
				return err
			}); err != nil {
				return false, err
			}
			got := binary.BigEndian.Uint32(h.Sum(nil))
			if got != wantVal {
				return false, nil
			}
			continue
		}

		h, err := newHasher(algo)
		if err != nil {
			return false, err
		}
		if err := ImageDataRaw(ctx, n, blob, reader, func(b []byte) error {
			_, err := h.Write(b)
			return err
		}); err != nil {
			return false, err
		}
		if string(h.Sum(nil)) != string(want.AsBytes()) {
			return false, nil
		}
	}
	if !haveHash {
		return false, fmt.Errorf("%w: image %q declares no hashes", ErrPolicy, n.Name())
	}
	return true, nil
}

// VerifyImageSignatures checks every "signature*" subnode of an image
// node, first requiring VerifyImageHashes to succeed. Each signature's
// "algo" property is "<hash-algo>,<sig-algo>" where sig-algo must begin
// with "rsa"; a key lookup returning (nil, nil) skips that signature
// rather than failing the whole image. Ported from
// verify_image_signatures in libfit++.cpp.
func VerifyImageSignatures(ctx context.Context, n *fdt.Node, keyLookup KeyLookup, blob []byte, reader Reader) (bool, error) {
	ok, err := VerifyImageHashes(ctx, n, blob, reader)
	if err != nil || !ok {
		return ok, err
	}

	haveSignature := false
	for _, sub := range n.Subnodes() {
		if !strings.HasPrefix(sub.Name(), "signature") {
			continue
		}
		algo, err := getStringProperty(sub, "algo")
		if err != nil {
			continue
		}
		hashAlgo, sigAlgo, hasComma := strings.Cut(algo, ",")
		if !hasComma {
			return false, fmt.Errorf("%w: signature algo %q missing hash,sig separator", fdt.ErrInvalidArgument, algo)
		}
		if !strings.HasPrefix(sigAlgo, "rsa") {
			return false, fmt.Errorf("%w: signature algo %q is not rsa", ErrCryptoUnavailable, sigAlgo)
		}

		keyHint, _ := getStringProperty(sub, "key-name-hint")
		keyDER, err := keyLookup(PublicKey, keyHint)
		if err != nil {
			return false, err
		}
		if keyDER == nil {
			continue // not required to verify with this key, skip
		}
		pub, err := ParsePublicKey(keyDER)
		if err != nil {
			return false, err
		}

		hashVal, err := getHashValue(n, hashAlgo)
		if err != nil {
			return false, err
		}
		sigVal, err := sub.GetProperty("value")
		if err != nil {
			return false, err
		}
		cryptoHash, err := cryptoHashFor(hashAlgo)
		if err != nil {
			return false, err
		}

		haveSignature = true
		if err := rsa.VerifyPKCS1v15(pub, cryptoHash, hashVal, sigVal.AsBytes()); err != nil {
			return false, nil
		}
	}
	if !haveSignature {
		return false, fmt.Errorf("%w: image %q has no verifiable signatures", ErrPolicy, n.Name())
	}
	return true, nil
}

// VerifyConfigSignatures checks every "signature*" subnode of a
// configuration node. Each signature's "hashed-nodes" property must
// list the configuration node's own absolute path (the self-hash
// check); every listed top-level "/images/<name>" path additionally has
// its own hashes verified via VerifyImageHashes, each at most once.
// The structural hash is computed over exactly the nodes named in
// hashed-nodes via hashRawNodes, then extended with the blob's own
// strings block (offset from the blob header, length from the second
// element of "hashed-strings") appended literally. Ported from
// verify_config_signatures in libfit++.cpp.
func VerifyConfigSignatures(ctx context.Context, n *fdt.Node, keyLookup KeyLookup, blob []byte, reader Reader) (bool, error) {
	info, err := fdt.Inspect(blob)
	if err != nil {
		return false, err
	}

	configPath := fdt.Path(n)
	checkedImages := map[string]bool{}
	haveSignature := false

	for _, sub := range n.Subnodes() {
		if !strings.HasPrefix(sub.Name(), "signature") {
			continue
		}
		algo, err := getStringProperty(sub, "algo")
		if err != nil {
			continue
		}
		hashAlgo, sigAlgo, hasComma := strings.Cut(algo, ",")
		if !hasComma {
			return false, fmt.Errorf("%w: signature algo %q missing hash,sig separator", fdt.ErrInvalidArgument, algo)
		}
		if !strings.HasPrefix(sigAlgo, "rsa") {
			return false, fmt.Errorf("%w: signature algo %q is not rsa", ErrCryptoUnavailable, sigAlgo)
		}

		keyHint, _ := getStringProperty(sub, "key-name-hint")
		keyDER, err := keyLookup(PublicKey, keyHint)
		if err != nil {
			return false, err
		}
		if keyDER == nil {
			continue
		}
		pub, err := ParsePublicKey(keyDER)
		if err != nil {
			return false, err
		}

		hashedNodesList, err := sub.GetProperty("hashed-nodes")
		if err != nil {
			return false, err
		}
		nodeList, err := hashedNodesList.AsStringList()
		if err != nil {
			return false, err
		}
		hashedStringsProp, err := sub.GetProperty("hashed-strings")
		if err != nil {
			return false, err
		}
		hashedStrings, err := fdt.AsTuple[uint32](hashedStringsProp, 2)
		if err != nil {
			return false, err
		}
		stringsSize := hashedStrings[1]
		stringsOff := info.StringsOff

		hashedNodes := map[string]bool{}
		selfHashed := false
		for _, path := range nodeList {
			hashedNodes[path] = true
			if path == configPath {
				selfHashed = true
			}
		}
		if !selfHashed {
			return false, nil
		}

		for path := range hashedNodes {
			rest := strings.TrimPrefix(path, "/")
			if !strings.HasPrefix(rest, "images/") {
				continue
			}
			if strings.Contains(strings.TrimPrefix(rest, "images/"), "/") {
				continue // not a top-level image node
			}
			if checkedImages[path] {
				continue
			}
			imgNode, err := fdt.Root(n).GetNode(rest)
			if err != nil {
				return false, err
			}
			ok, err := VerifyImageHashes(ctx, imgNode, blob, reader)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			checkedImages[path] = true
		}

		if int64(stringsOff)+int64(stringsSize) > int64(len(blob)) {
			return false, fmt.Errorf("%w: hashed-strings extent out of range", fdt.ErrTruncated)
		}

		h, err := newHasher(hashAlgo)
		if err != nil {
			return false, err
		}
		if err := hashRawNodes(blob, info.StructOff, info.StructSize, info.StringsOff, info.StringsSize, hashedNodes, excludeFromConfigHash, h); err != nil {
			return false, err
		}
		if _, err := h.Write(blob[stringsOff : stringsOff+stringsSize]); err != nil {
			return false, err
		}
		digest := h.Sum(nil)

		sigVal, err := sub.GetProperty("value")
		if err != nil {
			return false, err
		}
		cryptoHash, err := cryptoHashFor(hashAlgo)
		if err != nil {
			return false, err
		}

		haveSignature = true
		if err := rsa.VerifyPKCS1v15(pub, cryptoHash, digest, sigVal.AsBytes()); err != nil {
			return false, nil
		}
	}

	if !haveSignature {
		return false, fmt.Errorf("%w: configuration %q has no verifiable signatures", ErrPolicy, n.Name())
	}
	return true, nil
}

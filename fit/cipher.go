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
	"crypto/cipher"
	"fmt"
	"strings"

	"github.com/transparency-dev/armored-witness-fit/fdt"
)

// cbcDecryptor reassembles arbitrary caller-supplied ciphertext chunks
// into block-aligned plaintext, ported from ltc_cbc::decrypt in
// libfit++.cpp (spec.md §4.8). There is no padding-removal step; the
// caller truncates delivered plaintext to data-size-unciphered, and
// incomplete trailing bytes after the stream ends are silently
// discarded.
type cbcDecryptor struct {
	mode      cipher.BlockMode
	blockSize int
	buf       []byte
}

// cipherNameAndKeyBits splits a cipher "algo" string such as
// "aes128-cbc" into its cipher name ("aes") and key bit length (128),
// per spec.md §4.8: "the cipher name and key length from the first
// digits in the cipher's algo property."
func cipherNameAndKeyBits(algo string) (name string, keyBits int) {
	i := strings.IndexFunc(algo, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return algo, 0
	}
	j := i
	for j < len(algo) && algo[j] >= '0' && algo[j] <= '9' {
		j++
	}
	bits := 0
	for _, c := range algo[i:j] {
		bits = bits*10 + int(c-'0')
	}
	return algo[:i], bits
}

// newCBCDecryptor constructs a decryptor for the named cipher, keyed
// by key with the given IV. The IV length must equal the cipher's
// block length (spec.md §4.8).
func newCBCDecryptor(cipherName string, key, iv []byte) (*cbcDecryptor, error) {
	block, err := newCipherBlock(cipherName, key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("%w: bad iv size %d, want %d", fdt.ErrInvalidArgument, len(iv), block.BlockSize())
	}
	return &cbcDecryptor{
		mode:      cipher.NewCBCDecrypter(block, iv),
		blockSize: block.BlockSize(),
	}, nil
}

// decrypt feeds ciphertext chunk ct through the running CBC state,
// delivering decrypted block(s) to sink as soon as they're complete.
// May be called repeatedly with chunks of arbitrary size; the result is
// independent of how the caller partitions the ciphertext (spec.md §8's
// "Decryption reassembly" property).
func (d *cbcDecryptor) decrypt(ct []byte, sink Sink) error {
	for len(ct) > 0 {
		if len(d.buf) > 0 || len(ct) < d.blockSize {
			n := d.blockSize - len(d.buf)
			if n > len(ct) {
				n = len(ct)
			}
			d.buf = append(d.buf, ct[:n]...)
			ct = ct[n:]

			if len(d.buf) != d.blockSize {
				return nil // not enough data to complete a block yet
			}

			pt := make([]byte, d.blockSize)
			d.mode.CryptBlocks(pt, d.buf)
			if err := sink(pt); err != nil {
				return err
			}
			d.buf = d.buf[:0]
			continue
		}

		n := len(ct) / d.blockSize * d.blockSize
		pt := make([]byte, n)
		d.mode.CryptBlocks(pt, ct[:n])
		if err := sink(pt); err != nil {
			return err
		}
		ct = ct[n:]
	}
	return nil
}

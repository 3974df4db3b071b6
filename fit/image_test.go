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
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"testing"

	"github.com/transparency-dev/armored-witness-fit/fdt"
)

func noReader(ctx context.Context, offset, length int64, sink Sink) error {
	panic("reader should not be called")
}

func TestImageDataRawInline(t *testing.T) {
	tree := fdt.New()
	img, err := tree.Root().AddNode("fw-1")
	if err != nil {
		t.Fatal(err)
	}
	data, err := img.AddProperty("data")
	if err != nil {
		t.Fatal(err)
	}
	data.SetBytes([]byte("firmware-bytes"))

	var got []byte
	if err := ImageDataRaw(context.Background(), img, nil, noReader, func(b []byte) error {
		got = append(got, b...)
		return nil
	}); err != nil {
		t.Fatalf("ImageDataRaw: %v", err)
	}
	if !bytes.Equal(got, []byte("firmware-bytes")) {
		t.Fatalf("got %q, want %q", got, "firmware-bytes")
	}
}

func TestImageDataRawDataPosition(t *testing.T) {
	tree := fdt.New()
	img, err := tree.Root().AddNode("fw-1")
	if err != nil {
		t.Fatal(err)
	}
	pos, err := img.AddProperty("data-position")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](pos, 1024)
	sz, err := img.AddProperty("data-size")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](sz, 8)

	var gotOff, gotLen int64
	reader := func(ctx context.Context, offset, length int64, sink Sink) error {
		gotOff, gotLen = offset, length
		return sink([]byte("12345678"))
	}
	var got []byte
	if err := ImageDataRaw(context.Background(), img, nil, reader, func(b []byte) error {
		got = append(got, b...)
		return nil
	}); err != nil {
		t.Fatalf("ImageDataRaw: %v", err)
	}
	if gotOff != 1024 || gotLen != 8 {
		t.Fatalf("reader called with (%d, %d), want (1024, 8)", gotOff, gotLen)
	}
	if !bytes.Equal(got, []byte("12345678")) {
		t.Fatalf("got %q", got)
	}
}

func TestImageDataRawDataOffset(t *testing.T) {
	tree := fdt.New()
	img, err := tree.Root().AddNode("fw-1")
	if err != nil {
		t.Fatal(err)
	}
	off, err := img.AddProperty("data-offset")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](off, 16)
	sz, err := img.AddProperty("data-size")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](sz, 4)

	blob, err := tree.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	info, err := fdt.Inspect(blob)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	wantBegin := align4(int(info.TotalSize))

	var gotOff, gotLen int64
	reader := func(ctx context.Context, offset, length int64, sink Sink) error {
		gotOff, gotLen = offset, length
		return sink([]byte("data"))
	}
	var got []byte
	if err := ImageDataRaw(context.Background(), img, blob, reader, func(b []byte) error {
		got = append(got, b...)
		return nil
	}); err != nil {
		t.Fatalf("ImageDataRaw: %v", err)
	}
	if gotOff != int64(wantBegin)+16 || gotLen != 4 {
		t.Fatalf("reader called with (%d, %d), want (%d, 4)", gotOff, gotLen, wantBegin+16)
	}
	if !bytes.Equal(got, []byte("data")) {
		t.Fatalf("got %q", got)
	}
}

func TestImageDataRawMissingLocator(t *testing.T) {
	tree := fdt.New()
	img, err := tree.Root().AddNode("fw-1")
	if err != nil {
		t.Fatal(err)
	}
	sz, err := img.AddProperty("data-size")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](sz, 4)
	if err := ImageDataRaw(context.Background(), img, nil, noReader, func(b []byte) error { return nil }); err == nil {
		t.Fatal("want error for image with data-size but no data locator")
	}
}

func TestImageDataSize(t *testing.T) {
	tree := fdt.New()
	img, err := tree.Root().AddNode("fw-1")
	if err != nil {
		t.Fatal(err)
	}
	data, err := img.AddProperty("data")
	if err != nil {
		t.Fatal(err)
	}
	data.SetBytes([]byte("12345"))

	sz, err := ImageDataSize(img)
	if err != nil {
		t.Fatalf("ImageDataSize: %v", err)
	}
	if sz != 5 {
		t.Fatalf("got %d, want 5", sz)
	}

	unciphered, err := img.AddProperty("data-size-unciphered")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](unciphered, 3)
	sz, err = ImageDataSize(img)
	if err != nil {
		t.Fatalf("ImageDataSize: %v", err)
	}
	if sz != 3 {
		t.Fatalf("got %d, want 3 (data-size-unciphered takes priority)", sz)
	}
}

func encryptCBC(t *testing.T, key, iv, pt []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	ct := make([]byte, len(pt))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, pt)
	return ct
}

func TestImageDataDecryptsCipherNode(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	if _, err := rand.Read(iv); err != nil {
		t.Fatal(err)
	}
	pt := []byte("this is exactly two AES blocks!!")[:32]
	ct := encryptCBC(t, key, iv, pt)

	tree := fdt.New()
	img, err := tree.Root().AddNode("fw-1")
	if err != nil {
		t.Fatal(err)
	}
	data, err := img.AddProperty("data")
	if err != nil {
		t.Fatal(err)
	}
	data.SetBytes(ct)
	unciphered, err := img.AddProperty("data-size-unciphered")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](unciphered, uint32(len(pt)))

	cipherNode, err := img.AddNode("cipher")
	if err != nil {
		t.Fatal(err)
	}
	algo, err := cipherNode.AddProperty("algo")
	if err != nil {
		t.Fatal(err)
	}
	algo.SetString("aes128-cbc")
	keyHint, err := cipherNode.AddProperty("key-name-hint")
	if err != nil {
		t.Fatal(err)
	}
	keyHint.SetString("test-key")
	ivHint, err := cipherNode.AddProperty("iv-name-hint")
	if err != nil {
		t.Fatal(err)
	}
	ivHint.SetString("test-iv")

	lookup := func(purpose KeyPurpose, hint string) ([]byte, error) {
		switch purpose {
		case SymmetricKey:
			return key, nil
		case SymmetricIV:
			return iv, nil
		}
		return nil, nil
	}

	var got []byte
	if err := ImageData(context.Background(), img, lookup, nil, noReader, func(b []byte) error {
		got = append(got, b...)
		return nil
	}); err != nil {
		t.Fatalf("ImageData: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("got %q, want %q", got, pt)
	}
}

func TestImageDataMissingSymmetricKeyFails(t *testing.T) {
	tree := fdt.New()
	img, err := tree.Root().AddNode("fw-1")
	if err != nil {
		t.Fatal(err)
	}
	data, err := img.AddProperty("data")
	if err != nil {
		t.Fatal(err)
	}
	data.SetBytes(make([]byte, 16))
	unciphered, err := img.AddProperty("data-size-unciphered")
	if err != nil {
		t.Fatal(err)
	}
	fdt.SetUint[uint32](unciphered, 16)
	cipherNode, err := img.AddNode("cipher")
	if err != nil {
		t.Fatal(err)
	}
	algo, err := cipherNode.AddProperty("algo")
	if err != nil {
		t.Fatal(err)
	}
	algo.SetString("aes128-cbc")

	lookup := func(purpose KeyPurpose, hint string) ([]byte, error) { return nil, nil }
	if err := ImageData(context.Background(), img, lookup, nil, noReader, func(b []byte) error { return nil }); err == nil {
		t.Fatal("want error when symmetric key is unavailable")
	}
}

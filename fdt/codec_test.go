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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadUint(t *testing.T) {
	for _, test := range []struct {
		name    string
		b       []byte
		read    func() (uint64, error)
		want    uint64
		wantErr bool
	}{
		{
			name: "uint8",
			b:    []byte{0x42},
			read: func() (uint64, error) {
				v, err := ReadUint[uint8]([]byte{0x42})
				return uint64(v), err
			},
			want: 0x42,
		},
		{
			name: "uint32 big-endian",
			b:    []byte{0xde, 0xad, 0xbe, 0xef},
			read: func() (uint64, error) {
				v, err := ReadUint[uint32]([]byte{0xde, 0xad, 0xbe, 0xef})
				return uint64(v), err
			},
			want: 0xdeadbeef,
		},
		{
			name: "too short",
			read: func() (uint64, error) {
				v, err := ReadUint[uint32]([]byte{0x01, 0x02})
				return uint64(v), err
			},
			wantErr: true,
		},
		{
			name: "too long",
			read: func() (uint64, error) {
				v, err := ReadUint[uint32]([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
				return uint64(v), err
			},
			wantErr: true,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.read()
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Fatalf("got err %v, wantErr %t", err, test.wantErr)
			}
			if test.wantErr {
				if !errors.Is(err, ErrTruncated) && !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("error %v is not part of the taxonomy", err)
				}
				return
			}
			if got != test.want {
				t.Fatalf("got %#x, want %#x", got, test.want)
			}
		})
	}
}

func TestPutUintRoundTrip(t *testing.T) {
	b := make([]byte, 4)
	PutUint(b, uint32(0xcafef00d))
	got, err := ReadUint[uint32](b)
	if err != nil {
		t.Fatalf("ReadUint: %v", err)
	}
	if got != 0xcafef00d {
		t.Fatalf("got %#x, want %#x", got, 0xcafef00d)
	}
}

func TestReadTuple(t *testing.T) {
	b := []byte{0, 0, 0, 1, 0, 0, 0, 2}
	got, err := ReadTuple[uint32](b, 2)
	if err != nil {
		t.Fatalf("ReadTuple: %v", err)
	}
	if diff := cmp.Diff(got, []uint32{1, 2}); diff != "" {
		t.Fatalf("diff: %s", diff)
	}

	if _, err := ReadTuple[uint32](b, 3); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestReadArray(t *testing.T) {
	b := []byte{0, 1, 0, 2, 0, 3}
	got, err := ReadArray[uint16](b)
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if diff := cmp.Diff(got, []uint16{1, 2, 3}); diff != "" {
		t.Fatalf("diff: %s", diff)
	}

	if _, err := ReadArray[uint16]([]byte{1}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if _, err := ReadArray[uint16](nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

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
)

func buildPathTestTree(t *testing.T) *FDT {
	t.Helper()
	tree := New()
	root := tree.Root()
	l1, err := root.AddNode("l1@1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l1.AddNode("l2@1"); err != nil {
		t.Fatal(err)
	}
	return tree
}

// TestUnitAddressElision is literal scenario 3 from spec.md §8.
func TestUnitAddressElision(t *testing.T) {
	tree := buildPathTestTree(t)

	exact, err := tree.Find("/l1@1/l2@1")
	if err != nil {
		t.Fatalf("exact lookup: %v", err)
	}
	elided, err := tree.Find("/l1@1/l2")
	if err != nil {
		t.Fatalf("elided lookup: %v", err)
	}
	if exact != elided {
		t.Fatalf("exact and elided lookups returned different pieces")
	}
}

func TestElisionPicksLowestUnitAddress(t *testing.T) {
	tree := New()
	root := tree.Root()
	for _, addr := range []string{"2", "0", "1"} {
		if _, err := root.AddNode("dev@" + addr); err != nil {
			t.Fatal(err)
		}
	}
	got, err := tree.Find("/dev")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	n, err := AsNode(got)
	if err != nil {
		t.Fatal(err)
	}
	if addr, _ := UnitAddress(n); addr != "0" {
		t.Fatalf("elided match resolved to unit address %q, want %q", addr, "0")
	}
}

func TestElisionDoesNotMatchDivergingPrefix(t *testing.T) {
	tree := New()
	root := tree.Root()
	if _, err := root.AddNode("dev1"); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Find("/dev"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// TestPathRoot is spec.md §8's "Path root" universal invariant.
func TestPathRoot(t *testing.T) {
	tree := buildPathTestTree(t)

	if _, err := tree.Find("/"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf(`Find("/"): got %v, want ErrInvalidArgument`, err)
	}
	if _, err := tree.Find("/nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf(`Find("/nonexistent"): got %v, want ErrNotFound`, err)
	}
	if _, err := tree.Find("x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf(`Find("x"): got %v, want ErrInvalidArgument`, err)
	}
}

func TestFindEmptyComponentIsBadPath(t *testing.T) {
	tree := buildPathTestTree(t)
	if _, err := tree.Find("//l1@1"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}

func TestFindThroughPropertyFails(t *testing.T) {
	tree := New()
	root := tree.Root()
	if _, err := root.AddProperty("leaf"); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Find("/leaf/more"); !errors.Is(err, ErrBadCast) {
		t.Errorf("got %v, want ErrBadCast", err)
	}
}

func TestGetNodeGetProperty(t *testing.T) {
	tree := buildPathTestTree(t)
	if _, err := tree.GetNode("/l1@1"); err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	root := tree.Root()
	if _, err := root.AddProperty("p"); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.GetNode("/p"); !errors.Is(err, ErrBadCast) {
		t.Errorf("GetNode on a property: got %v, want ErrBadCast", err)
	}
	if _, err := tree.GetProperty("/l1@1"); !errors.Is(err, ErrBadCast) {
		t.Errorf("GetProperty on a node: got %v, want ErrBadCast", err)
	}
}

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
//
// The fitinfo tool prints the image and configuration nodes of a
// Flattened Image Tree blob, verifying every hash it finds along the
// way.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/transparency-dev/armored-witness-fit/fdt"
	"github.com/transparency-dev/armored-witness-fit/fit"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: fitinfo <fit-file>")
	}

	blob, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("ReadFile: %v", err)
	}

	tree, err := fdt.Parse(blob)
	if err != nil {
		log.Fatalf("Parse: %v", err)
	}

	ctx := context.Background()
	noExternal := func(ctx context.Context, offset, length int64, sink fit.Sink) error {
		return fmt.Errorf("fitinfo: no external reader configured, but image requested offset=%d length=%d", offset, length)
	}

	images, err := tree.GetNode("/images")
	if err != nil {
		log.Fatalf("this blob has no /images node: %v", err)
	}
	for _, img := range images.Subnodes() {
		sz, err := fit.ImageDataSize(img)
		if err != nil {
			log.Printf("%-24s data-size: error: %v", img.Name(), err)
			continue
		}
		ok, err := fit.VerifyImageHashes(ctx, img, blob, noExternal)
		switch {
		case err != nil:
			log.Printf("%-24s %6d bytes  hashes: error: %v", img.Name(), sz, err)
		case ok:
			log.Printf("%-24s %6d bytes  hashes: OK", img.Name(), sz)
		default:
			log.Printf("%-24s %6d bytes  hashes: MISMATCH", img.Name(), sz)
		}
	}

	configs, err := tree.GetNode("/configurations")
	if err != nil {
		return
	}
	for _, cfg := range configs.Subnodes() {
		log.Printf("configuration %s", cfg.Name())
	}
}

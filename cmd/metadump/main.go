// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command metadump prints the footer of Parquet
// files, or raw compact-encoded footer blobs,
// as JSON or YAML.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/SnellerInc/pqfooter/compact"
	"github.com/SnellerInc/pqfooter/compr"
	"github.com/SnellerInc/pqfooter/footer"

	"sigs.k8s.io/yaml"
)

var (
	dashyaml   bool
	dashscalar bool
	dashref    bool
)

func init() {
	flag.BoolVar(&dashyaml, "yaml", false, "print YAML instead of JSON")
	flag.BoolVar(&dashscalar, "scalar", false, "force the scalar varint decoder")
	flag.BoolVar(&dashref, "ref", false, "decode with the reference decoder")
}

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// load returns the encoded footer of the named input
func load(arg string) ([]byte, error) {
	algo := compr.ByExt(arg)
	if arg != "-" && algo == "" {
		// plain files: read only the tail
		f, err := os.Open(arg)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		meta, err := footer.ReadFooter(f, info.Size())
		if errors.Is(err, footer.ErrNotParquet) {
			// not a parquet file; treat as a raw blob
			_, err = f.Seek(0, io.SeekStart)
			if err != nil {
				return nil, err
			}
			return io.ReadAll(f)
		}
		return meta, err
	}
	var buf []byte
	var err error
	if arg == "-" {
		buf, err = io.ReadAll(os.Stdin)
	} else {
		buf, err = os.ReadFile(arg)
	}
	if err != nil {
		return nil, err
	}
	if algo != "" {
		buf, err = compr.DecodeAll(algo, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing: %w", err)
		}
	}
	if meta, err := footer.Locate(buf); err == nil {
		return meta, nil
	}
	return buf, nil
}

func decode(meta []byte) (*footer.FileMetaData, error) {
	if dashref {
		return footer.DecodeWith(compact.NewReference(meta))
	}
	return footer.Decode(meta)
}

func main() {
	flag.Parse()
	if dashscalar {
		compact.SetVarintLevel(compact.VarintScalar)
	}
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}
	o := bufio.NewWriter(os.Stdout)
	// output for earlier inputs is kept
	// when a later one fails
	fail := func(f string, args ...any) {
		o.Flush()
		exitf(f, args...)
	}
	for _, arg := range args {
		meta, err := load(arg)
		if err != nil {
			fail("input %s: %s", arg, err)
		}
		f, err := decode(meta)
		if err != nil {
			fail("input %s: %s", arg, err)
		}
		var out []byte
		if dashyaml {
			out, err = yaml.Marshal(f)
		} else {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetIndent("", "  ")
			err = enc.Encode(f)
			out = buf.Bytes()
		}
		if err != nil {
			fail("input %s: %s", arg, err)
		}
		if len(args) > 1 && dashyaml {
			o.WriteString("---\n")
		}
		o.Write(out)
	}
	if err := o.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

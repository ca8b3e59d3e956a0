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

// Command metagen writes synthetic wide-table footers.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/SnellerInc/pqfooter/compr"
	"github.com/SnellerInc/pqfooter/footer"
	"github.com/SnellerInc/pqfooter/internal/synth"
)

var (
	dashc        int
	dashg        int
	dashseed     int64
	dasho        string
	dashparquet  bool
	dashcompress string
)

func init() {
	flag.IntVar(&dashc, "c", 1000, "number of columns")
	flag.IntVar(&dashg, "g", synth.DefaultRowGroups, "number of row groups")
	flag.Int64Var(&dashseed, "seed", 42, "random seed")
	flag.StringVar(&dasho, "o", "", "output file (default stdout)")
	flag.BoolVar(&dashparquet, "parquet", false, "frame the footer as a minimal parquet file")
	flag.StringVar(&dashcompress, "compress", "", "compress the output (zstd, zstd-better, s2)")
}

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// generate returns the synthetic footer, framed
// and compressed as requested, and the size of
// the encoded footer itself
func generate(columns, groups int, seed int64, parquet bool, compress string) ([]byte, int, error) {
	if columns < 0 || groups < 0 {
		return nil, 0, fmt.Errorf("-c and -g must not be negative")
	}
	out := synth.Encoded(columns, groups, seed)
	size := len(out)
	if parquet {
		out = footer.AppendFile(nil, out)
	}
	if compress != "" {
		comp := compr.Compression(compress)
		if comp == nil {
			return nil, 0, fmt.Errorf("unknown compression %q", compress)
		}
		out = comp.Compress(out, nil)
	}
	return out, size, nil
}

func main() {
	flag.Parse()
	out, size, err := generate(dashc, dashg, dashseed, dashparquet, dashcompress)
	if err != nil {
		exitf("%s", err)
	}
	if dashcompress != "" && dasho != "" && compr.ByExt(dasho) == "" {
		dasho += compr.Ext(dashcompress)
	}
	if dasho == "" {
		_, err = os.Stdout.Write(out)
	} else {
		err = os.WriteFile(dasho, out, 0644)
	}
	if err != nil {
		exitf("writing output: %s", err)
	}
	if dasho != "" {
		log.Printf("%d columns, %d row groups: %d byte footer, wrote %d bytes to %s", dashc, dashg, size, len(out), dasho)
	}
}

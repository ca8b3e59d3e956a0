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

// Command metabench measures footer decoding throughput.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SnellerInc/pqfooter/compact"
	"github.com/SnellerInc/pqfooter/compr"
	"github.com/SnellerInc/pqfooter/footer"
	"github.com/SnellerInc/pqfooter/internal/synth"

	"github.com/google/uuid"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

var (
	dashc      string
	dashg      int
	dasht      time.Duration
	dashconfig string
	dashverify bool
)

func init() {
	flag.StringVar(&dashc, "c", "10,100,1000,10000,100000", "comma-separated column counts")
	flag.IntVar(&dashg, "g", synth.DefaultRowGroups, "row groups per footer")
	flag.DurationVar(&dasht, "t", time.Second, "time spent on each case")
	flag.StringVar(&dashconfig, "config", "", "YAML workload (overrides -c, -g and -t)")
	flag.BoolVar(&dashverify, "verify", false, "check that each footer re-encodes to identical bytes")
}

// input returns the encoded footer for c
func input(w *Workload, c *Case) ([]byte, error) {
	if c.File == "" {
		return synth.Encoded(c.Columns, c.RowGroups, w.Seed), nil
	}
	buf, err := os.ReadFile(c.File)
	if err != nil {
		return nil, err
	}
	if algo := compr.ByExt(c.File); algo != "" {
		buf, err = compr.DecodeAll(algo, buf, nil)
		if err != nil {
			return nil, err
		}
	}
	if meta, err := footer.Locate(buf); err == nil {
		return meta, nil
	}
	return buf, nil
}

// decodeFunc returns a function that decodes
// buf once with the named decoder
func decodeFunc(level string, buf []byte) func() error {
	var d footer.Decoder
	var f footer.FileMetaData
	if level == "reference" {
		return func() error {
			return d.DecodeWith(compact.NewReference(buf), &f)
		}
	}
	return func() error {
		return d.Decode(buf, &f)
	}
}

func setLevel(level string) {
	switch level {
	case "scalar":
		compact.SetVarintLevel(compact.VarintScalar)
	case "wide":
		compact.SetVarintLevel(compact.VarintWide)
	default:
		compact.SetVarintLevel(compact.VarintDetect)
	}
}

// run runs fn repeatedly until dur has elapsed
// and returns the fastest iteration
func run(fn func() error, dur time.Duration) (time.Duration, int, error) {
	var min time.Duration
	n := 0
	deadline := time.Now().Add(dur)
	for n == 0 || time.Now().Before(deadline) {
		start := time.Now()
		if err := fn(); err != nil {
			return 0, n, err
		}
		d := time.Since(start)
		if min == 0 || d < min {
			min = d
		}
		n++
	}
	return min, n, nil
}

func verify(buf []byte) (bool, error) {
	f, err := footer.Decode(buf)
	if err != nil {
		return false, err
	}
	return footer.Fingerprint(f.Marshal()) == footer.Fingerprint(buf), nil
}

func main() {
	flag.Parse()
	var w *Workload
	var err error
	if dashconfig != "" {
		buf, err := os.ReadFile(dashconfig)
		if err != nil {
			fatalf("reading config: %s", err)
		}
		w, err = parseConfig(buf)
		if err != nil {
			fatalf("config %s: %s", dashconfig, err)
		}
	} else {
		w, err = parseColumns(dashc, dashg, dasht)
		if err != nil {
			fatalf("%s", err)
		}
	}

	id := uuid.New()
	fmt.Printf("run %s varint level %s\n", id, compact.GetVarintLevel())
	for i := range w.Cases {
		c := &w.Cases[i]
		buf, err := input(w, c)
		if err != nil {
			fatalf("%s: %s", c, err)
		}
		if dashverify {
			ok, err := verify(buf)
			if err != nil {
				fatalf("%s: %s", c, err)
			}
			if !ok {
				// footers written elsewhere may carry fields
				// that are skipped on decode
				fmt.Printf("%s: re-encoded footer differs\n", c)
			}
		}
		for _, level := range w.Levels {
			setLevel(level)
			min, n, err := run(decodeFunc(level, buf), w.duration())
			if err != nil {
				fatalf("%s (%s): %s", c, level, err)
			}
			mbps := float64(len(buf)) / min.Seconds() / 1e6
			fmt.Printf("%s\t%s\t%dB\t%d iters\t%d ns/op\t%.1f MB/s\n", c, level, len(buf), n, min.Nanoseconds(), mbps)
		}
	}
}

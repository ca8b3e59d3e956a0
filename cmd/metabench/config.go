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

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"
)

// Workload is the set of benchmark cases to run.
type Workload struct {
	// RowGroups is the default number of row
	// groups for synthetic cases.
	RowGroups int `json:"rowgroups"`
	// Duration is how long each case
	// is run for, as a time.Duration string.
	Duration string `json:"duration"`
	// Seed seeds synthetic footers.
	Seed int64 `json:"seed"`
	// Levels lists the decoders to run;
	// see levelNames.
	Levels []string `json:"levels"`
	Cases  []Case   `json:"cases"`
}

// Case is a single benchmark input: either
// a synthetic footer or the footer of a file.
type Case struct {
	Columns   int    `json:"columns,omitempty"`
	RowGroups int    `json:"rowgroups,omitempty"`
	File      string `json:"file,omitempty"`
}

func (c *Case) String() string {
	if c.File != "" {
		return c.File
	}
	return fmt.Sprintf("columns=%d/rowgroups=%d", c.Columns, c.RowGroups)
}

var levelNames = []string{"scalar", "wide", "reference"}

// parseConfig parses a YAML (or JSON) workload
// and fills in defaults.
func parseConfig(buf []byte) (*Workload, error) {
	w := new(Workload)
	if err := yaml.Unmarshal(buf, w); err != nil {
		return nil, err
	}
	return w, w.fill()
}

// parseColumns builds a workload from
// a comma-separated list of column counts.
func parseColumns(list string, rowgroups int, dur time.Duration) (*Workload, error) {
	w := &Workload{RowGroups: rowgroups, Duration: dur.String()}
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("bad column count %q: %w", s, err)
		}
		w.Cases = append(w.Cases, Case{Columns: n})
	}
	return w, w.fill()
}

func (w *Workload) fill() error {
	if w.RowGroups <= 0 {
		w.RowGroups = 10
	}
	if w.Duration == "" {
		w.Duration = "1s"
	}
	if _, err := time.ParseDuration(w.Duration); err != nil {
		return err
	}
	if w.Seed == 0 {
		w.Seed = 42
	}
	if len(w.Levels) == 0 {
		w.Levels = []string{"wide"}
	}
	for _, l := range w.Levels {
		if !slices.Contains(levelNames, l) {
			return fmt.Errorf("unknown level %q (want one of %s)", l, strings.Join(levelNames, ", "))
		}
	}
	if len(w.Cases) == 0 {
		return fmt.Errorf("no benchmark cases")
	}
	for i := range w.Cases {
		c := &w.Cases[i]
		if c.File == "" && c.Columns <= 0 {
			return fmt.Errorf("case %d: need columns or file", i)
		}
		if c.File == "" && c.RowGroups <= 0 {
			c.RowGroups = w.RowGroups
		}
	}
	return nil
}

func (w *Workload) duration() time.Duration {
	d, _ := time.ParseDuration(w.Duration)
	return d
}

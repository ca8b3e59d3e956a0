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

// Package synth generates deterministic
// wide-table footers for tests and benchmarks.
package synth

import (
	"math/rand"
	"strconv"

	"github.com/SnellerInc/pqfooter/footer"
)

// DefaultRowGroups is the number of row
// groups used by the benchmarks.
const DefaultRowGroups = 10

// CreatedBy is the created_by string
// of every generated footer.
const CreatedBy = "pqfooter-synth"

// FileMetaData returns a footer describing a flat
// schema of the given number of FLOAT columns split
// into rowGroups row groups. Sizes and offsets are
// pseudo-random, drawn from seed, and span the full
// int64 and int32 ranges.
func FileMetaData(columns, rowGroups int, seed int64) *footer.FileMetaData {
	r := rand.New(rand.NewSource(seed))
	i64 := func() int64 { return int64(r.Uint64()) }
	i32 := func() int32 { return int32(r.Uint32()) }

	schema := make([]footer.SchemaElement, columns+1)
	nchildren := int32(columns)
	schema[0].NumChildren = &nchildren
	ftype := footer.Float
	required := footer.Required
	for i := 1; i <= columns; i++ {
		schema[i] = footer.SchemaElement{
			Type:           &ftype,
			RepetitionType: &required,
			Name:           strconv.Itoa(i - 1),
		}
	}

	groups := make([]footer.RowGroup, rowGroups)
	metas := make([]footer.ColumnMetaData, columns*rowGroups)
	encodings := []footer.Encoding{footer.Plain, footer.RLEDictionary}
	for g := range groups {
		chunks := make([]footer.ColumnChunk, columns)
		for c := range chunks {
			m := &metas[g*columns+c]
			*m = footer.ColumnMetaData{
				Type:                  footer.Float,
				Encodings:             encodings,
				PathInSchema:          []string{},
				Codec:                 footer.Uncompressed,
				NumValues:             i64(),
				TotalUncompressedSize: i64(),
				TotalCompressedSize:   i64(),
				DataPageOffset:        i64(),
				IndexPageOffset:       i64(),
				DictionaryPageOffset:  i64(),
			}
			chunks[c] = footer.ColumnChunk{
				MetaData:          m,
				OffsetIndexLength: i32(),
				OffsetIndexOffset: i64(),
				ColumnIndexLength: i32(),
				ColumnIndexOffset: i64(),
			}
		}
		ordinal := int16(g)
		groups[g] = footer.RowGroup{
			Columns:             chunks,
			TotalByteSize:       i64(),
			NumRows:             i64(),
			TotalCompressedSize: i64(),
			Ordinal:             &ordinal,
		}
	}
	return &footer.FileMetaData{
		Version:   1,
		Schema:    schema,
		NumRows:   i64(),
		RowGroups: groups,
		CreatedBy: CreatedBy,
	}
}

// Encoded returns the compact encoding of
// FileMetaData(columns, rowGroups, seed).
func Encoded(columns, rowGroups int, seed int64) []byte {
	return FileMetaData(columns, rowGroups, seed).Marshal()
}

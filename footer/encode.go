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

package footer

import (
	"github.com/SnellerInc/pqfooter/compact"
)

func i32(dst *compact.Buffer, id int16, v int32) {
	dst.BeginField(id, compact.I32)
	dst.WriteI32(v)
}

func i64(dst *compact.Buffer, id int16, v int64) {
	dst.BeginField(id, compact.I64)
	dst.WriteI64(v)
}

func str(dst *compact.Buffer, id int16, s string) {
	dst.BeginField(id, compact.Binary)
	dst.WriteString(s)
}

func boolean(dst *compact.Buffer, id int16, b bool) {
	dst.BeginField(id, compact.Bool)
	dst.WriteBool(b)
}

func optI32[T ~int32](dst *compact.Buffer, id int16, v *T) {
	if v != nil {
		i32(dst, id, int32(*v))
	}
}

// the following write their field only when non-zero

func nzI32(dst *compact.Buffer, id int16, v int32) {
	if v != 0 {
		i32(dst, id, v)
	}
}

func nzI64(dst *compact.Buffer, id int16, v int64) {
	if v != 0 {
		i64(dst, id, v)
	}
}

func nzStr(dst *compact.Buffer, id int16, s string) {
	if s != "" {
		str(dst, id, s)
	}
}

func nzBinary(dst *compact.Buffer, id int16, b []byte) {
	if b != nil {
		dst.BeginField(id, compact.Binary)
		dst.WriteBytes(b)
	}
}

func nzBool(dst *compact.Buffer, id int16, b bool) {
	if b {
		boolean(dst, id, b)
	}
}

func keyValues(dst *compact.Buffer, id int16, kvs []KeyValue) {
	if len(kvs) == 0 {
		return
	}
	dst.BeginField(id, compact.List)
	dst.BeginList(compact.Struct, len(kvs))
	for i := range kvs {
		kvs[i].Encode(dst)
	}
}

// Encode encodes f as a compact-protocol struct.
func (f *FileMetaData) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	i32(dst, 1, f.Version)
	dst.BeginField(2, compact.List)
	dst.BeginList(compact.Struct, len(f.Schema))
	for i := range f.Schema {
		f.Schema[i].Encode(dst)
	}
	i64(dst, 3, f.NumRows)
	dst.BeginField(4, compact.List)
	dst.BeginList(compact.Struct, len(f.RowGroups))
	for i := range f.RowGroups {
		f.RowGroups[i].Encode(dst)
	}
	keyValues(dst, 5, f.KeyValueMetadata)
	nzStr(dst, 6, f.CreatedBy)
	if len(f.ColumnOrders) > 0 {
		dst.BeginField(7, compact.List)
		dst.BeginList(compact.Struct, len(f.ColumnOrders))
		for i := range f.ColumnOrders {
			f.ColumnOrders[i].Encode(dst)
		}
	}
	dst.EndStruct()
}

// Encode encodes s as a compact-protocol struct.
func (s *SchemaElement) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	optI32(dst, 1, s.Type)
	optI32(dst, 2, s.TypeLength)
	optI32(dst, 3, s.RepetitionType)
	str(dst, 4, s.Name)
	optI32(dst, 5, s.NumChildren)
	optI32(dst, 6, s.ConvertedType)
	optI32(dst, 7, s.Scale)
	optI32(dst, 8, s.Precision)
	optI32(dst, 9, s.FieldID)
	dst.EndStruct()
}

// Encode encodes r as a compact-protocol struct.
func (r *RowGroup) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	dst.BeginField(1, compact.List)
	dst.BeginList(compact.Struct, len(r.Columns))
	for i := range r.Columns {
		r.Columns[i].Encode(dst)
	}
	i64(dst, 2, r.TotalByteSize)
	i64(dst, 3, r.NumRows)
	if len(r.SortingColumns) > 0 {
		dst.BeginField(4, compact.List)
		dst.BeginList(compact.Struct, len(r.SortingColumns))
		for i := range r.SortingColumns {
			r.SortingColumns[i].Encode(dst)
		}
	}
	nzI64(dst, 5, r.FileOffset)
	nzI64(dst, 6, r.TotalCompressedSize)
	if r.Ordinal != nil {
		dst.BeginField(7, compact.I16)
		dst.WriteI16(*r.Ordinal)
	}
	dst.EndStruct()
}

// Encode encodes s as a compact-protocol struct.
func (s *SortingColumn) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	i32(dst, 1, s.ColumnIdx)
	boolean(dst, 2, s.Descending)
	boolean(dst, 3, s.NullsFirst)
	dst.EndStruct()
}

// Encode encodes c as a compact-protocol struct.
func (c *ColumnChunk) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	nzStr(dst, 1, c.FilePath)
	i64(dst, 2, c.FileOffset)
	if c.MetaData != nil {
		dst.BeginField(3, compact.Struct)
		c.MetaData.Encode(dst)
	}
	nzI64(dst, 4, c.OffsetIndexOffset)
	nzI32(dst, 5, c.OffsetIndexLength)
	nzI64(dst, 6, c.ColumnIndexOffset)
	nzI32(dst, 7, c.ColumnIndexLength)
	dst.EndStruct()
}

// Encode encodes m as a compact-protocol struct.
func (m *ColumnMetaData) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	i32(dst, 1, int32(m.Type))
	dst.BeginField(2, compact.List)
	dst.BeginList(compact.I32, len(m.Encodings))
	for _, e := range m.Encodings {
		dst.WriteI32(int32(e))
	}
	dst.BeginField(3, compact.List)
	dst.BeginList(compact.Binary, len(m.PathInSchema))
	for _, s := range m.PathInSchema {
		dst.WriteString(s)
	}
	i32(dst, 4, int32(m.Codec))
	i64(dst, 5, m.NumValues)
	i64(dst, 6, m.TotalUncompressedSize)
	i64(dst, 7, m.TotalCompressedSize)
	keyValues(dst, 8, m.KeyValueMetadata)
	i64(dst, 9, m.DataPageOffset)
	nzI64(dst, 10, m.IndexPageOffset)
	nzI64(dst, 11, m.DictionaryPageOffset)
	if m.Statistics != nil {
		dst.BeginField(12, compact.Struct)
		m.Statistics.Encode(dst)
	}
	if len(m.EncodingStats) > 0 {
		dst.BeginField(13, compact.List)
		dst.BeginList(compact.Struct, len(m.EncodingStats))
		for i := range m.EncodingStats {
			m.EncodingStats[i].Encode(dst)
		}
	}
	nzI64(dst, 14, m.BloomFilterOffset)
	nzI32(dst, 15, m.BloomFilterLength)
	dst.EndStruct()
}

// Encode encodes s as a compact-protocol struct.
func (s *Statistics) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	nzBinary(dst, 1, s.Max)
	nzBinary(dst, 2, s.Min)
	nzI64(dst, 3, s.NullCount)
	nzI64(dst, 4, s.DistinctCount)
	nzBinary(dst, 5, s.MaxValue)
	nzBinary(dst, 6, s.MinValue)
	nzBool(dst, 7, s.IsMaxValueExact)
	nzBool(dst, 8, s.IsMinValueExact)
	dst.EndStruct()
}

// Encode encodes s as a compact-protocol struct.
func (s *PageEncodingStats) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	i32(dst, 1, int32(s.PageType))
	i32(dst, 2, int32(s.Encoding))
	i32(dst, 3, s.Count)
	dst.EndStruct()
}

// Encode encodes kv as a compact-protocol struct.
func (kv *KeyValue) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	str(dst, 1, kv.Key)
	nzStr(dst, 2, kv.Value)
	dst.EndStruct()
}

// Encode encodes c as a compact-protocol union.
func (c *ColumnOrder) Encode(dst *compact.Buffer) {
	dst.BeginStruct()
	if c.TypeOrder {
		dst.BeginField(1, compact.Struct)
		dst.BeginStruct()
		dst.EndStruct()
	}
	dst.EndStruct()
}

// Marshal returns the compact encoding of f.
func (f *FileMetaData) Marshal() []byte {
	var b compact.Buffer
	f.Encode(&b)
	return b.Bytes()
}

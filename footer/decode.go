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
	"errors"
	"fmt"

	"github.com/SnellerInc/pqfooter/compact"
	"github.com/SnellerInc/pqfooter/utf8"
)

// MissingFieldError is returned when a
// structure ends without one of its required fields.
type MissingFieldError struct {
	Struct string
	Field  string
}

func (m *MissingFieldError) Error() string {
	return fmt.Sprintf("footer: %s missing required field %q", m.Struct, m.Field)
}

// A Decoder decodes footers into structures
// carved out of shared arenas, so that the column
// chunks of many row groups cost only a handful
// of allocations. Values returned by a Decoder
// remain valid after subsequent calls.
//
// The zero value of Decoder is ready to use.
type Decoder struct {
	p   compact.Protocol
	dec compact.Decoder

	chunkcap int
	chunks   []ColumnChunk
	metas    []ColumnMetaData
	enccap   int
	encs     []Encoding

	paths map[string]string
}

// Decode decodes a compact-encoded FileMetaData from buf.
// Strings and binary values are copied out of buf.
func Decode(buf []byte) (*FileMetaData, error) {
	var d Decoder
	f := new(FileMetaData)
	if err := d.Decode(buf, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DecodeWith decodes a FileMetaData from any Protocol.
func DecodeWith(p compact.Protocol) (*FileMetaData, error) {
	var d Decoder
	f := new(FileMetaData)
	if err := d.DecodeWith(p, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Decode decodes buf into dst using the production decoder.
func (d *Decoder) Decode(buf []byte, dst *FileMetaData) error {
	d.dec.Reset(buf)
	return d.DecodeWith(&d.dec, dst)
}

// DecodeWith decodes the next struct read from p into dst.
func (d *Decoder) DecodeWith(p compact.Protocol, dst *FileMetaData) error {
	d.p = p
	err := d.fileMetaData(dst)
	d.p = nil
	if err != nil {
		return fmt.Errorf("footer.Decode: %w", err)
	}
	return nil
}

// makeChunks returns a []ColumnChunk of len n, using the
// front of d.chunks if possible.
func (d *Decoder) makeChunks(n int) []ColumnChunk {
	if n == 0 {
		return []ColumnChunk{}
	}
	if n > len(d.chunks) {
		d.chunkcap = n + 2*d.chunkcap
		d.chunks = make([]ColumnChunk, d.chunkcap)
	}
	c := d.chunks[:n:n]
	d.chunks = d.chunks[n:]
	return c
}

// makeEncodings returns an []Encoding of len n, using the
// front of d.encs if possible.
func (d *Decoder) makeEncodings(n int) []Encoding {
	if n == 0 {
		return []Encoding{}
	}
	if n > len(d.encs) {
		d.enccap = n + 2*d.enccap
		d.encs = make([]Encoding, d.enccap)
	}
	e := d.encs[:n:n]
	d.encs = d.encs[n:]
	return e
}

// meta returns a pointer to a fresh ColumnMetaData.
func (d *Decoder) meta() *ColumnMetaData {
	if len(d.metas) == cap(d.metas) {
		d.metas = make([]ColumnMetaData, 0, 8+2*cap(d.metas))
	}
	d.metas = d.metas[:len(d.metas)+1]
	return &d.metas[len(d.metas)-1]
}

// path returns an interned copy of a path component.
func (d *Decoder) path() (string, error) {
	mem, err := d.p.ReadBytesShared()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(mem) {
		return "", &compact.ProtocolError{Func: "ReadString", Msg: "invalid UTF-8 in path_in_schema"}
	}
	if d.paths == nil {
		d.paths = make(map[string]string)
	} else if s, ok := d.paths[string(mem)]; ok {
		return s, nil
	}
	s := string(mem)
	d.paths[s] = s
	return s, nil
}

type fieldInfo struct {
	name     string
	typ      compact.Type
	required bool
}

// structInfo describes the known fields of a
// structure, indexed by field id. Fields
// not described here are skipped.
type structInfo struct {
	name   string
	fields []fieldInfo
}

// unpack decodes one structure, calling fn for
// each field whose id and wire type match si.
func (d *Decoder) unpack(si *structInfo, fn func(id int16) error) error {
	p := d.p
	if err := p.ReadStructBegin(); err != nil {
		return err
	}
	var seen uint64
	for {
		f, err := p.ReadFieldBegin()
		if err != nil {
			return err
		}
		if f.Type == compact.Stop {
			break
		}
		if f.ID > 0 && int(f.ID) < len(si.fields) && si.fields[f.ID].typ == f.Type {
			err = fn(f.ID)
			if err == errElemType {
				err = nil
			} else {
				seen |= 1 << f.ID
			}
		} else {
			err = p.Skip(f.Type)
		}
		if err != nil {
			return err
		}
		if err := p.ReadFieldEnd(); err != nil {
			return err
		}
	}
	if err := p.ReadStructEnd(); err != nil {
		return err
	}
	for id := range si.fields {
		if si.fields[id].required && seen&(1<<id) == 0 {
			return &MissingFieldError{Struct: si.name, Field: si.fields[id].name}
		}
	}
	return nil
}

// errElemType is returned by list when the elements
// were skipped; unpack treats the field as absent.
var errElemType = errors.New("footer: unexpected list element type")

// list reads a list header and calls fn once per
// element. Lists whose element type is not want
// are skipped without calling start or fn, and
// list returns errElemType.
func (d *Decoder) list(want compact.Type, start func(n int), fn func(i int) error) error {
	t, n, err := d.p.ReadListBegin()
	if err != nil {
		return err
	}
	if t != want {
		for i := 0; i < n; i++ {
			if err := d.p.Skip(t); err != nil {
				return err
			}
		}
		if err := d.p.ReadListEnd(); err != nil {
			return err
		}
		return errElemType
	}
	if start != nil {
		start(n)
	}
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			return err
		}
	}
	return d.p.ReadListEnd()
}

func readI32[T ~int32](p compact.Protocol, dst *T) error {
	v, err := p.ReadI32()
	*dst = T(v)
	return err
}

func readOptI32[T ~int32](p compact.Protocol, dst **T) error {
	v, err := p.ReadI32()
	if err != nil {
		return err
	}
	t := T(v)
	*dst = &t
	return nil
}

func readI64(p compact.Protocol, dst *int64) error {
	v, err := p.ReadI64()
	*dst = v
	return err
}

func readString(p compact.Protocol, dst *string) error {
	s, err := p.ReadString()
	*dst = s
	return err
}

func readBool(p compact.Protocol, dst *bool) error {
	b, err := p.ReadBool()
	*dst = b
	return err
}

func readBinary(p compact.Protocol, dst *[]byte) error {
	b, err := p.ReadBytes()
	*dst = b
	return err
}

var fileMetaDataInfo = structInfo{
	name: "FileMetaData",
	fields: []fieldInfo{
		1: {"version", compact.I32, true},
		2: {"schema", compact.List, true},
		3: {"num_rows", compact.I64, true},
		4: {"row_groups", compact.List, true},
		5: {"key_value_metadata", compact.List, false},
		6: {"created_by", compact.Binary, false},
		7: {"column_orders", compact.List, false},
	},
}

func (d *Decoder) fileMetaData(f *FileMetaData) error {
	p := d.p
	return d.unpack(&fileMetaDataInfo, func(id int16) error {
		switch id {
		case 1:
			return readI32(p, &f.Version)
		case 2:
			f.Schema = nil
			return d.list(compact.Struct, func(n int) {
				f.Schema = make([]SchemaElement, n)
			}, func(i int) error {
				return d.schemaElement(&f.Schema[i])
			})
		case 3:
			return readI64(p, &f.NumRows)
		case 4:
			f.RowGroups = nil
			return d.list(compact.Struct, func(n int) {
				f.RowGroups = make([]RowGroup, n)
			}, func(i int) error {
				return d.rowGroup(&f.RowGroups[i])
			})
		case 5:
			return d.keyValues(&f.KeyValueMetadata)
		case 6:
			return readString(p, &f.CreatedBy)
		case 7:
			f.ColumnOrders = nil
			return d.list(compact.Struct, func(n int) {
				f.ColumnOrders = make([]ColumnOrder, n)
			}, func(i int) error {
				return d.columnOrder(&f.ColumnOrders[i])
			})
		}
		return nil
	})
}

var schemaElementInfo = structInfo{
	name: "SchemaElement",
	fields: []fieldInfo{
		1: {"type", compact.I32, false},
		2: {"type_length", compact.I32, false},
		3: {"repetition_type", compact.I32, false},
		4: {"name", compact.Binary, true},
		5: {"num_children", compact.I32, false},
		6: {"converted_type", compact.I32, false},
		7: {"scale", compact.I32, false},
		8: {"precision", compact.I32, false},
		9: {"field_id", compact.I32, false},
	},
}

func (d *Decoder) schemaElement(s *SchemaElement) error {
	p := d.p
	return d.unpack(&schemaElementInfo, func(id int16) error {
		switch id {
		case 1:
			return readOptI32(p, &s.Type)
		case 2:
			return readOptI32(p, &s.TypeLength)
		case 3:
			return readOptI32(p, &s.RepetitionType)
		case 4:
			return readString(p, &s.Name)
		case 5:
			return readOptI32(p, &s.NumChildren)
		case 6:
			return readOptI32(p, &s.ConvertedType)
		case 7:
			return readOptI32(p, &s.Scale)
		case 8:
			return readOptI32(p, &s.Precision)
		case 9:
			return readOptI32(p, &s.FieldID)
		}
		return nil
	})
}

var rowGroupInfo = structInfo{
	name: "RowGroup",
	fields: []fieldInfo{
		1: {"columns", compact.List, true},
		2: {"total_byte_size", compact.I64, true},
		3: {"num_rows", compact.I64, true},
		4: {"sorting_columns", compact.List, false},
		5: {"file_offset", compact.I64, false},
		6: {"total_compressed_size", compact.I64, false},
		7: {"ordinal", compact.I16, false},
	},
}

func (d *Decoder) rowGroup(r *RowGroup) error {
	p := d.p
	return d.unpack(&rowGroupInfo, func(id int16) error {
		switch id {
		case 1:
			r.Columns = nil
			return d.list(compact.Struct, func(n int) {
				r.Columns = d.makeChunks(n)
			}, func(i int) error {
				return d.columnChunk(&r.Columns[i])
			})
		case 2:
			return readI64(p, &r.TotalByteSize)
		case 3:
			return readI64(p, &r.NumRows)
		case 4:
			r.SortingColumns = nil
			return d.list(compact.Struct, func(n int) {
				r.SortingColumns = make([]SortingColumn, n)
			}, func(i int) error {
				return d.sortingColumn(&r.SortingColumns[i])
			})
		case 5:
			return readI64(p, &r.FileOffset)
		case 6:
			return readI64(p, &r.TotalCompressedSize)
		case 7:
			v, err := p.ReadI16()
			if err != nil {
				return err
			}
			r.Ordinal = &v
		}
		return nil
	})
}

var sortingColumnInfo = structInfo{
	name: "SortingColumn",
	fields: []fieldInfo{
		1: {"column_idx", compact.I32, true},
		2: {"descending", compact.Bool, true},
		3: {"nulls_first", compact.Bool, true},
	},
}

func (d *Decoder) sortingColumn(s *SortingColumn) error {
	p := d.p
	return d.unpack(&sortingColumnInfo, func(id int16) error {
		switch id {
		case 1:
			return readI32(p, &s.ColumnIdx)
		case 2:
			return readBool(p, &s.Descending)
		case 3:
			return readBool(p, &s.NullsFirst)
		}
		return nil
	})
}

var columnChunkInfo = structInfo{
	name: "ColumnChunk",
	fields: []fieldInfo{
		1: {"file_path", compact.Binary, false},
		2: {"file_offset", compact.I64, true},
		3: {"meta_data", compact.Struct, false},
		4: {"offset_index_offset", compact.I64, false},
		5: {"offset_index_length", compact.I32, false},
		6: {"column_index_offset", compact.I64, false},
		7: {"column_index_length", compact.I32, false},
	},
}

func (d *Decoder) columnChunk(c *ColumnChunk) error {
	p := d.p
	return d.unpack(&columnChunkInfo, func(id int16) error {
		switch id {
		case 1:
			return readString(p, &c.FilePath)
		case 2:
			return readI64(p, &c.FileOffset)
		case 3:
			c.MetaData = d.meta()
			return d.columnMetaData(c.MetaData)
		case 4:
			return readI64(p, &c.OffsetIndexOffset)
		case 5:
			return readI32(p, &c.OffsetIndexLength)
		case 6:
			return readI64(p, &c.ColumnIndexOffset)
		case 7:
			return readI32(p, &c.ColumnIndexLength)
		}
		return nil
	})
}

var columnMetaDataInfo = structInfo{
	name: "ColumnMetaData",
	fields: []fieldInfo{
		1:  {"type", compact.I32, true},
		2:  {"encodings", compact.List, true},
		3:  {"path_in_schema", compact.List, true},
		4:  {"codec", compact.I32, true},
		5:  {"num_values", compact.I64, true},
		6:  {"total_uncompressed_size", compact.I64, true},
		7:  {"total_compressed_size", compact.I64, true},
		8:  {"key_value_metadata", compact.List, false},
		9:  {"data_page_offset", compact.I64, true},
		10: {"index_page_offset", compact.I64, false},
		11: {"dictionary_page_offset", compact.I64, false},
		12: {"statistics", compact.Struct, false},
		13: {"encoding_stats", compact.List, false},
		14: {"bloom_filter_offset", compact.I64, false},
		15: {"bloom_filter_length", compact.I32, false},
	},
}

func (d *Decoder) columnMetaData(m *ColumnMetaData) error {
	p := d.p
	return d.unpack(&columnMetaDataInfo, func(id int16) error {
		switch id {
		case 1:
			return readI32(p, &m.Type)
		case 2:
			m.Encodings = nil
			return d.list(compact.I32, func(n int) {
				m.Encodings = d.makeEncodings(n)
			}, func(i int) error {
				return readI32(p, &m.Encodings[i])
			})
		case 3:
			m.PathInSchema = nil
			return d.list(compact.Binary, func(n int) {
				m.PathInSchema = make([]string, n)
			}, func(i int) error {
				s, err := d.path()
				m.PathInSchema[i] = s
				return err
			})
		case 4:
			return readI32(p, &m.Codec)
		case 5:
			return readI64(p, &m.NumValues)
		case 6:
			return readI64(p, &m.TotalUncompressedSize)
		case 7:
			return readI64(p, &m.TotalCompressedSize)
		case 8:
			return d.keyValues(&m.KeyValueMetadata)
		case 9:
			return readI64(p, &m.DataPageOffset)
		case 10:
			return readI64(p, &m.IndexPageOffset)
		case 11:
			return readI64(p, &m.DictionaryPageOffset)
		case 12:
			m.Statistics = new(Statistics)
			return d.statistics(m.Statistics)
		case 13:
			m.EncodingStats = nil
			return d.list(compact.Struct, func(n int) {
				m.EncodingStats = make([]PageEncodingStats, n)
			}, func(i int) error {
				return d.pageEncodingStats(&m.EncodingStats[i])
			})
		case 14:
			return readI64(p, &m.BloomFilterOffset)
		case 15:
			return readI32(p, &m.BloomFilterLength)
		}
		return nil
	})
}

var statisticsInfo = structInfo{
	name: "Statistics",
	fields: []fieldInfo{
		1: {"max", compact.Binary, false},
		2: {"min", compact.Binary, false},
		3: {"null_count", compact.I64, false},
		4: {"distinct_count", compact.I64, false},
		5: {"max_value", compact.Binary, false},
		6: {"min_value", compact.Binary, false},
		7: {"is_max_value_exact", compact.Bool, false},
		8: {"is_min_value_exact", compact.Bool, false},
	},
}

func (d *Decoder) statistics(s *Statistics) error {
	p := d.p
	return d.unpack(&statisticsInfo, func(id int16) error {
		switch id {
		case 1:
			return readBinary(p, &s.Max)
		case 2:
			return readBinary(p, &s.Min)
		case 3:
			return readI64(p, &s.NullCount)
		case 4:
			return readI64(p, &s.DistinctCount)
		case 5:
			return readBinary(p, &s.MaxValue)
		case 6:
			return readBinary(p, &s.MinValue)
		case 7:
			return readBool(p, &s.IsMaxValueExact)
		case 8:
			return readBool(p, &s.IsMinValueExact)
		}
		return nil
	})
}

var pageEncodingStatsInfo = structInfo{
	name: "PageEncodingStats",
	fields: []fieldInfo{
		1: {"page_type", compact.I32, true},
		2: {"encoding", compact.I32, true},
		3: {"count", compact.I32, true},
	},
}

func (d *Decoder) pageEncodingStats(s *PageEncodingStats) error {
	p := d.p
	return d.unpack(&pageEncodingStatsInfo, func(id int16) error {
		switch id {
		case 1:
			return readI32(p, &s.PageType)
		case 2:
			return readI32(p, &s.Encoding)
		case 3:
			return readI32(p, &s.Count)
		}
		return nil
	})
}

var keyValueInfo = structInfo{
	name: "KeyValue",
	fields: []fieldInfo{
		1: {"key", compact.Binary, true},
		2: {"value", compact.Binary, false},
	},
}

func (d *Decoder) keyValue(kv *KeyValue) error {
	p := d.p
	return d.unpack(&keyValueInfo, func(id int16) error {
		switch id {
		case 1:
			return readString(p, &kv.Key)
		case 2:
			return readString(p, &kv.Value)
		}
		return nil
	})
}

func (d *Decoder) keyValues(dst *[]KeyValue) error {
	*dst = nil
	return d.list(compact.Struct, func(n int) {
		*dst = make([]KeyValue, n)
	}, func(i int) error {
		return d.keyValue(&(*dst)[i])
	})
}

var columnOrderInfo = structInfo{
	name: "ColumnOrder",
	fields: []fieldInfo{
		1: {"TYPE_ORDER", compact.Struct, false},
	},
}

func (d *Decoder) columnOrder(c *ColumnOrder) error {
	return d.unpack(&columnOrderInfo, func(id int16) error {
		// TypeDefinedOrder has no fields
		c.TypeOrder = true
		return d.p.Skip(compact.Struct)
	})
}

// Decode decodes a FileMetaData from p.
func (f *FileMetaData) Decode(p compact.Protocol) error {
	var d Decoder
	return d.DecodeWith(p, f)
}

// Decode decodes a SchemaElement from p.
func (s *SchemaElement) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.schemaElement(s)
}

// Decode decodes a RowGroup from p.
func (r *RowGroup) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.rowGroup(r)
}

// Decode decodes a ColumnChunk from p.
func (c *ColumnChunk) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.columnChunk(c)
}

// Decode decodes a ColumnMetaData from p.
func (m *ColumnMetaData) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.columnMetaData(m)
}

// Decode decodes a Statistics from p.
func (s *Statistics) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.statistics(s)
}

// Decode decodes a PageEncodingStats from p.
func (s *PageEncodingStats) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.pageEncodingStats(s)
}

// Decode decodes a KeyValue from p.
func (kv *KeyValue) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.keyValue(kv)
}

// Decode decodes a SortingColumn from p.
func (s *SortingColumn) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.sortingColumn(s)
}

// Decode decodes a ColumnOrder from p.
func (c *ColumnOrder) Decode(p compact.Protocol) error {
	d := Decoder{p: p}
	return d.columnOrder(c)
}

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

// Package footer decodes and encodes Parquet
// file metadata (the footer) using the compact
// Thrift protocol.
//
// Optional fields in the high-volume structures
// (RowGroup, ColumnChunk, ColumnMetaData) use the
// zero value to mean "absent"; optional fields of
// SchemaElement, where zero is a meaningful value,
// are pointers.
package footer

import (
	"fmt"
)

// Type is a Parquet physical type.
type Type int32

const (
	Boolean Type = iota
	Int32
	Int64
	Int96
	Float
	DoubleType
	ByteArray
	FixedLenByteArray
)

var typeNames = []string{
	"BOOLEAN", "INT32", "INT64", "INT96",
	"FLOAT", "DOUBLE", "BYTE_ARRAY", "FIXED_LEN_BYTE_ARRAY",
}

func (t Type) String() string { return enumName(typeNames, int32(t)) }

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Repetition is a Parquet FieldRepetitionType.
type Repetition int32

const (
	Required Repetition = iota
	Optional
	Repeated
)

var repetitionNames = []string{"REQUIRED", "OPTIONAL", "REPEATED"}

func (r Repetition) String() string { return enumName(repetitionNames, int32(r)) }

func (r Repetition) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Encoding is a Parquet page encoding.
type Encoding int32

const (
	Plain                Encoding = 0
	PlainDictionary      Encoding = 2
	RLE                  Encoding = 3
	BitPacked            Encoding = 4
	DeltaBinaryPacked    Encoding = 5
	DeltaLengthByteArray Encoding = 6
	DeltaByteArray       Encoding = 7
	RLEDictionary        Encoding = 8
	ByteStreamSplit      Encoding = 9
)

var encodingNames = []string{
	"PLAIN", "GROUP_VAR_INT", "PLAIN_DICTIONARY", "RLE", "BIT_PACKED",
	"DELTA_BINARY_PACKED", "DELTA_LENGTH_BYTE_ARRAY", "DELTA_BYTE_ARRAY",
	"RLE_DICTIONARY", "BYTE_STREAM_SPLIT",
}

func (e Encoding) String() string { return enumName(encodingNames, int32(e)) }

func (e Encoding) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// Codec is a Parquet CompressionCodec.
type Codec int32

const (
	Uncompressed Codec = iota
	Snappy
	Gzip
	LZO
	Brotli
	LZ4
	Zstd
	LZ4Raw
)

var codecNames = []string{
	"UNCOMPRESSED", "SNAPPY", "GZIP", "LZO", "BROTLI", "LZ4", "ZSTD", "LZ4_RAW",
}

func (c Codec) String() string { return enumName(codecNames, int32(c)) }

func (c Codec) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// PageType is a Parquet page type.
type PageType int32

const (
	DataPage PageType = iota
	IndexPage
	DictionaryPage
	DataPageV2
)

var pageTypeNames = []string{"DATA_PAGE", "INDEX_PAGE", "DICTIONARY_PAGE", "DATA_PAGE_V2"}

func (p PageType) String() string { return enumName(pageTypeNames, int32(p)) }

func (p PageType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func enumName(names []string, v int32) string {
	if v >= 0 && int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%d", v)
}

// FileMetaData is the root of a Parquet footer.
type FileMetaData struct {
	Version   int32           `json:"version"`
	Schema    []SchemaElement `json:"schema"`
	NumRows   int64           `json:"num_rows"`
	RowGroups []RowGroup      `json:"row_groups"`

	KeyValueMetadata []KeyValue    `json:"key_value_metadata,omitempty"`
	CreatedBy        string        `json:"created_by,omitempty"`
	ColumnOrders     []ColumnOrder `json:"column_orders,omitempty"`
}

// SchemaElement is one node of the flattened schema tree.
type SchemaElement struct {
	Type           *Type       `json:"type,omitempty"`
	TypeLength     *int32      `json:"type_length,omitempty"`
	RepetitionType *Repetition `json:"repetition_type,omitempty"`
	Name           string      `json:"name"`
	NumChildren    *int32      `json:"num_children,omitempty"`
	ConvertedType  *int32      `json:"converted_type,omitempty"`
	Scale          *int32      `json:"scale,omitempty"`
	Precision      *int32      `json:"precision,omitempty"`
	FieldID        *int32      `json:"field_id,omitempty"`
}

// RowGroup describes one horizontal partition of the file.
type RowGroup struct {
	Columns             []ColumnChunk   `json:"columns"`
	TotalByteSize       int64           `json:"total_byte_size"`
	NumRows             int64           `json:"num_rows"`
	SortingColumns      []SortingColumn `json:"sorting_columns,omitempty"`
	FileOffset          int64           `json:"file_offset,omitempty"`
	TotalCompressedSize int64           `json:"total_compressed_size,omitempty"`
	Ordinal             *int16          `json:"ordinal,omitempty"`
}

// SortingColumn describes the sort order of one column in a row group.
type SortingColumn struct {
	ColumnIdx  int32 `json:"column_idx"`
	Descending bool  `json:"descending"`
	NullsFirst bool  `json:"nulls_first"`
}

// ColumnChunk locates the data of one column within a row group.
type ColumnChunk struct {
	FilePath          string          `json:"file_path,omitempty"`
	FileOffset        int64           `json:"file_offset"`
	MetaData          *ColumnMetaData `json:"meta_data,omitempty"`
	OffsetIndexOffset int64           `json:"offset_index_offset,omitempty"`
	OffsetIndexLength int32           `json:"offset_index_length,omitempty"`
	ColumnIndexOffset int64           `json:"column_index_offset,omitempty"`
	ColumnIndexLength int32           `json:"column_index_length,omitempty"`
}

// ColumnMetaData describes the pages of a column chunk.
type ColumnMetaData struct {
	Type                  Type                `json:"type"`
	Encodings             []Encoding          `json:"encodings"`
	PathInSchema          []string            `json:"path_in_schema"`
	Codec                 Codec               `json:"codec"`
	NumValues             int64               `json:"num_values"`
	TotalUncompressedSize int64               `json:"total_uncompressed_size"`
	TotalCompressedSize   int64               `json:"total_compressed_size"`
	KeyValueMetadata      []KeyValue          `json:"key_value_metadata,omitempty"`
	DataPageOffset        int64               `json:"data_page_offset"`
	IndexPageOffset       int64               `json:"index_page_offset,omitempty"`
	DictionaryPageOffset  int64               `json:"dictionary_page_offset,omitempty"`
	Statistics            *Statistics         `json:"statistics,omitempty"`
	EncodingStats         []PageEncodingStats `json:"encoding_stats,omitempty"`
	BloomFilterOffset     int64               `json:"bloom_filter_offset,omitempty"`
	BloomFilterLength     int32               `json:"bloom_filter_length,omitempty"`
}

// Statistics holds column chunk statistics.
// Binary fields are nil when absent.
type Statistics struct {
	Max             []byte `json:"max,omitempty"`
	Min             []byte `json:"min,omitempty"`
	NullCount       int64  `json:"null_count,omitempty"`
	DistinctCount   int64  `json:"distinct_count,omitempty"`
	MaxValue        []byte `json:"max_value,omitempty"`
	MinValue        []byte `json:"min_value,omitempty"`
	IsMaxValueExact bool   `json:"is_max_value_exact,omitempty"`
	IsMinValueExact bool   `json:"is_min_value_exact,omitempty"`
}

// PageEncodingStats counts pages of one type and encoding.
type PageEncodingStats struct {
	PageType PageType `json:"page_type"`
	Encoding Encoding `json:"encoding"`
	Count    int32    `json:"count"`
}

// KeyValue is an application-defined metadata entry.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// ColumnOrder is a union with a single member,
// TypeDefinedOrder, which carries no data.
type ColumnOrder struct {
	TypeOrder bool `json:"type_order"`
}

// NumColumns returns the number of leaf columns
// described by the first row group.
func (f *FileMetaData) NumColumns() int {
	if len(f.RowGroups) == 0 {
		return 0
	}
	return len(f.RowGroups[0].Columns)
}

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

// Package compact implements a fast reader (and a
// matching writer) for the subset of the Thrift
// compact protocol used by Parquet footer metadata.
//
// The reader trusts the caller to issue reads in the
// order of the encoded schema; it only verifies that
// the bytes themselves are well-formed.
package compact

// Type is a logical Thrift type tag.
type Type byte

const (
	Stop Type = iota
	Bool
	I8
	I16
	I32
	I64
	Double
	Binary // also used for strings
	List
	Set
	Map
	Struct
)

func (t Type) String() string {
	switch t {
	case Stop:
		return "stop"
	case Bool:
		return "bool"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case Double:
		return "double"
	case Binary:
		return "binary"
	case List:
		return "list"
	case Set:
		return "set"
	case Map:
		return "map"
	case Struct:
		return "struct"
	default:
		return "invalid"
	}
}

// wire type codes
const (
	codeStop   = 0x00
	codeTrue   = 0x01
	codeFalse  = 0x02
	codeI8     = 0x03
	codeI16    = 0x04
	codeI32    = 0x05
	codeI64    = 0x06
	codeDouble = 0x07
	codeBinary = 0x08
	codeList   = 0x09
	codeSet    = 0x0a
	codeMap    = 0x0b
	codeStruct = 0x0c
)

// wireTypes maps a 4-bit wire code to a Type;
// entries with ok == false are illegal.
var wireTypes = [16]struct {
	t  Type
	ok bool
}{
	codeStop:   {Stop, true},
	codeI8:     {I8, true},
	codeI16:    {I16, true},
	codeI32:    {I32, true},
	codeI64:    {I64, true},
	codeDouble: {Double, true},
	codeBinary: {Binary, true},
	codeList:   {List, true},
	codeSet:    {Set, true},
	codeMap:    {Map, true},
	codeStruct: {Struct, true},
}

// typeOf maps a generic wire code to a Type.
// The boolean codes are not part of the generic
// mapping; field headers and collection headers
// handle them before calling typeOf.
func typeOf(code byte, fn string) (Type, error) {
	e := wireTypes[code&0x0f]
	if !e.ok || code > 0x0f {
		return 0, errorf(fn, "cannot convert 0x%02x into a type", code)
	}
	return e.t, nil
}

// elemTypeOf maps the element-type nibble
// of a collection header; unlike field headers,
// only 0x01 denotes a boolean element.
func elemTypeOf(code byte, fn string) (Type, error) {
	if code == codeTrue {
		return Bool, nil
	}
	return typeOf(code, fn)
}

// wireCode is the inverse of typeOf for
// everything except Bool, which has two codes.
func wireCode(t Type) byte {
	switch t {
	case Stop:
		return codeStop
	case Bool:
		return codeTrue
	case I8:
		return codeI8
	case I16:
		return codeI16
	case I32:
		return codeI32
	case I64:
		return codeI64
	case Double:
		return codeDouble
	case Binary:
		return codeBinary
	case List:
		return codeList
	case Set:
		return codeSet
	case Map:
		return codeMap
	case Struct:
		return codeStruct
	}
	panic("compact: bad type " + t.String())
}

// Field is a decoded field header.
// A Field with Type == Stop terminates a struct
// and carries no ID.
type Field struct {
	ID   int16
	Type Type
}

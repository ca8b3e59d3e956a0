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

package compact

// reader is the subset of Protocol used by skip.
type reader interface {
	ReadStructBegin() error
	ReadStructEnd() error
	ReadFieldBegin() (Field, error)
	ReadListBegin() (Type, int, error)
	ReadBool() (bool, error)
	ReadI8() (int8, error)
	ReadI64() (int64, error)
	ReadDouble() (float64, error)
	ReadBytesShared() ([]byte, error)
}

// skip consumes one value of type t from r.
// I16 and I32 are skipped as I64, since
// they share the same varint encoding.
func skip(r reader, t Type, depth int) error {
	if depth > MaxSkipDepth {
		return errorf("Skip", "nesting deeper than %d", MaxSkipDepth)
	}
	var err error
	switch t {
	case Bool:
		_, err = r.ReadBool()
	case I8:
		_, err = r.ReadI8()
	case I16, I32, I64:
		_, err = r.ReadI64()
	case Double:
		_, err = r.ReadDouble()
	case Binary:
		_, err = r.ReadBytesShared()
	case List:
		var et Type
		var n int
		et, n, err = r.ReadListBegin()
		for i := 0; err == nil && i < n; i++ {
			err = skip(r, et, depth+1)
		}
	case Struct:
		err = r.ReadStructBegin()
		for err == nil {
			var f Field
			f, err = r.ReadFieldBegin()
			if err != nil {
				break
			}
			if f.Type == Stop {
				err = r.ReadStructEnd()
				break
			}
			err = skip(r, f.Type, depth+1)
		}
	case Set:
		err = unsupported("Skip", "set")
	case Map:
		err = unsupported("Skip", "map")
	default:
		err = errorf("Skip", "cannot skip type %s", t)
	}
	return err
}

// Skip skips over one value of type t.
func (d *Decoder) Skip(t Type) error { return skip(d, t, 0) }

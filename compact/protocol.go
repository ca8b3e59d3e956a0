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

// Protocol is the ordered set of read primitives
// a schema-driven deserializer issues against
// an encoded record.
//
// It is implemented by *Decoder, and by *Reference
// for differential testing.
type Protocol interface {
	ReadStructBegin() error
	ReadStructEnd() error
	// ReadFieldBegin returns the next field header;
	// a Field with Type == Stop ends the current struct.
	ReadFieldBegin() (Field, error)
	ReadFieldEnd() error
	// ReadListBegin returns the element type
	// and the number of elements that follow.
	ReadListBegin() (Type, int, error)
	ReadListEnd() error

	ReadBool() (bool, error)
	ReadI8() (int8, error)
	ReadI16() (int16, error)
	ReadI32() (int32, error)
	ReadI64() (int64, error)
	ReadDouble() (float64, error)
	// ReadBytesShared returns a binary value
	// that aliases the input buffer.
	ReadBytesShared() ([]byte, error)
	ReadBytes() ([]byte, error)
	ReadString() (string, error)

	// Skip skips over a value of type t.
	Skip(t Type) error
}

var (
	_ Protocol = (*Decoder)(nil)
	_ Protocol = (*Reference)(nil)
)

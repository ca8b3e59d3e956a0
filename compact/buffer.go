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

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/SnellerInc/pqfooter/ints"
)

// Buffer buffers compact-protocol encoded values.
//
// Structures are written with BeginStruct,
// then pairs of BeginField and one of the Write*
// methods, followed by EndStruct. Lists are written
// with BeginList followed by exactly the announced
// number of elements.
//
// The contents of Buffer can be inspected directly
// with Buffer.Bytes() or written to an io.Writer
// with Buffer.WriteTo.
type Buffer struct {
	buf   []byte
	last  int16
	stack []int16

	// a boolean field header is not written until
	// its value is known, since the value lives
	// in the header itself
	boolid  int16
	boolhdr bool
}

// Set sets the buffer used by 'b'
// and resets the state of the buffer.
// Subsequent calls to Write* functions
// on 'b' will append to the given buffer.
func (b *Buffer) Set(p []byte) {
	b.Reset()
	b.buf = p
}

// Reset clears the buffer.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.last = 0
	b.stack = b.stack[:0]
	b.boolhdr = false
}

// Bytes returns the encoded bytes.
func (b *Buffer) Bytes() []byte { return b.buf }

// Size returns the number of encoded bytes.
func (b *Buffer) Size() int { return len(b.buf) }

// WriteTo implements io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf)
	return int64(n), err
}

// BeginStruct begins a structure.
func (b *Buffer) BeginStruct() {
	b.stack = append(b.stack, b.last)
	b.last = 0
}

// EndStruct writes the Stop byte that
// terminates the current structure.
func (b *Buffer) EndStruct() {
	if len(b.stack) == 0 {
		panic("compact.Buffer.EndStruct: not inside a struct")
	}
	b.buf = append(b.buf, codeStop)
	b.last = b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *Buffer) header(id int16, code byte) {
	delta := int(id) - int(b.last)
	if delta > 0 && delta <= 15 {
		b.buf = append(b.buf, byte(delta<<4)|code)
	} else {
		b.buf = append(b.buf, code)
		b.buf = AppendUvarint(b.buf, ints.ZigZag(id))
	}
	b.last = id
}

// BeginField begins a field of the current structure.
func (b *Buffer) BeginField(id int16, t Type) {
	if t == Stop {
		panic("compact.Buffer.BeginField: Stop is not a field type")
	}
	if t == Bool {
		b.boolid = id
		b.boolhdr = true
		return
	}
	b.header(id, wireCode(t))
}

// BeginList begins a list of n elements of type t.
func (b *Buffer) BeginList(t Type, n int) {
	if n < 15 {
		b.buf = append(b.buf, byte(n<<4)|wireCode(t))
		return
	}
	b.buf = append(b.buf, 0xf0|wireCode(t))
	b.buf = AppendUvarint(b.buf, uint64(n))
}

// WriteBool writes a boolean, either into the
// pending field header or as a list element.
func (b *Buffer) WriteBool(v bool) {
	code := byte(codeFalse)
	if v {
		code = codeTrue
	}
	if b.boolhdr {
		b.boolhdr = false
		b.header(b.boolid, code)
		return
	}
	b.buf = append(b.buf, code)
}

func (b *Buffer) WriteI8(v int8) { b.buf = append(b.buf, byte(v)) }

func (b *Buffer) WriteI16(v int16) { b.buf = AppendUvarint(b.buf, ints.ZigZag(v)) }

func (b *Buffer) WriteI32(v int32) { b.buf = AppendUvarint(b.buf, ints.ZigZag(v)) }

func (b *Buffer) WriteI64(v int64) { b.buf = AppendUvarint(b.buf, ints.ZigZag(v)) }

// WriteDouble writes f as 8 little-endian bytes.
func (b *Buffer) WriteDouble(f float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f))
	b.buf = append(b.buf, tmp[:]...)
}

// WriteBytes writes a length-prefixed binary value.
func (b *Buffer) WriteBytes(p []byte) {
	b.buf = AppendUvarint(b.buf, uint64(len(p)))
	b.buf = append(b.buf, p...)
}

// WriteString writes a length-prefixed string.
func (b *Buffer) WriteString(s string) {
	b.buf = AppendUvarint(b.buf, uint64(len(s)))
	b.buf = append(b.buf, s...)
}

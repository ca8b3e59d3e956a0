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
	"math"

	"github.com/SnellerInc/pqfooter/ints"
	"github.com/SnellerInc/pqfooter/utf8"
	"golang.org/x/exp/constraints"
)

// MaxSkipDepth is the deepest nesting
// of structs and lists that Skip will descend into.
const MaxSkipDepth = 64

const (
	boolNone int8 = iota
	boolTrue
	boolFalse
)

// Decoder reads compact-protocol values from
// a borrowed buffer. The zero value is an
// empty decoder; use Reset to point it at input.
//
// A Decoder must not be used concurrently,
// but independent Decoders share no state.
type Decoder struct {
	buf  []byte // unread suffix of the input
	size int    // length of the whole input

	last  int16   // last field id at the current depth
	stack []int16 // caller's last field id, per enclosing struct

	pending int8 // boolNone, boolTrue or boolFalse
	wide    bool
}

// NewDecoder returns a Decoder reading from buf.
func NewDecoder(buf []byte) *Decoder {
	d := &Decoder{stack: make([]int16, 0, 16)}
	d.Reset(buf)
	return d
}

// Reset points d at buf and clears all
// decoding state while keeping allocations.
func (d *Decoder) Reset(buf []byte) {
	d.buf = buf
	d.size = len(buf)
	d.last = 0
	d.stack = d.stack[:0]
	d.pending = boolNone
	d.wide = GetVarintLevel() == VarintWide
}

// Remaining returns the unread suffix of the input.
func (d *Decoder) Remaining() []byte { return d.buf }

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int { return d.size - len(d.buf) }

// Depth returns the current struct nesting depth.
func (d *Decoder) Depth() int { return len(d.stack) }

func (d *Decoder) readByte() (byte, error) {
	if len(d.buf) == 0 {
		return 0, ErrEOF
	}
	b := d.buf[0]
	d.buf = d.buf[1:]
	return b, nil
}

func (d *Decoder) readUvarint() (uint64, error) {
	var v uint64
	var n int
	var err error
	if d.wide {
		v, n, err = uvarintWide(d.buf)
	} else {
		v, n, err = uvarintScalar(d.buf)
	}
	if err != nil {
		return 0, err
	}
	d.buf = d.buf[n:]
	return v, nil
}

func readZigZag[T constraints.Signed](d *Decoder, fn string) (T, error) {
	u, err := d.readUvarint()
	if err != nil {
		return 0, err
	}
	if !ints.FitsZigZag[T](u) {
		return 0, errorf(fn, "varint %d out of range", u)
	}
	return ints.UnZigZag[T](u), nil
}

// ReadStructBegin enters a struct.
func (d *Decoder) ReadStructBegin() error {
	d.stack = append(d.stack, d.last)
	d.last = 0
	return nil
}

// ReadStructEnd leaves a struct and restores
// the enclosing struct's last field id.
func (d *Decoder) ReadStructEnd() error {
	n := len(d.stack)
	if n == 0 {
		return errorf("ReadStructEnd", "not inside a struct")
	}
	d.last = d.stack[n-1]
	d.stack = d.stack[:n-1]
	return nil
}

// ReadFieldBegin reads a field header.
func (d *Decoder) ReadFieldBegin() (Field, error) {
	hdr, err := d.readByte()
	if err != nil {
		return Field{}, err
	}
	var t Type
	switch code := hdr & 0x0f; code {
	case codeTrue:
		d.pending = boolTrue
		t = Bool
	case codeFalse:
		d.pending = boolFalse
		t = Bool
	default:
		d.pending = boolNone
		t, err = typeOf(code, "ReadFieldBegin")
		if err != nil {
			return Field{}, err
		}
	}
	if t == Stop {
		return Field{Type: Stop}, nil
	}
	if delta := int16(hdr >> 4); delta != 0 {
		if d.last > math.MaxInt16-delta {
			return Field{}, errorf("ReadFieldBegin", "field id %d+%d overflows", d.last, delta)
		}
		d.last += delta
	} else {
		d.last, err = readZigZag[int16](d, "ReadFieldBegin")
		if err != nil {
			return Field{}, err
		}
	}
	return Field{ID: d.last, Type: t}, nil
}

// ReadFieldEnd is a no-op.
func (d *Decoder) ReadFieldEnd() error { return nil }

// ReadListBegin reads a list header.
func (d *Decoder) ReadListBegin() (Type, int, error) {
	hdr, err := d.readByte()
	if err != nil {
		return 0, 0, err
	}
	t, err := elemTypeOf(hdr&0x0f, "ReadListBegin")
	if err != nil {
		return 0, 0, err
	}
	n := int(hdr >> 4)
	if n == 15 {
		u, err := d.readUvarint()
		if err != nil {
			return 0, 0, err
		}
		if u > math.MaxInt32 {
			return 0, 0, errorf("ReadListBegin", "list size %d out of range", u)
		}
		n = int(u)
	}
	// every element occupies at least one byte
	if n > len(d.buf) {
		return 0, 0, ErrEOF
	}
	return t, n, nil
}

// ReadListEnd is a no-op.
func (d *Decoder) ReadListEnd() error { return nil }

// ReadSetBegin always fails with an *UnsupportedError.
func (d *Decoder) ReadSetBegin() (Type, int, error) {
	return 0, 0, unsupported("ReadSetBegin", "set")
}

// ReadSetEnd always fails with an *UnsupportedError.
func (d *Decoder) ReadSetEnd() error { return unsupported("ReadSetEnd", "set") }

// ReadMapBegin always fails with an *UnsupportedError.
func (d *Decoder) ReadMapBegin() (Type, Type, int, error) {
	return 0, 0, 0, unsupported("ReadMapBegin", "map")
}

// ReadMapEnd always fails with an *UnsupportedError.
func (d *Decoder) ReadMapEnd() error { return unsupported("ReadMapEnd", "map") }

// ReadMessageBegin always fails with an *UnsupportedError.
func (d *Decoder) ReadMessageBegin() (string, byte, int32, error) {
	return "", 0, 0, unsupported("ReadMessageBegin", "message")
}

// ReadMessageEnd always fails with an *UnsupportedError.
func (d *Decoder) ReadMessageEnd() error { return unsupported("ReadMessageEnd", "message") }

// ReadBool reads a boolean. If the preceding
// field header carried the value inline, no
// input is consumed.
func (d *Decoder) ReadBool() (bool, error) {
	if p := d.pending; p != boolNone {
		d.pending = boolNone
		return p == boolTrue, nil
	}
	b, err := d.readByte()
	if err != nil {
		return false, err
	}
	switch b {
	case codeTrue:
		return true, nil
	case codeFalse:
		return false, nil
	}
	return false, errorf("ReadBool", "cannot convert 0x%02x into bool", b)
}

func (d *Decoder) ReadI8() (int8, error) {
	b, err := d.readByte()
	return int8(b), err
}

func (d *Decoder) ReadI16() (int16, error) { return readZigZag[int16](d, "ReadI16") }

func (d *Decoder) ReadI32() (int32, error) { return readZigZag[int32](d, "ReadI32") }

func (d *Decoder) ReadI64() (int64, error) { return readZigZag[int64](d, "ReadI64") }

// ReadDouble reads a little-endian IEEE-754 double.
func (d *Decoder) ReadDouble() (float64, error) {
	if len(d.buf) < 8 {
		return 0, ErrEOF
	}
	f := math.Float64frombits(binary.LittleEndian.Uint64(d.buf))
	d.buf = d.buf[8:]
	return f, nil
}

// ReadBytesShared reads a length-prefixed binary value.
// The returned slice aliases the input buffer.
func (d *Decoder) ReadBytesShared() ([]byte, error) {
	u, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	if u > uint64(len(d.buf)) {
		return nil, ErrEOF
	}
	n := int(u)
	ret := d.buf[:n:n]
	d.buf = d.buf[n:]
	return ret, nil
}

// ReadBytes is like ReadBytesShared,
// but the result does not alias the input.
func (d *Decoder) ReadBytes() ([]byte, error) {
	mem, err := d.ReadBytesShared()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(mem))
	copy(out, mem)
	return out, nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (d *Decoder) ReadString() (string, error) {
	mem, err := d.ReadBytesShared()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(mem) {
		return "", errorf("ReadString", "invalid UTF-8")
	}
	return string(mem), nil
}

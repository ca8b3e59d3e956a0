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
	"math"
	"unicode/utf8"
)

// Reference is a straightforward implementation
// of Protocol that tracks an explicit position into
// an immutable buffer and decodes every varint one
// byte at a time. It exists to check Decoder against.
type Reference struct {
	buf     []byte
	pos     int
	last    int16
	stack   []int16
	pending *bool
}

// NewReference returns a Reference reading from buf.
func NewReference(buf []byte) *Reference {
	return &Reference{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reference) Offset() int { return r.pos }

func (r *Reference) next() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reference) uvarint() (uint64, error) {
	var out uint64
	for i := 0; ; i++ {
		b, err := r.next()
		if err != nil {
			return 0, err
		}
		if i == MaxVarintLen-1 {
			if b > 1 {
				return 0, errOverflow
			}
			return out | uint64(b)<<63, nil
		}
		out |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return out, nil
		}
	}
}

func (r *Reference) zigzag(fn string, min, max int64) (int64, error) {
	u, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	v := int64(u>>1) ^ -int64(u&1)
	if v < min || v > max {
		return 0, errorf(fn, "varint %d out of range", u)
	}
	return v, nil
}

func (r *Reference) ReadStructBegin() error {
	r.stack = append(r.stack, r.last)
	r.last = 0
	return nil
}

func (r *Reference) ReadStructEnd() error {
	if len(r.stack) == 0 {
		return errorf("ReadStructEnd", "not inside a struct")
	}
	r.last = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

func (r *Reference) ReadFieldBegin() (Field, error) {
	hdr, err := r.next()
	if err != nil {
		return Field{}, err
	}
	r.pending = nil
	code := hdr & 0x0f
	t := Bool
	if code == codeTrue || code == codeFalse {
		v := code == codeTrue
		r.pending = &v
	} else if t, err = typeOf(code, "ReadFieldBegin"); err != nil {
		return Field{}, err
	}
	if t == Stop {
		return Field{Type: Stop}, nil
	}
	delta := int64(hdr >> 4)
	if delta == 0 {
		id, err := r.zigzag("ReadFieldBegin", math.MinInt16, math.MaxInt16)
		if err != nil {
			return Field{}, err
		}
		r.last = int16(id)
	} else {
		id := int64(r.last) + delta
		if id > math.MaxInt16 {
			return Field{}, errorf("ReadFieldBegin", "field id %d+%d overflows", r.last, delta)
		}
		r.last = int16(id)
	}
	return Field{ID: r.last, Type: t}, nil
}

func (r *Reference) ReadFieldEnd() error { return nil }

func (r *Reference) ReadListBegin() (Type, int, error) {
	hdr, err := r.next()
	if err != nil {
		return 0, 0, err
	}
	t, err := elemTypeOf(hdr&0x0f, "ReadListBegin")
	if err != nil {
		return 0, 0, err
	}
	n := uint64(hdr >> 4)
	if n == 15 {
		if n, err = r.uvarint(); err != nil {
			return 0, 0, err
		}
		if n > math.MaxInt32 {
			return 0, 0, errorf("ReadListBegin", "list size %d out of range", n)
		}
	}
	if n > uint64(len(r.buf)-r.pos) {
		return 0, 0, ErrEOF
	}
	return t, int(n), nil
}

func (r *Reference) ReadListEnd() error { return nil }

func (r *Reference) ReadBool() (bool, error) {
	if r.pending != nil {
		v := *r.pending
		r.pending = nil
		return v, nil
	}
	b, err := r.next()
	if err != nil {
		return false, err
	}
	if b != codeTrue && b != codeFalse {
		return false, errorf("ReadBool", "cannot convert 0x%02x into bool", b)
	}
	return b == codeTrue, nil
}

func (r *Reference) ReadI8() (int8, error) {
	b, err := r.next()
	return int8(b), err
}

func (r *Reference) ReadI16() (int16, error) {
	v, err := r.zigzag("ReadI16", math.MinInt16, math.MaxInt16)
	return int16(v), err
}

func (r *Reference) ReadI32() (int32, error) {
	v, err := r.zigzag("ReadI32", math.MinInt32, math.MaxInt32)
	return int32(v), err
}

func (r *Reference) ReadI64() (int64, error) {
	return r.zigzag("ReadI64", math.MinInt64, math.MaxInt64)
}

func (r *Reference) ReadDouble() (float64, error) {
	var bits uint64
	for i := 0; i < 8; i++ {
		b, err := r.next()
		if err != nil {
			return 0, err
		}
		bits |= uint64(b) << (8 * i)
	}
	return math.Float64frombits(bits), nil
}

func (r *Reference) ReadBytesShared() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return nil, ErrEOF
	}
	ret := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return ret, nil
}

func (r *Reference) ReadBytes() ([]byte, error) {
	mem, err := r.ReadBytesShared()
	if err != nil {
		return nil, err
	}
	return append([]byte{}, mem...), nil
}

func (r *Reference) ReadString() (string, error) {
	mem, err := r.ReadBytesShared()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(mem) {
		return "", errorf("ReadString", "invalid UTF-8")
	}
	return string(mem), nil
}

func (r *Reference) Skip(t Type) error { return skip(r, t, 0) }

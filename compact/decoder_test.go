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
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

// protocols returns a constructor for each Protocol
// implementation, including the Decoder under both
// varint levels
func protocols() map[string]func([]byte) Protocol {
	return map[string]func([]byte) Protocol{
		"scalar": func(b []byte) Protocol {
			d := NewDecoder(b)
			d.wide = false
			return d
		},
		"wide": func(b []byte) Protocol {
			d := NewDecoder(b)
			d.wide = true
			return d
		},
		"reference": func(b []byte) Protocol {
			return NewReference(b)
		},
	}
}

func eachProtocol(t *testing.T, buf []byte, fn func(t *testing.T, p Protocol)) {
	for name, mk := range protocols() {
		t.Run(name, func(t *testing.T) {
			fn(t, mk(buf))
		})
	}
}

func mustField(t *testing.T, p Protocol, id int16, typ Type) {
	t.Helper()
	f, err := p.ReadFieldBegin()
	if err != nil {
		t.Fatalf("ReadFieldBegin: %s", err)
	}
	if f.ID != id || f.Type != typ {
		t.Fatalf("got field (%d, %s), want (%d, %s)", f.ID, f.Type, id, typ)
	}
}

func mustStop(t *testing.T, p Protocol) {
	t.Helper()
	f, err := p.ReadFieldBegin()
	if err != nil {
		t.Fatalf("ReadFieldBegin: %s", err)
	}
	if f.Type != Stop {
		t.Fatalf("got field (%d, %s), want stop", f.ID, f.Type)
	}
	if err := p.ReadStructEnd(); err != nil {
		t.Fatal(err)
	}
}

func TestFieldHeaderBytes(t *testing.T) {
	var b Buffer
	b.BeginStruct()
	b.BeginField(1, I32)
	b.WriteI32(-1)
	b.BeginField(16, I64) // delta 15, the largest inline delta
	b.WriteI64(1)
	b.BeginField(40, Binary) // delta 24 needs an explicit id
	b.WriteString("x")
	b.BeginField(41, Bool)
	b.WriteBool(false)
	b.EndStruct()

	want := []byte{
		0x15, 0x01, // delta 1, i32, zigzag(-1)
		0xf6, 0x02, // delta 15, i64, zigzag(1)
		0x08, 0x50, 0x01, 'x', // binary, zigzag(40), len, body
		0x12, // delta 1, bool false
		0x00,
	}
	if !bytes.Equal(b.Bytes(), want) {
		t.Logf("got:      % 02x", b.Bytes())
		t.Logf("expected: % 02x", want)
		t.Fatal("wrongly encoded struct")
	}
}

func TestFieldIDDeltas(t *testing.T) {
	var b Buffer
	b.BeginStruct()
	for id := int16(1); id <= 17; id++ {
		b.BeginField(id, I32)
		b.WriteI32(int32(id) * 100)
	}
	// a backwards jump needs the explicit form
	b.BeginField(3, I32)
	b.WriteI32(-3)
	b.BeginField(math.MaxInt16, I32)
	b.WriteI32(0)
	b.EndStruct()

	eachProtocol(t, b.Bytes(), func(t *testing.T, p Protocol) {
		if err := p.ReadStructBegin(); err != nil {
			t.Fatal(err)
		}
		for id := int16(1); id <= 17; id++ {
			mustField(t, p, id, I32)
			v, err := p.ReadI32()
			if err != nil {
				t.Fatal(err)
			}
			if v != int32(id)*100 {
				t.Fatalf("field %d: got %d", id, v)
			}
		}
		mustField(t, p, 3, I32)
		if v, _ := p.ReadI32(); v != -3 {
			t.Fatalf("got %d, want -3", v)
		}
		mustField(t, p, math.MaxInt16, I32)
		p.ReadI32()
		mustStop(t, p)
	})
}

func TestNestedFieldScope(t *testing.T) {
	// outer{5: a{1: b{1: i32, 2: i32, 3: c{9: i16}}, 3: i32}, 6: i32}
	var b Buffer
	b.BeginStruct()
	b.BeginField(5, Struct)
	b.BeginStruct()
	b.BeginField(1, Struct)
	b.BeginStruct()
	b.BeginField(1, I32)
	b.WriteI32(11)
	b.BeginField(2, I32)
	b.WriteI32(12)
	b.BeginField(3, Struct)
	b.BeginStruct()
	b.BeginField(9, I16)
	b.WriteI16(-9)
	b.EndStruct()
	b.EndStruct()
	b.BeginField(3, I32)
	b.WriteI32(13)
	b.EndStruct()
	b.BeginField(6, I32)
	b.WriteI32(6)
	b.EndStruct()

	eachProtocol(t, b.Bytes(), func(t *testing.T, p Protocol) {
		p.ReadStructBegin()
		mustField(t, p, 5, Struct)
		p.ReadStructBegin()
		mustField(t, p, 1, Struct)
		p.ReadStructBegin()
		mustField(t, p, 1, I32)
		p.ReadI32()
		mustField(t, p, 2, I32)
		p.ReadI32()
		mustField(t, p, 3, Struct)
		p.ReadStructBegin()
		mustField(t, p, 9, I16)
		if v, err := p.ReadI16(); err != nil || v != -9 {
			t.Fatalf("got (%d, %v), want -9", v, err)
		}
		mustStop(t, p)
		mustStop(t, p)
		mustField(t, p, 3, I32)
		if v, _ := p.ReadI32(); v != 13 {
			t.Fatalf("got %d, want 13", v)
		}
		mustStop(t, p)
		// relative to 5, not to the inner ids
		mustField(t, p, 6, I32)
		if v, _ := p.ReadI32(); v != 6 {
			t.Fatalf("got %d, want 6", v)
		}
		mustStop(t, p)
	})
}

func TestNestedDepth(t *testing.T) {
	d := NewDecoder([]byte{0x00, 0x00, 0x00})
	for i := 0; i < 3; i++ {
		d.ReadStructBegin()
	}
	if d.Depth() != 3 {
		t.Fatalf("depth %d, want 3", d.Depth())
	}
	for i := 0; i < 3; i++ {
		mustStop(t, d)
	}
	if d.Depth() != 0 {
		t.Fatalf("depth %d, want 0", d.Depth())
	}
	var perr *ProtocolError
	if err := d.ReadStructEnd(); !errors.As(err, &perr) {
		t.Fatalf("unbalanced ReadStructEnd: got %v", err)
	}
}

func TestInlineBool(t *testing.T) {
	var b Buffer
	b.BeginStruct()
	b.BeginField(1, Bool)
	b.WriteBool(true)
	b.BeginField(2, Bool)
	b.WriteBool(false)
	b.BeginField(3, List)
	b.BeginList(Bool, 3)
	b.WriteBool(true)
	b.WriteBool(false)
	b.WriteBool(true)
	b.EndStruct()
	want := []byte{0x11, 0x12, 0x19, 0x31, 0x01, 0x02, 0x01, 0x00}
	if !bytes.Equal(b.Bytes(), want) {
		t.Logf("got:      % 02x", b.Bytes())
		t.Logf("expected: % 02x", want)
		t.Fatal("wrongly encoded bools")
	}

	eachProtocol(t, b.Bytes(), func(t *testing.T, p Protocol) {
		p.ReadStructBegin()
		mustField(t, p, 1, Bool)
		if v, err := p.ReadBool(); err != nil || !v {
			t.Fatalf("field 1: got (%v, %v)", v, err)
		}
		mustField(t, p, 2, Bool)
		if v, err := p.ReadBool(); err != nil || v {
			t.Fatalf("field 2: got (%v, %v)", v, err)
		}
		mustField(t, p, 3, List)
		et, n, err := p.ReadListBegin()
		if err != nil || et != Bool || n != 3 {
			t.Fatalf("list header: got (%s, %d, %v)", et, n, err)
		}
		for i, want := range []bool{true, false, true} {
			v, err := p.ReadBool()
			if err != nil || v != want {
				t.Fatalf("element %d: got (%v, %v)", i, v, err)
			}
		}
		p.ReadListEnd()
		mustStop(t, p)
	})
}

func TestListCounts(t *testing.T) {
	for _, n := range []int{0, 1, 14, 15, 16, 100000} {
		var b Buffer
		b.BeginList(I32, n)
		for i := 0; i < n; i++ {
			b.WriteI32(int32(i))
		}
		hdr := b.Bytes()[0]
		if n < 15 && hdr>>4 != byte(n) {
			t.Errorf("n=%d: header %#x does not inline the count", n, hdr)
		}
		if n >= 15 && hdr>>4 != 15 {
			t.Errorf("n=%d: header %#x does not use the overflow form", n, hdr)
		}
		eachProtocol(t, b.Bytes(), func(t *testing.T, p Protocol) {
			et, got, err := p.ReadListBegin()
			if err != nil {
				t.Fatal(err)
			}
			if et != I32 || got != n {
				t.Fatalf("got (%s, %d), want (i32, %d)", et, got, n)
			}
			for i := 0; i < n; i++ {
				v, err := p.ReadI32()
				if err != nil {
					t.Fatal(err)
				}
				if v != int32(i) {
					t.Fatalf("element %d: got %d", i, v)
				}
			}
		})
	}
}

func TestScalars(t *testing.T) {
	var b Buffer
	b.WriteI8(-128)
	b.WriteI8(127)
	for _, v := range []int16{math.MinInt16, -1, 0, 1, math.MaxInt16} {
		b.WriteI16(v)
	}
	for _, v := range []int32{math.MinInt32, -1, 0, 1, math.MaxInt32} {
		b.WriteI32(v)
	}
	for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		b.WriteI64(v)
	}
	b.WriteDouble(math.Pi)
	b.WriteDouble(math.Inf(-1))
	b.WriteBytes([]byte{0, 1, 2})
	b.WriteBytes(nil)
	b.WriteString("żółw")

	eachProtocol(t, b.Bytes(), func(t *testing.T, p Protocol) {
		if v, _ := p.ReadI8(); v != -128 {
			t.Errorf("i8: got %d", v)
		}
		if v, _ := p.ReadI8(); v != 127 {
			t.Errorf("i8: got %d", v)
		}
		for _, want := range []int16{math.MinInt16, -1, 0, 1, math.MaxInt16} {
			if v, err := p.ReadI16(); err != nil || v != want {
				t.Errorf("i16: got (%d, %v), want %d", v, err, want)
			}
		}
		for _, want := range []int32{math.MinInt32, -1, 0, 1, math.MaxInt32} {
			if v, err := p.ReadI32(); err != nil || v != want {
				t.Errorf("i32: got (%d, %v), want %d", v, err, want)
			}
		}
		for _, want := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
			if v, err := p.ReadI64(); err != nil || v != want {
				t.Errorf("i64: got (%d, %v), want %d", v, err, want)
			}
		}
		if f, err := p.ReadDouble(); err != nil || f != math.Pi {
			t.Errorf("double: got (%v, %v)", f, err)
		}
		if f, err := p.ReadDouble(); err != nil || !math.IsInf(f, -1) {
			t.Errorf("double: got (%v, %v)", f, err)
		}
		if mem, err := p.ReadBytes(); err != nil || !bytes.Equal(mem, []byte{0, 1, 2}) {
			t.Errorf("bytes: got (%v, %v)", mem, err)
		}
		if mem, err := p.ReadBytesShared(); err != nil || len(mem) != 0 {
			t.Errorf("empty bytes: got (%v, %v)", mem, err)
		}
		if s, err := p.ReadString(); err != nil || s != "żółw" {
			t.Errorf("string: got (%q, %v)", s, err)
		}
	})
}

func TestDoubleLittleEndian(t *testing.T) {
	// 1.0 == 0x3ff0000000000000
	buf := []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}
	eachProtocol(t, buf, func(t *testing.T, p Protocol) {
		if f, err := p.ReadDouble(); err != nil || f != 1.0 {
			t.Fatalf("got (%v, %v), want 1.0", f, err)
		}
	})
}

func TestBytesShared(t *testing.T) {
	buf := []byte{0x03, 'a', 'b', 'c', 0xff}
	d := NewDecoder(buf)
	mem, err := d.ReadBytesShared()
	if err != nil {
		t.Fatal(err)
	}
	if &mem[0] != &buf[1] {
		t.Fatal("ReadBytesShared copied its result")
	}
	if cap(mem) != 3 {
		t.Fatalf("cap %d; appending would clobber the input", cap(mem))
	}
	if d.Offset() != 4 || len(d.Remaining()) != 1 {
		t.Fatalf("offset %d, remaining %d", d.Offset(), len(d.Remaining()))
	}
	d.Reset(buf)
	cp, _ := d.ReadBytes()
	if &cp[0] == &buf[1] {
		t.Fatal("ReadBytes aliased the input")
	}
}

func TestNarrowIntRange(t *testing.T) {
	// zigzag(1<<15) does not fit an i16 but is a fine i32
	buf := AppendUvarint(nil, 1<<16)
	eachProtocol(t, buf, func(t *testing.T, p Protocol) {
		var perr *ProtocolError
		if _, err := p.ReadI16(); !errors.As(err, &perr) {
			t.Fatalf("got %v, want *ProtocolError", err)
		}
	})
	eachProtocol(t, buf, func(t *testing.T, p Protocol) {
		if v, err := p.ReadI32(); err != nil || v != 1<<15 {
			t.Fatalf("got (%d, %v)", v, err)
		}
	})
}

func TestMalformed(t *testing.T) {
	type kind int
	const (
		eof kind = iota
		protocol
	)
	testcases := []struct {
		name string
		buf  []byte
		read func(p Protocol) error
		want kind
	}{
		{"truncated varint", []byte{0x80, 0x80}, func(p Protocol) error {
			_, err := p.ReadI64()
			return err
		}, eof},
		{"truncated long varint", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, func(p Protocol) error {
			_, err := p.ReadI64()
			return err
		}, eof},
		{"illegal field type", []byte{0x1d}, func(p Protocol) error {
			p.ReadStructBegin()
			_, err := p.ReadFieldBegin()
			return err
		}, protocol},
		{"illegal field type explicit id", []byte{0x0e, 0x02}, func(p Protocol) error {
			p.ReadStructBegin()
			_, err := p.ReadFieldBegin()
			return err
		}, protocol},
		{"illegal list type", []byte{0x1d, 0x00}, func(p Protocol) error {
			_, _, err := p.ReadListBegin()
			return err
		}, protocol},
		{"false code in list header", []byte{0x12, 0x01}, func(p Protocol) error {
			_, _, err := p.ReadListBegin()
			return err
		}, protocol},
		{"illegal bool", []byte{0x03}, func(p Protocol) error {
			_, err := p.ReadBool()
			return err
		}, protocol},
		{"zero bool", []byte{0x00}, func(p Protocol) error {
			_, err := p.ReadBool()
			return err
		}, protocol},
		{"empty field header", []byte{}, func(p Protocol) error {
			p.ReadStructBegin()
			_, err := p.ReadFieldBegin()
			return err
		}, eof},
		{"missing explicit id", []byte{0x05}, func(p Protocol) error {
			p.ReadStructBegin()
			_, err := p.ReadFieldBegin()
			return err
		}, eof},
		{"short double", []byte{1, 2, 3, 4, 5, 6, 7}, func(p Protocol) error {
			_, err := p.ReadDouble()
			return err
		}, eof},
		{"short binary", []byte{0x05, 'a', 'b'}, func(p Protocol) error {
			_, err := p.ReadBytesShared()
			return err
		}, eof},
		{"huge binary length", []byte{0xff, 0xff, 0xff, 0xff, 0x0f, 'a'}, func(p Protocol) error {
			_, err := p.ReadBytes()
			return err
		}, eof},
		{"invalid utf8", []byte{0x02, 0xc3, 0x28}, func(p Protocol) error {
			_, err := p.ReadString()
			return err
		}, protocol},
		{"list count beyond input", []byte{0xf5, 0xa0, 0x8d, 0x06, 0x00}, func(p Protocol) error {
			_, _, err := p.ReadListBegin()
			return err
		}, eof},
		{"list count beyond int32", []byte{0xf5, 0xff, 0xff, 0xff, 0xff, 0x0f}, func(p Protocol) error {
			_, _, err := p.ReadListBegin()
			return err
		}, protocol},
		{"truncated list count", []byte{0xf5, 0x80}, func(p Protocol) error {
			_, _, err := p.ReadListBegin()
			return err
		}, eof},
	}
	for i := range testcases {
		tc := &testcases[i]
		t.Run(tc.name, func(t *testing.T) {
			eachProtocol(t, tc.buf[:len(tc.buf):len(tc.buf)], func(t *testing.T, p Protocol) {
				err := tc.read(p)
				if err == nil {
					t.Fatal("expected an error")
				}
				var perr *ProtocolError
				switch tc.want {
				case eof:
					if !errors.Is(err, ErrEOF) || !errors.Is(err, io.ErrUnexpectedEOF) {
						t.Fatalf("got %v, want ErrEOF", err)
					}
				case protocol:
					if !errors.As(err, &perr) {
						t.Fatalf("got %v (%T), want *ProtocolError", err, err)
					}
				}
			})
		})
	}
}

func TestUnsupported(t *testing.T) {
	d := NewDecoder([]byte{0x1a, 0x00})
	checks := []error{
		func() error { _, _, err := d.ReadSetBegin(); return err }(),
		d.ReadSetEnd(),
		func() error { _, _, _, err := d.ReadMapBegin(); return err }(),
		d.ReadMapEnd(),
		func() error { _, _, _, err := d.ReadMessageBegin(); return err }(),
		d.ReadMessageEnd(),
		d.Skip(Set),
		d.Skip(Map),
	}
	for i, err := range checks {
		var uerr *UnsupportedError
		if !errors.As(err, &uerr) || !errors.Is(err, ErrUnsupported) {
			t.Errorf("check %d: got %v, want *UnsupportedError", i, err)
		}
	}
	if d.Offset() != 0 {
		t.Errorf("unsupported reads consumed %d bytes", d.Offset())
	}
}

func TestSkip(t *testing.T) {
	var b Buffer
	b.BeginStruct()
	b.BeginField(1, Bool)
	b.WriteBool(true)
	b.BeginField(2, I8)
	b.WriteI8(3)
	b.BeginField(3, I16)
	b.WriteI16(-300)
	b.BeginField(4, Double)
	b.WriteDouble(2.5)
	b.BeginField(5, Binary)
	b.WriteString("skipped")
	b.BeginField(6, List)
	b.BeginList(Struct, 2)
	for i := 0; i < 2; i++ {
		b.BeginStruct()
		b.BeginField(1, List)
		b.BeginList(Bool, 1)
		b.WriteBool(false)
		b.EndStruct()
	}
	b.BeginField(100, I64)
	b.WriteI64(math.MinInt64)
	b.EndStruct()
	b.WriteI32(42) // sentinel after the struct

	eachProtocol(t, b.Bytes(), func(t *testing.T, p Protocol) {
		if err := p.Skip(Struct); err != nil {
			t.Fatal(err)
		}
		if v, err := p.ReadI32(); err != nil || v != 42 {
			t.Fatalf("after skip: got (%d, %v), want 42", v, err)
		}
	})
}

func TestSkipDepth(t *testing.T) {
	var b Buffer
	for i := 0; i < MaxSkipDepth+2; i++ {
		b.BeginList(List, 1)
	}
	b.BeginList(I8, 0)
	eachProtocol(t, b.Bytes(), func(t *testing.T, p Protocol) {
		var perr *ProtocolError
		if err := p.Skip(List); !errors.As(err, &perr) {
			t.Fatalf("got %v, want *ProtocolError", err)
		}
	})
}

func TestFieldIDOverflow(t *testing.T) {
	// explicit MaxInt16, then a delta of 1
	buf := []byte{0x05}
	buf = AppendUvarint(buf, 2*math.MaxInt16)
	buf = append(buf, 0x00, 0x15, 0x00)
	eachProtocol(t, buf, func(t *testing.T, p Protocol) {
		p.ReadStructBegin()
		mustField(t, p, math.MaxInt16, I32)
		p.ReadI32()
		var perr *ProtocolError
		if _, err := p.ReadFieldBegin(); !errors.As(err, &perr) {
			t.Fatalf("got %v, want *ProtocolError", err)
		}
	})
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder([]byte{0x15, 0x02})
	d.ReadStructBegin()
	d.ReadStructBegin()
	d.Reset([]byte{0x15, 0x02, 0x00})
	if d.Depth() != 0 || d.Offset() != 0 {
		t.Fatalf("depth %d offset %d after Reset", d.Depth(), d.Offset())
	}
	d.ReadStructBegin()
	mustField(t, d, 1, I32)
	if v, _ := d.ReadI32(); v != 1 {
		t.Fatalf("got %d", v)
	}
	mustStop(t, d)
}

func TestZeroDecoder(t *testing.T) {
	var d Decoder
	if _, err := d.ReadI32(); !errors.Is(err, ErrEOF) {
		t.Fatalf("got %v, want ErrEOF", err)
	}
}

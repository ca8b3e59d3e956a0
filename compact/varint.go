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
	"math/bits"
)

// MaxVarintLen is the longest legal encoding
// of a 64-bit unsigned varint.
const MaxVarintLen = 10

const (
	hibits = 0x8080808080808080
	lobits = 0x7f7f7f7f7f7f7f7f
)

var errOverflow = &ProtocolError{Func: "readUvarint", Msg: "varint overflows 64 bits"}

// uvarintScalar decodes one unsigned varint
// a byte at a time. It returns the value and
// the number of bytes consumed.
func uvarintScalar(buf []byte) (uint64, int, error) {
	var out uint64
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if i == MaxVarintLen-1 {
			// the 10th byte may only carry the top bit
			if b > 1 {
				return 0, 0, errOverflow
			}
			return out | uint64(b)<<63, i + 1, nil
		}
		out |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return out, i + 1, nil
		}
	}
	return 0, 0, ErrEOF
}

// squash7 packs the low 7 bits of each byte
// of w into a contiguous 56-bit value.
func squash7(w uint64) uint64 {
	w &= lobits
	// merge pairs of 7-bit groups into 14 bits,
	// then pairs of those into 28 bits,
	// then the two halves into 56 bits
	w = (w & 0x007f007f007f007f) | ((w & 0x7f007f007f007f00) >> 1)
	w = (w & 0x00003fff00003fff) | ((w & 0x3fff00003fff0000) >> 2)
	w = (w & 0x000000000fffffff) | ((w & 0x0fffffff00000000) >> 4)
	return w
}

// uvarintWide decodes one unsigned varint
// by examining 8 bytes per step: the position of
// the terminating byte is found with a single
// trailing-zero count over the inverted
// continuation bits, and the 7-bit groups are
// packed together without a per-byte branch.
//
// The 8-byte load is only performed when at
// least 8 bytes remain; shorter inputs take the
// scalar path so that nothing past len(buf) is read.
func uvarintWide(buf []byte) (uint64, int, error) {
	if len(buf) > 0 && buf[0] < 0x80 {
		return uint64(buf[0]), 1, nil
	}
	if len(buf) < 8 {
		return uvarintScalar(buf)
	}
	w := binary.LittleEndian.Uint64(buf)
	stops := ^w & hibits
	if stops != 0 {
		n := bits.TrailingZeros64(stops)/8 + 1
		// keep only the n bytes that belong to this varint
		w &= ^uint64(0) >> (64 - 8*n)
		return squash7(w), n, nil
	}
	// all 8 bytes carry a continuation bit;
	// at most two more bytes may follow
	out := squash7(w)
	if len(buf) < 9 {
		return 0, 0, ErrEOF
	}
	b := buf[8]
	out |= uint64(b&0x7f) << 56
	if b < 0x80 {
		return out, 9, nil
	}
	if len(buf) < 10 {
		return 0, 0, ErrEOF
	}
	b = buf[9]
	if b > 1 {
		return 0, 0, errOverflow
	}
	return out | uint64(b)<<63, 10, nil
}

// uvarintLen returns the minimal encoded
// length of v as a varint.
func uvarintLen(v uint64) int {
	return (bits.Len64(v|1) + 6) / 7
}

// AppendUvarint appends the varint encoding of v to dst.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

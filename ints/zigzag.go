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

// Package ints provides generic integer helpers.
package ints

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ZigZag maps a signed integer to an unsigned one so that
// values of small magnitude have small encodings:
// 0 -> 0, -1 -> 1, 1 -> 2, -2 -> 3, ...
//
// The result is identical to (v << 1) ^ (v >> (width-1))
// computed at the width of T.
func ZigZag[T constraints.Signed](v T) uint64 {
	x := int64(v)
	return uint64((x << 1) ^ (x >> 63))
}

// UnZigZag reverses ZigZag. The result is truncated
// to the width of T; use FitsZigZag to check first.
func UnZigZag[T constraints.Signed](u uint64) T {
	return T(int64(u>>1) ^ -int64(u&1))
}

// FitsZigZag reports whether u is the zigzag
// encoding of a value representable by T.
func FitsZigZag[T constraints.Signed](u uint64) bool {
	var zero T
	width := unsafe.Sizeof(zero) * 8
	return width == 64 || u>>width == 0
}

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

// Package utf8 provides additional UTF-8 related functions.
package utf8

import (
	"encoding/binary"
	"unicode/utf8"
)

// Valid reports whether str is valid UTF-8.
//
// Metadata strings (column names, paths,
// created_by) are nearly always ASCII, so
// leading ASCII is skipped 8 bytes at a time
// and only the remainder is fully validated.
func Valid(str []byte) bool {
	for len(str) >= 8 {
		qword := binary.LittleEndian.Uint64(str)
		if qword&0x8080808080808080 != 0 {
			break
		}
		str = str[8:]
	}
	for len(str) > 0 && str[0] < utf8.RuneSelf {
		str = str[1:]
	}
	return len(str) == 0 || utf8.Valid(str)
}

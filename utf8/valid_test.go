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

package utf8

import (
	"fmt"
	"math/rand"
	"testing"
	"unicode/utf8"

	"github.com/SnellerInc/pqfooter/ints"
)

func TestValid(t *testing.T) {
	testcases := [][]byte{
		[]byte(""),
		[]byte("A"),
		[]byte("0123456"),
		[]byte("01234567"),
		[]byte("012345678"),
		[]byte("all ascii, long enough to take several words"),
		[]byte("wąż"),
		[]byte("01234567żółw"),
		{0xff},
		[]byte("01234567\xff"),
		[]byte("0123456789abcdef\xc3"),  // truncated sequence
		[]byte("path/to/\xed\xa0\x80"), // surrogate
		{0xc0, 0x80},                   // overlong
	}

	for i := range testcases {
		str := testcases[i]
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			want := utf8.Valid(str)
			got := Valid(str)
			if want != got {
				t.Errorf("Valid(%q) = %v, want %v", str, got, want)
			}
		})
	}
}

// mostly-ASCII random input exercises the
// boundary between the word loop and the tail
func TestValidRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	buf := make([]byte, 64)
	for i := 0; i < 10000; i++ {
		str := buf[:r.Intn(len(buf)+1)]
		ints.RandomFillSlice(r, str)
		for j := range str {
			if r.Intn(16) != 0 {
				str[j] &= 0x7f
			}
		}
		if got, want := Valid(str), utf8.Valid(str); got != want {
			t.Fatalf("Valid(%q) = %v, want %v", str, got, want)
		}
	}
}

func BenchmarkValid(b *testing.B) {
	str := []byte("quite long string with the Polish word 'żółw' - a turtle")
	for i := 0; i < b.N; i++ {
		Valid(str)
	}
}

func BenchmarkStdlibValid(b *testing.B) {
	str := []byte("quite long string with the Polish word 'żółw' - a turtle")
	for i := 0; i < b.N; i++ {
		utf8.Valid(str)
	}
}

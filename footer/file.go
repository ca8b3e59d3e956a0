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

package footer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dchest/siphash"
)

// Magic is the four-byte marker at both
// ends of a Parquet file.
const Magic = "PAR1"

// tailSize is the length of the footer length and
// the trailing magic number
const tailSize = 8

// DefaultGuess is the number of trailing bytes
// ReadFooter reads on its first attempt.
const DefaultGuess = 64 * 1024

// ErrNotParquet is returned when the input
// is too short or lacks the Parquet magic number.
var ErrNotParquet = errors.New("footer: not a parquet file")

func footerLen(tail []byte, size int64) (int64, error) {
	if string(tail[4:]) != Magic {
		return 0, ErrNotParquet
	}
	n := int64(binary.LittleEndian.Uint32(tail))
	if n+tailSize+int64(len(Magic)) > size {
		return 0, fmt.Errorf("footer length %d exceeds file size %d", n, size)
	}
	return n, nil
}

// Locate returns the encoded FileMetaData
// within a complete in-memory Parquet file.
// The returned slice aliases file.
func Locate(file []byte) ([]byte, error) {
	size := int64(len(file))
	if size < int64(len(Magic))+tailSize || string(file[:len(Magic)]) != Magic {
		return nil, ErrNotParquet
	}
	n, err := footerLen(file[size-tailSize:], size)
	if err != nil {
		return nil, err
	}
	end := size - tailSize
	return file[end-n : end], nil
}

// ReadFooter reads the encoded FileMetaData
// from the end of a Parquet file of the given size.
// It reads DefaultGuess bytes first, and once more
// if the footer turns out to be larger than that.
// Like Locate, it checks the magic number at both ends.
func ReadFooter(r io.ReaderAt, size int64) ([]byte, error) {
	if size < int64(len(Magic))+tailSize {
		return nil, ErrNotParquet
	}
	guess := int64(DefaultGuess)
	if guess > size {
		guess = size
	}
	buf := make([]byte, guess)
	if _, err := r.ReadAt(buf, size-guess); err != nil && err != io.EOF {
		return nil, err
	}
	n, err := footerLen(buf[guess-tailSize:], size)
	if err != nil {
		return nil, err
	}
	head := buf[:len(Magic)]
	if guess < size {
		head = make([]byte, len(Magic))
		if _, err := r.ReadAt(head, 0); err != nil {
			return nil, err
		}
	}
	if string(head) != Magic {
		return nil, ErrNotParquet
	}
	if n+tailSize <= guess {
		return buf[guess-tailSize-n : guess-tailSize], nil
	}
	buf = make([]byte, n)
	if _, err := r.ReadAt(buf, size-tailSize-n); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// AppendFile appends a minimal Parquet file
// containing only the magic numbers and meta,
// the encoded FileMetaData, to dst.
func AppendFile(dst, meta []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(meta)))
	dst = append(dst, Magic...)
	dst = append(dst, meta...)
	dst = append(dst, tmp[:]...)
	return append(dst, Magic...)
}

// Fingerprint returns a keyed hash of an
// encoded footer, suitable for comparing
// footers without retaining them.
func Fingerprint(meta []byte) uint64 {
	const (
		k0 = 0x7061727175657431
		k1 = 0xc6a4a7935bd1e995
	)
	return siphash.Hash(k0, k1, meta)
}

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
	"errors"
	"fmt"
	"io"
)

// ErrEOF is returned when the input ends before
// a header, length or value has been fully read.
// It wraps io.ErrUnexpectedEOF.
var ErrEOF = fmt.Errorf("compact: %w", io.ErrUnexpectedEOF)

// ErrUnsupported is matched (via errors.Is) by
// every *UnsupportedError.
var ErrUnsupported = errors.New("compact: capability not supported")

// ProtocolError is returned when the input
// violates the wire encoding.
type ProtocolError struct {
	Func string
	Msg  string
}

func (p *ProtocolError) Error() string {
	return fmt.Sprintf("compact.%s: %s", p.Func, p.Msg)
}

func errorf(fn, f string, args ...any) error {
	return &ProtocolError{Func: fn, Msg: fmt.Sprintf(f, args...)}
}

// UnsupportedError is returned from reads of
// constructs this decoder deliberately does
// not implement (sets, maps, messages).
type UnsupportedError struct {
	Func string
	What string
}

func (u *UnsupportedError) Error() string {
	return fmt.Sprintf("compact.%s: %s not supported", u.Func, u.What)
}

func (u *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

func unsupported(fn, what string) error {
	return &UnsupportedError{Func: fn, What: what}
}

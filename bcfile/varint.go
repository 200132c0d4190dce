// Copyright (C) 2024 clox authors.
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

package bcfile

// String length prefix encoding (spec.md §4.3): the low 2 bits of the
// first byte select one of three little-endian length classes, in the
// same spirit as ion's continuation-bit VarUInt (ion/write.go) but
// with the class selector carried in fixed low bits instead of a
// continuation bit per byte, since the spec fixes the three sizes in
// advance rather than letting the length grow unbounded.
const (
	lenClass6  = 0b01 // 6 bits of length in byte 0, <=62
	lenClass14 = 0b10 // 14 bits of length across 2 bytes
	lenClass30 = 0b00 // 30 bits of length across 4 bytes
)

func putLength(dst []byte, n int) []byte {
	switch {
	case n <= 62:
		return append(dst, byte(n<<2)|lenClass6)
	case n < 1<<14:
		return append(dst,
			byte(n<<2)|lenClass14,
			byte(n>>6),
		)
	case n < 1<<30:
		return append(dst,
			byte(n<<2)|lenClass30,
			byte(n>>6),
			byte(n>>14),
			byte(n>>22),
		)
	default:
		panic("bcfile: string too long to encode")
	}
}

// getLength reads a length prefix from src, returning the decoded
// length and the number of bytes consumed.
func getLength(src []byte) (n int, consumed int, err error) {
	if len(src) < 1 {
		return 0, 0, errTruncated
	}
	switch src[0] & 0b11 {
	case lenClass6:
		return int(src[0] >> 2), 1, nil
	case lenClass14:
		if len(src) < 2 {
			return 0, 0, errTruncated
		}
		n = int(src[0]>>2) | int(src[1])<<6
		return n, 2, nil
	case lenClass30:
		if len(src) < 4 {
			return 0, 0, errTruncated
		}
		n = int(src[0]>>2) | int(src[1])<<6 | int(src[2])<<14 | int(src[3])<<22
		return n, 4, nil
	default:
		// 0b11 is not assigned by spec.md §4.3.
		return 0, 0, &Error{Kind: "bad-length-tag", Msg: "unrecognized string length tag"}
	}
}

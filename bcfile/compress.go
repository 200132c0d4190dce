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

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// WriteCompressed wraps the exact bytes Serialize would produce in a
// zstd frame, for the `-compile -compress` driver mode (SPEC_FULL.md
// §11). Decompressing the result with ReadCompressed yields bytes
// identical to plain Serialize output; the wrapping never changes the
// inner format.
func WriteCompressed(w io.Writer, raw []byte) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("bcfile: opening zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return fmt.Errorf("bcfile: compressing: %w", err)
	}
	return enc.Close()
}

// ReadCompressed reverses WriteCompressed, returning the bit-exact
// bytes that Deserialize expects.
func ReadCompressed(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("bcfile: opening zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("bcfile: decompressing: %w", err)
	}
	return raw, nil
}

/*
 *  MIT License
 *
 *  Copyright (c) 2025 David Fischer
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Parsing is case-insensitive and trims whitespace, quotes, and apostrophes.
// Unknown or invalid values result in FormatNone being set.
func (f *Format) UnmarshalText(b []byte) error {
	*f = FormatNone

	s := strings.TrimSpace(string(b))
	s = strings.Trim(s, "\"")
	s = strings.Trim(s, "'")
	s = strings.TrimSpace(s)

	for _, v := range ListFormats() {
		if strings.EqualFold(s, v.String()) {
			*f = v
			return nil
		}
	}

	// common aliases
	switch strings.ToLower(s) {
	case "gz", "tgz":
		*f = FormatGzip
		if strings.EqualFold(s, "tgz") {
			*f = FormatTarGzip
		}
	case "bz2":
		*f = FormatBzip2
	case "zst", "zstandard":
		*f = FormatZstd
	case "sevenzip", "7zip":
		*f = FormatSevenZip
	}

	return nil
}

// MarshalJSON implements json.Marshaler. FormatNone is marshaled as null.
func (f Format) MarshalJSON() ([]byte, error) {
	if f.IsNone() {
		return []byte("null"), nil
	}
	return append(append([]byte{'"'}, []byte(f.String())...), '"'), nil
}

// UnmarshalJSON implements json.Unmarshaler. JSON null is interpreted as
// FormatNone; the parsing delegates to UnmarshalText.
func (f *Format) UnmarshalJSON(b []byte) error {
	var s string

	if n := []byte("null"); bytes.Equal(b, n) {
		*f = FormatNone
		return nil
	} else if err := json.Unmarshal(b, &s); err != nil {
		return err
	} else {
		return f.UnmarshalText([]byte(s))
	}
}

// ParseFormat is a convenience function to parse a string and return the
// corresponding Format.
func ParseFormat(s string) Format {
	var f = FormatNone
	if e := f.UnmarshalText([]byte(s)); e != nil {
		return FormatNone
	} else {
		return f
	}
}

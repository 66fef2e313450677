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

package config

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OverwriteMode decides what extraction does when the destination entry
// already exists.
type OverwriteMode uint8

const (
	// OverwriteSkip leaves the existing entry in place.
	OverwriteSkip OverwriteMode = iota
	// OverwriteAlways replaces the existing entry.
	OverwriteAlways
	// OverwriteIfNewer replaces the existing entry only when the member's
	// modification time differs from the on-disk one.
	OverwriteIfNewer
	// OverwriteError aborts the extraction on conflict.
	OverwriteError
)

func (m OverwriteMode) String() string {
	switch m {
	case OverwriteAlways:
		return "overwrite"
	case OverwriteIfNewer:
		return "overwrite-if-newer"
	case OverwriteError:
		return "error"
	default:
		return "skip"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m OverwriteMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Parsing is
// case-insensitive; unknown values result in OverwriteSkip.
func (m *OverwriteMode) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	s = strings.Trim(s, "\"")
	s = strings.Trim(s, "'")
	s = strings.TrimSpace(s)

	switch {
	case strings.EqualFold(s, OverwriteAlways.String()):
		*m = OverwriteAlways
	case strings.EqualFold(s, OverwriteIfNewer.String()):
		*m = OverwriteIfNewer
	case strings.EqualFold(s, OverwriteError.String()):
		*m = OverwriteError
	default:
		*m = OverwriteSkip
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (m OverwriteMode) MarshalJSON() ([]byte, error) {
	return append(append([]byte{'"'}, []byte(m.String())...), '"'), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *OverwriteMode) UnmarshalJSON(b []byte) error {
	var s string

	if n := []byte("null"); bytes.Equal(b, n) {
		*m = OverwriteSkip
		return nil
	} else if err := json.Unmarshal(b, &s); err != nil {
		return err
	} else {
		return m.UnmarshalText([]byte(s))
	}
}

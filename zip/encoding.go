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

package zip

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeFallback decodes a zip text field that is not flagged UTF-8, trying
// the configured encodings in order. Valid UTF-8 input passes through; the
// first decodable fallback wins; undecodable input is returned as-is.
func decodeFallback(s string, encodings []string) string {
	if utf8.ValidString(s) {
		return s
	}

	for _, name := range encodings {
		var cm *charmap.Charmap

		switch strings.ToLower(name) {
		case "cp437", "ibm437":
			cm = charmap.CodePage437
		case "cp1252", "windows-1252":
			cm = charmap.Windows1252
		case "latin-1", "latin1", "iso-8859-1":
			cm = charmap.ISO8859_1
		default:
			continue
		}

		if res, err := cm.NewDecoder().String(s); err == nil {
			return res
		}
	}

	return s
}

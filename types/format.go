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

import "bytes"

type Format uint8

const (
	FormatNone Format = iota
	FormatZip
	FormatRar
	FormatSevenZip
	FormatTar
	FormatTarGzip
	FormatTarBzip2
	FormatTarXZ
	FormatTarZstd
	FormatTarLZ4
	FormatGzip
	FormatBzip2
	FormatXZ
	FormatZstd
	FormatLZ4
)

// HeaderPeekSize is the number of leading bytes needed to run DetectHeader
// for any format. The tar magic sits at offset 257, so detection needs a
// deeper peek than the compression magics.
const HeaderPeekSize = 265

func ListFormats() []Format {
	return []Format{
		FormatZip,
		FormatRar,
		FormatSevenZip,
		FormatTar,
		FormatTarGzip,
		FormatTarBzip2,
		FormatTarXZ,
		FormatTarZstd,
		FormatTarLZ4,
		FormatGzip,
		FormatBzip2,
		FormatXZ,
		FormatZstd,
		FormatLZ4,
	}
}

func (f Format) IsNone() bool {
	return f == FormatNone
}

// IsTar reports whether the format is the tar container, possibly behind a
// compression transport.
func (f Format) IsTar() bool {
	switch f {
	case FormatTar, FormatTarGzip, FormatTarBzip2, FormatTarXZ, FormatTarZstd, FormatTarLZ4:
		return true
	default:
		return false
	}
}

// IsSingleStream reports whether the format is a bare compressed stream with
// no container structure.
func (f Format) IsSingleStream() bool {
	switch f {
	case FormatGzip, FormatBzip2, FormatXZ, FormatZstd, FormatLZ4:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	case FormatSevenZip:
		return "7z"
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarBzip2:
		return "tar.bz2"
	case FormatTarXZ:
		return "tar.xz"
	case FormatTarZstd:
		return "tar.zst"
	case FormatTarLZ4:
		return "tar.lz4"
	case FormatGzip:
		return "gzip"
	case FormatBzip2:
		return "bzip2"
	case FormatXZ:
		return "xz"
	case FormatZstd:
		return "zstd"
	case FormatLZ4:
		return "lz4"
	default:
		return "none"
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatZip:
		return ".zip"
	case FormatRar:
		return ".rar"
	case FormatSevenZip:
		return ".7z"
	case FormatTar:
		return ".tar"
	case FormatTarGzip:
		return ".tar.gz"
	case FormatTarBzip2:
		return ".tar.bz2"
	case FormatTarXZ:
		return ".tar.xz"
	case FormatTarZstd:
		return ".tar.zst"
	case FormatTarLZ4:
		return ".tar.lz4"
	case FormatGzip:
		return ".gz"
	case FormatBzip2:
		return ".bz2"
	case FormatXZ:
		return ".xz"
	case FormatZstd:
		return ".zst"
	case FormatLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// DetectHeader reports whether the given leading bytes match the format's
// magic. The buffer should hold at least HeaderPeekSize bytes for tar
// detection; compression magics need only the first 6.
func (f Format) DetectHeader(h []byte) bool {
	switch f {
	case FormatZip:
		exp := []byte{0x50, 0x4b, 0x03, 0x04}
		return len(h) >= 4 && bytes.Equal(h[0:4], exp)
	case FormatRar:
		exp := []byte{0x52, 0x61, 0x72, 0x21, 0x1a, 0x07}
		return len(h) >= 6 && bytes.Equal(h[0:6], exp)
	case FormatSevenZip:
		exp := []byte{0x37, 0x7a, 0xbc, 0xaf, 0x27, 0x1c}
		return len(h) >= 6 && bytes.Equal(h[0:6], exp)
	case FormatTar:
		if len(h) < 263 {
			return false
		}
		exp := append([]byte("ustar"), 0x00)
		alt := []byte("ustar ")
		val := h[257:263]
		return bytes.Equal(val, exp) || bytes.Equal(val, alt)
	case FormatGzip, FormatTarGzip:
		exp := []byte{31, 139}
		return len(h) >= 2 && bytes.Equal(h[0:2], exp)
	case FormatBzip2, FormatTarBzip2:
		exp := []byte{'B', 'Z', 'h'}
		return len(h) >= 4 && bytes.Equal(h[0:3], exp) && h[3] >= '0' && h[3] <= '9'
	case FormatXZ, FormatTarXZ:
		exp := []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
		return len(h) >= 6 && bytes.Equal(h[0:6], exp)
	case FormatZstd, FormatTarZstd:
		exp := []byte{0x28, 0xB5, 0x2F, 0xFD}
		return len(h) >= 4 && bytes.Equal(h[0:4], exp)
	case FormatLZ4, FormatTarLZ4:
		exp := []byte{0x04, 0x22, 0x4D, 0x18}
		return len(h) >= 4 && bytes.Equal(h[0:4], exp)
	default:
		return false
	}
}

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

package compress

import (
	"compress/bzip2"
	"compress/gzip"
	"io"

	libcfg "github.com/davitf/archivey/config"
	bz2 "github.com/dsnet/compress/bzip2"
	kpgz "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Reader returns the decompression stream for the algorithm. The backend for
// gzip and bzip2 follows the configuration; xz, zstd and lz4 have a single
// backend.
func (a Algorithm) Reader(r io.Reader, cfg *libcfg.Config) (io.ReadCloser, error) {
	if cfg == nil {
		cfg = libcfg.Default()
	}

	switch a {
	case Bzip2:
		if cfg.UseDsnetBzip2 {
			return bz2.NewReader(r, nil)
		}
		return io.NopCloser(bzip2.NewReader(r)), nil
	case Gzip:
		if cfg.UseKlauspostGzip {
			return kpgz.NewReader(r)
		}
		return gzip.NewReader(r)
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case XZ:
		c, e := xz.NewReader(r)
		if e != nil {
			return nil, e
		}
		return io.NopCloser(c), nil
	case Zstd:
		d, e := zstd.NewReader(r)
		if e != nil {
			return nil, e
		}
		return d.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}

// GzipMetadata returns the original name and modification time recorded in a
// gzip header, when the stream is gzip and the header carries them.
func GzipMetadata(r io.Reader) (name string, mtime int64, err error) {
	z, e := gzip.NewReader(r)
	if e != nil {
		return "", 0, e
	}

	defer func() {
		_ = z.Close()
	}()

	if !z.Header.ModTime.IsZero() {
		mtime = z.Header.ModTime.Unix()
	}

	return z.Header.Name, mtime, nil
}

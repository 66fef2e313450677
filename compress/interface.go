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

// Package compress provides the compressed-stream transports used under tar
// containers and for single-file compressed streams: algorithm detection and
// decompression readers for gzip, bzip2, xz, zstd and lz4, with alternate
// backends selected through the configuration.
package compress

import (
	"bufio"
	"io"
	"os"

	libcfg "github.com/davitf/archivey/config"
)

// Parse is a convenience function to parse a string and return the
// corresponding Algorithm.
func Parse(s string) Algorithm {
	var alg = None
	if e := alg.UnmarshalText([]byte(s)); e != nil {
		return None
	} else {
		return alg
	}
}

// Detect is a convenience function to detect the compression algorithm used
// in the provided io.Reader and return the decompression stream associated.
func Detect(r io.Reader, cfg *libcfg.Config) (Algorithm, io.ReadCloser, error) {
	var (
		err error
		alg Algorithm
		rdr io.ReadCloser
	)

	if alg, rdr, err = DetectOnly(r); err != nil {
		return None, nil, err
	} else if rdr, err = alg.Reader(rdr, cfg); err != nil {
		return None, nil, err
	} else {
		return alg, rdr, nil
	}
}

// DetectOnly detects the compression algorithm used in the provided
// io.Reader without consuming the peeked header bytes.
func DetectOnly(r io.Reader) (Algorithm, io.ReadCloser, error) {
	var (
		err error
		alg Algorithm
		bfr = bufio.NewReader(r)
		buf []byte
	)

	if buf, err = bfr.Peek(6); err != nil {
		return None, nil, err
	}

	switch {
	case Gzip.DetectHeader(buf):
		alg = Gzip
	case Bzip2.DetectHeader(buf):
		alg = Bzip2
	case LZ4.DetectHeader(buf):
		alg = LZ4
	case XZ.DetectHeader(buf):
		alg = XZ
	case Zstd.DetectHeader(buf):
		alg = Zstd
	default:
		alg = None
	}

	return alg, io.NopCloser(bfr), err
}

type fileStream struct {
	io.Reader
	c []io.Closer
}

func (o *fileStream) Close() error {
	var err error
	for _, c := range o.c {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// OpenFile opens the file at path through the algorithm's decompression
// stream. Closing the returned stream closes both the decoder and the file.
// With None, the returned stream is the raw file and stays seekable.
func OpenFile(alg Algorithm, path string, cfg *libcfg.Config) (io.ReadCloser, error) {
	hdf, err := os.Open(path)
	if err != nil {
		return nil, ErrorFileOpen.Error(err)
	}

	if alg.IsNone() {
		return hdf, nil
	}

	rdr, err := alg.Reader(hdf, cfg)
	if err != nil {
		_ = hdf.Close()
		return nil, ErrorReaderInit.Error(err)
	}

	return &fileStream{
		Reader: rdr,
		c:      []io.Closer{rdr, hdf},
	}, nil
}

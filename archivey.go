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

// Package archivey is a unified read-side library for compressed and
// archival container formats. One abstraction, the archive reader,
// normalizes zip, rar, 7z, the tar family over gzip/bzip2/xz/zstd/lz4
// transports, and bare compressed streams into one member model with two
// access modes: random access (open any member by name) or a single linear
// pass.
//
// Open sniffs the format from the file's magic bytes and returns the
// matching reader:
//
//	r, err := archivey.Open("backup.tar.gz")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	_, err = r.ExtractAll(nil, "/tmp/backup")
package archivey

import (
	"io"
	"os"

	arccmp "github.com/davitf/archivey/compress"
	arcrar "github.com/davitf/archivey/rar"
	arcrdr "github.com/davitf/archivey/reader"
	arcsvz "github.com/davitf/archivey/sevenzip"
	arctar "github.com/davitf/archivey/tar"
	arctps "github.com/davitf/archivey/types"
	arczip "github.com/davitf/archivey/zip"
	libcfg "github.com/davitf/archivey/config"
	libsgl "github.com/davitf/archivey/singlefile"
	liberr "github.com/nabbar/golib/errors"
)

// Option adjusts how an archive is opened.
type Option func(o *options)

type options struct {
	pwd       string
	cfg       *libcfg.Config
	streaming bool
}

// WithPassword sets the password used for encrypted members.
func WithPassword(pwd string) Option {
	return func(o *options) {
		o.pwd = pwd
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *libcfg.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithStreaming demands linear single-pass semantics. Formats with a native
// streaming shape (tar, rar) use it; the rest are reduced through the
// streaming-only wrapper.
func WithStreaming() Option {
	return func(o *options) {
		o.streaming = true
	}
}

// Open sniffs the format of the file at path and returns the matching
// archive reader. Compressed tar archives are detected through their
// transport: the leading bytes of the decompressed stream are peeked for
// the tar magic.
func Open(path string, opt ...Option) (arcrdr.Reader, liberr.Error) {
	o := &options{}
	for _, f := range opt {
		f(o)
	}

	format, err := detectFormat(path, o.cfg)
	if err != nil {
		return nil, err
	}

	return openFormat(path, format, o)
}

// OpenCompressedStream opens a single-file compressed stream (no
// container), without probing for an embedded archive.
func OpenCompressedStream(path string, opt ...Option) (arcrdr.Reader, liberr.Error) {
	o := &options{}
	for _, f := range opt {
		f(o)
	}

	head, err := readHeader(path)
	if err != nil {
		return nil, err
	}

	alg := detectCompression(head)
	if alg.IsNone() {
		return nil, ErrorUnknownFormat.Error(nil)
	}

	r, e := libsgl.NewReader(path, compressedFormat(alg), o.cfg)
	if e != nil {
		return nil, e
	}

	if o.streaming {
		return arcrdr.NewStreamingOnly(r), nil
	}

	return r, nil
}

func readHeader(path string) ([]byte, liberr.Error) {
	hdf, e := os.Open(path)
	if e != nil {
		return nil, ErrorFileOpen.Error(e)
	}

	defer func() {
		_ = hdf.Close()
	}()

	head := make([]byte, arctps.HeaderPeekSize)
	n, e := io.ReadFull(hdf, head)
	if e != nil && e != io.ErrUnexpectedEOF && e != io.EOF {
		return nil, ErrorFileRead.Error(e)
	}

	return head[:n], nil
}

func detectCompression(head []byte) arccmp.Algorithm {
	switch {
	case arccmp.Gzip.DetectHeader(head):
		return arccmp.Gzip
	case arccmp.Bzip2.DetectHeader(head):
		return arccmp.Bzip2
	case arccmp.XZ.DetectHeader(head):
		return arccmp.XZ
	case arccmp.Zstd.DetectHeader(head):
		return arccmp.Zstd
	case arccmp.LZ4.DetectHeader(head):
		return arccmp.LZ4
	default:
		return arccmp.None
	}
}

func compressedFormat(alg arccmp.Algorithm) arctps.Format {
	switch alg {
	case arccmp.Gzip:
		return arctps.FormatGzip
	case arccmp.Bzip2:
		return arctps.FormatBzip2
	case arccmp.XZ:
		return arctps.FormatXZ
	case arccmp.Zstd:
		return arctps.FormatZstd
	case arccmp.LZ4:
		return arctps.FormatLZ4
	default:
		return arctps.FormatNone
	}
}

func compressedTarFormat(alg arccmp.Algorithm) arctps.Format {
	switch alg {
	case arccmp.Gzip:
		return arctps.FormatTarGzip
	case arccmp.Bzip2:
		return arctps.FormatTarBzip2
	case arccmp.XZ:
		return arctps.FormatTarXZ
	case arccmp.Zstd:
		return arctps.FormatTarZstd
	case arccmp.LZ4:
		return arctps.FormatTarLZ4
	default:
		return arctps.FormatNone
	}
}

func detectFormat(path string, cfg *libcfg.Config) (arctps.Format, liberr.Error) {
	head, err := readHeader(path)
	if err != nil {
		return arctps.FormatNone, err
	}

	switch {
	case arctps.FormatRar.DetectHeader(head):
		return arctps.FormatRar, nil
	case arctps.FormatSevenZip.DetectHeader(head):
		return arctps.FormatSevenZip, nil
	case arctps.FormatZip.DetectHeader(head):
		return arctps.FormatZip, nil
	case arctps.FormatTar.DetectHeader(head):
		return arctps.FormatTar, nil
	}

	alg := detectCompression(head)
	if alg.IsNone() {
		return arctps.FormatNone, ErrorUnknownFormat.Error(nil)
	}

	// a compressed transport may carry a tar container; peek the leading
	// bytes of the decompressed stream
	if inner, e := peekDecompressed(path, alg, cfg); e == nil && arctps.FormatTar.DetectHeader(inner) {
		return compressedTarFormat(alg), nil
	}

	return compressedFormat(alg), nil
}

func peekDecompressed(path string, alg arccmp.Algorithm, cfg *libcfg.Config) ([]byte, liberr.Error) {
	r, e := arccmp.OpenFile(alg, path, cfg)
	if e != nil {
		if err, k := e.(liberr.Error); k {
			return nil, err
		}
		return nil, ErrorFileOpen.Error(e)
	}

	defer func() {
		_ = r.Close()
	}()

	head := make([]byte, arctps.HeaderPeekSize)
	n, e := io.ReadFull(r, head)
	if e != nil && e != io.ErrUnexpectedEOF && e != io.EOF {
		return nil, ErrorFileRead.Error(e)
	}

	return head[:n], nil
}

func openFormat(path string, format arctps.Format, o *options) (arcrdr.Reader, liberr.Error) {
	switch {
	case format == arctps.FormatZip:
		r, e := arczip.NewReader(path, o.pwd, o.cfg)
		return wrapStreaming(r, e, o)

	case format == arctps.FormatRar:
		if o.streaming {
			return arcrar.NewStreamReader(path, o.pwd, o.cfg)
		}
		return arcrar.NewReader(path, o.pwd, o.cfg)

	case format == arctps.FormatSevenZip:
		r, e := arcsvz.NewReader(path, o.pwd, o.cfg)
		return wrapStreaming(r, e, o)

	case format.IsTar():
		if o.streaming {
			return arctar.NewStreamReader(path, format, o.cfg)
		}
		return arctar.NewReader(path, format, o.cfg)

	case format.IsSingleStream():
		r, e := libsgl.NewReader(path, format, o.cfg)
		return wrapStreaming(r, e, o)

	default:
		return nil, ErrorUnknownFormat.Error(nil)
	}
}

func wrapStreaming(r arcrdr.Reader, e liberr.Error, o *options) (arcrdr.Reader, liberr.Error) {
	if e != nil {
		return nil, e
	}

	if o.streaming {
		return arcrdr.NewStreamingOnly(r), nil
	}

	return r, nil
}

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

// Package ioutils provides the member-stream plumbing shared by all format
// adapters: lazy opening, error translation at the read site, pre-seeded
// failure sentinels, and bounded reads.
package ioutils

import "io"

// OpenFunc produces the underlying member stream on first use.
type OpenFunc func() (io.ReadCloser, error)

// TranslateFunc maps an underlying decoder error into the common error
// taxonomy. Returning nil passes the original error through unchanged.
type TranslateFunc func(e error) error

type lazyReader struct {
	open     OpenFunc
	r        io.ReadCloser
	seekable bool
	closed   bool
}

// NewLazyReader returns a stream that defers opening until the first Read.
// The seekable flag only declares intent for callers; the lazy stream itself
// does not seek.
func NewLazyReader(open OpenFunc, seekable bool) io.ReadCloser {
	return &lazyReader{
		open:     open,
		seekable: seekable,
	}
}

func (o *lazyReader) Read(p []byte) (n int, err error) {
	if o.closed {
		return 0, ErrorStreamClosed.Error(nil)
	}

	if o.r == nil {
		if o.r, err = o.open(); err != nil {
			return 0, err
		}
	}

	return o.r.Read(p)
}

func (o *lazyReader) Close() error {
	if o.closed {
		return nil
	}

	o.closed = true

	if o.r == nil {
		return nil
	}

	return o.r.Close()
}

// Seekable reports the declared seekability of a stream created by
// NewLazyReader; other streams report false.
func Seekable(r io.Reader) bool {
	if l, k := r.(*lazyReader); k {
		return l.seekable
	}

	return false
}

type translateReader struct {
	r io.ReadCloser
	f TranslateFunc
}

// NewTranslateReader wraps a member stream so that read errors are mapped
// through the given translator before reaching the caller. io.EOF passes
// through untouched; unknown errors pass through unchanged.
func NewTranslateReader(r io.ReadCloser, f TranslateFunc) io.ReadCloser {
	return &translateReader{
		r: r,
		f: f,
	}
}

func (o *translateReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	if err != nil && err != io.EOF && o.f != nil {
		if t := o.f(err); t != nil {
			return n, t
		}
	}

	return n, err
}

func (o *translateReader) Close() error {
	return o.r.Close()
}

type errReader struct {
	err error
}

// NewErrorReader returns a stream whose first operation fails with the given
// pre-seeded error. It is used when iteration must still yield a stream per
// member but the adapter already knows the member cannot be read.
func NewErrorReader(err error) io.ReadCloser {
	return &errReader{
		err: err,
	}
}

func (o *errReader) Read(p []byte) (int, error) {
	return 0, o.err
}

func (o *errReader) Close() error {
	return nil
}

type boundedReader struct {
	r         io.Reader
	remaining int64
}

// NewBoundedReader limits a stream to the given byte count. Reaching the
// bound yields io.EOF; an underlying EOF before the bound surfaces as a
// truncation error.
func NewBoundedReader(r io.Reader, n int64) io.ReadCloser {
	return &boundedReader{
		r:         r,
		remaining: n,
	}
}

func (o *boundedReader) Read(p []byte) (int, error) {
	if o.remaining <= 0 {
		return 0, io.EOF
	}

	if int64(len(p)) > o.remaining {
		p = p[:o.remaining]
	}

	n, err := o.r.Read(p)
	o.remaining -= int64(n)

	if err == io.EOF && o.remaining > 0 {
		return n, ErrorStreamTruncated.Error(err)
	}

	return n, err
}

func (o *boundedReader) Close() error {
	return nil
}

// Drain consumes and discards anything left on the stream, so that trailing
// verification (CRC checks on close) still fires for unread members.
func Drain(r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

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

package compress_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	arccmp "github.com/davitf/archivey/compress"
	libcfg "github.com/davitf/archivey/config"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

func TestParse(t *testing.T) {
	cases := map[string]arccmp.Algorithm{
		"gzip":      arccmp.Gzip,
		"GZIP":      arccmp.Gzip,
		"bzip2":     arccmp.Bzip2,
		"xz":        arccmp.XZ,
		"lz4":       arccmp.LZ4,
		"zstd":      arccmp.Zstd,
		"zstandard": arccmp.Zstd,
		"garbage":   arccmp.None,
		"":          arccmp.None,
	}

	for in, want := range cases {
		if got := arccmp.Parse(in); got != want {
			t.Fatalf("Parse(%q) = %s, want %s", in, got.String(), want.String())
		}
	}
}

func TestDetectHeader(t *testing.T) {
	cases := []struct {
		alg  arccmp.Algorithm
		head []byte
	}{
		{arccmp.Gzip, []byte{31, 139, 8, 0, 0, 0}},
		{arccmp.Bzip2, []byte{'B', 'Z', 'h', '9', 0x31, 0x41}},
		{arccmp.LZ4, []byte{0x04, 0x22, 0x4D, 0x18, 0x64, 0x40}},
		{arccmp.XZ, []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}},
		{arccmp.Zstd, []byte{0x28, 0xB5, 0x2F, 0xFD, 0x24, 0x00}},
	}

	for _, c := range cases {
		if !c.alg.DetectHeader(c.head) {
			t.Fatalf("%s did not match its magic", c.alg.String())
		}

		for _, other := range arccmp.List() {
			if other == c.alg || other.IsNone() {
				continue
			}
			if other.DetectHeader(c.head) {
				t.Fatalf("%s wrongly matched %s magic", other.String(), c.alg.String())
			}
		}
	}
}

func TestGzipRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}

	w := gzip.NewWriter(buf)
	if _, err := w.Write([]byte("payload over gzip")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	for _, klauspost := range []bool{false, true} {
		cfg := libcfg.Default()
		cfg.UseKlauspostGzip = klauspost

		r, err := arccmp.Gzip.Reader(bytes.NewReader(buf.Bytes()), cfg)
		if err != nil {
			t.Fatal(err)
		}

		b, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "payload over gzip" {
			t.Fatalf("bad contents (klauspost=%v): %q", klauspost, b)
		}

		_ = r.Close()
	}
}

func TestZstdRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}

	w, err := zstd.NewWriter(buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = w.Write([]byte("payload over zstd")); err != nil {
		t.Fatal(err)
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := arccmp.Zstd.Reader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload over zstd" {
		t.Fatalf("bad contents: %q", b)
	}
}

func TestLZ4RoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}

	w := lz4.NewWriter(buf)
	if _, err := w.Write([]byte("payload over lz4")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := arccmp.LZ4.Reader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload over lz4" {
		t.Fatalf("bad contents: %q", b)
	}
}

func TestXZRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}

	w, err := xz.NewWriter(buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = w.Write([]byte("payload over xz")); err != nil {
		t.Fatal(err)
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := arccmp.XZ.Reader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload over xz" {
		t.Fatalf("bad contents: %q", b)
	}
}

func TestDetectOnly(t *testing.T) {
	buf := &bytes.Buffer{}

	w := gzip.NewWriter(buf)
	_, _ = w.Write([]byte("data"))
	_ = w.Close()

	alg, rdr, err := arccmp.DetectOnly(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if alg != arccmp.Gzip {
		t.Fatalf("expected gzip, got %s", alg.String())
	}

	// the peeked bytes are preserved on the returned stream
	head := make([]byte, 2)
	if _, err = io.ReadFull(rdr, head); err != nil {
		t.Fatal(err)
	}
	if head[0] != 31 || head[1] != 139 {
		t.Fatalf("peeked bytes were consumed: %v", head)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.gz")

	hdf, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	w := gzip.NewWriter(hdf)
	_, _ = w.Write([]byte("from a file"))
	_ = w.Close()
	_ = hdf.Close()

	r, err := arccmp.OpenFile(arccmp.Gzip, path, nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "from a file" {
		t.Fatalf("bad contents: %q", b)
	}

	if err = r.Close(); err != nil {
		t.Fatal(err)
	}
}

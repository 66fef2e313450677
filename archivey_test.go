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

package archivey_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/davitf/archivey"
	arctps "github.com/davitf/archivey/types"
)

func writeTestZip(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "a.zip")

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	f, err := w.Create("hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.Write([]byte("zip contents"))
	_ = w.Close()

	if err = os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func writeTestTarGz(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "a.tgz")

	tarBuf := &bytes.Buffer{}
	tw := tar.NewWriter(tarBuf)

	if err := tw.WriteHeader(&tar.Header{
		Name:     "inner.txt",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len("tar contents")),
	}); err != nil {
		t.Fatal(err)
	}
	_, _ = tw.Write([]byte("tar contents"))
	_ = tw.Close()

	gzBuf := &bytes.Buffer{}
	zw := gzip.NewWriter(gzBuf)
	_, _ = zw.Write(tarBuf.Bytes())
	_ = zw.Close()

	if err := os.WriteFile(path, gzBuf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func writeTestGz(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "notes.txt.gz")

	buf := &bytes.Buffer{}
	zw := gzip.NewWriter(buf)
	_, _ = zw.Write([]byte("plain gzip contents"))
	_ = zw.Close()

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestOpenSniffsZip(t *testing.T) {
	r, err := archivey.Open(writeTestZip(t))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	if r.Format() != arctps.FormatZip {
		t.Fatalf("expected zip, got %s", r.Format().String())
	}

	stream, err := r.Open("hello.txt", "")
	if err != nil {
		t.Fatal(err)
	}

	b, e := io.ReadAll(stream)
	if e != nil {
		t.Fatal(e)
	}
	if string(b) != "zip contents" {
		t.Fatalf("bad contents: %q", b)
	}
	_ = stream.Close()
}

func TestOpenSniffsCompressedTar(t *testing.T) {
	r, err := archivey.Open(writeTestTarGz(t))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	if r.Format() != arctps.FormatTarGzip {
		t.Fatalf("expected tar.gz, got %s", r.Format().String())
	}

	lst, err := r.Members()
	if err != nil {
		t.Fatal(err)
	}
	if len(lst) != 1 || lst[0].Filename != "inner.txt" {
		t.Fatalf("bad members: %v", lst)
	}
}

func TestOpenSniffsBareGzip(t *testing.T) {
	r, err := archivey.Open(writeTestGz(t))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	if r.Format() != arctps.FormatGzip {
		t.Fatalf("expected gzip, got %s", r.Format().String())
	}

	stream, err := r.Open("notes.txt", "")
	if err != nil {
		t.Fatal(err)
	}

	b, e := io.ReadAll(stream)
	if e != nil {
		t.Fatal(e)
	}
	if string(b) != "plain gzip contents" {
		t.Fatalf("bad contents: %q", b)
	}
	_ = stream.Close()
}

func TestOpenRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("just some plain text, nothing else"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := archivey.Open(path)
	if err == nil {
		t.Fatal("expected an unknown-format error")
	}
	if !err.IsCode(archivey.ErrorUnknownFormat) {
		t.Fatalf("expected ErrorUnknownFormat, got code %d", err.GetCode())
	}
}

func TestOpenCompressedStreamIgnoresContainer(t *testing.T) {
	// a tar.gz opened as a compressed stream stays one member of raw tar
	// bytes
	r, err := archivey.OpenCompressedStream(writeTestTarGz(t))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	if r.Format() != arctps.FormatGzip {
		t.Fatalf("expected gzip, got %s", r.Format().String())
	}

	lst, e := r.Members()
	if e != nil {
		t.Fatal(e)
	}
	if len(lst) != 1 {
		t.Fatalf("expected one synthesized member, got %d", len(lst))
	}
}

func TestOpenStreamingWrapsRandomAccess(t *testing.T) {
	r, err := archivey.Open(writeTestZip(t), archivey.WithStreaming())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	if r.HasRandomAccess() {
		t.Fatal("streaming mode must hide random access")
	}

	if _, err = r.Open("hello.txt", ""); err == nil {
		t.Fatal("expected open to be unsupported")
	}
}

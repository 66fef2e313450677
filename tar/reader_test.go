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

package tar_test

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arcrdr "github.com/davitf/archivey/reader"
	arctar "github.com/davitf/archivey/tar"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
)

var _ = Describe("TC-TAR-001: Tar Random Access", func() {
	It("TC-TAR-002: should list members with type mapping", func() {
		path := tempTar([]tarEntry{
			{name: "f", contents: "X"},
			{name: "d", typeflag: tar.TypeDir, mode: 0755},
			{name: "s", typeflag: tar.TypeSymlink, linkname: "f", mode: 0777},
		})

		r, err := arctar.NewReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		lst, err := r.Members()
		Expect(err).ToNot(HaveOccurred())
		Expect(lst).To(HaveLen(3))

		Expect(lst[0].Type).To(Equal(arctps.TypeFile))
		Expect(lst[1].Type).To(Equal(arctps.TypeDir))
		Expect(lst[1].Filename).To(Equal("d/"))
		Expect(lst[2].Type).To(Equal(arctps.TypeSymlink))
		Expect(lst[2].LinkTarget).To(Equal("f"))
		Expect(lst[2].Resolved()).To(BeTrue())
	})

	It("TC-TAR-003: should resolve a hardlink chain onto the terminal file", func() {
		path := tempTar([]tarEntry{
			{name: "f", contents: "X"},
			{name: "g", typeflag: tar.TypeLink, linkname: "f"},
			{name: "h", typeflag: tar.TypeLink, linkname: "g"},
		})

		r, err := arctar.NewReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		f, err := r.Member("f")
		Expect(err).ToNot(HaveOccurred())

		h, err := r.Member("h")
		Expect(err).ToNot(HaveOccurred())
		Expect(h.Type).To(Equal(arctps.TypeHardlink))
		Expect(h.LinkTargetID).To(Equal(f.ID))
		Expect(h.LinkTargetType).To(Equal(arctps.TypeFile))

		stream, err := r.Open("h", "")
		Expect(err).ToNot(HaveOccurred())

		b, e := io.ReadAll(stream)
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(Equal("X"))
		Expect(stream.Close()).To(Succeed())
	})

	It("TC-TAR-004: should materialize a hardlink chain on extraction", func() {
		path := tempTar([]tarEntry{
			{name: "f", contents: "X"},
			{name: "g", typeflag: tar.TypeLink, linkname: "f"},
			{name: "h", typeflag: tar.TypeLink, linkname: "g"},
		})

		r, err := arctar.NewReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		dst := GinkgoT().TempDir()
		written, err := r.ExtractAll(nil, dst)
		Expect(err).ToNot(HaveOccurred())
		Expect(written).To(HaveLen(3))

		for _, name := range []string{"f", "g", "h"} {
			b, e := os.ReadFile(filepath.Join(dst, name))
			Expect(e).ToNot(HaveOccurred())
			Expect(string(b)).To(Equal("X"))
		}
	})

	It("TC-TAR-005: should reject passwords", func() {
		path := tempTar([]tarEntry{
			{name: "f", contents: "X"},
		})

		r, err := arctar.NewReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		_, err = r.Open("f", "secret")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arctar.ErrorPassword)).To(BeTrue())
	})

	It("TC-TAR-006: should read a tar behind a gzip transport", func() {
		path := tempTarGz([]tarEntry{
			{name: "inner.txt", contents: "compressed tar"},
		})

		r, err := arctar.NewReader(path, arctps.FormatTarGzip, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		stream, err := r.Open("inner.txt", "")
		Expect(err).ToNot(HaveOccurred())

		b, e := io.ReadAll(stream)
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(Equal("compressed tar"))
		Expect(stream.Close()).To(Succeed())
	})

	It("TC-TAR-007: should refuse a file that is not a tar archive", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bad.tar")
		Expect(os.WriteFile(path, bytesOf('x', 2048), 0644)).To(Succeed())

		_, err := arctar.NewReader(path, arctps.FormatTar, nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("TC-TTR-001: Tar Trailer Verification", func() {
	buildCorrupted := func() string {
		raw := tarBytes([]tarEntry{
			{name: "f", contents: "X"},
		})

		// dirty the two all-zero trailer blocks
		for i := len(raw) - 1024; i < len(raw); i++ {
			raw[i] = 0xAA
		}

		path := filepath.Join(GinkgoT().TempDir(), "dirty.tar")
		Expect(os.WriteFile(path, raw, 0644)).To(Succeed())

		return path
	}

	It("TC-TTR-002: should surface trailer garbage when verification is on", func() {
		cfg := libcfg.Default()
		cfg.TarCheckIntegrity = true

		r, err := arctar.NewReader(buildCorrupted(), arctps.FormatTar, cfg)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		_, err = r.Members()
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arctar.ErrorTrailer)).To(BeTrue())
	})

	It("TC-TTR-003: should complete cleanly when verification is off", func() {
		r, err := arctar.NewReader(buildCorrupted(), arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		lst, err := r.Members()
		Expect(err).ToNot(HaveOccurred())
		Expect(lst).To(HaveLen(1))
	})
})

var _ = Describe("TC-TXT-001: Tar Streaming Extraction", func() {
	It("TC-TXT-002: should extract files and links during one pass", func() {
		path := tempTar([]tarEntry{
			{name: "f", contents: "X"},
			{name: "g", typeflag: tar.TypeLink, linkname: "f"},
		})

		r, err := arctar.NewStreamReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		dst := GinkgoT().TempDir()
		written, err := r.ExtractAll(nil, dst)
		Expect(err).ToNot(HaveOccurred())
		Expect(written).To(HaveLen(2))

		b, e := os.ReadFile(filepath.Join(dst, "g"))
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(Equal("X"))
	})
})

var _ = Describe("TC-TST-001: Tar Streaming Iteration", func() {
	It("TC-TST-002: should refuse random-access operations", func() {
		path := tempTar([]tarEntry{
			{name: "f", contents: "X"},
		})

		r, err := arctar.NewStreamReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		Expect(r.HasRandomAccess()).To(BeFalse())

		_, err = r.Members()
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorMembersNotAvailable)).To(BeTrue())

		_, _, err = r.MembersIfAvailable()
		Expect(err).ToNot(HaveOccurred())

		_, ok, _ := r.MembersIfAvailable()
		Expect(ok).To(BeFalse())
	})
})

func bytesOf(b byte, n int) []byte {
	res := make([]byte, n)
	for i := range res {
		res[i] = b
	}
	return res
}

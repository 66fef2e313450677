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

package zip_test

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	arczip "github.com/davitf/archivey/zip"
	libcfg "github.com/davitf/archivey/config"
)

var _ = Describe("TC-ZIP-001: Zip Reader", func() {
	It("TC-ZIP-002: should list members with metadata", func() {
		path := tempZip([]zipEntry{
			{name: "hello.txt", contents: "hello world", mode: 0644, mtime: time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)},
			{name: "dir/", mode: fs.ModeDir | 0755},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		lst, err := r.Members()
		Expect(err).ToNot(HaveOccurred())
		Expect(lst).To(HaveLen(2))

		Expect(lst[0].Filename).To(Equal("hello.txt"))
		Expect(lst[0].Type).To(Equal(arctps.TypeFile))
		Expect(lst[0].FileSize).To(Equal(int64(len("hello world"))))
		Expect(lst[0].CRCKnown).To(BeTrue())
		Expect(lst[0].CompressionMethod).To(Equal("deflate"))
		Expect(lst[0].ID).To(Equal(uint64(1)))

		Expect(lst[1].Type).To(Equal(arctps.TypeDir))
	})

	It("TC-ZIP-003: should keep both duplicate members and open the latest", func() {
		t1 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		t2 := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "1", mtime: t1},
			{name: "a.txt", contents: "2", mtime: t2},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		lst, err := r.Members()
		Expect(err).ToNot(HaveOccurred())
		Expect(lst).To(HaveLen(2))
		Expect(lst[0].ID).To(BeNumerically("<", lst[1].ID))

		m, err := r.Member("a.txt")
		Expect(err).ToNot(HaveOccurred())
		Expect(m.ID).To(Equal(lst[1].ID))

		stream, err := r.Open("a.txt", "")
		Expect(err).ToNot(HaveOccurred())

		b, e := io.ReadAll(stream)
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(Equal("2"))
		Expect(stream.Close()).To(Succeed())
	})

	It("TC-ZIP-004: should iterate members in registration order with streams", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
			{name: "b.txt", contents: "bbb"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		var (
			names    []string
			contents []string
		)

		err = r.Iterate(nil, func(m *arcmbr.Member, stream io.ReadCloser) bool {
			names = append(names, m.Filename)

			if stream != nil {
				b, e := io.ReadAll(stream)
				Expect(e).ToNot(HaveOccurred())
				contents = append(contents, string(b))
			}

			return true
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(names).To(Equal([]string{"a.txt", "b.txt"}))
		Expect(contents).To(Equal([]string{"aaa", "bbb"}))
	})

	It("TC-ZIP-005: should observe identical sequences on repeated iteration", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
			{name: "b.txt", contents: "bbb"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		walk := func() []uint64 {
			var ids []uint64
			Expect(r.Iterate(nil, func(m *arcmbr.Member, _ io.ReadCloser) bool {
				ids = append(ids, m.ID)
				return true
			})).To(Succeed())
			return ids
		}

		Expect(walk()).To(Equal(walk()))
	})

	It("TC-ZIP-006: should apply selector and filter", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
			{name: "b.txt", contents: "bbb"},
			{name: "c.txt", contents: "ccc"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		var names []string

		err = r.Iterate(&arcrdr.Options{
			Names: []string{"a.txt", "c.txt"},
			Filter: func(m *arcmbr.Member) *arcmbr.Member {
				if m.Filename == "c.txt" {
					return nil
				}
				return m
			},
		}, func(m *arcmbr.Member, _ io.ReadCloser) bool {
			names = append(names, m.Filename)
			return true
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(names).To(Equal([]string{"a.txt"}))
	})

	It("TC-ZIP-007: should fail a filter that forges identities", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		err = r.Iterate(&arcrdr.Options{
			Filter: func(m *arcmbr.Member) *arcmbr.Member {
				forged := *m
				forged.ID = m.ID + 100
				return &forged
			},
		}, func(_ *arcmbr.Member, _ io.ReadCloser) bool {
			return true
		})

		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorFilterIdentity)).To(BeTrue())
	})

	It("TC-ZIP-008: should fail fast after close", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())

		Expect(r.Close()).To(Succeed())
		Expect(r.Close()).To(Succeed())

		_, err = r.Members()
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorClosed)).To(BeTrue())

		_, err = r.Open("a.txt", "")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorClosed)).To(BeTrue())
	})

	It("TC-ZIP-009: should report member-not-found for unknown names", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		_, err = r.Member("missing.txt")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorMemberNotFound)).To(BeTrue())
	})

	It("TC-ZIP-010: should reject members from another reader", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
		})

		r1, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r1.Close() }()

		r2, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r2.Close() }()

		m, err := r1.Member("a.txt")
		Expect(err).ToNot(HaveOccurred())

		_, err = r2.OpenMember(m, "")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorMemberForeign)).To(BeTrue())
	})

	It("TC-ZIP-011: should refuse to open a corrupted file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "bad.zip")
		Expect(os.WriteFile(path, []byte("this is not a zip archive"), 0644)).To(Succeed())

		_, err := arczip.NewReader(path, "", nil)
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arczip.ErrorCorrupted)).To(BeTrue())
	})
})

var _ = Describe("TC-ZSL-001: Zip Symlink Members", func() {
	It("TC-ZSL-002: should expose the raw link target read from the contents", func() {
		path := tempZip([]zipEntry{
			{name: "link", contents: "../outside", mode: fs.ModeSymlink | 0777},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		m, err := r.Member("link")
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Type).To(Equal(arctps.TypeSymlink))
		Expect(m.LinkTarget).To(Equal("../outside"))

		// the target normalizes outside the archive, so it stays unresolved
		Expect(m.Resolved()).To(BeFalse())
	})

	It("TC-ZSL-003: should refuse open on a dangling symlink", func() {
		path := tempZip([]zipEntry{
			{name: "link", contents: "../outside", mode: fs.ModeSymlink | 0777},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		_, err = r.Open("link", "")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorMemberCannotOpen)).To(BeTrue())
	})

	It("TC-ZSL-004: should open the terminal file through a symlink", func() {
		path := tempZip([]zipEntry{
			{name: "f.txt", contents: "target contents"},
			{name: "link", contents: "f.txt", mode: fs.ModeSymlink | 0777},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		stream, err := r.Open("link", "")
		Expect(err).ToNot(HaveOccurred())

		b, e := io.ReadAll(stream)
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(Equal("target contents"))
		Expect(stream.Close()).To(Succeed())
	})
})

var _ = Describe("TC-ZXT-001: Zip Extraction", func() {
	It("TC-ZXT-002: should extract the latest duplicate with overwrite mode", func() {
		t1 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		t2 := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "1", mtime: t1},
			{name: "a.txt", contents: "2", mtime: t2},
		})

		cfg := libcfg.Default()
		cfg.OverwriteMode = libcfg.OverwriteAlways

		r, err := arczip.NewReader(path, "", cfg)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		dst := GinkgoT().TempDir()
		written, err := r.ExtractAll(nil, dst)
		Expect(err).ToNot(HaveOccurred())
		Expect(written).To(HaveKey("a.txt"))

		b, e := os.ReadFile(filepath.Join(dst, "a.txt"))
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(Equal("2"))
	})

	It("TC-ZXT-003: should write the raw symlink target on extraction", func() {
		path := tempZip([]zipEntry{
			{name: "link", contents: "../outside", mode: fs.ModeSymlink | 0777},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		dst := GinkgoT().TempDir()
		_, err = r.ExtractAll(nil, dst)
		Expect(err).ToNot(HaveOccurred())

		target, e := os.Readlink(filepath.Join(dst, "link"))
		Expect(e).ToNot(HaveOccurred())
		Expect(target).To(Equal("../outside"))
	})

	It("TC-ZXT-004: should refuse traversal outside the destination", func() {
		path := tempZip([]zipEntry{
			{name: "../escape.txt", contents: "nope"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		dst := GinkgoT().TempDir()
		_, err = r.ExtractAll(nil, dst)
		Expect(err).To(HaveOccurred())

		_, e := os.Stat(filepath.Join(filepath.Dir(dst), "escape.txt"))
		Expect(os.IsNotExist(e)).To(BeTrue())
	})

	It("TC-ZXT-005: should extract a single member and apply its mtime", func() {
		mt := time.Date(2022, 5, 4, 3, 2, 1, 0, time.UTC)

		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "abc", mtime: mt},
			{name: "b.txt", contents: "def"},
		})

		r, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		dst := GinkgoT().TempDir()
		written, err := r.Extract("a.txt", dst, "")
		Expect(err).ToNot(HaveOccurred())
		Expect(written).To(Equal(filepath.Join(dst, "a.txt")))

		fi, e := os.Stat(written)
		Expect(e).ToNot(HaveOccurred())
		Expect(fi.ModTime().Unix()).To(Equal(mt.Unix()))

		_, e = os.Stat(filepath.Join(dst, "b.txt"))
		Expect(os.IsNotExist(e)).To(BeTrue())
	})
})

var _ = Describe("TC-ZSW-001: Streaming-Only Wrapper", func() {
	It("TC-ZSW-002: should pass iteration through and refuse random access", func() {
		path := tempZip([]zipEntry{
			{name: "a.txt", contents: "aaa"},
		})

		inner, err := arczip.NewReader(path, "", nil)
		Expect(err).ToNot(HaveOccurred())

		r := arcrdr.NewStreamingOnly(inner)
		defer func() { _ = r.Close() }()

		Expect(r.HasRandomAccess()).To(BeFalse())

		var count int
		Expect(r.Iterate(nil, func(_ *arcmbr.Member, _ io.ReadCloser) bool {
			count++
			return true
		})).To(Succeed())
		Expect(count).To(Equal(1))

		_, err = r.Open("a.txt", "")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorUnsupported)).To(BeTrue())

		_, err = r.Members()
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcrdr.ErrorUnsupported)).To(BeTrue())
	})
})

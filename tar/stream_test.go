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
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arcmbr "github.com/davitf/archivey/member"
	arctar "github.com/davitf/archivey/tar"
	arctps "github.com/davitf/archivey/types"
)

var _ = Describe("TC-TSI-001: Streaming Iteration Contract", func() {
	It("TC-TSI-002: should drain an unread member before yielding the next", func() {
		path := tempTar([]tarEntry{
			{name: "a", contents: "aaaaaaaa"},
			{name: "b", contents: "bbbb"},
		})

		r, err := arctar.NewStreamReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		var contents []string

		err = r.Iterate(nil, func(m *arcmbr.Member, stream io.ReadCloser) bool {
			// leave the first member's stream untouched; the framework must
			// drain it so no data leaks into the next member
			if m.Filename == "b" {
				b, e := io.ReadAll(stream)
				Expect(e).ToNot(HaveOccurred())
				contents = append(contents, string(b))
			}
			return true
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(contents).To(Equal([]string{"bbbb"}))
	})

	It("TC-TSI-003: should expire a member stream once the iteration advanced", func() {
		path := tempTar([]tarEntry{
			{name: "a", contents: "aaaa"},
			{name: "b", contents: "bbbb"},
		})

		r, err := arctar.NewStreamReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		var retained io.ReadCloser

		err = r.Iterate(nil, func(m *arcmbr.Member, stream io.ReadCloser) bool {
			if m.Filename == "a" {
				retained = stream
			}
			return true
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(retained).ToNot(BeNil())

		_, e := retained.Read(make([]byte, 1))
		Expect(e).To(HaveOccurred())
	})

	It("TC-TSI-004: should register members as the single pass advances", func() {
		path := tempTar([]tarEntry{
			{name: "a", contents: "1"},
			{name: "b", contents: "2"},
		})

		r, err := arctar.NewStreamReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		var ids []uint64
		Expect(r.Iterate(nil, func(m *arcmbr.Member, stream io.ReadCloser) bool {
			ids = append(ids, m.ID)
			return true
		})).To(Succeed())

		Expect(ids).To(Equal([]uint64{1, 2}))

		lst, ok, err := r.MembersIfAvailable()
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(lst).To(HaveLen(2))
	})

	It("TC-TSI-005: should refuse a second pass", func() {
		path := tempTar([]tarEntry{
			{name: "a", contents: "1"},
		})

		r, err := arctar.NewStreamReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		Expect(r.Iterate(nil, func(_ *arcmbr.Member, _ io.ReadCloser) bool {
			return true
		})).To(Succeed())

		err = r.Iterate(nil, func(_ *arcmbr.Member, _ io.ReadCloser) bool {
			return true
		})
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arctar.ErrorIterateTwice)).To(BeTrue())
	})

	It("TC-TSI-006: should stop the walk when the callback returns false", func() {
		path := tempTar([]tarEntry{
			{name: "a", contents: "1"},
			{name: "b", contents: "2"},
			{name: "c", contents: "3"},
		})

		r, err := arctar.NewStreamReader(path, arctps.FormatTar, nil)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = r.Close() }()

		var count int
		Expect(r.Iterate(nil, func(_ *arcmbr.Member, _ io.ReadCloser) bool {
			count++
			return count < 2
		})).To(Succeed())

		Expect(count).To(Equal(2))
	})
})

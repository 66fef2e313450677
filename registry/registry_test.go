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

package registry_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arcmbr "github.com/davitf/archivey/member"
	arcreg "github.com/davitf/archivey/registry"
	arctps "github.com/davitf/archivey/types"
)

func newMember(name string, typ arctps.MemberType, target string) *arcmbr.Member {
	return &arcmbr.Member{
		Filename:   name,
		Type:       typ,
		LinkTarget: target,
	}
}

var _ = Describe("TC-REG-001: Member Registration", func() {
	It("TC-REG-002: should assign monotonic member IDs in registration order", func() {
		reg := arcreg.New(42)

		a := newMember("a.txt", arctps.TypeFile, "")
		b := newMember("b.txt", arctps.TypeFile, "")

		Expect(reg.Register(a)).To(Succeed())
		Expect(reg.Register(b)).To(Succeed())

		Expect(a.ID).To(Equal(uint64(1)))
		Expect(b.ID).To(Equal(uint64(2)))
		Expect(a.ArchiveID).To(Equal(uint64(42)))

		lst := reg.Members()
		Expect(lst).To(HaveLen(2))
		Expect(lst[0].Filename).To(Equal("a.txt"))
		Expect(lst[1].Filename).To(Equal("b.txt"))
	})

	It("TC-REG-003: should reject re-registration of an assigned member", func() {
		reg := arcreg.New(1)

		m := newMember("a.txt", arctps.TypeFile, "")
		Expect(reg.Register(m)).To(Succeed())

		err := reg.Register(m)
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcreg.ErrorMemberDuplicate)).To(BeTrue())
	})

	It("TC-REG-004: should reject registration after freeze", func() {
		reg := arcreg.New(1)
		reg.MarkAllRegistered()

		err := reg.Register(newMember("a.txt", arctps.TypeFile, ""))
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(arcreg.ErrorRegistryFrozen)).To(BeTrue())
		Expect(reg.AllRegistered()).To(BeTrue())
	})

	It("TC-REG-005: should keep duplicates and shadow lookups with the latest", func() {
		reg := arcreg.New(1)

		first := newMember("a.txt", arctps.TypeFile, "")
		second := newMember("a.txt", arctps.TypeFile, "")

		Expect(reg.Register(first)).To(Succeed())
		Expect(reg.Register(second)).To(Succeed())

		Expect(reg.Len()).To(Equal(2))
		Expect(reg.AllByFilename("a.txt")).To(HaveLen(2))

		m, k := reg.ByFilename("a.txt")
		Expect(k).To(BeTrue())
		Expect(m.ID).To(Equal(second.ID))

		n, k := reg.ByNormalizedPath("a.txt")
		Expect(k).To(BeTrue())
		Expect(n.ID).To(Equal(second.ID))
	})

	It("TC-REG-006: should normalize directory filenames for path lookup", func() {
		reg := arcreg.New(1)

		d := newMember("dir/", arctps.TypeDir, "")
		Expect(reg.Register(d)).To(Succeed())

		m, k := reg.ByNormalizedPath("dir")
		Expect(k).To(BeTrue())
		Expect(m.ID).To(Equal(d.ID))
	})
})

var _ = Describe("TC-RSV-001: Link Resolution", func() {
	It("TC-RSV-002: should resolve a hardlink to the nearest earlier member", func() {
		reg := arcreg.New(1)

		f := newMember("f", arctps.TypeFile, "")
		g := newMember("g", arctps.TypeHardlink, "f")

		Expect(reg.Register(f)).To(Succeed())
		Expect(reg.Register(g)).To(Succeed())

		Expect(g.Resolved()).To(BeTrue())
		Expect(g.LinkTargetID).To(Equal(f.ID))
		Expect(g.LinkTargetType).To(Equal(arctps.TypeFile))
	})

	It("TC-RSV-003: should collapse hardlink chains onto the terminal file", func() {
		reg := arcreg.New(1)

		f := newMember("f", arctps.TypeFile, "")
		g := newMember("g", arctps.TypeHardlink, "f")
		h := newMember("h", arctps.TypeHardlink, "g")

		Expect(reg.Register(f)).To(Succeed())
		Expect(reg.Register(g)).To(Succeed())
		Expect(reg.Register(h)).To(Succeed())

		Expect(h.LinkTargetID).To(Equal(f.ID))
		Expect(h.LinkTargetType).To(Equal(arctps.TypeFile))
		Expect(h.LinkTargetID).To(BeNumerically("<", h.ID))
	})

	It("TC-RSV-004: should leave a dangling hardlink unresolved", func() {
		reg := arcreg.New(1)

		g := newMember("g", arctps.TypeHardlink, "missing")
		Expect(reg.Register(g)).To(Succeed())

		Expect(g.Resolved()).To(BeFalse())
	})

	It("TC-RSV-005: should only look backward for hardlink targets", func() {
		reg := arcreg.New(1)

		g := newMember("g", arctps.TypeHardlink, "f")
		f := newMember("f", arctps.TypeFile, "")

		Expect(reg.Register(g)).To(Succeed())
		Expect(reg.Register(f)).To(Succeed())

		// f was registered after g, so g must stay unresolved
		Expect(g.Resolved()).To(BeFalse())
	})

	It("TC-RSV-006: should resolve a symlink against its directory", func() {
		reg := arcreg.New(1)

		f := newMember("dir/f", arctps.TypeFile, "")
		s := newMember("dir/s", arctps.TypeSymlink, "f")

		Expect(reg.Register(f)).To(Succeed())
		Expect(reg.Register(s)).To(Succeed())

		Expect(s.Resolved()).To(BeTrue())
		Expect(s.LinkTargetID).To(Equal(f.ID))
	})

	It("TC-RSV-007: should resolve a symlink through parent traversal", func() {
		reg := arcreg.New(1)

		f := newMember("f", arctps.TypeFile, "")
		s := newMember("dir/s", arctps.TypeSymlink, "../f")

		Expect(reg.Register(f)).To(Succeed())
		Expect(reg.Register(s)).To(Succeed())

		Expect(s.Resolved()).To(BeTrue())
		Expect(s.LinkTargetID).To(Equal(f.ID))
	})

	It("TC-RSV-008: should leave a symlink pointing outside the archive unresolved", func() {
		reg := arcreg.New(1)

		s := newMember("s", arctps.TypeSymlink, "../outside")
		Expect(reg.Register(s)).To(Succeed())

		Expect(s.Resolved()).To(BeFalse())
	})

	It("TC-RSV-009: should detect symlink cycles without recursing forever", func() {
		reg := arcreg.New(1)

		a := newMember("a", arctps.TypeSymlink, "b")
		b := newMember("b", arctps.TypeSymlink, "a")

		Expect(reg.Register(a)).To(Succeed())
		Expect(reg.Register(b)).To(Succeed())

		// both ends of the cycle stay unresolved
		reg.ResolveLink(a)
		reg.ResolveLink(b)
		Expect(a.Resolved()).To(BeFalse())
		Expect(b.Resolved()).To(BeFalse())
	})

	It("TC-RSV-010: should follow a symlink chain onto the terminal member", func() {
		reg := arcreg.New(1)

		f := newMember("f", arctps.TypeFile, "")
		s1 := newMember("s1", arctps.TypeSymlink, "f")
		s2 := newMember("s2", arctps.TypeSymlink, "s1")

		Expect(reg.Register(f)).To(Succeed())
		Expect(reg.Register(s1)).To(Succeed())
		Expect(reg.Register(s2)).To(Succeed())

		Expect(s2.Resolved()).To(BeTrue())
		Expect(s2.LinkTargetID).To(Equal(f.ID))
		Expect(s2.LinkTargetType).To(Equal(arctps.TypeFile))
	})

	It("TC-RSV-011: should re-resolve onto a shadowing later target", func() {
		reg := arcreg.New(1)

		f1 := newMember("f", arctps.TypeFile, "")
		s := newMember("s", arctps.TypeSymlink, "f")
		f2 := newMember("f", arctps.TypeFile, "")

		Expect(reg.Register(f1)).To(Succeed())
		Expect(reg.Register(s)).To(Succeed())
		Expect(reg.Register(f2)).To(Succeed())

		// the resolver runs again on demand and picks the latest target
		reg.ResolveLink(s)
		Expect(s.LinkTargetID).To(Equal(f2.ID))
	})
})

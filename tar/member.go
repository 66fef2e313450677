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

package tar

import (
	"archive/tar"
	"io/fs"
	"strings"

	arccmp "github.com/davitf/archivey/compress"
	arcmbr "github.com/davitf/archivey/member"
	arctps "github.com/davitf/archivey/types"
)

// rawRecord locates a member inside the tar stream by its record index, so
// that random access can rescan to it from a fresh transport.
type rawRecord struct {
	index int
	hdr   *tar.Header
}

func memberType(h *tar.Header) arctps.MemberType {
	switch h.Typeflag {
	case tar.TypeReg:
		return arctps.TypeFile
	case tar.TypeDir:
		return arctps.TypeDir
	case tar.TypeSymlink:
		return arctps.TypeSymlink
	case tar.TypeLink:
		return arctps.TypeHardlink
	default:
		if h.FileInfo().Mode().IsRegular() {
			return arctps.TypeFile
		}
		return arctps.TypeOther
	}
}

func buildMember(h *tar.Header, index int, alg arccmp.Algorithm) *arcmbr.Member {
	var (
		typ  = memberType(h)
		name = h.Name
	)

	if typ == arctps.TypeDir && !strings.HasSuffix(name, "/") {
		name += "/"
	}

	method := "store"
	if !alg.IsNone() {
		method = alg.String()
	}

	m := &arcmbr.Member{
		Filename:          name,
		FileSize:          h.Size,
		CompressSize:      arcmbr.SizeUnknown,
		ModTime:           h.ModTime,
		Type:              typ,
		Mode:              fs.FileMode(h.Mode).Perm(),
		HasMode:           true,
		CompressionMethod: method,
		CreateSystem:      arctps.CreateSystemUnix,
		RawInfo: &rawRecord{
			index: index,
			hdr:   h,
		},
		Extra: map[string]interface{}{
			"typeflag": h.Typeflag,
			"uid":      h.Uid,
			"gid":      h.Gid,
			"uname":    h.Uname,
			"gname":    h.Gname,
			"devmajor": h.Devmajor,
			"devminor": h.Devminor,
		},
	}

	if typ.IsLink() {
		m.LinkTarget = h.Linkname
	}

	return m
}

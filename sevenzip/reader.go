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

// Package sevenzip adapts the bodgit 7z decoder to the archivey reader
// contract. 7z archives are random-access through the archive header, but
// members sharing a compressed stream form a solid group: opening one may
// decompress its predecessors.
package sevenzip

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	libiot "github.com/davitf/archivey/ioutils"
	sz "github.com/bodgit/sevenzip"
	liberr "github.com/nabbar/golib/errors"
)

type rdr struct {
	*arcrdr.Base
	z   *sz.ReadCloser
	pwd string
}

// NewReader opens a 7z archive for random access.
func NewReader(archivePath string, pwd string, cfg *libcfg.Config) (arcrdr.Reader, liberr.Error) {
	z, e := sz.OpenReaderWithPassword(archivePath, pwd)
	if e != nil {
		if strings.Contains(strings.ToLower(e.Error()), "password") {
			return nil, ErrorEncrypted.Error(e)
		}
		return nil, ErrorCorrupted.Error(e)
	}

	o := &rdr{
		z:   z,
		pwd: pwd,
	}

	o.Base = arcrdr.NewBase(arcrdr.BaseParams{
		Format:        arctps.FormatSevenZip,
		ArchivePath:   archivePath,
		Config:        cfg,
		RandomAccess:  true,
		ListAvailable: true,
		Open:          o.openMember,
		List:          o.list,
		Info:          o.info,
		CloseFct:      o.close,
	})

	return o, nil
}

func (o *rdr) close() error {
	if o.z == nil {
		return nil
	}

	e := o.z.Close()
	o.z = nil

	return e
}

func (o *rdr) list() liberr.Error {
	reg := o.Registry()

	if reg.AllRegistered() {
		return nil
	}

	for _, f := range o.z.File {
		m, err := o.buildMember(f)
		if err != nil {
			return err
		}

		if err := reg.Register(m); err != nil {
			return err
		}
	}

	reg.MarkAllRegistered()

	return nil
}

func (o *rdr) buildMember(f *sz.File) (*arcmbr.Member, liberr.Error) {
	var (
		mode = f.Mode()
		typ  = arctps.TypeFile
	)

	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		typ = arctps.TypeDir
	case mode&fs.ModeSymlink != 0:
		typ = arctps.TypeSymlink
	case !mode.IsRegular():
		typ = arctps.TypeOther
	}

	m := &arcmbr.Member{
		Filename:     f.Name,
		FileSize:     int64(f.UncompressedSize),
		CompressSize: arcmbr.SizeUnknown,
		ModTime:      f.Modified,
		Type:         typ,
		Mode:         mode.Perm(),
		HasMode:      true,
		CRC32:        f.CRC32,
		CRCKnown:     typ == arctps.TypeFile && f.CRC32 != 0,
		RawInfo:      f,
		Extra: map[string]interface{}{
			"attributes": f.Attributes,
			"stream":     f.Stream,
		},
	}

	// 7z stores a symlink's target as the member contents
	if typ == arctps.TypeSymlink {
		if t, err := o.readContents(f); err != nil {
			return nil, err
		} else {
			m.LinkTarget = t
		}
	}

	return m, nil
}

func (o *rdr) readContents(f *sz.File) (string, liberr.Error) {
	r, e := f.Open()
	if e != nil {
		return "", ErrorMemberRead.Error(e)
	}

	defer func() {
		_ = r.Close()
	}()

	b, e := io.ReadAll(r)
	if e != nil {
		return "", ErrorMemberRead.Error(e)
	}

	return string(b), nil
}

func (o *rdr) openMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	f, k := m.RawInfo.(*sz.File)
	if !k {
		return nil, ErrorParamEmpty.Error(nil)
	}

	r, e := f.Open()
	if e != nil {
		if strings.Contains(strings.ToLower(e.Error()), "password") {
			return nil, ErrorEncrypted.Error(e)
		}
		return nil, ErrorMemberRead.Error(e)
	}

	name := m.Filename

	return libiot.NewTranslateReader(r, func(e error) error {
		return ErrorCorrupted.Error(fmt.Errorf("error reading member %s: %v", name, e))
	}), nil
}

func (o *rdr) info() (*arcmbr.ArchiveInfo, liberr.Error) {
	// members sharing one compressed stream form a solid group
	var (
		streams = map[int]int{}
		solid   bool
	)

	for _, f := range o.z.File {
		streams[f.Stream]++
		if streams[f.Stream] > 1 {
			solid = true
			break
		}
	}

	return &arcmbr.ArchiveInfo{
		Format: arctps.FormatSevenZip,
		Solid:  solid,
		Extra: map[string]interface{}{
			"volumes": o.z.Volumes(),
		},
	}, nil
}

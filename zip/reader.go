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

// Package zip adapts the standard library zip decoder to the archivey
// reader contract. Zip archives are random-access: the central directory
// provides the full member list up front.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"strings"

	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	libiot "github.com/davitf/archivey/ioutils"
	liberr "github.com/nabbar/golib/errors"
)

var compressionMethods = map[uint16]string{
	zip.Store:   "store",
	zip.Deflate: "deflate",
	12:          "bzip2",
	14:          "lzma",
}

const flagEncrypted = 0x1

type rdr struct {
	*arcrdr.Base
	z   *zip.ReadCloser
	pwd string
}

// NewReader opens a zip archive for random access.
func NewReader(archivePath string, pwd string, cfg *libcfg.Config) (arcrdr.Reader, liberr.Error) {
	z, e := zip.OpenReader(archivePath)
	if e != nil {
		return nil, ErrorCorrupted.Error(e)
	}

	o := &rdr{
		z:   z,
		pwd: pwd,
	}

	o.Base = arcrdr.NewBase(arcrdr.BaseParams{
		Format:        arctps.FormatZip,
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

func (o *rdr) buildMember(f *zip.File) (*arcmbr.Member, liberr.Error) {
	var (
		encs = o.Config().ZipFallbackEncodings
		name = f.Name
		mode = f.Mode()
	)

	if f.NonUTF8 {
		name = decodeFallback(name, encs)
	}

	isDir := strings.HasSuffix(name, "/") || mode.IsDir()
	isLink := mode&fs.ModeSymlink != 0

	typ := arctps.TypeFile
	if isDir {
		typ = arctps.TypeDir
	} else if isLink {
		typ = arctps.TypeSymlink
	}

	m := &arcmbr.Member{
		Filename:          name,
		FileSize:          int64(f.UncompressedSize64),
		CompressSize:      int64(f.CompressedSize64),
		ModTime:           f.Modified,
		Type:              typ,
		CRC32:             f.CRC32,
		CRCKnown:          !isDir,
		CompressionMethod: methodName(f.Method),
		Comment:           decodeFallback(f.Comment, encs),
		Encrypted:         f.Flags&flagEncrypted != 0,
		CreateSystem:      createSystem(f.CreatorVersion),
		RawInfo:           f,
		Extra: map[string]interface{}{
			"flag_bits":       f.Flags,
			"creator_version": f.CreatorVersion,
			"reader_version":  f.ReaderVersion,
			"external_attrs":  f.ExternalAttrs,
		},
	}

	if attr := f.ExternalAttrs >> 16; attr != 0 {
		m.Mode = fs.FileMode(attr).Perm()
		m.HasMode = true
	}

	// Zip archives store a symlink's target as the member contents. An
	// encrypted target cannot be read here, so it stays empty.
	if isLink && !m.Encrypted {
		if t, err := o.readContents(f); err != nil {
			return nil, err
		} else {
			m.LinkTarget = t
		}
	}

	return m, nil
}

func (o *rdr) readContents(f *zip.File) (string, liberr.Error) {
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
	f, k := m.RawInfo.(*zip.File)
	if !k {
		return nil, ErrorParamEmpty.Error(nil)
	}

	if m.Encrypted {
		return nil, ErrorEncrypted.Error(fmt.Errorf("member %s is encrypted", m.Filename))
	}

	r, e := f.Open()
	if e != nil {
		if e == zip.ErrFormat || e == zip.ErrChecksum {
			return nil, ErrorCorrupted.Error(e)
		}
		return nil, ErrorMemberRead.Error(e)
	}

	name := m.Filename

	return libiot.NewTranslateReader(r, func(e error) error {
		if e == zip.ErrFormat || e == zip.ErrChecksum {
			return ErrorCorrupted.Error(fmt.Errorf("error reading member %s: %v", name, e))
		}
		return nil
	}), nil
}

func (o *rdr) info() (*arcmbr.ArchiveInfo, liberr.Error) {
	var encrypted bool

	for _, f := range o.z.File {
		if f.Flags&flagEncrypted != 0 {
			encrypted = true
			break
		}
	}

	return &arcmbr.ArchiveInfo{
		Format:  arctps.FormatZip,
		Comment: decodeFallback(o.z.Comment, o.Config().ZipFallbackEncodings),
		Solid:   false,
		Extra: map[string]interface{}{
			"is_encrypted": encrypted,
		},
	}, nil
}

func methodName(m uint16) string {
	if s, k := compressionMethods[m]; k {
		return s
	}
	return "unknown"
}

func createSystem(creatorVersion uint16) arctps.CreateSystem {
	sys := uint8(creatorVersion >> 8)
	if sys <= uint8(arctps.CreateSystemVSE) {
		return arctps.CreateSystem(sys)
	}
	return arctps.CreateSystemUnknown
}

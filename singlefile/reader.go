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

// Package singlefile serves a bare compressed stream (gzip, bzip2, xz,
// zstd, lz4 with no container) through the archivey reader contract: one
// synthesized file member whose name derives from the archive path, or from
// the gzip header when the stream records an original name.
package singlefile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	arccmp "github.com/davitf/archivey/compress"
	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	liberr "github.com/nabbar/golib/errors"
)

func streamAlg(f arctps.Format) (arccmp.Algorithm, liberr.Error) {
	switch f {
	case arctps.FormatGzip:
		return arccmp.Gzip, nil
	case arctps.FormatBzip2:
		return arccmp.Bzip2, nil
	case arctps.FormatXZ:
		return arccmp.XZ, nil
	case arctps.FormatZstd:
		return arccmp.Zstd, nil
	case arctps.FormatLZ4:
		return arccmp.LZ4, nil
	default:
		return arccmp.None, ErrorParamEmpty.Error(fmt.Errorf("unsupported compressed stream format: %s", f.String()))
	}
}

type rdr struct {
	*arcrdr.Base
	alg arccmp.Algorithm
}

// NewReader opens a single-file compressed stream. Compressed streams carry
// no members of their own; the reader synthesizes one file member and
// decompresses from the path on every open.
func NewReader(archivePath string, format arctps.Format, cfg *libcfg.Config) (arcrdr.Reader, liberr.Error) {
	alg, err := streamAlg(format)
	if err != nil {
		return nil, err
	}

	o := &rdr{
		alg: alg,
	}

	o.Base = arcrdr.NewBase(arcrdr.BaseParams{
		Format:        format,
		ArchivePath:   archivePath,
		Config:        cfg,
		RandomAccess:  true,
		ListAvailable: true,
		Open:          o.openMember,
		List:          o.list,
		Info:          o.info,
	})

	return o, nil
}

// memberName strips the compression extension from the archive basename, or
// adopts the original name from the gzip header when present.
func (o *rdr) memberName() (string, time.Time) {
	var mtime time.Time

	if o.alg == arccmp.Gzip {
		if hdf, e := os.Open(o.ArchivePath()); e == nil {
			name, sec, e := arccmp.GzipMetadata(hdf)
			_ = hdf.Close()

			if e == nil {
				if sec != 0 {
					mtime = time.Unix(sec, 0)
				}
				if name != "" {
					return name, mtime
				}
			}
		}
	}

	name := filepath.Base(o.ArchivePath())
	if ext := o.alg.Extension(); ext != "" && strings.HasSuffix(name, ext) {
		name = strings.TrimSuffix(name, ext)
	}

	return name, mtime
}

func (o *rdr) list() liberr.Error {
	reg := o.Registry()

	if reg.AllRegistered() {
		return nil
	}

	name, mtime := o.memberName()

	m := &arcmbr.Member{
		Filename:          name,
		FileSize:          arcmbr.SizeUnknown,
		CompressSize:      arcmbr.SizeUnknown,
		ModTime:           mtime,
		Type:              arctps.TypeFile,
		CompressionMethod: o.alg.String(),
	}

	if fi, e := os.Stat(o.ArchivePath()); e == nil {
		m.CompressSize = fi.Size()
	}

	if err := reg.Register(m); err != nil {
		return err
	}

	reg.MarkAllRegistered()

	return nil
}

func (o *rdr) openMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	if pwd != "" {
		return nil, ErrorPassword.Error(nil)
	}

	r, e := arccmp.OpenFile(o.alg, o.ArchivePath(), o.Config())
	if e != nil {
		if err, k := e.(liberr.Error); k {
			return nil, err
		}
		return nil, ErrorCorrupted.Error(e)
	}

	return r, nil
}

func (o *rdr) info() (*arcmbr.ArchiveInfo, liberr.Error) {
	return &arcmbr.ArchiveInfo{
		Format: o.Format(),
		Solid:  false,
		Extra: map[string]interface{}{
			"algorithm": o.alg.String(),
		},
	}, nil
}

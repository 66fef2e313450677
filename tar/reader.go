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

// Package tar adapts the standard library tar decoder to the archivey
// reader contract, with gzip/bzip2/xz/zstd/lz4 transports from the compress
// package.
//
// The random-access shape reopens the transport from the archive path for
// every member open, which keeps solid compressed transports usable without
// a seekable decompressed stream. The streaming shape performs one linear
// pass; each member stream is valid only until the iteration advances.
package tar

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	arccmp "github.com/davitf/archivey/compress"
	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	liberr "github.com/nabbar/golib/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "archivey/tar")

const blockSize = 512

// transportAlg maps a tar-family format onto its compression transport.
func transportAlg(f arctps.Format) (arccmp.Algorithm, liberr.Error) {
	switch f {
	case arctps.FormatTar:
		return arccmp.None, nil
	case arctps.FormatTarGzip:
		return arccmp.Gzip, nil
	case arctps.FormatTarBzip2:
		return arccmp.Bzip2, nil
	case arctps.FormatTarXZ:
		return arccmp.XZ, nil
	case arctps.FormatTarZstd:
		return arccmp.Zstd, nil
	case arctps.FormatTarLZ4:
		return arccmp.LZ4, nil
	default:
		return arccmp.None, ErrorParamEmpty.Error(fmt.Errorf("unsupported tar format: %s", f.String()))
	}
}

func translateTarError(e error) error {
	if e == nil || e == io.EOF {
		return nil
	}

	if errors.Is(e, io.ErrUnexpectedEOF) {
		return ErrorTruncated.Error(e)
	}

	if errors.Is(e, tar.ErrHeader) || errors.Is(e, tar.ErrInsecurePath) {
		return ErrorCorrupted.Error(e)
	}

	if strings.Contains(strings.ToLower(e.Error()), "unexpected end") {
		return ErrorTruncated.Error(e)
	}

	return nil
}

// countingReader tracks the transport offset so the trailer check can locate
// the block boundary after the last record.
type countingReader struct {
	r io.Reader
	n int64
}

func (o *countingReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	o.n += int64(n)
	return n, err
}

type rdr struct {
	*arcrdr.Base
	alg arccmp.Algorithm
}

// NewReader opens a tar archive (optionally behind a compression transport)
// for random access. Tar does not support passwords.
func NewReader(archivePath string, format arctps.Format, cfg *libcfg.Config) (arcrdr.Reader, liberr.Error) {
	alg, err := transportAlg(format)
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

	// fail on an unreadable or non-tar file at construction time; the full
	// walk (and the trailer check) runs on the first listing
	if err = o.probe(); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *rdr) probe() liberr.Error {
	transport, err := o.openTransport()
	if err != nil {
		return err
	}

	defer func() {
		_ = transport.Close()
	}()

	if _, e := tar.NewReader(transport).Next(); e != nil && e != io.EOF {
		if t := translateTarError(e); t != nil {
			if te, k := t.(liberr.Error); k {
				return te
			}
		}
		return ErrorCorrupted.Error(e)
	}

	return nil
}

func (o *rdr) openTransport() (io.ReadCloser, liberr.Error) {
	r, e := arccmp.OpenFile(o.alg, o.ArchivePath(), o.Config())
	if e != nil {
		if err, k := e.(liberr.Error); k {
			return nil, err
		}
		return nil, ErrorParamEmpty.Error(e)
	}

	return r, nil
}

func (o *rdr) list() liberr.Error {
	reg := o.Registry()

	if reg.AllRegistered() {
		return nil
	}

	transport, err := o.openTransport()
	if err != nil {
		return err
	}

	defer func() {
		_ = transport.Close()
	}()

	var (
		cnt = &countingReader{r: transport}
		trd = tar.NewReader(cnt)
		idx = 0

		lastEnd int64
	)

	for {
		hdr, e := trd.Next()
		if e == io.EOF {
			break
		} else if e != nil {
			// A header error after valid records is how a garbage trailer
			// surfaces: the decoder read the post-data block and failed the
			// checksum. Stop the walk; the explicit trailer check decides
			// whether that is corruption.
			if idx > 0 && errors.Is(e, tar.ErrHeader) {
				break
			}
			if t := translateTarError(e); t != nil {
				if te, k := t.(liberr.Error); k {
					return te
				}
			}
			return ErrorCorrupted.Error(e)
		}

		// the transport offset now sits at the start of the record data
		lastEnd = cnt.n + (hdr.Size+blockSize-1)/blockSize*blockSize

		if err := reg.Register(buildMember(hdr, idx, o.alg)); err != nil {
			return err
		}

		idx++

		if e := drainRecord(trd); e != nil {
			return e
		}
	}

	reg.MarkAllRegistered()

	if o.Config().TarCheckIntegrity {
		if err := o.checkTrailer(lastEnd); err != nil {
			return err
		}
	}

	// Read a bit further so a checksum at the end of the compressed
	// transport is verified and corruption surfaces here.
	if !o.alg.IsNone() {
		if _, e := io.CopyN(io.Discard, transport, 65536); e != nil && e != io.EOF {
			return ErrorCorrupted.Error(e)
		}
	}

	return nil
}

func drainRecord(trd *tar.Reader) liberr.Error {
	if _, e := io.Copy(io.Discard, trd); e != nil {
		if t := translateTarError(e); t != nil {
			if te, k := t.(liberr.Error); k {
				return te
			}
		}
		return ErrorCorrupted.Error(e)
	}
	return nil
}

// checkTrailer verifies the two all-zero 512-byte blocks after the last
// record. Only a raw (uncompressed) transport is seekable; otherwise the
// check is skipped with a warning.
func (o *rdr) checkTrailer(offset int64) liberr.Error {
	if !o.alg.IsNone() {
		log.WithField("archive", o.ArchivePath()).Warn("cannot check tar integrity: transport is not seekable")
		return nil
	}

	transport, err := o.openTransport()
	if err != nil {
		return err
	}

	defer func() {
		_ = transport.Close()
	}()

	seeker, k := transport.(io.Seeker)
	if !k {
		log.WithField("archive", o.ArchivePath()).Warn("cannot check tar integrity: transport is not seekable")
		return nil
	}

	if _, e := seeker.Seek(offset, io.SeekStart); e != nil {
		return ErrorTrailer.Error(e)
	}

	buf := make([]byte, blockSize*2)
	if _, e := io.ReadFull(transport, buf); e != nil {
		return ErrorTrailer.Error(e)
	}

	if !bytes.Equal(buf, make([]byte, blockSize*2)) {
		return ErrorTrailer.Error(nil)
	}

	return nil
}

// openMember rescans a fresh transport up to the member's record index.
func (o *rdr) openMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	if pwd != "" {
		return nil, ErrorPassword.Error(nil)
	}

	raw, k := m.RawInfo.(*rawRecord)
	if !k {
		return nil, ErrorParamEmpty.Error(nil)
	}

	transport, err := o.openTransport()
	if err != nil {
		return nil, err
	}

	trd := tar.NewReader(transport)

	for i := 0; ; i++ {
		if _, e := trd.Next(); e != nil {
			_ = transport.Close()
			if t := translateTarError(e); t != nil {
				if te, ok := t.(liberr.Error); ok {
					return nil, te
				}
			}
			return nil, ErrorMemberRead.Error(e)
		}

		if i == raw.index {
			break
		}
	}

	return &memberStream{
		r: trd,
		c: transport,
	}, nil
}

// memberStream serves one member's bytes and closes the private transport
// behind it.
type memberStream struct {
	r *tar.Reader
	c io.Closer
}

func (o *memberStream) Read(p []byte) (int, error) {
	n, e := o.r.Read(p)
	if e != nil && e != io.EOF {
		if t := translateTarError(e); t != nil {
			return n, t
		}
	}
	return n, e
}

func (o *memberStream) Close() error {
	return o.c.Close()
}

func (o *rdr) info() (*arcmbr.ArchiveInfo, liberr.Error) {
	return &arcmbr.ArchiveInfo{
		Format: o.Format(),
		// members of a compressed tar share one compression context
		Solid: !o.alg.IsNone(),
		Extra: map[string]interface{}{
			"transport": o.alg.String(),
		},
	}, nil
}

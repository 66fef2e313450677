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
	"errors"
	"io"

	arccmp "github.com/davitf/archivey/compress"
	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	liberr "github.com/nabbar/golib/errors"
)

type strm struct {
	*arcrdr.Base
	alg       arccmp.Algorithm
	transport io.ReadCloser
	trd       *tar.Reader
	iterated  bool
}

// NewStreamReader opens a tar archive for one linear pass. Member streams
// are valid only until the iteration advances; anything unread is drained
// before the next member is produced.
func NewStreamReader(archivePath string, format arctps.Format, cfg *libcfg.Config) (arcrdr.Reader, liberr.Error) {
	alg, err := transportAlg(format)
	if err != nil {
		return nil, err
	}

	transport, e := arccmp.OpenFile(alg, archivePath, cfg)
	if e != nil {
		if err, k := e.(liberr.Error); k {
			return nil, err
		}
		return nil, ErrorParamEmpty.Error(e)
	}

	o := &strm{
		alg:       alg,
		transport: transport,
		trd:       tar.NewReader(transport),
	}

	o.Base = arcrdr.NewBase(arcrdr.BaseParams{
		Format:        format,
		ArchivePath:   archivePath,
		Config:        cfg,
		RandomAccess:  false,
		ListAvailable: false,
		Open:          o.openMember,
		Info:          o.info,
		Iterate:       o.iterate,
		CloseFct:      o.close,
	})

	return o, nil
}

func (o *strm) close() error {
	if o.transport == nil {
		return nil
	}

	e := o.transport.Close()
	o.transport = nil
	o.trd = nil

	return e
}

func (o *strm) openMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	return nil, arcrdr.ErrorUnsupported.Error(nil)
}

// streamedMember hands out the current record's bytes; advancing the
// iteration expires it, so no data from one member can leak into the next.
type streamedMember struct {
	r       *tar.Reader
	expired *bool
}

func (o *streamedMember) Read(p []byte) (int, error) {
	if *o.expired {
		return 0, arcrdr.ErrorIterate.Error(nil)
	}

	n, e := o.r.Read(p)
	if e != nil && e != io.EOF {
		if t := translateTarError(e); t != nil {
			return n, t
		}
	}

	return n, e
}

func (o *streamedMember) Close() error {
	if *o.expired {
		return nil
	}

	_, e := io.Copy(io.Discard, o.r)
	return e
}

func (o *strm) iterate(opt *arcrdr.Options, fn arcrdr.IterFunc) liberr.Error {
	if opt != nil && opt.Password != "" {
		return ErrorPassword.Error(nil)
	}

	if o.iterated {
		return ErrorIterateTwice.Error(nil)
	}
	o.iterated = true

	var (
		reg = o.Registry()
		flt = arcrdr.NewMemberFilter(opt)
		idx = 0
	)

	for {
		hdr, e := o.trd.Next()
		if e == io.EOF {
			break
		} else if e != nil {
			// a trailing header error means the decoder hit garbage after
			// the last record; without a seekable transport it cannot be
			// told apart from a dirty trailer, so the walk ends here
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

		m := buildMember(hdr, idx, o.alg)
		idx++

		if err := reg.Register(m); err != nil {
			return err
		}

		res, err := flt.Apply(m)
		if err != nil {
			return err
		} else if res == nil {
			// keep the transport aligned for the next record
			if err := drainRecord(o.trd); err != nil {
				return err
			}
			continue
		}

		var (
			expired = false
			stream  io.ReadCloser
		)

		if res.IsFile() {
			stream = &streamedMember{
				r:       o.trd,
				expired: &expired,
			}
		}

		cont := fn(res, stream)

		// drain whatever the caller left unread, then expire the stream
		if err := drainRecord(o.trd); err != nil {
			return err
		}
		expired = true

		if !cont {
			return nil
		}
	}

	reg.MarkAllRegistered()

	if o.Config().TarCheckIntegrity {
		log.WithField("archive", o.ArchivePath()).Warn("cannot check tar integrity: streaming transport is not seekable")
	}

	// surface trailing-checksum corruption from the compressed transport
	if !o.alg.IsNone() && o.transport != nil {
		if _, e := io.CopyN(io.Discard, o.transport, 65536); e != nil && e != io.EOF {
			return ErrorCorrupted.Error(e)
		}
	}

	return nil
}

func (o *strm) info() (*arcmbr.ArchiveInfo, liberr.Error) {
	return &arcmbr.ArchiveInfo{
		Format: o.Format(),
		Solid:  !o.alg.IsNone(),
		Extra: map[string]interface{}{
			"transport": o.alg.String(),
			"streaming": true,
		},
	}, nil
}

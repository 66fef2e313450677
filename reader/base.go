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

package reader

import (
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"

	arcmbr "github.com/davitf/archivey/member"
	arcreg "github.com/davitf/archivey/registry"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	libiot "github.com/davitf/archivey/ioutils"
	"github.com/davitf/archivey/uniqueid"
	liberr "github.com/nabbar/golib/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "archivey/reader")

// BaseParams configures a Base reader. Open and Info are mandatory; List is
// mandatory when ListAvailable is set; Iterate replaces the default
// random-access iteration for streaming adapters; CloseFct releases the
// adapter's decoder resources.
type BaseParams struct {
	Format        arctps.Format
	ArchivePath   string
	Config        *libcfg.Config
	RandomAccess  bool
	ListAvailable bool

	Open     OpenMemberFunc
	List     ListFunc
	Info     InfoFunc
	Iterate  IterateFunc
	CloseFct func() error
}

// Base implements the reader contract for format adapters. It owns the
// registry and the configuration snapshot; adapters plug in through the
// hooks in BaseParams.
type Base struct {
	prm    BaseParams
	reg    *arcreg.Registry
	closed atomic.Bool
}

// NewBase creates the shared reader state for an adapter. The archive path
// is canonicalized; the registry is bound to a fresh process-wide archive
// identifier.
func NewBase(prm BaseParams) *Base {
	if p, e := filepath.Abs(prm.ArchivePath); e == nil {
		prm.ArchivePath = p
	}

	prm.Config = prm.Config.Clone()

	return &Base{
		prm: prm,
		reg: arcreg.New(uniqueid.NextArchiveID()),
	}
}

func (o *Base) Format() arctps.Format {
	return o.prm.Format
}

func (o *Base) ArchivePath() string {
	return o.prm.ArchivePath
}

func (o *Base) HasRandomAccess() bool {
	return o.prm.RandomAccess
}

// Config returns the reader's configuration snapshot.
func (o *Base) Config() *libcfg.Config {
	return o.prm.Config
}

// Registry exposes the member table to the owning adapter.
func (o *Base) Registry() *arcreg.Registry {
	return o.reg
}

// IsClosed reports whether Close has been called.
func (o *Base) IsClosed() bool {
	return o.closed.Load()
}

// Close is idempotent; it releases the adapter's decoder resources. Every
// subsequent operation fails fast.
func (o *Base) Close() error {
	if o.closed.Swap(true) {
		return nil
	}

	if o.prm.CloseFct != nil {
		return o.prm.CloseFct()
	}

	return nil
}

func (o *Base) checkOpen() liberr.Error {
	if o.closed.Load() {
		return ErrorClosed.Error(nil)
	}
	return nil
}

func (o *Base) Info() (*arcmbr.ArchiveInfo, liberr.Error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	return o.prm.Info()
}

func (o *Base) Members() ([]*arcmbr.Member, liberr.Error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	if !o.prm.ListAvailable {
		return nil, ErrorMembersNotAvailable.Error(nil)
	}

	if !o.reg.AllRegistered() {
		if o.prm.List == nil {
			return nil, ErrorMembersNotAvailable.Error(nil)
		}
		if err := o.prm.List(); err != nil {
			return nil, err
		}
	}

	return o.reg.Members(), nil
}

func (o *Base) MembersIfAvailable() ([]*arcmbr.Member, bool, liberr.Error) {
	if err := o.checkOpen(); err != nil {
		return nil, false, err
	}

	if o.reg.AllRegistered() {
		return o.reg.Members(), true, nil
	}

	if !o.prm.ListAvailable {
		return nil, false, nil
	}

	res, err := o.Members()
	return res, err == nil, err
}

func (o *Base) Member(name string) (*arcmbr.Member, liberr.Error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	if !o.reg.AllRegistered() && o.prm.ListAvailable {
		if _, err := o.Members(); err != nil {
			return nil, err
		}
	}

	if m, k := o.reg.ByFilename(name); k {
		return m, nil
	}

	return nil, ErrorMemberNotFound.Error(fmt.Errorf("member not found: %s", name))
}

// resolveToOpen maps a member reference onto the terminal file member to
// stream: link members resolve transitively, and anything whose terminal is
// not a file cannot be opened.
func (o *Base) resolveToOpen(m *arcmbr.Member) (*arcmbr.Member, liberr.Error) {
	if m.ArchiveID != o.reg.ArchiveID() {
		return nil, ErrorMemberForeign.Error(fmt.Errorf("member %s is not from this archive", m.Filename))
	}

	final := m

	if m.IsLink() {
		// Re-run the search: a later registration may have shadowed the
		// previously resolved target.
		o.reg.ResolveLink(m)

		if !m.Resolved() {
			return nil, ErrorMemberCannotOpen.Error(fmt.Errorf("link target not found: %s", m.Filename))
		}

		if t, k := o.reg.ByID(m.LinkTargetID); !k {
			return nil, ErrorMemberCannotOpen.Error(fmt.Errorf("link target not found: %s", m.Filename))
		} else {
			final = t
		}
	}

	if !final.IsFile() {
		return nil, ErrorMemberCannotOpen.Error(fmt.Errorf("cannot open %s member %s", final.Type.String(), m.Filename))
	}

	return final, nil
}

func (o *Base) OpenMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	if m == nil {
		return nil, ErrorParamEmpty.Error(nil)
	}

	if !o.prm.RandomAccess {
		return nil, ErrorUnsupported.Error(fmt.Errorf("streaming-only archive reader does not support open"))
	}

	final, err := o.resolveToOpen(m)
	if err != nil {
		return nil, err
	}

	return o.prm.Open(final, pwd)
}

func (o *Base) Open(name string, pwd string) (io.ReadCloser, liberr.Error) {
	m, err := o.Member(name)
	if err != nil {
		return nil, err
	}

	return o.OpenMember(m, pwd)
}

// Iterate walks the members in registration order. The default
// implementation serves random-access readers: it lists all members and
// yields a lazy stream per file member, force-closed after the callback
// returns. Streaming adapters provide their own walk through
// BaseParams.Iterate.
func (o *Base) Iterate(opt *Options, fn IterFunc) liberr.Error {
	if err := o.checkOpen(); err != nil {
		return err
	}

	if fn == nil {
		return ErrorParamEmpty.Error(nil)
	}

	if o.prm.Iterate != nil {
		return o.prm.Iterate(opt, fn)
	}

	if !o.prm.RandomAccess {
		return ErrorUnsupported.Error(fmt.Errorf("streaming adapters must provide their own iteration"))
	}

	var (
		flt = NewMemberFilter(opt)
		pwd string
	)

	if opt != nil {
		pwd = opt.Password
	}

	lst, err := o.Members()
	if err != nil {
		return err
	}

	for _, m := range lst {
		res, err := flt.Apply(m)
		if err != nil {
			return err
		} else if res == nil {
			continue
		}

		var stream io.ReadCloser
		if res.IsFile() {
			mem := res
			stream = libiot.NewLazyReader(func() (io.ReadCloser, error) {
				if r, e := o.prm.Open(mem, pwd); e != nil {
					return nil, e
				} else {
					return r, nil
				}
			}, false)
		}

		cont := fn(res, stream)

		if stream != nil {
			_ = stream.Close()
		}

		if !cont {
			return nil
		}
	}

	return nil
}

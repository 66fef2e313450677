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
	"io"

	arcext "github.com/davitf/archivey/extract"
	arcmbr "github.com/davitf/archivey/member"
	arctps "github.com/davitf/archivey/types"
	liberr "github.com/nabbar/golib/errors"
)

// ExtractAll materializes every admitted member under dst. Random-access
// readers register all members first and stream the queued files in a second
// pass (files before the hardlinks that reference them); streaming readers
// extract inline during the single walk. Metadata is applied after all
// writes.
func (o *Base) ExtractAll(opt *Options, dst string) (map[string]string, liberr.Error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	hlp, err := arcext.New(dst, o.prm.Config.OverwriteMode, o.prm.RandomAccess)
	if err != nil {
		return nil, ErrorExtract.Error(err)
	}

	var pwd string
	if opt != nil {
		pwd = opt.Password
	}

	if o.prm.RandomAccess {
		err = o.extractAllRandomAccess(opt, pwd, hlp)
	} else {
		err = o.extractAllStreaming(opt, hlp)
	}

	if err != nil {
		return nil, err
	}

	if e := hlp.ApplyMetadata(); e != nil {
		return nil, ErrorExtract.Error(e)
	}

	return hlp.Written(), nil
}

func (o *Base) extractAllRandomAccess(opt *Options, pwd string, hlp *arcext.Helper) liberr.Error {
	var flt = NewMemberFilter(opt)

	lst, err := o.Members()
	if err != nil {
		return err
	}

	// Register the full extraction set first, so that the helper knows every
	// target path before the pending pass runs.
	for _, m := range lst {
		res, e := flt.Apply(m)
		if e != nil {
			return e
		} else if res == nil {
			continue
		}

		if e := hlp.ExtractMember(res, nil); e != nil {
			return ErrorExtract.Error(e)
		}
	}

	return o.extractPending(pwd, hlp)
}

// extractPending streams every queued file and materializes the hardlinks
// whose terminal file is now on disk.
func (o *Base) extractPending(pwd string, hlp *arcext.Helper) liberr.Error {
	for _, m := range hlp.Pending() {
		var stream io.ReadCloser

		if m.IsFile() {
			final, err := o.resolveToOpen(m)
			if err != nil {
				return err
			}

			if stream, err = o.prm.Open(final, pwd); err != nil {
				return err
			}
		}

		err := hlp.ExtractMember(m, stream)

		if stream != nil {
			_ = stream.Close()
		}

		if err != nil {
			return ErrorExtract.Error(err)
		}
	}

	return nil
}

func (o *Base) extractAllStreaming(opt *Options, hlp *arcext.Helper) liberr.Error {
	var failure liberr.Error

	err := o.Iterate(opt, func(m *arcmbr.Member, r io.ReadCloser) bool {
		log.WithField("member", m.Filename).Debug("writing member")

		if e := hlp.ExtractMember(m, r); e != nil {
			failure = ErrorExtract.Error(e)
			return false
		}

		return true
	})

	if failure != nil {
		return failure
	} else if err != nil {
		return err
	}

	return nil
}

// Extract materializes one member under dst and returns the written path.
// On a random-access reader this is a single-member pass; streaming readers
// fall back to a filtered ExtractAll.
func (o *Base) Extract(name string, dst string, pwd string) (string, liberr.Error) {
	if err := o.checkOpen(); err != nil {
		return "", err
	}

	if o.prm.RandomAccess {
		m, err := o.Member(name)
		if err != nil {
			return "", err
		}

		hlp, e := arcext.New(dst, o.prm.Config.OverwriteMode, false)
		if e != nil {
			return "", ErrorExtract.Error(e)
		}

		// Hardlinks cannot be deferred on a single-member pass, so their
		// terminal content is streamed and written as a regular file.
		var stream io.ReadCloser
		if m.IsFile() || m.Type == arctps.TypeHardlink {
			if stream, err = o.OpenMember(m, pwd); err != nil {
				return "", err
			}
		}

		e = hlp.ExtractMember(m, stream)

		if stream != nil {
			_ = stream.Close()
		}

		if e != nil {
			return "", ErrorExtract.Error(e)
		}

		if e = hlp.ApplyMetadata(); e != nil {
			return "", ErrorExtract.Error(e)
		}

		return hlp.Written()[m.Filename], nil
	}

	res, err := o.ExtractAll(&Options{
		Names:    []string{name},
		Password: pwd,
	}, dst)

	if err != nil {
		return "", err
	}

	for _, p := range res {
		return p, nil
	}

	return "", ErrorMemberNotFound.Error(nil)
}

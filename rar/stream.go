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

package rar

import (
	"fmt"
	"hash/crc32"
	"io"
	"os/exec"
	"sync"

	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	libiot "github.com/davitf/archivey/ioutils"
	rarcrp "github.com/davitf/archivey/rar/crypto"
	liberr "github.com/nabbar/golib/errors"
)

type strm struct {
	*arcrdr.Base
	pwd  string
	scan *ScanResult
}

// NewStreamReader opens a rar archive for one linear pass over an external
// `unrar p` process. Member streams are bounded by the declared file size
// and CRC-checked on drain (through the password-derived MAC conversion for
// tweaked checksums). Members whose password pre-check fails receive an
// error-stream sentinel, because unrar silently skips them and the output
// would otherwise be misaligned.
//
// This shape suits solid archives, which share one compression context and
// one password across members.
func NewStreamReader(archivePath string, pwd string, cfg *libcfg.Config) (arcrdr.Reader, liberr.Error) {
	scan, e := Scan(archivePath)
	if e != nil {
		return nil, ErrorCorrupted.Error(e)
	}

	if scan.HeaderEncrypted && pwd == "" {
		return nil, ErrorEncrypted.Error(fmt.Errorf("archive %s has header encryption, password required to list files", archivePath))
	}

	o := &strm{
		pwd:  pwd,
		scan: scan,
	}

	o.Base = arcrdr.NewBase(arcrdr.BaseParams{
		Format:        arctps.FormatRar,
		ArchivePath:   archivePath,
		Config:        cfg,
		RandomAccess:  false,
		ListAvailable: true,
		Open:          o.openMember,
		List:          o.list,
		Info:          o.info,
		Iterate:       o.iterate,
	})

	return o, nil
}

func (o *strm) list() liberr.Error {
	return listInto(o.Base, o.scan, o.pwd)
}

func (o *strm) info() (*arcmbr.ArchiveInfo, liberr.Error) {
	return buildInfo(o.Base, o.scan, o.pwd)
}

func (o *strm) openMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	return nil, arcrdr.ErrorUnsupported.Error(fmt.Errorf("rar stream reader does not support opening specific members"))
}

// startUnrar spawns the subprocess that writes the contents of all members
// to its stdout in member order.
func (o *strm) startUnrar(pwd string) (*exec.Cmd, io.ReadCloser, liberr.Error) {
	path, e := exec.LookPath("unrar")
	if e != nil {
		return nil, nil, ErrorUnrarMissing.Error(e)
	}

	pwdArg := "-p-"
	if pwd != "" {
		pwdArg = "-p" + pwd
	}

	cmd := exec.Command(path, "p", "-inul", pwdArg, o.ArchivePath())

	stdout, e := cmd.StdoutPipe()
	if e != nil {
		return nil, nil, ErrorSubprocess.Error(e)
	}

	log.WithField("archive", o.ArchivePath()).Debug("starting unrar pipe")

	if e = cmd.Start(); e != nil {
		return nil, nil, ErrorSubprocess.Error(e)
	}

	return cmd, stdout, nil
}

func (o *strm) iterate(opt *arcrdr.Options, fn arcrdr.IterFunc) liberr.Error {
	pwd := o.pwd
	if opt != nil && opt.Password != "" {
		pwd = opt.Password
	}

	lst, err := o.Members()
	if err != nil {
		return err
	}

	flt := arcrdr.NewMemberFilter(opt)

	cmd, stdout, err := o.startUnrar(pwd)
	if err != nil {
		return err
	}

	// subprocess termination is mandatory on every exit path
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		_ = stdout.Close()
	}()

	var mu sync.Mutex

	for _, m := range lst {
		res, e := flt.Apply(m)
		if e != nil {
			return e
		} else if res == nil {
			// the pipe carries every readable file's bytes, admitted or
			// not; members unrar skipped over a wrong password put nothing
			// on the pipe, and their sentinel closes without touching it
			if s := o.memberFile(m, stdout, &mu, pwd); s != nil {
				if e := s.Close(); e != nil {
					return ErrorMemberRead.Error(e)
				}
			}
			continue
		}

		stream := o.memberFile(res, stdout, &mu, pwd)

		cont := fn(res, stream)

		if stream != nil {
			if e := stream.Close(); e != nil {
				return ErrorMemberRead.Error(e)
			}
		}

		if !cont {
			return nil
		}
	}

	return nil
}

// memberFile hands out the next file's bytes from the shared pipe. A member
// that fails the password pre-check gets an error-stream sentinel instead:
// unrar silently skips it, and consuming the pipe for it would misalign
// every following member.
func (o *strm) memberFile(m *arcmbr.Member, stdout io.Reader, mu *sync.Mutex, pwd string) io.ReadCloser {
	if !m.IsFile() {
		return nil
	}

	if m.Encrypted {
		enc := encryptionOf(m)
		if enc.HasPasswordCheck() {
			if rarcrp.VerifyPassword([]byte(pwd), enc.Salt, enc.KDFCount, enc.CheckValue) == rarcrp.CheckIncorrect {
				return libiot.NewErrorReader(ErrorEncrypted.Error(fmt.Errorf("wrong password specified for %s", m.Filename)))
			}
		}
	}

	return &pipedMember{
		m:         m,
		r:         stdout,
		mu:        mu,
		remaining: m.FileSize,
		pwd:       pwd,
	}
}

// pipedMember serves one member's bytes from the shared unrar pipe. The
// lock is held for the duration of any read, so member streams serialize
// through the pipe. The stream is bounded by the declared file size and the
// CRC is verified once all bytes passed, whether read or drained on close.
type pipedMember struct {
	m         *arcmbr.Member
	r         io.Reader
	mu        *sync.Mutex
	remaining int64
	crc       uint32
	checked   bool
	closed    bool
	pwd       string
}

func (o *pipedMember) Read(p []byte) (int, error) {
	if o.closed {
		return 0, libiot.ErrorStreamClosed.Error(fmt.Errorf("cannot read from closed/expired file: %s", o.m.Filename))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	return o.read(p)
}

func (o *pipedMember) read(p []byte) (int, error) {
	if o.remaining <= 0 {
		if e := o.checkCRC(); e != nil {
			return 0, e
		}
		return 0, io.EOF
	}

	if int64(len(p)) > o.remaining {
		p = p[:o.remaining]
	}

	n, e := o.r.Read(p)
	o.remaining -= int64(n)
	o.crc = crc32.Update(o.crc, crc32.IEEETable, p[:n])

	if e == io.EOF && o.remaining > 0 {
		return n, libiot.ErrorStreamTruncated.Error(fmt.Errorf("unexpected EOF while reading %s", o.m.Filename))
	}

	if e == nil && o.remaining == 0 {
		if err := o.checkCRC(); err != nil {
			return n, err
		}
	}

	return n, e
}

// checkCRC verifies the accumulated checksum once, converting it through
// the password-derived MAC when the stored value is tweaked.
func (o *pipedMember) checkCRC() error {
	if o.checked {
		return nil
	}
	o.checked = true

	if enc := encryptionOf(o.m); enc.TweakedCRC() {
		stored, k := o.m.ExtraValue("encrypted_crc").(uint32)
		if !k {
			return nil
		}

		if o.pwd == "" {
			log.WithField("member", o.m.Filename).Warn("no password specified for checksum verification")
			return ErrorCRCMismatch.Error(fmt.Errorf("crc mismatch in %s", o.m.Filename))
		}

		if rarcrp.ConvertCRC(o.crc, []byte(o.pwd), enc.Salt, enc.KDFCount) != stored {
			return ErrorCRCMismatch.Error(fmt.Errorf("crc mismatch in %s", o.m.Filename))
		}

		return nil
	}

	if o.m.CRCKnown && o.crc != o.m.CRC32 {
		return ErrorCRCMismatch.Error(fmt.Errorf("crc mismatch in %s", o.m.Filename))
	}

	return nil
}

// Close drains anything unread so the pipe stays aligned and the CRC check
// still fires.
func (o *pipedMember) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true

	o.mu.Lock()
	defer o.mu.Unlock()

	buf := make([]byte, 64*1024)
	for o.remaining > 0 {
		if _, e := o.read(buf); e != nil && e != io.EOF {
			return e
		}
	}

	return o.checkCRC()
}

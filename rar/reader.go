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

// Package rar adapts the rardecode stream decoder to the archivey reader
// contract. A header scan complements the decoder with the rar5 records it
// does not expose: per-file encryption data, redirect targets, and stored
// checksums.
//
// The random-access shape rescans the archive from the start for every
// member open. The streaming shape pipes the whole archive through an
// external `unrar p` process and bounds each member stream by its declared
// size; this is meant for solid archives, where opening members one by one
// would decompress all predecessors each time.
package rar

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	arcmbr "github.com/davitf/archivey/member"
	arcrdr "github.com/davitf/archivey/reader"
	arctps "github.com/davitf/archivey/types"
	libcfg "github.com/davitf/archivey/config"
	rarcrp "github.com/davitf/archivey/rar/crypto"
	rardecode "github.com/javi11/rardecode/v2"
	liberr "github.com/nabbar/golib/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "archivey/rar")

var compressionMethods = []string{"store", "fastest", "fast", "normal", "good", "best"}

// rawEntry locates a member by its record index for rescan-based opens.
type rawEntry struct {
	index int
}

type rdr struct {
	*arcrdr.Base
	pwd  string
	scan *ScanResult
}

// NewReader opens a rar archive for random access.
func NewReader(archivePath string, pwd string, cfg *libcfg.Config) (arcrdr.Reader, liberr.Error) {
	scan, e := Scan(archivePath)
	if e != nil {
		return nil, ErrorCorrupted.Error(e)
	}

	if scan.HeaderEncrypted && pwd == "" {
		return nil, ErrorEncrypted.Error(fmt.Errorf("archive %s has header encryption, password required to list files", archivePath))
	}

	o := &rdr{
		pwd:  pwd,
		scan: scan,
	}

	o.Base = arcrdr.NewBase(arcrdr.BaseParams{
		Format:        arctps.FormatRar,
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

func (o *rdr) list() liberr.Error {
	return listInto(o.Base, o.scan, o.pwd)
}

func (o *rdr) info() (*arcmbr.ArchiveInfo, liberr.Error) {
	return buildInfo(o.Base, o.scan, o.pwd)
}

// openMember rescans the archive with the decoder up to the member's record
// index. The password is pre-checked against the header check value when the
// encryption record carries one, so a wrong password surfaces as an
// encryption error rather than garbage data.
func (o *rdr) openMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	if pwd == "" {
		pwd = o.pwd
	}

	if err := verifyMemberPassword(m, pwd); err != nil {
		return nil, err
	}

	raw, k := m.RawInfo.(*rawEntry)
	if !k {
		return nil, ErrorParamEmpty.Error(nil)
	}

	arc, err := openDecoder(o.ArchivePath(), pwd)
	if err != nil {
		return nil, err
	}

	for i := 0; ; i++ {
		if _, e := arc.Next(); e != nil {
			_ = arc.Close()
			return nil, translateRarError(e)
		}

		if i == raw.index {
			break
		}
	}

	return &memberStream{
		r: arc,
		m: m.Filename,
	}, nil
}

// memberStream serves one member's bytes from a private decoder instance.
type memberStream struct {
	r *rardecode.ReadCloser
	m string
}

func (o *memberStream) Read(p []byte) (int, error) {
	n, e := o.r.Read(p)
	if e != nil && e != io.EOF {
		if t := translateRarError(e); t != nil {
			return n, t
		}
	}
	return n, e
}

func (o *memberStream) Close() error {
	return o.r.Close()
}

func openDecoder(path, pwd string) (*rardecode.ReadCloser, liberr.Error) {
	var opts []rardecode.Option
	if pwd != "" {
		opts = append(opts, rardecode.Password(pwd))
	}

	arc, e := rardecode.OpenReader(path, opts...)
	if e != nil {
		return nil, translateRarError(e)
	}

	return arc, nil
}

func translateRarError(e error) liberr.Error {
	switch {
	case e == nil:
		return nil
	case errors.Is(e, rardecode.ErrNoSig):
		return ErrorCorrupted.Error(e)
	case errors.Is(e, rardecode.ErrBadPassword):
		return ErrorEncrypted.Error(e)
	case errors.Is(e, rardecode.ErrVerMismatch):
		return ErrorArchive.Error(e)
	default:
		return ErrorArchive.Error(e)
	}
}

// verifyMemberPassword runs the rar5 password check for an encrypted member
// whose encryption record carries check data. The unknown outcome passes:
// absence of check data is not a wrong password.
func verifyMemberPassword(m *arcmbr.Member, pwd string) liberr.Error {
	if !m.Encrypted {
		return nil
	}

	enc := encryptionOf(m)
	if !enc.HasPasswordCheck() {
		return nil
	}

	if rarcrp.VerifyPassword([]byte(pwd), enc.Salt, enc.KDFCount, enc.CheckValue) == rarcrp.CheckIncorrect {
		return ErrorEncrypted.Error(fmt.Errorf("wrong password specified for %s", m.Filename))
	}

	return nil
}

func encryptionOf(m *arcmbr.Member) *EncryptionInfo {
	if enc, k := m.ExtraValue("encryption").(*EncryptionInfo); k {
		return enc
	}
	return nil
}

// listInto walks the decoder and registers every member, merged with the
// header-scan records by record order.
func listInto(base *arcrdr.Base, scan *ScanResult, pwd string) liberr.Error {
	reg := base.Registry()

	if reg.AllRegistered() {
		return nil
	}

	arc, err := openDecoder(base.ArchivePath(), pwd)
	if err != nil {
		return err
	}

	defer func() {
		_ = arc.Close()
	}()

	var (
		idx int
		cur int
	)

	for {
		hdr, e := arc.Next()
		if e == io.EOF {
			break
		} else if e != nil {
			return translateRarError(e)
		}

		var rec *Record
		// scan records and decoder records share the order of the block
		// chain; match by name from the current cursor to stay aligned
		// when service blocks intervene
		for i := cur; i < len(scan.Records); i++ {
			if scan.Records[i].Name == hdr.Name {
				rec = &scan.Records[i]
				cur = i + 1
				break
			}
		}

		m := buildRarMember(hdr, rec, idx, scan)

		// rar4 stores a symlink's target as the member contents
		if m.Type == arctps.TypeSymlink && m.LinkTarget == "" && !m.Encrypted {
			if b, e := io.ReadAll(io.LimitReader(arc, 4096)); e == nil {
				m.LinkTarget = string(b)
			}
		}

		if err := reg.Register(m); err != nil {
			return err
		}

		idx++
	}

	reg.MarkAllRegistered()

	return nil
}

func buildRarMember(hdr *rardecode.FileHeader, rec *Record, idx int, scan *ScanResult) *arcmbr.Member {
	var (
		mode = hdr.Mode()
		typ  = arctps.TypeFile
	)

	switch {
	case rec != nil && rec.Redirect != nil && rec.Redirect.Type == RedirectHardlink:
		typ = arctps.TypeHardlink
	case rec != nil && rec.Redirect != nil && rec.Redirect.Type != RedirectFileCopy:
		typ = arctps.TypeSymlink
	case hdr.IsDir:
		typ = arctps.TypeDir
	case mode&fs.ModeSymlink != 0:
		typ = arctps.TypeSymlink
	case !mode.IsRegular():
		typ = arctps.TypeOther
	}

	m := &arcmbr.Member{
		Filename:     hdr.Name,
		FileSize:     hdr.UnPackedSize,
		CompressSize: hdr.PackedSize,
		Type:         typ,
		Mode:         mode.Perm(),
		HasMode:      true,
		RawInfo: &rawEntry{
			index: idx,
		},
		Extra: map[string]interface{}{},
	}

	if !hdr.ModificationTime.IsZero() {
		m.ModTime = hdr.ModificationTime
	}

	if rec != nil {
		m.CompressionMethod = methodName(rec.Method)
		m.CreateSystem = createSystem(rec.HostOS, scan.Version)
		m.Encrypted = rec.Encryption != nil
		m.Extra["host_os"] = rec.HostOS

		if rec.Redirect != nil {
			m.LinkTarget = rec.Redirect.Target
		}

		if enc := rec.Encryption; enc != nil {
			m.Extra["encryption"] = enc
		}

		// Only a plain CRC32 of the plaintext is reported as a checksum.
		// With tweaked checksums the raw field is a password-derived MAC,
		// kept aside for verification on drain.
		if rec.HasCRC {
			if rec.Encryption.TweakedCRC() {
				m.Extra["encrypted_crc"] = rec.CRC32
			} else {
				m.CRC32 = rec.CRC32
				m.CRCKnown = true
			}
		}

		if rec.HasMTime && m.ModTime.IsZero() {
			m.ModTime = time.Unix(rec.MTime, 0)
		}
	} else if scan.HeaderEncrypted {
		m.Encrypted = true
	}

	return m
}

func methodName(method int) string {
	if method >= 0 && method < len(compressionMethods) {
		return compressionMethods[method]
	}
	return "unknown"
}

// createSystem maps the rar host-OS byte onto the shared numbering. The
// rar5 format only distinguishes windows and unix; rar4 carries the legacy
// table.
func createSystem(hostOS int, version string) arctps.CreateSystem {
	if version == "5" {
		switch hostOS {
		case 0:
			return arctps.CreateSystemNTFS
		case 1:
			return arctps.CreateSystemUnix
		default:
			return arctps.CreateSystemUnknown
		}
	}

	switch hostOS {
	case 0:
		return arctps.CreateSystemFAT
	case 1:
		return arctps.CreateSystemOS2HPFS
	case 2:
		return arctps.CreateSystemNTFS
	case 3:
		return arctps.CreateSystemUnix
	case 4:
		return arctps.CreateSystemMacintosh
	default:
		return arctps.CreateSystemUnknown
	}
}

func buildInfo(base *arcrdr.Base, scan *ScanResult, pwd string) (*arcmbr.ArchiveInfo, liberr.Error) {
	var needsPassword bool

	for _, rec := range scan.Records {
		if rec.Encryption != nil {
			needsPassword = true
			break
		}
	}

	return &arcmbr.ArchiveInfo{
		Format:  arctps.FormatRar,
		Version: scan.Version,
		Solid:   scan.Solid,
		Extra: map[string]interface{}{
			"needs_password":   needsPassword || scan.HeaderEncrypted,
			"header_encrypted": scan.HeaderEncrypted,
		},
	}, nil
}

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

// Package extract turns an archive walk into a filesystem materialization:
// destination mapping with traversal refusal, overwrite policy, a pending
// queue for hardlinks whose terminal file is not on disk yet, and deferred
// metadata application.
package extract

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	libcfg "github.com/davitf/archivey/config"
	arcmbr "github.com/davitf/archivey/member"
	arctps "github.com/davitf/archivey/types"
	liberr "github.com/nabbar/golib/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "archivey/extract")

type metadataOp struct {
	path    string
	mode    os.FileMode
	hasMode bool
	mtime   int64
	symlink bool
}

// Helper materializes members under one destination root. One helper serves
// one extraction pass; it is not safe for concurrent use.
type Helper struct {
	root       string
	mode       libcfg.OverwriteMode
	canPending bool

	pending  []*arcmbr.Member
	queued   map[uint64]bool
	written  map[string]string
	pathByID map[uint64]string
	deferred []metadataOp
}

// New returns a helper writing under root. canPending allows deferring
// hardlinks and file contents to a later pass, for callers that can loop
// back and supply the data; single-member extraction cannot.
func New(root string, mode libcfg.OverwriteMode, canPending bool) (*Helper, liberr.Error) {
	if root == "" {
		if d, e := os.Getwd(); e != nil {
			return nil, ErrorParamEmpty.Error(e)
		} else {
			root = d
		}
	}

	if p, e := filepath.Abs(root); e != nil {
		return nil, ErrorParamEmpty.Error(e)
	} else {
		root = p
	}

	return &Helper{
		root:       root,
		mode:       mode,
		canPending: canPending,
		queued:     make(map[uint64]bool),
		written:    make(map[string]string),
		pathByID:   make(map[uint64]string),
	}, nil
}

// destPath maps the member's archive filename onto an absolute destination,
// refusing any path that escapes the root after normalization.
func (o *Helper) destPath(m *arcmbr.Member) (string, liberr.Error) {
	dst := filepath.Join(o.root, filepath.FromSlash(m.Filename))

	if dst != o.root && !strings.HasPrefix(dst, o.root+string(filepath.Separator)) {
		return "", ErrorPathTraversal.Error(nil)
	}

	return dst, nil
}

// checkOverwrite enforces the overwrite policy against an existing entry.
// It returns false when the member must be skipped.
func (o *Helper) checkOverwrite(m *arcmbr.Member, dst string) (bool, liberr.Error) {
	fi, e := os.Lstat(dst)
	if e != nil {
		// nothing in the way
		return true, nil
	}

	if m.IsDir() && fi.IsDir() {
		return true, nil
	}

	switch o.mode {
	case libcfg.OverwriteSkip:
		return false, nil
	case libcfg.OverwriteIfNewer:
		if !m.ModTime.IsZero() && fi.ModTime().Unix() == m.ModTime.Unix() {
			return false, nil
		}
	case libcfg.OverwriteError:
		return false, ErrorOverwriteConflict.Error(nil)
	}

	if e = os.RemoveAll(dst); e != nil {
		return false, ErrorOverwriteConflict.Error(e)
	}

	return true, nil
}

// ExtractMember writes one member. For files, a nil reader queues the member
// as pending when deferral is allowed; a later call with the stream performs
// the write. Hardlinks link to their materialized target or queue as
// pending; when deferral is impossible and a content stream is supplied, the
// content is written as a regular file instead.
func (o *Helper) ExtractMember(m *arcmbr.Member, r io.Reader) liberr.Error {
	if m == nil {
		return ErrorParamEmpty.Error(nil)
	}

	dst, err := o.destPath(m)
	if err != nil {
		return err
	}

	switch m.Type {
	case arctps.TypeDir:
		return o.extractDir(m, dst)
	case arctps.TypeFile:
		return o.extractFile(m, dst, r)
	case arctps.TypeSymlink:
		return o.extractSymlink(m, dst)
	case arctps.TypeHardlink:
		return o.extractHardlink(m, dst, r)
	default:
		log.WithField("member", m.Filename).Debugf("skipping %s member", m.Type.String())
		return nil
	}
}

func (o *Helper) extractDir(m *arcmbr.Member, dst string) liberr.Error {
	if ok, err := o.checkOverwrite(m, dst); err != nil {
		return err
	} else if !ok {
		return nil
	}

	// #nosec
	if e := os.MkdirAll(dst, 0755); e != nil {
		return ErrorDirCreate.Error(e)
	}

	o.record(m, dst)
	o.deferMetadata(m, dst, false)

	return nil
}

func (o *Helper) extractFile(m *arcmbr.Member, dst string, r io.Reader) liberr.Error {
	if r == nil {
		if !o.canPending {
			return ErrorParamEmpty.Error(nil)
		}
		o.enqueue(m)
		return nil
	}

	if ok, err := o.checkOverwrite(m, dst); err != nil {
		return err
	} else if !ok {
		return nil
	}

	// #nosec
	if e := os.MkdirAll(filepath.Dir(dst), 0755); e != nil {
		return ErrorDirCreate.Error(e)
	}

	hdf, e := os.Create(dst)
	if e != nil {
		return ErrorFileCreate.Error(e)
	}

	if _, e = io.Copy(hdf, r); e != nil {
		_ = hdf.Close()
		return ErrorIOCopy.Error(e)
	}

	if e = hdf.Close(); e != nil {
		return ErrorFileCreate.Error(e)
	}

	o.record(m, dst)
	o.deferMetadata(m, dst, false)

	return nil
}

// extractSymlink creates the symlink with the raw stored target, preserving
// the archive's intent even when the target points outside the tree.
func (o *Helper) extractSymlink(m *arcmbr.Member, dst string) liberr.Error {
	if ok, err := o.checkOverwrite(m, dst); err != nil {
		return err
	} else if !ok {
		return nil
	}

	// #nosec
	if e := os.MkdirAll(filepath.Dir(dst), 0755); e != nil {
		return ErrorDirCreate.Error(e)
	}

	if e := os.Symlink(m.LinkTarget, dst); e != nil {
		return ErrorLinkCreate.Error(e)
	}

	o.record(m, dst)
	o.deferMetadata(m, dst, true)

	return nil
}

func (o *Helper) extractHardlink(m *arcmbr.Member, dst string, r io.Reader) liberr.Error {
	if target, k := o.pathByID[m.LinkTargetID]; k && m.LinkTargetID != 0 {
		if ok, err := o.checkOverwrite(m, dst); err != nil {
			return err
		} else if !ok {
			return nil
		}

		// #nosec
		if e := os.MkdirAll(filepath.Dir(dst), 0755); e != nil {
			return ErrorDirCreate.Error(e)
		}

		if e := os.Link(target, dst); e != nil {
			return ErrorLinkCreate.Error(e)
		}

		o.record(m, dst)
		return nil
	}

	if o.canPending {
		o.enqueue(m)
		return nil
	}

	if r != nil {
		// no pending pass possible, fall back to the terminal content
		f := *m
		f.Type = arctps.TypeFile
		return o.extractFile(&f, dst, r)
	}

	return ErrorLinkPending.Error(nil)
}

func (o *Helper) enqueue(m *arcmbr.Member) {
	if o.queued[m.ID] {
		return
	}

	o.queued[m.ID] = true
	o.pending = append(o.pending, m)
}

// Pending returns the members deferred to a later pass: regular files queued
// without data, and hardlinks whose terminal was not materialized yet. Files
// come before the hardlinks that reference them.
func (o *Helper) Pending() []*arcmbr.Member {
	res := o.pending
	o.pending = nil

	for _, m := range res {
		delete(o.queued, m.ID)
	}

	return res
}

func (o *Helper) record(m *arcmbr.Member, dst string) {
	o.written[m.Filename] = dst
	o.pathByID[m.ID] = dst
}

// Written returns the written paths keyed by archive-relative filename.
func (o *Helper) Written() map[string]string {
	return o.written
}

func (o *Helper) deferMetadata(m *arcmbr.Member, dst string, symlink bool) {
	op := metadataOp{
		path:    dst,
		symlink: symlink,
	}

	if m.HasMode {
		op.mode = os.FileMode(m.Mode.Perm())
		op.hasMode = true
	}

	if !m.ModTime.IsZero() {
		op.mtime = m.ModTime.Unix()
	}

	o.deferred = append(o.deferred, op)
}

// ApplyMetadata applies mode and mtime in a second pass, so that parent
// directory timestamps are not clobbered by child writes. Symlinks are
// skipped: their mode and times are left as created, on every platform.
func (o *Helper) ApplyMetadata() liberr.Error {
	for _, op := range o.deferred {
		if op.symlink {
			// symlink mode and times are not applied
			continue
		}

		if op.hasMode {
			if e := os.Chmod(op.path, op.mode); e != nil {
				return ErrorMetadataApply.Error(e)
			}
		}

		if op.mtime != 0 {
			t := timeFromUnix(op.mtime)
			if e := os.Chtimes(op.path, t, t); e != nil {
				return ErrorMetadataApply.Error(e)
			}
		}
	}

	o.deferred = nil

	return nil
}

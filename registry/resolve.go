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

package registry

import (
	"path"

	arcmbr "github.com/davitf/archivey/member"
	arctps "github.com/davitf/archivey/types"
)

// ResolveLink resolves the terminal target of a hardlink or symlink member
// and records it on the source member. Unresolvable targets are logged and
// left unset; a later open or extract on such a member escalates.
//
// The resolver runs again on demand when a caller opens a member by link,
// because later registrations may have shadowed earlier targets. It is
// idempotent given a frozen registry.
func (o *Registry) ResolveLink(m *arcmbr.Member) {
	o.resolveLink(m, nil)
}

func (o *Registry) resolveLink(m *arcmbr.Member, visited map[uint64]struct{}) {
	if m == nil || m.LinkTarget == "" {
		return
	}

	switch m.Type {
	case arctps.TypeHardlink:
		o.resolveHardlink(m)
	case arctps.TypeSymlink:
		o.resolveSymlink(m, visited)
	}
}

// resolveHardlink interprets the link target as an exact filename and picks
// the candidate with the largest member ID strictly below the source's.
// Hardlinks refer backward into the archive, so chains terminate.
func (o *Registry) resolveHardlink(m *arcmbr.Member) {
	var target *arcmbr.Member

	for _, c := range o.AllByFilename(m.LinkTarget) {
		if c.ID < m.ID {
			target = c
		}
	}

	if target == nil {
		log.WithField("member", m.Filename).Warnf("hardlink target %s not found", m.LinkTarget)
		return
	}

	if target.Type == arctps.TypeHardlink {
		o.resolveHardlink(target)

		if !target.Resolved() {
			log.WithField("member", m.Filename).Warnf("hardlink target %s not found (when following hardlink)", m.LinkTarget)
			return
		}

		m.LinkTargetID = target.LinkTargetID
		m.LinkTargetType = target.LinkTargetType
		return
	}

	m.LinkTargetID = target.ID
	m.LinkTargetType = target.Type
}

// resolveSymlink joins the target against the source's directory, normalizes
// with POSIX semantics, and follows link chains with cycle detection.
func (o *Registry) resolveSymlink(m *arcmbr.Member, visited map[uint64]struct{}) {
	normalized := path.Clean(path.Join(path.Dir(m.Filename), m.LinkTarget))

	target, k := o.ByNormalizedPath(normalized)
	if !k {
		log.WithField("member", m.Filename).Warnf("symlink target %s not found", normalized)
		return
	}

	if target.IsLink() {
		if _, seen := visited[target.ID]; seen {
			log.WithField("member", m.Filename).Errorf("symlink loop detected: %s -> %s", m.Filename, target.Filename)
			return
		}

		next := make(map[uint64]struct{}, len(visited)+1)
		for id := range visited {
			next[id] = struct{}{}
		}
		next[m.ID] = struct{}{}

		o.resolveLink(target, next)

		if !target.Resolved() {
			log.WithField("member", m.Filename).Warnf("link target %s (%d) does not have a valid target", target.Filename, target.ID)
			return
		}

		m.LinkTargetID = target.LinkTargetID
		m.LinkTargetType = target.LinkTargetType
		return
	}

	m.LinkTargetID = target.ID
	m.LinkTargetType = target.Type
}

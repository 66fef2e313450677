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

// Package registry owns the member table of one archive reader: identity
// assignment, the exact-filename and normalized-path indices, and
// hardlink/symlink resolution across duplicates, overwrites, and cycles.
package registry

import (
	"path"
	"sort"
	"sync"

	arcmbr "github.com/davitf/archivey/member"
	liberr "github.com/nabbar/golib/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "archivey/registry")

// Registry is the in-memory index of all members belonging to one reader.
// It is mutated only during adapter ingestion; after MarkAllRegistered it is
// read-only and may be shared freely.
type Registry struct {
	mu        sync.Mutex
	archiveID uint64
	counter   uint64
	frozen    bool

	byID map[uint64]*arcmbr.Member
	// byFilename preserves duplicates: the list for one exact filename is
	// kept sorted by member ID, so the last entry shadows earlier ones.
	byFilename map[string][]*arcmbr.Member
	// byNormalized maps the POSIX-normalized filename to the
	// latest-registered member that normalized to that path.
	byNormalized map[string]*arcmbr.Member
}

// New returns an empty registry bound to the given archive identifier.
func New(archiveID uint64) *Registry {
	return &Registry{
		archiveID:    archiveID,
		byID:         make(map[uint64]*arcmbr.Member),
		byFilename:   make(map[string][]*arcmbr.Member),
		byNormalized: make(map[string]*arcmbr.Member),
	}
}

func (o *Registry) ArchiveID() uint64 {
	return o.archiveID
}

// Register assigns the member its identity, inserts it into all indices, and
// runs link resolution on it. Registering into a frozen registry or
// re-registering an assigned member is an error.
func (o *Registry) Register(m *arcmbr.Member) liberr.Error {
	if m == nil {
		return ErrorParamEmpty.Error(nil)
	}

	o.mu.Lock()

	if o.frozen {
		o.mu.Unlock()
		return ErrorRegistryFrozen.Error(nil)
	}

	if m.ID != 0 {
		o.mu.Unlock()
		return ErrorMemberDuplicate.Error(nil)
	}

	o.counter++
	m.ID = o.counter
	m.ArchiveID = o.archiveID

	if _, k := o.byID[m.ID]; k {
		o.mu.Unlock()
		return ErrorMemberDuplicate.Error(nil)
	}

	log.WithField("member", m.Filename).Debugf("registering member %d", m.ID)

	lst := append(o.byFilename[m.Filename], m)
	sort.Slice(lst, func(i, j int) bool {
		return lst[i].ID < lst[j].ID
	})
	o.byFilename[m.Filename] = lst

	n := path.Clean(m.Filename)
	if cur, k := o.byNormalized[n]; !k || cur.ID < m.ID {
		o.byNormalized[n] = m
	}

	o.byID[m.ID] = m
	o.mu.Unlock()

	o.ResolveLink(m)

	return nil
}

// MarkAllRegistered freezes the member set; further Register calls fail.
func (o *Registry) MarkAllRegistered() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frozen = true
}

// AllRegistered reports whether the member set is frozen.
func (o *Registry) AllRegistered() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frozen
}

// Len returns the number of registered members.
func (o *Registry) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.byID)
}

// Members returns all members in member-ID order, which is registration
// order.
func (o *Registry) Members() []*arcmbr.Member {
	o.mu.Lock()
	defer o.mu.Unlock()

	res := make([]*arcmbr.Member, 0, len(o.byID))
	for _, m := range o.byID {
		res = append(res, m)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].ID < res[j].ID
	})

	return res
}

// ByID returns the member with the given identifier.
func (o *Registry) ByID(id uint64) (*arcmbr.Member, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	m, k := o.byID[id]
	return m, k
}

// ByFilename returns the latest member registered under the exact filename.
// Earlier duplicates remain registered and iterable, but a lookup by name
// always resolves to the highest member ID.
func (o *Registry) ByFilename(name string) (*arcmbr.Member, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	lst := o.byFilename[name]
	if len(lst) < 1 {
		return nil, false
	}

	return lst[len(lst)-1], true
}

// AllByFilename returns every member with the exact filename, ordered by
// member ID.
func (o *Registry) AllByFilename(name string) []*arcmbr.Member {
	o.mu.Lock()
	defer o.mu.Unlock()

	lst := o.byFilename[name]
	res := make([]*arcmbr.Member, len(lst))
	copy(res, lst)

	return res
}

// ByNormalizedPath returns the latest member whose filename normalizes to
// the given POSIX-normalized path.
func (o *Registry) ByNormalizedPath(p string) (*arcmbr.Member, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	m, k := o.byNormalized[p]
	return m, k
}

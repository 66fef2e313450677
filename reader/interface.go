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

// Package reader defines the archive reader contract shared by all format
// adapters, its random-access base implementation, and the streaming-only
// wrapper.
//
// A reader hands out members in registration order through Iterate; each
// file member comes with a stream that must be consumed or closed before the
// iteration advances. Random-access readers additionally support opening any
// member by name and resolve link members to their terminal target.
package reader

import (
	"io"

	arcmbr "github.com/davitf/archivey/member"
	arctps "github.com/davitf/archivey/types"
	liberr "github.com/nabbar/golib/errors"
)

// IterFunc is called for each admitted member during iteration. The stream
// is nil for non-file members. Returning false stops the walk. In streaming
// mode the stream is valid only until the function returns; anything unread
// is drained before the next member is produced.
type IterFunc func(m *arcmbr.Member, r io.ReadCloser) bool

// Options narrows and reshapes an iteration or extraction.
//
// Names, Members and Match are three shapes of one selector and are
// normalized into a single predicate: concrete members match by member ID,
// names by exact filename, Match is a user predicate. All empty means
// accept-all.
//
// Filter is an optional post-mapping called per admitted member; it may
// return the member (possibly with adjusted metadata) or nil to drop it. A
// filter must not forge identities: returning a member with a different ID
// fails the operation.
type Options struct {
	Names    []string
	Members  []*arcmbr.Member
	Match    func(m *arcmbr.Member) bool
	Filter   func(m *arcmbr.Member) *arcmbr.Member
	Password string
}

// Reader is the archive reader contract.
type Reader interface {
	io.Closer

	// Format returns the container format served by this reader.
	Format() arctps.Format
	// ArchivePath returns the canonicalized path of the archive file.
	ArchivePath() string
	// HasRandomAccess reports whether opening members out of order is
	// possible (i.e. not streaming-only access).
	HasRandomAccess() bool

	// Info returns detailed information about the archive.
	Info() (*arcmbr.ArchiveInfo, liberr.Error)

	// Members returns all members of the archive, reading the archive if
	// needed. It fails on readers without a members list.
	Members() ([]*arcmbr.Member, liberr.Error)
	// MembersIfAvailable returns the member list, or ok=false when the
	// reader cannot provide one without consuming the stream.
	MembersIfAvailable() ([]*arcmbr.Member, bool, liberr.Error)
	// Member returns the latest member registered under the exact filename.
	Member(name string) (*arcmbr.Member, liberr.Error)

	// Open returns a read-only stream for the named member, resolving link
	// members to their terminal target. Random-access readers only.
	Open(name string, pwd string) (io.ReadCloser, liberr.Error)
	// OpenMember is Open for a concrete member of this reader.
	OpenMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error)

	// Iterate walks the members in registration order, calling fn with each
	// admitted member and its stream.
	Iterate(opt *Options, fn IterFunc) liberr.Error

	// Extract materializes one member under dst and returns the written
	// path.
	Extract(name string, dst string, pwd string) (string, liberr.Error)
	// ExtractAll materializes every admitted member under dst and returns
	// the written paths keyed by archive-relative filename.
	ExtractAll(opt *Options, dst string) (map[string]string, liberr.Error)
}

// OpenMemberFunc is the adapter hook that opens the raw stream of a file
// member after link resolution.
type OpenMemberFunc func(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error)

// ListFunc is the adapter hook that walks the decoder and registers every
// member, then freezes the registry. It must be idempotent.
type ListFunc func() liberr.Error

// InfoFunc is the adapter hook producing archive-level information.
type InfoFunc func() (*arcmbr.ArchiveInfo, liberr.Error)

// IterateFunc replaces the default random-access iteration for streaming
// adapters.
type IterateFunc func(opt *Options, fn IterFunc) liberr.Error

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

package member

import (
	"io/fs"
	"time"

	arctps "github.com/davitf/archivey/types"
)

// SizeUnknown is the sentinel for FileSize / CompressSize when the format
// does not record the value.
const SizeUnknown int64 = -1

// Member is one logical entry of an archive: a file, directory, symlink,
// hardlink, or other node. Adapters build it from decoder records; the
// registry assigns its identity on registration and link resolution fills
// the LinkTarget* fields. Apart from link resolution, a registered member is
// immutable.
type Member struct {
	// Filename is the path exactly as stored in the archive,
	// slash-separated. It may be non-normalized and may repeat across the
	// archive.
	Filename string

	FileSize     int64 // SizeUnknown if not recorded
	CompressSize int64 // SizeUnknown if not recorded

	// ModTime is a naive wall-clock timestamp; adapters convert from the
	// source epoch and drop the zone. The zero value means unknown.
	ModTime time.Time

	Type arctps.MemberType

	// Mode holds POSIX permission bits; valid only when HasMode is set.
	Mode    fs.FileMode
	HasMode bool

	// CRC32 is the plain checksum of the member plaintext; valid only when
	// CRCKnown is set. For rar5 members with tweaked checksums and no header
	// encryption the raw field is a password-derived MAC, not a CRC, so
	// CRCKnown stays false and the raw value lives in Extra.
	CRC32    uint32
	CRCKnown bool

	CompressionMethod string
	Comment           string
	Encrypted         bool
	CreateSystem      arctps.CreateSystem

	// Extra carries descriptive per-format leftovers.
	Extra map[string]interface{}

	// LinkTarget is the raw target string as stored in the archive.
	LinkTarget string

	// LinkTargetID is the member ID of the resolved terminal target, filled
	// by the registry's link resolution; zero while unresolved. Referring by
	// ID rather than pointer keeps the member graph acyclic.
	LinkTargetID   uint64
	LinkTargetType arctps.MemberType

	// RawInfo is the opaque per-format descriptor the adapter needs later to
	// open the member stream.
	RawInfo interface{}

	// ID and ArchiveID are assigned once on registration and form the only
	// legitimate identity for cross-API equality checks. ID is monotonic in
	// registration order and unique within one archive.
	ID        uint64
	ArchiveID uint64
}

func (m *Member) IsFile() bool {
	return m.Type == arctps.TypeFile
}

func (m *Member) IsDir() bool {
	return m.Type == arctps.TypeDir
}

func (m *Member) IsLink() bool {
	return m.Type.IsLink()
}

// Resolved reports whether link resolution found a terminal target.
func (m *Member) Resolved() bool {
	return m.LinkTargetID != 0
}

// ExtraValue returns the named descriptive value, or nil.
func (m *Member) ExtraValue(key string) interface{} {
	if m.Extra == nil {
		return nil
	}
	return m.Extra[key]
}

// ArchiveInfo describes the archive as a whole.
type ArchiveInfo struct {
	Format  arctps.Format
	Version string
	Solid   bool
	Comment string
	Extra   map[string]interface{}
}

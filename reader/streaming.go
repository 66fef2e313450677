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

	arcmbr "github.com/davitf/archivey/member"
	arctps "github.com/davitf/archivey/types"
	liberr "github.com/nabbar/golib/errors"
)

// streamingOnly reduces a random-access-capable reader to linear semantics:
// only iteration, bulk extraction, opportunistic member listing and close
// pass through; every random-access operation fails with the unsupported
// kind.
type streamingOnly struct {
	r Reader
}

// NewStreamingOnly wraps a reader so that callers demanding linear semantics
// cannot reach its random-access surface.
func NewStreamingOnly(r Reader) Reader {
	return &streamingOnly{
		r: r,
	}
}

func (o *streamingOnly) Close() error {
	return o.r.Close()
}

func (o *streamingOnly) Format() arctps.Format {
	return o.r.Format()
}

func (o *streamingOnly) ArchivePath() string {
	return o.r.ArchivePath()
}

func (o *streamingOnly) HasRandomAccess() bool {
	return false
}

func (o *streamingOnly) Info() (*arcmbr.ArchiveInfo, liberr.Error) {
	return o.r.Info()
}

func (o *streamingOnly) MembersIfAvailable() ([]*arcmbr.Member, bool, liberr.Error) {
	return o.r.MembersIfAvailable()
}

func (o *streamingOnly) Iterate(opt *Options, fn IterFunc) liberr.Error {
	return o.r.Iterate(opt, fn)
}

func (o *streamingOnly) ExtractAll(opt *Options, dst string) (map[string]string, liberr.Error) {
	return o.r.ExtractAll(opt, dst)
}

func (o *streamingOnly) Members() ([]*arcmbr.Member, liberr.Error) {
	return nil, ErrorUnsupported.Error(fmt.Errorf("streaming-only archive reader does not support members listing"))
}

func (o *streamingOnly) Member(name string) (*arcmbr.Member, liberr.Error) {
	return nil, ErrorUnsupported.Error(fmt.Errorf("streaming-only archive reader does not support member lookup"))
}

func (o *streamingOnly) Open(name string, pwd string) (io.ReadCloser, liberr.Error) {
	return nil, ErrorUnsupported.Error(fmt.Errorf("streaming-only archive reader does not support open"))
}

func (o *streamingOnly) OpenMember(m *arcmbr.Member, pwd string) (io.ReadCloser, liberr.Error) {
	return nil, ErrorUnsupported.Error(fmt.Errorf("streaming-only archive reader does not support open"))
}

func (o *streamingOnly) Extract(name string, dst string, pwd string) (string, liberr.Error) {
	return "", ErrorUnsupported.Error(fmt.Errorf("streaming-only archive reader does not support single extraction"))
}

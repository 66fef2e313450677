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
	arcmbr "github.com/davitf/archivey/member"
	liberr "github.com/nabbar/golib/errors"
)

// MemberFilter is the normalized form of Options: one predicate deciding
// admission plus the optional identity-preserving post-mapping.
type MemberFilter struct {
	included func(m *arcmbr.Member) bool
	filter   func(m *arcmbr.Member) *arcmbr.Member
}

// NewMemberFilter normalizes Options into a single predicate plus the
// optional identity-preserving post-mapping. Streaming adapters use it to
// apply selection during their own walk.
func NewMemberFilter(opt *Options) *MemberFilter {
	res := &MemberFilter{}

	if opt == nil {
		res.included = func(*arcmbr.Member) bool { return true }
		return res
	}

	res.filter = opt.Filter

	if opt.Match != nil {
		res.included = opt.Match
		return res
	}

	if len(opt.Names) == 0 && len(opt.Members) == 0 {
		res.included = func(*arcmbr.Member) bool { return true }
		return res
	}

	var (
		names = make(map[string]struct{}, len(opt.Names))
		ids   = make(map[uint64]struct{}, len(opt.Members))
	)

	for _, n := range opt.Names {
		names[n] = struct{}{}
	}

	for _, m := range opt.Members {
		if m != nil {
			ids[m.ID] = struct{}{}
		}
	}

	res.included = func(m *arcmbr.Member) bool {
		if _, k := names[m.Filename]; k {
			return true
		}
		_, k := ids[m.ID]
		return k
	}

	return res
}

// Apply admits or drops a member. The returned member may carry caller
// adjustments but must keep the same identity.
func (o *MemberFilter) Apply(m *arcmbr.Member) (*arcmbr.Member, liberr.Error) {
	if !o.included(m) {
		return nil, nil
	}

	if o.filter == nil {
		return m, nil
	}

	res := o.filter(m)
	if res == nil {
		return nil, nil
	}

	if res.ID != m.ID {
		return nil, ErrorFilterIdentity.Error(nil)
	}

	return res, nil
}

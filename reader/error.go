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

	arctps "github.com/davitf/archivey/types"
	liberr "github.com/nabbar/golib/errors"
)

const (
	ErrorParamEmpty liberr.CodeError = iota + arctps.MinPkgReader
	ErrorClosed
	ErrorMemberNotFound
	ErrorMemberCannotOpen
	ErrorMemberForeign
	ErrorUnsupported
	ErrorMembersNotAvailable
	ErrorFilterIdentity
	ErrorIterate
	ErrorExtract
)

func init() {
	if liberr.ExistInMapMessage(ErrorParamEmpty) {
		panic(fmt.Errorf("error code collision archivey/reader"))
	}
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorParamEmpty:
		return "given parameters is empty"
	case ErrorClosed:
		return "archive reader is closed"
	case ErrorMemberNotFound:
		return "member not found in archive"
	case ErrorMemberCannotOpen:
		return "member cannot be opened"
	case ErrorMemberForeign:
		return "member does not belong to this archive"
	case ErrorUnsupported:
		return "operation not supported by this archive reader"
	case ErrorMembersNotAvailable:
		return "members list is not available for this archive reader"
	case ErrorFilterIdentity:
		return "filter returned a member with a different identity"
	case ErrorIterate:
		return "error occurs when iterating over members"
	case ErrorExtract:
		return "error occurs when extracting members"
	}

	return liberr.NullMessage
}

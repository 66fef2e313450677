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

package extract

import (
	"fmt"

	arctps "github.com/davitf/archivey/types"
	liberr "github.com/nabbar/golib/errors"
)

const (
	ErrorParamEmpty liberr.CodeError = iota + arctps.MinPkgExtract
	ErrorPathTraversal
	ErrorOverwriteConflict
	ErrorDirCreate
	ErrorFileCreate
	ErrorIOCopy
	ErrorLinkCreate
	ErrorLinkPending
	ErrorMetadataApply
)

func init() {
	if liberr.ExistInMapMessage(ErrorParamEmpty) {
		panic(fmt.Errorf("error code collision archivey/extract"))
	}
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorParamEmpty:
		return "given parameters is empty"
	case ErrorPathTraversal:
		return "member path escapes the destination root"
	case ErrorOverwriteConflict:
		return "destination entry already exists"
	case ErrorDirCreate:
		return "make directory occurs error"
	case ErrorFileCreate:
		return "cannot create destination file"
	case ErrorIOCopy:
		return "error occurs when io copy"
	case ErrorLinkCreate:
		return "cannot create link"
	case ErrorLinkPending:
		return "hardlink target is not materialized"
	case ErrorMetadataApply:
		return "cannot apply member metadata"
	}

	return liberr.NullMessage
}

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

package types

import liberr "github.com/nabbar/golib/errors"

// Error code ranges reserved per package. Each package declares its codes as
// iota offsets from its range start and registers a message function; the
// registration panics on collision.
const (
	MinPkgArchivey   liberr.CodeError = liberr.MinAvailable + 100*iota
	MinPkgReader
	MinPkgRegistry
	MinPkgIOUtils
	MinPkgCompress
	MinPkgExtract
	MinPkgConfig
	MinPkgZip
	MinPkgTar
	MinPkgRar
	MinPkgRarCrypto
	MinPkgSevenZip
	MinPkgSingleFile
	MinPkgDepCheck
)

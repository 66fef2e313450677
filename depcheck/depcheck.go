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

// Package depcheck reports which optional collaborators are present, so
// that a missing external binary surfaces as a package-not-installed error
// before deeper failures. The compiled-in decoders are always available; the
// only runtime dependency is the unrar binary used by the rar streaming
// shape.
package depcheck

import (
	"fmt"
	"os/exec"

	arctps "github.com/davitf/archivey/types"
	liberr "github.com/nabbar/golib/errors"
)

const (
	ErrorUnrarMissing liberr.CodeError = iota + arctps.MinPkgDepCheck
)

func init() {
	if liberr.ExistInMapMessage(ErrorUnrarMissing) {
		panic(fmt.Errorf("error code collision archivey/depcheck"))
	}
	liberr.RegisterIdFctMessage(ErrorUnrarMissing, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorUnrarMissing:
		return "unrar command is not installed"
	}

	return liberr.NullMessage
}

// Versions inventories the optional dependencies.
type Versions struct {
	// UnrarPath is the resolved path of the unrar binary, empty when not
	// installed.
	UnrarPath string

	// Compiled-in decoder backends, listed for diagnostics.
	Backends []string
}

// Check resolves the optional dependencies once.
func Check() *Versions {
	res := &Versions{
		Backends: []string{
			"archive/zip",
			"archive/tar",
			"github.com/javi11/rardecode/v2",
			"github.com/bodgit/sevenzip",
			"compress/gzip",
			"github.com/klauspost/compress/gzip",
			"compress/bzip2",
			"github.com/dsnet/compress/bzip2",
			"github.com/ulikunitz/xz",
			"github.com/klauspost/compress/zstd",
			"github.com/pierrec/lz4/v4",
		},
	}

	if p, e := exec.LookPath("unrar"); e == nil {
		res.UnrarPath = p
	}

	return res
}

// RequireUnrar returns a package-not-installed error when the unrar binary
// is absent.
func RequireUnrar() liberr.Error {
	if Check().UnrarPath == "" {
		return ErrorUnrarMissing.Error(fmt.Errorf("unrar command is required to read rar member contents"))
	}

	return nil
}

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

type MemberType uint8

const (
	TypeOther MemberType = iota
	TypeFile
	TypeDir
	TypeSymlink
	TypeHardlink
)

func (t MemberType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	case TypeSymlink:
		return "symlink"
	case TypeHardlink:
		return "hardlink"
	default:
		return "other"
	}
}

// IsLink reports whether the member kind refers to another member.
func (t MemberType) IsLink() bool {
	return t == TypeSymlink || t == TypeHardlink
}

// CreateSystem identifies the system an archive member was created on, using
// the numbering shared by the zip and rar formats.
type CreateSystem uint8

const (
	CreateSystemFAT CreateSystem = iota
	CreateSystemAmiga
	CreateSystemOpenVMS
	CreateSystemUnix
	CreateSystemVMCMS
	CreateSystemAtariST
	CreateSystemOS2HPFS
	CreateSystemMacintosh
	CreateSystemZSystem
	CreateSystemCPM
	CreateSystemNTFS
	CreateSystemMVS
	CreateSystemVSE
	CreateSystemUnknown CreateSystem = 255
)

func (c CreateSystem) String() string {
	switch c {
	case CreateSystemFAT:
		return "fat"
	case CreateSystemAmiga:
		return "amiga"
	case CreateSystemOpenVMS:
		return "openvms"
	case CreateSystemUnix:
		return "unix"
	case CreateSystemVMCMS:
		return "vm/cms"
	case CreateSystemAtariST:
		return "atari-st"
	case CreateSystemOS2HPFS:
		return "os2-hpfs"
	case CreateSystemMacintosh:
		return "macintosh"
	case CreateSystemZSystem:
		return "z-system"
	case CreateSystemCPM:
		return "cp/m"
	case CreateSystemNTFS:
		return "ntfs"
	case CreateSystemMVS:
		return "mvs"
	case CreateSystemVSE:
		return "vse"
	default:
		return "unknown"
	}
}

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

package rar

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
)

// The rar5 header scan walks the block chain to collect what the stream
// decoder does not expose: per-file encryption records (salt, KDF count,
// check value, tweaked-checksum flag), redirect records (symlink and
// hardlink targets), and stored checksums. It parses headers only and skips
// all file data.

var (
	sigRar4 = []byte("Rar!\x1a\x07\x00")
	sigRar5 = []byte("Rar!\x1a\x07\x01\x00")
)

const (
	blockMain       = 1
	blockFile       = 2
	blockService    = 3
	blockEncryption = 4
	blockEnd        = 5

	// block flags
	blockFlagExtra = 0x0001
	blockFlagData  = 0x0002

	// file header flags
	fileFlagDir   = 0x0001
	fileFlagMTime = 0x0002
	fileFlagCRC   = 0x0004

	// extra area record types in file headers
	extraCrypt    = 0x01
	extraRedirect = 0x05

	// compression info bits
	compFlagSolid = 0x0040

	maxHeadSize = 2 << 20
)

// EncFlagPasswordCheck and EncFlagTweakedCRC are the file encryption record
// flags: presence of password check data, and checksum tweaking with a
// password-derived MAC.
const (
	EncFlagPasswordCheck = 0x01
	EncFlagTweakedCRC    = 0x02
)

// Redirect types stored in the redirect extra record.
const (
	RedirectUnixSymlink = 1
	RedirectWinSymlink  = 2
	RedirectJunction    = 3
	RedirectHardlink    = 4
	RedirectFileCopy    = 5
)

// EncryptionInfo is the file encryption record of one rar5 member.
type EncryptionInfo struct {
	Version    uint64
	Flags      uint64
	KDFCount   int
	Salt       []byte
	IV         []byte
	CheckValue []byte
}

// HasPasswordCheck reports whether the record carries check data usable for
// password verification.
func (o *EncryptionInfo) HasPasswordCheck() bool {
	return o != nil && o.Flags&EncFlagPasswordCheck != 0 && len(o.CheckValue) > 0
}

// TweakedCRC reports whether the member's stored checksum is a
// password-derived MAC instead of a plain CRC32.
func (o *EncryptionInfo) TweakedCRC() bool {
	return o != nil && o.Flags&EncFlagTweakedCRC != 0
}

// RedirectInfo is the redirect record of one rar5 member.
type RedirectInfo struct {
	Type   int
	Flags  uint64
	Target string
}

// Record is the header-level view of one rar5 file block.
type Record struct {
	Name         string
	Dir          bool
	UnpackedSize int64
	PackedSize   int64
	Attributes   uint64
	HostOS       int
	Method       int
	Solid        bool
	MTime        int64
	HasMTime     bool
	CRC32        uint32
	HasCRC       bool
	Encryption   *EncryptionInfo
	Redirect     *RedirectInfo
}

// ScanResult is the outcome of one header scan.
type ScanResult struct {
	Version         string
	HeaderEncrypted bool
	Solid           bool
	Records         []Record
}

// DetectSignature reports the rar version of the leading bytes, or an empty
// string when the signature does not match.
func DetectSignature(h []byte) string {
	if len(h) >= len(sigRar5) && bytes.Equal(h[:len(sigRar5)], sigRar5) {
		return "5"
	}
	if len(h) >= len(sigRar4) && bytes.Equal(h[:len(sigRar4)], sigRar4) {
		return "4"
	}
	return ""
}

// Scan walks the archive's header blocks. For rar4 archives only the
// version is reported; for rar5 archives with encrypted headers the scan
// stops at the encryption block and reports HeaderEncrypted.
func Scan(path string) (*ScanResult, error) {
	hdf, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = hdf.Close()
	}()

	br := bufio.NewReader(hdf)

	sig, err := br.Peek(8)
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}

	res := &ScanResult{Version: DetectSignature(sig)}

	switch res.Version {
	case "":
		return nil, errors.New("rar signature not found")
	case "4":
		return res, nil
	}

	if _, err = br.Discard(len(sigRar5)); err != nil {
		return nil, err
	}

	return res, scanBlocks(br, hdf, res)
}

func scanBlocks(br *bufio.Reader, seeker io.Seeker, res *ScanResult) error {
	for {
		var crc [4]byte
		if _, err := io.ReadFull(br, crc[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		headSize, _, err := readVint(br)
		if err != nil {
			return err
		}

		if headSize == 0 {
			return nil
		} else if headSize > maxHeadSize {
			return errors.New("suspicious rar5 header size")
		}

		headData := make([]byte, headSize)
		if _, err = io.ReadFull(br, headData); err != nil {
			return err
		}

		blk, err := parseBlock(headData)
		if err != nil {
			return err
		}

		switch blk.blockType {
		case blockEncryption:
			res.HeaderEncrypted = true
			return nil
		case blockFile:
			rec, err := parseFileBlock(blk)
			if err != nil {
				return err
			}
			rec.PackedSize = int64(blk.dataSize)
			if rec.Solid {
				res.Solid = true
			}
			res.Records = append(res.Records, *rec)
		case blockEnd:
			return nil
		}

		if blk.dataSize > 0 {
			if err := skipData(br, seeker, int64(blk.dataSize)); err != nil {
				return err
			}
		}
	}
}

type block struct {
	blockType uint64
	flags     uint64
	dataSize  uint64
	specific  []byte
	extra     []byte
}

// parseBlock splits one header into its block-specific region and the
// trailing extra area.
func parseBlock(headData []byte) (*block, error) {
	var (
		cur int
		blk = &block{}
	)

	readVar := func() (uint64, error) {
		v, n, e := readVintSlice(headData[cur:])
		if e != nil {
			return 0, e
		}
		cur += n
		return v, nil
	}

	var (
		err       error
		extraSize uint64
	)

	if blk.blockType, err = readVar(); err != nil {
		return nil, err
	}

	if blk.flags, err = readVar(); err != nil {
		return nil, err
	}

	if blk.flags&blockFlagExtra != 0 {
		if extraSize, err = readVar(); err != nil {
			return nil, err
		}
	}

	if blk.flags&blockFlagData != 0 {
		if blk.dataSize, err = readVar(); err != nil {
			return nil, err
		}
	}

	end := len(headData)
	if extraSize > 0 {
		if extraSize > uint64(end-cur) {
			return nil, errors.New("rar5 extra area overflows header")
		}
		end -= int(extraSize)
		blk.extra = headData[end:]
	}

	blk.specific = headData[cur:end]

	return blk, nil
}

func parseFileBlock(blk *block) (*Record, error) {
	var (
		cur int
		bs  = blk.specific
		rec = &Record{}
	)

	readVar := func() (uint64, error) {
		v, n, e := readVintSlice(bs[cur:])
		if e != nil {
			return 0, e
		}
		cur += n
		return v, nil
	}

	fileFlags, err := readVar()
	if err != nil {
		return nil, err
	}
	rec.Dir = fileFlags&fileFlagDir != 0

	unpSize, err := readVar()
	if err != nil {
		return nil, err
	}
	rec.UnpackedSize = int64(unpSize)

	if rec.Attributes, err = readVar(); err != nil {
		return nil, err
	}

	if fileFlags&fileFlagMTime != 0 {
		if len(bs)-cur < 4 {
			return nil, io.ErrUnexpectedEOF
		}
		rec.MTime = int64(le32(bs[cur:]))
		rec.HasMTime = true
		cur += 4
	}

	if fileFlags&fileFlagCRC != 0 {
		if len(bs)-cur < 4 {
			return nil, io.ErrUnexpectedEOF
		}
		rec.CRC32 = le32(bs[cur:])
		rec.HasCRC = true
		cur += 4
	}

	compInfo, err := readVar()
	if err != nil {
		return nil, err
	}
	rec.Method = int(compInfo>>7) & 0x7
	rec.Solid = compInfo&compFlagSolid != 0

	hostOS, err := readVar()
	if err != nil {
		return nil, err
	}
	rec.HostOS = int(hostOS)

	nameLen, err := readVar()
	if err != nil {
		return nil, err
	}

	if nameLen == 0 || int(nameLen) > len(bs)-cur {
		return nil, errors.New("bad rar5 file name length")
	}
	rec.Name = string(bs[cur : cur+int(nameLen)])

	return rec, parseExtra(blk.extra, rec)
}

// parseExtra collects the encryption and redirect records from a file
// header's extra area. Unknown record types are skipped.
func parseExtra(extra []byte, rec *Record) error {
	cur := 0

	for cur < len(extra) {
		size, n, err := readVintSlice(extra[cur:])
		if err != nil {
			return err
		}
		cur += n

		if size == 0 || size > uint64(len(extra)-cur) {
			return nil
		}

		data := extra[cur : cur+int(size)]
		cur += int(size)

		typ, n, err := readVintSlice(data)
		if err != nil {
			return err
		}
		data = data[n:]

		switch typ {
		case extraCrypt:
			if enc, err := parseCryptRecord(data); err == nil {
				rec.Encryption = enc
			}
		case extraRedirect:
			if red, err := parseRedirectRecord(data); err == nil {
				rec.Redirect = red
			}
		}
	}

	return nil
}

func parseCryptRecord(data []byte) (*EncryptionInfo, error) {
	var (
		cur int
		enc = &EncryptionInfo{}
	)

	readVar := func() (uint64, error) {
		v, n, e := readVintSlice(data[cur:])
		if e != nil {
			return 0, e
		}
		cur += n
		return v, nil
	}

	var err error

	if enc.Version, err = readVar(); err != nil {
		return nil, err
	}

	if enc.Flags, err = readVar(); err != nil {
		return nil, err
	}

	if len(data)-cur < 1+16+16 {
		return nil, io.ErrUnexpectedEOF
	}

	enc.KDFCount = int(data[cur])
	cur++

	enc.Salt = append([]byte(nil), data[cur:cur+16]...)
	cur += 16

	enc.IV = append([]byte(nil), data[cur:cur+16]...)
	cur += 16

	if enc.Flags&EncFlagPasswordCheck != 0 {
		if len(data)-cur < 12 {
			return nil, io.ErrUnexpectedEOF
		}
		enc.CheckValue = append([]byte(nil), data[cur:cur+12]...)
	}

	return enc, nil
}

func parseRedirectRecord(data []byte) (*RedirectInfo, error) {
	var (
		cur int
		red = &RedirectInfo{}
	)

	readVar := func() (uint64, error) {
		v, n, e := readVintSlice(data[cur:])
		if e != nil {
			return 0, e
		}
		cur += n
		return v, nil
	}

	typ, err := readVar()
	if err != nil {
		return nil, err
	}
	red.Type = int(typ)

	if red.Flags, err = readVar(); err != nil {
		return nil, err
	}

	nameLen, err := readVar()
	if err != nil {
		return nil, err
	}

	if int(nameLen) > len(data)-cur {
		return nil, io.ErrUnexpectedEOF
	}
	red.Target = string(data[cur : cur+int(nameLen)])

	return red, nil
}

func skipData(br *bufio.Reader, seeker io.Seeker, size int64) error {
	// buffered bytes are part of the data section already read ahead
	if b := br.Buffered(); b > 0 {
		if int64(b) > size {
			b = int(size)
		}
		if _, err := br.Discard(b); err != nil {
			return err
		}
		size -= int64(b)
	}

	if size > 0 && seeker != nil {
		if _, err := seeker.Seek(size, io.SeekCurrent); err == nil {
			br.Reset(seeker.(io.Reader))
			return nil
		}
	}

	if size > 0 {
		if _, err := io.CopyN(io.Discard, br, size); err != nil {
			return err
		}
	}

	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func readVintSlice(b []byte) (uint64, int, error) {
	var val uint64

	for i := 0; i < len(b) && i < 10; i++ {
		val |= uint64(b[i]&0x7f) << (7 * uint(i))
		if b[i]&0x80 == 0 {
			return val, i + 1, nil
		}
	}

	if len(b) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}

	return 0, 0, errors.New("rar5 vint too long or truncated")
}

func readVint(br *bufio.Reader) (uint64, int, error) {
	var (
		val uint64
		n   int
	)

	for i := 0; i < 10; i++ {
		b, err := br.ReadByte()
		if err != nil {
			return 0, n, err
		}

		val |= uint64(b&0x7f) << (7 * uint(i))
		n++

		if b&0x80 == 0 {
			return val, n, nil
		}
	}

	return 0, n, errors.New("rar5 vint too long")
}

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

// Package crypto implements the rar5 password-derived primitives: password
// verification against the header check value, and conversion of a plain
// CRC32 into the password-tweaked MAC stored for encrypted members without
// header encryption.
//
// Both primitives are pure functions of (password, salt, kdf count); the
// expensive PBKDF2 derivations are memoized through a bounded LRU cache, so
// checking many members of one archive costs one derivation.
package crypto

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pwCheckSize = 8
	pwSumSize   = 4

	// CheckValueSize is the length of the header check value: an 8-byte
	// folded check plus a 4-byte SHA-256 prefix of it.
	CheckValueSize = pwCheckSize + pwSumSize

	cacheSize = 128
)

// CheckResult is the outcome of a password verification. Unknown is
// distinct from Incorrect: absence of check data is not a wrong password.
type CheckResult uint8

const (
	CheckUnknown CheckResult = iota
	CheckCorrect
	CheckIncorrect
)

func (r CheckResult) String() string {
	switch r {
	case CheckCorrect:
		return "correct"
	case CheckIncorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

var (
	cacheOnce sync.Once
	keyCache  *lru.Cache
)

func cache() *lru.Cache {
	cacheOnce.Do(func() {
		keyCache, _ = lru.New(cacheSize)
	})
	return keyCache
}

type kdfKey struct {
	password string
	salt     string
	count    int
	extra    int
}

// deriveKey runs PBKDF2-HMAC-SHA256 with 2^count+extra iterations, memoized
// by (password, salt, count, extra). The cache is semantically transparent:
// disabling it would not change any result.
func deriveKey(password, salt []byte, kdfCount int, extra int) []byte {
	k := kdfKey{
		password: string(password),
		salt:     string(salt),
		count:    kdfCount,
		extra:    extra,
	}

	if v, ok := cache().Get(k); ok {
		return v.([]byte)
	}

	iterations := (1 << uint(kdfCount)) + extra
	res := pbkdf2.Key(password, salt, iterations, sha256.Size, sha256.New)

	cache().Add(k, res)

	return res
}

// VerifyPassword checks password bytes against a rar5 check value, given the
// salt and KDF iteration exponent from the file encryption record.
//
// The check value carries its own integrity gate: the last 4 bytes must be
// the SHA-256 prefix of the first 8. A failed gate means the check data uses
// an algorithm this code does not know, so the outcome is Unknown rather
// than Incorrect.
func VerifyPassword(password, salt []byte, kdfCount int, checkValue []byte) CheckResult {
	if len(checkValue) != CheckValueSize {
		return CheckUnknown
	}

	var (
		hdrCheck = checkValue[:pwCheckSize]
		hdrSum   = checkValue[pwCheckSize:]
	)

	sum := sha256.Sum256(hdrCheck)
	if !bytes.Equal(sum[:pwSumSize], hdrSum) {
		return CheckUnknown
	}

	pwdHash := deriveKey(password, salt, kdfCount, 32)

	// fold the 32-byte derivation into 8 bytes with wrap-around XOR
	var pwdCheck [pwCheckSize]byte
	for i, v := range pwdHash {
		pwdCheck[i&(pwCheckSize-1)] ^= v
	}

	if !bytes.Equal(pwdCheck[:], hdrCheck) {
		return CheckIncorrect
	}

	return CheckCorrect
}

// ConvertCRC maps a plain CRC32 onto the password-tweaked MAC stored in
// rar5 headers for encrypted members without header encryption. Verification
// converts the computed CRC and compares against the stored value; the
// plain checksum itself is never recoverable from the header.
func ConvertCRC(crc uint32, password, salt []byte, kdfCount int) uint32 {
	hashKey := deriveKey(password, salt, kdfCount, 16)

	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], crc)

	mac := hmac.New(sha256.New, hashKey)
	_, _ = mac.Write(raw[:])
	digest := mac.Sum(nil)

	var res uint32
	for i := 0; i < len(digest); i += 4 {
		res ^= binary.LittleEndian.Uint32(digest[i : i+4])
	}

	return res
}

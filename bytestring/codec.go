package bytestring

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/altmount-labs/streamio/ioerr"
)

// Hex returns the lowercase hexadecimal encoding of the string's bytes.
// encoding/hex's lowercase-on-output, case-insensitive-on-decode behavior
// already matches spec §6 exactly, so there is no third-party codec to
// reach for here (see DESIGN.md).
func (b ByteString) Hex() string {
	return hex.EncodeToString(b.Bytes())
}

// FromHex decodes a hex string, rejecting odd-length input the way
// encoding/hex already does (spec §6: "odd length rejected").
func FromHex(s string) (ByteString, error) {
	p, err := hex.DecodeString(s)
	if err != nil {
		return ByteString{}, ioerr.Wrap(ioerr.NumericFormat, "invalid hex string", err)
	}
	return fromBytesNoCopy(p), nil
}

// Base64 returns the standard (padded) base64 encoding.
func (b ByteString) Base64() string {
	return base64.StdEncoding.EncodeToString(b.Bytes())
}

// Base64URL returns the URL-safe base64 encoding without padding (spec
// §6: "no padding on encode").
func (b ByteString) Base64URL() string {
	return base64.RawURLEncoding.EncodeToString(b.Bytes())
}

// FromBase64 decodes standard base64, requiring padding unless the input
// length is already a multiple of 4 (encoding/base64.StdEncoding already
// enforces exactly this).
func FromBase64(s string) (ByteString, error) {
	p, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ByteString{}, ioerr.Wrap(ioerr.NumericFormat, "invalid base64 string", err)
	}
	return fromBytesNoCopy(p), nil
}

// FromBase64URL decodes URL-safe base64, accepting input with or without
// padding (spec §6: "accept either on decode").
func FromBase64URL(s string) (ByteString, error) {
	s = strings.TrimRight(s, "=")
	p, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return ByteString{}, ioerr.Wrap(ioerr.NumericFormat, "invalid base64url string", err)
	}
	return fromBytesNoCopy(p), nil
}

func newHasher(algorithm string) (hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "MD5":
		return md5.New(), nil
	case "SHA-1", "SHA1":
		return sha1.New(), nil
	case "SHA-256", "SHA256":
		return sha256.New(), nil
	case "SHA-512", "SHA512":
		return sha512.New(), nil
	case "SHA3-512":
		return sha3.New512(), nil
	default:
		return nil, ioerr.Wrap(ioerr.GenericIO, "unknown hash algorithm "+algorithm, nil)
	}
}

// Hash returns the digest of the string's content under the named
// algorithm (MD5, SHA-1, SHA-256, SHA-512, SHA3-512) as a Dense
// ByteString. SHA3-512 is served by golang.org/x/crypto/sha3 since the
// standard library's crypto package has no SHA-3 implementation.
func (b ByteString) Hash(algorithm string) (ByteString, error) {
	h, err := newHasher(algorithm)
	if err != nil {
		return ByteString{}, err
	}
	b.forEachRun(func(p []byte) bool {
		h.Write(p)
		return true
	})
	return fromBytesNoCopy(h.Sum(nil)), nil
}

// HMAC returns the keyed-hash message authentication code of the string's
// content under the named algorithm, keyed by key.
func (b ByteString) HMAC(algorithm string, key ByteString) (ByteString, error) {
	var newHash func() hash.Hash
	switch strings.ToUpper(algorithm) {
	case "MD5":
		newHash = md5.New
	case "SHA-1", "SHA1":
		newHash = sha1.New
	case "SHA-256", "SHA256":
		newHash = sha256.New
	case "SHA-512", "SHA512":
		newHash = sha512.New
	case "SHA3-512":
		newHash = sha3.New512
	default:
		return ByteString{}, ioerr.Wrap(ioerr.GenericIO, "unknown hmac algorithm "+algorithm, nil)
	}
	mac := hmac.New(newHash, key.Bytes())
	b.forEachRun(func(p []byte) bool {
		mac.Write(p)
		return true
	})
	return fromBytesNoCopy(mac.Sum(nil)), nil
}

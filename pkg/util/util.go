package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/samber/lo"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomIDLength is the length of anonymous caller identifiers.
const randomIDLength = 24

// IsNormalChar reports whether c is allowed in a service name.
func IsNormalChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-':
		return true
	}
	return false
}

// IsValidName reports whether name is a valid service or caller name:
// non-empty, shorter than 128 characters, and limited to [A-Za-z0-9-].
func IsValidName(name string) bool {
	if name == "" || len(name) >= 128 {
		return false
	}
	for _, c := range name {
		if !IsNormalChar(c) {
			return false
		}
	}
	return true
}

// IsValidHash reports whether hash is a valid git commit hash: exactly 40
// lowercase hexadecimal characters.
func IsValidHash(hash string) bool {
	if len(hash) != 40 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// RandomString returns a 24-character alphanumeric identifier for anonymous
// callers.
func RandomString() string {
	b := make([]byte, randomIDLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("util: read random bytes: %v", err))
	}
	for i := range b {
		b[i] = alphanumeric[int(b[i])%len(alphanumeric)]
	}
	return string(b)
}

// SHA256Hex returns the lowercase hex encoding of the SHA-256 digest of input.
func SHA256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// SHA512 returns the 64-byte SHA-512 digest of input. It is used to derive
// the cookie encryption key from the configured session key.
func SHA512(input string) []byte {
	sum := sha512.Sum512([]byte(input))
	return sum[:]
}

// RandomName joins three distinct random words from the word list with "-".
// The word list must contain at least three distinct words.
func RandomName(words []string) string {
	return strings.Join(lo.Samples(lo.Uniq(words), 3), "-")
}

// FreePort asks the OS for a free TCP port on localhost by binding to port 0
// and immediately releasing the listener. There is a small window between
// release and the service binding the port; a lost race surfaces as a
// readiness timeout.
func FreePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("allocate port: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := ln.Close(); err != nil {
		return 0, fmt.Errorf("release port %d: %w", port, err)
	}
	return port, nil
}

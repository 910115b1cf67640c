package services

import (
	"crypto/rand"
	"fmt"
)

const (
	slugAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	MinSlugLength = 6
	MaxSlugLength = 20
)

// largest multiple of len(slugAlphabet) that fits in a byte
const slugByteLimit = 256 - 256%len(slugAlphabet)

// NewSlug returns a random alphanumeric slug of the given length drawn from
// crypto/rand without modulo bias.
func NewSlug(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= slugByteLimit {
				continue
			}
			out = append(out, slugAlphabet[int(b)%len(slugAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// ValidSlug reports whether s is an acceptable caller-supplied slug.
func ValidSlug(s string) bool {
	if len(s) < MinSlugLength || len(s) > MaxSlugLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// Package password produces and checks one-way digests for share passwords.
// New digests use the configured algorithm; Verify recognises both formats so
// records written under either setting stay readable.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	SHA256 = "sha256"
	Bcrypt = "bcrypt"
)

type Hasher struct {
	algo string
	cost int
}

func NewHasher(algo string) (*Hasher, error) {
	switch algo {
	case "", SHA256:
		return &Hasher{algo: SHA256}, nil
	case Bcrypt:
		return &Hasher{algo: Bcrypt, cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hash %q", algo)
	}
}

func (h *Hasher) Hash(plain string) (string, error) {
	if h.algo == Bcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}
	return digest(plain), nil
}

// Verify compares plain against a stored digest in constant time. Malformed
// digests never match.
func (h *Hasher) Verify(hash, plain string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
	}

	stored, err := hex.DecodeString(hash)
	if err != nil || len(stored) != sha256.Size {
		return false
	}
	sum := sha256.Sum256([]byte(plain))
	return subtle.ConstantTimeCompare(stored, sum[:]) == 1
}

func digest(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

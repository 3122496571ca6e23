// Package cryptox implements password hashing with argon2id.
package cryptox

import (
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/reviewhub/internal/common"
	"golang.org/x/crypto/argon2"
)

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultParams: 4 passes over 64 MiB with 8 lanes, 32-byte key, 16-byte salt.
var DefaultParams = Params{
	Time:    4,
	Memory:  64 * 1024,
	Threads: 8,
	KeyLen:  32,
	SaltLen: 16,
}

var ErrEmptyPassword = errors.New("empty password")

// Hasher hashes and verifies passwords with fixed parameters.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// Hash returns the derived key and the fresh random salt used for it.
func (h *Hasher) Hash(password []byte) (hash, salt []byte, err error) {
	if len(password) == 0 {
		return nil, nil, ErrEmptyPassword
	}
	salt = common.GenerateRandByteArray(h.params.SaltLen)
	if salt == nil {
		return nil, nil, errors.New("salt generation failed")
	}
	return h.derive(password, salt), salt, nil
}

// Verify reports whether password matches hash under salt.
// The comparison runs in constant time.
func (h *Hasher) Verify(password, hash, salt []byte) bool {
	if len(password) == 0 || len(hash) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(h.derive(password, salt), hash) == 1
}

func (h *Hasher) derive(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
}

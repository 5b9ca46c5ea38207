package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/server/config"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into salted one-way hashes and checks
// candidates against them.
type Hasher interface {
	// Hash returns an encoded salted hash. Two calls with the same input
	// return different strings.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches stored. A mismatch is
	// (false, nil); common.ErrHashing is returned only when stored cannot
	// be decoded.
	Verify(plaintext, stored string) (bool, error)
}

// MultiHasher is a Hasher that verifies hashes of more than one algorithm.
type MultiHasher interface {
	Hasher

	// Algorithms lists every algorithm Verify accepts.
	Algorithms() []string

	// AlgorithmOf names the algorithm that produced stored.
	AlgorithmOf(stored string) string

	// HashWith hashes plaintext with the named algorithm.
	HashWith(algorithm, plaintext string) (string, error)
}

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	argon2Prefix = "$argon2id$"
)

// NewHasher returns a Hasher that hashes new passwords with the algorithm
// named in cfg and verifies stored hashes of either supported algorithm, so
// switching algorithms does not lock out existing users.
func NewHasher(cfg *config.Config) (Hasher, error) {
	b := NewBcryptHasher(cfg.BcryptCost)
	a := NewArgon2Hasher(cfg.Argon2Time, cfg.Argon2Memory, cfg.Argon2Threads)

	switch strings.ToLower(cfg.PasswordAlgorithm) {
	case "", AlgorithmBcrypt:
		return &dispatchHasher{primary: b, bcrypt: b, argon2: a}, nil
	case AlgorithmArgon2id:
		return &dispatchHasher{primary: a, bcrypt: b, argon2: a}, nil
	default:
		return nil, fmt.Errorf("unknown password algorithm %q", cfg.PasswordAlgorithm)
	}
}

type dispatchHasher struct {
	primary Hasher
	bcrypt  *BcryptHasher
	argon2  *Argon2Hasher
}

func (h *dispatchHasher) Hash(plaintext string) (string, error) {
	return h.primary.Hash(plaintext)
}

func (h *dispatchHasher) Verify(plaintext, stored string) (bool, error) {
	if h.AlgorithmOf(stored) == AlgorithmArgon2id {
		return h.argon2.Verify(plaintext, stored)
	}
	return h.bcrypt.Verify(plaintext, stored)
}

func (h *dispatchHasher) Algorithms() []string {
	return []string{AlgorithmBcrypt, AlgorithmArgon2id}
}

func (h *dispatchHasher) AlgorithmOf(stored string) string {
	if strings.HasPrefix(stored, argon2Prefix) {
		return AlgorithmArgon2id
	}
	return AlgorithmBcrypt
}

func (h *dispatchHasher) HashWith(algorithm, plaintext string) (string, error) {
	switch algorithm {
	case AlgorithmBcrypt:
		return h.bcrypt.Hash(plaintext)
	case AlgorithmArgon2id:
		return h.argon2.Hash(plaintext)
	default:
		return "", fmt.Errorf("%w: unknown algorithm %q", common.ErrHashing, algorithm)
	}
}

// BcryptHasher hashes with bcrypt. Input is first reduced with SHA-256 and
// base64 encoded so that bcrypt's 72 byte input limit never applies.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: bcrypt: %v", common.ErrHashing, err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(plaintext, stored string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), prehash(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: bcrypt: %v", common.ErrHashing, err)
	}
}

func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Argon2Hasher hashes with argon2id and encodes the result as
// $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH.
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

func NewArgon2Hasher(time, memory uint32, threads uint8) *Argon2Hasher {
	h := &Argon2Hasher{time: 1, memory: 64 * 1024, threads: 4, keyLen: 32, saltLen: 16}
	if time > 0 {
		h.time = time
	}
	if memory > 0 {
		h.memory = memory
	}
	if threads > 0 {
		h.threads = threads
	}
	return h
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: salt: %v", common.ErrHashing, err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(plaintext, stored string) (bool, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: argon2: bad encoding", common.ErrHashing)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, fmt.Errorf("%w: argon2: bad version", common.ErrHashing)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: argon2: bad parameters: %v", common.ErrHashing, err)
	}
	if time == 0 || threads == 0 {
		return false, fmt.Errorf("%w: argon2: bad parameters", common.ErrHashing)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: argon2: salt: %v", common.ErrHashing, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, fmt.Errorf("%w: argon2: hash: %v", common.ErrHashing, err)
	}

	got := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

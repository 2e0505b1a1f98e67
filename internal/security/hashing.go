package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrHashMismatch is returned by Compare when the password does not match the
// stored hash.
var ErrHashMismatch = errors.New("password does not match hash")

// ErrInvalidHash is returned when a stored hash cannot be parsed.
var ErrInvalidHash = errors.New("invalid password hash")

const (
	saltLen = 16
	keyLen  = 32
)

// Hasher hashes and verifies passwords using argon2id. Hashes are stored as
// PHC strings ($argon2id$v=19$m=...,t=...,p=...$salt$digest) so parameters can
// change without invalidating existing records. Stored bcrypt hashes ($2
// prefix) from earlier deployments still verify. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// NewHasher returns a Hasher with the given argon2id parameters. Zero values
// fall back to defaults suitable for interactive login (t=1, m=64MiB, p=4).
func NewHasher(time, memoryKiB uint32, threads uint8) *Hasher {
	if time == 0 {
		time = 1
	}
	if memoryKiB == 0 {
		memoryKiB = 64 * 1024
	}
	if threads == 0 {
		threads = 4
	}
	return &Hasher{Time: time, MemoryKiB: memoryKiB, Threads: threads}
}

// Hash derives a salted argon2id digest of password and returns it as a PHC
// string suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	digest := argon2.IDKey(password, salt, h.Time, h.MemoryKiB, h.Threads, keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.MemoryKiB, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Compare verifies password against the stored hash using the parameters
// recorded in the hash and constant-time digest comparison. Returns nil on
// match, ErrHashMismatch on mismatch, ErrInvalidHash on a malformed record.
func (h *Hasher) Compare(hash string, password []byte) error {
	if strings.HasPrefix(hash, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), password); err != nil {
			return ErrHashMismatch
		}
		return nil
	}
	memory, time, threads, salt, digest, err := decodeArgon2id(hash)
	if err != nil {
		return err
	}
	computed := argon2.IDKey(password, salt, time, memory, threads, uint32(len(digest)))
	if subtle.ConstantTimeCompare(computed, digest) != 1 {
		return ErrHashMismatch
	}
	return nil
}

// decoySalt is a fixed salt for DummyCompare. The derived digest is never
// stored or compared against real records.
var decoySalt = []byte("saas-auth-core/decoy-salt/01")

// DummyCompare burns the same argon2id work as a real comparison and always
// reports a mismatch. Called when no account exists for an email so the
// latency of "no such user" is indistinguishable from "wrong password".
func (h *Hasher) DummyCompare(password []byte) error {
	digest := argon2.IDKey(password, decoySalt, h.Time, h.MemoryKiB, h.Threads, keyLen)
	// Consume the digest so the derivation cannot be elided.
	subtle.ConstantTimeCompare(digest, decoySalt)
	return ErrHashMismatch
}

func decodeArgon2id(hash string) (memory, time uint32, threads uint8, salt, digest []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	var par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &par); err != nil {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	if par == 0 || par > 255 {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	threads = uint8(par)
	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) == 0 {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}
	return memory, time, threads, salt, digest, nil
}

// Package hash provides password hashing and verification using argon2id.
// Digests are self-describing: the algorithm parameters and salt are embedded
// in the encoded string, so verification needs no external configuration.
package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength = 16
	keyLength  = 32

	timeCost    = 1
	memoryCost  = 64 * 1024
	parallelism = 4
)

// Hash derives an argon2id digest from the given plaintext password using a
// fresh random salt. The result is PHC-encoded, e.g.
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
// Hashing the same password twice yields different digests.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memoryCost, parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryCost, timeCost, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether the plaintext password matches the given digest.
// The digest's embedded parameters are used for recomputation, and the
// comparison is constant-time. A malformed digest verifies as false.
func Verify(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// Argon2 adapts the package functions to an injectable hasher value.
type Argon2 struct{}

// Hash calls the package-level Hash.
func (Argon2) Hash(password string) (string, error) { return Hash(password) }

// Verify calls the package-level Verify.
func (Argon2) Verify(password, digest string) bool { return Verify(password, digest) }

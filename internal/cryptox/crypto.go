// Package cryptox implements password hashing for user accounts.
//
// Hashes are derived with Argon2id and encoded as
//
//	argon2id$<time>$<memoryKiB>$<threads>$<salt hex>$<key hex>
//
// so parameters can be raised later without invalidating stored hashes.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	hashScheme    = "argon2id"
	saltSize      = 16
	keySize       = 32
	defaultTime   = 1
	defaultMemory = 64 * 1024
	defaultThread = 4
)

// ErrMalformedHash is returned when a stored hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

func deriveKey(password, salt []byte, t, memory uint32, threads uint8) []byte {
	return argon2.IDKey(password, salt, t, memory, threads, keySize)
}

// HashPassword derives an encoded Argon2id hash for password using a fresh salt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", common.NewValidationError("is required", "password")
	}
	salt := common.GenerateRandByteArray(saltSize)
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	key := deriveKey(pw, salt, defaultTime, defaultMemory, defaultThread)

	return fmt.Sprintf("%s$%d$%d$%d$%s$%s", hashScheme, defaultTime, defaultMemory, defaultThread,
		hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches encoded. The comparison is
// constant-time with respect to the derived key.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != hashScheme {
		return false, ErrMalformedHash
	}

	t, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return false, ErrMalformedHash
	}
	memory, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return false, ErrMalformedHash
	}
	threads, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedHash
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	got := argon2.IDKey(pw, salt, uint32(t), uint32(memory), uint8(threads), uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// PlaceholderHash returns a valid hash of a random secret nobody knows. It is
// used when a user record must exist but no password is available, so the
// account can only be used after an administrator resets the password.
func PlaceholderHash() string {
	secret, err := common.MakeRandHexString(32)
	if err != nil {
		panic(err)
	}
	h, err := HashPassword(secret)
	if err != nil {
		panic(err)
	}
	return h
}

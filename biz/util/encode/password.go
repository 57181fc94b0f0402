package encode

import (
	"crypto/subtle"
	"encoding/hex"

	"passport/biz/util/random"

	"golang.org/x/crypto/argon2"
)

const SaltLength = 16

// argon2id parameters. Changing any of them invalidates every stored digest.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// CreateSalt returns a fresh random salt of SaltLength characters.
func CreateSalt() string {
	return random.RandStr(SaltLength)
}

// EncodePassword derives the stored digest of password under salt. The result
// is deterministic for the same inputs.
func EncodePassword(salt, password string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key)
}

// VerifyPassword reports whether password hashes to digest under salt.
func VerifyPassword(salt, password, digest string) bool {
	got := EncodePassword(salt, password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1
}

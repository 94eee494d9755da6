package cryptoutils

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// PassphraseHash is an Argon2id hash of an account passphrase with its salt.
type PassphraseHash struct {
	Salt []byte
	Key  []byte
}

// HashPassphrase derives an Argon2id key from the passphrase with a fresh random salt.
func HashPassphrase(passphrase string) (PassphraseHash, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return PassphraseHash{}, err
	}

	// Parameters: time=1, memory=64*1024, threads=4, keyLen=32
	key := argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
	return PassphraseHash{Salt: salt, Key: key}, nil
}

// Verify reports whether passphrase matches the hash.
func (h PassphraseHash) Verify(passphrase string) bool {
	key := argon2.IDKey([]byte(passphrase), h.Salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(key, h.Key) == 1
}

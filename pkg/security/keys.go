package security

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLen is the shortest secret accepted for key derivation.
const MinSecretLen = 16

var ErrWeakSecret = fmt.Errorf("secret must be at least %d characters", MinSecretLen)

// DeriveKey expands secret into a 32-byte AES-256 key bound to purpose.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if purpose == "" {
		return nil, errors.New("key purpose is required")
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// NewSecretEncryptor derives a key from secret and returns an AES-GCM encryptor.
func NewSecretEncryptor(secret, purpose string) (Encryptor, error) {
	key, err := DeriveKey(secret, purpose)
	if err != nil {
		return nil, err
	}
	return NewAESEncryptor(key)
}

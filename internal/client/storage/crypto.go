package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// KV is the key-value contract shared by every store in this package.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// ErrCorrupted is returned when a sealed value cannot be opened.
var ErrCorrupted = errors.New("sealed value corrupted or wrong passphrase")

// NewAEADFromPassphrase derives an AES-GCM cipher from a passphrase.
func NewAEADFromPassphrase(passphrase []byte) (cipher.AEAD, error) {
	key := sha256.Sum256(passphrase)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

// SealedStore encrypts values before handing them to the wrapped store.
// Stored values are base64(nonce || ciphertext). The key is used as
// additional data so a value cannot be moved to another key.
type SealedStore struct {
	inner KV
	aead  cipher.AEAD
}

// NewSealedStore wraps inner with aead.
func NewSealedStore(inner KV, aead cipher.AEAD) *SealedStore {
	return &SealedStore{inner: inner, aead: aead}
}

// Get opens the value stored under key.
func (s *SealedStore) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(data) < s.aead.NonceSize() {
		return "", false, fmt.Errorf("%s: %w", key, ErrCorrupted)
	}
	nonce, ct := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", key, ErrCorrupted)
	}
	return string(plain), true, nil
}

// Set seals value with a fresh nonce and stores it under key.
func (s *SealedStore) Set(key, value string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(key, base64.StdEncoding.EncodeToString(sealed))
}

// Remove deletes key from the wrapped store.
func (s *SealedStore) Remove(key string) error {
	return s.inner.Remove(key)
}

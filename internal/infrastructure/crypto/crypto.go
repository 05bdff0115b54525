package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"finsync/internal/shared/errs"
)

const (
	keySize       = 32
	kdfSalt       = "plaid_salt"
	kdfIterations = 100000
)

var ErrInvalidKey = errors.New("encryption key must not be empty")

// Encryptor seals aggregator access tokens at rest with AES-256-GCM.
// A 32-byte secret is used as the key directly; anything else is stretched
// with PBKDF2-HMAC-SHA256.
type Encryptor struct {
	aead cipher.AEAD
}

func NewEncryptor(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, ErrInvalidKey
	}

	key := []byte(secret)
	if len(key) != keySize {
		key = pbkdf2.Key(key, []byte(kdfSalt), kdfIterations, keySize, sha256.New)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

// Encrypt returns URL-safe base64 of nonce||ciphertext. Empty input yields empty output.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed, truncated or tampered input and
// ciphertext produced under another key all fail with errs.ErrDecryption.
func (e *Encryptor) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", errs.Wrap(errs.ErrDecryption, "decode token", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(raw) < nonceSize+e.aead.Overhead() {
		return "", errs.Wrap(errs.ErrDecryption, "decode token", errors.New("ciphertext too short"))
	}

	plaintext, err := e.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", errs.Wrap(errs.ErrDecryption, "open token", err)
	}

	return string(plaintext), nil
}

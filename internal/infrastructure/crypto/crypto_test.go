package crypto

import (
	"errors"
	"strings"
	"testing"

	"finsync/internal/shared/errs"
)

const testKey = "01234567890123456789012345678901" // 32 bytes for AES-256

func TestNewEncryptor_ValidKey(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatalf("NewEncryptor() failed: %v", err)
	}
	if enc == nil {
		t.Fatal("NewEncryptor() returned nil")
	}
}

func TestNewEncryptor_PassphraseIsStretched(t *testing.T) {
	enc, err := NewEncryptor("correct horse battery staple")
	if err != nil {
		t.Fatalf("NewEncryptor() failed for passphrase: %v", err)
	}

	ciphertext, err := enc.Encrypt("access-sandbox-123")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	// A second encryptor from the same passphrase derives the same key.
	other, _ := NewEncryptor("correct horse battery staple")
	plaintext, err := other.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() failed: %v", err)
	}
	if plaintext != "access-sandbox-123" {
		t.Errorf("Decrypt() = %q, want %q", plaintext, "access-sandbox-123")
	}
}

func TestNewEncryptor_EmptyKey(t *testing.T) {
	_, err := NewEncryptor("")
	if err != ErrInvalidKey {
		t.Errorf("NewEncryptor() error = %v, want %v", err, ErrInvalidKey)
	}
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	plaintext := "access-sandbox-de3ce8ef-33f8-452c-a685-8671031fc0f6"
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	if ciphertext == plaintext {
		t.Error("Encrypt() returned plaintext")
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() failed: %v", err)
	}

	if decrypted != plaintext {
		t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
	}
}

func TestEncrypt_EmptyString(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	ciphertext, err := enc.Encrypt("")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	if ciphertext != "" {
		t.Errorf("Encrypt(\"\") = %q, want empty string", ciphertext)
	}
}

func TestDecrypt_EmptyString(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	plaintext, err := enc.Decrypt("")
	if err != nil {
		t.Fatalf("Decrypt() failed: %v", err)
	}
	if plaintext != "" {
		t.Errorf("Decrypt(\"\") = %q, want empty string", plaintext)
	}
}

func TestEncrypt_DifferentCiphertexts(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	c1, _ := enc.Encrypt("same text")
	c2, _ := enc.Encrypt("same text")

	if c1 == c2 {
		t.Error("Encrypt() produced identical ciphertexts for same plaintext (nonce should differ)")
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	ciphertext, _ := enc.Encrypt("secret data")

	// Flip one character inside the sealed payload
	raw := []byte(ciphertext)
	if raw[10] == 'A' {
		raw[10] = 'B'
	} else {
		raw[10] = 'A'
	}
	tampered := string(raw)
	_, err := enc.Decrypt(tampered)
	if !errors.Is(err, errs.ErrDecryption) {
		t.Errorf("Decrypt() error = %v, want ErrDecryption", err)
	}
}

func TestDecrypt_InvalidBase64(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	_, err := enc.Decrypt("not-valid-base64!!!")
	if !errors.Is(err, errs.ErrDecryption) {
		t.Errorf("Decrypt() error = %v, want ErrDecryption", err)
	}
}

func TestDecrypt_TooShortCiphertext(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	// Base64 encode a very short byte slice (shorter than nonce)
	_, err := enc.Decrypt("YQ==") // "a" in base64
	if err == nil {
		t.Error("Decrypt() accepted ciphertext shorter than nonce")
	}
}

func TestEncryptDecrypt_UnicodeContent(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	plaintext := "Café du Monde: $12.50 ☕"
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() failed with unicode: %v", err)
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() failed with unicode: %v", err)
	}

	if decrypted != plaintext {
		t.Errorf("Unicode roundtrip failed: got %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptDecrypt_LongContent(t *testing.T) {
	enc, _ := NewEncryptor(testKey)

	plaintext := strings.Repeat("long content ", 1000)
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() failed with long content: %v", err)
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() failed with long content: %v", err)
	}

	if decrypted != plaintext {
		t.Error("Long content roundtrip failed")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	enc1, _ := NewEncryptor(testKey)
	enc2, _ := NewEncryptor("98765432109876543210987654321098")

	ciphertext, _ := enc1.Encrypt("encrypted with key1")

	_, err := enc2.Decrypt(ciphertext)
	if !errors.Is(err, errs.ErrDecryption) {
		t.Errorf("Decrypt() error = %v, want ErrDecryption", err)
	}
}

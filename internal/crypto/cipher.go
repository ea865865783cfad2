package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	// KeySize is the required AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
)

// Cipher performs authenticated encryption of card numbers with AES-256-GCM.
// A fresh random nonce is generated for every Encrypt call; the nonce is not
// secret and is persisted next to the ciphertext.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a raw 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM mode: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// LoadKey decodes and validates a base64-encoded 32-byte key. It is called
// once at startup; any failure here must prevent the process from serving.
func LoadKey(keyB64 string) ([]byte, error) {
	if keyB64 == "" {
		return nil, fmt.Errorf("PAYMENTS_ENCRYPTION_KEY_B64 is required and must be a base64-encoded %d-byte key", KeySize)
	}

	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("PAYMENTS_ENCRYPTION_KEY_B64 must be valid base64: %w", err)
	}

	if len(key) != KeySize {
		return nil, fmt.Errorf("PAYMENTS_ENCRYPTION_KEY_B64 must decode to exactly %d bytes, got %d", KeySize, len(key))
	}

	return key, nil
}

// Encrypt seals the plaintext under a fresh random nonce and returns the
// ciphertext (authentication tag included) and the nonce.
func (c *Cipher) Encrypt(plaintext string) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return ciphertext, nonce, nil
}

// Decrypt opens a ciphertext produced by Encrypt. The nonce must be the one
// returned alongside the ciphertext, unmodified.
func (c *Cipher) Decrypt(ciphertext, nonce []byte) (string, error) {
	if len(nonce) != NonceSize {
		return "", fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt payload: %w", err)
	}

	return string(plaintext), nil
}

// GenerateKey returns a new random 32-byte key, base64-encoded. Used by the
// keygen CLI command to provision deployments.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

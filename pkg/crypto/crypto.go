// Package crypto provides authenticated encryption for secrets at rest
// (connector API keys, notification channel sensitive config), grounded on
// the teacher's encryptAES256GCM helper but adapted to the wire format
// spec.md mandates: "iv:tag:ciphertext", each component lowercase hex.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

const (
	ivSize  = 16
	tagSize = 16
	keySize = 32
)

// Box holds the validated 32-byte key and performs encrypt/decrypt. The
// secret is loaded once and cached; on config reload, Rotate re-validates and
// swaps in the new secret.
type Box struct {
	mu  sync.RWMutex
	key []byte
}

// NewBox derives the 32-byte AES key from a 64-hex-character secret.
func NewBox(secretHex string) (*Box, error) {
	key, err := decodeSecret(secretHex)
	if err != nil {
		return nil, err
	}
	return &Box{key: key}, nil
}

func decodeSecret(secretHex string) ([]byte, error) {
	if len(secretHex) != keySize*2 {
		return nil, fmt.Errorf("secret key must be %d hex characters, got %d", keySize*2, len(secretHex))
	}
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("secret key is not valid hex: %w", err)
	}
	return key, nil
}

// Rotate re-validates and swaps in a new secret, for config reload.
func (b *Box) Rotate(secretHex string) error {
	key, err := decodeSecret(secretHex)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.key = key
	b.mu.Unlock()
	return nil
}

func (b *Box) gcm() (cipher.AEAD, error) {
	b.mu.RLock()
	key := b.key
	b.mu.RUnlock()

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt returns "iv:tag:ciphertext", all lowercase hex, colon-separated.
func (b *Box) Encrypt(plaintext string) (string, error) {
	gcm, err := b.gcm()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	// GCM appends the tag after the ciphertext regardless of nonce size.
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt validates the 3-part structure, hex charset, component lengths,
// and GCM authenticity. Any mismatch returns an *orcherr.Error with
// CategoryDecryption.
func (b *Box) Decrypt(encoded string) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return "", orcherr.NewDecryptionError("malformed ciphertext: expected 3 colon-separated parts")
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return "", orcherr.NewDecryptionError("malformed iv")
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", orcherr.NewDecryptionError("malformed auth tag")
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", orcherr.NewDecryptionError("malformed ciphertext")
	}

	gcm, err := b.gcm()
	if err != nil {
		return "", orcherr.NewDecryptionError("cipher initialization failed")
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", orcherr.NewDecryptionError("authentication failed")
	}

	return string(plaintext), nil
}

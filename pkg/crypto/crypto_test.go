package crypto

import (
	"strings"
	"testing"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	box, err := NewBox(testSecret)
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}

	inputs := []string{"", "hello world", "a-very-long-api-key-value-1234567890", "utf8: héllo 世界"}
	for _, s := range inputs {
		enc, err := box.Encrypt(s)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", s, err)
		}
		dec, err := box.Decrypt(enc)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", enc, err)
		}
		if dec != s {
			t.Errorf("round trip: got %q, want %q", dec, s)
		}
	}
}

func TestEncrypt_DistinctCiphertexts(t *testing.T) {
	box, _ := NewBox(testSecret)
	a, _ := box.Encrypt("same plaintext")
	b, _ := box.Encrypt("same plaintext")
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecrypt_BitFlipFails(t *testing.T) {
	box, _ := NewBox(testSecret)
	enc, _ := box.Encrypt("tamper me")

	parts := strings.Split(enc, ":")
	// Flip a hex nibble in the ciphertext component.
	ctBytes := []rune(parts[2])
	if ctBytes[0] == '0' {
		ctBytes[0] = '1'
	} else {
		ctBytes[0] = '0'
	}
	parts[2] = string(ctBytes)
	tampered := strings.Join(parts, ":")

	if _, err := box.Decrypt(tampered); err == nil {
		t.Error("Decrypt should have failed on tampered ciphertext")
	}
}

func TestDecrypt_MalformedInputs(t *testing.T) {
	box, _ := NewBox(testSecret)
	bad := []string{
		"",
		"onlyonepart",
		"two:parts",
		"nothex:nothex:nothex",
		"aa:bb:cc", // wrong lengths
	}
	for _, s := range bad {
		if _, err := box.Decrypt(s); err == nil {
			t.Errorf("Decrypt(%q) should have failed", s)
		}
	}
}

func TestNewBox_RejectsWrongLengthSecret(t *testing.T) {
	if _, err := NewBox("tooshort"); err == nil {
		t.Error("expected error for too-short secret")
	}
}

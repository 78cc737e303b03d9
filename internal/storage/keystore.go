// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local session cache for the dmswitch client.
package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/raghavsikaria/dead-mans-switch/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// NonceSize is the size of the nonce/IV for AES-GCM (12 bytes / 96 bits).
const NonceSize = 12

// KeySize is the size of the AES-256 key (32 bytes / 256 bits).
const KeySize = 32

// SaltSize is the size of the salt for key derivation (32 bytes).
const SaltSize = 32

// secretSize is the size of the random machine secret.
const secretSize = 32

// PBKDF2Iterations is the number of iterations for PBKDF2 key derivation.
// OWASP 2023 recommends 600,000+ for PBKDF2-SHA-256.
const PBKDF2Iterations = 600000

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidCiphertext indicates the ciphertext format is invalid.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// ErrDecryptionFailed indicates decryption failed (wrong key or tampered data).
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// ZeroBytes securely zeros sensitive byte slices to prevent memory disclosure.
// SECURITY: Zero key material to prevent memory disclosure via crash dumps.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// KEYSTORE
// =============================================================================

// keystore derives the cache encryption key from a machine-local secret file.
// The file holds secret||salt and is created with 0600 permissions on first
// use; losing it only invalidates the cached session, which is wiped on
// every startup anyway.
type keystore struct {
	cipher cipher.AEAD
}

// openKeystore loads or creates the machine secret at path and prepares the
// AES-256-GCM cipher.
func openKeystore(path string) (*keystore, error) {
	material, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		material, err = createMachineSecret(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load machine secret: %w", err)
	}
	if len(material) != secretSize+SaltSize {
		return nil, fmt.Errorf("machine secret file %s is corrupt (len %d)", path, len(material))
	}

	secret, salt := material[:secretSize], material[secretSize:]
	key := pbkdf2.Key(secret, salt, PBKDF2Iterations, KeySize, sha256.New)
	defer ZeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &keystore{cipher: aead}, nil
}

// createMachineSecret generates and persists a fresh secret||salt blob.
func createMachineSecret(path string) ([]byte, error) {
	material := make([]byte, secretSize+SaltSize)
	if _, err := io.ReadFull(rand.Reader, material); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	// SECURITY: 0600 - owner read/write only.
	if err := util.AtomicWriteFile(path, material, 0600); err != nil {
		return nil, err
	}
	return material, nil
}

// seal encrypts plaintext, returning nonce||ciphertext.
func (k *keystore) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return k.cipher.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts a nonce||ciphertext blob produced by seal.
func (k *keystore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := k.cipher.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

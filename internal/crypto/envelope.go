package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/medledger/consent-ledger-api/internal/config"
)

const (
	// KeySize is the derived symmetric key length (AES-256)
	KeySize = 32
	// NonceSize is the GCM nonce length
	NonceSize = 12
	// TagSize is the GCM authentication tag length
	TagSize = 16
)

// keyDerivationInfo is the fixed application message the owner signs.
// No salt or further context: the same credential must always rederive
// the same key.
const keyDerivationInfo = "consent-ledger/envelope-key/v1"

var (
	// ErrIntegrity is returned when an envelope fails authentication,
	// is truncated, or is not valid base64. Callers must not attempt
	// partial recovery.
	ErrIntegrity = errors.New("envelope integrity check failed")

	// ErrSigningDeclined is returned when no signature material was
	// supplied, i.e. the owner refused to sign the key derivation
	// message.
	ErrSigningDeclined = errors.New("owner declined to sign the key derivation message")

	// ErrConfig is returned when static server-side key material is
	// missing or malformed.
	ErrConfig = errors.New("invalid envelope key configuration")
)

// DeriveKey derives a 32-byte symmetric key from the bytes of an
// owner-controlled wallet signature via HKDF over SHA-256.
func DeriveKey(signature []byte) ([]byte, error) {
	if len(signature) == 0 {
		return nil, ErrSigningDeclined
	}

	reader := hkdf.New(sha256.New, signature, nil, []byte(keyDerivationInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	return key, nil
}

// FallbackKey decodes the static server-side key used to seal relayed
// payloads and administrative fields.
func FallbackKey(cfg *config.CryptoConfig) ([]byte, error) {
	if cfg == nil || cfg.FallbackKey == "" {
		return nil, fmt.Errorf("%w: fallback key is not configured", ErrConfig)
	}

	key, err := hex.DecodeString(cfg.FallbackKey)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback key is not valid hex", ErrConfig)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: fallback key must be %d bytes, got %d", ErrConfig, KeySize, len(key))
	}

	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce
// and returns the envelope as base64(nonce || tag || ciphertext).
func Encrypt(plaintext, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the tag after the ciphertext; the wire format wants
	// the tag detached and placed immediately after the nonce.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]

	envelope := make([]byte, 0, NonceSize+TagSize+len(ct))
	envelope = append(envelope, nonce...)
	envelope = append(envelope, tag...)
	envelope = append(envelope, ct...)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt opens a base64 envelope produced by Encrypt. It fails closed
// with ErrIntegrity on tag mismatch, truncated payload, or malformed
// base64.
func Decrypt(envelope string, key []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrIntegrity
	}

	if len(raw) < NonceSize+TagSize {
		return nil, ErrIntegrity
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := raw[:NonceSize]
	tag := raw[NonceSize : NonceSize+TagSize]
	ct := raw[NonceSize+TagSize:]

	sealed := make([]byte, 0, len(ct)+TagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	if plaintext == nil {
		// Open returns a nil slice for an empty plaintext; callers get
		// an empty one so round-trips compare equal.
		plaintext = []byte{}
	}

	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrConfig, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to construct cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to construct AEAD: %w", err)
	}

	return aead, nil
}

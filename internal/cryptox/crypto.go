// Package cryptox implements the password-based encryption used by the vault:
// argon2id key derivation plus AES-GCM, wrapped in a printable self-describing
// envelope, and a one-way verifier for checking login credentials.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/keepsafe-dev/keepsafe/internal/common"
)

const (
	// envelopeVersion is the current on-disk ciphertext format version.
	envelopeVersion = 1

	saltSize  = 16
	nonceSize = 12
	keySize   = 32
)

// envelope is the serialized ciphertext layout. Salt and nonce are generated
// fresh for every encryption, so the same value encrypted twice produces
// different ciphertexts.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// DeriveKey derives a 256-bit AES key from a password and salt using argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// MakeVerifier returns a one-way hash of a derived key, suitable for storing
// and later comparing to check a password. The verifier is never used as an
// encryption key.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// Encrypt serializes value to JSON and encrypts it under the given password.
// The result is a base64 string safe to store as text.
func Encrypt(value any, password []byte) (string, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to serialize value: %w", err)
	}

	salt := common.GenerateRandByteArray(saltSize)
	nonce := common.GenerateRandByteArray(nonceSize)

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	env := envelope{
		V:      envelopeVersion,
		Salt:   salt,
		Nonce:  nonce,
		Cipher: aesgcm.Seal(nil, nonce, plaintext, nil),
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to serialize envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decrypt reverses Encrypt, unmarshalling the plaintext into v.
//
// Any failure up to and including the AEAD open (empty input, malformed
// envelope, authentication failure) is reported as common.ErrInvalidPassword:
// a wrong password and corrupted ciphertext are indistinguishable to the
// caller. If decryption succeeds but the plaintext does not unmarshal into v,
// the result is common.ErrCorruptData.
func Decrypt(ciphertext string, password []byte, v any) error {
	if ciphertext == "" {
		return common.ErrInvalidPassword
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return common.ErrInvalidPassword
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return common.ErrInvalidPassword
	}
	if env.V != envelopeVersion || len(env.Nonce) != nonceSize {
		return common.ErrInvalidPassword
	}

	key := DeriveKey(password, env.Salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, env.Nonce, env.Cipher, nil)
	if err != nil {
		return common.ErrInvalidPassword
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return common.ErrCorruptData
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}
	return aesgcm, nil
}

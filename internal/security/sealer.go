package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sealed:"
	nonceSize    = 24
)

var (
	ErrEmptySecret  = errors.New("token secret is empty")
	ErrInvalidSeal  = errors.New("sealed token is malformed")
	ErrUnsealFailed = errors.New("sealed token could not be opened")
)

// TokenSealer encrypts auth tokens before they are written to local storage
type TokenSealer struct {
	key [32]byte
}

// NewTokenSealer derives a sealing key from secret using HKDF-SHA256
func NewTokenSealer(secret string) (*TokenSealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	s := &TokenSealer{}
	h := hkdf.New(sha256.New, []byte(secret), nil, []byte("flashquiz-token-at-rest"))
	if _, err := io.ReadFull(h, s.key[:]); err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}
	return s, nil
}

// Seal encrypts token and returns a printable value prefixed with "sealed:"
func (s *TokenSealer) Seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Values without the sealed prefix were written before
// sealing was enabled and are returned unchanged.
func (s *TokenSealer) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}

	box, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidSeal
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealFailed
	}
	return string(plain), nil
}

package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const minKeyLen = 32

// Sealer encrypts and authenticates small records. A record sealed under one
// name does not open under another.
type Sealer struct{ sc *securecookie.SecureCookie }

// NewSealer derives the MAC and cipher keys from a single master key.
func NewSealer(master []byte) (*Sealer, error) {
	if len(master) < minKeyLen {
		return nil, fmt.Errorf("master key must be at least %d bytes (got %d)", minKeyLen, len(master))
	}
	kdf := hkdf.New(sha256.New, master, nil, []byte("courtsched credential vault"))
	hashKey := make([]byte, 64)
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, err
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(0)
	sc.MaxLength(0)
	return &Sealer{sc: sc}, nil
}

func (s *Sealer) Seal(name string, v any) (string, error) {
	out, err := s.sc.Encode(name, v)
	if err != nil {
		return "", fmt.Errorf("seal %s: %w", name, err)
	}
	return out, nil
}

func (s *Sealer) Open(name, sealed string, dst any) error {
	if err := s.sc.Decode(name, sealed, dst); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	return nil
}

// ParseKey decodes a base64 master key, padded or not.
func ParseKey(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, fmt.Errorf("key is empty")
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("key is not base64: %w", err)
	}
	return b, nil
}

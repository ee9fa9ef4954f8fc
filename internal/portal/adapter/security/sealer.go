package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrUnsealFailed = errors.New("stored record could not be opened")

// RecordSealer encrypts client storage records at rest.
type RecordSealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// PlainSealer stores records as is.
type PlainSealer struct{}

func (PlainSealer) Seal(plain []byte) ([]byte, error) { return plain, nil }
func (PlainSealer) Open(sealed []byte) ([]byte, error) { return sealed, nil }

// AEADSealer seals records with XChaCha20-Poly1305. The random nonce is
// prepended to the ciphertext. The client id is bound as additional data so a
// record copied into another client's namespace fails to open.
type AEADSealer struct {
	key []byte
	aad []byte
}

// NewAEADSealer builds a sealer from a 32 byte key.
func NewAEADSealer(key []byte) (*AEADSealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("seal key must be %d bytes", chacha20poly1305.KeySize)
	}
	return &AEADSealer{key: append([]byte(nil), key...)}, nil
}

// ForClient returns a sealer bound to clientID.
func (s *AEADSealer) ForClient(clientID string) RecordSealer {
	return &AEADSealer{key: s.key, aad: []byte(clientID)}
}

func (s *AEADSealer) Seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plain, s.aad), nil
}

func (s *AEADSealer) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrUnsealFailed
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, s.aad)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	return plain, nil
}

// SealerFactory hands out the sealer used for one client's records.
type SealerFactory func(clientID string) RecordSealer

// NewSealerFactory returns a factory sealing with key, or storing plain
// records when key is nil.
func NewSealerFactory(key []byte) (SealerFactory, error) {
	if key == nil {
		return func(string) RecordSealer { return PlainSealer{} }, nil
	}
	s, err := NewAEADSealer(key)
	if err != nil {
		return nil, err
	}
	return s.ForClient, nil
}

package encryption

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// ErrCrypto is returned for malformed ciphertext or key material. Callers never
// see partial plaintext alongside it.
var ErrCrypto = errors.New("crypto failure")

const rsaKeyBits = 2048

// KeyService holds the process-wide RSA keypair used to unwrap client-submitted
// symmetric key material. The keypair is generated once at construction and is
// immutable for the process lifetime; the service is safe for concurrent use.
type KeyService struct {
	privateKey *rsa.PrivateKey
	publicJWK  []byte
}

func NewKeyService() (*KeyService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa keypair: %w", err)
	}

	// Encoded once so PublicKey is deterministic for the process lifetime.
	jwk := jose.JSONWebKey{Key: &privateKey.PublicKey, Use: "enc"}
	publicJWK, err := jwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}

	return &KeyService{privateKey: privateKey, publicJWK: publicJWK}, nil
}

// PublicKey returns the public half as a self-describing JWK (modulus and
// exponent), stable and re-parsable for the process lifetime.
func (s *KeyService) PublicKey() []byte {
	return s.publicJWK
}

// Unwrap decrypts an RSA PKCS#1 v1.5 key-wrap payload with the private key.
func (s *KeyService) Unwrap(ciphertext []byte) ([]byte, error) {
	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, s.privateKey, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("rsa unwrap: %w", ErrCrypto)
	}
	return plaintext, nil
}

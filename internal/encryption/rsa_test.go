package encryption

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

func TestKeyService_UnwrapRoundTrip(t *testing.T) {
	req := require.New(t)
	service, err := NewKeyService()
	req.NoError(err)

	secret := []byte("0123456789abcdef0123456789abcdef")
	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, &service.privateKey.PublicKey, secret)
	req.NoError(err)

	unwrapped, err := service.Unwrap(wrapped)
	req.NoError(err)
	req.Equal(secret, unwrapped)
}

func TestKeyService_Unwrap_Malformed(t *testing.T) {
	req := require.New(t)
	service, err := NewKeyService()
	req.NoError(err)

	_, err = service.Unwrap([]byte("not an rsa ciphertext"))
	req.ErrorIs(err, ErrCrypto)
}

func TestKeyService_Unwrap_WrongKeypair(t *testing.T) {
	req := require.New(t)
	service, err := NewKeyService()
	req.NoError(err)
	other, err := NewKeyService()
	req.NoError(err)

	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, &other.privateKey.PublicKey, []byte("secret"))
	req.NoError(err)

	_, err = service.Unwrap(wrapped)
	req.ErrorIs(err, ErrCrypto)
}

func TestKeyService_PublicKey_StableAndReparsable(t *testing.T) {
	req := require.New(t)
	service, err := NewKeyService()
	req.NoError(err)

	first := service.PublicKey()
	second := service.PublicKey()
	req.Equal(first, second)

	var jwk jose.JSONWebKey
	req.NoError(jwk.UnmarshalJSON(first))
	publicKey, ok := jwk.Key.(*rsa.PublicKey)
	req.True(ok)
	req.Equal(service.privateKey.PublicKey.N, publicKey.N)
	req.Equal(service.privateKey.PublicKey.E, publicKey.E)
}

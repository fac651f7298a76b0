package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifier_Identity_FromHeader(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier([]byte("test-secret"))

	token, err := verifier.Token("alice", time.Minute)
	req.NoError(err)

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	identity, err := verifier.Identity(r)
	req.NoError(err)
	req.Equal("alice", identity)
}

func TestVerifier_Identity_FromQueryParam(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier([]byte("test-secret"))

	token, err := verifier.Token("bob", time.Minute)
	req.NoError(err)

	r := httptest.NewRequest("GET", "/ws?access_token="+token, nil)

	identity, err := verifier.Identity(r)
	req.NoError(err)
	req.Equal("bob", identity)
}

func TestVerifier_Identity_NoToken(t *testing.T) {
	verifier := NewVerifier([]byte("test-secret"))

	_, err := verifier.Identity(httptest.NewRequest("GET", "/ws", nil))
	require.ErrorIs(t, err, ErrNoToken)
}

func TestVerifier_Identity_WrongSecret(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier([]byte("test-secret"))
	other := NewVerifier([]byte("other-secret"))

	token, err := other.Token("alice", time.Minute)
	req.NoError(err)

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	_, err = verifier.Identity(r)
	req.Error(err)
}

func TestVerifier_Identity_Expired(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier([]byte("test-secret"))

	token, err := verifier.Token("alice", -time.Minute)
	req.NoError(err)

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	_, err = verifier.Identity(r)
	req.Error(err)
}

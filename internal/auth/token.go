package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when the request carries no bearer token at all.
var ErrNoToken = errors.New("no bearer token on request")

const issuer = "securechat"

// Verifier resolves the authenticated username for an incoming connection from
// its JWT bearer token. The subject claim is the username.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Identity extracts and validates the bearer token from an upgrade request.
// Browsers cannot set headers on websocket upgrades, so the access_token query
// parameter is accepted alongside the Authorization header.
func (v *Verifier) Identity(r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		return "", ErrNoToken
	}
	return v.validate(token)
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

func (v *Verifier) validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("validate token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// Token signs a bearer token for username, valid for ttl. Used by tooling and
// tests; production tokens come from the identity provider sharing the secret.
func (v *Verifier) Token(username string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

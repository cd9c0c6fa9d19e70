package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWKSServer publishes a single RSA signing key the way Keycloak's certs
// endpoint does, and signs tokens with it.
type JWKSServer struct {
	Server *httptest.Server
	Issuer string
	KID    string

	key *rsa.PrivateKey
}

// NewJWKSServer generates a key pair and serves its JWKS until the test ends.
func NewJWKSServer(t testing.TB) *JWKSServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	s := &JWKSServer{
		Issuer: "http://keycloak.test/realms/jobs",
		KID:    "test-key",
		key:    key,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"keys": []map[string]any{{
				"kty": "RSA",
				"use": "sig",
				"alg": "RS256",
				"kid": s.KID,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the JWKS endpoint.
func (s *JWKSServer) URL() string {
	return s.Server.URL
}

// Sign issues an RS256 token for subject. Extra claims override the defaults.
func (s *JWKSServer) Sign(t testing.TB, subject string, extra jwt.MapClaims) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss": s.Issuer,
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.KID
	signed, err := token.SignedString(s.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Package identitytest runs a fake token issuer: an RSA key pair and a JWKS
// endpoint serving its public half.
package identitytest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const KeyID = "test-key-1"

type Issuer struct {
	ProjectID string

	key    *rsa.PrivateKey
	server *httptest.Server
	hits   atomic.Int32
	status atomic.Int32

	mu   sync.Mutex
	gate chan struct{}
}

func NewIssuer(t testing.TB, projectID string) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	iss := &Issuer{ProjectID: projectID, key: key}
	iss.server = httptest.NewServer(http.HandlerFunc(iss.serveKeys))
	t.Cleanup(iss.server.Close)
	return iss
}

func (i *Issuer) serveKeys(w http.ResponseWriter, _ *http.Request) {
	i.hits.Add(1)
	i.mu.Lock()
	gate := i.gate
	i.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if code := i.status.Load(); code != 0 {
		w.WriteHeader(int(code))
		return
	}

	pub := i.key.PublicKey
	body := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": KeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
	_ = json.NewEncoder(w).Encode(body)
}

// URL is the JWKS endpoint.
func (i *Issuer) URL() string { return i.server.URL }

// Hits counts JWKS fetches.
func (i *Issuer) Hits() int { return int(i.hits.Load()) }

// Hold parks JWKS requests until the returned release func is called.
func (i *Issuer) Hold() (release func()) {
	gate := make(chan struct{})
	i.mu.Lock()
	i.gate = gate
	i.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			i.mu.Lock()
			i.gate = nil
			i.mu.Unlock()
			close(gate)
		})
	}
}

// FailWith makes the JWKS endpoint answer with status; 0 restores it.
func (i *Issuer) FailWith(status int) { i.status.Store(int32(status)) }

// Claims returns a valid claim set for uid.
func (i *Issuer) Claims(uid, email string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            "https://securetoken.google.com/" + i.ProjectID,
		"aud":            i.ProjectID,
		"sub":            uid,
		"user_id":        uid,
		"email":          email,
		"email_verified": true,
		"iat":            float64(now.Add(-time.Minute).Unix()),
		"exp":            float64(now.Add(time.Hour).Unix()),
	}
}

func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = KeyID
	signed, err := tok.SignedString(i.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Token signs a valid token for uid.
func (i *Issuer) Token(t testing.TB, uid, email string) string {
	t.Helper()
	return i.Sign(t, i.Claims(uid, email))
}

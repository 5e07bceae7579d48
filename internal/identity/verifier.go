package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuerPrefix = "https://securetoken.google.com/"

// Principal is the caller proven by a verified token.
type Principal struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
}

type Verifier struct {
	projectID string
	keys      *KeySet
	timeout   time.Duration
	now       func() time.Time
}

func NewVerifier(projectID string, keys *KeySet, timeout time.Duration) *Verifier {
	return &Verifier{projectID: projectID, keys: keys, timeout: timeout, now: time.Now}
}

// Keyfunc resolves the key for a parsed but unverified token. It is meant
// to be handed to a jwt parser.
func (v *Verifier) Keyfunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing method %s", ErrInvalidToken, token.Method.Alg())
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing key id", ErrInvalidToken)
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return v.keys.Key(ctx, kid)
}

// Principal checks the provider-specific claims of a signature-verified
// token and extracts the caller.
func (v *Verifier) Principal(claims jwt.MapClaims) (*Principal, error) {
	iss, _ := claims.GetIssuer()
	if iss != issuerPrefix+v.projectID {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, iss)
	}

	aud, _ := claims.GetAudience()
	if !containsString(aud, v.projectID) {
		return nil, fmt.Errorf("%w: unexpected audience", ErrInvalidToken)
	}

	sub, _ := claims.GetSubject()
	if sub == "" || len(sub) > 128 {
		return nil, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	if !v.now().Before(exp.Time) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, fmt.Errorf("%w: missing issued-at", ErrInvalidToken)
	}
	if iat.Time.After(v.now().Add(time.Minute)) {
		return nil, fmt.Errorf("%w: issued in the future", ErrInvalidToken)
	}

	p := &Principal{UID: sub}
	p.Email, _ = claims["email"].(string)
	p.EmailVerified, _ = claims["email_verified"].(bool)
	p.Name, _ = claims["name"].(string)
	return p, nil
}

// Classify reduces a verification failure to one of the package sentinels.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrProviderTimeout):
		return ErrProviderTimeout
	case errors.Is(err, ErrProviderUnavailable):
		return ErrProviderUnavailable
	default:
		return ErrInvalidToken
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

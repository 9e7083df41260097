package auth

import (
	"context"
	"strings"
	"time"

	"WProject/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved user principal for an authenticated session.
// The zero value is the anonymous identity.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Anonymous reports whether the identity has not been resolved yet.
func (i Identity) Anonymous() bool { return i.ID == "" }

// Authenticator resolves raw credential bytes to an Identity.
// Implementations fail with errs.ErrInvalidToken for malformed/expired
// credentials and errs.ErrInvalidCredentials when the credential parses
// but names no usable principal.
type Authenticator interface {
	FindUser(ctx context.Context, credential []byte) (Identity, error)
}

// JWTAuthenticator validates HMAC-signed bearer tokens. The user ID comes
// from the "sub" claim, the display name from an optional "name" claim.
type JWTAuthenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTAuthenticator(secret []byte) *JWTAuthenticator {
	return &JWTAuthenticator{secret: secret, ttl: 2 * time.Hour}
}

func (a *JWTAuthenticator) FindUser(_ context.Context, credential []byte) (Identity, error) {
	token := strings.TrimSpace(string(credential))
	if token == "" {
		return Identity{}, errs.ErrInvalidCredentials
	}

	claims := jwtlib.MapClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		// HMAC family only; reject alg confusion up front.
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errs.ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, errs.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, errs.ErrInvalidCredentials
	}
	name, _ := claims["name"].(string)
	return Identity{ID: sub, Name: name}, nil
}

// Sign issues a token for the given identity. Used by the login endpoint
// and by tests that need valid credentials.
func (a *JWTAuthenticator) Sign(id Identity, ttl time.Duration) (string, error) {
	if id.Anonymous() {
		return "", errs.ErrInvalidCredentials
	}
	if ttl <= 0 {
		ttl = a.ttl
	}
	now := time.Now()
	claims := jwtlib.MapClaims{
		"sub": id.ID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if id.Name != "" {
		claims["name"] = id.Name
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return tok.SignedString(a.secret)
}

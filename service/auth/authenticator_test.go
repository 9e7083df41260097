package auth

import (
	"context"
	"testing"
	"time"

	"WProject/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	a := NewJWTAuthenticator([]byte("secret"))

	tok, err := a.Sign(Identity{ID: "u1", Name: "alice"}, time.Minute)
	require.NoError(t, err)

	id, err := a.FindUser(context.Background(), []byte(tok))
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "alice", id.Name)
	assert.False(t, id.Anonymous())
}

func TestJWTExpired(t *testing.T) {
	a := NewJWTAuthenticator([]byte("secret"))

	tok, err := a.Sign(Identity{ID: "u1"}, time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, err = a.FindUser(context.Background(), []byte(tok))
	require.Error(t, err)
	assert.True(t, errs.ErrInvalidToken.Is(err))
}

func TestJWTWrongSecret(t *testing.T) {
	a := NewJWTAuthenticator([]byte("secret"))
	b := NewJWTAuthenticator([]byte("other"))

	tok, err := a.Sign(Identity{ID: "u1"}, time.Minute)
	require.NoError(t, err)

	_, err = b.FindUser(context.Background(), []byte(tok))
	require.Error(t, err)
	assert.True(t, errs.ErrInvalidToken.Is(err))
}

func TestJWTMalformed(t *testing.T) {
	a := NewJWTAuthenticator([]byte("secret"))

	for _, cred := range []string{"", "not-a-token", "a.b.c"} {
		_, err := a.FindUser(context.Background(), []byte(cred))
		assert.Error(t, err, "credential %q must not resolve", cred)
	}
}

func TestJWTSignAnonymousRejected(t *testing.T) {
	a := NewJWTAuthenticator([]byte("secret"))
	_, err := a.Sign(Identity{}, time.Minute)
	require.Error(t, err)
	assert.True(t, errs.ErrInvalidCredentials.Is(err))
}

func TestAnonymousIdentity(t *testing.T) {
	assert.True(t, Identity{}.Anonymous())
	assert.False(t, Identity{ID: "u"}.Anonymous())
}

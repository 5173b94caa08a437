package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"medsync/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "device-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return signed
}

func newSource(t *testing.T, token string) *bearerSource {
	t.Helper()

	cfg := &config.Config{}
	cfg.Remote.BearerToken = token

	src, err := NewBearerSource(cfg, newTestLogger())
	require.NoError(t, err)

	return src.(*bearerSource)
}

func TestBearerSource_RequiresToken(t *testing.T) {
	cfg := &config.Config{}

	_, err := NewBearerSource(cfg, newTestLogger())

	require.Error(t, err)
}

func TestBearerSource_OpaqueTokenPassesThrough(t *testing.T) {
	src := newSource(t, "opaque-api-key")

	token, err := src.BearerToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "opaque-api-key", token)
}

func TestBearerSource_ValidJWTPassesThrough(t *testing.T) {
	raw := signedToken(t, time.Now().Add(time.Hour))
	src := newSource(t, raw)

	token, err := src.BearerToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, raw, token)
}

func TestBearerSource_ExpiredJWTIsRejected(t *testing.T) {
	src := newSource(t, signedToken(t, time.Now().Add(-time.Hour)))

	_, err := src.BearerToken(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

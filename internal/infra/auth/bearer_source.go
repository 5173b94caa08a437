// Package auth provides the credential source attached to outgoing remote calls.
package auth

import (
	"context"
	"log/slog"
	"time"

	"medsync/config"
	"medsync/internal/domain/service"
	"medsync/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// bearerSource serves the statically configured bearer token. Issuance and
// refresh belong to the auth service; this only inspects the token's expiry
// claim so an expired credential is flagged before it hits the remote API.
type bearerSource struct {
	token  string
	logger *slog.Logger
}

// NewBearerSource is the constructor for bearerSource.
func NewBearerSource(cfg *config.Config, logger *slog.Logger) (service.CredentialSource, error) {
	if cfg.Remote.BearerToken == "" {
		return nil, errors.New("remote bearer token must be provided")
	}

	src := &bearerSource{
		token:  cfg.Remote.BearerToken,
		logger: logger,
	}

	if expiry, ok := src.expiry(); ok && time.Now().After(expiry) {
		logger.Warn("Configured bearer token is already expired",
			slog.Time("expired_at", expiry),
		)
	}

	return src, nil
}

// BearerToken returns the credential for the Authorization header.
func (s *bearerSource) BearerToken(_ context.Context) (string, error) {
	if expiry, ok := s.expiry(); ok && time.Now().After(expiry) {
		return "", errors.Errorf("bearer token expired at %s", expiry.Format(time.RFC3339))
	}

	return s.token, nil
}

// expiry parses the token without verifying its signature; verification is the
// remote API's job, we only want the exp claim.
func (s *bearerSource) expiry() (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.token, claims); err != nil {
		// Opaque (non-JWT) tokens are passed through untouched.
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

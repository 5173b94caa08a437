package service

import "context"

// CredentialSource supplies the bearer credential attached to outgoing remote
// calls. Login and refresh are out of scope; a valid token is assumed to be
// injectable per call.
type CredentialSource interface {
	// BearerToken returns the credential for the Authorization header.
	BearerToken(ctx context.Context) (string, error)
}

// Package auth establishes the anonymous identity a session needs before it
// may touch the document store.
package auth

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/kalambet/haiku/internal/config"
)

// Identity is the result of a successful sign-in.
type Identity struct {
	UID       string
	Anonymous bool
	// TokenSource yields the user's bearer token and keeps it fresh. Nil for
	// purely local identities.
	TokenSource oauth2.TokenSource
}

// Authenticator signs a session in.
type Authenticator interface {
	SignIn(ctx context.Context) (Identity, error)
}

// Anonymous hands out random local identities. Used with the embedded
// backends, which have no notion of users.
type Anonymous struct{}

func (Anonymous) SignIn(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	return Identity{UID: uuid.New().String(), Anonymous: true}, nil
}

// New returns a Firebase authenticator when a Firebase web API key is
// configured and a local anonymous one otherwise.
func New(cfg config.AuthConfig) Authenticator {
	if cfg.FirebaseAPIKey != "" {
		return NewFirebase(cfg.FirebaseAPIKey)
	}
	return Anonymous{}
}

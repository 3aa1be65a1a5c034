package storage

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/kalambet/haiku/internal/auth"
	"github.com/kalambet/haiku/internal/haiku"
)

// Authenticator signs a session in before it may use the store.
type Authenticator interface {
	SignIn(ctx context.Context) (auth.Identity, error)
}

// IdentityBinder is implemented by stores that can act on behalf of a
// signed-in user.
type IdentityBinder interface {
	ForIdentity(ctx context.Context, id auth.Identity) (Backend, error)
}

// GatedGateway holds every store call until sign-in has completed. Sign-in
// happens at most once per gateway; a failed attempt is retried on the next
// call. When the store is an IdentityBinder and the identity carries a
// token, calls after sign-in go through a store bound to that identity.
type GatedGateway struct {
	next Gateway
	auth Authenticator
	log  *zap.Logger

	mu       sync.Mutex
	signedIn bool
	bound    io.Closer
}

// Gated wraps next so that it is only reached after a successful sign-in.
func Gated(next Gateway, a Authenticator, log *zap.Logger) *GatedGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &GatedGateway{next: next, auth: a, log: log}
}

func (g *GatedGateway) ensureSignedIn(ctx context.Context) (Gateway, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.signedIn {
		return g.next, nil
	}
	id, err := g.auth.SignIn(ctx)
	if err != nil {
		return nil, persistenceErr("signing in", err)
	}
	if b, ok := g.next.(IdentityBinder); ok && id.TokenSource != nil {
		bound, err := b.ForIdentity(ctx, id)
		if err != nil {
			return nil, persistenceErr("binding store to identity", err)
		}
		g.next = bound
		g.bound = bound
	}
	g.signedIn = true
	g.log.Info("signed in", zap.String("uid", id.UID), zap.Bool("anonymous", id.Anonymous), zap.Bool("bound", g.bound != nil))
	return g.next, nil
}

func (g *GatedGateway) Append(ctx context.Context, rec haiku.Record) (haiku.Record, error) {
	next, err := g.ensureSignedIn(ctx)
	if err != nil {
		return haiku.Record{}, err
	}
	return next.Append(ctx, rec)
}

func (g *GatedGateway) ListAll(ctx context.Context) ([]haiku.Record, error) {
	next, err := g.ensureSignedIn(ctx)
	if err != nil {
		return nil, err
	}
	return next.ListAll(ctx)
}

// Close releases a store bound to the signed-in identity. The shared store
// is left open.
func (g *GatedGateway) Close() error {
	g.mu.Lock()
	bound := g.bound
	g.bound = nil
	g.mu.Unlock()
	if bound == nil {
		return nil
	}
	return bound.Close()
}

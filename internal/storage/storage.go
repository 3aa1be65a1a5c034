// Package storage is the persistence gateway: it appends poem records to a
// document store and lists them newest first.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kalambet/haiku/internal/config"
	"github.com/kalambet/haiku/internal/haiku"
)

// Gateway is the store contract consumed by the controller. Neither method
// retries; every error wraps haiku.ErrPersistence.
type Gateway interface {
	// Append writes theme, text and created-at and returns the record with
	// its store-assigned ID.
	Append(ctx context.Context, rec haiku.Record) (haiku.Record, error)
	// ListAll returns every record ordered by CreatedAt descending.
	ListAll(ctx context.Context) ([]haiku.Record, error)
}

// Backend is a Gateway that owns a connection.
type Backend interface {
	Gateway
	io.Closer
}

// Open opens the backend selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (Backend, error) {
	switch cfg.Storage.Backend {
	case "", "sqlite":
		return OpenSQLite(cfg.Storage.DataDir)
	case "bolt":
		return OpenBolt(cfg.Storage.DataDir, log)
	case "firestore":
		var opts []option.ClientOption
		if cfg.Firestore.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
		}
		return OpenFirestore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.Database, cfg.Firestore.Collection, opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", haiku.ErrPersistence, op, err)
}

// parseTimestamp decodes a stored text timestamp, substituting now when the
// value is missing or malformed.
func parseTimestamp(raw string, now func() time.Time) time.Time {
	if raw == "" {
		return now()
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return now()
	}
	return t
}

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kalambet/haiku/internal/auth"
)

func TestDecodeDocument(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	rec := decodeDocument("doc-1", map[string]any{
		"theme":     "autumn",
		"text":      "line1\nline2\nline3",
		"createdAt": stored,
	}, fixedClock(now))
	assert.Equal(t, "doc-1", rec.ID)
	assert.Equal(t, "autumn", rec.Theme)
	assert.Equal(t, "line1\nline2\nline3", rec.Text)
	assert.Equal(t, stored, rec.CreatedAt)

	rec = decodeDocument("doc-2", map[string]any{"theme": "x", "text": "y", "createdAt": "2025-01-01"}, fixedClock(now))
	assert.Equal(t, now, rec.CreatedAt, "non-timestamp value")

	rec = decodeDocument("doc-3", map[string]any{"theme": "x"}, fixedClock(now))
	assert.Equal(t, now, rec.CreatedAt, "missing value")
	assert.Empty(t, rec.Text)
}

func TestFirestore_ForIdentityNeedsToken(t *testing.T) {
	s := &FirestoreStore{projectID: "demo-haiku", collection: "haikus"}
	_, err := s.ForIdentity(context.Background(), auth.Identity{UID: "local", Anonymous: true})
	assert.ErrorContains(t, err, "no token")
}

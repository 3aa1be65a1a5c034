package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/kalambet/haiku/internal/auth"
	"github.com/kalambet/haiku/internal/haiku"
)

// Firestore field names. createdAt holds a native Firestore timestamp.
const (
	fieldTheme     = "theme"
	fieldText      = "text"
	fieldCreatedAt = "createdAt"
)

var _ IdentityBinder = (*FirestoreStore)(nil)

// FirestoreStore keeps poem records in one Cloud Firestore collection.
type FirestoreStore struct {
	client     *firestore.Client
	projectID  string
	database   string
	collection string
	now        func() time.Time
}

// OpenFirestore connects to the given project and database. Credentials
// come from opts or, when none are given, application default credentials
// (FIRESTORE_EMULATOR_HOST is honoured by the client library).
func OpenFirestore(ctx context.Context, projectID, database, collection string, opts ...option.ClientOption) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore: project id is required")
	}
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	if collection == "" {
		collection = "haikus"
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreStore{
		client:     client,
		projectID:  projectID,
		database:   database,
		collection: collection,
		now:        time.Now,
	}, nil
}

// ForIdentity opens a client on the same collection that authenticates as
// the signed-in user, so Firestore security rules see that user instead of
// the server's credentials. The caller closes the returned store.
func (s *FirestoreStore) ForIdentity(ctx context.Context, id auth.Identity) (Backend, error) {
	if id.TokenSource == nil {
		return nil, fmt.Errorf("firestore: identity %s has no token", id.UID)
	}
	bound, err := OpenFirestore(ctx, s.projectID, s.database, s.collection, option.WithTokenSource(id.TokenSource))
	if err != nil {
		return nil, err
	}
	return bound, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) Append(ctx context.Context, rec haiku.Record) (haiku.Record, error) {
	ref, _, err := s.client.Collection(s.collection).Add(ctx, map[string]any{
		fieldTheme:     rec.Theme,
		fieldText:      rec.Text,
		fieldCreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return haiku.Record{}, persistenceErr("adding document", err)
	}
	rec.ID = ref.ID
	return rec, nil
}

func (s *FirestoreStore) ListAll(ctx context.Context) ([]haiku.Record, error) {
	docs, err := s.client.Collection(s.collection).
		OrderBy(fieldCreatedAt, firestore.Desc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, persistenceErr("querying documents", err)
	}

	out := make([]haiku.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeDocument(doc.Ref.ID, doc.Data(), s.now))
	}
	return out, nil
}

func decodeDocument(id string, data map[string]any, now func() time.Time) haiku.Record {
	rec := haiku.Record{ID: id}
	rec.Theme, _ = data[fieldTheme].(string)
	rec.Text, _ = data[fieldText].(string)
	if t, ok := data[fieldCreatedAt].(time.Time); ok && !t.IsZero() {
		rec.CreatedAt = t
	} else {
		rec.CreatedAt = now()
	}
	return rec
}

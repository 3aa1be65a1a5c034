package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/kalambet/haiku/internal/haiku"
)

var haikuBucket = []byte("haikus")

// BoltStore keeps poem records as JSON documents in a single bbolt file.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
	log *zap.Logger
}

type boltDoc struct {
	Theme     string `json:"theme"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// OpenBolt opens (or creates) haiku.bolt in dataDir. log may be nil.
func OpenBolt(dataDir string, log *zap.Logger) (*BoltStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dataDir, "haiku.bolt"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(haikuBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &BoltStore{db: db, now: time.Now, log: log}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Append(ctx context.Context, rec haiku.Record) (haiku.Record, error) {
	if err := ctx.Err(); err != nil {
		return haiku.Record{}, persistenceErr("appending haiku", err)
	}
	rec.ID = uuid.New().String()
	val, err := json.Marshal(boltDoc{
		Theme:     rec.Theme,
		Text:      rec.Text,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return haiku.Record{}, persistenceErr("encoding haiku", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(haikuBucket).Put([]byte(rec.ID), val)
	})
	if err != nil {
		return haiku.Record{}, persistenceErr("writing haiku", err)
	}
	return rec, nil
}

func (s *BoltStore) ListAll(ctx context.Context) ([]haiku.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, persistenceErr("listing haikus", err)
	}
	var out []haiku.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(haikuBucket).ForEach(func(k, v []byte) error {
			doc, err := decodeBoltDoc(v)
			if err != nil {
				s.log.Warn("skipping unreadable haiku", zap.String("id", string(k)), zap.Error(err))
				return nil
			}
			out = append(out, haiku.Record{
				ID:        string(k),
				Theme:     doc.Theme,
				Text:      doc.Text,
				CreatedAt: parseTimestamp(doc.CreatedAt, s.now),
			})
			return nil
		})
	})
	if err != nil {
		return nil, persistenceErr("reading haikus", err)
	}
	haiku.SortNewestFirst(out)
	return out, nil
}

// decodeBoltDoc reads each field on its own so a value of the wrong type
// only blanks that field. Only a value that is not a JSON object fails.
func decodeBoltDoc(v []byte) (boltDoc, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(v, &fields); err != nil {
		return boltDoc{}, err
	}
	var doc boltDoc
	_ = json.Unmarshal(fields["theme"], &doc.Theme)
	_ = json.Unmarshal(fields["text"], &doc.Text)
	_ = json.Unmarshal(fields["createdAt"], &doc.CreatedAt)
	return doc, nil
}

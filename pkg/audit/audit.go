package audit

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketMigration  = []byte(CategoryMigration)
	bucketResolution = []byte(CategoryResolution)
)

// Audit record categories
const (
	CategoryMigration  = "migration"
	CategoryResolution = "resolution"
)

// Record is one append-only audit entry
type Record struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Action    string            `json:"action"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Store is a BoltDB-backed append-only audit log
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the audit database under dataDir
func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "audit.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketMigration,
			bucketResolution,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes one record into its category bucket. ID and timestamp are
// assigned here; keys sort chronologically so range scans return records in
// append order.
func (s *Store) Append(rec *Record) error {
	if rec.Category != CategoryMigration && rec.Category != CategoryResolution {
		return fmt.Errorf("unknown audit category %q", rec.Category)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(rec.Category))
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%020d-%s", rec.Timestamp.UnixNano(), rec.ID)
		return b.Put([]byte(key), data)
	})
}

// ListByCategory returns all records in a category appended at or after
// since, in chronological order. A zero since returns everything.
func (s *Store) ListByCategory(category string, since time.Time) ([]*Record, error) {
	var records []*Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(category))
		if b == nil {
			return fmt.Errorf("unknown audit category %q", category)
		}
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if !since.IsZero() && rec.Timestamp.Before(since) {
				return nil
			}
			records = append(records, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

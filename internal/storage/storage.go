package storage

import (
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/pkg/logger"
)

var bucketName = []byte("findings")

// HistoryStore provides persistent storage for research findings using BBolt
type HistoryStore struct {
	db *bbolt.DB
}

// Entry is a stored findings record with its ID
type Entry struct {
	ID       string                   `json:"id"`
	Findings *models.ResearchFindings `json:"findings"`
}

// NewHistoryStore creates a new history store with the given database path
func NewHistoryStore(path string) (*HistoryStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	// Create bucket if not exists
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("history store initialized", zap.String("path", path))
	return &HistoryStore{db: db}, nil
}

// Put saves research findings under the given ID
func (s *HistoryStore) Put(id string, findings *models.ResearchFindings) error {
	data, err := json.Marshal(findings)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(id), data)
	})
}

// Get retrieves research findings by ID.
// Returns the findings and true if found, nil and false otherwise.
func (s *HistoryStore) Get(id string) (*models.ResearchFindings, bool) {
	var findings models.ResearchFindings
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &findings)
	})

	if err != nil || !found {
		return nil, false
	}

	return &findings, true
}

// List returns up to limit entries, newest first by timestamp
func (s *HistoryStore) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.ForEach(func(k, v []byte) error {
			var findings models.ResearchFindings
			if err := json.Unmarshal(v, &findings); err != nil {
				// Skip unreadable entries rather than failing the listing
				logger.Warn("skipping corrupt history entry", zap.String("id", string(k)))
				return nil
			}
			entries = append(entries, Entry{ID: string(k), Findings: &findings})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Findings.Timestamp > entries[j].Findings.Timestamp
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Delete removes research findings by ID
func (s *HistoryStore) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Delete([]byte(id))
	})
}

// Clear removes all stored findings
func (s *HistoryStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
}

// Close closes the database connection
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

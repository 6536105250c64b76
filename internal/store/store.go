package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketDomains  = []byte("domains")
	bucketLists    = []byte("lists")
	bucketRequests = []byte("requests")
	bucketTasks    = []byte("tasks")
	bucketCalendar = []byte("calendar")
	bucketEvents   = []byte("events")
)

// ErrNotFound is returned by mutations addressing a missing record
var ErrNotFound = errors.New("not found")

// Store defines the dashboard storage operations.
// Getters return nil, nil when the record does not exist.
type Store interface {
	PutDomain(ctx context.Context, d *Domain) error
	GetDomain(ctx context.Context, mailHost string) (*Domain, error)
	ListDomains(ctx context.Context) ([]*Domain, error)

	PutList(ctx context.Context, l *List) error
	GetList(ctx context.Context, listID string) (*List, error)
	ListLists(ctx context.Context) ([]*List, error)
	UpdateList(ctx context.Context, listID string, fn func(*List) error) error
	DeleteList(ctx context.Context, listID string) error

	PutRequest(ctx context.Context, r *Request) error
	DeleteRequest(ctx context.Context, id string) error
	ListRequests(ctx context.Context, kind Kind) ([]*Request, error)

	PutTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)
	DeleteTask(ctx context.Context, id string) error

	IncrementCalendar(ctx context.Context, date, listID string, kind Kind, n int) error
	CalendarRange(ctx context.Context, from, to string) ([]*CalendarLog, error)

	AddEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, limit int) ([]*Event, error)

	Close() error
}

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if needed) a BoltDB store
func Open(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketDomains, bucketLists, bucketRequests, bucketTasks, bucketCalendar, bucketEvents} {
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

	return &BoltStore{db: db}, nil
}

// Close closes the database connection
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *BoltStore) Path() string {
	return s.db.Path()
}

// Size returns the database file size in bytes
func (s *BoltStore) Size() int64 {
	var size int64
	s.db.View(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size
}

// indexKeyFormat is fixed width so keys sort bytewise within one second
const indexKeyFormat = "2006-01-02T15:04:05.000000000Z"

// makeIndexKey creates a sortable key from timestamp and ID
func makeIndexKey(t time.Time, id string) []byte {
	return []byte(t.UTC().Format(indexKeyFormat) + ":" + id)
}

// calendarKey orders calendar logs by date first
func calendarKey(date string, kind Kind, listID string) []byte {
	return []byte(date + "|" + string(kind) + "|" + listID)
}

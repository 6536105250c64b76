// Package dashboard implements the administrator dashboard: access rules,
// task synchronisation, search, statistics and task management.
package dashboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/foxzi/listdash/internal/store"
)

// User is the authenticated dashboard user
type User struct {
	Email     string
	Superuser bool
}

// Options configures a Service
type Options struct {
	StatsDays int            // Days covered by the statistics widget (default 31)
	Location  *time.Location // Calendar day boundaries (default time.Local)
	Now       func() time.Time
}

// Service implements the dashboard operations over a store
type Service struct {
	store     store.Store
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
	statsDays int
	forms     *formValidator

	// syncMu serialises task synchronisation between page loads and the Syncer
	syncMu sync.Mutex
}

// New creates a dashboard service
func New(st store.Store, opts Options, logger *slog.Logger) *Service {
	if opts.StatsDays <= 0 {
		opts.StatsDays = 31
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     st,
		logger:    logger,
		now:       opts.Now,
		loc:       opts.Location,
		statsDays: opts.StatsDays,
		forms:     newFormValidator(),
	}
}

// Store returns the underlying store
func (s *Service) Store() store.Store {
	return s.store
}

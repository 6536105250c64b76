package dashboard

import (
	"context"
	"fmt"

	"github.com/foxzi/listdash/internal/exchange"
	"github.com/foxzi/listdash/internal/store"
)

// EventView is an event prepared for display
type EventView struct {
	*store.Event
	When string
}

// Page is everything the dashboard page shows
type Page struct {
	User   User
	Tasks  []TaskView
	Lists  []*store.List
	Events []EventView
	Stats  *exchange.StatsResponse
}

// maxEvents bounds the event stream on the page
const maxEvents = 50

// Load synchronises the tasks and assembles the dashboard for u.
// It returns ErrForbidden when u neither owns nor moderates any list.
func (s *Service) Load(ctx context.Context, u User) (*Page, error) {
	all, err := s.store.ListLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	if !HasControlAccess(u, all) {
		return nil, fmt.Errorf("%s has no control access: %w", u.Email, ErrForbidden)
	}

	if _, err := s.SyncTasks(ctx); err != nil {
		return nil, err
	}

	tasks, err := s.Tasks(ctx, u)
	if err != nil {
		return nil, err
	}
	events, err := s.Events(ctx, u)
	if err != nil {
		return nil, err
	}
	stats, err := s.PageStats(ctx, u)
	if err != nil {
		return nil, err
	}

	return &Page{
		User:   u,
		Tasks:  tasks,
		Lists:  AllowedLists(u, all),
		Events: events,
		Stats:  stats,
	}, nil
}

// Events returns the newest events visible to u
func (s *Service) Events(ctx context.Context, u User) ([]EventView, error) {
	lists, err := s.store.ListLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	events, err := s.store.ListEvents(ctx, maxEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	now := s.now()
	allowed := EventsAllowed(u, events, lists)
	out := make([]EventView, len(allowed))
	for i, e := range allowed {
		out[i] = EventView{Event: e, When: RelativeTime(now, e.MadeOn)}
	}
	return out, nil
}

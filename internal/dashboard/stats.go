package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/foxzi/listdash/internal/exchange"
	"github.com/foxzi/listdash/internal/metrics"
	"github.com/foxzi/listdash/internal/store"
)

// Window returns the dates covered by the statistics widget, oldest first,
// ending today
func (s *Service) Window() []string {
	today := s.today()
	dates := make([]string, s.statsDays)
	for i := 0; i < s.statsDays; i++ {
		dates[s.statsDays-1-i] = today.AddDate(0, 0, -i).Format(store.DateFormat)
	}
	return dates
}

// Stats returns per-day moderation and subscription counts for the selected
// lists. Lists u does not administer are ignored. Every day of the window is
// present in both series, zero when nothing happened.
func (s *Service) Stats(ctx context.Context, u User, selected []string) (*exchange.StatsResponse, error) {
	lists, err := s.Lists(ctx, u)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(lists))
	for _, l := range lists {
		allowed[l.ListID] = true
	}
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		if allowed[id] {
			want[id] = true
		}
	}

	resp, err := s.statsFor(ctx, want)
	if err != nil {
		return nil, err
	}
	metrics.IncStatsRequests()
	return resp, nil
}

// PageStats returns the statistics over every list u administers
func (s *Service) PageStats(ctx context.Context, u User) (*exchange.StatsResponse, error) {
	lists, err := s.Lists(ctx, u)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(lists))
	for _, l := range lists {
		want[l.ListID] = true
	}
	return s.statsFor(ctx, want)
}

func (s *Service) statsFor(ctx context.Context, lists map[string]bool) (*exchange.StatsResponse, error) {
	dates := s.Window()
	resp := &exchange.StatsResponse{
		Subs: make(map[string]int, len(dates)),
		Mods: make(map[string]int, len(dates)),
	}
	for _, d := range dates {
		resp.Subs[d] = 0
		resp.Mods[d] = 0
	}
	if len(lists) == 0 {
		return resp, nil
	}

	logs, err := s.store.CalendarRange(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}
	for _, l := range logs {
		if !lists[l.ListID] {
			continue
		}
		switch l.Kind {
		case store.KindSubscription:
			resp.Subs[l.Date] += l.Count
		case store.KindModeration:
			resp.Mods[l.Date] += l.Count
		}
	}
	return resp, nil
}

// today returns the current calendar day
func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDomains(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, host := range []string{"example.org", "example.com"} {
		if err := s.PutDomain(ctx, &Domain{MailHost: host, BaseURL: "http://" + host}); err != nil {
			t.Fatalf("PutDomain() error = %v", err)
		}
	}

	got, err := s.GetDomain(ctx, "example.com")
	if err != nil {
		t.Fatalf("GetDomain() error = %v", err)
	}
	if got == nil || got.BaseURL != "http://example.com" {
		t.Errorf("GetDomain() = %+v", got)
	}

	missing, err := s.GetDomain(ctx, "nope.example")
	if err != nil {
		t.Fatalf("GetDomain() error = %v", err)
	}
	if missing != nil {
		t.Error("GetDomain() expected nil for missing domain")
	}

	domains, err := s.ListDomains(ctx)
	if err != nil {
		t.Fatalf("ListDomains() error = %v", err)
	}
	if len(domains) != 2 || domains[0].MailHost != "example.com" {
		t.Errorf("ListDomains() = %+v, want 2 domains ordered by host", domains)
	}
}

func TestListsAndRosters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	l := &List{
		ListID:       "testlist.example.com",
		FQDNListname: "testlist@example.com",
		DisplayName:  "Testlist",
		MailHost:     "example.com",
	}
	if err := s.PutList(ctx, l); err != nil {
		t.Fatalf("PutList() error = %v", err)
	}

	err := s.UpdateList(ctx, l.ListID, func(l *List) error {
		if err := AddToRoster(l, RoleOwner, "owner@example.com"); err != nil {
			return err
		}
		if err := AddToRoster(l, RoleSubscriber, "b@example.com"); err != nil {
			return err
		}
		if err := AddToRoster(l, RoleSubscriber, "a@example.com"); err != nil {
			return err
		}
		return AddToRoster(l, RoleSubscriber, "A@example.com")
	})
	if err != nil {
		t.Fatalf("UpdateList() error = %v", err)
	}

	got, err := s.GetList(ctx, l.ListID)
	if err != nil {
		t.Fatalf("GetList() error = %v", err)
	}
	if !got.IsOwner("OWNER@example.com") {
		t.Error("IsOwner() = false, want true")
	}
	if len(got.Members) != 2 || got.Members[0] != "a@example.com" {
		t.Errorf("Members = %v, want [a@example.com b@example.com]", got.Members)
	}

	err = s.UpdateList(ctx, l.ListID, func(l *List) error {
		return RemoveFromRoster(l, RoleModerator, "owner@example.com")
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveFromRoster() error = %v, want ErrNotFound", err)
	}

	err = s.UpdateList(ctx, "missing.example.com", func(l *List) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateList() error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteList(ctx, l.ListID); err != nil {
		t.Fatalf("DeleteList() error = %v", err)
	}
	if got, _ := s.GetList(ctx, l.ListID); got != nil {
		t.Error("DeleteList() list still exists")
	}
}

func TestRequests(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	reqs := []*Request{
		{ID: "2", Kind: KindSubscription, ListID: "l.example.com", Email: "b@example.com", CreatedAt: now},
		{ID: "1", Kind: KindModeration, ListID: "l.example.com", Email: "a@example.com", CreatedAt: now.Add(-time.Hour)},
		{ID: "3", Kind: KindSubscription, ListID: "l.example.com", Email: "c@example.com", CreatedAt: now.Add(-2 * time.Hour)},
	}
	for _, r := range reqs {
		if err := s.PutRequest(ctx, r); err != nil {
			t.Fatalf("PutRequest() error = %v", err)
		}
	}

	subs, err := s.ListRequests(ctx, KindSubscription)
	if err != nil {
		t.Fatalf("ListRequests() error = %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "3" || subs[1].ID != "2" {
		t.Errorf("ListRequests(subscription) = %+v, want [3 2]", subs)
	}

	all, _ := s.ListRequests(ctx, "")
	if len(all) != 3 {
		t.Errorf("ListRequests(all) returned %d, want 3", len(all))
	}

	if err := s.DeleteRequest(ctx, "1"); err != nil {
		t.Fatalf("DeleteRequest() error = %v", err)
	}
	if err := s.DeleteRequest(ctx, "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRequest() error = %v, want ErrNotFound", err)
	}
}

func TestTasks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	task := &Task{ID: "manual-1", Kind: KindManual, UserEmail: "me@example.com", MadeOn: now, Priority: PriorityNone, Subject: "Reminder"}
	if err := s.PutTask(ctx, task); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}
	older := &Task{ID: "subscription-9", Kind: KindSubscription, MadeOn: now.Add(-time.Minute)}
	if err := s.PutTask(ctx, older); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}

	got, err := s.GetTask(ctx, "manual-1")
	if err != nil || got == nil {
		t.Fatalf("GetTask() = %v, %v", got, err)
	}
	if got.Subject != "Reminder" {
		t.Errorf("GetTask().Subject = %q, want Reminder", got.Subject)
	}

	tasks, _ := s.ListTasks(ctx)
	if len(tasks) != 2 || tasks[0].ID != "subscription-9" {
		t.Errorf("ListTasks() = %+v, want oldest first", tasks)
	}

	if err := s.DeleteTask(ctx, "manual-1"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if got, _ := s.GetTask(ctx, "manual-1"); got != nil {
		t.Error("DeleteTask() task still exists")
	}
}

func TestCalendar(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	steps := []struct {
		date string
		list string
		kind Kind
	}{
		{"2020-01-01", "a.example.com", KindSubscription},
		{"2020-01-01", "a.example.com", KindSubscription},
		{"2020-01-02", "b.example.com", KindModeration},
		{"2020-01-03", "a.example.com", KindModeration},
		{"2019-12-31", "a.example.com", KindModeration},
	}
	for _, st := range steps {
		if err := s.IncrementCalendar(ctx, st.date, st.list, st.kind, 1); err != nil {
			t.Fatalf("IncrementCalendar() error = %v", err)
		}
	}

	logs, err := s.CalendarRange(ctx, "2020-01-01", "2020-01-02")
	if err != nil {
		t.Fatalf("CalendarRange() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("CalendarRange() returned %d logs, want 2: %+v", len(logs), logs)
	}
	if logs[0].Date != "2020-01-01" || logs[0].Count != 2 {
		t.Errorf("logs[0] = %+v, want 2020-01-01 count 2", logs[0])
	}
	if logs[1].Date != "2020-01-02" || logs[1].Kind != KindModeration {
		t.Errorf("logs[1] = %+v, want 2020-01-02 moderation", logs[1])
	}
}

func TestEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"first", "second", "third"} {
		e := &Event{ID: name, Event: "subscription request", MadeOn: base.Add(time.Duration(i) * time.Minute)}
		if err := s.AddEvent(ctx, e); err != nil {
			t.Fatalf("AddEvent() error = %v", err)
		}
	}

	events, err := s.ListEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].ID != "third" || events[1].ID != "second" {
		t.Errorf("ListEvents(2) = %+v, want [third second]", events)
	}
}

func TestEventsWithinOneSecond(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)

	// 120ms formats shorter than 123.456789ms without fixed-width keys
	older := &Event{ID: "older", Event: "moderation-accept", MadeOn: base.Add(120 * time.Millisecond)}
	newer := &Event{ID: "newer", Event: "moderation-accept", MadeOn: base.Add(123456789 * time.Nanosecond)}
	for _, e := range []*Event{older, newer} {
		if err := s.AddEvent(ctx, e); err != nil {
			t.Fatalf("AddEvent() error = %v", err)
		}
	}

	events, err := s.ListEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].ID != "newer" || events[1].ID != "older" {
		t.Errorf("ListEvents() = %+v, want [newer older]", events)
	}
}

func TestMakeIndexKeySortable(t *testing.T) {
	base := time.Date(2020, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	a := string(makeIndexKey(base, "a"))
	b := string(makeIndexKey(base.Add(time.Nanosecond), "a"))
	c := string(makeIndexKey(base.Add(time.Second), "a"))
	if !(a < b && b < c) {
		t.Errorf("keys not ordered: %q %q %q", a, b, c)
	}
	if a != "2020-01-01T11:00:00.000000000Z:a" {
		t.Errorf("makeIndexKey() = %q", a)
	}
}

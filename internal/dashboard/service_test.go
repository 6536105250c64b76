package dashboard

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/foxzi/listdash/internal/store"
)

var testNow = time.Date(2020, 1, 31, 12, 0, 0, 0, time.UTC)

var (
	superuser = User{Email: "admin@example.com", Superuser: true}
	owner     = User{Email: "owner@example.com"}
	moderator = User{Email: "mod@example.com"}
	outsider  = User{Email: "nobody@example.com"}
)

func newTestService(t *testing.T) (*Service, *store.BoltStore) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(st, Options{StatsDays: 31, Location: time.UTC, Now: func() time.Time { return testNow }}, logger)
	return svc, st
}

// seed creates two domains and two lists:
// alpha owned by owner@ and moderated by mod@, beta owned by other@.
func seed(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()

	for _, d := range []*store.Domain{
		{MailHost: "example.com", BaseURL: "http://example.com"},
		{MailHost: "lists.example.org", BaseURL: "https://lists.example.org"},
	} {
		if err := st.PutDomain(ctx, d); err != nil {
			t.Fatalf("PutDomain() error = %v", err)
		}
	}

	lists := []*store.List{
		{
			ListID:       "alpha.example.com",
			FQDNListname: "alpha@example.com",
			DisplayName:  "Alpha",
			MailHost:     "example.com",
			Owners:       []string{"owner@example.com"},
			Moderators:   []string{"mod@example.com"},
			Members:      []string{"ann@example.com", "Bob@Example.com"},
		},
		{
			ListID:       "beta.example.com",
			FQDNListname: "beta@example.com",
			DisplayName:  "Beta",
			MailHost:     "example.com",
			Owners:       []string{"other@example.com"},
			Members:      []string{"bob@example.com"},
		},
	}
	for _, l := range lists {
		if err := st.PutList(ctx, l); err != nil {
			t.Fatalf("PutList() error = %v", err)
		}
	}
}

func addRequest(t *testing.T, st store.Store, id string, kind store.Kind, listID, email string, at time.Time) {
	t.Helper()
	r := &store.Request{ID: id, Kind: kind, ListID: listID, Email: email, Subject: "subject " + id, CreatedAt: at}
	if err := st.PutRequest(context.Background(), r); err != nil {
		t.Fatalf("PutRequest() error = %v", err)
	}
}

func taskIDs(views []TaskView) []string {
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

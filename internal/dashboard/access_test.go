package dashboard

import (
	"testing"

	"github.com/foxzi/listdash/internal/store"
)

func testLists() []*store.List {
	return []*store.List{
		{ListID: "alpha.example.com", Owners: []string{"owner@example.com"}, Moderators: []string{"mod@example.com"}},
		{ListID: "beta.example.com", Owners: []string{"other@example.com"}},
	}
}

func TestHasControlAccess(t *testing.T) {
	lists := testLists()

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"superuser", superuser, true},
		{"owner", owner, true},
		{"moderator", moderator, true},
		{"owner case-insensitive", User{Email: "OWNER@example.com"}, true},
		{"outsider", outsider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasControlAccess(tt.user, lists); got != tt.want {
				t.Errorf("HasControlAccess() = %v, want %v", got, tt.want)
			}
		})
	}

	if HasControlAccess(superuser, nil) != true {
		t.Error("superuser without lists should have access")
	}
}

func TestAllowedLists(t *testing.T) {
	lists := testLists()

	if got := AllowedLists(superuser, lists); len(got) != 2 {
		t.Errorf("superuser allowed %d lists, want 2", len(got))
	}
	if got := AllowedLists(moderator, lists); len(got) != 1 || got[0].ListID != "alpha.example.com" {
		t.Errorf("moderator allowed %+v, want alpha only", got)
	}
	if got := AllowedLists(outsider, lists); len(got) != 0 {
		t.Errorf("outsider allowed %d lists, want 0", len(got))
	}
}

func TestFilterTasksByRole(t *testing.T) {
	lists := testLists()
	tasks := []*store.Task{
		{ID: "subscription-1", Kind: store.KindSubscription, ListID: "alpha.example.com"},
		{ID: "moderation-2", Kind: store.KindModeration, ListID: "alpha.example.com"},
		{ID: "moderation-3", Kind: store.KindModeration, ListID: "beta.example.com"},
		{ID: "manual-owner", Kind: store.KindManual, UserEmail: "owner@example.com"},
		{ID: "manual-admin", Kind: store.KindManual, UserEmail: "admin@example.com"},
		{ID: "subscription-4", Kind: store.KindSubscription, ListID: "gone.example.com"},
	}

	ids := func(ts []*store.Task) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = t.ID
		}
		return out
	}

	tests := []struct {
		name string
		user User
		want []string
	}{
		{"owner", owner, []string{"subscription-1", "moderation-2", "manual-owner"}},
		{"moderator", moderator, []string{"moderation-2"}},
		{"superuser", superuser, []string{"subscription-1", "moderation-2", "moderation-3", "manual-admin", "subscription-4"}},
		{"outsider", outsider, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterTasksByRole(tt.user, tasks, lists))
			if !equalStrings(got, tt.want) {
				t.Errorf("FilterTasksByRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventsAllowed(t *testing.T) {
	lists := testLists()
	events := []*store.Event{
		{ID: "1", Event: "subscription-reject"},
		{ID: "2", Event: "moderation-accept"},
		{ID: "3", Event: "owner-removal"},
	}

	if got := EventsAllowed(superuser, events, lists); len(got) != 3 {
		t.Errorf("superuser sees %d events, want 3", len(got))
	}
	if got := EventsAllowed(owner, events, lists); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("owner sees %+v, want subscription event only", got)
	}
	if got := EventsAllowed(moderator, events, lists); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("moderator sees %+v, want moderation event only", got)
	}
	if got := EventsAllowed(outsider, events, lists); len(got) != 0 {
		t.Errorf("outsider sees %d events, want 0", len(got))
	}
}

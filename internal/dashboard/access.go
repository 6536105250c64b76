package dashboard

import (
	"strings"

	"github.com/foxzi/listdash/internal/store"
)

// HasControlAccess reports whether u may open the dashboard: superusers and
// anyone owning or moderating at least one list.
func HasControlAccess(u User, lists []*store.List) bool {
	if u.Superuser {
		return true
	}
	for _, l := range lists {
		if l.IsOwner(u.Email) || l.IsModerator(u.Email) {
			return true
		}
	}
	return false
}

// AllowedLists returns the lists u owns or moderates; superusers get all
func AllowedLists(u User, lists []*store.List) []*store.List {
	if u.Superuser {
		return lists
	}
	allowed := make([]*store.List, 0, len(lists))
	for _, l := range lists {
		if l.IsOwner(u.Email) || l.IsModerator(u.Email) {
			allowed = append(allowed, l)
		}
	}
	return allowed
}

// FilterTasksByRole returns the tasks visible to u, keeping their order.
// Owners see subscription tasks, owners and moderators see moderation
// tasks, everybody sees their own manual tasks. Superusers see every
// non-manual task.
func FilterTasksByRole(u User, tasks []*store.Task, lists []*store.List) []*store.Task {
	byID := make(map[string]*store.List, len(lists))
	for _, l := range lists {
		byID[l.ListID] = l
	}

	visible := make([]*store.Task, 0, len(tasks))
	for _, t := range tasks {
		if canSeeTask(u, t, byID[t.ListID]) {
			visible = append(visible, t)
		}
	}
	return visible
}

func canSeeTask(u User, t *store.Task, l *store.List) bool {
	if t.Kind == store.KindManual {
		return strings.EqualFold(t.UserEmail, u.Email)
	}
	if u.Superuser {
		return true
	}
	if l == nil {
		return false
	}
	switch t.Kind {
	case store.KindSubscription:
		return l.IsOwner(u.Email)
	case store.KindModeration:
		return l.IsOwner(u.Email) || l.IsModerator(u.Email)
	}
	return false
}

// EventsAllowed filters the event stream: moderators see moderation events,
// owners see subscription events, superusers see everything.
func EventsAllowed(u User, events []*store.Event, lists []*store.List) []*store.Event {
	if u.Superuser {
		return events
	}

	var isOwner, isModerator bool
	for _, l := range lists {
		isOwner = isOwner || l.IsOwner(u.Email)
		isModerator = isModerator || l.IsModerator(u.Email)
	}

	allowed := make([]*store.Event, 0, len(events))
	for _, e := range events {
		switch {
		case strings.Contains(e.Event, string(store.KindModeration)) && isModerator:
			allowed = append(allowed, e)
		case strings.Contains(e.Event, string(store.KindSubscription)) && isOwner:
			allowed = append(allowed, e)
		}
	}
	return allowed
}

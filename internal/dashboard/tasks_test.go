package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/foxzi/listdash/internal/store"
)

func TestSyncTasks(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	addRequest(t, st, "1", store.KindSubscription, "alpha.example.com", "ann@example.com", testNow.Add(-time.Hour))
	addRequest(t, st, "2", store.KindModeration, "alpha.example.com", "bob@example.com", testNow.Add(-48*time.Hour))
	addRequest(t, st, "3", store.KindModeration, "alpha.example.com", "cat@example.com", testNow.Add(-48*time.Hour))

	res, err := svc.SyncTasks(ctx)
	if err != nil {
		t.Fatalf("SyncTasks() error = %v", err)
	}
	if res.Created != 3 || res.Removed != 0 {
		t.Errorf("SyncTasks() = %+v, want 3 created", res)
	}

	// A second run must not duplicate tasks nor counters
	res, err = svc.SyncTasks(ctx)
	if err != nil {
		t.Fatalf("SyncTasks() error = %v", err)
	}
	if res.Created != 0 || res.Removed != 0 {
		t.Errorf("second SyncTasks() = %+v, want no changes", res)
	}

	logs, err := st.CalendarRange(ctx, "2020-01-29", "2020-01-29")
	if err != nil {
		t.Fatalf("CalendarRange() error = %v", err)
	}
	if len(logs) != 1 || logs[0].Kind != store.KindModeration || logs[0].Count != 2 {
		t.Errorf("calendar 2020-01-29 = %+v, want one moderation log with count 2", logs)
	}

	if _, err := svc.CreateManualTask(ctx, owner, ManualTaskForm{Subject: "Reminder"}); err != nil {
		t.Fatalf("CreateManualTask() error = %v", err)
	}
	if err := st.DeleteRequest(ctx, "2"); err != nil {
		t.Fatalf("DeleteRequest() error = %v", err)
	}

	res, err = svc.SyncTasks(ctx)
	if err != nil {
		t.Fatalf("SyncTasks() error = %v", err)
	}
	if res.Removed != 1 {
		t.Errorf("SyncTasks() removed %d, want 1", res.Removed)
	}

	tasks, _ := st.ListTasks(ctx)
	if len(tasks) != 3 {
		t.Fatalf("tasks after sync = %d, want 3 (2 requests + manual)", len(tasks))
	}
	for _, task := range tasks {
		if task.ID == "moderation-2" {
			t.Error("task of resolved request was not removed")
		}
	}
}

func TestTasksOrderedByPriority(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	addRequest(t, st, "1", store.KindSubscription, "alpha.example.com", "ann@example.com", testNow.Add(-3*time.Hour))
	addRequest(t, st, "2", store.KindSubscription, "alpha.example.com", "bob@example.com", testNow.Add(-2*time.Hour))
	addRequest(t, st, "3", store.KindModeration, "alpha.example.com", "cat@example.com", testNow.Add(-time.Hour))
	if _, err := svc.SyncTasks(ctx); err != nil {
		t.Fatalf("SyncTasks() error = %v", err)
	}
	if _, err := svc.SetPriority(ctx, owner, "subscription-1", int(store.PriorityHigh)); err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}

	views, err := svc.Tasks(ctx, owner)
	if err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	want := []string{"subscription-1", "moderation-3", "subscription-2"}
	if got := taskIDs(views); !equalStrings(got, want) {
		t.Errorf("Tasks() = %v, want %v", got, want)
	}
	if views[0].When != "3 hours ago" {
		t.Errorf("When = %q, want 3 hours ago", views[0].When)
	}
	if views[0].Title != "Subscription Request from Ann in Alpha" {
		t.Errorf("Title = %q", views[0].Title)
	}

	byDate, err := svc.ReorderTasks(ctx, owner, "made_on")
	if err != nil {
		t.Fatalf("ReorderTasks() error = %v", err)
	}
	want = []string{"moderation-3", "subscription-2", "subscription-1"}
	if got := taskIDs(byDate); !equalStrings(got, want) {
		t.Errorf("ReorderTasks(made_on) = %v, want %v", got, want)
	}

	if _, err := svc.ReorderTasks(ctx, owner, "user_email"); !errors.Is(err, ErrInvalid) {
		t.Errorf("ReorderTasks(user_email) error = %v, want ErrInvalid", err)
	}
}

func TestSearchTasks(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	addRequest(t, st, "1", store.KindSubscription, "alpha.example.com", "ann@example.com", testNow.Add(-time.Hour))
	addRequest(t, st, "2", store.KindModeration, "alpha.example.com", "Bob@example.com", testNow.Add(-time.Hour))
	if _, err := svc.SyncTasks(ctx); err != nil {
		t.Fatalf("SyncTasks() error = %v", err)
	}
	if _, err := svc.CreateManualTask(ctx, owner, ManualTaskForm{Subject: "Call the hosting company"}); err != nil {
		t.Fatalf("CreateManualTask() error = %v", err)
	}
	if _, err := svc.SetPriority(ctx, owner, "moderation-2", int(store.PriorityLow)); err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}

	tests := []struct {
		query string
		want  int
		kind  store.Kind
	}{
		{"Moderation", 1, store.KindModeration},
		{"subscription tasks", 1, store.KindSubscription},
		{"my reminder", 1, store.KindManual},
		{"priority low", 1, store.KindModeration},
		{"priority", 2, ""},
		{"BOB", 1, store.KindModeration},
		{"nobody", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.SearchTasks(ctx, owner, tt.query)
			if err != nil {
				t.Fatalf("SearchTasks() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("SearchTasks(%q) = %v, want %d tasks", tt.query, taskIDs(got), tt.want)
			}
			if tt.kind != "" && got[0].Kind != tt.kind {
				t.Errorf("SearchTasks(%q) kind = %s, want %s", tt.query, got[0].Kind, tt.kind)
			}
		})
	}
}

func TestSetPriority(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	addRequest(t, st, "1", store.KindSubscription, "alpha.example.com", "ann@example.com", testNow)
	if _, err := svc.SyncTasks(ctx); err != nil {
		t.Fatalf("SyncTasks() error = %v", err)
	}

	task, err := svc.SetPriority(ctx, owner, "subscription-1", 0)
	if err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}
	if task.Priority != store.PriorityMedium {
		t.Errorf("Priority = %d, want medium", task.Priority)
	}

	task, err = svc.SetPriority(ctx, owner, "subscription-1", 0)
	if err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}
	if task.Priority != store.PriorityNone {
		t.Errorf("repeated SetPriority() = %d, want none", task.Priority)
	}

	if _, err := svc.SetPriority(ctx, owner, "subscription-1", 5); !errors.Is(err, ErrInvalid) {
		t.Errorf("SetPriority(5) error = %v, want ErrInvalid", err)
	}
	if _, err := svc.SetPriority(ctx, moderator, "subscription-1", 1); !errors.Is(err, ErrForbidden) {
		t.Errorf("moderator SetPriority() error = %v, want ErrForbidden", err)
	}
	if _, err := svc.SetPriority(ctx, owner, "subscription-99", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPriority(missing) error = %v, want ErrNotFound", err)
	}
}

func TestManualTasks(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	_, err := svc.CreateManualTask(ctx, owner, ManualTaskForm{Subject: "   "})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("CreateManualTask(blank) error = %v, want ErrInvalid", err)
	}
	if !strings.Contains(err.Error(), "mtask_subject") {
		t.Errorf("error %q does not name the field", err)
	}

	_, err = svc.CreateManualTask(ctx, owner, ManualTaskForm{Subject: strings.Repeat("x", 101)})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("CreateManualTask(long) error = %v, want ErrInvalid", err)
	}

	task, err := svc.CreateManualTask(ctx, owner, ManualTaskForm{Subject: " Renew certificate ", Description: "before Friday"})
	if err != nil {
		t.Fatalf("CreateManualTask() error = %v", err)
	}
	if task.Subject != "Renew certificate" || task.Priority != store.PriorityNone || task.UserEmail != owner.Email {
		t.Errorf("task = %+v", task)
	}
	if TaskTitle(task) != "Renew certificate" {
		t.Errorf("TaskTitle() = %q", TaskTitle(task))
	}

	if err := svc.DiscardManualTask(ctx, moderator, task.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DiscardManualTask(other user) error = %v, want ErrForbidden", err)
	}
	if err := svc.DiscardManualTask(ctx, owner, task.ID); err != nil {
		t.Fatalf("DiscardManualTask() error = %v", err)
	}
	if err := svc.DiscardManualTask(ctx, owner, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DiscardManualTask(again) error = %v, want ErrNotFound", err)
	}

	addRequest(t, st, "1", store.KindSubscription, "alpha.example.com", "ann@example.com", testNow)
	if _, err := svc.SyncTasks(ctx); err != nil {
		t.Fatalf("SyncTasks() error = %v", err)
	}
	if err := svc.DiscardManualTask(ctx, owner, "subscription-1"); !errors.Is(err, ErrInvalid) {
		t.Errorf("DiscardManualTask(subscription) error = %v, want ErrInvalid", err)
	}
}

func TestRemoveRole(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	if err := svc.RemoveRole(ctx, moderator, "alpha.example.com", store.RoleSubscriber, "ann@example.com"); !errors.Is(err, ErrForbidden) {
		t.Errorf("moderator RemoveRole() error = %v, want ErrForbidden", err)
	}
	if err := svc.RemoveRole(ctx, owner, "alpha.example.com", store.RoleOwner, "ann@example.com"); !errors.Is(err, ErrInvalid) {
		t.Errorf("RemoveRole(not an owner) error = %v, want ErrInvalid", err)
	}
	if err := svc.RemoveRole(ctx, owner, "gone.example.com", store.RoleOwner, "ann@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveRole(missing list) error = %v, want ErrNotFound", err)
	}
	if err := svc.RemoveRole(ctx, owner, "alpha.example.com", "admin", "ann@example.com"); !errors.Is(err, ErrInvalid) {
		t.Errorf("RemoveRole(bad role) error = %v, want ErrInvalid", err)
	}

	if err := svc.RemoveRole(ctx, owner, "alpha.example.com", store.RoleModerator, "MOD@example.com"); err != nil {
		t.Fatalf("RemoveRole() error = %v", err)
	}
	l, _ := st.GetList(ctx, "alpha.example.com")
	if l.IsModerator("mod@example.com") {
		t.Error("moderator still present after RemoveRole")
	}

	events, _ := st.ListEvents(ctx, 10)
	if len(events) != 1 || events[0].Event != "moderator-removal" || events[0].Op != owner.Email {
		t.Errorf("events = %+v, want one moderator-removal by owner", events)
	}
}

func TestResolveRequest(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	addRequest(t, st, "7", store.KindSubscription, "alpha.example.com", "ann@example.com", testNow)

	if err := svc.ResolveRequest(ctx, "api", "7", "explode"); !errors.Is(err, ErrInvalid) {
		t.Errorf("ResolveRequest(bad action) error = %v, want ErrInvalid", err)
	}
	if err := svc.ResolveRequest(ctx, "api", "7", "reject"); err != nil {
		t.Fatalf("ResolveRequest() error = %v", err)
	}
	if err := svc.ResolveRequest(ctx, "api", "7", "reject"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveRequest(again) error = %v, want ErrNotFound", err)
	}

	views, err := svc.Events(ctx, owner)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(views) != 1 || views[0].Event.Event != "subscription-reject" || views[0].When != "Just Now" {
		t.Errorf("Events() = %+v, want one subscription-reject", views)
	}
}

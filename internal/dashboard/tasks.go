package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/foxzi/listdash/internal/metrics"
	"github.com/foxzi/listdash/internal/store"
)

// TaskView is a task prepared for display
type TaskView struct {
	*store.Task
	Title string // One-line summary
	When  string // Relative age, see RelativeTime
}

// SyncResult reports the changes made by SyncTasks
type SyncResult struct {
	Created int
	Removed int
}

// SyncTasks brings the task list in line with the pending requests: every
// request gets exactly one task, and tasks whose request is gone are
// removed. Manual tasks are never touched. Each new task counts towards
// the calendar day of its request.
func (s *Service) SyncTasks(ctx context.Context) (*SyncResult, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	requests, err := s.store.ListRequests(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	existing := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		existing[t.ID] = true
	}

	res := &SyncResult{}
	current := make(map[string]bool, len(requests))
	pending := make(map[store.Kind]int)
	for _, r := range requests {
		id := store.TaskIDForRequest(r)
		current[id] = true
		pending[r.Kind]++
		if existing[id] {
			continue
		}

		t := &store.Task{
			ID:        id,
			Kind:      r.Kind,
			RequestID: r.ID,
			ListID:    r.ListID,
			UserEmail: r.Email,
			MadeOn:    r.CreatedAt,
			Priority:  store.PriorityNone,
			Subject:   r.Subject,
		}
		if err := s.store.PutTask(ctx, t); err != nil {
			return res, fmt.Errorf("failed to create task %s: %w", id, err)
		}
		date := r.CreatedAt.In(s.loc).Format(store.DateFormat)
		if err := s.store.IncrementCalendar(ctx, date, r.ListID, r.Kind, 1); err != nil {
			return res, fmt.Errorf("failed to update calendar: %w", err)
		}
		metrics.AddTasksCreated(string(r.Kind), 1)
		res.Created++
	}

	counts := make(map[store.Kind]int)
	for _, t := range tasks {
		if t.Kind != store.KindManual && !current[t.ID] {
			if err := s.store.DeleteTask(ctx, t.ID); err != nil {
				return res, fmt.Errorf("failed to remove task %s: %w", t.ID, err)
			}
			metrics.AddTasksRemoved(string(t.Kind), 1)
			res.Removed++
			continue
		}
		counts[t.Kind]++
	}
	for _, kind := range []store.Kind{store.KindModeration, store.KindSubscription} {
		metrics.SetPendingRequests(string(kind), pending[kind])
		metrics.SetTasks(string(kind), pending[kind])
	}
	metrics.SetTasks(string(store.KindManual), counts[store.KindManual])

	if res.Created > 0 || res.Removed > 0 {
		s.logger.Info("tasks synchronised", "created", res.Created, "removed", res.Removed)
	}
	return res, nil
}

// visibleTasks loads the tasks u may see, in store order
func (s *Service) visibleTasks(ctx context.Context, u User) ([]*store.Task, error) {
	lists, err := s.store.ListLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return FilterTasksByRole(u, tasks, lists), nil
}

// Tasks returns the tasks visible to u, highest priority first
func (s *Service) Tasks(ctx context.Context, u User) ([]TaskView, error) {
	tasks, err := s.visibleTasks(ctx, u)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return tasks[i].MadeOn.After(tasks[j].MadeOn)
	})
	return s.views(tasks), nil
}

// SearchTasks filters the visible tasks by keyword. "moderation",
// "subscription" and "manual" (or "self", "reminder") select a kind;
// "priority high|medium|low" selects a priority, "priority" alone selects
// unprioritised tasks. Anything else matches the task's email.
func (s *Service) SearchTasks(ctx context.Context, u User, query string) ([]TaskView, error) {
	tasks, err := s.visibleTasks(ctx, u)
	if err != nil {
		return nil, err
	}

	lower := cases.Lower(language.Und)
	q := lower.String(strings.TrimSpace(query))
	var match func(*store.Task) bool
	switch {
	case strings.Contains(q, "moderation"):
		match = func(t *store.Task) bool { return t.Kind == store.KindModeration }
	case strings.Contains(q, "subscription"):
		match = func(t *store.Task) bool { return t.Kind == store.KindSubscription }
	case strings.Contains(q, "manual"), strings.Contains(q, "self"), strings.Contains(q, "reminder"):
		match = func(t *store.Task) bool { return t.Kind == store.KindManual }
	case strings.Contains(q, "priority"):
		p := store.PriorityNone
		switch {
		case strings.Contains(q, "high"):
			p = store.PriorityHigh
		case strings.Contains(q, "medium"):
			p = store.PriorityMedium
		case strings.Contains(q, "low"):
			p = store.PriorityLow
		}
		match = func(t *store.Task) bool { return t.Priority == p }
	default:
		match = func(t *store.Task) bool {
			return strings.Contains(lower.String(t.UserEmail), q)
		}
	}

	res := make([]*store.Task, 0, len(tasks))
	for _, t := range tasks {
		if match(t) {
			res = append(res, t)
		}
	}
	return s.views(res), nil
}

// ReorderTasks returns the visible tasks ordered by param ("priority" or
// "made_on"), largest first
func (s *Service) ReorderTasks(ctx context.Context, u User, param string) ([]TaskView, error) {
	var less func(a, b *store.Task) bool
	switch param {
	case "priority":
		less = func(a, b *store.Task) bool { return a.Priority > b.Priority }
	case "made_on":
		less = func(a, b *store.Task) bool { return a.MadeOn.After(b.MadeOn) }
	default:
		return nil, fmt.Errorf("%w: unknown reorder parameter %q", ErrInvalid, param)
	}

	tasks, err := s.visibleTasks(ctx, u)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
	return s.views(tasks), nil
}

// SetPriority sets the priority of a task. Setting the priority a task
// already has resets it to none.
func (s *Service) SetPriority(ctx context.Context, u User, taskID string, priority int) (*store.Task, error) {
	if err := s.forms.check(&PriorityForm{Priority: priority}); err != nil {
		return nil, err
	}

	t, err := s.visibleTask(ctx, u, taskID)
	if err != nil {
		return nil, err
	}

	p := store.Priority(priority)
	if t.Priority == p {
		t.Priority = store.PriorityNone
	} else {
		t.Priority = p
	}
	if err := s.store.PutTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return t, nil
}

func (s *Service) visibleTask(ctx context.Context, u User, taskID string) (*store.Task, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}

	var l *store.List
	if t.ListID != "" {
		if l, err = s.store.GetList(ctx, t.ListID); err != nil {
			return nil, fmt.Errorf("failed to get list: %w", err)
		}
	}
	if !canSeeTask(u, t, l) {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrForbidden)
	}
	return t, nil
}

// CreateManualTask stores a reminder task owned by u
func (s *Service) CreateManualTask(ctx context.Context, u User, form ManualTaskForm) (*store.Task, error) {
	form.Subject = strings.TrimSpace(form.Subject)
	if err := s.forms.check(&form); err != nil {
		return nil, err
	}

	t := &store.Task{
		ID:          string(store.KindManual) + "-" + uuid.New().String(),
		Kind:        store.KindManual,
		UserEmail:   u.Email,
		MadeOn:      s.now(),
		Priority:    store.PriorityNone,
		Subject:     form.Subject,
		Description: form.Description,
	}
	if err := s.store.PutTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	metrics.AddTasksCreated(string(store.KindManual), 1)

	s.logger.Info("manual task created", "task_id", t.ID, "user", u.Email)
	return t, nil
}

// DiscardManualTask deletes a manual task. Only its creator may do so.
func (s *Service) DiscardManualTask(ctx context.Context, u User, taskID string) error {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if t == nil {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if t.Kind != store.KindManual {
		return fmt.Errorf("%w: task %s is not a manual task", ErrInvalid, taskID)
	}
	if !strings.EqualFold(t.UserEmail, u.Email) {
		return fmt.Errorf("task %s: %w", taskID, ErrForbidden)
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	metrics.AddTasksRemoved(string(store.KindManual), 1)
	return nil
}

// RemoveRole removes email from the role roster of a list and records the
// change in the event stream. Only superusers and list owners may do so.
func (s *Service) RemoveRole(ctx context.Context, u User, listID string, role store.Role, email string) error {
	switch role {
	case store.RoleOwner, store.RoleModerator, store.RoleSubscriber:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}

	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return fmt.Errorf("failed to get list: %w", err)
	}
	if l == nil {
		return fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	if !u.Superuser && !l.IsOwner(u.Email) {
		return fmt.Errorf("list %s: %w", listID, ErrForbidden)
	}

	err = s.store.UpdateList(ctx, listID, func(l *store.List) error {
		return store.RemoveFromRoster(l, role, email)
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s is not a %s of %s", ErrInvalid, email, role, listID)
	}
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}

	s.recordEvent(ctx, email, u.Email, string(role)+"-removal", listID)
	s.logger.Info("role removed", "list_id", listID, "role", role, "email", email, "by", u.Email)
	return nil
}

// ResolveRequest removes a pending request handled by op with action
// (accept, reject, discard, defer) and records the event. The matching
// task disappears on the next synchronisation.
func (s *Service) ResolveRequest(ctx context.Context, op, requestID, action string) error {
	switch action {
	case "accept", "reject", "discard", "defer":
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalid, action)
	}

	requests, err := s.store.ListRequests(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}
	var req *store.Request
	for _, r := range requests {
		if r.ID == requestID {
			req = r
			break
		}
	}
	if req == nil {
		return fmt.Errorf("request %s: %w", requestID, ErrNotFound)
	}

	if err := s.store.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	s.recordEvent(ctx, req.Email, op, string(req.Kind)+"-"+action, req.ListID)
	return nil
}

func (s *Service) recordEvent(ctx context.Context, email, op, event, listID string) {
	e := &store.Event{
		ID:        uuid.New().String(),
		UserEmail: email,
		Op:        op,
		Event:     event,
		ListID:    listID,
		MadeOn:    s.now(),
	}
	if err := s.store.AddEvent(ctx, e); err != nil {
		s.logger.Error("failed to record event", "event", event, "error", err)
	}
}

func (s *Service) views(tasks []*store.Task) []TaskView {
	now := s.now()
	out := make([]TaskView, len(tasks))
	for i, t := range tasks {
		out[i] = TaskView{Task: t, Title: TaskTitle(t), When: RelativeTime(now, t.MadeOn)}
	}
	return out
}

// TaskTitle returns the one-line summary of a task
func TaskTitle(t *store.Task) string {
	user, _, _ := strings.Cut(t.UserEmail, "@")
	list, _, _ := strings.Cut(t.ListID, ".")
	caser := cases.Title(language.Und)
	user = caser.String(user)
	list = caser.String(list)

	switch t.Kind {
	case store.KindSubscription:
		return fmt.Sprintf("Subscription Request from %s in %s", user, list)
	case store.KindModeration:
		return fmt.Sprintf("Message held for moderation from %s in %s", user, list)
	default:
		return t.Subject
	}
}

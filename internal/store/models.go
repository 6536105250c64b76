package store

import (
	"strings"
	"time"
)

// Kind is the kind of a pending request or dashboard task
type Kind string

const (
	KindModeration   Kind = "moderation"
	KindSubscription Kind = "subscription"
	KindManual       Kind = "manual" // Tasks only
)

// Priority is a task priority
type Priority int

const (
	PriorityNone   Priority = -2
	PriorityLow    Priority = -1
	PriorityMedium Priority = 0
	PriorityHigh   Priority = 1
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p >= PriorityNone && p <= PriorityHigh
}

// Domain is a mail domain served by the list server
type Domain struct {
	MailHost    string `json:"mail_host"`
	BaseURL     string `json:"base_url"`
	Description string `json:"description,omitempty"`
}

// List is a mailing list with its rosters
type List struct {
	ListID       string    `json:"list_id"`       // testlist.example.com
	FQDNListname string    `json:"fqdn_listname"` // testlist@example.com
	DisplayName  string    `json:"display_name"`
	MailHost     string    `json:"mail_host"`
	Owners       []string  `json:"owners,omitempty"`
	Moderators   []string  `json:"moderators,omitempty"`
	Members      []string  `json:"members,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsOwner reports whether email owns the list
func (l *List) IsOwner(email string) bool {
	return containsFold(l.Owners, email)
}

// IsModerator reports whether email moderates the list
func (l *List) IsModerator(email string) bool {
	return containsFold(l.Moderators, email)
}

// IsMember reports whether email is subscribed to the list
func (l *List) IsMember(email string) bool {
	return containsFold(l.Members, email)
}

// Request is a pending held message or subscription request
type Request struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	ListID    string    `json:"list_id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is an entry of the administrator task list
type Task struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	RequestID   string    `json:"request_id,omitempty"`
	ListID      string    `json:"list_id"`
	UserEmail   string    `json:"user_email"`
	MadeOn      time.Time `json:"made_on"`
	Priority    Priority  `json:"priority"`
	Subject     string    `json:"subject,omitempty"`
	Description string    `json:"description,omitempty"`
}

// TaskIDForRequest returns the task id derived from a pending request
func TaskIDForRequest(r *Request) string {
	return string(r.Kind) + "-" + r.ID
}

// CalendarLog counts requests per list and day
type CalendarLog struct {
	Date   string `json:"date"` // 2006-01-02
	ListID string `json:"list_id"`
	Kind   Kind   `json:"kind"`
	Count  int    `json:"count"`
}

// Event is an entry of the dashboard event stream
type Event struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Op        string    `json:"op"` // Acting administrator
	Event     string    `json:"event"`
	ListID    string    `json:"list_id"`
	MadeOn    time.Time `json:"made_on"`
}

// DateFormat is the layout of calendar dates
const DateFormat = "2006-01-02"

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// removeFold returns list without s, and whether s was present
func removeFold(list []string, s string) ([]string, bool) {
	out := list[:0:0]
	found := false
	for _, v := range list {
		if strings.EqualFold(v, s) {
			found = true
			continue
		}
		out = append(out, v)
	}
	return out, found
}

package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/listdash/internal/dashboard"
	"github.com/foxzi/listdash/internal/exchange"
	"github.com/foxzi/listdash/internal/store"
)

// dashboardPath is where the dashboard page and its exchanges live
const dashboardPath = "/dashboard/"

// TaskResponse is a task as returned by the dashboard exchanges
type TaskResponse struct {
	ID        string         `json:"id"`
	Kind      store.Kind     `json:"kind"`
	Title     string         `json:"title"`
	ListID    string         `json:"list_id,omitempty"`
	UserEmail string         `json:"user_email"`
	Priority  store.Priority `json:"priority"`
	Subject   string         `json:"subject,omitempty"`
	MadeOn    time.Time      `json:"made_on"`
	When      string         `json:"when"`
}

// ListResponse is a list summary
type ListResponse struct {
	ListID       string `json:"list_id"`
	FQDNListname string `json:"fqdn_listname"`
	DisplayName  string `json:"display_name"`
	Owners       int    `json:"owners"`
	Moderators   int    `json:"moderators"`
	Members      int    `json:"members"`
}

// EventResponse is an entry of the event stream
type EventResponse struct {
	Event     string    `json:"event"`
	UserEmail string    `json:"user_email"`
	Op        string    `json:"op,omitempty"`
	ListID    string    `json:"list_id,omitempty"`
	MadeOn    time.Time `json:"made_on"`
	When      string    `json:"when"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// pageData feeds the dashboard template
type pageData struct {
	*dashboard.Page
	DashboardURL string
	BaseURL      string
	CSRFToken    string
	Dates        string
	SubsData     string
	ModsData     string
}

// handleDashboard handles GET /dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)

	page, err := s.service.Load(r.Context(), u)
	if err != nil {
		s.serviceError(w, "load dashboard", err)
		return
	}

	data := pageData{
		Page:         page,
		DashboardURL: dashboardPath,
		BaseURL:      s.config.Server.BaseURL,
		CSRFToken:    s.csrf.Token(u.Email),
	}
	data.Dates, data.SubsData, data.ModsData = page.Stats.Embedded()

	var buf bytes.Buffer
	if err := s.views.Render(&buf, "dashboard", data); err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to render dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// handleDashboardPost handles POST /dashboard, dispatching on the form field present
func (s *Server) handleDashboardPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	form := r.PostForm
	has := func(key string) bool {
		_, ok := form[key]
		return ok
	}

	switch {
	case has(exchange.FieldQuery):
		s.handleSearch(w, r)
	case has(exchange.FieldSelectedLists):
		s.handleStats(w, r)
	case has(exchange.FieldSearchTasks):
		s.handleSearchTasks(w, r)
	case has(exchange.FieldSearchLists):
		s.handleSearchLists(w, r)
	case has(exchange.FieldTaskSubject):
		s.handleCreateTask(w, r)
	default:
		sendError(w, http.StatusBadRequest, "Unknown dashboard action")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	form := r.PostForm
	scope := exchange.Scope{
		Lists:   form.Get(exchange.FieldCheckLists) != "",
		People:  form.Get(exchange.FieldCheckPeople) != "",
		Domains: form.Get(exchange.FieldCheckDomains) != "",
	}

	resp, err := s.service.Search(r.Context(), userFrom(r), form.Get(exchange.FieldQuery), scope)
	if err != nil {
		s.serviceError(w, "search", err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var lists []string
	for _, id := range r.PostForm[exchange.FieldSelectedLists] {
		if id != "" {
			lists = append(lists, id)
		}
	}

	resp, err := s.service.Stats(r.Context(), userFrom(r), lists)
	if err != nil {
		s.serviceError(w, "stats", err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.service.SearchTasks(r.Context(), userFrom(r), r.PostForm.Get(exchange.FieldSearchTasks))
	if err != nil {
		s.serviceError(w, "search tasks", err)
		return
	}
	sendJSON(w, http.StatusOK, taskResponses(tasks))
}

func (s *Server) handleSearchLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.service.SearchLists(r.Context(), userFrom(r), r.PostForm.Get(exchange.FieldSearchLists))
	if err != nil {
		s.serviceError(w, "search lists", err)
		return
	}
	sendJSON(w, http.StatusOK, listResponses(lists))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	form := dashboard.ManualTaskForm{
		Subject:     r.PostForm.Get(exchange.FieldTaskSubject),
		Description: r.PostForm.Get(exchange.FieldTaskBody),
	}
	task, err := s.service.CreateManualTask(r.Context(), userFrom(r), form)
	if err != nil {
		s.serviceError(w, "create task", err)
		return
	}

	// Plain form submissions go back to the page
	if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	sendJSON(w, http.StatusCreated, taskResponse(dashboard.TaskView{Task: task, Title: dashboard.TaskTitle(task), When: "Just Now"}))
}

// handleSetPriority handles POST /dashboard/tasks/{id}/priority/{priority}
func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	priority, err := strconv.Atoi(chi.URLParam(r, "priority"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "priority must be an integer")
		return
	}

	task, err := s.service.SetPriority(r.Context(), userFrom(r), chi.URLParam(r, "id"), priority)
	if err != nil {
		s.serviceError(w, "set priority", err)
		return
	}
	sendJSON(w, http.StatusOK, taskResponse(dashboard.TaskView{Task: task, Title: dashboard.TaskTitle(task)}))
}

// handleReorderTasks handles GET /dashboard/tasks/reorder/{param}
func (s *Server) handleReorderTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.service.ReorderTasks(r.Context(), userFrom(r), chi.URLParam(r, "param"))
	if err != nil {
		s.serviceError(w, "reorder tasks", err)
		return
	}
	sendJSON(w, http.StatusOK, taskResponses(tasks))
}

// handleDiscardTask handles POST /dashboard/tasks/{id}/discard
func (s *Server) handleDiscardTask(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardManualTask(r.Context(), userFrom(r), chi.URLParam(r, "id")); err != nil {
		s.serviceError(w, "discard task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveRole handles POST /dashboard/lists/{list_id}/roles/{role}/{email}/remove
func (s *Server) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	err := s.service.RemoveRole(r.Context(), userFrom(r),
		chi.URLParam(r, "list_id"),
		store.Role(chi.URLParam(r, "role")),
		chi.URLParam(r, "email"),
	)
	if err != nil {
		s.serviceError(w, "remove role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents handles GET /dashboard/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.Events(r.Context(), userFrom(r))
	if err != nil {
		s.serviceError(w, "events", err)
		return
	}
	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = EventResponse{
			Event:     e.Event.Event,
			UserEmail: e.UserEmail,
			Op:        e.Op,
			ListID:    e.ListID,
			MadeOn:    e.MadeOn,
			When:      e.When,
		}
	}
	sendJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}

// serviceError maps dashboard errors to HTTP statuses
func (s *Server) serviceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, dashboard.ErrForbidden):
		sendError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, dashboard.ErrNotFound):
		sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dashboard.ErrInvalid):
		sendError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("dashboard operation failed", "op", op, "error", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func taskResponse(t dashboard.TaskView) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Kind:      t.Kind,
		Title:     t.Title,
		ListID:    t.ListID,
		UserEmail: t.UserEmail,
		Priority:  t.Priority,
		Subject:   t.Subject,
		MadeOn:    t.MadeOn,
		When:      t.When,
	}
}

func taskResponses(tasks []dashboard.TaskView) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = taskResponse(t)
	}
	return out
}

func listResponses(lists []*store.List) []ListResponse {
	out := make([]ListResponse, len(lists))
	for i, l := range lists {
		out[i] = ListResponse{
			ListID:       l.ListID,
			FQDNListname: l.FQDNListname,
			DisplayName:  l.DisplayName,
			Owners:       len(l.Owners),
			Moderators:   len(l.Moderators),
			Members:      len(l.Members),
		}
	}
	return out
}

package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foxzi/listdash/internal/exchange"
	"github.com/foxzi/listdash/internal/ui"
)

type fakeDashboard struct {
	mu        sync.Mutex
	page      *exchange.Page
	pageErr   error
	search    *exchange.SearchResponse
	stats     *exchange.StatsResponse
	statsArgs [][]string
}

func (f *fakeDashboard) Bootstrap(ctx context.Context) (*exchange.Page, error) {
	return f.page, f.pageErr
}

func (f *fakeDashboard) SubmitSearch(ctx context.Context, query string, scope exchange.Scope) (*exchange.SearchResponse, error) {
	return f.search, nil
}

func (f *fakeDashboard) FetchStats(ctx context.Context, lists []string) (*exchange.StatsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsArgs = append(f.statsArgs, lists)
	return f.stats, nil
}

func newTestModel(t *testing.T) (*AppModel, *fakeDashboard) {
	t.Helper()
	fake := &fakeDashboard{
		page: &exchange.Page{
			CSRFToken: "tok",
			Dates:     "2020-01-01,2020-01-02",
			SubsData:  "1,2",
			ModsData:  "0,3",
		},
		search: &exchange.SearchResponse{
			Lists: []exchange.ListMatch{
				{DisplayName: "Beta", ListID: "beta.example.com"},
				{DisplayName: "Alpha", ListID: "alpha.example.com"},
			},
			People:  []exchange.PersonMatch{{UserEmail: "ann@example.com", ListID: "alpha.example.com"}},
			Domains: []exchange.DomainMatch{},
		},
		stats: &exchange.StatsResponse{
			Subs: map[string]int{"2020-01-02": 5},
			Mods: map[string]int{"2020-01-02": 1},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewAppModel(fake, 0, logger)
	m.Update(m.loadCmd()())
	return m, fake
}

func TestLoad(t *testing.T) {
	m, _ := newTestModel(t)

	if m.view != viewDashboard {
		t.Fatalf("view = %v, want dashboard", m.view)
	}
	if len(m.lists) != 2 || m.lists[0].ListID != "alpha.example.com" {
		t.Errorf("lists = %+v, want sorted by list id", m.lists)
	}
	data := m.ctrl.Chart()
	if data == nil || data.Points() != 2 {
		t.Fatalf("Chart() = %+v, want 2 points", data)
	}
	if !strings.Contains(m.View(), "Alpha") {
		t.Error("View() does not render the lists panel")
	}
}

func TestLoadFailure(t *testing.T) {
	fake := &fakeDashboard{pageErr: errors.New("connection refused")}
	m := NewAppModel(fake, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.Update(m.loadCmd()())

	if m.view != viewLoading {
		t.Errorf("view = %v, want loading", m.view)
	}
	if m.Err == nil {
		t.Error("Err = nil, want load error")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Errorf("View() = %q, want error status", m.View())
	}
}

func TestSearchAndSelect(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(m.searchCmd("a")())
	if got := len(m.candidates.Items()); got != 3 {
		t.Fatalf("candidates = %d, want 3", got)
	}

	m.searchInput.SetValue("ann@example.com")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Opened != "/postorius/lists/alpha.example.com/members" {
		t.Errorf("Opened = %q", m.Opened)
	}

	m.Opened = ""
	m.searchInput.SetValue("ann")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Opened != "" {
		t.Errorf("Opened = %q, want nothing for a partial value", m.Opened)
	}
}

func TestSearchTypingIssuesCommand(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if cmd == nil {
		t.Fatal("typing returned no command")
	}
	if m.searchInput.Value() != "a" {
		t.Errorf("search input = %q, want a", m.searchInput.Value())
	}
}

func TestCandidateEnter(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(m.searchCmd("")())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusCandidates {
		t.Fatalf("focus = %v, want candidates", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Opened != "/postorius/lists/beta.example.com" {
		t.Errorf("Opened = %q, want first candidate page", m.Opened)
	}
}

func TestToggleListFetchesStats(t *testing.T) {
	m, fake := newTestModel(t)
	m.setFocus(focusLists)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if cmd == nil {
		t.Fatal("toggle returned no command")
	}
	m.Update(cmd())

	if len(fake.statsArgs) != 1 || len(fake.statsArgs[0]) != 1 || fake.statsArgs[0][0] != "alpha.example.com" {
		t.Errorf("FetchStats args = %v, want [[alpha.example.com]]", fake.statsArgs)
	}
	data := m.ctrl.Chart()
	if data.Points() != 1 || data.Subscriptions()[0].N != 5 {
		t.Errorf("Chart() = %+v, want fetched stats", data)
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if m.selected["alpha.example.com"] {
		t.Error("second toggle left the list selected")
	}
}

func TestClearSelectionNeedsSecondPress(t *testing.T) {
	m, _ := newTestModel(t)
	m.setFocus(focusLists)
	now := time.Date(2020, 1, 31, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	clear := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")}

	m.Update(clear)
	if !m.selected["alpha.example.com"] {
		t.Fatal("first press cleared the selection")
	}
	if !strings.Contains(m.status, "again") {
		t.Errorf("status = %q, want a confirmation prompt", m.status)
	}

	// A second press after the window only re-arms
	now = now.Add(2 * confirmWindow)
	m.Update(clear)
	if !m.selected["alpha.example.com"] {
		t.Fatal("late second press cleared the selection")
	}

	// Another key in between disarms
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	m.Update(clear)
	if !m.selected["alpha.example.com"] {
		t.Fatal("press after another key cleared the selection")
	}

	now = now.Add(confirmWindow / 2)
	_, cmd := m.Update(clear)
	if len(m.selectedLists()) != 0 {
		t.Errorf("selectedLists() = %v, want none", m.selectedLists())
	}
	if cmd == nil {
		t.Error("clearing returned no command")
	}
}

func TestRoleFilterHidesSeries(t *testing.T) {
	m, _ := newTestModel(t)
	m.setFocus(focusLists)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if got := m.ctrl.State().RoleFilter; got != ui.FilterModeration {
		t.Fatalf("RoleFilter = %v, want moderation", got)
	}
	view := m.View()
	if !strings.Contains(view, "Moderation Requests") || strings.Contains(view, "Subscription Requests") {
		t.Error("moderation filter should only render the moderation series")
	}
}

func TestPointCursorTooltip(t *testing.T) {
	m, _ := newTestModel(t)
	m.setFocus(focusLists)

	for i := 0; i < 5; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.pointCursor != 1 {
		t.Fatalf("pointCursor = %d, want clamp at 1", m.pointCursor)
	}
	if !strings.Contains(m.View(), "Moderation Requests: 3") {
		t.Error("View() does not show the tooltip of the selected point")
	}
}

func TestWindowSizeStacksPanels(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	if !m.ctrl.State().Layout().Stacked {
		t.Error("narrow terminal should stack panels")
	}
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	if m.ctrl.State().Layout().Stacked {
		t.Error("wide terminal should not stack panels")
	}
}

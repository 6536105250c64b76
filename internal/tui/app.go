// Package tui is a terminal rendition of the dashboard: global search with
// candidate navigation and the request statistics chart.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foxzi/listdash/internal/exchange"
	"github.com/foxzi/listdash/internal/ui"
)

// Breakpoint in terminal columns below which panels are stacked
const stackBreakpoint = 100

// Dashboard is the remote dashboard the model talks to
type Dashboard interface {
	ui.Backend
	Bootstrap(ctx context.Context) (*exchange.Page, error)
}

type viewState int

const (
	viewLoading viewState = iota
	viewDashboard
)

type focus int

const (
	focusSearch focus = iota
	focusCandidates
	focusLists
)

// confirmWindow is how long a destructive key waits for its second press
const confirmWindow = time.Second

// AppModel is the Bubble Tea model of the dashboard
type AppModel struct {
	backend Dashboard
	ctrl    *ui.Controller
	timeout time.Duration

	view  viewState
	focus focus

	searchInput textinput.Model
	candidates  list.Model

	lists       []exchange.ListMatch
	listCursor  int
	selected    map[string]bool
	pointCursor int

	confirm ui.ConfirmGuard
	now     func() time.Time

	width  int
	height int

	status string
	// Opened is the page of the last selected candidate
	Opened string
	Err    error
}

// NewAppModel creates the model. timeout bounds each exchange.
func NewAppModel(backend Dashboard, timeout time.Duration, logger *slog.Logger) *AppModel {
	ti := textinput.New()
	ti.Placeholder = "Search lists, people and domains"
	ti.Focus()

	cl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	cl.Title = "Candidates"
	cl.SetShowHelp(false)
	cl.SetFilteringEnabled(false)
	cl.KeyMap.Quit.SetKeys("q")

	if timeout <= 0 {
		timeout = exchange.DefaultTimeout
	}

	return &AppModel{
		backend:     backend,
		ctrl:        ui.NewController(backend, logger),
		timeout:     timeout,
		view:        viewLoading,
		status:      "Loading dashboard...",
		searchInput: ti,
		candidates:  cl,
		selected:    make(map[string]bool),
		pointCursor: -1,
		confirm:     ui.ConfirmGuard{Window: confirmWindow},
		now:         time.Now,
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), textinput.Blink)
}

func (m *AppModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		page, err := m.backend.Bootstrap(ctx)
		if err != nil {
			return pageLoadedMsg{err: err}
		}
		resp, err := m.backend.SubmitSearch(ctx, "", exchange.Scope{Lists: true})
		if err != nil {
			return pageLoadedMsg{err: err}
		}
		return pageLoadedMsg{page: page, lists: resp.Lists}
	}
}

func (m *AppModel) searchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return searchDoneMsg{query: query, err: m.ctrl.Search(ctx, query, exchange.AllScopes)}
	}
}

func (m *AppModel) statsCmd(lists []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return statsDoneMsg{err: m.ctrl.Filter(ctx, lists)}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		st := m.ctrl.Update(func(s *ui.State) {
			s.ViewMode = ui.ViewModeFor(msg.Width, stackBreakpoint)
		})
		w := msg.Width / 2
		if st.Layout().Stacked {
			w = msg.Width
		}
		m.candidates.SetSize(w, max(msg.Height-8, 5))
		m.searchInput.Width = max(w-4, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pageLoadedMsg:
		if msg.err != nil {
			m.Err = msg.err
			m.status = fmt.Sprintf("Loading failed: %v", msg.err)
			return m, nil
		}
		m.lists = msg.lists
		sort.Slice(m.lists, func(i, j int) bool { return m.lists[i].ListID < m.lists[j].ListID })
		if err := m.ctrl.LoadEmbedded(msg.page); err != nil {
			m.status = fmt.Sprintf("Statistics unavailable: %v", err)
		} else {
			m.status = ""
		}
		m.view = viewDashboard
		return m, nil

	case searchDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, exchange.ErrStaleResponse) {
				return m, nil
			}
			m.status = fmt.Sprintf("Search failed: %v", msg.err)
			return m, clearStatusAfter(3 * time.Second)
		}
		m.candidates.SetItems(candidatesToItems(m.ctrl.Candidates()))
		m.candidates.Title = fmt.Sprintf("Candidates (%d)", len(m.candidates.Items()))
		return m, nil

	case statsDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, exchange.ErrStaleResponse) {
				return m, nil
			}
			m.status = fmt.Sprintf("Statistics failed: %v", msg.err)
			return m, clearStatusAfter(3 * time.Second)
		}
		m.pointCursor = -1
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case focusCandidates:
		m.candidates, cmd = m.candidates.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	}

	if m.view != viewDashboard {
		if key == "q" || key == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusCandidates:
		return m.handleCandidatesKey(msg)
	default:
		return m.handleListsKey(msg)
	}
}

func (m *AppModel) setFocus(f focus) {
	m.focus = f
	if f == focusSearch {
		m.searchInput.Focus()
		return
	}
	m.searchInput.Blur()
}

func (m *AppModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "enter":
		if url, ok := m.ctrl.Select(m.searchInput.Value()); ok {
			return m.open(url)
		}
		m.status = "No candidate matches " + strings.TrimSpace(m.searchInput.Value())
		return m, clearStatusAfter(2 * time.Second)
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		return m, tea.Batch(cmd, m.searchCmd(after))
	}
	return m, cmd
}

func (m *AppModel) handleCandidatesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		item, ok := m.candidates.SelectedItem().(candidateItem)
		if !ok {
			return m, nil
		}
		return m.open(ui.Resolve(item.Candidate))
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

func (m *AppModel) handleListsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "c" {
		m.confirm.Reset()
	}

	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
	case "down", "j":
		if m.listCursor < len(m.lists)-1 {
			m.listCursor++
		}
	case " ", "x":
		if len(m.lists) == 0 {
			return m, nil
		}
		id := m.lists[m.listCursor].ListID
		m.selected[id] = !m.selected[id]
		return m, m.statsCmd(m.selectedLists())
	case "left", "h":
		if m.pointCursor > 0 {
			m.pointCursor--
		}
	case "right", "l":
		if data := m.ctrl.Chart(); data != nil && m.pointCursor < data.Points()-1 {
			m.pointCursor++
		}
	case "f":
		m.ctrl.Update(func(s *ui.State) {
			s.RoleFilter = (s.RoleFilter + 1) % 3
		})
	case "r":
		return m, m.statsCmd(m.selectedLists())
	case "c":
		if len(m.selectedLists()) == 0 {
			return m, nil
		}
		if !m.confirm.Activate("clear-selection", m.now()) {
			m.status = "Press c again to clear the list selection"
			return m, clearStatusAfter(confirmWindow)
		}
		m.selected = make(map[string]bool)
		m.status = "Selection cleared"
		return m, tea.Batch(m.statsCmd(nil), clearStatusAfter(2*time.Second))
	}
	return m, nil
}

func (m *AppModel) open(url string) (tea.Model, tea.Cmd) {
	m.Opened = url
	m.status = "Open " + url
	return m, clearStatusAfter(3 * time.Second)
}

func (m *AppModel) selectedLists() []string {
	var ids []string
	for _, l := range m.lists {
		if m.selected[l.ListID] {
			ids = append(ids, l.ListID)
		}
	}
	return ids
}

func (m *AppModel) View() string {
	if m.view == viewLoading {
		return m.status + "\n"
	}

	layout := m.ctrl.State().Layout()

	var left strings.Builder
	left.WriteString(m.searchInput.View() + "\n\n")
	left.WriteString(m.candidates.View())

	var right strings.Builder
	right.WriteString(titleStyle.Render("Lists") + "  " + filterLabel(m.ctrl.State().RoleFilter) + "\n")
	for i, l := range m.lists {
		cursor := "  "
		if m.focus == focusLists && i == m.listCursor {
			cursor = "> "
		}
		mark := "[ ]"
		if m.selected[l.ListID] {
			mark = "[x]"
		}
		right.WriteString(fmt.Sprintf("%s%s %s\n", cursor, mark, l.DisplayName))
	}
	right.WriteString("\n")
	right.WriteString(renderChart(m.ctrl.Chart(), m.pointCursor,
		layout.BothBadges || layout.ModBadges,
		layout.BothBadges || layout.SubBadges))

	var body string
	if layout.Stacked {
		body = lipgloss.JoinVertical(lipgloss.Left, left.String(), panelStyle.Render(right.String()))
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, left.String(), panelStyle.Render(right.String()))
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(dashboardFooter())
	return b.String()
}

func filterLabel(f ui.RoleFilter) string {
	switch f {
	case ui.FilterModeration:
		return "showing: moderation"
	case ui.FilterSubscription:
		return "showing: subscription"
	default:
		return "showing: both"
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg("")
	})
}

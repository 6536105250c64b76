package ui

import (
	"time"

	"github.com/foxzi/listdash/internal/chart"
)

// Tab is the main dashboard view
type Tab int

const (
	TabTasks Tab = iota
	TabLists
)

// RoleFilter selects which request badges the list view shows
type RoleFilter int

const (
	FilterBoth RoleFilter = iota
	FilterModeration
	FilterSubscription
)

// ListPanel is the per-list sub-tab shown under FilterBoth
type ListPanel int

const (
	PanelModerations ListPanel = iota
	PanelSubscriptions
)

// Role is the roster shown in a list panel
type Role int

const (
	RoleModerators Role = iota
	RoleOwners
	RoleSubscribers
)

// ViewMode is the responsive layout mode
type ViewMode int

const (
	ViewDesktop ViewMode = iota
	ViewMobile
)

// MobileBreakpoint is the width below which the mobile layout is used
const MobileBreakpoint = 768

// State is the presentation state of the dashboard
type State struct {
	Tab        Tab
	RoleFilter RoleFilter
	ListPanel  ListPanel
	Role       Role
	ViewMode   ViewMode
}

// ViewModeFor returns the layout mode for a viewport width
func ViewModeFor(width, breakpoint int) ViewMode {
	if width < breakpoint {
		return ViewMobile
	}
	return ViewDesktop
}

// Layout reports which parts of the dashboard are visible
type Layout struct {
	TaskContainer   bool
	ReorderControls bool
	ListContainer   bool

	BothBadges bool
	ModBadges  bool
	SubBadges  bool

	PerListNav        bool
	ListModerations   bool
	ListSubscriptions bool

	Moderators  bool
	Owners      bool
	Subscribers bool

	Stacked bool // Widgets in a single column
}

// Layout projects the state onto visibility flags
func (s State) Layout() Layout {
	l := Layout{
		TaskContainer:   s.Tab == TabTasks,
		ReorderControls: s.Tab == TabTasks,
		ListContainer:   s.Tab == TabLists,
		Moderators:      s.Role == RoleModerators,
		Owners:          s.Role == RoleOwners,
		Subscribers:     s.Role == RoleSubscribers,
		Stacked:         s.ViewMode == ViewMobile,
	}

	switch s.RoleFilter {
	case FilterModeration:
		l.ModBadges = true
		l.ListModerations = true
	case FilterSubscription:
		l.SubBadges = true
		l.ListSubscriptions = true
	default:
		l.BothBadges = true
		l.PerListNav = true
		l.ListModerations = s.ListPanel == PanelModerations
		l.ListSubscriptions = s.ListPanel == PanelSubscriptions
	}
	return l
}

// Tooltip is the hover text of a chart point
func Tooltip(series string, v chart.Value) string {
	return series + ": " + v.String()
}

// DefaultConfirmWindow is the longest gap between the two activations of
// a confirmed action
const DefaultConfirmWindow = 500 * time.Millisecond

// ConfirmGuard arms destructive actions on first activation and fires them
// on a second activation of the same target within the window
type ConfirmGuard struct {
	Window time.Duration

	target  string
	armedAt time.Time
}

// Activate records an activation of target and reports whether the action
// should run
func (g *ConfirmGuard) Activate(target string, now time.Time) bool {
	window := g.Window
	if window <= 0 {
		window = DefaultConfirmWindow
	}

	if g.target == target && !g.armedAt.IsZero() && now.Sub(g.armedAt) <= window {
		g.Reset()
		return true
	}
	g.target = target
	g.armedAt = now
	return false
}

// Armed returns the target waiting for confirmation, if any
func (g *ConfirmGuard) Armed() string {
	return g.target
}

// Reset disarms the guard
func (g *ConfirmGuard) Reset() {
	g.target = ""
	g.armedAt = time.Time{}
}

package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/foxzi/listdash/internal/ui"
)

// candidateItem wraps a search candidate for the list widget.
type candidateItem struct {
	ui.Candidate
}

func (c candidateItem) FilterValue() string { return c.Value }
func (c candidateItem) Title() string       { return kindBadge(c.Kind) + " " + c.Value }
func (c candidateItem) Description() string { return ui.Resolve(c.Candidate) }

func kindBadge(k ui.CandidateKind) string {
	switch k {
	case ui.KindList:
		return listBadge.Render("list")
	case ui.KindPerson:
		return personBadge.Render("person")
	default:
		return domainBadge.Render("domain")
	}
}

var (
	listBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	personBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	domainBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingTop(1)
)

func candidatesToItems(cands []ui.Candidate) []list.Item {
	items := make([]list.Item, len(cands))
	for i, c := range cands {
		items[i] = candidateItem{c}
	}
	return items
}

func dashboardFooter() string {
	return footerStyle.Render("/: search  tab: focus  space: toggle list  c c: clear selection  f: role filter  ←/→: inspect point  enter: open  q: quit")
}

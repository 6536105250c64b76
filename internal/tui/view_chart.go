package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/foxzi/listdash/internal/chart"
	"github.com/foxzi/listdash/internal/ui"
)

var (
	modStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

var bars = []rune(" ▁▂▃▄▅▆▇█")

// renderChart draws both series as bar rows scaled to the largest count.
// The point under cursor is highlighted and described below the chart.
// Hidden series are left out.
func renderChart(data *chart.Data, cursor int, showMods, showSubs bool) string {
	if data == nil {
		return "no statistics loaded"
	}
	points := data.Points()
	if points == 0 {
		return "no statistics for the selected lists"
	}

	mods := data.Moderations()
	subs := data.Subscriptions()
	peak := 1
	for i := 0; i < points; i++ {
		peak = max(peak, mods[i].N, subs[i].N)
	}

	row := func(vals []chart.Value, style lipgloss.Style) string {
		var b strings.Builder
		for i := 0; i < points; i++ {
			r := string(bars[barIndex(vals[i].N, peak)])
			if i == cursor {
				b.WriteString(cursorStyle.Render(r))
				continue
			}
			b.WriteString(style.Render(r))
		}
		return b.String()
	}

	var b strings.Builder
	if showMods {
		b.WriteString(modStyle.Render("■") + " " + chart.SeriesModerations + "\n")
		b.WriteString(row(mods, modStyle) + "\n")
	}
	if showSubs {
		b.WriteString(subStyle.Render("■") + " " + chart.SeriesSubscriptions + "\n")
		b.WriteString(row(subs, subStyle) + "\n")
	}
	b.WriteString(data.Labels[0] + " .. " + data.Labels[points-1] + "\n")

	if cursor >= 0 && cursor < points {
		b.WriteString("\n" + data.Labels[cursor])
		if showMods {
			b.WriteString("  " + ui.Tooltip(chart.SeriesModerations, mods[cursor]))
		}
		if showSubs {
			b.WriteString("  " + ui.Tooltip(chart.SeriesSubscriptions, subs[cursor]))
		}
	}
	return b.String()
}

// barIndex scales n against peak onto the bar runes, clamped to the range
func barIndex(n, peak int) int {
	return min(max(n*(len(bars)-1)/peak, 0), len(bars)-1)
}

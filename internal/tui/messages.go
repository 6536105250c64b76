package tui

import "github.com/foxzi/listdash/internal/exchange"

// Async message types for Bubble Tea commands.

type pageLoadedMsg struct {
	page  *exchange.Page
	lists []exchange.ListMatch
	err   error
}

type searchDoneMsg struct {
	query string
	err   error
}

type statsDoneMsg struct {
	err error
}

type statusMsg string

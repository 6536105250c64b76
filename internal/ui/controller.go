package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/foxzi/listdash/internal/chart"
	"github.com/foxzi/listdash/internal/exchange"
)

// Backend performs the dashboard exchanges
type Backend interface {
	SubmitSearch(ctx context.Context, query string, scope exchange.Scope) (*exchange.SearchResponse, error)
	FetchStats(ctx context.Context, lists []string) (*exchange.StatsResponse, error)
}

// Controller applies exchange results to the dashboard state. Failed,
// malformed and stale exchanges are logged and leave the state unchanged.
type Controller struct {
	backend Backend
	logger  *slog.Logger
	pad     bool

	search Sequencer
	stats  Sequencer

	mu         sync.RWMutex
	candidates []Candidate
	chart      *chart.Data
	state      State
}

// NewController creates a controller over backend
func NewController(backend Backend, logger *slog.Logger) *Controller {
	return &Controller{
		backend: backend,
		logger:  logger,
		pad:     chart.DefaultPadding,
	}
}

// SetPadding controls the trailing blank chart point
func (c *Controller) SetPadding(pad bool) {
	c.mu.Lock()
	c.pad = pad
	c.mu.Unlock()
}

// Search submits query and replaces the candidate set with the response.
// The returned error is informational; the state is only touched on success.
func (c *Controller) Search(ctx context.Context, query string, scope exchange.Scope) error {
	token := c.search.Next()

	resp, err := c.backend.SubmitSearch(ctx, query, scope)
	if err != nil {
		return c.absorb("search", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.search.IsLatest(token) {
		return c.absorb("search", exchange.ErrStaleResponse)
	}
	c.candidates = CandidatesFrom(resp)
	return nil
}

// Filter fetches the statistics for lists and replaces the chart data
func (c *Controller) Filter(ctx context.Context, lists []string) error {
	token := c.stats.Next()

	resp, err := c.backend.FetchStats(ctx, lists)
	if err != nil {
		return c.absorb("stats", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stats.IsLatest(token) {
		return c.absorb("stats", exchange.ErrStaleResponse)
	}
	c.chart = chart.Project(resp, c.pad)
	return nil
}

// LoadEmbedded renders the initial chart from the page's hidden fields.
// Only a successful load supersedes stats requests still in flight.
func (c *Controller) LoadEmbedded(page *exchange.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := chart.FromEmbedded(page.Dates, page.SubsData, page.ModsData, c.pad)
	if err != nil {
		return c.absorb("embedded stats", err)
	}
	c.stats.Next()
	c.chart = data
	return nil
}

func (c *Controller) absorb(op string, err error) error {
	var (
		ne *exchange.NetworkError
		mr *exchange.MalformedResponse
	)
	switch {
	case errors.Is(err, exchange.ErrStaleResponse):
		c.logger.Debug("discarding stale response", "op", op)
	case errors.As(err, &mr):
		c.logger.Warn("malformed response", "op", op, "error", err)
	case errors.As(err, &ne):
		c.logger.Warn("exchange failed", "op", op, "status", ne.Status, "error", err)
	default:
		c.logger.Error("exchange failed", "op", op, "error", err)
	}
	return err
}

// Candidates returns a copy of the current candidate set
func (c *Controller) Candidates() []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Candidate, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// Select resolves the candidate whose value equals input to its page
func (c *Controller) Select(input string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cand, ok := Match(c.candidates, input)
	if !ok {
		return "", false
	}
	return Resolve(cand), true
}

// Chart returns the current chart data, nil before the first load
func (c *Controller) Chart() *chart.Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chart
}

// State returns the presentation state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Update applies a presentation transition
func (c *Controller) Update(fn func(*State)) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	return c.state
}

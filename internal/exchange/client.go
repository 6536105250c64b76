package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds every exchange when no timeout is configured
const DefaultTimeout = 10 * time.Second

// maxBodyBytes bounds response bodies read by the client
const maxBodyBytes = 4 << 20

// Page holds the hidden fields embedded in the dashboard page
type Page struct {
	DashboardURL string
	CSRFToken    string
	Dates        string
	SubsData     string
	ModsData     string
}

// Options configures a Client
type Options struct {
	Email      string // Basic auth user
	Password   string
	Timeout    time.Duration // Per exchange, default DefaultTimeout
	HTTPClient *http.Client
}

// Client speaks the dashboard exchanges over HTTP
type Client struct {
	dashboardURL string
	email        string
	password     string
	timeout      time.Duration
	httpClient   *http.Client

	mu        sync.RWMutex
	csrfToken string
}

// NewClient creates a client for the dashboard at dashboardURL
func NewClient(dashboardURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		dashboardURL: dashboardURL,
		email:        opts.Email,
		password:     opts.Password,
		timeout:      opts.Timeout,
		httpClient:   opts.HTTPClient,
	}
}

// Bootstrap loads the dashboard page and reads its hidden fields. The
// page's dashboard_url and CSRF token are used for later exchanges.
func (c *Client) Bootstrap(ctx context.Context) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(), nil)
	if err != nil {
		return nil, &NetworkError{Op: "load dashboard", Err: err}
	}
	req.Header.Set("Accept", "text/html")

	body, err := c.do(req, "load dashboard")
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if page.DashboardURL != "" {
		resolved, err := c.resolve(page.DashboardURL)
		if err != nil {
			return nil, &MalformedResponse{Reason: "invalid dashboard_url", Err: err}
		}
		page.DashboardURL = resolved
	}

	c.mu.Lock()
	if page.DashboardURL != "" {
		c.dashboardURL = page.DashboardURL
	}
	c.csrfToken = page.CSRFToken
	c.mu.Unlock()

	return page, nil
}

// ParsePage reads the hidden fields of a dashboard page. The CSRF token is
// required; the stats fields may be empty.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &MalformedResponse{Reason: "invalid HTML", Err: err}
	}

	hidden := func(name string) string {
		v, _ := doc.Find(`input[name="` + name + `"]`).First().Attr("value")
		return v
	}

	page := &Page{
		DashboardURL: hidden(HiddenDashboardURL),
		CSRFToken:    hidden(FieldCSRFToken),
		Dates:        hidden(HiddenDates),
		SubsData:     hidden(HiddenSubsData),
		ModsData:     hidden(HiddenModsData),
	}
	if page.CSRFToken == "" {
		return nil, &MalformedResponse{Reason: "page has no " + FieldCSRFToken}
	}
	return page, nil
}

// SubmitSearch sends the global search query with the selected scope
func (c *Client) SubmitSearch(ctx context.Context, query string, scope Scope) (*SearchResponse, error) {
	form := url.Values{}
	form.Set(FieldQuery, query)
	if scope.Lists {
		form.Set(FieldCheckLists, "on")
	}
	if scope.People {
		form.Set(FieldCheckPeople, "on")
	}
	if scope.Domains {
		form.Set(FieldCheckDomains, "on")
	}

	body, err := c.post(ctx, "search", form)
	if err != nil {
		return nil, err
	}
	return decodeSearch(body)
}

// FetchStats requests the statistics for the selected lists
func (c *Client) FetchStats(ctx context.Context, lists []string) (*StatsResponse, error) {
	form := url.Values{}
	for _, id := range lists {
		form.Add(FieldSelectedLists, id)
	}
	if len(lists) == 0 {
		// The server dispatches on the presence of the field
		form.Set(FieldSelectedLists, "")
	}

	body, err := c.post(ctx, "stats", form)
	if err != nil {
		return nil, err
	}
	return decodeStats(body)
}

// post sends form with the cached CSRF token. A 403 means the token went
// stale, e.g. the server restarted with a new secret; the page is loaded
// again and the request retried once.
func (c *Client) post(ctx context.Context, op string, form url.Values) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.send(ctx, op, form, token)
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.Status != http.StatusForbidden {
		return body, err
	}

	page, berr := c.Bootstrap(ctx)
	if berr != nil || page.CSRFToken == token {
		return nil, err
	}
	return c.send(ctx, op, form, page.CSRFToken)
}

func (c *Client) send(ctx context.Context, op string, form url.Values, token string) ([]byte, error) {
	form.Set(FieldCSRFToken, token)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	return c.do(req, op)
}

// token returns the CSRF token, loading the page first when needed
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.RLock()
	token := c.csrfToken
	c.mu.RUnlock()
	if token != "" {
		return token, nil
	}

	page, err := c.Bootstrap(ctx)
	if err != nil {
		return "", err
	}
	return page.CSRFToken, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	if c.email != "" {
		req.SetBasicAuth(c.email, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, &NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(errResp.Error)}
		}
		return nil, &NetworkError{Op: op, Status: resp.StatusCode}
	}

	return body, nil
}

func (c *Client) url() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dashboardURL
}

// resolve resolves ref against the configured dashboard URL
func (c *Client) resolve(ref string) (string, error) {
	base, err := url.Parse(c.url())
	if err != nil {
		return "", err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

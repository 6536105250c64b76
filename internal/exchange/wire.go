package exchange

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Form field names of the dashboard exchange
const (
	FieldQuery         = "query_field"
	FieldCheckLists    = "check_lists"
	FieldCheckPeople   = "check_people"
	FieldCheckDomains  = "check_domains"
	FieldSelectedLists = "selected_lists[]"
	FieldCSRFToken     = "csrfmiddlewaretoken"
	FieldSearchTasks   = "search_tasks"
	FieldSearchLists   = "search_li"
	FieldTaskSubject   = "mtask_subject"
	FieldTaskBody      = "mtask_description"
)

// Hidden fields embedded in the dashboard page
const (
	HiddenDashboardURL = "dashboard_url"
	HiddenDates        = "dates"
	HiddenSubsData     = "subs_data"
	HiddenModsData     = "mods_data"
)

// ListMatch is a list candidate of the global search
type ListMatch struct {
	DisplayName string `json:"display_name"`
	ListID      string `json:"list_id"`
}

// PersonMatch is a list member candidate of the global search
type PersonMatch struct {
	UserEmail string `json:"useremail"`
	ListID    string `json:"list_id"`
}

// DomainMatch is a domain candidate of the global search
type DomainMatch struct {
	MailHost string `json:"mail_host"`
	BaseURL  string `json:"base_url"`
}

// SearchResponse is the response of the global search exchange
type SearchResponse struct {
	Lists   []ListMatch   `json:"lists"`
	People  []PersonMatch `json:"people"`
	Domains []DomainMatch `json:"domains"`
}

// Scope selects which candidate kinds a search covers
type Scope struct {
	Lists   bool
	People  bool
	Domains bool
}

// AllScopes searches every candidate kind
var AllScopes = Scope{Lists: true, People: true, Domains: true}

// Empty reports whether no kind is selected
func (s Scope) Empty() bool {
	return !s.Lists && !s.People && !s.Domains
}

// StatsResponse carries per-date request counts
type StatsResponse struct {
	Subs map[string]int `json:"subs"`
	Mods map[string]int `json:"mods"`
}

// Dates returns the union of both series' dates in ascending order
func (r *StatsResponse) Dates() []string {
	seen := make(map[string]bool, len(r.Subs))
	dates := make([]string, 0, len(r.Subs))
	for _, m := range []map[string]int{r.Subs, r.Mods} {
		for d := range m {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Strings(dates)
	return dates
}

// Embedded renders the response as the comma-separated hidden field values
// (dates, subs_data, mods_data) of the dashboard page
func (r *StatsResponse) Embedded() (dates, subs, mods string) {
	ds := r.Dates()
	ss := make([]string, len(ds))
	ms := make([]string, len(ds))
	for i, d := range ds {
		ss[i] = strconv.Itoa(r.Subs[d])
		ms[i] = strconv.Itoa(r.Mods[d])
	}
	return strings.Join(ds, ","), strings.Join(ss, ","), strings.Join(ms, ",")
}

// ErrorResponse is the error body returned by the server
type ErrorResponse struct {
	Error string `json:"error"`
}

// decodeSearch decodes a search response, requiring all three keys
func decodeSearch(data []byte) (*SearchResponse, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedResponse{Reason: "invalid JSON", Err: err}
	}
	for _, key := range []string{"lists", "people", "domains"} {
		if _, ok := raw[key]; !ok {
			return nil, &MalformedResponse{Reason: "missing key " + strconv.Quote(key)}
		}
	}

	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &MalformedResponse{Reason: "unexpected shape", Err: err}
	}
	return &resp, nil
}

// decodeStats decodes a stats response, requiring both series
func decodeStats(data []byte) (*StatsResponse, error) {
	var resp StatsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &MalformedResponse{Reason: "invalid JSON", Err: err}
	}
	if resp.Subs == nil || resp.Mods == nil {
		return nil, &MalformedResponse{Reason: "missing subs or mods"}
	}
	for _, series := range []map[string]int{resp.Subs, resp.Mods} {
		for date, n := range series {
			if n < 0 {
				return nil, &MalformedResponse{Reason: fmt.Sprintf("negative count %d for %s", n, date)}
			}
		}
	}
	return &resp, nil
}

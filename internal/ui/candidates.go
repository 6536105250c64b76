// Package ui holds the dashboard client state: search candidates, chart
// data and presentation toggles, and the controller applying exchange
// results to them.
package ui

import (
	"github.com/foxzi/listdash/internal/exchange"
)

// CandidateKind discriminates search candidates
type CandidateKind string

const (
	KindList   CandidateKind = "list_option"
	KindPerson CandidateKind = "people_option"
	KindDomain CandidateKind = "domain_option"
)

// Candidate is one entry of the search suggestion list. Value is what the
// user picks, Label the identifier navigation uses.
type Candidate struct {
	Kind  CandidateKind
	Value string
	Label string
}

// CandidatesFrom builds the candidate set of a search response: lists,
// then people, then domains, each in response order
func CandidatesFrom(resp *exchange.SearchResponse) []Candidate {
	out := make([]Candidate, 0, len(resp.Lists)+len(resp.People)+len(resp.Domains))
	for _, l := range resp.Lists {
		out = append(out, Candidate{Kind: KindList, Value: l.DisplayName, Label: l.ListID})
	}
	for _, p := range resp.People {
		out = append(out, Candidate{Kind: KindPerson, Value: p.UserEmail, Label: p.ListID})
	}
	for _, d := range resp.Domains {
		out = append(out, Candidate{Kind: KindDomain, Value: d.MailHost, Label: d.BaseURL})
	}
	return out
}

// Resolve returns the page a candidate navigates to
func Resolve(c Candidate) string {
	switch c.Kind {
	case KindList:
		return "/postorius/lists/" + c.Label
	case KindPerson:
		return "/postorius/lists/" + c.Label + "/members"
	case KindDomain:
		return "/postorius/domains"
	}
	return ""
}

// Match returns the first candidate whose value equals input exactly
func Match(candidates []Candidate, input string) (Candidate, bool) {
	for _, c := range candidates {
		if c.Value == input {
			return c, true
		}
	}
	return Candidate{}, false
}

package dashboard

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/foxzi/listdash/internal/exchange"
	"github.com/foxzi/listdash/internal/metrics"
	"github.com/foxzi/listdash/internal/store"
)

// Search runs the global search for u. Lists and people are drawn from the
// lists u administers, domains from all domains. Matching is a
// case-insensitive substring test on list id, member email and mail host.
// An empty scope searches everything. The response always carries all three
// kinds, empty when not searched.
func (s *Service) Search(ctx context.Context, u User, query string, scope exchange.Scope) (*exchange.SearchResponse, error) {
	if scope.Empty() {
		scope = exchange.AllScopes
	}

	lower := cases.Lower(language.Und)
	q := lower.String(query)

	resp := &exchange.SearchResponse{
		Lists:   []exchange.ListMatch{},
		People:  []exchange.PersonMatch{},
		Domains: []exchange.DomainMatch{},
	}

	if scope.Lists || scope.People {
		all, err := s.store.ListLists(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list lists: %w", err)
		}
		lists := AllowedLists(u, all)

		for _, l := range lists {
			if scope.Lists && strings.Contains(lower.String(l.ListID), q) {
				resp.Lists = append(resp.Lists, exchange.ListMatch{DisplayName: l.DisplayName, ListID: l.ListID})
			}
		}
		if scope.People {
			for _, l := range lists {
				for _, m := range l.Members {
					if strings.Contains(lower.String(m), q) {
						resp.People = append(resp.People, exchange.PersonMatch{UserEmail: m, ListID: l.ListID})
					}
				}
			}
		}
	}

	if scope.Domains {
		domains, err := s.store.ListDomains(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list domains: %w", err)
		}
		for _, d := range domains {
			if strings.Contains(lower.String(d.MailHost), q) {
				resp.Domains = append(resp.Domains, exchange.DomainMatch{MailHost: d.MailHost, BaseURL: d.BaseURL})
			}
		}
	}

	metrics.IncSearch(scopeLabel(scope), len(resp.Lists), len(resp.People), len(resp.Domains))
	return resp, nil
}

func scopeLabel(scope exchange.Scope) string {
	if scope == exchange.AllScopes {
		return "all"
	}
	var parts []string
	if scope.Lists {
		parts = append(parts, "lists")
	}
	if scope.People {
		parts = append(parts, "people")
	}
	if scope.Domains {
		parts = append(parts, "domains")
	}
	return strings.Join(parts, "+")
}

// Lists returns the lists u administers
func (s *Service) Lists(ctx context.Context, u User) ([]*store.List, error) {
	all, err := s.store.ListLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	return AllowedLists(u, all), nil
}

// SearchLists returns the lists u administers whose id contains query
func (s *Service) SearchLists(ctx context.Context, u User, query string) ([]*store.List, error) {
	lists, err := s.Lists(ctx, u)
	if err != nil {
		return nil, err
	}

	lower := cases.Lower(language.Und)
	q := lower.String(strings.TrimSpace(query))
	res := make([]*store.List, 0, len(lists))
	for _, l := range lists {
		if strings.Contains(lower.String(l.ListID), q) {
			res = append(res, l)
		}
	}
	return res, nil
}

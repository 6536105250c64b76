package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/foxzi/listdash/internal/store"
)

// DomainForm registers a mail domain
type DomainForm struct {
	MailHost    string `json:"mail_host" form:"mail_host" validate:"required,hostname"`
	BaseURL     string `json:"base_url" form:"base_url" validate:"required,url"`
	Description string `json:"description,omitempty" form:"description" validate:"max=500"`
}

// ListForm creates a mailing list
type ListForm struct {
	FQDNListname string `json:"fqdn_listname" form:"fqdn_listname" validate:"required,email"`
	DisplayName  string `json:"display_name,omitempty" form:"display_name" validate:"max=100"`
}

// RosterForm adds an address to a list roster
type RosterForm struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// RequestForm records a pending request reported by the list server
type RequestForm struct {
	ID      string `json:"id,omitempty" form:"id"`
	Kind    string `json:"kind" form:"kind" validate:"required,oneof=moderation subscription"`
	ListID  string `json:"list_id" form:"list_id" validate:"required"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Subject string `json:"subject,omitempty" form:"subject" validate:"max=200"`
}

// CreateDomain registers a domain, replacing an existing one with the same host
func (s *Service) CreateDomain(ctx context.Context, form DomainForm) (*store.Domain, error) {
	form.MailHost = strings.ToLower(strings.TrimSpace(form.MailHost))
	if err := s.forms.check(&form); err != nil {
		return nil, err
	}

	d := &store.Domain{
		MailHost:    form.MailHost,
		BaseURL:     strings.TrimSpace(form.BaseURL),
		Description: form.Description,
	}
	if err := s.store.PutDomain(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save domain: %w", err)
	}
	s.logger.Info("domain registered", "mail_host", d.MailHost)
	return d, nil
}

// CreateList creates a list on a registered domain. The list id is the
// posting address with @ replaced by a dot.
func (s *Service) CreateList(ctx context.Context, form ListForm) (*store.List, error) {
	form.FQDNListname = strings.ToLower(strings.TrimSpace(form.FQDNListname))
	if err := s.forms.check(&form); err != nil {
		return nil, err
	}

	local, host, _ := strings.Cut(form.FQDNListname, "@")
	d, err := s.store.GetDomain(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: domain %s is not registered", ErrInvalid, host)
	}

	listID := local + "." + host
	existing, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: list %s already exists", ErrInvalid, listID)
	}

	display := form.DisplayName
	if display == "" {
		display = strings.ToUpper(local[:1]) + local[1:]
	}
	l := &store.List{
		ListID:       listID,
		FQDNListname: form.FQDNListname,
		DisplayName:  display,
		MailHost:     host,
		CreatedAt:    s.now(),
	}
	if err := s.store.PutList(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to save list: %w", err)
	}
	s.logger.Info("list created", "list_id", listID)
	return l, nil
}

// AddRole adds an address to the role roster of a list
func (s *Service) AddRole(ctx context.Context, listID string, role store.Role, form RosterForm) (*store.List, error) {
	switch role {
	case store.RoleOwner, store.RoleModerator, store.RoleSubscriber:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := s.forms.check(&form); err != nil {
		return nil, err
	}

	var updated *store.List
	err := s.store.UpdateList(ctx, listID, func(l *store.List) error {
		if err := store.AddToRoster(l, role, form.Email); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("list %s: %w", listID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update list: %w", err)
	}
	s.logger.Info("role added", "list_id", listID, "role", role, "email", form.Email)
	return updated, nil
}

// AddRequest records a pending request. It becomes a task on the next
// synchronisation.
func (s *Service) AddRequest(ctx context.Context, form RequestForm) (*store.Request, error) {
	if err := s.forms.check(&form); err != nil {
		return nil, err
	}

	l, err := s.store.GetList(ctx, form.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("list %s: %w", form.ListID, ErrNotFound)
	}

	id := form.ID
	if id == "" {
		id = uuid.New().String()
	}
	r := &store.Request{
		ID:        id,
		Kind:      store.Kind(form.Kind),
		ListID:    l.ListID,
		Email:     form.Email,
		Subject:   form.Subject,
		CreatedAt: s.now(),
	}
	if err := s.store.PutRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}
	s.logger.Info("request recorded", "id", r.ID, "kind", r.Kind, "list_id", r.ListID)
	return r, nil
}

// Requests returns the pending requests of kind, all kinds when empty
func (s *Service) Requests(ctx context.Context, kind store.Kind) ([]*store.Request, error) {
	switch kind {
	case "", store.KindModeration, store.KindSubscription:
	default:
		return nil, fmt.Errorf("%w: unknown request kind %q", ErrInvalid, kind)
	}
	reqs, err := s.store.ListRequests(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

// PutDomain creates or replaces a domain
func (s *BoltStore) PutDomain(ctx context.Context, d *Domain) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal domain: %w", err)
		}
		if err := tx.Bucket(bucketDomains).Put([]byte(d.MailHost), data); err != nil {
			return fmt.Errorf("failed to store domain: %w", err)
		}
		return nil
	})
}

// GetDomain retrieves a domain by mail host
func (s *BoltStore) GetDomain(ctx context.Context, mailHost string) (*Domain, error) {
	var d *Domain

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketDomains).Get([]byte(mailHost))
		if data == nil {
			return nil
		}
		d = &Domain{}
		return json.Unmarshal(data, d)
	})

	return d, err
}

// ListDomains returns all domains ordered by mail host
func (s *BoltStore) ListDomains(ctx context.Context) ([]*Domain, error) {
	var domains []*Domain

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDomains).ForEach(func(k, v []byte) error {
			var d Domain
			if err := json.Unmarshal(v, &d); err != nil {
				return nil
			}
			domains = append(domains, &d)
			return nil
		})
	})

	return domains, err
}

// PutList creates or replaces a list
func (s *BoltStore) PutList(ctx context.Context, l *List) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putList(tx, l)
	})
}

func putList(tx *bolt.Tx, l *List) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal list: %w", err)
	}
	if err := tx.Bucket(bucketLists).Put([]byte(l.ListID), data); err != nil {
		return fmt.Errorf("failed to store list: %w", err)
	}
	return nil
}

// GetList retrieves a list by list id
func (s *BoltStore) GetList(ctx context.Context, listID string) (*List, error) {
	var l *List

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLists).Get([]byte(listID))
		if data == nil {
			return nil
		}
		l = &List{}
		return json.Unmarshal(data, l)
	})

	return l, err
}

// ListLists returns all lists ordered by list id
func (s *BoltStore) ListLists(ctx context.Context) ([]*List, error) {
	var lists []*List

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLists).ForEach(func(k, v []byte) error {
			var l List
			if err := json.Unmarshal(v, &l); err != nil {
				return nil
			}
			lists = append(lists, &l)
			return nil
		})
	})

	return lists, err
}

// UpdateList applies fn to the stored list inside a single transaction
func (s *BoltStore) UpdateList(ctx context.Context, listID string, fn func(*List) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLists).Get([]byte(listID))
		if data == nil {
			return fmt.Errorf("list %s: %w", listID, ErrNotFound)
		}

		var l List
		if err := json.Unmarshal(data, &l); err != nil {
			return fmt.Errorf("failed to unmarshal list: %w", err)
		}
		if err := fn(&l); err != nil {
			return err
		}
		l.ListID = listID
		return putList(tx, &l)
	})
}

// DeleteList removes a list
func (s *BoltStore) DeleteList(ctx context.Context, listID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLists).Delete([]byte(listID))
	})
}

// Role is a roster of a list
type Role string

const (
	RoleOwner      Role = "owner"
	RoleModerator  Role = "moderator"
	RoleSubscriber Role = "subscriber"
)

// AddToRoster adds email to the roster of role, ignoring duplicates
func AddToRoster(l *List, role Role, email string) error {
	switch role {
	case RoleOwner:
		if !l.IsOwner(email) {
			l.Owners = append(l.Owners, email)
		}
	case RoleModerator:
		if !l.IsModerator(email) {
			l.Moderators = append(l.Moderators, email)
		}
	case RoleSubscriber:
		if !l.IsMember(email) {
			l.Members = append(l.Members, email)
			sort.Strings(l.Members)
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	return nil
}

// RemoveFromRoster removes email from the roster of role.
// It returns ErrNotFound when email does not hold the role.
func RemoveFromRoster(l *List, role Role, email string) error {
	var found bool
	switch role {
	case RoleOwner:
		l.Owners, found = removeFold(l.Owners, email)
	case RoleModerator:
		l.Moderators, found = removeFold(l.Moderators, email)
	case RoleSubscriber:
		l.Members, found = removeFold(l.Members, email)
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if !found {
		return fmt.Errorf("%s is not a %s of %s: %w", email, role, l.ListID, ErrNotFound)
	}
	return nil
}

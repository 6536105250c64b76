package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

// PutRequest records a pending request
func (s *BoltStore) PutRequest(ctx context.Context, r *Request) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		if err := tx.Bucket(bucketRequests).Put([]byte(r.ID), data); err != nil {
			return fmt.Errorf("failed to store request: %w", err)
		}
		return nil
	})
}

// DeleteRequest removes a pending request once it has been handled
func (s *BoltStore) DeleteRequest(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRequests)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
}

// ListRequests returns pending requests of kind (all kinds if empty),
// oldest first
func (s *BoltStore) ListRequests(ctx context.Context, kind Kind) ([]*Request, error) {
	var requests []*Request

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRequests).ForEach(func(k, v []byte) error {
			var r Request
			if err := json.Unmarshal(v, &r); err != nil {
				return nil
			}
			if kind != "" && r.Kind != kind {
				return nil
			}
			requests = append(requests, &r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

// PutTask creates or replaces a task
func (s *BoltStore) PutTask(ctx context.Context, t *Task) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}
		if err := tx.Bucket(bucketTasks).Put([]byte(t.ID), data); err != nil {
			return fmt.Errorf("failed to store task: %w", err)
		}
		return nil
	})
}

// GetTask retrieves a task by ID
func (s *BoltStore) GetTask(ctx context.Context, id string) (*Task, error) {
	var t *Task

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTasks).Get([]byte(id))
		if data == nil {
			return nil
		}
		t = &Task{}
		return json.Unmarshal(data, t)
	})

	return t, err
}

// ListTasks returns all tasks ordered by creation time
func (s *BoltStore) ListTasks(ctx context.Context) ([]*Task, error) {
	var tasks []*Task

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).ForEach(func(k, v []byte) error {
			var t Task
			if err := json.Unmarshal(v, &t); err != nil {
				return nil
			}
			tasks = append(tasks, &t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].MadeOn.Before(tasks[j].MadeOn)
	})
	return tasks, nil
}

// DeleteTask removes a task
func (s *BoltStore) DeleteTask(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).Delete([]byte(id))
	})
}

// IncrementCalendar adds n to the counter of (date, list, kind)
func (s *BoltStore) IncrementCalendar(ctx context.Context, date, listID string, kind Kind, n int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCalendar)
		key := calendarKey(date, kind, listID)

		entry := CalendarLog{Date: date, ListID: listID, Kind: kind}
		if data := b.Get(key); data != nil {
			if err := json.Unmarshal(data, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal calendar log: %w", err)
			}
		}
		entry.Count += n

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("failed to marshal calendar log: %w", err)
		}
		return b.Put(key, data)
	})
}

// CalendarRange returns calendar logs with from <= date <= to
func (s *BoltStore) CalendarRange(ctx context.Context, from, to string) ([]*CalendarLog, error) {
	var logs []*CalendarLog

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCalendar).Cursor()
		// Keys start with the date, so "to|" bounds every key of the last day
		upper := []byte(to + "|\xff")

		for k, v := c.Seek([]byte(from)); k != nil && bytes.Compare(k, upper) <= 0; k, v = c.Next() {
			var l CalendarLog
			if err := json.Unmarshal(v, &l); err != nil {
				continue
			}
			logs = append(logs, &l)
		}
		return nil
	})

	return logs, err
}

// AddEvent appends an event to the event stream
func (s *BoltStore) AddEvent(ctx context.Context, e *Event) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		return tx.Bucket(bucketEvents).Put(makeIndexKey(e.MadeOn, e.ID), data)
	})
}

// ListEvents returns the newest events first; limit <= 0 means all
func (s *BoltStore) ListEvents(ctx context.Context, limit int) ([]*Event, error) {
	var events []*Event

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			events = append(events, &e)

			if limit > 0 && len(events) >= limit {
				break
			}
		}
		return nil
	})

	return events, err
}

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxzi/listdash/internal/store"
)

func TestLoad(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	addRequest(t, st, "1", store.KindSubscription, "alpha.example.com", "ann@example.com", testNow.Add(-time.Minute))
	addRequest(t, st, "2", store.KindModeration, "beta.example.com", "bob@example.com", testNow.Add(-time.Minute))

	if _, err := svc.Load(ctx, outsider); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Load(outsider) error = %v, want ErrForbidden", err)
	}

	page, err := svc.Load(ctx, owner)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(page.Tasks) != 1 || page.Tasks[0].ID != "subscription-1" {
		t.Errorf("Tasks = %v, want [subscription-1]", taskIDs(page.Tasks))
	}
	if len(page.Lists) != 1 || page.Lists[0].ListID != "alpha.example.com" {
		t.Errorf("Lists = %+v, want alpha", page.Lists)
	}
	if page.Stats.Subs["2020-01-31"] != 1 {
		t.Errorf("Stats subs today = %d, want 1", page.Stats.Subs["2020-01-31"])
	}

	page, err = svc.Load(ctx, superuser)
	if err != nil {
		t.Fatalf("Load(superuser) error = %v", err)
	}
	if len(page.Tasks) != 2 {
		t.Errorf("superuser Tasks = %v, want 2", taskIDs(page.Tasks))
	}
}

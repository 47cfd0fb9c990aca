package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"adopt-meow/internal/domain/cats"
)

func seed(t *testing.T, r cats.Repository, id string) cats.Cat {
	t.Helper()
	c := cats.Cat{
		ID:        id,
		Name:      "Luna",
		OwnerID:   "o1",
		CreatedAt: time.Now(),
	}
	if err := r.Create(context.Background(), c); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return c
}

func TestCatRepo_UpdateBumpsVersion(t *testing.T) {
	r := NewCatRepo()
	ctx := context.Background()
	c := seed(t, r, "c1")

	c.Name = "Luna II"
	if err := r.Update(ctx, c); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	got, err := r.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Version != c.Version+1 || got.Name != "Luna II" {
		t.Fatalf("expected bumped version with new data, got %+v", got)
	}
}

func TestCatRepo_UpdateStaleVersionConflicts(t *testing.T) {
	r := NewCatRepo()
	ctx := context.Background()
	seed(t, r, "c1")

	// Dos lectores parten de la misma versión; solo uno puede ganar.
	a, _ := r.GetByID(ctx, "c1")
	b, _ := r.GetByID(ctx, "c1")

	a.Name = "ganador"
	if err := r.Update(ctx, a); err != nil {
		t.Fatalf("first writer must win: %v", err)
	}

	b.Name = "perdedor"
	if err := r.Update(ctx, b); !errors.Is(err, cats.ErrConflict) {
		t.Fatalf("expected ErrConflict for the stale writer, got %v", err)
	}

	got, _ := r.GetByID(ctx, "c1")
	if got.Name != "ganador" {
		t.Fatalf("stale write must not land, got %q", got.Name)
	}
}

func TestCatRepo_UpdateMissingCat(t *testing.T) {
	r := NewCatRepo()
	if err := r.Update(context.Background(), cats.Cat{ID: "nope"}); !errors.Is(err, cats.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatRepo_DeleteIsIdempotent(t *testing.T) {
	r := NewCatRepo()
	ctx := context.Background()
	seed(t, r, "c1")

	if err := r.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := r.Delete(ctx, "c1"); err != nil {
		t.Fatalf("repeated delete must not fail: %v", err)
	}
	if _, err := r.GetByID(ctx, "c1"); !errors.Is(err, cats.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCatRepo_CloneIsolatesAdopterSlice(t *testing.T) {
	r := NewCatRepo()
	ctx := context.Background()

	c := cats.Cat{ID: "c1", Name: "Luna", OwnerID: "o1", AdopterIDs: []string{"a1"}, CreatedAt: time.Now()}
	if err := r.Create(ctx, c); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, _ := r.GetByID(ctx, "c1")
	got.AdopterIDs[0] = "mutado"

	again, _ := r.GetByID(ctx, "c1")
	if again.AdopterIDs[0] != "a1" {
		t.Fatalf("caller mutation leaked into the stored record: %v", again.AdopterIDs)
	}
}

func TestCatRepo_ListOrdersByCreatedAt(t *testing.T) {
	r := NewCatRepo()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"c3", "c1", "c2"} {
		c := cats.Cat{ID: id, Name: id, OwnerID: "o1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := r.Create(ctx, c); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	out, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(out) != 3 || out[0].ID != "c3" || out[1].ID != "c1" || out[2].ID != "c2" {
		t.Fatalf("expected insertion-time order, got %v", out)
	}
}

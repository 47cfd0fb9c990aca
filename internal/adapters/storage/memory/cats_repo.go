package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"adopt-meow/internal/domain/cats"
)

type catRepo struct {
	mu   sync.RWMutex
	byID map[string]cats.Cat
}

func NewCatRepo() cats.Repository {
	return &catRepo{
		byID: make(map[string]cats.Cat),
	}
}

func (r *catRepo) Create(ctx context.Context, c cats.Cat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("cat id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("cat already exists")
	}
	r.byID[c.ID] = clone(c)
	return nil
}

// Update es la frontera de concurrencia: compara la versión leída contra
// la almacenada bajo el lock. Dos escritores sobre el mismo gato no pueden
// ganar los dos; el perdedor recibe ErrConflict.
func (r *catRepo) Update(ctx context.Context, c cats.Cat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("cat id required")
	}
	current, exists := r.byID[c.ID]
	if !exists {
		return cats.ErrNotFound
	}
	if current.Version != c.Version {
		return cats.ErrConflict
	}

	c.Version++
	r.byID[c.ID] = clone(c)
	return nil
}

func (r *catRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}
	return clone(c), nil
}

func (r *catRepo) List(ctx context.Context) ([]cats.Cat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cats.Cat, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, clone(c))
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *catRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Idempotente: borrar lo que no está no es error.
	delete(r.byID, id)
	return nil
}

// clone evita que los callers compartan el slice de postulantes con el
// registro guardado.
func clone(c cats.Cat) cats.Cat {
	if c.AdopterIDs != nil {
		c.AdopterIDs = append([]string(nil), c.AdopterIDs...)
	}
	return c
}

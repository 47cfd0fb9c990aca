package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"adopt-meow/internal/domain/cats"
	"adopt-meow/internal/platform/logger"
)

const (
	listingKey = "cats:listing"

	// TTL corto: el listado es best-effort y los callers no asumen
	// frescura (ver política de listados del engine).
	listingTTL = 30 * time.Second
)

// ListingRepo decora un cats.Repository con cache read-through del
// listado completo. Las mutaciones pasan directo e invalidan la key.
type ListingRepo struct {
	inner cats.Repository
	rdb   *redis.Client
	log   logger.Logger
}

func NewListingRepo(inner cats.Repository, rdb *redis.Client, log logger.Logger) *ListingRepo {
	return &ListingRepo{inner: inner, rdb: rdb, log: log}
}

func (r *ListingRepo) List(ctx context.Context) ([]cats.Cat, error) {
	if raw, err := r.rdb.Get(ctx, listingKey).Bytes(); err == nil {
		var out []cats.Cat
		if json.Unmarshal(raw, &out) == nil {
			return out, nil
		}
		// Entrada corrupta: tirarla y seguir al store.
		_ = r.rdb.Del(ctx, listingKey).Err()
	}

	items, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(items); err == nil {
		if err := r.rdb.Set(ctx, listingKey, raw, listingTTL).Err(); err != nil && r.log != nil {
			r.log.Debug("listing cache set failed", map[string]any{"error": err.Error()})
		}
	}
	return items, nil
}

func (r *ListingRepo) Create(ctx context.Context, c cats.Cat) error {
	err := r.inner.Create(ctx, c)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *ListingRepo) Update(ctx context.Context, c cats.Cat) error {
	err := r.inner.Update(ctx, c)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *ListingRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	// Las lecturas puntuales van siempre al store: las mutaciones hacen
	// read-modify-write versionado y no toleran datos viejos.
	return r.inner.GetByID(ctx, id)
}

func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	err := r.inner.Delete(ctx, id)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *ListingRepo) invalidate(ctx context.Context) {
	if err := r.rdb.Del(ctx, listingKey).Err(); err != nil && r.log != nil {
		r.log.Debug("listing cache invalidate failed", map[string]any{"error": err.Error()})
	}
}

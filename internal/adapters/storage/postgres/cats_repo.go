package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"adopt-meow/internal/domain/cats"
)

type CatsRepo struct {
	db *sql.DB
}

func NewCatsRepo(db *sql.DB) *CatsRepo {
	return &CatsRepo{db: db}
}

const catColumns = `
	id, owner_id, name, sex, weight, vaccinations, special_care,
	description, castrated, image, lat, lng,
	adopted, adopter_ids, confirmed_adopter_id, version,
	created_at, updated_at`

func (r *CatsRepo) Create(ctx context.Context, c cats.Cat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cats (`+catColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		c.ID,
		c.OwnerID,
		c.Name,
		string(c.Sex),
		c.Weight,
		c.Vaccination,
		c.SpecialCare,
		c.Description,
		string(c.Castrated),
		c.Image,
		c.Location.Lat,
		c.Location.Lng,
		c.Adopted,
		pq.Array(c.AdopterIDs),
		toNullString(c.ConfirmedAdopterID),
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// Update con versionado optimista: el WHERE exige la versión leída.
// 0 filas afectadas = o el registro ya no está, o perdió la carrera.
func (r *CatsRepo) Update(ctx context.Context, c cats.Cat) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cats
		SET
			owner_id = $2,
			name = $3,
			sex = $4,
			weight = $5,
			vaccinations = $6,
			special_care = $7,
			description = $8,
			castrated = $9,
			image = $10,
			lat = $11,
			lng = $12,
			adopted = $13,
			adopter_ids = $14,
			confirmed_adopter_id = $15,
			version = version + 1,
			updated_at = $16
		WHERE id = $1 AND version = $17
	`,
		c.ID,
		c.OwnerID,
		c.Name,
		string(c.Sex),
		c.Weight,
		c.Vaccination,
		c.SpecialCare,
		c.Description,
		string(c.Castrated),
		c.Image,
		c.Location.Lat,
		c.Location.Lng,
		c.Adopted,
		pq.Array(c.AdopterIDs),
		toNullString(c.ConfirmedAdopterID),
		c.UpdatedAt,
		c.Version,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Distinguir "no existe" de "versión vieja".
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cats WHERE id = $1)`, c.ID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return cats.ErrNotFound
		}
		return cats.ErrConflict
	}
	return nil
}

func (r *CatsRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return cats.Cat{}, cats.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+catColumns+`
		FROM cats
		WHERE id = $1
	`, id)

	c, err := scanCat(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cats.Cat{}, cats.ErrNotFound
		}
		return cats.Cat{}, err
	}
	return c, nil
}

func (r *CatsRepo) List(ctx context.Context) ([]cats.Cat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+catColumns+`
		FROM cats
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cats.Cat, 0)
	for rows.Next() {
		c, err := scanCat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *CatsRepo) Delete(ctx context.Context, id string) error {
	// Idempotente: 0 filas afectadas no es error.
	_, err := r.db.ExecContext(ctx, `DELETE FROM cats WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCat(row rowScanner) (cats.Cat, error) {
	var c cats.Cat
	var sex, castrated string
	var confirmed sql.NullString
	var adopters pq.StringArray

	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&sex,
		&c.Weight,
		&c.Vaccination,
		&c.SpecialCare,
		&c.Description,
		&castrated,
		&c.Image,
		&c.Location.Lat,
		&c.Location.Lng,
		&c.Adopted,
		&adopters,
		&confirmed,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return cats.Cat{}, err
	}

	c.Sex = cats.Sex(sex)
	c.Castrated = cats.YesNo(castrated)
	c.AdopterIDs = []string(adopters)
	if confirmed.Valid {
		c.ConfirmedAdopterID = confirmed.String
	}
	return c, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

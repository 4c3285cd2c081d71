package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/court-scheduler/internal/domain/profile"
)

// SealedRecord is a vault row. Sealed is opaque to the database.
type SealedRecord struct {
	Profile   string
	Sealed    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CredentialRepo struct{ pool *pgxpool.Pool }

func NewCredentialRepo(pool *pgxpool.Pool) *CredentialRepo { return &CredentialRepo{pool: pool} }

func (r *CredentialRepo) Put(ctx context.Context, name, sealed string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO portal_credentials (profile, sealed) VALUES ($1, $2)
		ON CONFLICT (profile) DO UPDATE SET sealed = EXCLUDED.sealed, updated_at = now()
	`, name, sealed)
	return err
}

func (r *CredentialRepo) Get(ctx context.Context, name string) (SealedRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT profile, sealed, created_at, updated_at
		FROM portal_credentials WHERE profile=$1
	`, name)
	var rec SealedRecord
	if err := row.Scan(&rec.Profile, &rec.Sealed, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SealedRecord{}, profile.ErrNotFound
		}
		return SealedRecord{}, err
	}
	return rec, nil
}

func (r *CredentialRepo) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portal_credentials WHERE profile=$1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}

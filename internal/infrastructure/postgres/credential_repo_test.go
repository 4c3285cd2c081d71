package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/court-scheduler/internal/domain/profile"
)

// Runs against TEST_DATABASE_URL; skipped when it is unset.
func TestCredentialRepo(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))

	repo := NewCredentialRepo(pool)
	name := "repo-test"
	_ = repo.Delete(ctx, name)

	_, err = repo.Get(ctx, name)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	require.NoError(t, repo.Put(ctx, name, "v1"))
	require.NoError(t, repo.Put(ctx, name, "v2"))
	rec, err := repo.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Sealed)
	assert.False(t, rec.UpdatedAt.Before(rec.CreatedAt))

	require.NoError(t, repo.Delete(ctx, name))
	assert.ErrorIs(t, repo.Delete(ctx, name), profile.ErrNotFound)
}

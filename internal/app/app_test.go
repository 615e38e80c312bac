package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condopapers/internal/app"
	"condopapers/internal/seed"
)

func TestBootstrapSeedsStore(t *testing.T) {
	now := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	eng, conn, err := app.Bootstrap(context.Background(), app.Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	defer conn.Close()

	items, err := eng.ListCompliance(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, "3", items[0].ID)
}

func TestBootstrapInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, connA, err := app.Bootstrap(ctx, app.Options{})
	require.NoError(t, err)
	defer connA.Close()
	b, connB, err := app.Bootstrap(ctx, app.Options{Seed: &seed.Data{}})
	require.NoError(t, err)
	defer connB.Close()

	_, err = a.ToggleTask(ctx, "1", "4", "porter")
	require.NoError(t, err)
	lists, err := b.ListChecklists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestBootstrapBadSeedPath(t *testing.T) {
	_, _, err := app.Bootstrap(context.Background(), app.Options{SeedPath: "/nonexistent/seed.yaml"})
	assert.Error(t, err)
}

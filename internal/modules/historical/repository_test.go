package historical

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aristath/horizon/internal/database"
	"github.com/aristath/horizon/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: database.ProfileCache,
		Name:    "history",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestRepository_SaveAndLoadSeries(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t)

	series := Series{Asset: "GLD", Observations: []Observation{
		{Date: monthEnd(2024, 2), Return: -0.0123456789012345},
		{Date: monthEnd(2024, 1), Return: 0.0314159265358979},
	}}
	require.NoError(t, repo.SaveSeries(ctx, series))

	loaded, err := repo.LoadSeries(ctx, "GLD")
	require.NoError(t, err)
	require.Len(t, loaded.Observations, 2)
	assert.Equal(t, "2024-01", loaded.Observations[0].Month())
	assert.Equal(t, 0.0314159265358979, loaded.Observations[0].Return)
	assert.Equal(t, -0.0123456789012345, loaded.Observations[1].Return)

	// Upsert replaces the value for an existing month
	require.NoError(t, repo.SaveSeries(ctx, Series{Asset: "GLD", Observations: []Observation{
		{Date: monthEnd(2024, 1), Return: 0.5},
	}}))
	loaded, err = repo.LoadSeries(ctx, "GLD")
	require.NoError(t, err)
	require.Len(t, loaded.Observations, 2)
	assert.Equal(t, 0.5, loaded.Observations[0].Return)
}

func TestRepository_LoadPanel(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t)

	require.NoError(t, repo.SaveSeries(ctx, Series{Asset: "A", Observations: []Observation{
		{Date: monthEnd(2024, 1), Return: 0.01},
		{Date: monthEnd(2024, 2), Return: 0.02},
	}}))
	require.NoError(t, repo.SaveSeries(ctx, Series{Asset: "B", Observations: []Observation{
		{Date: monthEnd(2024, 2), Return: 0.03},
	}}))

	assets, err := repo.ListAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, assets)

	panel, report, err := repo.LoadPanel(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, panel.Rows())
	assert.Equal(t, []float64{0.02, 0.03}, panel.Row(0))
	assert.Equal(t, 1, report.DroppedRows)

	_, _, err = repo.LoadPanel(ctx, []string{"A", "MISSING"})
	assert.ErrorIs(t, err, domain.ErrInvalidPanel)
}

package runs

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aristath/horizon/internal/domain"
	testingpkg "github.com/aristath/horizon/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := testingpkg.NewTestDB(t, "history")
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepository_CreateGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	run := domain.Run{
		CreatedAt:      created,
		ID:             "run-1",
		Status:         domain.RunStatusRunning,
		Location:       "/data/paths/run-1",
		Assets:         []string{"IWDA.L", "AGG"},
		Seed:           math.MaxUint64,
		NumSimulations: 10000,
		HorizonMonths:  900,
	}
	require.NoError(t, repo.Create(ctx, run))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, domain.RunStatusRunning, got.Status)
	assert.Equal(t, run.Assets, got.Assets)
	assert.Equal(t, uint64(math.MaxUint64), got.Seed)
	assert.Equal(t, 10000, got.NumSimulations)
	assert.Equal(t, 900, got.HorizonMonths)
	assert.Equal(t, 75, got.HorizonYears())
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.CompletedAt)
}

func TestRepository_GetNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := domain.Run{
		CreatedAt: time.Now().UTC(),
		ID:        "run-2",
		Status:    domain.RunStatusRunning,
		Assets:    []string{},
	}
	require.NoError(t, repo.Create(ctx, run))

	completed := time.Now().UTC().Truncate(time.Second)
	run.Status = domain.RunStatusPartial
	run.Assets = []string{"GLD", "AGG"}
	run.HistoryMonths = 240
	run.Error = "failed to save AGG"
	run.CompletedAt = &completed
	require.NoError(t, repo.UpdateStatus(ctx, run))

	got, err := repo.Get(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPartial, got.Status)
	assert.Equal(t, []string{"GLD", "AGG"}, got.Assets)
	assert.Equal(t, 240, got.HistoryMonths)
	assert.Equal(t, "failed to save AGG", got.Error)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completed.Equal(*got.CompletedAt))

	run.ID = "missing"
	assert.ErrorIs(t, repo.UpdateStatus(ctx, run), domain.ErrNotFound)
}

func TestRepository_List(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	empty, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, domain.Run{
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			ID:        id,
			Status:    domain.RunStatusCompleted,
			Assets:    []string{"AGG"},
		}))
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

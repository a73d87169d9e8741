package runs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/historical"
	"github.com/aristath/horizon/internal/modules/pathstore"
	"github.com/aristath/horizon/internal/modules/simulation"
	testingpkg "github.com/aristath/horizon/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type serviceFixture struct {
	service *Service
	repo    *Repository
	dir     string
}

func newServiceFixture(t *testing.T, backend pathstore.Backend) serviceFixture {
	t.Helper()
	log := zerolog.Nop()
	db := testingpkg.NewTestDB(t, "history")

	history := historical.NewRepository(db.Conn(), log)
	for _, series := range testingpkg.NewSeriesFixtures() {
		require.NoError(t, history.SaveSeries(context.Background(), series))
	}

	dir := ""
	if backend == nil {
		dir = t.TempDir()
		fileBackend, err := pathstore.NewFileBackend(dir)
		require.NoError(t, err)
		backend = fileBackend
	}

	repo := NewRepository(db.Conn(), log)
	service := NewService(
		repo,
		history,
		simulation.NewEngine(2, log),
		pathstore.New(backend, "", log),
		log,
	)
	return serviceFixture{service: service, repo: repo, dir: dir}
}

func seedPtr(v uint64) *uint64 {
	return &v
}

func TestService_Run_Completed(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	var lastProgress int
	run, err := f.service.Run(ctx, Request{
		Assets:         []string{"GLD", "IWDA.L", "AGG"},
		NumSimulations: 100,
		HorizonMonths:  24,
		Seed:           seedPtr(42),
	}, func(current, total int, message string) {
		lastProgress = current
	})
	require.NoError(t, err)
	assert.Equal(t, 100, lastProgress)

	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, []string{"GLD", "IWDA.L", "AGG"}, run.Assets)
	assert.Equal(t, uint64(42), run.Seed)
	assert.Equal(t, 5, run.HistoryMonths)
	assert.Empty(t, run.Error)
	require.NotNil(t, run.CompletedAt)
	assert.Equal(t, filepath.Join(f.dir, run.ID), run.Location)

	for _, asset := range []string{"GLD", "IWDA.L", "AGG"} {
		assert.FileExists(t, filepath.Join(f.dir, run.ID, pathstore.FileName(asset)))
	}
	assert.FileExists(t, filepath.Join(f.dir, run.ID, pathstore.ManifestName))

	stored, err := f.repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, stored.Status)
	assert.Equal(t, run.Assets, stored.Assets)

	manifest, err := pathstore.New(mustFileBackend(t, f.dir), run.ID, zerolog.Nop()).LoadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, manifest.RunID)
	assert.Equal(t, uint64(42), manifest.Seed)
	assert.Equal(t, 5, manifest.HistoryMonths)

	paths, err := f.service.Paths(ctx, run.ID, "GLD")
	require.NoError(t, err)
	r, c := paths.Dims()
	assert.Equal(t, 100, r)
	assert.Equal(t, 24, c)

	table, err := f.service.Annual(ctx, run.ID, "GLD", 12)
	require.NoError(t, err)
	r, c = table.Dims()
	assert.Equal(t, 100, r)
	assert.Equal(t, 2, c)
}

func mustFileBackend(t *testing.T, dir string) *pathstore.FileBackend {
	t.Helper()
	backend, err := pathstore.NewFileBackend(dir)
	require.NoError(t, err)
	return backend
}

func TestService_Run_AllStoredAssets(t *testing.T) {
	f := newServiceFixture(t, nil)

	run, err := f.service.Run(context.Background(), Request{NumSimulations: 5, HorizonMonths: 12}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AGG", "GLD", "IWDA.L"}, run.Assets)
	assert.NotZero(t, run.Seed)
}

func TestService_Run_SameSeedSamePaths(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()
	req := Request{Assets: []string{"AGG"}, NumSimulations: 20, HorizonMonths: 12, Seed: seedPtr(7)}

	first, err := f.service.Run(ctx, req, nil)
	require.NoError(t, err)
	second, err := f.service.Run(ctx, req, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	a, err := f.service.Paths(ctx, first.ID, "AGG")
	require.NoError(t, err)
	b, err := f.service.Paths(ctx, second.ID, "AGG")
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestService_Run_InvalidParameters(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Run(ctx, Request{NumSimulations: 0, HorizonMonths: 12}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = f.service.Run(ctx, Request{NumSimulations: 10, HorizonMonths: -1}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	list, err := f.service.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "invalid requests must not be recorded")
}

func TestService_Run_UnknownAsset(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	run, err := f.service.Run(ctx, Request{
		Assets:         []string{"AGG", "MISSING"},
		NumSimulations: 10,
		HorizonMonths:  12,
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPanel)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusFailed, run.Status)

	stored, err := f.repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
	assert.NotNil(t, stored.CompletedAt)

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_Run_Partial(t *testing.T) {
	backend := testingpkg.NewMockBackend()
	backend.FailKeysContaining("AGG")
	f := newServiceFixture(t, backend)
	ctx := context.Background()

	run, err := f.service.Run(ctx, Request{
		Assets:         []string{"IWDA.L", "AGG", "GLD"},
		NumSimulations: 10,
		HorizonMonths:  12,
		Seed:           seedPtr(1),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPartial, run.Status)
	assert.Contains(t, run.Error, "AGG")

	_, err = f.service.Annual(ctx, run.ID, "GLD", 12)
	assert.NoError(t, err)
	_, err = f.service.Annual(ctx, run.ID, "AGG", 12)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	manifest, err := pathstore.New(backend, run.ID, zerolog.Nop()).LoadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"IWDA.L", "GLD"}, manifest.Assets)
}

func TestService_Run_NothingSaved(t *testing.T) {
	backend := testingpkg.NewMockBackend()
	backend.FailKeysContaining("_simulated_returns.mat")
	f := newServiceFixture(t, backend)

	run, err := f.service.Run(context.Background(), Request{NumSimulations: 3, HorizonMonths: 12}, nil)
	assert.ErrorIs(t, err, domain.ErrStorage)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
}

func TestService_Run_Cancelled(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run, err := f.service.Run(ctx, Request{NumSimulations: 500, HorizonMonths: 12}, func(current, total int, message string) {
		if current == 5 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)

	stored, err := f.repo.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, stored.Status)
}

func TestService_Annual(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	run, err := f.service.Run(ctx, Request{Assets: []string{"AGG"}, NumSimulations: 4, HorizonMonths: 18}, nil)
	require.NoError(t, err)

	_, err = f.service.Annual(ctx, run.ID, "AGG", 12)
	assert.ErrorIs(t, err, domain.ErrMisalignedHorizon)

	table, err := f.service.Annual(ctx, run.ID, "AGG", 6)
	require.NoError(t, err)
	_, c := table.Dims()
	assert.Equal(t, 3, c)

	_, err = f.service.Annual(ctx, run.ID, "AGG", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = f.service.Annual(ctx, "missing", "AGG", 12)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

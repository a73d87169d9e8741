package pathstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/horizon/internal/domain"
	testingpkg "github.com/aristath/horizon/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewS3Backend_Validation(t *testing.T) {
	_, err := NewS3Backend(nil, "bucket", "", zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = NewS3Backend(testingpkg.NewMockS3Client(), "", "", zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestS3Backend_RoundTrip(t *testing.T) {
	client := testingpkg.NewMockS3Client()
	backend, err := NewS3Backend(client, "sims", "paths", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "s3://sims/paths", backend.Describe())

	store := New(backend, "run-9", zerolog.Nop())
	ctx := context.Background()
	original := samplePaths()

	require.NoError(t, store.Save(ctx, "^GSPC", original))
	_, ok := client.Object("sims", "paths/run-9/_GSPC_simulated_returns.mat")
	assert.True(t, ok, "stored keys: %v", client.Keys())
	assert.Equal(t, 1, client.PutCalls())

	loaded, err := store.Load(ctx, "^GSPC")
	require.NoError(t, err)
	assert.True(t, mat.Equal(original, loaded))
}

func TestS3Backend_NotFound(t *testing.T) {
	backend, err := NewS3Backend(testingpkg.NewMockS3Client(), "sims", "", zerolog.Nop())
	require.NoError(t, err)

	_, err = New(backend, "", zerolog.Nop()).Load(context.Background(), "AGG")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestS3Backend_UploadFailure(t *testing.T) {
	client := testingpkg.NewMockS3Client()
	client.SetError(errors.New("connection reset"))
	backend, err := NewS3Backend(client, "sims", "", zerolog.Nop())
	require.NoError(t, err)

	store := New(backend, "", zerolog.Nop())
	err = store.Save(context.Background(), "AGG", samplePaths())
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Empty(t, client.Keys())

	_, err = store.Load(context.Background(), "AGG")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestS3Backend_Manifest(t *testing.T) {
	client := testingpkg.NewMockS3Client()
	backend, err := NewS3Backend(client, "sims", "", zerolog.Nop())
	require.NoError(t, err)
	store := New(backend, "run-1", zerolog.Nop())

	require.NoError(t, store.SaveManifest(context.Background(), Manifest{RunID: "run-1", Assets: []string{"AGG"}}))
	loaded, err := store.LoadManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
}

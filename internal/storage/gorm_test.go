package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupGormStore(t *testing.T) (*GormStore, *gorm.DB) {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "documents.db")
	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite")
	require.NoError(t, database.AutoMigrate(&DocumentRecord{}))

	store, err := NewGormStore(database, "")
	require.NoError(t, err)
	return store, database
}

func TestGormStoreRoundTrip(t *testing.T) {
	store, _ := setupGormStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, leaderboard.ErrDocumentMissing)

	created, err := store.Initialize(ctx, seedAt())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Initialize(ctx, seedAt())
	require.NoError(t, err)
	assert.False(t, created)

	document, err := store.Load(ctx)
	require.NoError(t, err)
	document.Scores[0].Score = 999
	require.NoError(t, store.Save(ctx, document))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(999), reloaded.Scores[0].Score)
	assert.Len(t, reloaded.Activities, 3)
}

func TestGormStoreReportsCorruptPayload(t *testing.T) {
	store, database := setupGormStore(t)

	record := DocumentRecord{Name: DefaultDocumentName, Payload: datatypes.JSON(`{"players":[]}`)}
	require.NoError(t, database.Create(&record).Error)

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, leaderboard.ErrCorruptState)
}

func TestGormStoreReportsClosedDatabase(t *testing.T) {
	store, database := setupGormStore(t)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, leaderboard.ErrStorage)
}

func TestNewGormStoreRequiresDatabase(t *testing.T) {
	_, err := NewGormStore(nil, "")
	assert.Error(t, err)
}

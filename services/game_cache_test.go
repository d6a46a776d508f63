package services

import (
	"context"
	"errors"
	"testing"

	"task-center/models"
	"task-center/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGameCache(t *testing.T) (*GameCacheService, *fakeKV, *repository.GameRepository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	games := repository.NewGameRepository(db)
	kv := newFakeKV()
	return NewGameCacheService(games, kv), kv, games, db
}

func seedGame(t *testing.T, games *repository.GameRepository, code string) *models.Game {
	t.Helper()
	game, err := models.NewGame(code, "Game "+code, "")
	require.NoError(t, err)
	require.NoError(t, games.Save(context.Background(), game))
	return game
}

func TestGetByCodeMissPopulatesCache(t *testing.T) {
	svc, kv, games, db := newGameCache(t)
	seeded := seedGame(t, games, "tetris")

	game, err := svc.GetByCode(context.Background(), "tetris")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, game.ID)

	_, cached := kv.field(GameCacheKey, "tetris")
	require.True(t, cached)

	// Deleting the row proves the second read comes from the cache, not the
	// store.
	require.NoError(t, db.Delete(&models.Game{}, seeded.ID).Error)
	again, err := svc.GetByCode(context.Background(), "tetris")
	require.NoError(t, err)
	require.Equal(t, seeded.GameCode, again.GameCode)
}

func TestGetByCodeUnknownGame(t *testing.T) {
	svc, _, _, _ := newGameCache(t)

	_, err := svc.GetByCode(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrGameNotFound)
}

func TestGetByCodeDegradesOnCacheFailure(t *testing.T) {
	svc, kv, games, _ := newGameCache(t)
	seeded := seedGame(t, games, "tetris")
	kv.err = errors.New("connection refused")

	game, err := svc.GetByCode(context.Background(), "tetris")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, game.ID)

	// Degraded reads bypass the write-back.
	kv.err = nil
	_, cached := kv.field(GameCacheKey, "tetris")
	require.False(t, cached)
}

func TestGetByCodeCorruptEntryRefreshed(t *testing.T) {
	svc, kv, games, _ := newGameCache(t)
	seeded := seedGame(t, games, "tetris")
	require.NoError(t, kv.Put(context.Background(), GameCacheKey, "tetris", "{not json"))

	game, err := svc.GetByCode(context.Background(), "tetris")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, game.ID)

	val, cached := kv.field(GameCacheKey, "tetris")
	require.True(t, cached)
	require.NotEqual(t, "{not json", val)
}

func TestRebuildCacheReplacesContents(t *testing.T) {
	svc, kv, games, db := newGameCache(t)
	seedGame(t, games, "tetris")
	seedGame(t, games, "pong")

	inactive := seedGame(t, games, "retired")
	// An explicit update sidesteps the column default on create.
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	// A stale entry from before the rebuild.
	require.NoError(t, kv.Put(context.Background(), GameCacheKey, "stale", "{}"))

	count, err := svc.RebuildCache(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	_, ok := kv.field(GameCacheKey, "tetris")
	require.True(t, ok)
	_, ok = kv.field(GameCacheKey, "pong")
	require.True(t, ok)
	_, ok = kv.field(GameCacheKey, "stale")
	require.False(t, ok)
	_, ok = kv.field(GameCacheKey, "retired")
	require.False(t, ok)
}

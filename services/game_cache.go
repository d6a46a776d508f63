package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"task-center/cache"
	"task-center/models"
	"task-center/repository"

	"github.com/sirupsen/logrus"
)

// GameCacheKey is the Redis hash holding active games, field = game code.
const GameCacheKey = "games:active_list"

// HashStore is the slice of the key-value cache the services consume.
// Implemented by cache.RedisService.
type HashStore interface {
	Get(ctx context.Context, cacheKey, fieldKey string) (string, error)
	GetAll(ctx context.Context, cacheKey string) (map[string]string, error)
	Put(ctx context.Context, cacheKey, fieldKey, value string) error
	PutAll(ctx context.Context, cacheKey string, items map[string]string) error
	Remove(ctx context.Context, cacheKey string, fieldKeys ...string) error
	Delete(ctx context.Context, cacheKey string) error
}

// GameCacheService is the cache-aside layer over the game repository. The
// store stays the source of truth; the cache is a best-effort accelerator
// with a documented degraded path when the backend is down.
type GameCacheService struct {
	games *repository.GameRepository
	kv    HashStore
}

func NewGameCacheService(games *repository.GameRepository, kv HashStore) *GameCacheService {
	return &GameCacheService{games: games, kv: kv}
}

// GetByCode resolves a game through the cache. A miss falls through to the
// store and writes back; a cache backend failure degrades straight to the
// store and skips the write-back.
func (s *GameCacheService) GetByCode(ctx context.Context, gameCode string) (*models.Game, error) {
	val, err := s.kv.Get(ctx, GameCacheKey, gameCode)
	switch {
	case err == nil:
		var game models.Game
		if uerr := json.Unmarshal([]byte(val), &game); uerr == nil {
			return &game, nil
		}
		// Corrupt entry: fall through to the store and overwrite it.
		logrus.WithField("game_code", gameCode).Warn("corrupt game cache entry, refreshing from store")
		return s.loadAndWriteBack(ctx, gameCode)
	case errors.Is(err, cache.ErrCacheMiss):
		logrus.WithField("game_code", gameCode).Info("game cache miss, loading from store")
		return s.loadAndWriteBack(ctx, gameCode)
	default:
		logrus.WithError(err).WithField("game_code", gameCode).Warn("game cache unavailable, degrading to store")
		return s.games.FindByCode(ctx, gameCode)
	}
}

func (s *GameCacheService) loadAndWriteBack(ctx context.Context, gameCode string) (*models.Game, error) {
	game, err := s.games.FindByCode(ctx, gameCode)
	if err != nil {
		return nil, err
	}
	// Write-back is best effort; a cache write failure must not fail the read.
	if err := s.SaveGame(ctx, game); err != nil {
		logrus.WithError(err).WithField("game_code", gameCode).Warn("game cache write-back failed")
	}
	return game, nil
}

// SaveGame upserts a single game into the cache hash keyed by game code.
// This is the only cache mutation on the write path.
func (s *GameCacheService) SaveGame(ctx context.Context, game *models.Game) error {
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("serializing game %s: %w", game.GameCode, err)
	}
	return s.kv.Put(ctx, GameCacheKey, game.GameCode, string(payload))
}

// RebuildCache reloads every active game from the store and atomically
// replaces the backing hash (delete, then bulk put). Returns the number of
// games written. Used to pre-warm at startup and re-invoked on demand.
func (s *GameCacheService) RebuildCache(ctx context.Context) (int, error) {
	games, err := s.games.FindAllActive(ctx)
	if err != nil {
		return 0, err
	}

	items := make(map[string]string, len(games))
	for i := range games {
		payload, err := json.Marshal(&games[i])
		if err != nil {
			return 0, fmt.Errorf("serializing game %s: %w", games[i].GameCode, err)
		}
		items[games[i].GameCode] = string(payload)
	}

	if err := s.kv.Delete(ctx, GameCacheKey); err != nil {
		return 0, err
	}
	if err := s.kv.PutAll(ctx, GameCacheKey, items); err != nil {
		return 0, err
	}

	logrus.WithField("count", len(items)).Info("game cache rebuilt")
	return len(items), nil
}

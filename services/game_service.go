package services

import (
	"context"
	"errors"
	"time"

	"task-center/models"
	"task-center/repository"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrGameInactive rejects launch/play commands against deactivated games.
var ErrGameInactive = errors.New("game is not active")

type GameService struct {
	db        *gorm.DB
	users     *repository.UserRepository
	games     *repository.GameRepository
	launches  *repository.GameLaunchRecordRepository
	plays     *repository.GamePlayRecordRepository
	gameCache *GameCacheService
	publisher Publisher

	now func() time.Time
}

func NewGameService(db *gorm.DB, users *repository.UserRepository, games *repository.GameRepository,
	launches *repository.GameLaunchRecordRepository, plays *repository.GamePlayRecordRepository,
	gameCache *GameCacheService, publisher Publisher) *GameService {
	return &GameService{
		db:        db,
		users:     users,
		games:     games,
		launches:  launches,
		plays:     plays,
		gameCache: gameCache,
		publisher: publisher,
		now:       time.Now,
	}
}

// HandleGameLaunch records the first launch of a game by a user and
// publishes a GameLaunchEvent. A repeat launch of the same game is a no-op.
func (s *GameService) HandleGameLaunch(ctx context.Context, username, gameCode string) error {
	now := s.now()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	game, err := s.gameCache.GetByCode(ctx, gameCode)
	if err != nil {
		return err
	}
	if !game.IsActive {
		return ErrGameInactive
	}

	hasLaunched, err := s.launches.ExistsByUserIDAndGameID(ctx, user.ID, game.ID)
	if err != nil {
		return err
	}
	if hasLaunched {
		logrus.WithFields(logrus.Fields{
			"username": username, "game_code": gameCode,
		}).Debug("game already launched, skipping")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"username": username, "game_code": gameCode,
	}).Info("handling game launch")

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.launches.WithTx(tx).Save(ctx, models.NewGameLaunchRecord(user.ID, game.ID, now)); err != nil {
			return err
		}
		if !user.EligibleForMissions(now) {
			logrus.WithField("username", username).Debug("user outside eligibility window, skipping launch event")
			return nil
		}
		event := models.GameLaunchEvent{
			UserID:     user.ID,
			Username:   user.Username,
			GameID:     game.ID,
			GameCode:   game.GameCode,
			LaunchTime: now,
		}
		return s.publisher.PublishGameLaunchEvent(ctx, event)
	})
}

// HandleGamePlay appends a play record and publishes a GamePlayEvent.
func (s *GameService) HandleGamePlay(ctx context.Context, username, gameCode string, score, playDuration int) error {
	now := s.now()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	game, err := s.gameCache.GetByCode(ctx, gameCode)
	if err != nil {
		return err
	}
	if !game.IsActive {
		return ErrGameInactive
	}

	record, err := models.NewGamePlayRecord(user.ID, game.ID, score, playDuration, now)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"username": username, "game_code": gameCode, "score": score,
	}).Info("handling game play")

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.plays.WithTx(tx).Save(ctx, record); err != nil {
			return err
		}
		if !user.EligibleForMissions(now) {
			logrus.WithField("username", username).Debug("user outside eligibility window, skipping play event")
			return nil
		}
		event := models.GamePlayEvent{
			UserID:       user.ID,
			Username:     user.Username,
			GameID:       game.ID,
			GameCode:     game.GameCode,
			Score:        score,
			PlayDuration: playDuration,
			PlayTime:     now,
		}
		return s.publisher.PublishGamePlayEvent(ctx, event)
	})
}

// CreateGame registers a new active game. When no code is given it is
// derived from the name.
func (s *GameService) CreateGame(ctx context.Context, gameCode, name, description string) (*models.Game, error) {
	if gameCode == "" {
		gameCode = slug.Make(name)
	}
	game, err := models.NewGame(gameCode, name, description)
	if err != nil {
		return nil, err
	}
	if err := s.games.Save(ctx, game); err != nil {
		return nil, err
	}
	// Write through to the cache; new games arrive through the same hash.
	if err := s.gameCache.SaveGame(ctx, game); err != nil {
		logrus.WithError(err).WithField("game_code", game.GameCode).Warn("game cache write-through failed")
	}
	return game, nil
}

// GetGameByCode resolves a game through the cache-aside layer.
func (s *GameService) GetGameByCode(ctx context.Context, gameCode string) (*models.Game, error) {
	return s.gameCache.GetByCode(ctx, gameCode)
}

func (s *GameService) GetActiveGames(ctx context.Context) ([]models.Game, error) {
	return s.games.FindAllActive(ctx)
}

package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"task-center/config"
	"task-center/models"
	"task-center/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// MissionCacheKey is the Redis hash holding mission list DTOs, field = user ID.
const MissionCacheKey = "missions:list"

// playProgressPartialCredit is the fixed progress reported when the play
// count target is met but the score floor is not. Product-confirmed partial
// credit value, not a function of the raw inputs.
const playProgressPartialCredit = 2

// MissionResponse is the read-model DTO for a user's mission list.
type MissionResponse struct {
	ID                 uint               `json:"id"`
	MissionType        models.MissionType `json:"missionType"`
	CurrentProgress    int                `json:"currentProgress"`
	TargetProgress     int                `json:"targetProgress"`
	ProgressPercentage float64            `json:"progressPercentage"`
	IsCompleted        bool               `json:"isCompleted"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`
	IsRewarded         bool               `json:"isRewarded"`
	RewardedAt         *time.Time         `json:"rewardedAt,omitempty"`
	RewardPoints       int                `json:"rewardPoints"`
}

// MissionService is the reconciliation engine. Any inbound event for a user
// recomputes all three mission counters, detects first-time completions, and
// hands out the one-time completion reward once every mission is done.
type MissionService struct {
	db          *gorm.DB
	missions    *repository.MissionRepository
	users       *repository.UserRepository
	launches    *repository.GameLaunchRecordRepository
	plays       *repository.GamePlayRecordRepository
	userService *UserService
	kv          HashStore
	publisher   Publisher
	cfg         config.MissionConfig

	now func() time.Time
}

func NewMissionService(db *gorm.DB, missions *repository.MissionRepository, users *repository.UserRepository,
	launches *repository.GameLaunchRecordRepository, plays *repository.GamePlayRecordRepository,
	userService *UserService, kv HashStore, publisher Publisher, cfg config.MissionConfig) *MissionService {
	return &MissionService{
		db:          db,
		missions:    missions,
		users:       users,
		launches:    launches,
		plays:       plays,
		userService: userService,
		kv:          kv,
		publisher:   publisher,
		cfg:         cfg,
		now:         time.Now,
	}
}

// InitializeMissions creates the full mission set for a user that has none.
// Creation is all-or-nothing: a user has either zero rows or one per type.
func (s *MissionService) InitializeMissions(ctx context.Context, userID uint) error {
	exists, err := s.missions.ExistsByUserIDAndType(ctx, userID, models.MissionConsecutiveLogin)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	logrus.WithField("user_id", userID).Info("initializing missions")
	missions := make([]*models.Mission, 0, len(models.AllMissionTypes))
	for _, missionType := range models.AllMissionTypes {
		m, err := models.NewMission(userID, missionType, s.targetFor(missionType), 0)
		if err != nil {
			return err
		}
		missions = append(missions, m)
	}
	return s.missions.CreateAll(ctx, missions)
}

func (s *MissionService) targetFor(missionType models.MissionType) int {
	switch missionType {
	case models.MissionConsecutiveLogin:
		return s.cfg.ConsecutiveLoginDays
	case models.MissionLaunchGames:
		return s.cfg.LaunchGamesCount
	default:
		return s.cfg.PlayGamesCount
	}
}

// UpdateMissionProgress recomputes the three mission counters concurrently,
// then checks whether the completion reward is due. Triggered by every
// deduplicated inbound event for the user.
func (s *MissionService) UpdateMissionProgress(ctx context.Context, userID uint, username string) error {
	logrus.WithField("user_id", userID).Info("updating mission progress")
	s.evictMissionCache(ctx, userID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.updateConsecutiveLoginMission(gctx, userID, username) })
	g.Go(func() error { return s.updateLaunchGamesMission(gctx, userID, username) })
	g.Go(func() error { return s.updatePlayGamesMission(gctx, userID, username) })
	if err := g.Wait(); err != nil {
		return err
	}

	return s.checkAndDistributeRewards(ctx, userID, username)
}

func (s *MissionService) updateConsecutiveLoginMission(ctx context.Context, userID uint, username string) error {
	mission, err := s.missions.FindByUserIDAndType(ctx, userID, models.MissionConsecutiveLogin)
	if err != nil {
		return err
	}
	days, err := s.userService.ConsecutiveLoginDays(ctx, userID)
	if err != nil {
		return err
	}
	return s.applyProgress(ctx, mission, days, username)
}

func (s *MissionService) updateLaunchGamesMission(ctx context.Context, userID uint, username string) error {
	mission, err := s.missions.FindByUserIDAndType(ctx, userID, models.MissionLaunchGames)
	if err != nil {
		return err
	}
	count, err := s.launches.CountDistinctGamesLaunched(ctx, userID)
	if err != nil {
		return err
	}
	return s.applyProgress(ctx, mission, int(count), username)
}

func (s *MissionService) updatePlayGamesMission(ctx context.Context, userID uint, username string) error {
	mission, err := s.missions.FindByUserIDAndType(ctx, userID, models.MissionPlayGames)
	if err != nil {
		return err
	}
	playCount, err := s.plays.CountByUserID(ctx, userID)
	if err != nil {
		return err
	}
	totalScore, err := s.plays.SumScoreByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.applyProgress(ctx, mission, s.playGamesProgress(playCount, totalScore), username)
}

// playGamesProgress folds play count and total score into a single progress
// value: full target when both thresholds are met, partial credit when only
// the count is, the raw count otherwise.
func (s *MissionService) playGamesProgress(playCount, totalScore int64) int {
	switch {
	case playCount >= int64(s.cfg.PlayGamesCount) && totalScore >= int64(s.cfg.PlayGamesMinScore):
		return s.cfg.PlayGamesCount
	case playCount >= int64(s.cfg.PlayGamesCount):
		return playProgressPartialCredit
	default:
		return int(playCount)
	}
}

// applyProgress persists the new progress value and, when this update is the
// one completing the mission, publishes a MissionCompletedEvent. Publish
// failures here are logged and swallowed: the mission state is already
// durably correct, the notification is not worth rolling it back.
func (s *MissionService) applyProgress(ctx context.Context, mission *models.Mission, progress int, username string) error {
	justCompleted, err := mission.UpdateProgress(progress, s.now())
	if err != nil {
		return err
	}
	if err := s.missions.Save(ctx, mission); err != nil {
		return err
	}
	if !justCompleted {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"user_id": mission.UserID, "mission_type": mission.MissionType,
	}).Info("mission completed")

	event := models.MissionCompletedEvent{
		UserID:       mission.UserID,
		Username:     username,
		MissionID:    mission.ID,
		MissionType:  mission.MissionType,
		RewardPoints: mission.RewardPoints,
		CompletedAt:  s.now(),
	}
	if err := s.publisher.PublishMissionCompletedEvent(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": mission.UserID, "mission_type": mission.MissionType,
		}).Error("mission completed event publish failed")
	}
	return nil
}

// checkAndDistributeRewards grants the completion reward once all missions
// are complete. The claim is a conditional UPDATE over the mission rows;
// concurrent triggers race on it and only the one that captures every row
// adds the points, so the reward cannot be granted twice.
func (s *MissionService) checkAndDistributeRewards(ctx context.Context, userID uint, username string) error {
	allCompleted, err := s.missions.AreAllMissionsCompleted(ctx, userID)
	if err != nil {
		return err
	}
	if !allCompleted {
		return nil
	}

	var granted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.missions.WithTx(tx).ClaimUnrewarded(ctx, userID, s.now())
		if err != nil {
			return err
		}
		if claimed != int64(len(models.AllMissionTypes)) {
			// Another trigger already claimed the reward.
			return nil
		}
		if err := s.users.WithTx(tx).AddPoints(ctx, userID, s.cfg.CompletionRewardPoints); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return err
	}
	if !granted {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID, "points": s.cfg.CompletionRewardPoints,
	}).Info("all missions completed, reward distributed")

	s.evictMissionCache(ctx, userID)
	if err := s.kv.Remove(ctx, UserCacheKey, username); err != nil {
		logrus.WithError(err).WithField("username", username).Warn("user cache eviction failed")
	}
	return nil
}

// GetMissionsForUser reads the mission list through its cache entry.
func (s *MissionService) GetMissionsForUser(ctx context.Context, userID uint) ([]MissionResponse, error) {
	field := strconv.FormatUint(uint64(userID), 10)
	if val, err := s.kv.Get(ctx, MissionCacheKey, field); err == nil {
		var cached []MissionResponse
		if uerr := json.Unmarshal([]byte(val), &cached); uerr == nil {
			return cached, nil
		}
	}

	missions, err := s.missions.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	responses := make([]MissionResponse, 0, len(missions))
	for i := range missions {
		m := &missions[i]
		responses = append(responses, MissionResponse{
			ID:                 m.ID,
			MissionType:        m.MissionType,
			CurrentProgress:    m.CurrentProgress,
			TargetProgress:     m.TargetProgress,
			ProgressPercentage: m.ProgressPercentage(),
			IsCompleted:        m.IsCompleted,
			CompletedAt:        m.CompletedAt,
			IsRewarded:         m.IsRewarded,
			RewardedAt:         m.RewardedAt,
			RewardPoints:       m.RewardPoints,
		})
	}

	if payload, err := json.Marshal(responses); err == nil {
		if err := s.kv.Put(ctx, MissionCacheKey, field, string(payload)); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("mission cache write failed")
		}
	}
	return responses, nil
}

func (s *MissionService) evictMissionCache(ctx context.Context, userID uint) {
	field := strconv.FormatUint(uint64(userID), 10)
	if err := s.kv.Remove(ctx, MissionCacheKey, field); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("mission cache eviction failed")
	}
}

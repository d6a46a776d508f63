package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"task-center/models"
	"task-center/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserCacheKey is the Redis hash holding user profiles, field = username.
const UserCacheKey = "users:profile"

// recentLoginWindow is how many recent login records the streak computation
// looks at.
const recentLoginWindow = 10

// Publisher is the outbound event surface the command services depend on.
// Implemented by messaging.EventPublisher.
type Publisher interface {
	PublishLoginEvent(ctx context.Context, event interface{}) error
	PublishGameLaunchEvent(ctx context.Context, event interface{}) error
	PublishGamePlayEvent(ctx context.Context, event interface{}) error
	PublishMissionCompletedEvent(ctx context.Context, event interface{}) error
}

type UserService struct {
	db           *gorm.DB
	users        *repository.UserRepository
	loginRecords *repository.LoginRecordRepository
	kv           HashStore
	publisher    Publisher

	// now is swapped out in tests.
	now func() time.Time
}

func NewUserService(db *gorm.DB, users *repository.UserRepository, loginRecords *repository.LoginRecordRepository, kv HashStore, publisher Publisher) *UserService {
	return &UserService{
		db:           db,
		users:        users,
		loginRecords: loginRecords,
		kv:           kv,
		publisher:    publisher,
		now:          time.Now,
	}
}

// HandleLogin processes a login command: find-or-create the user, record at
// most one login per calendar date, and publish a UserLoginEvent for users
// inside the mission eligibility window. The record write and the publish
// share one transaction — if the event cannot be published after retries,
// the whole command fails and the record write rolls back.
func (s *UserService) HandleLogin(ctx context.Context, username string) (*models.User, error) {
	now := s.now()
	var user *models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		loginRecords := s.loginRecords.WithTx(tx)

		u, err := users.FindByUsername(ctx, username)
		if err == repository.ErrUserNotFound {
			logrus.WithField("username", username).Info("creating new user")
			if u, err = models.NewUser(username, now); err != nil {
				return err
			}
			if err = users.Save(ctx, u); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		exists, err := loginRecords.ExistsByUserIDAndDate(ctx, u.ID, now)
		if err != nil {
			return err
		}
		if !exists {
			if err := loginRecords.Save(ctx, models.NewLoginRecord(u.ID, now)); err != nil {
				return err
			}
		}

		if u.EligibleForMissions(now) {
			event := models.UserLoginEvent{UserID: u.ID, Username: u.Username, LoginTime: now}
			if err := s.publisher.PublishLoginEvent(ctx, event); err != nil {
				logrus.WithError(err).WithField("username", username).Error("login event publish failed, rolling back")
				return err
			}
		} else {
			logrus.WithField("username", username).Debug("user outside eligibility window, skipping login event")
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheUser(ctx, user)
	return user, nil
}

// GetUserByUsername reads through the user profile cache.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if val, err := s.kv.Get(ctx, UserCacheKey, username); err == nil {
		var user models.User
		if uerr := json.Unmarshal([]byte(val), &user); uerr == nil {
			return &user, nil
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	s.cacheUser(ctx, user)
	return user, nil
}

func (s *UserService) cacheUser(ctx context.Context, user *models.User) {
	payload, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.kv.Put(ctx, UserCacheKey, user.Username, string(payload)); err != nil {
		logrus.WithError(err).WithField("username", user.Username).Warn("user cache write failed")
	}
}

// ConsecutiveLoginDays returns the login streak ending at the user's most
// recent login date.
func (s *UserService) ConsecutiveLoginDays(ctx context.Context, userID uint) (int, error) {
	records, err := s.loginRecords.FindRecentByUserID(ctx, userID, recentLoginWindow)
	if err != nil {
		return 0, err
	}
	return CalculateConsecutiveLoginDays(records), nil
}

// CalculateConsecutiveLoginDays counts the longest run of calendar-
// consecutive dates anchored at the most recent one. Duplicate dates
// collapse, and the input order does not matter.
func CalculateConsecutiveLoginDays(records []models.LoginRecord) int {
	if len(records) == 0 {
		return 0
	}

	seen := make(map[time.Time]struct{}, len(records))
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		d := models.TruncateToDate(r.LoginDate)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	streak := 1
	prev := dates[0]
	for _, d := range dates[1:] {
		if d.AddDate(0, 0, 1).Equal(prev) {
			streak++
			prev = d
			continue
		}
		break
	}
	return streak
}

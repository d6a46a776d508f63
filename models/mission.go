package models

import (
	"errors"
	"time"
)

type MissionType string

const (
	MissionConsecutiveLogin MissionType = "CONSECUTIVE_LOGIN"
	MissionLaunchGames      MissionType = "LAUNCH_GAMES"
	MissionPlayGames        MissionType = "PLAY_GAMES"
)

// AllMissionTypes is the closed set of mission types. A user has either zero
// mission rows or exactly one per entry here.
var AllMissionTypes = []MissionType{
	MissionConsecutiveLogin,
	MissionLaunchGames,
	MissionPlayGames,
}

// Mission tracks one user's progress toward one mission type.
//
// State machine: NotStarted → InProgress → Completed → Rewarded. Completion
// latches: once IsCompleted is true a later, lower progress value still
// updates CurrentProgress but never unsets the flag.
type Mission struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	UserID          uint        `json:"user_id" gorm:"not null;uniqueIndex:idx_mission_user_type"`
	MissionType     MissionType `json:"mission_type" gorm:"not null;uniqueIndex:idx_mission_user_type"`
	CurrentProgress int         `json:"current_progress" gorm:"not null;default:0"`
	TargetProgress  int         `json:"target_progress" gorm:"not null"`
	IsCompleted     bool        `json:"is_completed" gorm:"not null;default:false"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	IsRewarded      bool        `json:"is_rewarded" gorm:"not null;default:false"`
	RewardedAt      *time.Time  `json:"rewarded_at,omitempty"`
	RewardPoints    int         `json:"reward_points" gorm:"not null;default:0"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

var (
	ErrNegativeProgress   = errors.New("progress must not be negative")
	ErrMissionNotComplete = errors.New("cannot reward an incomplete mission")
	ErrAlreadyRewarded    = errors.New("mission reward already claimed")
)

// NewMission creates an unstarted mission for the user.
func NewMission(userID uint, missionType MissionType, targetProgress, rewardPoints int) (*Mission, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	if missionType == "" {
		return nil, errors.New("mission type must not be empty")
	}
	if targetProgress <= 0 {
		return nil, errors.New("target progress must be positive")
	}
	return &Mission{
		UserID:          userID,
		MissionType:     missionType,
		CurrentProgress: 0,
		TargetProgress:  targetProgress,
		RewardPoints:    rewardPoints,
	}, nil
}

// UpdateProgress sets the progress value and reports whether this call is
// the one that completed the mission.
func (m *Mission) UpdateProgress(newProgress int, now time.Time) (justCompleted bool, err error) {
	if newProgress < 0 {
		return false, ErrNegativeProgress
	}

	wasCompleted := m.IsCompleted
	m.CurrentProgress = newProgress

	if !wasCompleted && m.CurrentProgress >= m.TargetProgress {
		m.IsCompleted = true
		completedAt := now
		m.CompletedAt = &completedAt
		return true, nil
	}
	return false, nil
}

// MarkAsRewarded transitions Completed → Rewarded. Valid only once, and only
// after completion.
func (m *Mission) MarkAsRewarded(now time.Time) error {
	if !m.IsCompleted {
		return ErrMissionNotComplete
	}
	if m.IsRewarded {
		return ErrAlreadyRewarded
	}
	m.IsRewarded = true
	rewardedAt := now
	m.RewardedAt = &rewardedAt
	return nil
}

// ProgressPercentage returns progress as 0-100, capped at 100.
func (m *Mission) ProgressPercentage() float64 {
	if m.TargetProgress == 0 {
		return 100.0
	}
	pct := float64(m.CurrentProgress) / float64(m.TargetProgress) * 100.0
	if pct > 100.0 {
		return 100.0
	}
	return pct
}

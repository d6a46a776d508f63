package models

import "time"

// Domain events carried on the stream transport. These are value objects:
// they are never stored, and they carry enough identity for the consumers to
// build deterministic dedup keys.

type UserLoginEvent struct {
	UserID    uint      `json:"userId"`
	Username  string    `json:"username"`
	LoginTime time.Time `json:"loginTime"`
}

type GameLaunchEvent struct {
	UserID     uint      `json:"userId"`
	Username   string    `json:"username"`
	GameID     uint      `json:"gameId"`
	GameCode   string    `json:"gameCode"`
	LaunchTime time.Time `json:"launchTime"`
}

type GamePlayEvent struct {
	UserID       uint      `json:"userId"`
	Username     string    `json:"username"`
	GameID       uint      `json:"gameId"`
	GameCode     string    `json:"gameCode"`
	Score        int       `json:"score"`
	PlayDuration int       `json:"playDuration"`
	PlayTime     time.Time `json:"playTime"`
}

type MissionCompletedEvent struct {
	UserID       uint        `json:"userId"`
	Username     string      `json:"username"`
	MissionID    uint        `json:"missionId"`
	MissionType  MissionType `json:"missionType"`
	RewardPoints int         `json:"rewardPoints"`
	CompletedAt  time.Time   `json:"completedAt"`
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	now := time.Now()

	_, err := NewUser("   ", now)
	require.Error(t, err)

	u, err := NewUser("  alice  ", now)
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Equal(t, 0, u.Points)
	require.Equal(t, now, u.RegistrationDate)
}

func TestAddPoints(t *testing.T) {
	u, err := NewUser("alice", time.Now())
	require.NoError(t, err)

	require.Error(t, u.AddPoints(-1))
	require.NoError(t, u.AddPoints(777))
	require.Equal(t, 777, u.Points)
}

func TestEligibleForMissions(t *testing.T) {
	registered := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u := &User{Username: "alice", RegistrationDate: registered}

	require.True(t, u.EligibleForMissions(registered))
	require.True(t, u.EligibleForMissions(registered.AddDate(0, 0, 29)))
	require.False(t, u.EligibleForMissions(registered.AddDate(0, 0, 30)))
	require.False(t, u.EligibleForMissions(registered.AddDate(0, 0, 31)))
}

func TestNewLoginRecordTruncatesToDate(t *testing.T) {
	at := time.Date(2026, 3, 15, 23, 45, 1, 0, time.UTC)
	r := NewLoginRecord(7, at)
	require.Equal(t, uint(7), r.UserID)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), r.LoginDate)
}

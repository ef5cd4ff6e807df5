package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadSettings_ParsesUserList(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "test-token")
	t.Setenv("TELEGRAM_USERS", "123, 456 789")

	settings, err := loadSettings()
	require.NoError(t, err)
	require.Equal(t, []int64{123, 456, 789}, settings.Telegram.Users)
}

func TestLoadSettings_EmptyUserListMeansOpenAccess(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "test-token")
	t.Setenv("TELEGRAM_USERS", "")

	settings, err := loadSettings()
	require.NoError(t, err)
	require.Empty(t, settings.Telegram.Users)
}

func TestLoadSettings_RejectsMalformedUserList(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "test-token")
	t.Setenv("TELEGRAM_USERS", "123,abc")

	_, err := loadSettings()
	require.Error(t, err)
}

func TestLoadSettings_RequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")

	_, err := loadSettings()
	require.Error(t, err)
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "test-token")
	t.Setenv("TELEGRAM_USERS", "")

	settings, err := loadSettings()
	require.NoError(t, err)
	require.Equal(t, "buntdb", settings.StorageDriver)
	require.Equal(t, 30*time.Second, settings.Pricing.CacheTTL)
	require.Equal(t, 30*time.Second, settings.Alert.Interval)
	require.Equal(t, 10*time.Second, settings.Alert.InitialDelay)
	require.Equal(t, 15, settings.Alert.FollowUps)
	require.Equal(t, 300*time.Millisecond, settings.Alert.MessageDelay)
}

func TestParseUserIDs(t *testing.T) {
	users, err := parseUserIDs("42")
	require.NoError(t, err)
	require.Equal(t, []int64{42}, users)

	users, err = parseUserIDs(" 1,2 ,3 ")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, users)

	_, err = parseUserIDs("1,two")
	require.Error(t, err)
}

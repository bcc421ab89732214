package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestComputeDashboardStats(t *testing.T) {
	me := UserRecord{ID: 1, Username: "user1"}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	// Newest first.
	games := []Game{
		{ID: 5, UserID: 1, UserScore: 121, OpponentScore: 80, GuestOpponentName: ptr("Gran"), GameDate: base.Add(5 * time.Hour)},
		{ID: 4, UserID: 2, OpponentUserID: ptr(int64(1)), OpponentUsername: ptr("user1"), UserScore: 70, OpponentScore: 121, GameDate: base.Add(4 * time.Hour)},
		{ID: 3, UserID: 1, UserScore: 100, OpponentScore: 121, OpponentUserID: ptr(int64(2)), OpponentUsername: ptr("user2"), GameDate: base.Add(3 * time.Hour)},
		{ID: 2, UserID: 1, UserScore: 121, OpponentScore: 50, GameDate: base.Add(2 * time.Hour)},
		{ID: 1, UserID: 1, UserScore: 90, OpponentScore: 95, GameDate: base.Add(1 * time.Hour)},
	}

	st := ComputeDashboardStats(me, games)
	assert.Equal(t, "user1", st.Username)
	assert.Equal(t, 5, st.TotalGames)
	assert.Equal(t, 3, st.TotalWins)
	assert.Equal(t, 1, st.TotalLosses)
	assert.Equal(t, 2, st.ConsecutiveWins)

	assert.Len(t, st.RecentGames, 5)
	assert.Equal(t, "Gran", st.RecentGames[0].OpponentUsername)
	assert.True(t, st.RecentGames[1].ViewerWon)
	assert.Equal(t, "user2", st.RecentGames[2].OpponentUsername)
	assert.False(t, st.RecentGames[2].ViewerWon)
	assert.Equal(t, "Unknown Opponent", st.RecentGames[3].OpponentUsername)
}

func TestComputeDashboardStats_RecentGamesCapped(t *testing.T) {
	me := UserRecord{ID: 1, Username: "user1"}
	var games []Game
	for i := 0; i < 15; i++ {
		games = append(games, Game{ID: int64(15 - i), UserID: 1, UserScore: 121, OpponentScore: 10})
	}
	st := ComputeDashboardStats(me, games)
	assert.Equal(t, 15, st.TotalGames)
	assert.Equal(t, 15, st.ConsecutiveWins)
	assert.Len(t, st.RecentGames, recentGamesLimit)
	assert.Equal(t, int64(15), st.RecentGames[0].ID)
}

func TestComputeDashboardStats_Empty(t *testing.T) {
	st := ComputeDashboardStats(UserRecord{ID: 1, Username: "user1"}, nil)
	assert.Zero(t, st.TotalGames)
	assert.NotNil(t, st.RecentGames)
	assert.Empty(t, st.RecentGames)
}

package core

import "time"

const (
	winningScore     = 121
	recentGamesLimit = 10
)

// GameView is the JSON shape of a game as seen by a particular viewer.
type GameView struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	UserUsername     string    `json:"user_username"`
	UserScore        int       `json:"user_score"`
	OpponentUserID   *int64    `json:"opponent_user_id"`
	OpponentUsername string    `json:"opponent_username"`
	OpponentScore    int       `json:"opponent_score"`
	IsSkunk          bool      `json:"is_skunk"`
	IsDoubleSkunk    bool      `json:"is_double_skunk"`
	GameDate         time.Time `json:"game_date"`
	Notes            *string   `json:"notes"`
	ViewerWon        bool      `json:"viewer_won"`
}

// DashboardStats summarises a user's games.
type DashboardStats struct {
	Username        string     `json:"username"`
	TotalGames      int        `json:"total_games"`
	TotalWins       int        `json:"total_wins"`
	TotalLosses     int        `json:"total_losses"`
	ConsecutiveWins int        `json:"consecutive_wins"`
	RecentGames     []GameView `json:"recent_games"`
}

// opponentName picks the registered opponent, then the guest, then a placeholder.
func (g Game) opponentName() string {
	if g.OpponentUsername != nil && *g.OpponentUsername != "" {
		return *g.OpponentUsername
	}
	if g.GuestOpponentName != nil && *g.GuestOpponentName != "" {
		return *g.GuestOpponentName
	}
	return "Unknown Opponent"
}

func (g Game) isOpponent(userID int64) bool {
	return g.OpponentUserID != nil && *g.OpponentUserID == userID
}

// WonBy reports whether userID's side reached the winning score.
func (g Game) WonBy(userID int64) bool {
	if g.UserID == userID && g.UserScore == winningScore {
		return true
	}
	return g.isOpponent(userID) && g.OpponentScore == winningScore
}

// LostBy reports whether the side opposite userID reached the winning score.
func (g Game) LostBy(userID int64) bool {
	if g.UserID == userID && g.OpponentScore == winningScore {
		return true
	}
	return g.isOpponent(userID) && g.UserScore == winningScore
}

// View renders g for viewerID.
func (g Game) View(viewerID int64) GameView {
	return GameView{
		ID:               g.ID,
		UserID:           g.UserID,
		UserUsername:     g.UserUsername,
		UserScore:        g.UserScore,
		OpponentUserID:   g.OpponentUserID,
		OpponentUsername: g.opponentName(),
		OpponentScore:    g.OpponentScore,
		IsSkunk:          g.IsSkunk,
		IsDoubleSkunk:    g.IsDoubleSkunk,
		GameDate:         g.GameDate.UTC(),
		Notes:            g.Notes,
		ViewerWon:        g.WonBy(viewerID),
	}
}

// ComputeDashboardStats expects games ordered newest first.
func ComputeDashboardStats(user UserRecord, games []Game) DashboardStats {
	st := DashboardStats{
		Username:    user.Username,
		TotalGames:  len(games),
		RecentGames: make([]GameView, 0, min(len(games), recentGamesLimit)),
	}
	streakOpen := true
	for i, g := range games {
		won := g.WonBy(user.ID)
		switch {
		case won:
			st.TotalWins++
		case g.LostBy(user.ID):
			st.TotalLosses++
		}
		if streakOpen {
			if won {
				st.ConsecutiveWins++
			} else {
				streakOpen = false
			}
		}
		if i < recentGamesLimit {
			st.RecentGames = append(st.RecentGames, g.View(user.ID))
		}
	}
	return st
}

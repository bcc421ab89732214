package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Game is a recorded cribbage game joined with the usernames of both sides.
type Game struct {
	ID                int64
	UserID            int64
	UserUsername      string
	OpponentUserID    *int64
	OpponentUsername  *string
	GuestOpponentName *string
	UserScore         int
	OpponentScore     int
	IsSkunk           bool
	IsDoubleSkunk     bool
	GameDate          time.Time
	Notes             *string
}

// NewGame is the input for recording a game. UserID always comes from the token.
type NewGame struct {
	UserID            int64
	OpponentUserID    *int64
	GuestOpponentName *string
	UserScore         int
	OpponentScore     int
	IsSkunk           bool
	IsDoubleSkunk     bool
	Notes             *string
}

type GameRepository interface {
	Create(ctx context.Context, g NewGame) (*Game, error)
	// ListForUser returns games where userID recorded or was the registered opponent, newest first.
	ListForUser(ctx context.Context, userID int64) ([]Game, error)
}

type PgGameRepository struct {
	db *pgxpool.Pool
}

func NewPgGameRepository(db *pgxpool.Pool) *PgGameRepository {
	return &PgGameRepository{db: db}
}

func (r *PgGameRepository) Create(ctx context.Context, g NewGame) (*Game, error) {
	const q = `
INSERT INTO cribbage_games
  (user_id, opponent_user_id, guest_opponent_name, user_score, opponent_score, is_skunk, is_double_skunk, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id, game_date`
	out := Game{
		UserID:            g.UserID,
		OpponentUserID:    g.OpponentUserID,
		GuestOpponentName: g.GuestOpponentName,
		UserScore:         g.UserScore,
		OpponentScore:     g.OpponentScore,
		IsSkunk:           g.IsSkunk,
		IsDoubleSkunk:     g.IsDoubleSkunk,
		Notes:             g.Notes,
	}
	if err := r.db.QueryRow(ctx, q,
		g.UserID, g.OpponentUserID, g.GuestOpponentName,
		g.UserScore, g.OpponentScore, g.IsSkunk, g.IsDoubleSkunk, g.Notes,
	).Scan(&out.ID, &out.GameDate); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PgGameRepository) ListForUser(ctx context.Context, userID int64) ([]Game, error) {
	rows, err := r.db.Query(ctx, `
SELECT g.id, g.user_id, u.username, g.opponent_user_id, o.username, g.guest_opponent_name,
       g.user_score, g.opponent_score, g.is_skunk, g.is_double_skunk, g.game_date, g.notes
FROM cribbage_games g
JOIN users u ON u.id = g.user_id
LEFT JOIN users o ON o.id = g.opponent_user_id
WHERE g.user_id = $1 OR g.opponent_user_id = $1
ORDER BY g.game_date DESC, g.id DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	games := []Game{}
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.UserID, &g.UserUsername, &g.OpponentUserID, &g.OpponentUsername,
			&g.GuestOpponentName, &g.UserScore, &g.OpponentScore, &g.IsSkunk, &g.IsDoubleSkunk,
			&g.GameDate, &g.Notes); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

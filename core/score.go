package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxGuestNameLen = 100

var scoreRequiredFields = []string{"user_score", "opponent_score", "is_skunk", "is_double_skunk"}

// ScoreInput is a validated /api/score payload.
type ScoreInput struct {
	UserScore         int
	OpponentScore     int
	OpponentUserID    *int64
	GuestOpponentName *string
	IsSkunk           bool
	IsDoubleSkunk     bool
	Notes             *string
}

// ParseScoreInput validates a decoded JSON object. The returned error message is
// safe to show to the client. Existence of OpponentUserID is checked by the caller.
func ParseScoreInput(data map[string]json.RawMessage) (ScoreInput, error) {
	var in ScoreInput
	for _, f := range scoreRequiredFields {
		if _, ok := data[f]; !ok {
			return in, fmt.Errorf("Missing required field: %s", f)
		}
	}

	userScore, err1 := rawInt(data["user_score"])
	oppScore, err2 := rawInt(data["opponent_score"])
	if err1 != nil || err2 != nil {
		return in, errors.New("Scores must be valid numbers")
	}
	if userScore < 0 || userScore > winningScore || oppScore < 0 || oppScore > winningScore {
		return in, fmt.Errorf("Scores must be between 0 and %d", winningScore)
	}
	in.UserScore = int(userScore)
	in.OpponentScore = int(oppScore)

	var err error
	if in.IsSkunk, err = rawBool(data["is_skunk"]); err != nil {
		return in, errors.New("is_skunk must be a boolean")
	}
	if in.IsDoubleSkunk, err = rawBool(data["is_double_skunk"]); err != nil {
		return in, errors.New("is_double_skunk must be a boolean")
	}

	oppRaw, hasOpp := present(data, "opponent_user_id")
	guestRaw, hasGuest := present(data, "guest_opponent_name")
	switch {
	case !hasOpp && !hasGuest:
		return in, errors.New("Either opponent_user_id or guest_opponent_name must be provided")
	case hasOpp:
		// A registered opponent takes precedence over a guest name.
		id, err := rawInt(oppRaw)
		if err != nil || id <= 0 {
			return in, errors.New("opponent_user_id must be a positive integer")
		}
		in.OpponentUserID = &id
	default:
		var name string
		if err := json.Unmarshal(guestRaw, &name); err != nil {
			return in, errors.New("guest_opponent_name must be a string")
		}
		if utf8.RuneCountInString(name) > maxGuestNameLen {
			return in, fmt.Errorf("guest_opponent_name must be at most %d characters", maxGuestNameLen)
		}
		in.GuestOpponentName = &name
	}

	if notesRaw, ok := present(data, "notes"); ok {
		var notes string
		if err := json.Unmarshal(notesRaw, &notes); err != nil {
			return in, errors.New("notes must be a string")
		}
		in.Notes = &notes
	}
	return in, nil
}

// present reports whether key exists with a non-null value.
func present(data map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := data[key]
	if !ok || strings.TrimSpace(string(raw)) == "null" {
		return nil, false
	}
	return raw, true
}

// rawInt accepts an integral JSON number or a string holding one.
func rawInt(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), nil
		}
		return 0, errors.New("not an integer")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// rawBool accepts JSON booleans, 0/1, and strconv.ParseBool strings. null is false.
func rawBool(raw json.RawMessage) (bool, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case float64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	}
	return false, errors.New("not a boolean")
}

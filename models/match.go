package models

import "time"

type MatchStatus string

const (
	MatchStatusUpcoming  MatchStatus = "upcoming"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
)

// Match хранит пару участников как подписи (имя команды или игрока).
// Для командных видов дополнительно заполняются HomeTeamID/AwayTeamID,
// для одиночных - HomeUserID/AwayUserID.
type Match struct {
	ID         int         `json:"id" db:"id"`
	SportID    int         `json:"sport_id" db:"sport_id"`
	HomeName   string      `json:"home_name" db:"home_name"`
	AwayName   string      `json:"away_name" db:"away_name"`
	HomeTeamID *int        `json:"home_team_id,omitempty" db:"home_team_id"`
	AwayTeamID *int        `json:"away_team_id,omitempty" db:"away_team_id"`
	HomeUserID *int        `json:"home_user_id,omitempty" db:"home_user_id"`
	AwayUserID *int        `json:"away_user_id,omitempty" db:"away_user_id"`
	Venue      string      `json:"venue" db:"venue"`
	StartTime  time.Time   `json:"start_time" db:"start_time"`
	Status     MatchStatus `json:"status" db:"status"`
	HomeScore  string      `json:"home_score" db:"home_score"`
	AwayScore  string      `json:"away_score" db:"away_score"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`

	Sport *Sport `json:"sport,omitempty" db:"-"`
}

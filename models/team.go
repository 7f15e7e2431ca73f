package models

import "time"

type TeamStatus string

const (
	TeamStatusOpen   TeamStatus = "open"
	TeamStatusLocked TeamStatus = "locked"
)

type Team struct {
	ID        int        `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	SportID   int        `json:"sport_id" db:"sport_id"`
	CaptainID int        `json:"captain_id" db:"captain_id"`
	Status    TeamStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`

	Sport   *Sport       `json:"sport,omitempty" db:"-"`
	Captain *User        `json:"captain,omitempty" db:"-"`
	Members []TeamMember `json:"members,omitempty" db:"-"`

	// SeatsLeft заполняется только в выдаче маркетплейса.
	SeatsLeft *int `json:"seats_left,omitempty" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

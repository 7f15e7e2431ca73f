package models

import "time"

type Registration struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	SportID   int       `json:"sport_id" db:"sport_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User  *User  `json:"user,omitempty" db:"-"`
	Sport *Sport `json:"sport,omitempty" db:"-"`
}

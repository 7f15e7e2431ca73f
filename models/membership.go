package models

import "time"

type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "pending"
	MembershipStatusAccepted MembershipStatus = "accepted"
	MembershipStatusRejected MembershipStatus = "rejected"
)

type MemberRole string

const (
	MemberRoleCaptain MemberRole = "captain"
	MemberRolePlayer  MemberRole = "player"
)

type TeamMember struct {
	ID        int              `json:"id" db:"id"`
	TeamID    int              `json:"team_id" db:"team_id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Status    MembershipStatus `json:"status" db:"status"`
	Role      MemberRole       `json:"role" db:"role"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
	Team *Team `json:"team,omitempty" db:"-"`
}

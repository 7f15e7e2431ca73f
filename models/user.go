package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	Gender       Gender    `json:"gender" db:"gender"`
	ClassName    *string   `json:"class_name,omitempty" db:"class_name"`
	StudentID    *string   `json:"student_id,omitempty" db:"student_id"`
	Mobile       *string   `json:"mobile,omitempty" db:"mobile"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

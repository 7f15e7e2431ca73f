package models

import "time"

type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

// Points возвращает вклад медали в таблицу лидеров.
func (m Medal) Points() int {
	switch m {
	case MedalGold:
		return 5
	case MedalSilver:
		return 3
	case MedalBronze:
		return 1
	default:
		return 0
	}
}

func (m Medal) Valid() bool {
	switch m {
	case MedalGold, MedalSilver, MedalBronze:
		return true
	}
	return false
}

type LeaderboardEntry struct {
	ID        int       `json:"id" db:"id"`
	ClassName string    `json:"class_name" db:"class_name"`
	Gold      int       `json:"gold" db:"gold"`
	Silver    int       `json:"silver" db:"silver"`
	Bronze    int       `json:"bronze" db:"bronze"`
	Points    int       `json:"points" db:"points"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urjafest/sportsfest-backend/models"
)

type LeaderboardRepository interface {
	// AwardMedal выполняет upsert по имени класса: инкремент счётчика
	// медали и очков одним запросом.
	AwardMedal(ctx context.Context, className string, medal models.Medal) (*models.LeaderboardEntry, error)
	List(ctx context.Context) ([]*models.LeaderboardEntry, error)
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

func (r *postgresLeaderboardRepository) AwardMedal(ctx context.Context, className string, medal models.Medal) (*models.LeaderboardEntry, error) {
	gold, silver, bronze := 0, 0, 0
	switch medal {
	case models.MedalGold:
		gold = 1
	case models.MedalSilver:
		silver = 1
	case models.MedalBronze:
		bronze = 1
	}

	query := `
		INSERT INTO leaderboard (class_name, gold, silver, bronze, points)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (class_name) DO UPDATE SET
			gold = leaderboard.gold + EXCLUDED.gold,
			silver = leaderboard.silver + EXCLUDED.silver,
			bronze = leaderboard.bronze + EXCLUDED.bronze,
			points = leaderboard.points + EXCLUDED.points,
			updated_at = NOW()
		RETURNING id, class_name, gold, silver, bronze, points, updated_at`

	entry := &models.LeaderboardEntry{}
	err := r.db.QueryRowContext(ctx, query, className, gold, silver, bronze, medal.Points()).Scan(
		&entry.ID,
		&entry.ClassName,
		&entry.Gold,
		&entry.Silver,
		&entry.Bronze,
		&entry.Points,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to award medal to %q: %w", className, err)
	}
	return entry, nil
}

func (r *postgresLeaderboardRepository) List(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT id, class_name, gold, silver, bronze, points, updated_at
		FROM leaderboard
		ORDER BY points DESC, gold DESC, silver DESC, bronze DESC, class_name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ClassName,
			&entry.Gold,
			&entry.Silver,
			&entry.Bronze,
			&entry.Points,
			&entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/urjafest/sportsfest-backend/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchSportInvalid   = errors.New("match sport conflict or invalid")
	ErrMatchStatusConflict = errors.New("match status conflict")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, sportID *int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	UpdateScore(ctx context.Context, id int, homeScore, awayScore string) error
	// UpdateStatus условный: переход применяется только из ожидаемого статуса.
	UpdateStatus(ctx context.Context, id int, from, to models.MatchStatus) error
	Delete(ctx context.Context, id int) error
	// ListDueForLive возвращает upcoming-матчи, чьё время старта уже наступило.
	ListDueForLive(ctx context.Context, now time.Time) ([]*models.Match, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.MatchStatus) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, sport_id, home_name, away_name, home_team_id, away_team_id, home_user_id, away_user_id, venue, start_time, status, home_score, away_score, created_at`

func (r *postgresMatchRepository) scanMatch(row interface {
	Scan(dest ...interface{}) error
}, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.SportID,
		&m.HomeName,
		&m.AwayName,
		&m.HomeTeamID,
		&m.AwayTeamID,
		&m.HomeUserID,
		&m.AwayUserID,
		&m.Venue,
		&m.StartTime,
		&m.Status,
		&m.HomeScore,
		&m.AwayScore,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (sport_id, home_name, away_name, home_team_id, away_team_id, home_user_id, away_user_id, venue, start_time, status, home_score, away_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.SportID,
		match.HomeName,
		match.AwayName,
		match.HomeTeamID,
		match.AwayTeamID,
		match.HomeUserID,
		match.AwayUserID,
		match.Venue,
		match.StartTime,
		match.Status,
		match.HomeScore,
		match.AwayScore,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "matches_sport_id_fkey" {
				return ErrMatchSportInvalid
			}
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := r.scanMatch(r.db.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, sportID *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	query := `
		SELECT m.id, m.sport_id, m.home_name, m.away_name, m.home_team_id, m.away_team_id, m.home_user_id, m.away_user_id,
		       m.venue, m.start_time, m.status, m.home_score, m.away_score, m.created_at,
		       s.id, s.name, s.category, s.roster_size, s.status, s.icon_key
		FROM matches m
		JOIN sports s ON s.id = m.sport_id`

	conditions := ""
	args := []interface{}{}
	argCounter := 1
	if sportID != nil {
		conditions += fmt.Sprintf(" WHERE m.sport_id = $%d", argCounter)
		args = append(args, *sportID)
		argCounter++
	}
	if statusFilter != nil {
		if conditions == "" {
			conditions = " WHERE"
		} else {
			conditions += " AND"
		}
		conditions += fmt.Sprintf(" m.status = $%d", argCounter)
		args = append(args, *statusFilter)
	}
	query += conditions + ` ORDER BY m.start_time ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		var sport models.Sport
		if err := rows.Scan(
			&match.ID, &match.SportID, &match.HomeName, &match.AwayName,
			&match.HomeTeamID, &match.AwayTeamID, &match.HomeUserID, &match.AwayUserID,
			&match.Venue, &match.StartTime, &match.Status, &match.HomeScore, &match.AwayScore, &match.CreatedAt,
			&sport.ID, &sport.Name, &sport.Category, &sport.RosterSize, &sport.Status, &sport.IconKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		match.Sport = &sport
		matches = append(matches, &match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, id int, homeScore, awayScore string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET home_score = $1, away_score = $2 WHERE id = $3`, homeScore, awayScore, id)
	if err != nil {
		return fmt.Errorf("failed to update match score: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, id int, from, to models.MatchStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	return checkAffectedRows(result, ErrMatchStatusConflict)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListDueForLive(ctx context.Context, now time.Time) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE status = 'upcoming' AND start_time <= $1`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches due for live: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if err := r.scanMatch(rows, &match); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) CountByStatus(ctx context.Context, status models.MatchStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches by status: %w", err)
	}
	return count, nil
}

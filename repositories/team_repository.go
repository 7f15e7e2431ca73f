package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/urjafest/sportsfest-backend/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict for this sport")
	ErrTeamSportInvalid   = errors.New("team sport conflict or invalid")
	ErrTeamCaptainInvalid = errors.New("team captain conflict or invalid")
	// ErrTeamStatusConflict возвращается условным апдейтом статуса,
	// если команда уже не в ожидаемом состоянии.
	ErrTeamStatusConflict = errors.New("team status conflict")
)

// OpenTeamListing - строка выдачи маркетплейса: открытая команда
// плюс число принятых участников для расчёта свободных мест.
type OpenTeamListing struct {
	Team          models.Team
	AcceptedCount int
}

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// GetByIDForUpdate берёт блокировку строки команды (SELECT ... FOR UPDATE).
	// Все count-then-act последовательности обязаны проходить через неё.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TeamStatus) error
	UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListOpenByCaptainGender(ctx context.Context, gender models.Gender) ([]*OpenTeamListing, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.TeamStatus) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, sport_id, captain_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		team.Name,
		team.SportID,
		team.CaptainID,
		team.Status,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "teams_sport_id_name_key" {
					return ErrTeamNameConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "teams_sport_id_fkey":
					return ErrTeamSportInvalid
				case "teams_captain_id_fkey":
					return ErrTeamCaptainInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

const teamColumns = `id, name, sport_id, captain_id, status, created_at, logo_key`

func (r *postgresTeamRepository) scanTeam(row interface {
	Scan(dest ...interface{}) error
}, t *models.Team) error {
	return row.Scan(
		&t.ID,
		&t.Name,
		&t.SportID,
		&t.CaptainID,
		&t.Status,
		&t.CreatedAt,
		&t.LogoKey,
	)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team := &models.Team{}
	err := r.scanTeam(r.db.QueryRowContext(ctx, query, id), team)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1 FOR UPDATE`

	team := &models.Team{}
	err := r.scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id), team)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to lock team row %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TeamStatus) error {
	query := `UPDATE teams SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update team status: %w", err)
	}
	return checkAffectedRows(result, ErrTeamStatusConflict)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET logo_key = $1 WHERE id = $2`, logoKey, teamID)
	if err != nil {
		return fmt.Errorf("failed to update team logo key: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) ListOpenByCaptainGender(ctx context.Context, gender models.Gender) ([]*OpenTeamListing, error) {
	query := `
		SELECT t.id, t.name, t.sport_id, t.captain_id, t.status, t.created_at, t.logo_key,
		       s.id, s.name, s.category, s.roster_size, s.status, s.icon_key,
		       u.id, u.first_name, u.last_name, u.gender,
		       (SELECT COUNT(*) FROM team_members m
		        WHERE m.team_id = t.id AND m.status = 'accepted') AS accepted_count
		FROM teams t
		JOIN sports s ON s.id = t.sport_id
		JOIN users u ON u.id = t.captain_id
		WHERE t.status = 'open' AND u.gender = $1
		ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, gender)
	if err != nil {
		return nil, fmt.Errorf("failed to list open teams: %w", err)
	}
	defer rows.Close()

	listings := make([]*OpenTeamListing, 0)
	for rows.Next() {
		var listing OpenTeamListing
		var sport models.Sport
		var captain models.User
		if err := rows.Scan(
			&listing.Team.ID, &listing.Team.Name, &listing.Team.SportID, &listing.Team.CaptainID,
			&listing.Team.Status, &listing.Team.CreatedAt, &listing.Team.LogoKey,
			&sport.ID, &sport.Name, &sport.Category, &sport.RosterSize, &sport.Status, &sport.IconKey,
			&captain.ID, &captain.FirstName, &captain.LastName, &captain.Gender,
			&listing.AcceptedCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan open team listing: %w", err)
		}
		listing.Team.Sport = &sport
		listing.Team.Captain = &captain
		listings = append(listings, &listing)
	}
	return listings, rows.Err()
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

func (r *postgresTeamRepository) CountByStatus(ctx context.Context, status models.TeamStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams by status: %w", err)
	}
	return count, nil
}

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
	ErrRegistrationNotFound     = errors.New("registration not found")
	ErrRegistrationConflict     = errors.New("registration conflict: user already registered for this sport")
	ErrRegistrationSportInvalid = errors.New("registration sport invalid")
	ErrRegistrationUserInvalid  = errors.New("registration user invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	ExistsByUserAndSport(ctx context.Context, userID, sportID int) (bool, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Registration, error)
	ListBySport(ctx context.Context, sportID int) ([]*models.Registration, error)
	Count(ctx context.Context) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (user_id, sport_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, reg.UserID, reg.SportID).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "registrations_user_id_sport_id_key" {
					return ErrRegistrationConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "registrations_sport_id_fkey":
					return ErrRegistrationSportInvalid
				case "registrations_user_id_fkey":
					return ErrRegistrationUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) ExistsByUserAndSport(ctx context.Context, userID, sportID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM registrations WHERE user_id = $1 AND sport_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, sportID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check registration existence: %w", err)
	}
	return exists, nil
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Registration, error) {
	query := `
		SELECT r.id, r.user_id, r.sport_id, r.created_at,
		       s.id, s.name, s.category, s.roster_size, s.status, s.icon_key
		FROM registrations r
		JOIN sports s ON s.id = r.sport_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by user: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var sport models.Sport
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.SportID, &reg.CreatedAt,
			&sport.ID, &sport.Name, &sport.Category, &sport.RosterSize, &sport.Status, &sport.IconKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		reg.Sport = &sport
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}

func (r *postgresRegistrationRepository) ListBySport(ctx context.Context, sportID int) ([]*models.Registration, error) {
	query := `
		SELECT r.id, r.user_id, r.sport_id, r.created_at,
		       u.id, u.first_name, u.last_name, u.email, u.gender, u.class_name, u.student_id, u.mobile
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.sport_id = $1
		ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, sportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by sport: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var user models.User
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.SportID, &reg.CreatedAt,
			&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Gender, &user.ClassName, &user.StudentID, &user.Mobile,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		reg.User = &user
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}

func (r *postgresRegistrationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

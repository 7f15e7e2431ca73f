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
	ErrSportNotFound     = errors.New("sport not found")
	ErrSportNameConflict = errors.New("sport name conflict")
	ErrSportInUse        = errors.New("sport cannot be deleted as it is in use") // Для ошибки FK при удалении
)

type SportRepository interface {
	Create(ctx context.Context, sport *models.Sport) error
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	GetAll(ctx context.Context, statusFilter *models.SportStatus) ([]models.Sport, error)
	Update(ctx context.Context, sport *models.Sport) error
	UpdateStatus(ctx context.Context, id int, status models.SportStatus) error
	UpdateIconKey(ctx context.Context, id int, iconKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

func (r *postgresSportRepository) Create(ctx context.Context, sport *models.Sport) error {
	query := `
		INSERT INTO sports (name, category, roster_size, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		sport.Name,
		sport.Category,
		sport.RosterSize,
		sport.Status,
	).Scan(&sport.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "sports_name_key" {
				return ErrSportNameConflict
			}
		}
		return fmt.Errorf("failed to create sport: %w", err)
	}
	return nil
}

func (r *postgresSportRepository) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	query := `SELECT id, name, category, roster_size, status, icon_key FROM sports WHERE id = $1`

	var sport models.Sport
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sport.ID,
		&sport.Name,
		&sport.Category,
		&sport.RosterSize,
		&sport.Status,
		&sport.IconKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to get sport by id %d: %w", id, err)
	}
	return &sport, nil
}

func (r *postgresSportRepository) GetAll(ctx context.Context, statusFilter *models.SportStatus) ([]models.Sport, error) {
	query := `SELECT id, name, category, roster_size, status, icon_key FROM sports`
	args := []interface{}{}
	if statusFilter != nil {
		query += ` WHERE status = $1`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	defer rows.Close()

	sports := make([]models.Sport, 0)
	for rows.Next() {
		var sport models.Sport
		if err := rows.Scan(
			&sport.ID,
			&sport.Name,
			&sport.Category,
			&sport.RosterSize,
			&sport.Status,
			&sport.IconKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sport: %w", err)
		}
		sports = append(sports, sport)
	}
	return sports, rows.Err()
}

func (r *postgresSportRepository) Update(ctx context.Context, sport *models.Sport) error {
	query := `UPDATE sports SET name = $1, category = $2, roster_size = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, sport.Name, sport.Category, sport.RosterSize, sport.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "sports_name_key" {
				return ErrSportNameConflict
			}
		}
		return fmt.Errorf("failed to update sport %d: %w", sport.ID, err)
	}
	return checkAffectedRows(result, ErrSportNotFound)
}

func (r *postgresSportRepository) UpdateStatus(ctx context.Context, id int, status models.SportStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sports SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update sport status: %w", err)
	}
	return checkAffectedRows(result, ErrSportNotFound)
}

func (r *postgresSportRepository) UpdateIconKey(ctx context.Context, id int, iconKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sports SET icon_key = $1 WHERE id = $2`, iconKey, id)
	if err != nil {
		return fmt.Errorf("failed to update sport icon key: %w", err)
	}
	return checkAffectedRows(result, ErrSportNotFound)
}

func (r *postgresSportRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sports WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			// Ссылаются регистрации, команды или матчи.
			return ErrSportInUse
		}
		return fmt.Errorf("failed to delete sport %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSportNotFound)
}

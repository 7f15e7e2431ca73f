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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// UpdateMobileIfEmpty записывает номер телефона, только если он ещё
	// не заполнен. Уже сохранённый номер не перезаписывается.
	UpdateMobileIfEmpty(ctx context.Context, userID int, mobile string) error
	UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error
	Count(ctx context.Context) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, role, gender, class_name, student_id, mobile, avatar_key, created_at`

func (r *postgresUserRepository) scanUser(row interface {
	Scan(dest ...interface{}) error
}, u *models.User) error {
	return row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Gender,
		&u.ClassName,
		&u.StudentID,
		&u.Mobile,
		&u.AvatarKey,
		&u.CreatedAt,
	)
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role, gender, class_name, student_id, mobile)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Gender,
		user.ClassName,
		user.StudentID,
		user.Mobile,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user := &models.User{}
	err := r.scanUser(r.db.QueryRowContext(ctx, query, id), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user := &models.User{}
	err := r.scanUser(r.db.QueryRowContext(ctx, query, email), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, class_name = $3, student_id = $4, mobile = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.ClassName,
		user.StudentID,
		user.Mobile,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateMobileIfEmpty(ctx context.Context, userID int, mobile string) error {
	query := `
		UPDATE users
		SET mobile = $1
		WHERE id = $2 AND (mobile IS NULL OR mobile = '')`

	// Ноль затронутых строк - не ошибка: номер уже был сохранён.
	if _, err := r.db.ExecContext(ctx, query, mobile, userID); err != nil {
		return fmt.Errorf("failed to update mobile for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, avatarKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar key for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

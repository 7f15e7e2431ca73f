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
	ErrMembershipNotFound    = errors.New("team membership not found")
	ErrMembershipConflict    = errors.New("membership conflict: user already has a request for this team")
	ErrMembershipTeamInvalid = errors.New("membership team conflict or invalid")
	ErrMembershipUserInvalid = errors.New("membership user conflict or invalid")
)

type MembershipRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	// GetByID читает заявку через exec, чтобы внутри транзакции видеть
	// актуальное состояние после взятия блокировки команды.
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamMember, error)
	ListByTeam(ctx context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMember, error)
	ListByUser(ctx context.Context, userID int) ([]*models.TeamMember, error)
	// CountActive считает pending+accepted членства пользователя среди команд
	// данного вида спорта. Отклонённые строки не учитываются.
	CountActiveByUserAndSport(ctx context.Context, exec SQLExecutor, userID, sportID int) (int, error)
	CountByTeamAndStatus(ctx context.Context, exec SQLExecutor, teamID int, status models.MembershipStatus) (int, error)
	// AcceptWithinCapacity переводит pending-заявку в accepted одним условным
	// UPDATE: проверка вместимости входит в WHERE и атомарна с записью.
	// Возвращает false, если строка не обновлена (заявка не pending или состав полон).
	AcceptWithinCapacity(ctx context.Context, exec SQLExecutor, membershipID, teamID, capacity int) (bool, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MembershipStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByTeam(ctx context.Context, exec SQLExecutor, teamID int) error
}

type postgresMembershipRepository struct {
	db *sql.DB
}

func NewPostgresMembershipRepository(db *sql.DB) MembershipRepository {
	return &postgresMembershipRepository{db: db}
}

func (r *postgresMembershipRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMembershipRepository) Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, status, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		member.TeamID,
		member.UserID,
		member.Status,
		member.Role,
	).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "team_members_team_id_user_id_key" {
					return ErrMembershipConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "team_members_team_id_fkey":
					return ErrMembershipTeamInvalid
				case "team_members_user_id_fkey":
					return ErrMembershipUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team membership: %w", err)
	}
	return nil
}

func (r *postgresMembershipRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamMember, error) {
	query := `
		SELECT m.id, m.team_id, m.user_id, m.status, m.role, m.created_at,
		       t.id, t.name, t.sport_id, t.captain_id, t.status, t.created_at, t.logo_key
		FROM team_members m
		JOIN teams t ON t.id = m.team_id
		WHERE m.id = $1`

	var member models.TeamMember
	var team models.Team
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&member.ID, &member.TeamID, &member.UserID, &member.Status, &member.Role, &member.CreatedAt,
		&team.ID, &team.Name, &team.SportID, &team.CaptainID, &team.Status, &team.CreatedAt, &team.LogoKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership %d: %w", id, err)
	}
	member.Team = &team
	return &member, nil
}

func (r *postgresMembershipRepository) ListByTeam(ctx context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMember, error) {
	query := `
		SELECT m.id, m.team_id, m.user_id, m.status, m.role, m.created_at,
		       u.id, u.first_name, u.last_name, u.gender, u.class_name, u.avatar_key
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1`
	args := []interface{}{teamID}
	if statusFilter != nil {
		query += ` AND m.status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY m.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var member models.TeamMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.TeamID, &member.UserID, &member.Status, &member.Role, &member.CreatedAt,
			&user.ID, &user.FirstName, &user.LastName, &user.Gender, &user.ClassName, &user.AvatarKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		member.User = &user
		members = append(members, &member)
	}
	return members, rows.Err()
}

func (r *postgresMembershipRepository) ListByUser(ctx context.Context, userID int) ([]*models.TeamMember, error) {
	query := `
		SELECT m.id, m.team_id, m.user_id, m.status, m.role, m.created_at,
		       t.id, t.name, t.sport_id, t.captain_id, t.status, t.created_at, t.logo_key,
		       s.id, s.name, s.category, s.roster_size, s.status, s.icon_key
		FROM team_members m
		JOIN teams t ON t.id = m.team_id
		JOIN sports s ON s.id = t.sport_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships by user: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var member models.TeamMember
		var team models.Team
		var sport models.Sport
		if err := rows.Scan(
			&member.ID, &member.TeamID, &member.UserID, &member.Status, &member.Role, &member.CreatedAt,
			&team.ID, &team.Name, &team.SportID, &team.CaptainID, &team.Status, &team.CreatedAt, &team.LogoKey,
			&sport.ID, &sport.Name, &sport.Category, &sport.RosterSize, &sport.Status, &sport.IconKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		team.Sport = &sport
		member.Team = &team
		members = append(members, &member)
	}
	return members, rows.Err()
}

func (r *postgresMembershipRepository) CountActiveByUserAndSport(ctx context.Context, exec SQLExecutor, userID, sportID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM team_members m
		JOIN teams t ON t.id = m.team_id
		WHERE m.user_id = $1
		  AND t.sport_id = $2
		  AND m.status IN ('pending', 'accepted')`

	var count int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, userID, sportID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active memberships: %w", err)
	}
	return count, nil
}

func (r *postgresMembershipRepository) CountByTeamAndStatus(ctx context.Context, exec SQLExecutor, teamID int, status models.MembershipStatus) (int, error) {
	query := `SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND status = $2`

	var count int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, teamID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count team members by status: %w", err)
	}
	return count, nil
}

func (r *postgresMembershipRepository) AcceptWithinCapacity(ctx context.Context, exec SQLExecutor, membershipID, teamID, capacity int) (bool, error) {
	query := `
		UPDATE team_members
		SET status = 'accepted'
		WHERE id = $1
		  AND status = 'pending'
		  AND (SELECT COUNT(*) FROM team_members
		       WHERE team_id = $2 AND status = 'accepted') < $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, membershipID, teamID, capacity)
	if err != nil {
		return false, fmt.Errorf("failed to accept membership %d: %w", membershipID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *postgresMembershipRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MembershipStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE team_members SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update membership status: %w", err)
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresMembershipRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete membership %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresMembershipRepository) DeleteByTeam(ctx context.Context, exec SQLExecutor, teamID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete memberships for team %d: %w", teamID, err)
	}
	return nil
}

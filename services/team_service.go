package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
	"github.com/urjafest/sportsfest-backend/storage"
)

type TeamService interface {
	CreateTeam(ctx context.Context, captainID, sportID int, name string) (*models.Team, error)
	GetTeamByID(ctx context.Context, teamID, viewerID int) (*models.Team, error)
	// ListMarketplace возвращает открытые команды, чей капитан того же пола,
	// что и зритель, с числом свободных мест.
	ListMarketplace(ctx context.Context, viewerID int) ([]models.Team, error)
	LockTeam(ctx context.Context, teamID, captainID int) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID, captainID int) error
	UploadLogo(ctx context.Context, teamID, captainID int, contentType string, file io.Reader) (*models.Team, error)
	ListUserTeams(ctx context.Context, userID int) ([]*models.TeamMember, error)
}

type teamService struct {
	txManager        TxManager
	teamRepo         repositories.TeamRepository
	membershipRepo   repositories.MembershipRepository
	registrationRepo repositories.RegistrationRepository
	sportRepo        repositories.SportRepository
	userRepo         repositories.UserRepository
	uploader         storage.FileUploader
	mailer           Mailer
	logger           *slog.Logger
}

func NewTeamService(
	txManager TxManager,
	teamRepo repositories.TeamRepository,
	membershipRepo repositories.MembershipRepository,
	registrationRepo repositories.RegistrationRepository,
	sportRepo repositories.SportRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	mailer Mailer,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		txManager:        txManager,
		teamRepo:         teamRepo,
		membershipRepo:   membershipRepo,
		registrationRepo: registrationRepo,
		sportRepo:        sportRepo,
		userRepo:         userRepo,
		uploader:         uploader,
		mailer:           mailer,
		logger:           logger,
	}
}

// CreateTeam создаёт команду и членство капитана одной транзакцией.
// Капитан обязан быть зарегистрирован на вид спорта и не состоять
// (pending или accepted) в другой команде этого вида.
func (s *teamService) CreateTeam(ctx context.Context, captainID, sportID int, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	sport, err := s.sportRepo.GetByID(ctx, sportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get sport %d: %w", sportID, err))
	}
	if sport.Category != models.SportCategoryTeam {
		return nil, ErrSportNotTeamCategory
	}
	if sport.Status != models.SportStatusOpen {
		return nil, ErrSportClosed
	}

	registered, err := s.registrationRepo.ExistsByUserAndSport(ctx, captainID, sportID)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to check registration: %w", err))
	}
	if !registered {
		return nil, ErrRegistrationRequired
	}

	team := &models.Team{
		Name:      name,
		SportID:   sportID,
		CaptainID: captainID,
		Status:    models.TeamStatusOpen,
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, err := s.membershipRepo.CountActiveByUserAndSport(ctx, exec, captainID, sportID)
		if err != nil {
			return fmt.Errorf("failed to check existing memberships: %w", err)
		}
		if active > 0 {
			return ErrAlreadyInTeamForSport
		}

		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return err
		}

		captainMember := &models.TeamMember{
			TeamID: team.ID,
			UserID: captainID,
			Status: models.MembershipStatusAccepted,
			Role:   models.MemberRoleCaptain,
		}
		return s.membershipRepo.Create(ctx, exec, captainMember)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInTeamForSport):
			return nil, ErrAlreadyInTeamForSport
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrMembershipConflict):
			return nil, ErrAlreadyInTeamForSport
		default:
			return nil, storeError(fmt.Errorf("failed to create team: %w", err))
		}
	}

	team.Sport = sport
	return team, nil
}

// GetTeamByID возвращает команду с составом. Pending-заявки видит только капитан,
// остальным отдаются только принятые участники.
func (s *teamService) GetTeamByID(ctx context.Context, teamID, viewerID int) (*models.Team, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get team %d: %w", teamID, err))
	}

	sport, err := s.sportRepo.GetByID(ctx, team.SportID)
	if err == nil {
		team.Sport = sport
	}

	var statusFilter *models.MembershipStatus
	if viewerID != team.CaptainID {
		accepted := models.MembershipStatusAccepted
		statusFilter = &accepted
	}

	members, err := s.membershipRepo.ListByTeam(ctx, teamID, statusFilter)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list members of team %d: %w", teamID, err))
	}
	team.Members = make([]models.TeamMember, 0, len(members))
	for _, m := range members {
		if m.Status == models.MembershipStatusRejected {
			continue
		}
		team.Members = append(team.Members, *m)
	}
	s.populateLogoURL(team)
	return team, nil
}

func (s *teamService) ListMarketplace(ctx context.Context, viewerID int) ([]models.Team, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get viewer %d: %w", viewerID, err))
	}

	listings, err := s.teamRepo.ListOpenByCaptainGender(ctx, viewer.Gender)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list open teams: %w", err))
	}

	teams := make([]models.Team, 0, len(listings))
	for _, listing := range listings {
		team := listing.Team
		seatsLeft := team.Sport.RequiredRosterSize() - listing.AcceptedCount
		if seatsLeft < 0 {
			seatsLeft = 0
		}
		team.SeatsLeft = &seatsLeft
		s.populateLogoURL(&team)
		teams = append(teams, team)
	}
	return teams, nil
}

// LockTeam переводит команду open -> locked. Требуется набранный состав:
// принятых участников не меньше требуемого размера. Повторный вызов
// на уже закрытой команде - no-op.
func (s *teamService) LockTeam(ctx context.Context, teamID, captainID int) (*models.Team, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	var locked *models.Team
	var justLocked bool
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, teamID)
		if err != nil {
			return err
		}
		if team.CaptainID != captainID {
			return ErrCaptainActionForbidden
		}
		if team.Status == models.TeamStatusLocked {
			locked = team
			return nil
		}

		sport, err := s.sportRepo.GetByID(ctx, team.SportID)
		if err != nil {
			return fmt.Errorf("failed to get sport %d: %w", team.SportID, err)
		}

		accepted, err := s.membershipRepo.CountByTeamAndStatus(ctx, exec, teamID, models.MembershipStatusAccepted)
		if err != nil {
			return fmt.Errorf("failed to count accepted members: %w", err)
		}
		required := sport.RequiredRosterSize()
		if accepted < required {
			return fmt.Errorf("%w: %d of %d players accepted", ErrRosterIncomplete, accepted, required)
		}

		if err := s.teamRepo.UpdateStatus(ctx, exec, teamID, models.TeamStatusOpen, models.TeamStatusLocked); err != nil {
			return err
		}
		team.Status = models.TeamStatusLocked
		team.Sport = sport
		locked = team
		justLocked = true
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, ErrCaptainActionForbidden),
			errors.Is(err, ErrRosterIncomplete):
			return nil, err
		case errors.Is(err, repositories.ErrTeamStatusConflict):
			return nil, ErrTeamLocked
		default:
			return nil, storeError(fmt.Errorf("failed to lock team %d: %w", teamID, err))
		}
	}

	if justLocked {
		s.notifyTeamLocked(locked)
	}
	return locked, nil
}

// notifyTeamLocked шлёт принятым участникам письмо о закрытии состава.
// Ошибки отправки не влияют на результат операции, только попадают в лог.
func (s *teamService) notifyTeamLocked(team *models.Team) {
	if s.mailer == nil || team == nil {
		return
	}
	go func() {
		ctx := context.Background()
		accepted := models.MembershipStatusAccepted
		members, err := s.membershipRepo.ListByTeam(ctx, team.ID, &accepted)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to list members for lock email", "team_id", team.ID, "error", err)
			}
			return
		}
		emails := make([]string, 0, len(members))
		for _, m := range members {
			user, err := s.userRepo.GetByID(ctx, m.UserID)
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to load member for lock email", "user_id", m.UserID, "error", err)
				}
				continue
			}
			emails = append(emails, user.Email)
		}
		if len(emails) == 0 {
			return
		}
		if err := s.mailer.SendTeamLockedEmail(emails, team.Name); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to send lock email", "team_id", team.ID, "error", err)
			}
		}
	}()
}

// DeleteTeam удаляет команду и все её членства одной транзакцией.
// Закрытую команду удалить нельзя.
func (s *teamService) DeleteTeam(ctx context.Context, teamID, captainID int) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	var logoKey *string
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, teamID)
		if err != nil {
			return err
		}
		if team.CaptainID != captainID {
			return ErrCaptainActionForbidden
		}
		if team.Status == models.TeamStatusLocked {
			return ErrTeamLocked
		}
		logoKey = team.LogoKey

		if err := s.membershipRepo.DeleteByTeam(ctx, exec, teamID); err != nil {
			return err
		}
		return s.teamRepo.Delete(ctx, exec, teamID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return ErrTeamNotFound
		case errors.Is(err, ErrCaptainActionForbidden), errors.Is(err, ErrTeamLocked):
			return err
		default:
			return storeError(fmt.Errorf("failed to delete team %d: %w", teamID, err))
		}
	}

	if logoKey != nil && s.uploader != nil {
		_ = s.uploader.Delete(context.Background(), *logoKey)
	}
	return nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, captainID int, contentType string, file io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	team, err := s.GetTeamByID(ctx, teamID, captainID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != captainID {
		return nil, ErrCaptainActionForbidden
	}

	oldKey := team.LogoKey
	newKey := fmt.Sprintf("logos/teams/%d/%d", teamID, time.Now().UnixNano())

	if _, err := s.uploader.Upload(ctx, newKey, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload logo for team %d: %w", teamID, err)
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &newKey); err != nil {
		_ = s.uploader.Delete(context.Background(), newKey)
		return nil, storeError(fmt.Errorf("failed to persist logo key for team %d: %w", teamID, err))
	}

	if oldKey != nil && *oldKey != newKey {
		_ = s.uploader.Delete(context.Background(), *oldKey)
	}

	team.LogoKey = &newKey
	s.populateLogoURL(team)
	return team, nil
}

func (s *teamService) ListUserTeams(ctx context.Context, userID int) ([]*models.TeamMember, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list teams of user %d: %w", userID, err))
	}
	return memberships, nil
}

func (s *teamService) populateLogoURL(team *models.Team) {
	if team.LogoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*team.LogoKey)
		team.LogoURL = &url
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

type MembershipService interface {
	// RequestJoin создаёт pending-заявку игрока в открытую команду.
	RequestJoin(ctx context.Context, teamID, userID int) (*models.TeamMember, error)
	// Decide - решение капитана по pending-заявке: принять или отклонить.
	Decide(ctx context.Context, membershipID, captainID int, accept bool) (*models.TeamMember, error)
	// RemoveMember - капитан убирает принятого игрока из открытой команды.
	RemoveMember(ctx context.Context, membershipID, captainID int) error
	// Leave - игрок сам отзывает заявку или выходит из открытой команды.
	Leave(ctx context.Context, membershipID, userID int) error
	ListTeamRequests(ctx context.Context, teamID, captainID int) ([]*models.TeamMember, error)
}

type membershipService struct {
	txManager        TxManager
	membershipRepo   repositories.MembershipRepository
	teamRepo         repositories.TeamRepository
	sportRepo        repositories.SportRepository
	registrationRepo repositories.RegistrationRepository
	userRepo         repositories.UserRepository
	mailer           Mailer
	logger           *slog.Logger
}

func NewMembershipService(
	txManager TxManager,
	membershipRepo repositories.MembershipRepository,
	teamRepo repositories.TeamRepository,
	sportRepo repositories.SportRepository,
	registrationRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	mailer Mailer,
	logger *slog.Logger,
) MembershipService {
	return &membershipService{
		txManager:        txManager,
		membershipRepo:   membershipRepo,
		teamRepo:         teamRepo,
		sportRepo:        sportRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		logger:           logger,
	}
}

func (s *membershipService) RequestJoin(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	member := &models.TeamMember{
		TeamID: teamID,
		UserID: userID,
		Status: models.MembershipStatusPending,
		Role:   models.MemberRolePlayer,
	}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, teamID)
		if err != nil {
			return err
		}
		if team.Status != models.TeamStatusOpen {
			return ErrTeamLocked
		}

		registered, err := s.registrationRepo.ExistsByUserAndSport(ctx, userID, team.SportID)
		if err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if !registered {
			return ErrRegistrationRequired
		}

		active, err := s.membershipRepo.CountActiveByUserAndSport(ctx, exec, userID, team.SportID)
		if err != nil {
			return fmt.Errorf("failed to check existing memberships: %w", err)
		}
		if active > 0 {
			return ErrAlreadyInTeamForSport
		}

		return s.membershipRepo.Create(ctx, exec, member)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, ErrTeamLocked),
			errors.Is(err, ErrRegistrationRequired),
			errors.Is(err, ErrAlreadyInTeamForSport):
			return nil, err
		case errors.Is(err, repositories.ErrMembershipConflict):
			return nil, ErrJoinRequestExists
		default:
			return nil, storeError(fmt.Errorf("failed to request join for team %d: %w", teamID, err))
		}
	}
	return member, nil
}

func (s *membershipService) Decide(ctx context.Context, membershipID, captainID int, accept bool) (*models.TeamMember, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	var decided *models.TeamMember
	var teamName string
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		member, err := s.membershipRepo.GetByID(ctx, exec, membershipID)
		if err != nil {
			return err
		}

		// Блокировка строки команды сериализует конкурирующие решения
		// по заявкам в одну и ту же команду.
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, member.TeamID)
		if err != nil {
			return err
		}
		if team.CaptainID != captainID {
			return ErrCaptainActionForbidden
		}
		if team.Status != models.TeamStatusOpen {
			return ErrTeamLocked
		}
		teamName = team.Name

		// Перечитываем заявку уже под блокировкой: пока мы ждали её,
		// могло закоммититься конкурирующее решение по той же заявке.
		member, err = s.membershipRepo.GetByID(ctx, exec, membershipID)
		if err != nil {
			return err
		}

		// Повторное принятие уже принятой заявки - no-op.
		if accept && member.Status == models.MembershipStatusAccepted {
			decided = member
			return nil
		}
		if member.Status != models.MembershipStatusPending {
			return ErrMembershipNotPending
		}

		if accept {
			sport, err := s.sportRepo.GetByID(ctx, team.SportID)
			if err != nil {
				return fmt.Errorf("failed to get sport %d: %w", team.SportID, err)
			}
			capacity := sport.RequiredRosterSize()

			ok, err := s.membershipRepo.AcceptWithinCapacity(ctx, exec, membershipID, member.TeamID, capacity)
			if err != nil {
				return err
			}
			if !ok {
				// Условный UPDATE не прошёл: заявка под блокировкой всё ещё
				// pending, значит не хватило мест.
				return ErrRosterFull
			}
			member.Status = models.MembershipStatusAccepted
		} else {
			if err := s.membershipRepo.UpdateStatus(ctx, exec, membershipID, models.MembershipStatusRejected); err != nil {
				return err
			}
			member.Status = models.MembershipStatusRejected
		}
		decided = member
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMembershipNotFound):
			return nil, ErrMembershipNotFound
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, ErrCaptainActionForbidden),
			errors.Is(err, ErrTeamLocked),
			errors.Is(err, ErrMembershipNotPending),
			errors.Is(err, ErrRosterFull):
			return nil, err
		default:
			return nil, storeError(fmt.Errorf("failed to decide on membership %d: %w", membershipID, err))
		}
	}

	s.notifyDecision(decided, teamName)
	return decided, nil
}

func (s *membershipService) RemoveMember(ctx context.Context, membershipID, captainID int) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		member, err := s.membershipRepo.GetByID(ctx, exec, membershipID)
		if err != nil {
			return err
		}
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, member.TeamID)
		if err != nil {
			return err
		}
		if team.CaptainID != captainID {
			return ErrCaptainActionForbidden
		}
		if team.Status != models.TeamStatusOpen {
			return ErrTeamLocked
		}
		member, err = s.membershipRepo.GetByID(ctx, exec, membershipID)
		if err != nil {
			return err
		}
		if member.Role == models.MemberRoleCaptain {
			return ErrCannotRemoveCaptain
		}
		return s.membershipRepo.Delete(ctx, exec, membershipID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMembershipNotFound):
			return ErrMembershipNotFound
		case errors.Is(err, repositories.ErrTeamNotFound):
			return ErrTeamNotFound
		case errors.Is(err, ErrCaptainActionForbidden),
			errors.Is(err, ErrTeamLocked),
			errors.Is(err, ErrCannotRemoveCaptain):
			return err
		default:
			return storeError(fmt.Errorf("failed to remove membership %d: %w", membershipID, err))
		}
	}
	return nil
}

func (s *membershipService) Leave(ctx context.Context, membershipID, userID int) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		member, err := s.membershipRepo.GetByID(ctx, exec, membershipID)
		if err != nil {
			return err
		}
		if member.UserID != userID {
			return ErrForbiddenOperation
		}
		if member.Role == models.MemberRoleCaptain {
			return ErrCannotRemoveCaptain
		}
		team, err := s.teamRepo.GetByIDForUpdate(ctx, exec, member.TeamID)
		if err != nil {
			return err
		}
		if team.Status != models.TeamStatusOpen {
			return ErrTeamLocked
		}
		return s.membershipRepo.Delete(ctx, exec, membershipID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMembershipNotFound):
			return ErrMembershipNotFound
		case errors.Is(err, repositories.ErrTeamNotFound):
			return ErrTeamNotFound
		case errors.Is(err, ErrForbiddenOperation),
			errors.Is(err, ErrCannotRemoveCaptain),
			errors.Is(err, ErrTeamLocked):
			return err
		default:
			return storeError(fmt.Errorf("failed to leave membership %d: %w", membershipID, err))
		}
	}
	return nil
}

func (s *membershipService) ListTeamRequests(ctx context.Context, teamID, captainID int) ([]*models.TeamMember, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get team %d: %w", teamID, err))
	}
	if team.CaptainID != captainID {
		return nil, ErrCaptainActionForbidden
	}

	pending := models.MembershipStatusPending
	requests, err := s.membershipRepo.ListByTeam(ctx, teamID, &pending)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list requests for team %d: %w", teamID, err))
	}
	return requests, nil
}

// notifyDecision шлёт решение по заявке на почту игрока. Ошибки отправки
// не влияют на результат операции, только попадают в лог.
func (s *membershipService) notifyDecision(member *models.TeamMember, teamName string) {
	if s.mailer == nil || member == nil || member.Status == models.MembershipStatusPending {
		return
	}
	accepted := member.Status == models.MembershipStatusAccepted

	go func() {
		user, err := s.userRepo.GetByID(context.Background(), member.UserID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to load user for decision email", "user_id", member.UserID, "error", err)
			}
			return
		}
		if err := s.mailer.SendJoinDecisionEmail(user.Email, teamName, accepted); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to send decision email", "user_id", member.UserID, "error", err)
			}
		}
	}()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

type RegistrationService interface {
	// Register записывает игрока на вид спорта. Непустой mobile сохраняется
	// в профиле, если номер там ещё не указан.
	Register(ctx context.Context, userID, sportID int, mobile string) (*models.Registration, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Registration, error)
	ListBySport(ctx context.Context, sportID int) ([]*models.Registration, error)
	IsRegistered(ctx context.Context, userID, sportID int) (bool, error)
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	sportRepo        repositories.SportRepository
	userRepo         repositories.UserRepository
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	sportRepo repositories.SportRepository,
	userRepo repositories.UserRepository,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		sportRepo:        sportRepo,
		userRepo:         userRepo,
	}
}

// Register записывает игрока на вид спорта. Для закрытых видов регистрация запрещена.
func (s *registrationService) Register(ctx context.Context, userID, sportID int, mobile string) (*models.Registration, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	sport, err := s.sportRepo.GetByID(ctx, sportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get sport %d: %w", sportID, err))
	}
	if sport.Status != models.SportStatusOpen {
		return nil, ErrSportClosed
	}

	if mobile = strings.TrimSpace(mobile); mobile != "" {
		if err := s.userRepo.UpdateMobileIfEmpty(ctx, userID, mobile); err != nil {
			return nil, storeError(fmt.Errorf("failed to save mobile for user %d: %w", userID, err))
		}
	}

	registration := &models.Registration{
		UserID:  userID,
		SportID: sportID,
	}
	if err := s.registrationRepo.Create(ctx, registration); err != nil {
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrRegistrationExists
		}
		return nil, storeError(fmt.Errorf("failed to register user %d for sport %d: %w", userID, sportID, err))
	}
	registration.Sport = sport
	return registration, nil
}

func (s *registrationService) ListByUser(ctx context.Context, userID int) ([]*models.Registration, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	registrations, err := s.registrationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list registrations for user %d: %w", userID, err))
	}
	return registrations, nil
}

func (s *registrationService) ListBySport(ctx context.Context, sportID int) ([]*models.Registration, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	registrations, err := s.registrationRepo.ListBySport(ctx, sportID)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list registrations for sport %d: %w", sportID, err))
	}
	return registrations, nil
}

func (s *registrationService) IsRegistered(ctx context.Context, userID, sportID int) (bool, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	exists, err := s.registrationRepo.ExistsByUserAndSport(ctx, userID, sportID)
	if err != nil {
		return false, storeError(fmt.Errorf("failed to check registration for user %d sport %d: %w", userID, sportID, err))
	}
	return exists, nil
}

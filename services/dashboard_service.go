package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

type dashboardService struct {
	userRepo         repositories.UserRepository
	registrationRepo repositories.RegistrationRepository
	teamRepo         repositories.TeamRepository
	matchRepo        repositories.MatchRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	registrationRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
) DashboardService {
	return &dashboardService{
		userRepo:         userRepo,
		registrationRepo: registrationRepo,
		teamRepo:         teamRepo,
		matchRepo:        matchRepo,
	}
}

// GetStats собирает счётчики админской сводки параллельно.
func (s *dashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	stats := &models.DashboardStats{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.userRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		stats.UsersTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.registrationRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		stats.RegistrationsTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.teamRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count teams: %w", err)
		}
		stats.TeamsTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.teamRepo.CountByStatus(gCtx, models.TeamStatusLocked)
		if err != nil {
			return fmt.Errorf("failed to count locked teams: %w", err)
		}
		stats.LockedTeams = count
		return nil
	})
	g.Go(func() error {
		count, err := s.matchRepo.Count(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count matches: %w", err)
		}
		stats.MatchesTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.matchRepo.CountByStatus(gCtx, models.MatchStatusLive)
		if err != nil {
			return fmt.Errorf("failed to count live matches: %w", err)
		}
		stats.LiveMatches = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, storeError(err)
	}
	return stats, nil
}

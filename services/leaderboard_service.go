package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

// LeaderboardBroadcaster рассылает обновления таблицы лидеров
// всем подписчикам общей комнаты.
type LeaderboardBroadcaster interface {
	BroadcastToLeaderboard(message []byte) error
}

type LeaderboardService interface {
	AwardMedal(ctx context.Context, className string, medal models.Medal) (*models.LeaderboardEntry, error)
	List(ctx context.Context) ([]*models.LeaderboardEntry, error)
}

type leaderboardService struct {
	leaderboardRepo repositories.LeaderboardRepository
	broadcaster     LeaderboardBroadcaster
	logger          *slog.Logger
}

func NewLeaderboardService(
	leaderboardRepo repositories.LeaderboardRepository,
	broadcaster LeaderboardBroadcaster,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		leaderboardRepo: leaderboardRepo,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

func (s *leaderboardService) AwardMedal(ctx context.Context, className string, medal models.Medal) (*models.LeaderboardEntry, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, fmt.Errorf("%w: class name is required", ErrValidationFailed)
	}
	if !medal.Valid() {
		return nil, ErrInvalidMedal
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	entry, err := s.leaderboardRepo.AwardMedal(ctx, className, medal)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to award %s medal to %q: %w", medal, className, err))
	}

	s.broadcastEntry(entry)
	return entry, nil
}

func (s *leaderboardService) List(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	entries, err := s.leaderboardRepo.List(ctx)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list leaderboard: %w", err))
	}
	return entries, nil
}

func (s *leaderboardService) broadcastEntry(entry *models.LeaderboardEntry) {
	if s.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(struct {
		Type  string                   `json:"type"`
		Entry *models.LeaderboardEntry `json:"entry"`
	}{
		Type:  "LEADERBOARD_UPDATED",
		Entry: entry,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode leaderboard event", "error", err)
		}
		return
	}
	if err := s.broadcaster.BroadcastToLeaderboard(payload); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to broadcast leaderboard event", "error", err)
		}
	}
}

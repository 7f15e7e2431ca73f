package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

// Broadcaster доставляет события матча подписчикам live-трансляции.
type Broadcaster interface {
	BroadcastToMatch(matchID int, message []byte) error
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatchByID(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, sportID *int, status *models.MatchStatus) ([]*models.Match, error)
	UpdateScore(ctx context.Context, id int, homeScore, awayScore string) (*models.Match, error)
	UpdateStatus(ctx context.Context, id int, status models.MatchStatus) (*models.Match, error)
	DeleteMatch(ctx context.Context, id int) error
	// AutoStartDueMatches переводит в live все upcoming-матчи,
	// чьё время старта уже прошло. Возвращает число переведённых.
	AutoStartDueMatches(ctx context.Context, now time.Time) (int, error)
}

type CreateMatchInput struct {
	SportID    int       `json:"sport_id"`
	HomeTeamID *int      `json:"home_team_id"`
	AwayTeamID *int      `json:"away_team_id"`
	HomeUserID *int      `json:"home_user_id"`
	AwayUserID *int      `json:"away_user_id"`
	Venue      string    `json:"venue"`
	StartTime  time.Time `json:"start_time"`
}

type matchService struct {
	matchRepo   repositories.MatchRepository
	sportRepo   repositories.SportRepository
	teamRepo    repositories.TeamRepository
	userRepo    repositories.UserRepository
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	sportRepo repositories.SportRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	broadcaster Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:   matchRepo,
		sportRepo:   sportRepo,
		teamRepo:    teamRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateMatch проверяет пригодность пары соперников и создаёт матч.
// Для командных видов обе команды должны принадлежать виду спорта и быть
// закрыты (locked); для одиночных - оба игрока различны и одного пола.
func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if strings.TrimSpace(input.Venue) == "" {
		return nil, fmt.Errorf("%w: venue is required", ErrValidationFailed)
	}
	if input.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", ErrValidationFailed)
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	sport, err := s.sportRepo.GetByID(ctx, input.SportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get sport %d: %w", input.SportID, err))
	}

	match := &models.Match{
		SportID:   input.SportID,
		Venue:     strings.TrimSpace(input.Venue),
		StartTime: input.StartTime,
		Status:    models.MatchStatusUpcoming,
	}

	switch sport.Category {
	case models.SportCategoryTeam:
		if input.HomeTeamID == nil || input.AwayTeamID == nil {
			return nil, fmt.Errorf("%w: both teams are required for a team sport", ErrValidationFailed)
		}
		if *input.HomeTeamID == *input.AwayTeamID {
			return nil, ErrInvalidOpponentPair
		}
		homeTeam, err := s.validateTeamOpponent(ctx, *input.HomeTeamID, sport.ID)
		if err != nil {
			return nil, err
		}
		awayTeam, err := s.validateTeamOpponent(ctx, *input.AwayTeamID, sport.ID)
		if err != nil {
			return nil, err
		}
		// Пол команды определяется полом её капитана.
		homeCaptain, err := s.getCaptain(ctx, homeTeam)
		if err != nil {
			return nil, err
		}
		awayCaptain, err := s.getCaptain(ctx, awayTeam)
		if err != nil {
			return nil, err
		}
		if homeCaptain.Gender != awayCaptain.Gender {
			return nil, ErrGenderMismatch
		}
		match.HomeTeamID = input.HomeTeamID
		match.AwayTeamID = input.AwayTeamID
		match.HomeName = homeTeam.Name
		match.AwayName = awayTeam.Name

	case models.SportCategorySolo:
		if input.HomeUserID == nil || input.AwayUserID == nil {
			return nil, fmt.Errorf("%w: both players are required for a solo sport", ErrValidationFailed)
		}
		if *input.HomeUserID == *input.AwayUserID {
			return nil, ErrInvalidOpponentPair
		}
		home, err := s.userRepo.GetByID(ctx, *input.HomeUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, storeError(fmt.Errorf("failed to get player %d: %w", *input.HomeUserID, err))
		}
		away, err := s.userRepo.GetByID(ctx, *input.AwayUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, storeError(fmt.Errorf("failed to get player %d: %w", *input.AwayUserID, err))
		}
		if home.Gender != away.Gender {
			return nil, ErrGenderMismatch
		}
		match.HomeUserID = input.HomeUserID
		match.AwayUserID = input.AwayUserID
		match.HomeName = home.FirstName + " " + home.LastName
		match.AwayName = away.FirstName + " " + away.LastName

	default:
		return nil, fmt.Errorf("%w: unknown sport category %q", ErrValidationFailed, sport.Category)
	}

	if err := s.matchRepo.Create(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchSportInvalid) {
			return nil, ErrSportNotFound
		}
		return nil, storeError(fmt.Errorf("failed to create match: %w", err))
	}
	match.Sport = sport
	return match, nil
}

func (s *matchService) validateTeamOpponent(ctx context.Context, teamID, sportID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get team %d: %w", teamID, err))
	}
	if team.SportID != sportID {
		return nil, fmt.Errorf("%w: team %q belongs to another sport", ErrInvalidOpponentPair, team.Name)
	}
	if team.Status != models.TeamStatusLocked {
		return nil, fmt.Errorf("%w: team %q", ErrTeamNotReady, team.Name)
	}
	return team, nil
}

func (s *matchService) getCaptain(ctx context.Context, team *models.Team) (*models.User, error) {
	captain, err := s.userRepo.GetByID(ctx, team.CaptainID)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to get captain of team %q: %w", team.Name, err))
	}
	return captain, nil
}

func (s *matchService) GetMatchByID(ctx context.Context, id int) (*models.Match, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get match %d: %w", id, err))
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, sportID *int, status *models.MatchStatus) ([]*models.Match, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	matches, err := s.matchRepo.List(ctx, sportID, status)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list matches: %w", err))
	}
	return matches, nil
}

// UpdateScore меняет счёт матча. Счёт хранится свободным текстом,
// чтобы покрыть форматы разных видов ("124/7", "3-1", "25-20, 25-18").
// Завершённый матч менять нельзя.
func (s *matchService) UpdateScore(ctx context.Context, id int, homeScore, awayScore string) (*models.Match, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get match %d: %w", id, err))
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, ErrMatchCompleted
	}

	if err := s.matchRepo.UpdateScore(ctx, id, homeScore, awayScore); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(fmt.Errorf("failed to update score of match %d: %w", id, err))
	}
	match.HomeScore = homeScore
	match.AwayScore = awayScore

	s.broadcastMatchEvent(match, "MATCH_SCORE_UPDATED")
	return match, nil
}

// UpdateStatus двигает матч только вперёд: upcoming -> live -> completed.
func (s *matchService) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) (*models.Match, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get match %d: %w", id, err))
	}
	if match.Status == status {
		return match, nil
	}
	if !isForwardTransition(match.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrMatchStatusTransition, match.Status, status)
	}

	if err := s.matchRepo.UpdateStatus(ctx, id, match.Status, status); err != nil {
		if errors.Is(err, repositories.ErrMatchStatusConflict) {
			return nil, fmt.Errorf("%w: match %d changed concurrently", ErrMatchStatusTransition, id)
		}
		return nil, storeError(fmt.Errorf("failed to update status of match %d: %w", id, err))
	}
	match.Status = status

	s.broadcastMatchEvent(match, "MATCH_STATUS_UPDATED")
	return match, nil
}

func isForwardTransition(from, to models.MatchStatus) bool {
	order := map[models.MatchStatus]int{
		models.MatchStatusUpcoming:  0,
		models.MatchStatusLive:      1,
		models.MatchStatusCompleted: 2,
	}
	fromRank, okFrom := order[from]
	toRank, okTo := order[to]
	return okFrom && okTo && toRank > fromRank
}

func (s *matchService) DeleteMatch(ctx context.Context, id int) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return storeError(fmt.Errorf("failed to get match %d: %w", id, err))
	}
	if match.Status != models.MatchStatusUpcoming {
		return ErrMatchNotUpcoming
	}

	if err := s.matchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return storeError(fmt.Errorf("failed to delete match %d: %w", id, err))
	}
	return nil
}

func (s *matchService) AutoStartDueMatches(ctx context.Context, now time.Time) (int, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	due, err := s.matchRepo.ListDueForLive(ctx, now)
	if err != nil {
		return 0, storeError(fmt.Errorf("failed to list matches due for live: %w", err))
	}

	started := 0
	for _, match := range due {
		err := s.matchRepo.UpdateStatus(ctx, match.ID, models.MatchStatusUpcoming, models.MatchStatusLive)
		if err != nil {
			// Кто-то уже перевёл матч руками - пропускаем.
			if errors.Is(err, repositories.ErrMatchStatusConflict) {
				continue
			}
			return started, storeError(fmt.Errorf("failed to auto-start match %d: %w", match.ID, err))
		}
		match.Status = models.MatchStatusLive
		started++
		s.broadcastMatchEvent(match, "MATCH_STATUS_UPDATED")
	}
	return started, nil
}

type matchEvent struct {
	Type  string        `json:"type"`
	Match *models.Match `json:"match"`
}

func encodeMatchEvent(event matchEvent) ([]byte, error) {
	return json.Marshal(event)
}

func (s *matchService) broadcastMatchEvent(match *models.Match, eventType string) {
	if s.broadcaster == nil {
		return
	}
	payload, err := encodeMatchEvent(matchEvent{Type: eventType, Match: match})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode match event", "match_id", match.ID, "error", err)
		}
		return
	}
	if err := s.broadcaster.BroadcastToMatch(match.ID, payload); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to broadcast match event", "match_id", match.ID, "error", err)
		}
	}
}

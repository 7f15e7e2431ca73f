package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
	"github.com/urjafest/sportsfest-backend/storage"
)

var ErrSportNameRequired = errors.New("sport name is required")

type SportService interface {
	CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error)
	GetSportByID(ctx context.Context, id int) (*models.Sport, error)
	ListSports(ctx context.Context, onlyOpen bool) ([]models.Sport, error)
	UpdateSport(ctx context.Context, id int, input UpdateSportInput) (*models.Sport, error)
	SetSportStatus(ctx context.Context, id int, status models.SportStatus) error
	UploadIcon(ctx context.Context, id int, contentType string, file io.Reader) (*models.Sport, error)
	DeleteSport(ctx context.Context, id int) error
}

type CreateSportInput struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	RosterSize *int   `json:"roster_size"`
}

type UpdateSportInput struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	RosterSize *int   `json:"roster_size"`
}

type sportService struct {
	sportRepo repositories.SportRepository
	uploader  storage.FileUploader
}

func NewSportService(sportRepo repositories.SportRepository, uploader storage.FileUploader) SportService {
	return &sportService{
		sportRepo: sportRepo,
		uploader:  uploader,
	}
}

func parseSportCategory(raw string) (models.SportCategory, error) {
	category := models.SportCategory(strings.ToLower(strings.TrimSpace(raw)))
	switch category {
	case models.SportCategorySolo, models.SportCategoryTeam:
		return category, nil
	default:
		return "", fmt.Errorf("%w: category must be %q or %q", ErrValidationFailed, models.SportCategorySolo, models.SportCategoryTeam)
	}
}

func (s *sportService) CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrSportNameRequired
	}
	category, err := parseSportCategory(input.Category)
	if err != nil {
		return nil, err
	}
	if input.RosterSize != nil && *input.RosterSize <= 0 {
		return nil, fmt.Errorf("%w: roster size must be positive", ErrValidationFailed)
	}

	sport := &models.Sport{
		Name:       name,
		Category:   category,
		RosterSize: input.RosterSize,
		Status:     models.SportStatusOpen,
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := s.sportRepo.Create(ctx, sport); err != nil {
		if errors.Is(err, repositories.ErrSportNameConflict) {
			return nil, ErrSportNameConflict
		}
		return nil, storeError(fmt.Errorf("failed to create sport: %w", err))
	}
	return sport, nil
}

func (s *sportService) GetSportByID(ctx context.Context, id int) (*models.Sport, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get sport by id %d: %w", id, err))
	}
	s.populateIconURL(sport)
	return sport, nil
}

func (s *sportService) ListSports(ctx context.Context, onlyOpen bool) ([]models.Sport, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	var statusFilter *models.SportStatus
	if onlyOpen {
		status := models.SportStatusOpen
		statusFilter = &status
	}

	sports, err := s.sportRepo.GetAll(ctx, statusFilter)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list sports: %w", err))
	}
	for i := range sports {
		s.populateIconURL(&sports[i])
	}
	return sports, nil
}

func (s *sportService) UpdateSport(ctx context.Context, id int, input UpdateSportInput) (*models.Sport, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrSportNameRequired
	}
	category, err := parseSportCategory(input.Category)
	if err != nil {
		return nil, err
	}
	if input.RosterSize != nil && *input.RosterSize <= 0 {
		return nil, fmt.Errorf("%w: roster size must be positive", ErrValidationFailed)
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get sport %d: %w", id, err))
	}

	sport.Name = name
	sport.Category = category
	sport.RosterSize = input.RosterSize

	if err := s.sportRepo.Update(ctx, sport); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSportNotFound):
			return nil, ErrSportNotFound
		case errors.Is(err, repositories.ErrSportNameConflict):
			return nil, ErrSportNameConflict
		default:
			return nil, storeError(fmt.Errorf("failed to update sport %d: %w", id, err))
		}
	}
	s.populateIconURL(sport)
	return sport, nil
}

func (s *sportService) SetSportStatus(ctx context.Context, id int, status models.SportStatus) error {
	if status != models.SportStatusOpen && status != models.SportStatusClosed {
		return fmt.Errorf("%w: sport status must be %q or %q", ErrValidationFailed, models.SportStatusOpen, models.SportStatusClosed)
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := s.sportRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return ErrSportNotFound
		}
		return storeError(fmt.Errorf("failed to set sport %d status: %w", id, err))
	}
	return nil
}

func (s *sportService) UploadIcon(ctx context.Context, id int, contentType string, file io.Reader) (*models.Sport, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	sport, err := s.GetSportByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldKey := sport.IconKey
	newKey := fmt.Sprintf("icons/sports/%d/%d", id, time.Now().UnixNano())

	if _, err := s.uploader.Upload(ctx, newKey, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload icon for sport %d: %w", id, err)
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := s.sportRepo.UpdateIconKey(ctx, id, &newKey); err != nil {
		_ = s.uploader.Delete(context.Background(), newKey)
		return nil, storeError(fmt.Errorf("failed to persist icon key for sport %d: %w", id, err))
	}

	if oldKey != nil && *oldKey != newKey {
		_ = s.uploader.Delete(context.Background(), *oldKey)
	}

	sport.IconKey = &newKey
	s.populateIconURL(sport)
	return sport, nil
}

func (s *sportService) DeleteSport(ctx context.Context, id int) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := s.sportRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSportNotFound):
			return ErrSportNotFound
		case errors.Is(err, repositories.ErrSportInUse):
			return ErrSportInUse
		default:
			return storeError(fmt.Errorf("failed to delete sport %d: %w", id, err))
		}
	}
	return nil
}

func (s *sportService) populateIconURL(sport *models.Sport) {
	if sport.IconKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*sport.IconKey)
		sport.IconURL = &url
	}
}

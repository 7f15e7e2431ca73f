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

type UserService interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error)
}

type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	ClassName *string `json:"class_name"`
	StudentID *string `json:"student_id"`
	Mobile    *string `json:"mobile"`
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *userService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get user %d: %w", id, err))
	}

	user.PasswordHash = ""
	s.populateAvatarURL(user)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(fmt.Errorf("failed to get user %d: %w", userID, err))
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, fmt.Errorf("%w: first name must not be empty", ErrValidationFailed)
		}
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.ClassName != nil {
		user.ClassName = input.ClassName
	}
	if input.StudentID != nil {
		user.StudentID = input.StudentID
	}
	if input.Mobile != nil {
		user.Mobile = input.Mobile
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(fmt.Errorf("failed to update user %d: %w", userID, err))
	}

	user.PasswordHash = ""
	s.populateAvatarURL(user)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldKey := user.AvatarKey
	newKey := fmt.Sprintf("avatars/users/%d/%d", userID, time.Now().UnixNano())

	if _, err := s.uploader.Upload(ctx, newKey, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar for user %d: %w", userID, err)
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &newKey); err != nil {
		// Запись не обновилась - подчищаем только что загруженный файл.
		_ = s.uploader.Delete(context.Background(), newKey)
		return nil, storeError(fmt.Errorf("failed to persist avatar key for user %d: %w", userID, err))
	}

	if oldKey != nil && *oldKey != newKey {
		_ = s.uploader.Delete(context.Background(), *oldKey)
	}

	user.AvatarKey = &newKey
	s.populateAvatarURL(user)
	return user, nil
}

func (s *userService) populateAvatarURL(user *models.User) {
	if user.AvatarKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*user.AvatarKey)
		user.AvatarURL = &url
	}
}

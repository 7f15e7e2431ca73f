package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
}

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Gender    string `json:"gender"`
	ClassName string `json:"class_name"`
	StudentID string `json:"student_id"`
	Mobile    string `json:"mobile"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	mailer   Mailer
	logger   *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, mailer Mailer, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	gender := models.Gender(strings.ToLower(strings.TrimSpace(input.Gender)))
	if gender != models.GenderMale && gender != models.GenderFemale {
		return nil, fmt.Errorf("%w: gender must be %q or %q", ErrValidationFailed, models.GenderMale, models.GenderFemale)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hashedPassword),
		Role:         models.RolePlayer,
		Gender:       gender,
	}
	if v := strings.TrimSpace(input.ClassName); v != "" {
		user.ClassName = &v
	}
	if v := strings.TrimSpace(input.StudentID); v != "" {
		user.StudentID = &v
	}
	if v := strings.TrimSpace(input.Mobile); v != "" {
		user.Mobile = &v
	}

	ctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, storeError(fmt.Errorf("failed to create user: %w", err))
	}

	if s.mailer != nil {
		go func(email, firstName string) {
			if err := s.mailer.SendWelcomeEmail(email, firstName); err != nil && s.logger != nil {
				s.logger.Warn("failed to send welcome email", "email", email, "error", err)
			}
		}(user.Email, user.FirstName)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	ctx, cancel := storeCtx(ctx)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, storeError(fmt.Errorf("failed to find user by email: %w", err))
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

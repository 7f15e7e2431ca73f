package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrSportClosed           = errors.New("sport is not open for registration")
	ErrSportNotTeamCategory  = errors.New("teams can only be created for team sports")
	ErrRegistrationRequired  = errors.New("registration for this sport is required first")
	ErrAlreadyInTeamForSport = errors.New("user already has a team for this sport")
	ErrRosterFull            = errors.New("team roster is already full")
	ErrRosterIncomplete      = errors.New("team roster is not complete yet")
	ErrTeamLocked            = errors.New("team is locked")
	ErrMembershipNotPending  = errors.New("membership request is not pending")
	ErrCannotRemoveCaptain   = errors.New("cannot remove the team captain")

	// Ошибки проверки соперников при создании матча
	ErrInvalidOpponentPair = errors.New("participants of a match must be distinct")
	ErrTeamNotReady        = errors.New("team is not locked and cannot be scheduled")
	ErrGenderMismatch      = errors.New("participants must have matching gender")

	// Ошибки жизненного цикла матча
	ErrMatchStatusTransition = errors.New("invalid match status transition")
	ErrMatchCompleted        = errors.New("match is already completed")
	ErrMatchNotUpcoming      = errors.New("only upcoming matches can be deleted")

	// Ошибки конфликтов
	ErrUserEmailConflict  = errors.New("email address is already in use")
	ErrTeamNameConflict   = errors.New("team name is already in use for this sport")
	ErrSportNameConflict  = errors.New("sport name already exists")
	ErrSportInUse         = errors.New("sport cannot be deleted as it is currently in use")
	ErrRegistrationExists = errors.New("user is already registered for this sport")
	ErrJoinRequestExists  = errors.New("join request for this team already exists")
	ErrInvalidMedal       = errors.New("invalid medal value")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrSportNotFound        = errors.New("sport not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrMembershipNotFound   = errors.New("membership request not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Файловое хранилище не сконфигурировано
	ErrUploadsDisabled = errors.New("file uploads are not configured")

	// Ошибки стора (коллаборатор персистентности не ответил)
	ErrStoreTimeout     = errors.New("datastore request timed out")
	ErrStoreUnavailable = errors.New("datastore unavailable")
)

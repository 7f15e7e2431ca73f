package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/urjafest/sportsfest-backend/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Паника, т.к. это ошибка программиста (передан не указатель)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		idStr = chi.URLParam(r, "id")
		if idStr == "" {
			return 0, fmt.Errorf("missing %s or id in URL path", paramName)
		}
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %d", paramName, id)
	}
	return id, nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		fmt.Printf("Error writing error JSON response: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fmt.Printf("Internal server error: %v\n", err)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrSportNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrMembershipNotFound),
		errors.Is(err, services.ErrRegistrationNotFound):
		notFoundResponse(w, r)

	// Конфликты (дубликаты и гонки состояний)
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrSportNameConflict),
		errors.Is(err, services.ErrSportInUse),
		errors.Is(err, services.ErrRegistrationExists),
		errors.Is(err, services.ErrJoinRequestExists),
		errors.Is(err, services.ErrAlreadyInTeamForSport),
		errors.Is(err, services.ErrRosterFull),
		errors.Is(err, services.ErrTeamLocked),
		errors.Is(err, services.ErrTeamNotReady),
		errors.Is(err, services.ErrMembershipNotPending),
		errors.Is(err, services.ErrMatchCompleted),
		errors.Is(err, services.ErrMatchNotUpcoming),
		errors.Is(err, services.ErrMatchStatusTransition):
		conflictResponse(w, r, err.Error())

	// Невалидные данные / бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrSportNameRequired),
		errors.Is(err, services.ErrSportClosed),
		errors.Is(err, services.ErrSportNotTeamCategory),
		errors.Is(err, services.ErrRegistrationRequired),
		errors.Is(err, services.ErrRosterIncomplete),
		errors.Is(err, services.ErrInvalidOpponentPair),
		errors.Is(err, services.ErrGenderMismatch),
		errors.Is(err, services.ErrCannotRemoveCaptain),
		errors.Is(err, services.ErrInvalidMedal):
		badRequestResponse(w, r, err)

	// Аутентификация и доступ
	case errors.Is(err, services.ErrAuthInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrCaptainActionForbidden):
		forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrUploadsDisabled):
		errorResponse(w, r, http.StatusNotImplemented, err.Error())

	// Проблемы хранилища
	case errors.Is(err, services.ErrStoreTimeout):
		errorResponse(w, r, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

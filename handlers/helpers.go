package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type jsonResponse map[string]interface{}

const maxBodyBytes = 1_048_576 // 1MB

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

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
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
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
	return err
}

// respond пишет успешный ответ; ошибка сериализации превращается в 500.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := writeJSON(w, status, data, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string, details string) {
	env := jsonResponse{"error": message}
	if details != "" {
		env["details"] = details
	}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response",
			"error", err, "request_id", middleware.GetReqID(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	errorResponse(w, r, http.StatusInternalServerError, "internal server error",
		"the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, "bad request", err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, "validation failed", err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusNotFound, "not found", err.Error())
}

func conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusConflict, "conflict", err.Error())
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
}

func unavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusServiceUnavailable, "service unavailable", err.Error())
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}

	return id, nil
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrFinalsNotFound),
		errors.Is(err, services.ErrPhaseNotFound),
		errors.Is(err, services.ErrTournamentNotFound):
		notFoundResponse(w, r, err)

	// Состояние турнира не позволяет выполнить действие
	case errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrPlayerAssigned),
		errors.Is(err, services.ErrTournamentAlreadyActive),
		errors.Is(err, services.ErrActivePhaseConflict),
		errors.Is(err, services.ErrCannotDeleteActivePhase),
		errors.Is(err, services.ErrActivePhaseLocked),
		errors.Is(err, services.ErrConcurrentModification),
		errors.Is(err, brackets.ErrNotEnoughQualifiedTeams),
		errors.Is(err, brackets.ErrSemifinalsIncomplete),
		errors.Is(err, brackets.ErrFinalsIncomplete),
		errors.Is(err, brackets.ErrSeriesCompleted),
		errors.Is(err, brackets.ErrGameAlreadyRecorded),
		errors.Is(err, brackets.ErrActionNotAllowedInPhase),
		errors.Is(err, brackets.ErrInvalidPhaseTransition),
		errors.Is(err, brackets.ErrNotEnoughTeams),
		errors.Is(err, brackets.ErrNotEnoughPlayers):
		conflictResponse(w, r, err)

	// Некорректные данные
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPlayerNameRequired),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrTournamentNameRequired),
		errors.Is(err, services.ErrInvalidTournamentStatus),
		errors.Is(err, services.ErrInvalidPhaseStatus),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidGameTime),
		errors.Is(err, services.ErrSameTeam),
		errors.Is(err, services.ErrPlayerNotInMatch),
		errors.Is(err, services.ErrInvalidCount),
		errors.Is(err, brackets.ErrTiedGame),
		errors.Is(err, brackets.ErrInvalidGameNumber),
		errors.Is(err, brackets.ErrNegativeKills),
		errors.Is(err, brackets.ErrInvalidTeamLayout):
		failedValidationResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidGroup),
		errors.Is(err, services.ErrInvalidMatchType),
		errors.Is(err, services.ErrInvalidPhase),
		errors.Is(err, services.ErrUnsupportedLogoType):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err)

	case errors.Is(err, services.ErrUploadsDisabled):
		unavailableResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}

package services

import (
	"errors"

	"github.com/Dosada05/killrace-tournament/utils"
)

// Общие ошибки сервисного слоя, используемые при маппинге в HTTP.
var (
	// Ресурс не найден
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrFinalsNotFound     = errors.New("finals not found")
	ErrPhaseNotFound      = errors.New("phase not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Ошибки валидации
	ErrValidationFailed        = errors.New("validation failed")
	ErrPlayerNameRequired      = errors.New("player name is required")
	ErrTeamNameRequired        = errors.New("team name is required")
	ErrInvalidGroup            = errors.New("group must be A or B")
	ErrInvalidMatchType        = errors.New("match type must be qualifier or semifinal")
	ErrInvalidPhase            = errors.New("unknown phase")
	ErrInvalidPhaseStatus      = errors.New("phase status must be active, completed or cancelled")
	ErrTournamentNameRequired  = errors.New("tournament name is required")
	ErrInvalidTournamentStatus = errors.New("tournament status must be upcoming, active or completed")
	ErrInvalidDate             = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidGameTime         = utils.ErrInvalidGameTime
	ErrSameTeam                = errors.New("a team cannot play against itself")
	ErrPlayerNotInMatch        = errors.New("player does not belong to a team of this match")
	ErrInvalidCount            = errors.New("counts must be positive")
	ErrUnsupportedLogoType     = errors.New("logo must be a PNG, JPEG, WEBP or SVG image")

	// Конфликты
	ErrTeamNameConflict        = errors.New("team name is already in use")
	ErrPlayerAssigned          = errors.New("player is assigned to a team")
	ErrTournamentAlreadyActive = errors.New("another tournament is already active")
	ErrActivePhaseConflict     = errors.New("another phase is already active")
	ErrCannotDeleteActivePhase = errors.New("the active phase cannot be deleted")
	ErrActivePhaseLocked       = errors.New("the active phase changes only by starting the next phase")
	ErrConcurrentModification  = errors.New("tournament state was changed by another request, retry")

	// Аутентификация
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Внешние зависимости
	ErrUploadsDisabled = errors.New("file uploads are not configured")
)

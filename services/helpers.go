package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/repositories"
)

// translateRepoError переводит ошибки репозиториев в ошибки сервисного слоя.
// Неизвестные ошибки возвращаются без изменений и становятся 500.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrPlayerTeamInvalid),
		errors.Is(err, repositories.ErrMatchTeamInvalid),
		errors.Is(err, repositories.ErrFinalsTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrFinalsNotFound):
		return ErrFinalsNotFound
	case errors.Is(err, repositories.ErrSemifinalGameConflict),
		errors.Is(err, repositories.ErrFinalsGameConflict):
		return brackets.ErrGameAlreadyRecorded
	case errors.Is(err, repositories.ErrSemifinalOrderTaken),
		errors.Is(err, repositories.ErrFinalsAlreadyExist):
		return ErrConcurrentModification
	case errors.Is(err, repositories.ErrPhaseNotFound):
		return ErrPhaseNotFound
	case errors.Is(err, repositories.ErrActivePhaseConflict):
		return ErrActivePhaseConflict
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrInvalidValue):
		return fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	default:
		return err
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func intPtr(v int) *int {
	return &v
}

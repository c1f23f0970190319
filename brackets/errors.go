package brackets

import "errors"

var (
	ErrNotEnoughQualifiedTeams = errors.New("not enough qualified teams for semifinals")
	ErrSemifinalsIncomplete    = errors.New("both semifinal series must be completed before finals")
	ErrFinalsIncomplete        = errors.New("finals series is not completed")
	ErrTiedGame                = errors.New("game cannot end in a tie: kill counts must differ")
	ErrSeriesCompleted         = errors.New("series is already completed")
	ErrInvalidGameNumber       = errors.New("game number is out of range for this series")
	ErrGameAlreadyRecorded     = errors.New("game number has already been recorded")
	ErrNegativeKills           = errors.New("kill counts cannot be negative")
	ErrInvalidPhaseTransition  = errors.New("invalid tournament phase transition")
	ErrNotEnoughTeams          = errors.New("each group needs at least two teams to start the qualifier")
	ErrNotEnoughPlayers        = errors.New("not enough unassigned players to generate teams")
	ErrInvalidTeamLayout       = errors.New("team count and players per team must be positive")
)

var ErrActionNotAllowedInPhase = errors.New("action is not allowed in the current tournament phase")

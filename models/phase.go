package models

import "time"

type PhaseName string

const (
	PhaseEnrollment PhaseName = "enrollment"
	PhaseQualifier  PhaseName = "qualifier"
	PhaseSemifinals PhaseName = "semifinals"
	PhaseFinals     PhaseName = "finals"
	PhaseCompleted  PhaseName = "completed"
)

type PhaseStatus string

const (
	PhaseStatusActive    PhaseStatus = "active"
	PhaseStatusCompleted PhaseStatus = "completed"
	PhaseStatusCancelled PhaseStatus = "cancelled"
)

func (s PhaseStatus) Valid() bool {
	switch s {
	case PhaseStatusActive, PhaseStatusCompleted, PhaseStatusCancelled:
		return true
	}
	return false
}

type TournamentPhase struct {
	ID          int         `json:"id" db:"id"`
	PhaseName   PhaseName   `json:"phase_name" db:"phase_name"`
	PhaseStatus PhaseStatus `json:"phase_status" db:"phase_status"`
	StartedAt   time.Time   `json:"started_at" db:"started_at"`
	EndedAt     *time.Time  `json:"ended_at,omitempty" db:"ended_at"`

	// Implicit is set when no active row exists and the default phase is reported.
	Implicit bool        `json:"implicit,omitempty" db:"-"`
	Stats    *PhaseStats `json:"stats,omitempty" db:"-"`
}

// PhaseStats - сводные счётчики турнира, отдаются вместе с текущей фазой.
// Заполняются все поля независимо от того, какая фаза активна.
type PhaseStats struct {
	TotalTeams         int  `json:"total_teams" db:"total_teams"`
	QualifiedTeams     int  `json:"qualified_teams" db:"qualified_teams"`
	QualifierGames     int  `json:"qualifier_games" db:"qualifier_games"`
	HighestKills       int  `json:"highest_kills" db:"highest_kills"`
	SemifinalMatches   int  `json:"semifinal_matches" db:"semifinal_matches"`
	SemifinalGames     int  `json:"semifinal_games" db:"semifinal_games"`
	SemifinalsComplete int  `json:"semifinals_completed" db:"-"`
	FinalsGames        int  `json:"finals_games" db:"finals_games"`
	FinalsCompleted    bool `json:"finals_completed" db:"-"`
}

package models

import "time"

// TournamentStatus - статус метаданных турнира.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Tournament хранит описательные данные турнира (название, дата, организатор).
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Date           *time.Time       `json:"date,omitempty" db:"date"`
	Organizer      *string          `json:"organizer,omitempty" db:"organizer"`
	TotalPlayers   *int             `json:"total_players,omitempty" db:"total_players"`
	PlayersPerTeam *int             `json:"players_per_team,omitempty" db:"players_per_team"`
	TotalTeams     *int             `json:"total_teams,omitempty" db:"total_teams"`
	Status         TournamentStatus `json:"status" db:"status"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

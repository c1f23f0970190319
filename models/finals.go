package models

import "time"

type FinalsStatus string

const (
	FinalsScheduled  FinalsStatus = "scheduled"
	FinalsInProgress FinalsStatus = "in_progress"
	FinalsCompleted  FinalsStatus = "completed"
)

type Finals struct {
	ID           int          `json:"id" db:"id"`
	Team1ID      int          `json:"team1_id" db:"team1_id"`
	Team2ID      int          `json:"team2_id" db:"team2_id"`
	Status       FinalsStatus `json:"status" db:"status"`
	WinnerTeamID *int         `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty" db:"completed_at"`

	Team1Name string       `json:"team1_name" db:"team1_name"`
	Team2Name string       `json:"team2_name" db:"team2_name"`
	Games     []GameResult `json:"games" db:"-"`
	WinsTeam1 int          `json:"wins_team1" db:"-"`
	WinsTeam2 int          `json:"wins_team2" db:"-"`
}

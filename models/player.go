package models

import "time"

// Player представляет участника турнира.
type Player struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	TeamID         *int      `json:"team_id" db:"team_id"`
	Kills          int       `json:"kills" db:"kills"`
	QualifierKills int       `json:"qualifier_kills" db:"qualifier_kills"`
	SemifinalKills int       `json:"semifinal_kills" db:"semifinal_kills"`
	FinalsKills    int       `json:"finals_kills" db:"finals_kills"`
	MatchesPlayed  int       `json:"matches_played" db:"matches_played"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// PlayerKills is a per-player kill delta submitted with a game result.
type PlayerKills struct {
	PlayerID int `json:"player_id"`
	Kills    int `json:"kills"`
}

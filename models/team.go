package models

import "time"

type Group string

const (
	GroupA Group = "A"
	GroupB Group = "B"
)

func (g Group) Valid() bool {
	return g == GroupA || g == GroupB
}

type Team struct {
	ID                int       `json:"id" db:"id"`
	TeamName          string    `json:"team_name" db:"team_name"`
	GroupName         Group     `json:"group_name" db:"group_name"`
	TotalKills        int       `json:"total_kills" db:"total_kills"`
	MatchesPlayed     int       `json:"matches_played" db:"matches_played"`
	IsQualified       bool      `json:"is_qualified" db:"is_qualified"`
	TimePlayedSeconds int       `json:"-" db:"time_played_seconds"`
	TimePlayed        string    `json:"time_played" db:"-"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Players []Player `json:"players,omitempty" db:"-"`
}

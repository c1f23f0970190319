package models

import "time"

type MatchType string

const (
	MatchTypeQualifier MatchType = "qualifier"
	MatchTypeSemifinal MatchType = "semifinal"
)

func (t MatchType) Valid() bool {
	return t == MatchTypeQualifier || t == MatchTypeSemifinal
}

// Match - строка таблицы matches. Для квалификации это запись одной игры,
// для полуфинала - контейнер для игр серии.
type Match struct {
	ID         int       `json:"id" db:"id"`
	Team1ID    int       `json:"team1_id" db:"team1_id"`
	Team2ID    *int      `json:"team2_id" db:"team2_id"`
	Team1Kills int       `json:"team1_kills" db:"team1_kills"`
	Team2Kills int       `json:"team2_kills" db:"team2_kills"`
	GameTime   *string   `json:"game_time,omitempty" db:"game_time"`
	MatchType  MatchType `json:"match_type" db:"match_type"`
	MatchOrder *int      `json:"match_order,omitempty" db:"match_order"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Team1Name *string `json:"team1_name,omitempty" db:"team1_name"`
	Team2Name *string `json:"team2_name,omitempty" db:"team2_name"`
	GroupName *string `json:"group_name,omitempty" db:"group_name"`
}

// GameResult is one game of a best-of series (semifinal or finals).
type GameResult struct {
	ID           int       `json:"id" db:"id"`
	SeriesID     int       `json:"series_id" db:"series_id"`
	GameNumber   int       `json:"game_number" db:"game_number"`
	Team1Kills   int       `json:"team1_kills" db:"team1_kills"`
	Team2Kills   int       `json:"team2_kills" db:"team2_kills"`
	WinnerTeamID int       `json:"winner_team_id" db:"winner_team_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SemifinalMatch - полуфинальная серия вместе с сыгранными играми и счётом.
type SemifinalMatch struct {
	Match
	Team1Group   Group        `json:"team1_group"`
	Team2Group   Group        `json:"team2_group"`
	Games        []GameResult `json:"games"`
	WinsTeam1    int          `json:"wins_team1"`
	WinsTeam2    int          `json:"wins_team2"`
	Completed    bool         `json:"completed"`
	WinnerTeamID *int         `json:"winner_team_id,omitempty"`
}

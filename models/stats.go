package models

type PlayerKillEntry struct {
	ID       int     `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	TeamName *string `json:"team_name,omitempty" db:"team_name"`
	Kills    int     `json:"kills" db:"kills"`
}

type TeamKillEntry struct {
	ID            int    `json:"id" db:"id"`
	TeamName      string `json:"team_name" db:"team_name"`
	GroupName     Group  `json:"group_name" db:"group_name"`
	TotalKills    int    `json:"total_kills" db:"total_kills"`
	MatchesPlayed int    `json:"matches_played" db:"matches_played"`
}

type TournamentTotals struct {
	Players        int `json:"players" db:"players"`
	Teams          int `json:"teams" db:"teams"`
	QualifiedTeams int `json:"qualified_teams" db:"qualified_teams"`
	QualifierGames int `json:"qualifier_games" db:"qualifier_games"`
	SemifinalGames int `json:"semifinal_games" db:"semifinal_games"`
	FinalsGames    int `json:"finals_games" db:"finals_games"`
	TotalKills     int `json:"total_kills" db:"total_kills"`
}

type TournamentStats struct {
	QualifierTop3 []PlayerKillEntry `json:"qualifierTop3"`
	SemifinalTop3 []PlayerKillEntry `json:"semifinalTop3"`
	FinalsTop3    []PlayerKillEntry `json:"finalsTop3"`
	TopTeams      []TeamKillEntry   `json:"topTeams"`
	Totals        TournamentTotals  `json:"totals"`
	Winner        *Team             `json:"winner"`
}

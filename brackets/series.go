package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/killrace-tournament/models"
)

// SeriesFormat describes a best-of-N series.
type SeriesFormat struct {
	Name   string
	BestOf int
}

var (
	SemifinalSeries = SeriesFormat{Name: "semifinal", BestOf: 3}
	FinalsSeries    = SeriesFormat{Name: "finals", BestOf: 5}
)

// WinsNeeded returns ⌈BestOf/2⌉.
func (f SeriesFormat) WinsNeeded() int {
	return f.BestOf/2 + 1
}

// SeriesState is derived from the stored game log and never persisted as a counter.
type SeriesState struct {
	Team1ID      int  `json:"team1_id"`
	Team2ID      int  `json:"team2_id"`
	Team1Wins    int  `json:"team1_wins"`
	Team2Wins    int  `json:"team2_wins"`
	GamesPlayed  int  `json:"games_played"`
	Completed    bool `json:"completed"`
	WinnerTeamID *int `json:"winner_team_id,omitempty"`
}

// GameWinner returns the id of the side with strictly more kills.
func GameWinner(team1ID, team2ID, team1Kills, team2Kills int) (int, error) {
	if team1Kills < 0 || team2Kills < 0 {
		return 0, ErrNegativeKills
	}
	switch {
	case team1Kills > team2Kills:
		return team1ID, nil
	case team2Kills > team1Kills:
		return team2ID, nil
	default:
		return 0, ErrTiedGame
	}
}

// Tally recomputes the series state from its games. The winner is the first side
// to reach WinsNeeded in game-number order, so the result cannot change once set.
func (f SeriesFormat) Tally(team1ID, team2ID int, games []models.GameResult) SeriesState {
	ordered := make([]models.GameResult, len(games))
	copy(ordered, games)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].GameNumber < ordered[j].GameNumber })

	state := SeriesState{Team1ID: team1ID, Team2ID: team2ID, GamesPlayed: len(ordered)}
	need := f.WinsNeeded()

	for _, g := range ordered {
		switch g.WinnerTeamID {
		case team1ID:
			state.Team1Wins++
		case team2ID:
			state.Team2Wins++
		}
		if state.Completed {
			continue
		}
		if state.Team1Wins >= need {
			winner := team1ID
			state.WinnerTeamID = &winner
			state.Completed = true
		} else if state.Team2Wins >= need {
			winner := team2ID
			state.WinnerTeamID = &winner
			state.Completed = true
		}
	}
	return state
}

func firstFreeGameNumber(games []models.GameResult) int {
	used := make(map[int]bool, len(games))
	for _, g := range games {
		used[g.GameNumber] = true
	}
	n := 1
	for used[n] {
		n++
	}
	return n
}

// NextGameNumber validates the game number of a new submission against the current
// log. A zero requested number means "the next one".
func (f SeriesFormat) NextGameNumber(state SeriesState, games []models.GameResult, requested int) (int, error) {
	if state.Completed {
		return 0, ErrSeriesCompleted
	}
	if requested == 0 {
		requested = firstFreeGameNumber(games)
	}
	if requested < 1 || requested > f.BestOf {
		return 0, fmt.Errorf("%w: %s game %d (allowed 1..%d)", ErrInvalidGameNumber, f.Name, requested, f.BestOf)
	}
	for _, g := range games {
		if g.GameNumber == requested {
			return 0, fmt.Errorf("%w: %s game %d", ErrGameAlreadyRecorded, f.Name, requested)
		}
	}
	return requested, nil
}

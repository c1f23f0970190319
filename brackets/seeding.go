package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/killrace-tournament/models"
)

// Pairing is one seeded head-to-head: Order is the semifinal number (1 or 2),
// zero for the final.
type Pairing struct {
	Order   int
	Team1ID int
	Team2ID int
}

// RankTeams sorts teams in place by total kills (desc), matches played (asc) and id (asc).
func RankTeams(teams []models.Team) {
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].TotalKills != teams[j].TotalKills {
			return teams[i].TotalKills > teams[j].TotalKills
		}
		if teams[i].MatchesPlayed != teams[j].MatchesPlayed {
			return teams[i].MatchesPlayed < teams[j].MatchesPlayed
		}
		return teams[i].ID < teams[j].ID
	})
}

// SeedSemifinals builds the cross-group bracket: A1 vs B2 and B1 vs A2.
// Teams that are not flagged as qualified are ignored.
func SeedSemifinals(teams []models.Team) ([2]Pairing, error) {
	var groupA, groupB []models.Team
	for _, t := range teams {
		if !t.IsQualified {
			continue
		}
		switch t.GroupName {
		case models.GroupA:
			groupA = append(groupA, t)
		case models.GroupB:
			groupB = append(groupB, t)
		}
	}

	if len(groupA) < 2 || len(groupB) < 2 {
		return [2]Pairing{}, fmt.Errorf("%w: group A has %d, group B has %d (2 per group required)",
			ErrNotEnoughQualifiedTeams, len(groupA), len(groupB))
	}

	RankTeams(groupA)
	RankTeams(groupB)

	return [2]Pairing{
		{Order: 1, Team1ID: groupA[0].ID, Team2ID: groupB[1].ID},
		{Order: 2, Team1ID: groupB[0].ID, Team2ID: groupA[1].ID},
	}, nil
}

// PairFinals pairs the winners of the two semifinal series.
func PairFinals(sf1, sf2 SeriesState) (Pairing, error) {
	if !sf1.Completed || !sf2.Completed || sf1.WinnerTeamID == nil || sf2.WinnerTeamID == nil {
		return Pairing{}, ErrSemifinalsIncomplete
	}
	return Pairing{Team1ID: *sf1.WinnerTeamID, Team2ID: *sf2.WinnerTeamID}, nil
}

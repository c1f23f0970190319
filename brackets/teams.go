package brackets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/killrace-tournament/models"
)

// TeamLayout describes how many teams to build and of what size.
type TeamLayout struct {
	Teams          int `json:"teams"`
	PlayersPerTeam int `json:"players_per_team"`
	// FirstNumber is the number used in the first generated team name ("Team N").
	FirstNumber int `json:"-"`
}

var DefaultTeamLayout = TeamLayout{Teams: 10, PlayersPerTeam: 2, FirstNumber: 1}

type GeneratedTeam struct {
	Name      string
	Group     models.Group
	PlayerIDs []int
}

const generatedTeamPrefix = "Team "

// NextTeamNumber returns the number following the highest "Team N" name in names,
// so generated names never collide with surviving teams. Other names are ignored.
func NextTeamNumber(names []string) int {
	highest := 0
	for _, name := range names {
		rest, ok := strings.CutPrefix(name, generatedTeamPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// ShuffleFunc has the signature of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// GenerateTeams shuffles the unassigned players and deals them into teams.
// The first half of the teams (rounded up) goes to group A, the rest to group B.
func GenerateTeams(playerIDs []int, layout TeamLayout, shuffle ShuffleFunc) ([]GeneratedTeam, error) {
	if layout.Teams <= 0 || layout.PlayersPerTeam <= 0 {
		return nil, ErrInvalidTeamLayout
	}
	needed := layout.Teams * layout.PlayersPerTeam
	if len(playerIDs) < needed {
		return nil, fmt.Errorf("%w: need %d players for %d teams, have %d",
			ErrNotEnoughPlayers, needed, layout.Teams, len(playerIDs))
	}
	first := layout.FirstNumber
	if first <= 0 {
		first = 1
	}

	pool := make([]int, len(playerIDs))
	copy(pool, playerIDs)
	if shuffle != nil {
		shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	groupASize := (layout.Teams + 1) / 2
	teams := make([]GeneratedTeam, 0, layout.Teams)
	for i := 0; i < layout.Teams; i++ {
		group := models.GroupA
		if i >= groupASize {
			group = models.GroupB
		}
		members := make([]int, layout.PlayersPerTeam)
		copy(members, pool[i*layout.PlayersPerTeam:(i+1)*layout.PlayersPerTeam])
		teams = append(teams, GeneratedTeam{
			Name:      fmt.Sprintf("%s%d", generatedTeamPrefix, first+i),
			Group:     group,
			PlayerIDs: members,
		})
	}
	return teams, nil
}

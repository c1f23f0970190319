package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTeamsDefaultLayout(t *testing.T) {
	env := newTestEnv(false)
	for i := 0; i < 21; i++ {
		env.addPlayer("player", nil)
	}

	teams, err := env.teams.GenerateTeams(context.Background(), GenerateTeamsInput{})
	require.NoError(t, err)
	require.Len(t, teams, 10)

	groups := map[models.Group]int{}
	for _, team := range teams {
		groups[team.GroupName]++
		assert.Len(t, team.Players, 2)
	}
	assert.Equal(t, 5, groups[models.GroupA])
	assert.Equal(t, 5, groups[models.GroupB])
	assert.Equal(t, "Team 1", teams[0].TeamName)
	assert.Equal(t, "00:00", teams[0].TimePlayed)

	left, err := env.players.ListPlayers(context.Background(), ListPlayersInput{UnassignedOnly: true})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestGenerateTeamsContinuesNumbering(t *testing.T) {
	env := newTestEnv(false)
	env.addTeam("Team 1", models.GroupA, 0, 0, false)
	for i := 0; i < 4; i++ {
		env.addPlayer("player", nil)
	}

	teams, err := env.teams.GenerateTeams(context.Background(), GenerateTeamsInput{Teams: 2, PlayersPerTeam: 2})
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Team 2", teams[0].TeamName)
	assert.Equal(t, "Team 3", teams[1].TeamName)
}

func TestGenerateTeamsErrors(t *testing.T) {
	env := newTestEnv(false)
	env.addPlayer("solo", nil)
	ctx := context.Background()

	_, err := env.teams.GenerateTeams(ctx, GenerateTeamsInput{Teams: 2, PlayersPerTeam: 2})
	assert.ErrorIs(t, err, brackets.ErrNotEnoughPlayers)

	_, err = env.teams.GenerateTeams(ctx, GenerateTeamsInput{Teams: -1})
	assert.ErrorIs(t, err, ErrInvalidCount)

	env.setPhase(models.PhaseQualifier)
	_, err = env.teams.GenerateTeams(ctx, GenerateTeamsInput{Teams: 1, PlayersPerTeam: 1})
	assert.ErrorIs(t, err, brackets.ErrActionNotAllowedInPhase)
}

func TestCreateAndUpdateTeam(t *testing.T) {
	env := newTestEnv(false)
	ctx := context.Background()
	p := env.addPlayer("ace", nil)

	team, err := env.teams.CreateTeam(ctx, CreateTeamInput{TeamName: "  Alpha ", GroupName: models.GroupA, PlayerIDs: []int{p}})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", team.TeamName)
	require.Len(t, team.Players, 1)
	assert.Equal(t, p, team.Players[0].ID)

	_, err = env.teams.CreateTeam(ctx, CreateTeamInput{TeamName: "Alpha", GroupName: models.GroupB})
	assert.ErrorIs(t, err, ErrTeamNameConflict)

	_, err = env.teams.CreateTeam(ctx, CreateTeamInput{TeamName: "Bravo", GroupName: "C"})
	assert.ErrorIs(t, err, ErrInvalidGroup)

	_, err = env.teams.CreateTeam(ctx, CreateTeamInput{GroupName: models.GroupA})
	assert.ErrorIs(t, err, ErrTeamNameRequired)

	group := models.GroupB
	updated, err := env.teams.UpdateTeam(ctx, team.ID, UpdateTeamInput{GroupName: &group})
	require.NoError(t, err)
	assert.Equal(t, models.GroupB, updated.GroupName)
	assert.Equal(t, "Alpha", updated.TeamName)

	require.NoError(t, env.teams.DeleteTeam(ctx, team.ID))
	player, err := env.players.GetPlayer(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, player.TeamID)

	_, err = env.teams.GetTeam(ctx, team.ID)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestListTeamsFilters(t *testing.T) {
	env := newTestEnv(false)
	env.addTeam("A1", models.GroupA, 120, 1, true)
	env.addTeam("A2", models.GroupA, 20, 1, false)
	env.addTeam("B1", models.GroupB, 130, 1, true)

	group := models.GroupA
	teams, err := env.teams.ListTeams(context.Background(), ListTeamsInput{Group: &group})
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	teams, err = env.teams.ListTeams(context.Background(), ListTeamsInput{QualifiedOnly: true})
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	bad := models.Group("Z")
	_, err = env.teams.ListTeams(context.Background(), ListTeamsInput{Group: &bad})
	assert.ErrorIs(t, err, ErrInvalidGroup)
}

func TestUploadLogo(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without storage", func(t *testing.T) {
		env := newTestEnv(false)
		id := env.addTeam("Alpha", models.GroupA, 0, 0, false)
		_, err := env.teams.UploadLogo(ctx, id, "image/png", strings.NewReader("png"))
		assert.ErrorIs(t, err, ErrUploadsDisabled)
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		env := newTestEnv(true)
		id := env.addTeam("Alpha", models.GroupA, 0, 0, false)
		_, err := env.teams.UploadLogo(ctx, id, "application/pdf", strings.NewReader("pdf"))
		assert.ErrorIs(t, err, ErrUnsupportedLogoType)
	})

	t.Run("replaces previous logo", func(t *testing.T) {
		env := newTestEnv(true)
		id := env.addTeam("Alpha", models.GroupA, 0, 0, false)

		first, err := env.teams.UploadLogo(ctx, id, "image/png", strings.NewReader("one"))
		require.NoError(t, err)
		require.NotNil(t, first.LogoURL)
		assert.Contains(t, *first.LogoURL, "team-logos/")
		assert.True(t, strings.HasSuffix(*first.LogoKey, ".png"))

		second, err := env.teams.UploadLogo(ctx, id, "image/webp", strings.NewReader("two"))
		require.NoError(t, err)
		assert.NotEqual(t, *first.LogoKey, *second.LogoKey)
		assert.Equal(t, []string{*first.LogoKey}, env.uploader.deleted)
		assert.Len(t, env.uploader.objects, 1)
	})
}

func TestTeamEditsLockedOnceBracketExists(t *testing.T) {
	ctx := context.Background()
	group := models.GroupB

	for _, phase := range []models.PhaseName{models.PhaseSemifinals, models.PhaseFinals, models.PhaseCompleted} {
		t.Run(string(phase), func(t *testing.T) {
			env := newTestEnv(false)
			id := env.addTeam("Alpha", models.GroupA, 150, 2, true)
			env.setPhase(phase)

			_, err := env.teams.UpdateTeam(ctx, id, UpdateTeamInput{GroupName: &group})
			assert.ErrorIs(t, err, brackets.ErrActionNotAllowedInPhase)

			err = env.teams.DeleteTeam(ctx, id)
			assert.ErrorIs(t, err, brackets.ErrActionNotAllowedInPhase)

			team, err := env.teams.GetTeam(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, models.GroupA, team.GroupName)
		})
	}
}

func TestTeamEditsAllowedDuringQualifier(t *testing.T) {
	env := newTestEnv(false)
	ctx := context.Background()
	env.setPhase(models.PhaseQualifier)
	id := env.addTeam("Alpha", models.GroupA, 40, 1, false)

	name := "Alpha Squad"
	team, err := env.teams.UpdateTeam(ctx, id, UpdateTeamInput{TeamName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Squad", team.TeamName)

	require.NoError(t, env.teams.DeleteTeam(ctx, id))
}

func TestGenerateTeamsAfterDeletionAvoidsNameClash(t *testing.T) {
	env := newTestEnv(false)
	ctx := context.Background()
	env.addTeam("Team 1", models.GroupA, 0, 0, false)
	second := env.addTeam("Team 2", models.GroupA, 0, 0, false)
	env.addTeam("Team 3", models.GroupB, 0, 0, false)
	require.NoError(t, env.teams.DeleteTeam(ctx, second))
	for i := 0; i < 2; i++ {
		env.addPlayer("player", nil)
	}

	teams, err := env.teams.GenerateTeams(ctx, GenerateTeamsInput{Teams: 1, PlayersPerTeam: 2})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Team 4", teams[0].TeamName)
}

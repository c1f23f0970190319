package services

import (
	"context"
	"sync"
	"testing"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int) *int { return &v }

func TestQualifierGameQualifiesTeam(t *testing.T) {
	env := newTestEnv(false)
	env.setPhase(models.PhaseQualifier)
	teamID := env.addTeam("Alpha", models.GroupA, 0, 0, false)

	result, err := env.matches.RecordQualifierResult(context.Background(), QualifierResultInput{
		TeamID:     &teamID,
		Team1Kills: ptr(100),
		GameTime:   "12:30",
	})
	require.NoError(t, err)

	require.Len(t, result.Teams, 1)
	team := result.Teams[0]
	assert.Equal(t, 100, team.TotalKills)
	assert.Equal(t, 1, team.MatchesPlayed)
	assert.True(t, team.IsQualified)
	assert.Equal(t, "12:30", team.TimePlayed)
	assert.Equal(t, []int{teamID}, result.NewlyQualified)
	require.NotNil(t, result.Match.GameTime)
	assert.Equal(t, "12:30", *result.Match.GameTime)
	assert.True(t, env.notifier.has(EventQualifierResult))

	// повторная игра не делает команду "новой" квалифицированной
	result, err = env.matches.RecordQualifierResult(context.Background(), QualifierResultInput{
		Team1ID:    &teamID,
		Team1Kills: ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 105, result.Teams[0].TotalKills)
	assert.Empty(t, result.NewlyQualified)
}

func TestConcurrentQualifierGamesReportQualificationOnce(t *testing.T) {
	env := newTestEnv(false)
	env.setPhase(models.PhaseQualifier)
	teamID := env.addTeam("Alpha", models.GroupA, 0, 0, false)

	const games = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports int
		errs    []error
	)
	for i := 0; i < games; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.matches.RecordQualifierResult(context.Background(), QualifierResultInput{
				Team1ID:    &teamID,
				Team1Kills: ptr(20),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			reports += len(result.NewlyQualified)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, reports)
	team, err := env.teams.GetTeam(context.Background(), teamID)
	require.NoError(t, err)
	assert.Equal(t, games*20, team.TotalKills)
	assert.True(t, team.IsQualified)
}

func TestQualifierTeamKillsDefaultToPlayerSum(t *testing.T) {
	env := newTestEnv(false)
	env.setPhase(models.PhaseQualifier)
	t1 := env.addTeam("Alpha", models.GroupA, 0, 0, false)
	t2 := env.addTeam("Bravo", models.GroupA, 90, 2, false)
	p1 := env.addPlayer("ace", &t1)
	p2 := env.addPlayer("bolt", &t2)
	p3 := env.addPlayer("cobra", &t2)

	result, err := env.matches.RecordQualifierResult(context.Background(), QualifierResultInput{
		Team1ID:    &t1,
		Team2ID:    &t2,
		Team1Kills: ptr(7),
		PlayerKills: []models.PlayerKills{
			{PlayerID: p1, Kills: 4},
			{PlayerID: p2, Kills: 6},
			{PlayerID: p3, Kills: 5},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Match.Team1Kills)
	assert.Equal(t, 11, result.Match.Team2Kills)
	assert.Equal(t, []int{t2}, result.NewlyQualified)

	player, err := env.players.GetPlayer(context.Background(), p2)
	require.NoError(t, err)
	assert.Equal(t, 6, player.QualifierKills)
	assert.Equal(t, 6, player.Kills)
	assert.Equal(t, 1, player.MatchesPlayed)
}

func TestQualifierValidation(t *testing.T) {
	env := newTestEnv(false)
	env.setPhase(models.PhaseQualifier)
	t1 := env.addTeam("Alpha", models.GroupA, 0, 0, false)
	t2 := env.addTeam("Bravo", models.GroupB, 0, 0, false)
	outsider := env.addPlayer("lurker", nil)
	ctx := context.Background()

	_, err := env.matches.RecordQualifierResult(ctx, QualifierResultInput{})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.matches.RecordQualifierResult(ctx, QualifierResultInput{Team1ID: &t1, Team2ID: &t1})
	assert.ErrorIs(t, err, ErrSameTeam)

	_, err = env.matches.RecordQualifierResult(ctx, QualifierResultInput{Team1ID: &t1, Team1Kills: ptr(-3)})
	assert.ErrorIs(t, err, brackets.ErrNegativeKills)

	_, err = env.matches.RecordQualifierResult(ctx, QualifierResultInput{Team1ID: &t1, GameTime: "7:99"})
	assert.ErrorIs(t, err, ErrInvalidGameTime)

	_, err = env.matches.RecordQualifierResult(ctx, QualifierResultInput{
		Team1ID:     &t1,
		Team2ID:     &t2,
		PlayerKills: []models.PlayerKills{{PlayerID: outsider, Kills: 3}},
	})
	assert.ErrorIs(t, err, ErrPlayerNotInMatch)

	missing := 9999
	_, err = env.matches.RecordQualifierResult(ctx, QualifierResultInput{Team1ID: &missing, Team1Kills: ptr(1)})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestQualifierRejectedOutsideQualifierPhase(t *testing.T) {
	env := newTestEnv(false)
	teamID := env.addTeam("Alpha", models.GroupA, 0, 0, false)

	_, err := env.matches.RecordQualifierResult(context.Background(), QualifierResultInput{
		Team1ID:    &teamID,
		Team1Kills: ptr(10),
	})
	assert.ErrorIs(t, err, brackets.ErrActionNotAllowedInPhase)

	team, err := env.teams.GetTeam(context.Background(), teamID)
	require.NoError(t, err)
	assert.Zero(t, team.TotalKills)
}

// seededEnv: T1 150/2, T2 120/3 в группе A; T3 200/1, T4 110/4 в группе B.
func seededEnv(t *testing.T) (*testEnv, [4]int) {
	t.Helper()
	env := newTestEnv(false)
	env.setPhase(models.PhaseQualifier)
	ids := [4]int{
		env.addTeam("T1", models.GroupA, 150, 2, true),
		env.addTeam("T2", models.GroupA, 120, 3, true),
		env.addTeam("T3", models.GroupB, 200, 1, true),
		env.addTeam("T4", models.GroupB, 110, 4, true),
	}
	env.addTeam("T5", models.GroupA, 60, 3, false)
	return env, ids
}

func TestGenerateSemifinalsSeedsAndAdvancesPhase(t *testing.T) {
	env, ids := seededEnv(t)

	semis, err := env.matches.GenerateSemifinals(context.Background())
	require.NoError(t, err)
	require.Len(t, semis, 2)

	assert.Equal(t, ids[0], semis[0].Team1ID)
	assert.Equal(t, ids[3], *semis[0].Team2ID)
	assert.Equal(t, ids[2], semis[1].Team1ID)
	assert.Equal(t, ids[1], *semis[1].Team2ID)
	assert.Equal(t, models.GroupA, semis[0].Team1Group)
	assert.Equal(t, models.GroupB, semis[0].Team2Group)

	phase, err := env.phases.CurrentPhase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSemifinals, phase.PhaseName)

	_, err = env.matches.RecordSemifinalResult(context.Background(), SemifinalResultInput{
		MatchID: semis[0].ID, GameNumber: 1, Team1Kills: 12, Team2Kills: 9,
	})
	require.NoError(t, err)

	// повторная генерация в фазе полуфиналов пересоздаёт пары и стирает сыгранные игры
	again, err := env.matches.GenerateSemifinals(context.Background())
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.NotEqual(t, semis[0].ID, again[0].ID)

	listed, err := env.matches.ListSemifinals(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, sf := range listed {
		assert.Empty(t, sf.Games)
		assert.Zero(t, sf.WinsTeam1)
		assert.Zero(t, sf.WinsTeam2)
		assert.False(t, sf.Completed)
	}
}

func TestGenerateSemifinalsNeedsTwoQualifiedPerGroup(t *testing.T) {
	env := newTestEnv(false)
	env.setPhase(models.PhaseQualifier)
	env.addTeam("T1", models.GroupA, 150, 2, true)
	env.addTeam("T2", models.GroupA, 120, 3, true)
	env.addTeam("T3", models.GroupB, 200, 1, true)
	env.addTeam("T4", models.GroupB, 80, 4, false)

	_, err := env.matches.GenerateSemifinals(context.Background())
	assert.ErrorIs(t, err, brackets.ErrNotEnoughQualifiedTeams)
}

func TestSemifinalSeriesAndFinals(t *testing.T) {
	env, ids := seededEnv(t)
	ctx := context.Background()
	scorer := env.addPlayer("sniper", &ids[0])

	semis, err := env.matches.GenerateSemifinals(ctx)
	require.NoError(t, err)
	sf1, sf2 := semis[0].ID, semis[1].ID

	_, err = env.matches.RecordSemifinalResult(ctx, SemifinalResultInput{MatchID: sf1, Team1Kills: 9, Team2Kills: 9})
	assert.ErrorIs(t, err, brackets.ErrTiedGame)

	res, err := env.matches.RecordSemifinalResult(ctx, SemifinalResultInput{
		MatchID: sf1, Team1Kills: 13, Team2Kills: 10,
		PlayerKills: []models.PlayerKills{{PlayerID: scorer, Kills: 8}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Game.GameNumber)
	assert.False(t, res.Series.Completed)

	_, err = env.matches.RecordSemifinalResult(ctx, SemifinalResultInput{MatchID: sf1, GameNumber: 1, Team1Kills: 1, Team2Kills: 2})
	assert.ErrorIs(t, err, brackets.ErrGameAlreadyRecorded)

	_, err = env.matches.RecordSemifinalResult(ctx, SemifinalResultInput{MatchID: sf1, Team1Kills: 8, Team2Kills: 15})
	require.NoError(t, err)

	// финал нельзя создать, пока полуфиналы не сыграны
	_, err = env.matches.GenerateFinals(ctx)
	assert.ErrorIs(t, err, brackets.ErrSemifinalsIncomplete)

	res, err = env.matches.RecordSemifinalResult(ctx, SemifinalResultInput{MatchID: sf1, Team1Kills: 20, Team2Kills: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Series.Team1Wins)
	assert.Equal(t, 1, res.Series.Team2Wins)
	assert.True(t, res.Series.Completed)
	require.NotNil(t, res.Series.WinnerTeamID)
	assert.Equal(t, ids[0], *res.Series.WinnerTeamID)

	_, err = env.matches.RecordSemifinalResult(ctx, SemifinalResultInput{MatchID: sf1, Team1Kills: 1, Team2Kills: 30})
	assert.ErrorIs(t, err, brackets.ErrSeriesCompleted)

	for i := 0; i < 2; i++ {
		_, err = env.matches.RecordSemifinalResult(ctx, SemifinalResultInput{MatchID: sf2, Team1Kills: 4, Team2Kills: 11})
		require.NoError(t, err)
	}

	listed, err := env.matches.ListSemifinals(ctx)
	require.NoError(t, err)
	assert.Len(t, listed[0].Games, 3)
	assert.True(t, listed[1].Completed)
	assert.Equal(t, 2, listed[1].WinsTeam2)

	finals, err := env.matches.GenerateFinals(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[0], finals.Team1ID)
	assert.Equal(t, ids[1], finals.Team2ID)
	assert.Equal(t, models.FinalsScheduled, finals.Status)

	for i := 0; i < 2; i++ {
		res, err = env.matches.RecordFinalsResult(ctx, FinalsResultInput{Team1Kills: 15, Team2Kills: 3})
		require.NoError(t, err)
		assert.False(t, res.Series.Completed)
	}
	current, err := env.matches.GetFinals(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FinalsInProgress, current.Status)
	assert.Equal(t, 2, current.WinsTeam1)

	res, err = env.matches.RecordFinalsResult(ctx, FinalsResultInput{FinalsID: finals.ID, Team1Kills: 9, Team2Kills: 2})
	require.NoError(t, err)
	assert.True(t, res.Series.Completed)
	assert.Equal(t, 3, res.Series.Team1Wins)

	phase, err := env.phases.CurrentPhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCompleted, phase.PhaseName)
	assert.True(t, phase.Stats.FinalsCompleted)

	_, err = env.matches.RecordFinalsResult(ctx, FinalsResultInput{Team1Kills: 9, Team2Kills: 2})
	assert.ErrorIs(t, err, brackets.ErrActionNotAllowedInPhase)

	stats, err := env.tournament.Stats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats.Winner)
	assert.Equal(t, ids[0], stats.Winner.ID)
	require.Len(t, stats.Winner.Players, 1)
	require.Len(t, stats.SemifinalTop3, 1)
	assert.Equal(t, scorer, stats.SemifinalTop3[0].ID)
	assert.Empty(t, stats.QualifierTop3)
	assert.True(t, env.notifier.has(EventFinalsResult))
}

func TestListMatchesRejectsUnknownType(t *testing.T) {
	env := newTestEnv(false)

	_, err := env.matches.ListMatches(context.Background(), "grand_final")
	assert.ErrorIs(t, err, ErrInvalidMatchType)

	matches, err := env.matches.ListMatches(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestTeamRankingsOrdersGroup(t *testing.T) {
	env, ids := seededEnv(t)

	teams, err := env.matches.TeamRankings(context.Background(), models.GroupA)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, ids[0], teams[0].ID)
	assert.Equal(t, ids[1], teams[1].ID)

	_, err = env.matches.TeamRankings(context.Background(), "C")
	assert.ErrorIs(t, err, ErrInvalidGroup)
}

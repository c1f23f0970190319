package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/models"
	"github.com/Dosada05/killrace-tournament/repositories"
	"github.com/Dosada05/killrace-tournament/storage"
	"github.com/Dosada05/killrace-tournament/utils"
)

type MatchService interface {
	ListMatches(ctx context.Context, matchType string) ([]models.Match, error)
	RecordQualifierResult(ctx context.Context, input QualifierResultInput) (*QualifierResult, error)
	TeamRankings(ctx context.Context, group models.Group) ([]models.Team, error)
	QualifiedTeams(ctx context.Context) ([]models.Team, error)

	ListSemifinals(ctx context.Context) ([]models.SemifinalMatch, error)
	GenerateSemifinals(ctx context.Context) ([]models.SemifinalMatch, error)
	RecordSemifinalResult(ctx context.Context, input SemifinalResultInput) (*SeriesGameResult, error)

	GetFinals(ctx context.Context) (*models.Finals, error)
	GenerateFinals(ctx context.Context) (*models.Finals, error)
	RecordFinalsResult(ctx context.Context, input FinalsResultInput) (*SeriesGameResult, error)
}

// QualifierResultInput describes one qualifier game. team_id is accepted as an alias of
// team1_id; omitted team kills default to the sum of that team's player kills.
type QualifierResultInput struct {
	TeamID      *int                 `json:"team_id"`
	Team1ID     *int                 `json:"team1_id"`
	Team2ID     *int                 `json:"team2_id"`
	Team1Kills  *int                 `json:"team1_kills"`
	Team2Kills  *int                 `json:"team2_kills"`
	GameTime    string               `json:"game_time"`
	PlayerKills []models.PlayerKills `json:"player_kills"`
}

type SemifinalResultInput struct {
	MatchID     int                  `json:"match_id"`
	GameNumber  int                  `json:"game_number"`
	Team1Kills  int                  `json:"team1_kills"`
	Team2Kills  int                  `json:"team2_kills"`
	PlayerKills []models.PlayerKills `json:"player_kills"`
}

// FinalsResultInput - при FinalsID == 0 используется текущий финал.
type FinalsResultInput struct {
	FinalsID    int                  `json:"finals_id"`
	GameNumber  int                  `json:"game_number"`
	Team1Kills  int                  `json:"team1_kills"`
	Team2Kills  int                  `json:"team2_kills"`
	PlayerKills []models.PlayerKills `json:"player_kills"`
}

type QualifierResult struct {
	Match          models.Match  `json:"match"`
	Teams          []models.Team `json:"teams"`
	NewlyQualified []int         `json:"newly_qualified"`
}

type SeriesGameResult struct {
	Game   models.GameResult    `json:"game"`
	Series brackets.SeriesState `json:"series"`
}

type matchService struct {
	tx         repositories.TxRunner
	matchRepo  repositories.MatchRepository
	finalsRepo repositories.FinalsRepository
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	phaseRepo  repositories.PhaseRepository
	uploader   storage.FileUploader
	notifier   Notifier
	logger     *slog.Logger
}

func NewMatchService(
	tx repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	finalsRepo repositories.FinalsRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	phaseRepo repositories.PhaseRepository,
	uploader storage.FileUploader,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:         tx,
		matchRepo:  matchRepo,
		finalsRepo: finalsRepo,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		phaseRepo:  phaseRepo,
		uploader:   uploader,
		notifier:   notifierOrNoop(notifier),
		logger:     logger,
	}
}

func (s *matchService) ListMatches(ctx context.Context, matchType string) ([]models.Match, error) {
	var filter *models.MatchType
	if matchType != "" {
		mt := models.MatchType(matchType)
		if !mt.Valid() {
			return nil, ErrInvalidMatchType
		}
		filter = &mt
	}
	matches, err := s.matchRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return matches, nil
}

func (s *matchService) RecordQualifierResult(ctx context.Context, input QualifierResultInput) (*QualifierResult, error) {
	team1ID, err := qualifierTeam1(input)
	if err != nil {
		return nil, err
	}
	if input.Team2ID != nil && *input.Team2ID == team1ID {
		return nil, ErrSameTeam
	}
	if input.Team2ID == nil && input.Team2Kills != nil {
		return nil, fmt.Errorf("%w: team2_kills given without team2_id", ErrValidationFailed)
	}
	if err := validateKills(input.Team1Kills, input.Team2Kills, input.PlayerKills); err != nil {
		return nil, err
	}
	seconds, err := utils.ParseGameTime(input.GameTime)
	if err != nil {
		return nil, err
	}

	teamIDs := []int{team1ID}
	if input.Team2ID != nil {
		teamIDs = append(teamIDs, *input.Team2ID)
	}

	result := &QualifierResult{NewlyQualified: []int{}}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		phase, err := activePhaseName(ctx, s.phaseRepo, exec, repositories.LockForShare)
		if err != nil {
			return err
		}
		if err := brackets.CheckAction(brackets.ActionRecordQualifier, phase); err != nil {
			return err
		}

		membership, err := s.teamMembershipFor(ctx, exec, teamIDs, input.PlayerKills)
		if err != nil {
			return err
		}
		kills := map[int]int{team1ID: killsOrSum(input.Team1Kills, team1ID, membership, input.PlayerKills)}
		if input.Team2ID != nil {
			kills[*input.Team2ID] = killsOrSum(input.Team2Kills, *input.Team2ID, membership, input.PlayerKills)
		}

		// Обновляем команды в порядке возрастания id, чтобы параллельные записи не блокировали друг друга.
		ordered := append([]int(nil), teamIDs...)
		sort.Ints(ordered)
		updated := make(map[int]models.Team, len(ordered))
		for _, id := range ordered {
			after, newlyQualified, err := s.teamRepo.AddQualifierResult(ctx, exec, id, kills[id], seconds, brackets.QualificationThreshold)
			if err != nil {
				return err
			}
			if newlyQualified {
				result.NewlyQualified = append(result.NewlyQualified, id)
			}
			updated[id] = *after
		}

		match := models.Match{
			Team1ID:    team1ID,
			Team2ID:    input.Team2ID,
			Team1Kills: kills[team1ID],
			GameTime:   gameTimePtr(seconds, input.GameTime),
		}
		if input.Team2ID != nil {
			match.Team2Kills = kills[*input.Team2ID]
		}
		if err := s.matchRepo.CreateQualifier(ctx, exec, &match); err != nil {
			return err
		}
		if err := s.playerRepo.AddKills(ctx, exec, repositories.StageQualifier, input.PlayerKills); err != nil {
			return err
		}

		result.Match = match
		for _, id := range teamIDs {
			result.Teams = append(result.Teams, updated[id])
		}
		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	if err := populateTeams(ctx, s.playerRepo, s.uploader, teamPointers(result.Teams)); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "qualifier result recorded",
		slog.Int("match_id", result.Match.ID), slog.Any("newly_qualified", result.NewlyQualified))
	publish(s.notifier, EventQualifierResult, result)
	return result, nil
}

func (s *matchService) TeamRankings(ctx context.Context, group models.Group) ([]models.Team, error) {
	if !group.Valid() {
		return nil, ErrInvalidGroup
	}
	teams, err := s.teamRepo.List(ctx, nil, repositories.TeamFilter{Group: &group})
	if err != nil {
		return nil, translateRepoError(err)
	}
	brackets.RankTeams(teams)
	if err := populateTeams(ctx, s.playerRepo, s.uploader, teamPointers(teams)); err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *matchService) QualifiedTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx, nil, repositories.TeamFilter{QualifiedOnly: true})
	if err != nil {
		return nil, translateRepoError(err)
	}
	sort.SliceStable(teams, func(i, j int) bool { return teams[i].GroupName < teams[j].GroupName })
	if err := populateTeams(ctx, s.playerRepo, s.uploader, teamPointers(teams)); err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *matchService) ListSemifinals(ctx context.Context) ([]models.SemifinalMatch, error) {
	semis, err := s.loadSemifinals(ctx, nil)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return semis, nil
}

// GenerateSemifinals пересоздаёт полуфиналы (старые игры удаляются) и переводит турнир
// в фазу полуфиналов, если он ещё в квалификации.
func (s *matchService) GenerateSemifinals(ctx context.Context) ([]models.SemifinalMatch, error) {
	var semis []models.SemifinalMatch
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, phase, err := lockActivePhase(ctx, s.phaseRepo, exec, repositories.LockForUpdate)
		if err != nil {
			return err
		}
		if err := brackets.CheckAction(brackets.ActionGenerateSemifinals, phase); err != nil {
			return err
		}

		qualified, err := s.teamRepo.List(ctx, exec, repositories.TeamFilter{QualifiedOnly: true})
		if err != nil {
			return err
		}
		pairings, err := brackets.SeedSemifinals(qualified)
		if err != nil {
			return err
		}

		if phase == models.PhaseQualifier {
			counts, err := s.teamRepo.CountByGroup(ctx, exec)
			if err != nil {
				return err
			}
			snap := brackets.PhaseSnapshot{TeamsPerGroup: counts.Teams, QualifiedPerGroup: counts.Qualified}
			if err := transitionPhase(ctx, s.phaseRepo, exec, active, models.PhaseSemifinals, snap); err != nil {
				return err
			}
		}

		if err := s.finalsRepo.DeleteAll(ctx, exec); err != nil {
			return err
		}
		if err := s.matchRepo.DeleteSemifinals(ctx, exec); err != nil {
			return err
		}
		for _, p := range pairings {
			match := models.Match{Team1ID: p.Team1ID, Team2ID: intPtr(p.Team2ID), MatchOrder: intPtr(p.Order)}
			if err := s.matchRepo.CreateSemifinal(ctx, exec, &match); err != nil {
				return err
			}
		}

		semis, err = s.loadSemifinals(ctx, exec)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "semifinals generated", slog.Int("matches", len(semis)))
	publish(s.notifier, EventSemifinalsCreated, semis)
	return semis, nil
}

func (s *matchService) RecordSemifinalResult(ctx context.Context, input SemifinalResultInput) (*SeriesGameResult, error) {
	if input.MatchID <= 0 {
		return nil, fmt.Errorf("%w: match_id is required", ErrValidationFailed)
	}
	if err := validateKills(&input.Team1Kills, &input.Team2Kills, input.PlayerKills); err != nil {
		return nil, err
	}

	var result SeriesGameResult
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		phase, err := activePhaseName(ctx, s.phaseRepo, exec, repositories.LockForShare)
		if err != nil {
			return err
		}
		if err := brackets.CheckAction(brackets.ActionRecordSemifinal, phase); err != nil {
			return err
		}

		match, err := s.matchRepo.GetSemifinal(ctx, exec, input.MatchID, repositories.LockForUpdate)
		if err != nil {
			return err
		}
		if match.Team2ID == nil {
			return fmt.Errorf("semifinal %d has no second team", match.ID)
		}
		team1, team2 := match.Team1ID, *match.Team2ID

		games, err := s.matchRepo.ListSemifinalGames(ctx, exec, []int{match.ID})
		if err != nil {
			return err
		}
		game, state, err := s.appendGame(ctx, exec, brackets.SemifinalSeries, match.ID, team1, team2, games,
			input.GameNumber, input.Team1Kills, input.Team2Kills, input.PlayerKills)
		if err != nil {
			return err
		}
		if err := s.matchRepo.CreateSemifinalGame(ctx, exec, &game); err != nil {
			return err
		}
		if err := s.playerRepo.AddKills(ctx, exec, repositories.StageSemifinal, input.PlayerKills); err != nil {
			return err
		}

		result = SeriesGameResult{Game: game, Series: state(game)}
		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "semifinal game recorded",
		slog.Int("match_id", input.MatchID), slog.Int("game_number", result.Game.GameNumber),
		slog.Bool("series_completed", result.Series.Completed))
	publish(s.notifier, EventSemifinalResult, result)
	return &result, nil
}

func (s *matchService) GetFinals(ctx context.Context) (*models.Finals, error) {
	finals, err := s.finalsRepo.Get(ctx, nil, repositories.LockNone)
	if err != nil {
		return nil, translateRepoError(err)
	}
	games, err := s.finalsRepo.ListGames(ctx, nil, finals.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	applyFinalsGames(finals, games)
	return finals, nil
}

// GenerateFinals сводит победителей полуфиналов. Существующий финал удаляется вместе с играми.
func (s *matchService) GenerateFinals(ctx context.Context) (*models.Finals, error) {
	var finals *models.Finals
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, phase, err := lockActivePhase(ctx, s.phaseRepo, exec, repositories.LockForUpdate)
		if err != nil {
			return err
		}
		if err := brackets.CheckAction(brackets.ActionGenerateFinals, phase); err != nil {
			return err
		}

		semis, err := s.loadSemifinals(ctx, exec)
		if err != nil {
			return err
		}
		if len(semis) != 2 {
			return fmt.Errorf("%w: %d semifinal matches exist", brackets.ErrSemifinalsIncomplete, len(semis))
		}
		pairing, err := brackets.PairFinals(seriesOf(semis[0]), seriesOf(semis[1]))
		if err != nil {
			return err
		}

		if phase == models.PhaseSemifinals {
			snap := brackets.PhaseSnapshot{SemifinalsCompleted: completedSemifinals(semis)}
			if err := transitionPhase(ctx, s.phaseRepo, exec, active, models.PhaseFinals, snap); err != nil {
				return err
			}
		}

		if err := s.finalsRepo.DeleteAll(ctx, exec); err != nil {
			return err
		}
		created := &models.Finals{Team1ID: pairing.Team1ID, Team2ID: pairing.Team2ID, Status: models.FinalsScheduled}
		if err := s.finalsRepo.Create(ctx, exec, created); err != nil {
			return err
		}

		finals, err = s.finalsRepo.GetByID(ctx, exec, created.ID, repositories.LockNone)
		if err != nil {
			return err
		}
		applyFinalsGames(finals, nil)
		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "finals generated",
		slog.Int("finals_id", finals.ID), slog.Int("team1_id", finals.Team1ID), slog.Int("team2_id", finals.Team2ID))
	publish(s.notifier, EventFinalsCreated, finals)
	return finals, nil
}

// RecordFinalsResult записывает игру финала. Когда серия завершена, финал и турнир
// помечаются завершёнными в той же транзакции.
func (s *matchService) RecordFinalsResult(ctx context.Context, input FinalsResultInput) (*SeriesGameResult, error) {
	if input.FinalsID < 0 {
		return nil, fmt.Errorf("%w: invalid finals_id", ErrValidationFailed)
	}
	if err := validateKills(&input.Team1Kills, &input.Team2Kills, input.PlayerKills); err != nil {
		return nil, err
	}

	var result SeriesGameResult
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, phase, err := lockActivePhase(ctx, s.phaseRepo, exec, repositories.LockForUpdate)
		if err != nil {
			return err
		}
		if err := brackets.CheckAction(brackets.ActionRecordFinals, phase); err != nil {
			return err
		}

		var finals *models.Finals
		if input.FinalsID == 0 {
			finals, err = s.finalsRepo.Get(ctx, exec, repositories.LockForUpdate)
		} else {
			finals, err = s.finalsRepo.GetByID(ctx, exec, input.FinalsID, repositories.LockForUpdate)
		}
		if err != nil {
			return err
		}

		games, err := s.finalsRepo.ListGames(ctx, exec, finals.ID)
		if err != nil {
			return err
		}
		game, state, err := s.appendGame(ctx, exec, brackets.FinalsSeries, finals.ID, finals.Team1ID, finals.Team2ID, games,
			input.GameNumber, input.Team1Kills, input.Team2Kills, input.PlayerKills)
		if err != nil {
			return err
		}
		if err := s.finalsRepo.CreateGame(ctx, exec, &game); err != nil {
			return err
		}
		if err := s.playerRepo.AddKills(ctx, exec, repositories.StageFinals, input.PlayerKills); err != nil {
			return err
		}

		series := state(game)
		if series.Completed {
			if err := s.finalsRepo.UpdateStatus(ctx, exec, finals.ID, models.FinalsCompleted, series.WinnerTeamID); err != nil {
				return err
			}
			snap := brackets.PhaseSnapshot{FinalsCompleted: true}
			if err := transitionPhase(ctx, s.phaseRepo, exec, active, models.PhaseCompleted, snap); err != nil {
				return err
			}
		} else if finals.Status != models.FinalsInProgress {
			if err := s.finalsRepo.UpdateStatus(ctx, exec, finals.ID, models.FinalsInProgress, nil); err != nil {
				return err
			}
		}

		result = SeriesGameResult{Game: game, Series: series}
		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "finals game recorded",
		slog.Int("finals_id", result.Game.SeriesID), slog.Int("game_number", result.Game.GameNumber),
		slog.Bool("series_completed", result.Series.Completed))
	publish(s.notifier, EventFinalsResult, result)
	if result.Series.Completed {
		publish(s.notifier, EventPhaseChanged, map[string]models.PhaseName{"phase_name": models.PhaseCompleted})
	}
	return &result, nil
}

// appendGame validates a new game against the stored log of its series. The returned
// function yields the series state with the new game included.
func (s *matchService) appendGame(
	ctx context.Context,
	exec repositories.SQLExecutor,
	format brackets.SeriesFormat,
	seriesID, team1ID, team2ID int,
	games []models.GameResult,
	requestedNumber, team1Kills, team2Kills int,
	playerKills []models.PlayerKills,
) (models.GameResult, func(models.GameResult) brackets.SeriesState, error) {
	current := format.Tally(team1ID, team2ID, games)
	number, err := format.NextGameNumber(current, games, requestedNumber)
	if err != nil {
		return models.GameResult{}, nil, err
	}
	winner, err := brackets.GameWinner(team1ID, team2ID, team1Kills, team2Kills)
	if err != nil {
		return models.GameResult{}, nil, err
	}
	if _, err := s.teamMembershipFor(ctx, exec, []int{team1ID, team2ID}, playerKills); err != nil {
		return models.GameResult{}, nil, err
	}

	game := models.GameResult{
		SeriesID:     seriesID,
		GameNumber:   number,
		Team1Kills:   team1Kills,
		Team2Kills:   team2Kills,
		WinnerTeamID: winner,
	}
	after := func(stored models.GameResult) brackets.SeriesState {
		return format.Tally(team1ID, team2ID, append(append([]models.GameResult(nil), games...), stored))
	}
	return game, after, nil
}

// teamMembership maps player id to team id for the given teams.
func (s *matchService) teamMembership(ctx context.Context, exec repositories.SQLExecutor, teamIDs []int) (map[int]int, error) {
	players, err := s.playerRepo.ListByTeamIDs(ctx, exec, teamIDs)
	if err != nil {
		return nil, err
	}
	membership := make(map[int]int, len(players))
	for _, p := range players {
		if p.TeamID != nil {
			membership[p.ID] = *p.TeamID
		}
	}
	return membership, nil
}

func (s *matchService) teamMembershipFor(ctx context.Context, exec repositories.SQLExecutor, teamIDs []int, playerKills []models.PlayerKills) (map[int]int, error) {
	if len(playerKills) == 0 {
		return nil, nil
	}
	membership, err := s.teamMembership(ctx, exec, teamIDs)
	if err != nil {
		return nil, err
	}
	for _, pk := range playerKills {
		if _, ok := membership[pk.PlayerID]; !ok {
			return nil, fmt.Errorf("%w: player %d", ErrPlayerNotInMatch, pk.PlayerID)
		}
	}
	return membership, nil
}

func (s *matchService) loadSemifinals(ctx context.Context, exec repositories.SQLExecutor) ([]models.SemifinalMatch, error) {
	semis, err := s.matchRepo.ListSemifinals(ctx, exec)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(semis))
	for i := range semis {
		ids[i] = semis[i].ID
	}
	games, err := s.matchRepo.ListSemifinalGames(ctx, exec, ids)
	if err != nil {
		return nil, err
	}
	applySemifinalGames(semis, games)
	return semis, nil
}

func applySemifinalGames(semis []models.SemifinalMatch, games []models.GameResult) {
	byMatch := make(map[int][]models.GameResult, len(semis))
	for _, g := range games {
		byMatch[g.SeriesID] = append(byMatch[g.SeriesID], g)
	}
	for i := range semis {
		sf := &semis[i]
		sf.Games = byMatch[sf.ID]
		if sf.Games == nil {
			sf.Games = []models.GameResult{}
		}
		team2 := 0
		if sf.Team2ID != nil {
			team2 = *sf.Team2ID
		}
		state := brackets.SemifinalSeries.Tally(sf.Team1ID, team2, sf.Games)
		sf.WinsTeam1 = state.Team1Wins
		sf.WinsTeam2 = state.Team2Wins
		sf.Completed = state.Completed
		sf.WinnerTeamID = state.WinnerTeamID
	}
}

func applyFinalsGames(f *models.Finals, games []models.GameResult) {
	if games == nil {
		games = []models.GameResult{}
	}
	state := brackets.FinalsSeries.Tally(f.Team1ID, f.Team2ID, games)
	f.Games = games
	f.WinsTeam1 = state.Team1Wins
	f.WinsTeam2 = state.Team2Wins
}

func seriesOf(sf models.SemifinalMatch) brackets.SeriesState {
	team2 := 0
	if sf.Team2ID != nil {
		team2 = *sf.Team2ID
	}
	return brackets.SemifinalSeries.Tally(sf.Team1ID, team2, sf.Games)
}

func completedSemifinals(semis []models.SemifinalMatch) int {
	n := 0
	for _, sf := range semis {
		if sf.Completed {
			n++
		}
	}
	return n
}

func qualifierTeam1(input QualifierResultInput) (int, error) {
	switch {
	case input.Team1ID != nil && input.TeamID != nil && *input.Team1ID != *input.TeamID:
		return 0, fmt.Errorf("%w: team_id and team1_id differ", ErrValidationFailed)
	case input.Team1ID != nil:
		return *input.Team1ID, nil
	case input.TeamID != nil:
		return *input.TeamID, nil
	default:
		return 0, fmt.Errorf("%w: team1_id is required", ErrValidationFailed)
	}
}

func validateKills(team1, team2 *int, players []models.PlayerKills) error {
	if (team1 != nil && *team1 < 0) || (team2 != nil && *team2 < 0) {
		return brackets.ErrNegativeKills
	}
	seen := make(map[int]bool, len(players))
	for _, pk := range players {
		if pk.PlayerID <= 0 {
			return fmt.Errorf("%w: player_id is required", ErrValidationFailed)
		}
		if pk.Kills < 0 {
			return fmt.Errorf("%w: player %d", brackets.ErrNegativeKills, pk.PlayerID)
		}
		if seen[pk.PlayerID] {
			return fmt.Errorf("%w: player %d listed twice", ErrValidationFailed, pk.PlayerID)
		}
		seen[pk.PlayerID] = true
	}
	return nil
}

// killsOrSum returns the declared kills or, when absent, the sum of the team's player kills.
func killsOrSum(declared *int, teamID int, membership map[int]int, players []models.PlayerKills) int {
	if declared != nil {
		return *declared
	}
	sum := 0
	for _, pk := range players {
		if membership[pk.PlayerID] == teamID {
			sum += pk.Kills
		}
	}
	return sum
}

func gameTimePtr(seconds int, raw string) *string {
	if raw == "" {
		return nil
	}
	formatted := utils.FormatGameTime(seconds)
	return &formatted
}

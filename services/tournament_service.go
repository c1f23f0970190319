package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/models"
	"github.com/Dosada05/killrace-tournament/repositories"
	"github.com/Dosada05/killrace-tournament/storage"
	"golang.org/x/sync/errgroup"
)

const (
	statsTopN            = 3
	resetArchivePrefix   = "tournament-archives"
	tournamentDateLayout = "2006-01-02"
)

type TournamentService interface {
	GetCurrent(ctx context.Context) (*models.Tournament, error)
	CreateTournament(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error)
	QualifierRankings(ctx context.Context) ([]models.Team, error)
	CheckQualification(ctx context.Context, group models.Group) (*QualificationCheckResult, error)
	Stats(ctx context.Context) (*models.TournamentStats, error)
	Reset(ctx context.Context) (*ResetResult, error)
}

// TournamentInput используется и для создания, и для частичного обновления.
type TournamentInput struct {
	Name           *string                  `json:"name"`
	Date           *string                  `json:"date"`
	Organizer      *string                  `json:"organizer"`
	TotalPlayers   *int                     `json:"total_players"`
	PlayersPerTeam *int                     `json:"players_per_team"`
	TotalTeams     *int                     `json:"total_teams"`
	Status         *models.TournamentStatus `json:"status"`
}

type QualificationCheckResult struct {
	Group          models.Group  `json:"group"`
	NewlyQualified int           `json:"newly_qualified"`
	QualifiedTeams []models.Team `json:"qualified_teams"`
}

type ResetResult struct {
	ArchiveKey *string `json:"archive_key,omitempty"`
	ArchiveURL *string `json:"archive_url,omitempty"`
}

type tournamentService struct {
	tx             repositories.TxRunner
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	finalsRepo     repositories.FinalsRepository
	phaseRepo      repositories.PhaseRepository
	statsRepo      repositories.StatsRepository
	uploader       storage.FileUploader
	notifier       Notifier
	logger         *slog.Logger
}

func NewTournamentService(
	tx repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	finalsRepo repositories.FinalsRepository,
	phaseRepo repositories.PhaseRepository,
	statsRepo repositories.StatsRepository,
	uploader storage.FileUploader,
	notifier Notifier,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		finalsRepo:     finalsRepo,
		phaseRepo:      phaseRepo,
		statsRepo:      statsRepo,
		uploader:       uploader,
		notifier:       notifierOrNoop(notifier),
		logger:         logger,
	}
}

// GetCurrent returns the latest tournament, or nil when none has been created.
func (s *tournamentService) GetCurrent(ctx context.Context) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetLatest(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil
		}
		return nil, translateRepoError(err)
	}
	return t, nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{Status: models.StatusUpcoming}
	if err := applyTournamentInput(t, input); err != nil {
		return nil, err
	}
	if t.Name == "" {
		return nil, ErrTournamentNameRequired
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, err := s.tournamentRepo.ExistsWithStatus(ctx, exec, models.StatusActive, 0)
		if err != nil {
			return err
		}
		if active {
			return ErrTournamentAlreadyActive
		}
		return s.tournamentRepo.Create(ctx, exec, t)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.String("status", string(t.Status)))
	publish(s.notifier, EventTournamentUpdated, t)
	return t, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	var t *models.Tournament
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		t, err = s.tournamentRepo.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if err := applyTournamentInput(t, input); err != nil {
			return err
		}
		if t.Name == "" {
			return ErrTournamentNameRequired
		}
		if t.Status == models.StatusActive {
			other, err := s.tournamentRepo.ExistsWithStatus(ctx, exec, models.StatusActive, id)
			if err != nil {
				return err
			}
			if other {
				return ErrTournamentAlreadyActive
			}
		}
		return s.tournamentRepo.Update(ctx, exec, t)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	publish(s.notifier, EventTournamentUpdated, t)
	return t, nil
}

func applyTournamentInput(t *models.Tournament, input TournamentInput) error {
	if input.Name != nil {
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.Date != nil {
		date, err := parseTournamentDate(*input.Date)
		if err != nil {
			return err
		}
		t.Date = date
	}
	if input.Organizer != nil {
		t.Organizer = trimmedPtr(input.Organizer)
	}
	for _, v := range []*int{input.TotalPlayers, input.PlayersPerTeam, input.TotalTeams} {
		if v != nil && *v <= 0 {
			return ErrInvalidCount
		}
	}
	if input.TotalPlayers != nil {
		t.TotalPlayers = input.TotalPlayers
	}
	if input.PlayersPerTeam != nil {
		t.PlayersPerTeam = input.PlayersPerTeam
	}
	if input.TotalTeams != nil {
		t.TotalTeams = input.TotalTeams
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return ErrInvalidTournamentStatus
		}
		t.Status = *input.Status
	}
	return nil
}

// parseTournamentDate accepts YYYY-MM-DD or RFC 3339; an empty string clears the date.
func parseTournamentDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if d, err := time.Parse(tournamentDateLayout, raw); err == nil {
		return &d, nil
	}
	d, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	d = d.UTC().Truncate(24 * time.Hour)
	return &d, nil
}

// QualifierRankings - все команды с составами в порядке рейтинга.
func (s *tournamentService) QualifierRankings(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx, nil, repositories.TeamFilter{})
	if err != nil {
		return nil, translateRepoError(err)
	}
	brackets.RankTeams(teams)
	if err := populateTeams(ctx, s.playerRepo, s.uploader, teamPointers(teams)); err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *tournamentService) CheckQualification(ctx context.Context, group models.Group) (*QualificationCheckResult, error) {
	if !group.Valid() {
		return nil, ErrInvalidGroup
	}

	result := &QualificationCheckResult{Group: group}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		n, err := s.teamRepo.MarkQualified(ctx, exec, group, brackets.QualificationThreshold)
		if err != nil {
			return err
		}
		result.NewlyQualified = n
		result.QualifiedTeams, err = s.teamRepo.List(ctx, exec, repositories.TeamFilter{Group: &group, QualifiedOnly: true})
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	if err := populateTeams(ctx, s.playerRepo, s.uploader, teamPointers(result.QualifiedTeams)); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "qualification checked",
		slog.String("group", string(group)), slog.Int("newly_qualified", result.NewlyQualified))
	publish(s.notifier, EventQualificationCheck, result)
	return result, nil
}

// Stats собирает лидерборды параллельно.
func (s *tournamentService) Stats(ctx context.Context) (*models.TournamentStats, error) {
	stats := &models.TournamentStats{}
	var winnerID *int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.QualifierTop3, err = s.statsRepo.TopPlayers(gctx, repositories.StageQualifier, statsTopN)
		return err
	})
	g.Go(func() error {
		var err error
		stats.SemifinalTop3, err = s.statsRepo.TopPlayers(gctx, repositories.StageSemifinal, statsTopN)
		return err
	})
	g.Go(func() error {
		var err error
		stats.FinalsTop3, err = s.statsRepo.TopPlayers(gctx, repositories.StageFinals, statsTopN)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TopTeams, err = s.statsRepo.TopTeams(gctx, statsTopN)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Totals, err = s.statsRepo.Totals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		winnerID, err = s.statsRepo.FinalsWinnerID(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateRepoError(err)
	}

	if winnerID != nil {
		winner, err := s.teamRepo.GetByID(ctx, nil, *winnerID)
		if err != nil && !errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, translateRepoError(err)
		}
		if winner != nil {
			if err := populateTeams(ctx, s.playerRepo, s.uploader, []*models.Team{winner}); err != nil {
				return nil, err
			}
			stats.Winner = winner
		}
	}
	return stats, nil
}

// Reset очищает результаты турнира, сохраняя игроков. При настроенном хранилище
// перед сбросом в него выгружается снимок статистики.
func (s *tournamentService) Reset(ctx context.Context) (*ResetResult, error) {
	result := &ResetResult{}
	if s.uploader != nil {
		key, err := s.archiveStats(ctx)
		if err != nil {
			return nil, err
		}
		result.ArchiveKey = &key
		if u := s.uploader.GetPublicURL(key); u != "" {
			result.ArchiveURL = &u
		}
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.phaseRepo.GetActive(ctx, exec, repositories.LockForUpdate); err != nil &&
			!errors.Is(err, repositories.ErrNoActivePhase) {
			return err
		}
		if err := s.finalsRepo.DeleteAll(ctx, exec); err != nil {
			return err
		}
		if err := s.matchRepo.DeleteAll(ctx, exec); err != nil {
			return err
		}
		if err := s.playerRepo.ResetAll(ctx, exec); err != nil {
			return err
		}
		if err := s.teamRepo.DeleteAll(ctx, exec); err != nil {
			return err
		}
		if err := s.phaseRepo.CloseActive(ctx, exec, models.PhaseStatusCancelled); err != nil {
			return err
		}
		return s.phaseRepo.Create(ctx, exec, &models.TournamentPhase{
			PhaseName:   models.PhaseEnrollment,
			PhaseStatus: models.PhaseStatusActive,
		})
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.WarnContext(ctx, "tournament reset", slog.String("archive_key", derefString(result.ArchiveKey)))
	publish(s.notifier, EventTournamentReset, result)
	return result, nil
}

func (s *tournamentService) archiveStats(ctx context.Context) (string, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return "", err
	}
	tournament, err := s.GetCurrent(ctx)
	if err != nil {
		return "", err
	}

	snapshot := struct {
		ArchivedAt time.Time               `json:"archived_at"`
		Tournament *models.Tournament      `json:"tournament"`
		Stats      *models.TournamentStats `json:"stats"`
	}{time.Now().UTC(), tournament, stats}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode tournament archive: %w", err)
	}

	key := storage.NewObjectKey(resetArchivePrefix, ".json")
	if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return "", fmt.Errorf("failed to archive tournament before reset: %w", err)
	}
	return key, nil
}

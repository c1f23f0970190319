package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/models"
	"github.com/Dosada05/killrace-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

type PhaseService interface {
	CurrentPhase(ctx context.Context) (*models.TournamentPhase, error)
	ListPhases(ctx context.Context) ([]models.TournamentPhase, error)
	StartPhase(ctx context.Context, input StartPhaseInput) (*models.TournamentPhase, error)
	UpdatePhaseStatus(ctx context.Context, id int, input UpdatePhaseInput) (*models.TournamentPhase, error)
	DeletePhase(ctx context.Context, id int) error
}

type StartPhaseInput struct {
	PhaseName   models.PhaseName   `json:"phase_name"`
	PhaseStatus models.PhaseStatus `json:"phase_status"`
}

type UpdatePhaseInput struct {
	PhaseStatus models.PhaseStatus `json:"phase_status"`
}

type phaseService struct {
	tx         repositories.TxRunner
	phaseRepo  repositories.PhaseRepository
	teamRepo   repositories.TeamRepository
	matchRepo  repositories.MatchRepository
	finalsRepo repositories.FinalsRepository
	statsRepo  repositories.StatsRepository
	notifier   Notifier
	logger     *slog.Logger
}

func NewPhaseService(
	tx repositories.TxRunner,
	phaseRepo repositories.PhaseRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	finalsRepo repositories.FinalsRepository,
	statsRepo repositories.StatsRepository,
	notifier Notifier,
	logger *slog.Logger,
) PhaseService {
	return &phaseService{
		tx:         tx,
		phaseRepo:  phaseRepo,
		teamRepo:   teamRepo,
		matchRepo:  matchRepo,
		finalsRepo: finalsRepo,
		statsRepo:  statsRepo,
		notifier:   notifierOrNoop(notifier),
		logger:     logger,
	}
}

// CurrentPhase returns the active phase with its statistics. Without an active row the
// default phase is reported with Implicit set.
func (s *phaseService) CurrentPhase(ctx context.Context) (*models.TournamentPhase, error) {
	var (
		phase *models.TournamentPhase
		stats models.PhaseStats
		snap  brackets.PhaseSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.phaseRepo.GetActive(gctx, nil, repositories.LockNone)
		if errors.Is(err, repositories.ErrNoActivePhase) {
			phase = &models.TournamentPhase{
				PhaseName:   brackets.DefaultPhase,
				PhaseStatus: models.PhaseStatusActive,
				StartedAt:   time.Now().UTC(),
				Implicit:    true,
			}
			return nil
		}
		phase = p
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.statsRepo.PhaseCounters(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap, err = buildPhaseSnapshot(gctx, nil, s.teamRepo, s.matchRepo, s.finalsRepo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateRepoError(err)
	}

	stats.SemifinalsComplete = snap.SemifinalsCompleted
	stats.FinalsCompleted = snap.FinalsCompleted
	phase.Stats = &stats
	return phase, nil
}

func (s *phaseService) ListPhases(ctx context.Context) ([]models.TournamentPhase, error) {
	phases, err := s.phaseRepo.List(ctx, nil)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return phases, nil
}

// StartPhase переводит турнир в следующую фазу. Проверка условий, закрытие текущей
// фазы и создание новой выполняются в одной транзакции.
func (s *phaseService) StartPhase(ctx context.Context, input StartPhaseInput) (*models.TournamentPhase, error) {
	if !brackets.IsValidPhase(input.PhaseName) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhase, input.PhaseName)
	}
	if input.PhaseStatus != "" && input.PhaseStatus != models.PhaseStatusActive {
		return nil, fmt.Errorf("%w: a new phase must start as active", ErrInvalidPhaseStatus)
	}

	var started *models.TournamentPhase
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, current, err := lockActivePhase(ctx, s.phaseRepo, exec, repositories.LockForUpdate)
		if err != nil {
			return err
		}
		snap, err := buildPhaseSnapshot(ctx, exec, s.teamRepo, s.matchRepo, s.finalsRepo)
		if err != nil {
			return err
		}
		if err := brackets.ValidateTransition(current, input.PhaseName, snap); err != nil {
			return err
		}
		started, err = startPhase(ctx, s.phaseRepo, exec, active, input.PhaseName)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "phase started", slog.String("phase", string(started.PhaseName)))
	publish(s.notifier, EventPhaseChanged, started)
	return started, nil
}

// UpdatePhaseStatus - ручная правка статуса завершённой строки фазы (completed <-> cancelled).
// Активная фаза меняется только через StartPhase, поэтому активную строку нельзя закрыть,
// а старую - снова сделать активной.
func (s *phaseService) UpdatePhaseStatus(ctx context.Context, id int, input UpdatePhaseInput) (*models.TournamentPhase, error) {
	if !input.PhaseStatus.Valid() {
		return nil, ErrInvalidPhaseStatus
	}
	if input.PhaseStatus == models.PhaseStatusActive {
		return nil, fmt.Errorf("%w: phases become active only when started", ErrInvalidPhaseStatus)
	}

	var phase *models.TournamentPhase
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, _, err := lockActivePhase(ctx, s.phaseRepo, exec, repositories.LockForUpdate)
		if err != nil {
			return err
		}
		if active != nil && active.ID == id {
			return ErrActivePhaseLocked
		}
		if _, err := s.phaseRepo.GetByID(ctx, exec, id); err != nil {
			return err
		}
		phase, err = s.phaseRepo.UpdateStatus(ctx, exec, id, input.PhaseStatus)
		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "phase status updated",
		slog.Int("phase_id", id), slog.String("status", string(phase.PhaseStatus)))
	publish(s.notifier, EventPhaseChanged, phase)
	return phase, nil
}

func (s *phaseService) DeletePhase(ctx context.Context, id int) error {
	phase, err := s.phaseRepo.GetByID(ctx, nil, id)
	if err != nil {
		return translateRepoError(err)
	}
	if phase.PhaseStatus == models.PhaseStatusActive {
		return ErrCannotDeleteActivePhase
	}
	if err := s.phaseRepo.Delete(ctx, nil, id); err != nil {
		return translateRepoError(err)
	}
	return nil
}

// lockActivePhase returns the active phase row (nil when none exists) and its name,
// falling back to the default phase.
func lockActivePhase(ctx context.Context, phaseRepo repositories.PhaseRepository, exec repositories.SQLExecutor, lock repositories.LockMode) (*models.TournamentPhase, models.PhaseName, error) {
	phase, err := phaseRepo.GetActive(ctx, exec, lock)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActivePhase) {
			return nil, brackets.DefaultPhase, nil
		}
		return nil, "", err
	}
	return phase, phase.PhaseName, nil
}

// transitionPhase validates and performs the move from the active phase to to.
func transitionPhase(
	ctx context.Context,
	phaseRepo repositories.PhaseRepository,
	exec repositories.SQLExecutor,
	active *models.TournamentPhase,
	to models.PhaseName,
	snap brackets.PhaseSnapshot,
) error {
	from := brackets.DefaultPhase
	if active != nil {
		from = active.PhaseName
	}
	if err := brackets.ValidateTransition(from, to, snap); err != nil {
		return err
	}
	_, err := startPhase(ctx, phaseRepo, exec, active, to)
	return err
}

func startPhase(ctx context.Context, phaseRepo repositories.PhaseRepository, exec repositories.SQLExecutor, active *models.TournamentPhase, to models.PhaseName) (*models.TournamentPhase, error) {
	if active != nil {
		if err := phaseRepo.CloseActive(ctx, exec, models.PhaseStatusCompleted); err != nil {
			return nil, err
		}
	}
	next := &models.TournamentPhase{PhaseName: to, PhaseStatus: models.PhaseStatusActive}
	if err := phaseRepo.Create(ctx, exec, next); err != nil {
		return nil, err
	}
	return next, nil
}

func buildPhaseSnapshot(
	ctx context.Context,
	exec repositories.SQLExecutor,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	finalsRepo repositories.FinalsRepository,
) (brackets.PhaseSnapshot, error) {
	counts, err := teamRepo.CountByGroup(ctx, exec)
	if err != nil {
		return brackets.PhaseSnapshot{}, err
	}
	snap := brackets.PhaseSnapshot{TeamsPerGroup: counts.Teams, QualifiedPerGroup: counts.Qualified}

	semis, err := matchRepo.ListSemifinals(ctx, exec)
	if err != nil {
		return snap, err
	}
	ids := make([]int, len(semis))
	for i := range semis {
		ids[i] = semis[i].ID
	}
	games, err := matchRepo.ListSemifinalGames(ctx, exec, ids)
	if err != nil {
		return snap, err
	}
	applySemifinalGames(semis, games)
	snap.SemifinalsCompleted = completedSemifinals(semis)

	finals, err := finalsRepo.Get(ctx, exec, repositories.LockNone)
	switch {
	case errors.Is(err, repositories.ErrFinalsNotFound):
	case err != nil:
		return snap, err
	default:
		finalsGames, err := finalsRepo.ListGames(ctx, exec, finals.ID)
		if err != nil {
			return snap, err
		}
		snap.FinalsCompleted = brackets.FinalsSeries.Tally(finals.Team1ID, finals.Team2ID, finalsGames).Completed
	}
	return snap, nil
}

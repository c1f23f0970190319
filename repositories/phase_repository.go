package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/killrace-tournament/models"
)

var (
	ErrPhaseNotFound       = errors.New("phase not found")
	ErrNoActivePhase       = errors.New("no active phase")
	ErrActivePhaseConflict = errors.New("another phase is already active")
)

type PhaseRepository interface {
	GetActive(ctx context.Context, exec SQLExecutor, lock LockMode) (*models.TournamentPhase, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentPhase, error)
	List(ctx context.Context, exec SQLExecutor) ([]models.TournamentPhase, error)
	Create(ctx context.Context, exec SQLExecutor, phase *models.TournamentPhase) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.PhaseStatus) (*models.TournamentPhase, error)
	CloseActive(ctx context.Context, exec SQLExecutor, status models.PhaseStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresPhaseRepository struct {
	db *sql.DB
}

func NewPostgresPhaseRepository(db *sql.DB) PhaseRepository {
	return &postgresPhaseRepository{db: db}
}

func (r *postgresPhaseRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

var phaseConstraintErrors = map[string]error{
	"tournament_phases_one_active": ErrActivePhaseConflict,
}

const phaseColumns = `id, phase_name, phase_status, started_at, ended_at`

func scanPhase(row rowScanner, p *models.TournamentPhase) error {
	var endedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.PhaseName, &p.PhaseStatus, &p.StartedAt, &endedAt); err != nil {
		return err
	}
	p.EndedAt = nil
	if endedAt.Valid {
		t := endedAt.Time
		p.EndedAt = &t
	}
	return nil
}

// GetActive возвращает активную фазу. LockForShare используется при записи результатов,
// LockForUpdate - при смене фазы, чтобы эти операции не перемежались.
func (r *postgresPhaseRepository) GetActive(ctx context.Context, exec SQLExecutor, lock LockMode) (*models.TournamentPhase, error) {
	query := `
		SELECT ` + phaseColumns + `
		FROM tournament_phases
		WHERE phase_status = 'active'
		ORDER BY started_at DESC
		LIMIT 1` + lock.clause()

	var p models.TournamentPhase
	if err := scanPhase(r.getExecutor(exec).QueryRowContext(ctx, query), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActivePhase
		}
		return nil, fmt.Errorf("failed to get active phase: %w", err)
	}
	return &p, nil
}

func (r *postgresPhaseRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentPhase, error) {
	var p models.TournamentPhase
	err := scanPhase(r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT `+phaseColumns+` FROM tournament_phases WHERE id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("failed to get phase %d: %w", id, err)
	}
	return &p, nil
}

func (r *postgresPhaseRepository) List(ctx context.Context, exec SQLExecutor) ([]models.TournamentPhase, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx,
		`SELECT `+phaseColumns+` FROM tournament_phases ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query phases: %w", err)
	}
	defer rows.Close()

	phases := make([]models.TournamentPhase, 0)
	for rows.Next() {
		var p models.TournamentPhase
		if err := scanPhase(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating phases: %w", err)
	}
	return phases, nil
}

func (r *postgresPhaseRepository) Create(ctx context.Context, exec SQLExecutor, phase *models.TournamentPhase) error {
	if phase.PhaseStatus == "" {
		phase.PhaseStatus = models.PhaseStatusActive
	}
	query := `
		INSERT INTO tournament_phases (phase_name, phase_status)
		VALUES ($1, $2)
		RETURNING ` + phaseColumns

	err := scanPhase(r.getExecutor(exec).QueryRowContext(ctx, query, phase.PhaseName, phase.PhaseStatus), phase)
	if err != nil {
		return mapConstraintError(err, phaseConstraintErrors)
	}
	return nil
}

func (r *postgresPhaseRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.PhaseStatus) (*models.TournamentPhase, error) {
	query := `
		UPDATE tournament_phases SET
			phase_status = $1,
			ended_at = CASE WHEN $1 = 'active' THEN NULL ELSE COALESCE(ended_at, NOW()) END
		WHERE id = $2
		RETURNING ` + phaseColumns

	var p models.TournamentPhase
	if err := scanPhase(r.getExecutor(exec).QueryRowContext(ctx, query, status, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhaseNotFound
		}
		return nil, mapConstraintError(err, phaseConstraintErrors)
	}
	return &p, nil
}

// CloseActive закрывает активную фазу (если она есть) с указанным статусом.
func (r *postgresPhaseRepository) CloseActive(ctx context.Context, exec SQLExecutor, status models.PhaseStatus) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `
		UPDATE tournament_phases SET phase_status = $1, ended_at = NOW()
		WHERE phase_status = 'active'`, status)
	if err != nil {
		return fmt.Errorf("failed to close active phase: %w", err)
	}
	return nil
}

// Delete refuses to remove the active phase.
func (r *postgresPhaseRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM tournament_phases WHERE id = $1 AND phase_status <> 'active'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete phase %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPhaseNotFound)
}

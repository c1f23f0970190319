package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/killrace-tournament/models"
)

var (
	ErrFinalsNotFound     = errors.New("finals not found")
	ErrFinalsAlreadyExist = errors.New("finals already exist")
	ErrFinalsGameConflict = errors.New("finals game already recorded")
	ErrFinalsTeamInvalid  = errors.New("finals team does not exist")
)

type FinalsRepository interface {
	Get(ctx context.Context, exec SQLExecutor, lock LockMode) (*models.Finals, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int, lock LockMode) (*models.Finals, error)
	Create(ctx context.Context, exec SQLExecutor, finals *models.Finals) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.FinalsStatus, winnerTeamID *int) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error

	CreateGame(ctx context.Context, exec SQLExecutor, game *models.GameResult) error
	ListGames(ctx context.Context, exec SQLExecutor, finalsID int) ([]models.GameResult, error)
}

type postgresFinalsRepository struct {
	db *sql.DB
}

func NewPostgresFinalsRepository(db *sql.DB) FinalsRepository {
	return &postgresFinalsRepository{db: db}
}

func (r *postgresFinalsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

var finalsConstraintErrors = map[string]error{
	"finals_single_row":                ErrFinalsAlreadyExist,
	"finals_team1_id_fkey":             ErrFinalsTeamInvalid,
	"finals_team2_id_fkey":             ErrFinalsTeamInvalid,
	"finals_games_finals_game_key":     ErrFinalsGameConflict,
	"finals_games_finals_id_fkey":      ErrFinalsNotFound,
	"finals_games_winner_team_id_fkey": ErrFinalsTeamInvalid,
}

// Имена команд подтягиваются подзапросами, т.к. FOR UPDATE нельзя применить к nullable стороне LEFT JOIN.
const finalsSelect = `
	SELECT f.id, f.team1_id, f.team2_id, f.status, f.winner_team_id, f.created_at, f.completed_at,
	       COALESCE((SELECT team_name FROM teams WHERE id = f.team1_id), ''),
	       COALESCE((SELECT team_name FROM teams WHERE id = f.team2_id), '')
	FROM finals f`

func scanFinals(row rowScanner, f *models.Finals) error {
	var (
		winner      sql.NullInt64
		completedAt sql.NullTime
	)
	err := row.Scan(&f.ID, &f.Team1ID, &f.Team2ID, &f.Status, &winner, &f.CreatedAt, &completedAt,
		&f.Team1Name, &f.Team2Name)
	if err != nil {
		return err
	}
	f.WinnerTeamID = nullIntPtr(winner)
	f.CompletedAt = nil
	if completedAt.Valid {
		t := completedAt.Time
		f.CompletedAt = &t
	}
	return nil
}

// Get returns the single finals row of the tournament.
func (r *postgresFinalsRepository) Get(ctx context.Context, exec SQLExecutor, lock LockMode) (*models.Finals, error) {
	query := finalsSelect + ` ORDER BY f.id DESC LIMIT 1` + lock.clause()

	var f models.Finals
	if err := scanFinals(r.getExecutor(exec).QueryRowContext(ctx, query), &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFinalsNotFound
		}
		return nil, fmt.Errorf("failed to get finals: %w", err)
	}
	return &f, nil
}

func (r *postgresFinalsRepository) GetByID(ctx context.Context, exec SQLExecutor, id int, lock LockMode) (*models.Finals, error) {
	query := finalsSelect + ` WHERE f.id = $1` + lock.clause()

	var f models.Finals
	if err := scanFinals(r.getExecutor(exec).QueryRowContext(ctx, query, id), &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFinalsNotFound
		}
		return nil, fmt.Errorf("failed to get finals %d: %w", id, err)
	}
	return &f, nil
}

func (r *postgresFinalsRepository) Create(ctx context.Context, exec SQLExecutor, finals *models.Finals) error {
	if finals.Status == "" {
		finals.Status = models.FinalsScheduled
	}
	query := `
		INSERT INTO finals (team1_id, team2_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, finals.Team1ID, finals.Team2ID, finals.Status).
		Scan(&finals.ID, &finals.CreatedAt)
	if err != nil {
		return mapConstraintError(err, finalsConstraintErrors)
	}
	return nil
}

func (r *postgresFinalsRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.FinalsStatus, winnerTeamID *int) error {
	query := `
		UPDATE finals SET
			status = $1,
			winner_team_id = $2,
			completed_at = CASE WHEN $1 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE NULL END
		WHERE id = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, winnerTeamID, id)
	if err != nil {
		return mapConstraintError(err, finalsConstraintErrors)
	}
	return checkAffectedRows(result, ErrFinalsNotFound)
}

func (r *postgresFinalsRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM finals_games`); err != nil {
		return fmt.Errorf("failed to delete finals games: %w", err)
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM finals`); err != nil {
		return fmt.Errorf("failed to delete finals: %w", err)
	}
	return nil
}

func (r *postgresFinalsRepository) CreateGame(ctx context.Context, exec SQLExecutor, game *models.GameResult) error {
	query := `
		INSERT INTO finals_games (finals_id, game_number, team1_kills, team2_kills, winner_team_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		game.SeriesID, game.GameNumber, game.Team1Kills, game.Team2Kills, game.WinnerTeamID,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return mapConstraintError(err, finalsConstraintErrors)
	}
	return nil
}

func (r *postgresFinalsRepository) ListGames(ctx context.Context, exec SQLExecutor, finalsID int) ([]models.GameResult, error) {
	query := `
		SELECT id, finals_id, game_number, team1_kills, team2_kills, winner_team_id, created_at
		FROM finals_games
		WHERE finals_id = $1
		ORDER BY game_number`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, finalsID)
	if err != nil {
		return nil, fmt.Errorf("failed to query finals games: %w", err)
	}
	defer rows.Close()

	games := make([]models.GameResult, 0)
	for rows.Next() {
		var g models.GameResult
		if err := rows.Scan(&g.ID, &g.SeriesID, &g.GameNumber, &g.Team1Kills, &g.Team2Kills, &g.WinnerTeamID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finals game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating finals games: %w", err)
	}
	return games, nil
}

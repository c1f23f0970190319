package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/killrace-tournament/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetLatest(ctx context.Context, exec SQLExecutor) (*models.Tournament, error)
	ExistsWithStatus(ctx context.Context, exec SQLExecutor, status models.TournamentStatus, excludeID int) (bool, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, date, organizer, total_players, players_per_team, total_teams, status, created_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	var (
		date           sql.NullTime
		organizer      sql.NullString
		totalPlayers   sql.NullInt64
		playersPerTeam sql.NullInt64
		totalTeams     sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Name, &date, &organizer, &totalPlayers, &playersPerTeam, &totalTeams,
		&t.Status, &t.CreatedAt)
	if err != nil {
		return err
	}
	t.Date = nil
	if date.Valid {
		d := date.Time
		t.Date = &d
	}
	t.Organizer = nullStringPtr(organizer)
	t.TotalPlayers = nullIntPtr(totalPlayers)
	t.PlayersPerTeam = nullIntPtr(playersPerTeam)
	t.TotalTeams = nullIntPtr(totalTeams)
	return nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournament (name, date, organizer, total_players, players_per_team, total_teams, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + tournamentColumns

	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query,
		tournament.Name, tournament.Date, tournament.Organizer, tournament.TotalPlayers,
		tournament.PlayersPerTeam, tournament.TotalTeams, tournament.Status,
	), tournament)
	if err != nil {
		return mapConstraintError(err, nil)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	var t models.Tournament
	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT `+tournamentColumns+` FROM tournament WHERE id = $1`, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return &t, nil
}

// GetLatest returns the most recently created tournament.
func (r *postgresTournamentRepository) GetLatest(ctx context.Context, exec SQLExecutor) (*models.Tournament, error) {
	var t models.Tournament
	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT `+tournamentColumns+` FROM tournament ORDER BY created_at DESC, id DESC LIMIT 1`), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get latest tournament: %w", err)
	}
	return &t, nil
}

func (r *postgresTournamentRepository) ExistsWithStatus(ctx context.Context, exec SQLExecutor, status models.TournamentStatus, excludeID int) (bool, error) {
	var exists bool
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tournament WHERE status = $1 AND id <> $2)`, status, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tournament status: %w", err)
	}
	return exists, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	query := `
		UPDATE tournament SET
			name = $1,
			date = $2,
			organizer = $3,
			total_players = $4,
			players_per_team = $5,
			total_teams = $6,
			status = $7
		WHERE id = $8
		RETURNING ` + tournamentColumns

	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query,
		tournament.Name, tournament.Date, tournament.Organizer, tournament.TotalPlayers,
		tournament.PlayersPerTeam, tournament.TotalTeams, tournament.Status, tournament.ID,
	), tournament)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return mapConstraintError(err, nil)
	}
	return nil
}

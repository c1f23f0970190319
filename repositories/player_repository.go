package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/killrace-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerTeamInvalid = errors.New("player team does not exist")
)

// KillStage selects the stage-specific kill counter updated together with the total.
type KillStage string

const (
	StageQualifier KillStage = "qualifier"
	StageSemifinal KillStage = "semifinal"
	StageFinals    KillStage = "finals"
)

var stageKillColumns = map[KillStage]string{
	StageQualifier: "qualifier_kills",
	StageSemifinal: "semifinal_kills",
	StageFinals:    "finals_kills",
}

type PlayerFilter struct {
	UnassignedOnly bool
	TeamID         *int
}

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	List(ctx context.Context, exec SQLExecutor, filter PlayerFilter) ([]models.Player, error)
	ListByTeamIDs(ctx context.Context, exec SQLExecutor, teamIDs []int) ([]models.Player, error)
	ListUnassignedIDs(ctx context.Context, exec SQLExecutor) ([]int, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	AssignTeam(ctx context.Context, exec SQLExecutor, teamID int, playerIDs []int) error
	AddKills(ctx context.Context, exec SQLExecutor, stage KillStage, deltas []models.PlayerKills) error
	ResetAll(ctx context.Context, exec SQLExecutor) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

var playerConstraintErrors = map[string]error{
	"players_team_id_fkey": ErrPlayerTeamInvalid,
}

const playerColumns = `id, name, team_id, kills, qualifier_kills, semifinal_kills, finals_kills, matches_played, created_at`

func scanPlayer(row rowScanner, p *models.Player) error {
	var teamID sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &teamID, &p.Kills, &p.QualifierKills, &p.SemifinalKills,
		&p.FinalsKills, &p.MatchesPlayed, &p.CreatedAt)
	if err != nil {
		return err
	}
	p.TeamID = nil
	if teamID.Valid {
		id := int(teamID.Int64)
		p.TeamID = &id
	}
	return nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (name, team_id)
		VALUES ($1, $2)
		RETURNING ` + playerColumns

	err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, player.Name, player.TeamID), player)
	if err != nil {
		return mapConstraintError(err, playerConstraintErrors)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	var p models.Player
	if err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return &p, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, exec SQLExecutor, filter PlayerFilter) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE 1=1`
	var args []interface{}
	if filter.UnassignedOnly {
		query += ` AND team_id IS NULL`
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		query += fmt.Sprintf(` AND team_id = $%d`, len(args))
	}
	query += ` ORDER BY name ASC, id ASC`

	return r.queryPlayers(ctx, exec, query, args...)
}

func (r *postgresPlayerRepository) ListByTeamIDs(ctx context.Context, exec SQLExecutor, teamIDs []int) ([]models.Player, error) {
	if len(teamIDs) == 0 {
		return []models.Player{}, nil
	}
	query := `SELECT ` + playerColumns + ` FROM players WHERE team_id = ANY($1) ORDER BY team_id, kills DESC, id`
	return r.queryPlayers(ctx, exec, query, pq.Array(teamIDs))
}

func (r *postgresPlayerRepository) queryPlayers(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

// ListUnassignedIDs блокирует свободных игроков до конца транзакции.
func (r *postgresPlayerRepository) ListUnassignedIDs(ctx context.Context, exec SQLExecutor) ([]int, error) {
	query := `SELECT id FROM players WHERE team_id IS NULL ORDER BY id FOR UPDATE`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unassigned players: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		UPDATE players SET name = $1, team_id = $2
		WHERE id = $3
		RETURNING ` + playerColumns

	err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, player.Name, player.TeamID, player.ID), player)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		return mapConstraintError(err, playerConstraintErrors)
	}
	return nil
}

// Delete removes the player only while it is not assigned to a team.
func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM players WHERE id = $1 AND team_id IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) AssignTeam(ctx context.Context, exec SQLExecutor, teamID int, playerIDs []int) error {
	if len(playerIDs) == 0 {
		return nil
	}
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE players SET team_id = $1 WHERE id = ANY($2)`, teamID, pq.Array(playerIDs))
	if err != nil {
		return mapConstraintError(err, playerConstraintErrors)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if int(affected) != len(playerIDs) {
		return fmt.Errorf("%w: assigned %d of %d players", ErrPlayerNotFound, affected, len(playerIDs))
	}
	return nil
}

// AddKills увеличивает счётчики игроков одним UPDATE на игрока, без чтения старых значений.
func (r *postgresPlayerRepository) AddKills(ctx context.Context, exec SQLExecutor, stage KillStage, deltas []models.PlayerKills) error {
	column, ok := stageKillColumns[stage]
	if !ok {
		return fmt.Errorf("unknown kill stage %q", stage)
	}
	query := fmt.Sprintf(`
		UPDATE players SET
			kills = kills + $1,
			%[1]s = %[1]s + $1,
			matches_played = matches_played + 1
		WHERE id = $2`, column)

	executor := r.getExecutor(exec)
	for _, d := range deltas {
		result, err := executor.ExecContext(ctx, query, d.Kills, d.PlayerID)
		if err != nil {
			return mapConstraintError(err, playerConstraintErrors)
		}
		if err := checkAffectedRows(result, fmt.Errorf("%w: id %d", ErrPlayerNotFound, d.PlayerID)); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresPlayerRepository) ResetAll(ctx context.Context, exec SQLExecutor) error {
	query := `
		UPDATE players SET
			team_id = NULL,
			kills = 0,
			qualifier_kills = 0,
			semifinal_kills = 0,
			finals_kills = 0,
			matches_played = 0`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset players: %w", err)
	}
	return nil
}

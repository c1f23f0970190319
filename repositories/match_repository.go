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
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchTeamInvalid      = errors.New("match team does not exist")
	ErrSemifinalOrderTaken   = errors.New("semifinal with this order already exists")
	ErrSemifinalGameConflict = errors.New("semifinal game already recorded")
)

type MatchRepository interface {
	CreateQualifier(ctx context.Context, exec SQLExecutor, match *models.Match) error
	List(ctx context.Context, exec SQLExecutor, matchType *models.MatchType) ([]models.Match, error)

	CreateSemifinal(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetSemifinal(ctx context.Context, exec SQLExecutor, id int, lock LockMode) (*models.Match, error)
	ListSemifinals(ctx context.Context, exec SQLExecutor) ([]models.SemifinalMatch, error)
	DeleteSemifinals(ctx context.Context, exec SQLExecutor) error

	CreateSemifinalGame(ctx context.Context, exec SQLExecutor, game *models.GameResult) error
	ListSemifinalGames(ctx context.Context, exec SQLExecutor, matchIDs []int) ([]models.GameResult, error)

	DeleteAll(ctx context.Context, exec SQLExecutor) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

var matchConstraintErrors = map[string]error{
	"matches_team1_id_fkey":                 ErrMatchTeamInvalid,
	"matches_team2_id_fkey":                 ErrMatchTeamInvalid,
	"matches_semifinal_order_key":           ErrSemifinalOrderTaken,
	"semifinal_results_match_game_key":      ErrSemifinalGameConflict,
	"semifinal_results_match_id_fkey":       ErrMatchNotFound,
	"semifinal_results_winner_team_id_fkey": ErrMatchTeamInvalid,
}

const matchSelect = `
	SELECT m.id, m.team1_id, m.team2_id, m.team1_kills, m.team2_kills, m.game_time,
	       m.match_type, m.match_order, m.created_at,
	       t1.team_name, t2.team_name, t1.group_name
	FROM matches m
	LEFT JOIN teams t1 ON t1.id = m.team1_id
	LEFT JOIN teams t2 ON t2.id = m.team2_id`

func scanMatch(row rowScanner, m *models.Match) error {
	var (
		team2ID    sql.NullInt64
		matchOrder sql.NullInt64
		gameTime   sql.NullString
		team1Name  sql.NullString
		team2Name  sql.NullString
		groupName  sql.NullString
	)
	err := row.Scan(&m.ID, &m.Team1ID, &team2ID, &m.Team1Kills, &m.Team2Kills, &gameTime,
		&m.MatchType, &matchOrder, &m.CreatedAt, &team1Name, &team2Name, &groupName)
	if err != nil {
		return err
	}
	m.Team2ID = nullIntPtr(team2ID)
	m.MatchOrder = nullIntPtr(matchOrder)
	m.GameTime = nullStringPtr(gameTime)
	m.Team1Name = nullStringPtr(team1Name)
	m.Team2Name = nullStringPtr(team2Name)
	m.GroupName = nullStringPtr(groupName)
	return nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func (r *postgresMatchRepository) CreateQualifier(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	match.MatchType = models.MatchTypeQualifier
	query := `
		INSERT INTO matches (team1_id, team2_id, team1_kills, team2_kills, game_time, match_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.Team1ID, match.Team2ID, match.Team1Kills, match.Team2Kills, match.GameTime, match.MatchType,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return mapConstraintError(err, matchConstraintErrors)
	}
	return nil
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor, matchType *models.MatchType) ([]models.Match, error) {
	query := matchSelect
	var args []interface{}
	if matchType != nil {
		args = append(args, *matchType)
		query += ` WHERE m.match_type = $1`
	}
	query += ` ORDER BY m.created_at DESC, m.id DESC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := scanMatch(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CreateSemifinal(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	match.MatchType = models.MatchTypeSemifinal
	query := `
		INSERT INTO matches (team1_id, team2_id, match_type, match_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.Team1ID, match.Team2ID, match.MatchType, match.MatchOrder,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return mapConstraintError(err, matchConstraintErrors)
	}
	return nil
}

// GetSemifinal reads one semifinal; LockForUpdate serialises game submissions for the series.
func (r *postgresMatchRepository) GetSemifinal(ctx context.Context, exec SQLExecutor, id int, lock LockMode) (*models.Match, error) {
	query := `
		SELECT id, team1_id, team2_id, team1_kills, team2_kills, game_time,
		       match_type, match_order, created_at, NULL, NULL, NULL
		FROM matches
		WHERE id = $1 AND match_type = 'semifinal'` + lock.clause()

	var m models.Match
	if err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get semifinal %d: %w", id, err)
	}
	return &m, nil
}

func (r *postgresMatchRepository) ListSemifinals(ctx context.Context, exec SQLExecutor) ([]models.SemifinalMatch, error) {
	query := `
		SELECT m.id, m.team1_id, m.team2_id, m.team1_kills, m.team2_kills, m.game_time,
		       m.match_type, m.match_order, m.created_at,
		       t1.team_name, t2.team_name, t1.group_name, t2.group_name
		FROM matches m
		JOIN teams t1 ON t1.id = m.team1_id
		JOIN teams t2 ON t2.id = m.team2_id
		WHERE m.match_type = 'semifinal'
		ORDER BY m.match_order`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query semifinals: %w", err)
	}
	defer rows.Close()

	semis := make([]models.SemifinalMatch, 0, 2)
	for rows.Next() {
		var (
			sf         models.SemifinalMatch
			team2ID    sql.NullInt64
			matchOrder sql.NullInt64
			gameTime   sql.NullString
			team1Name  string
			team2Name  string
		)
		err := rows.Scan(&sf.ID, &sf.Team1ID, &team2ID, &sf.Team1Kills, &sf.Team2Kills, &gameTime,
			&sf.MatchType, &matchOrder, &sf.CreatedAt, &team1Name, &team2Name, &sf.Team1Group, &sf.Team2Group)
		if err != nil {
			return nil, fmt.Errorf("failed to scan semifinal: %w", err)
		}
		sf.Team2ID = nullIntPtr(team2ID)
		sf.MatchOrder = nullIntPtr(matchOrder)
		sf.GameTime = nullStringPtr(gameTime)
		sf.Team1Name = &team1Name
		sf.Team2Name = &team2Name
		semis = append(semis, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating semifinals: %w", err)
	}
	return semis, nil
}

// DeleteSemifinals удаляет полуфиналы; результаты игр удаляются каскадно.
func (r *postgresMatchRepository) DeleteSemifinals(ctx context.Context, exec SQLExecutor) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE match_type = 'semifinal'`); err != nil {
		return fmt.Errorf("failed to delete semifinals: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) CreateSemifinalGame(ctx context.Context, exec SQLExecutor, game *models.GameResult) error {
	query := `
		INSERT INTO semifinal_results (match_id, game_number, team1_kills, team2_kills, winner_team_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		game.SeriesID, game.GameNumber, game.Team1Kills, game.Team2Kills, game.WinnerTeamID,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return mapConstraintError(err, matchConstraintErrors)
	}
	return nil
}

func (r *postgresMatchRepository) ListSemifinalGames(ctx context.Context, exec SQLExecutor, matchIDs []int) ([]models.GameResult, error) {
	games := make([]models.GameResult, 0)
	if len(matchIDs) == 0 {
		return games, nil
	}
	query := `
		SELECT id, match_id, game_number, team1_kills, team2_kills, winner_team_id, created_at
		FROM semifinal_results
		WHERE match_id = ANY($1)
		ORDER BY match_id, game_number`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query semifinal games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.GameResult
		if err := rows.Scan(&g.ID, &g.SeriesID, &g.GameNumber, &g.Team1Kills, &g.Team2Kills, &g.WinnerTeamID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan semifinal game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating semifinal games: %w", err)
	}
	return games, nil
}

func (r *postgresMatchRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM semifinal_results`); err != nil {
		return fmt.Errorf("failed to delete semifinal results: %w", err)
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM matches`); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	return nil
}

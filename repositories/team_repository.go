package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/killrace-tournament/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name conflict")
)

type TeamFilter struct {
	Group         *models.Group
	QualifiedOnly bool
}

// GroupCounts holds per-group team totals used by phase preconditions.
type GroupCounts struct {
	Teams     map[models.Group]int
	Qualified map[models.Group]int
}

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	List(ctx context.Context, exec SQLExecutor, filter TeamFilter) ([]models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
	AddQualifierResult(ctx context.Context, exec SQLExecutor, teamID, kills, seconds, threshold int) (*models.Team, bool, error)
	MarkQualified(ctx context.Context, exec SQLExecutor, group models.Group, threshold int) (int, error)
	CountByGroup(ctx context.Context, exec SQLExecutor) (GroupCounts, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

var teamConstraintErrors = map[string]error{
	"teams_team_name_key": ErrTeamNameConflict,
}

const teamColumns = `id, team_name, group_name, total_kills, matches_played, is_qualified, time_played_seconds, logo_key, created_at`

func scanTeam(row rowScanner, t *models.Team) error {
	var logoKey sql.NullString
	err := row.Scan(&t.ID, &t.TeamName, &t.GroupName, &t.TotalKills, &t.MatchesPlayed,
		&t.IsQualified, &t.TimePlayedSeconds, &logoKey, &t.CreatedAt)
	if err != nil {
		return err
	}
	t.LogoKey = nil
	if logoKey.Valid {
		t.LogoKey = &logoKey.String
	}
	return nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (team_name, group_name)
		VALUES ($1, $2)
		RETURNING ` + teamColumns

	err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, team.TeamName, team.GroupName), team)
	if err != nil {
		return mapConstraintError(err, teamConstraintErrors)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	var t models.Team
	if err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id), &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return &t, nil
}

// List returns teams in ranking order: kills desc, matches asc, id asc.
func (r *postgresTeamRepository) List(ctx context.Context, exec SQLExecutor, filter TeamFilter) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE 1=1`
	var args []interface{}
	if filter.Group != nil {
		args = append(args, *filter.Group)
		query += fmt.Sprintf(` AND group_name = $%d`, len(args))
	}
	if filter.QualifiedOnly {
		query += ` AND is_qualified`
	}
	query += ` ORDER BY total_kills DESC, matches_played ASC, id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := scanTeam(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		UPDATE teams SET team_name = $1, group_name = $2
		WHERE id = $3
		RETURNING ` + teamColumns

	err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, team.TeamName, team.GroupName, team.ID), team)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		return mapConstraintError(err, teamConstraintErrors)
	}
	return nil
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE teams SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update logo for team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams`); err != nil {
		return fmt.Errorf("failed to delete teams: %w", err)
	}
	return nil
}

// AddQualifierResult начисляет очки одной инструкцией UPDATE. В правой части SET
// total_kills - значение до обновления, поэтому флаг квалификации считается от новой суммы
// и никогда не сбрасывается. Второе значение - true, если команда квалифицировалась
// именно этим обновлением; прежний флаг читается под FOR UPDATE.
func (r *postgresTeamRepository) AddQualifierResult(ctx context.Context, exec SQLExecutor, teamID, kills, seconds, threshold int) (*models.Team, bool, error) {
	query := `
		WITH prev AS (
			SELECT id, is_qualified FROM teams WHERE id = $4 FOR UPDATE
		)
		UPDATE teams t SET
			total_kills = t.total_kills + $1,
			matches_played = t.matches_played + 1,
			time_played_seconds = t.time_played_seconds + $2,
			is_qualified = t.is_qualified OR (t.total_kills + $1 >= $3)
		FROM prev
		WHERE t.id = prev.id
		RETURNING t.id, t.team_name, t.group_name, t.total_kills, t.matches_played, t.is_qualified,
			t.time_played_seconds, t.logo_key, t.created_at, prev.is_qualified`

	var (
		t            models.Team
		wasQualified bool
	)
	row := trailingScanner{rowScanner: r.getExecutor(exec).QueryRowContext(ctx, query, kills, seconds, threshold, teamID), extra: []interface{}{&wasQualified}}
	if err := scanTeam(row, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("%w: id %d", ErrTeamNotFound, teamID)
		}
		return nil, false, mapConstraintError(err, teamConstraintErrors)
	}
	return &t, t.IsQualified && !wasQualified, nil
}

func (r *postgresTeamRepository) MarkQualified(ctx context.Context, exec SQLExecutor, group models.Group, threshold int) (int, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `
		UPDATE teams SET is_qualified = TRUE
		WHERE group_name = $1 AND total_kills >= $2 AND NOT is_qualified`, group, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to mark qualified teams in group %s: %w", group, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *postgresTeamRepository) CountByGroup(ctx context.Context, exec SQLExecutor) (GroupCounts, error) {
	counts := GroupCounts{
		Teams:     make(map[models.Group]int),
		Qualified: make(map[models.Group]int),
	}
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT group_name, COUNT(*), COUNT(*) FILTER (WHERE is_qualified)
		FROM teams
		GROUP BY group_name`)
	if err != nil {
		return counts, fmt.Errorf("failed to count teams by group: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var group models.Group
		var total, qualified int
		if err := rows.Scan(&group, &total, &qualified); err != nil {
			return counts, fmt.Errorf("failed to scan group counts: %w", err)
		}
		counts.Teams[group] = total
		counts.Qualified[group] = qualified
	}
	return counts, rows.Err()
}

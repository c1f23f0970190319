package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/killrace-tournament/models"
	"github.com/jmoiron/sqlx"
)

// StatsRepository - read-only запросы для рейтингов и сводной статистики.
type StatsRepository interface {
	TopPlayers(ctx context.Context, stage KillStage, limit int) ([]models.PlayerKillEntry, error)
	TopTeams(ctx context.Context, limit int) ([]models.TeamKillEntry, error)
	Totals(ctx context.Context) (models.TournamentTotals, error)
	PhaseCounters(ctx context.Context) (models.PhaseStats, error)
	FinalsWinnerID(ctx context.Context) (*int, error)
}

type postgresStatsRepository struct {
	db *sqlx.DB
}

func NewPostgresStatsRepository(db *sqlx.DB) StatsRepository {
	return &postgresStatsRepository{db: db}
}

// TopPlayers ranks players by the kill counter of the given stage; players without kills are skipped.
func (r *postgresStatsRepository) TopPlayers(ctx context.Context, stage KillStage, limit int) ([]models.PlayerKillEntry, error) {
	column, ok := stageKillColumns[stage]
	if !ok {
		return nil, fmt.Errorf("unknown kill stage %q", stage)
	}
	query := fmt.Sprintf(`
		SELECT p.id, p.name, t.team_name, p.%[1]s AS kills
		FROM players p
		LEFT JOIN teams t ON t.id = p.team_id
		WHERE p.%[1]s > 0
		ORDER BY p.%[1]s DESC, p.id ASC
		LIMIT $1`, column)

	entries := make([]models.PlayerKillEntry, 0, limit)
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to select top %s players: %w", stage, err)
	}
	return entries, nil
}

func (r *postgresStatsRepository) TopTeams(ctx context.Context, limit int) ([]models.TeamKillEntry, error) {
	query := `
		SELECT id, team_name, group_name, total_kills, matches_played
		FROM teams
		ORDER BY total_kills DESC, matches_played ASC, id ASC
		LIMIT $1`

	entries := make([]models.TeamKillEntry, 0, limit)
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to select top teams: %w", err)
	}
	return entries, nil
}

func (r *postgresStatsRepository) Totals(ctx context.Context) (models.TournamentTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM players) AS players,
			(SELECT COUNT(*) FROM teams) AS teams,
			(SELECT COUNT(*) FROM teams WHERE is_qualified) AS qualified_teams,
			(SELECT COUNT(*) FROM matches WHERE match_type = 'qualifier') AS qualifier_games,
			(SELECT COUNT(*) FROM semifinal_results) AS semifinal_games,
			(SELECT COUNT(*) FROM finals_games) AS finals_games,
			(SELECT COALESCE(SUM(kills), 0) FROM players) AS total_kills`

	var totals models.TournamentTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return totals, fmt.Errorf("failed to get tournament totals: %w", err)
	}
	return totals, nil
}

// PhaseCounters fills the counter fields of PhaseStats; completion flags are derived by the caller.
func (r *postgresStatsRepository) PhaseCounters(ctx context.Context) (models.PhaseStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM teams) AS total_teams,
			(SELECT COUNT(*) FROM teams WHERE is_qualified) AS qualified_teams,
			(SELECT COUNT(*) FROM matches WHERE match_type = 'qualifier') AS qualifier_games,
			(SELECT COALESCE(MAX(total_kills), 0) FROM teams) AS highest_kills,
			(SELECT COUNT(*) FROM matches WHERE match_type = 'semifinal') AS semifinal_matches,
			(SELECT COUNT(*) FROM semifinal_results) AS semifinal_games,
			(SELECT COUNT(*) FROM finals_games) AS finals_games`

	var stats models.PhaseStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return stats, fmt.Errorf("failed to get phase counters: %w", err)
	}
	return stats, nil
}

func (r *postgresStatsRepository) FinalsWinnerID(ctx context.Context) (*int, error) {
	var winner sql.NullInt64
	err := r.db.GetContext(ctx, &winner, `
		SELECT winner_team_id FROM finals
		WHERE status = 'completed' AND winner_team_id IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get finals winner: %w", err)
	}
	return nullIntPtr(winner), nil
}

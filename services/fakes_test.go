package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/killrace-tournament/models"
	"github.com/Dosada05/killrace-tournament/repositories"
	"github.com/Dosada05/killrace-tournament/storage"
)

// memStore - общее in-memory состояние для фейковых репозиториев.
type memStore struct {
	mu          sync.Mutex
	nextID      int
	players     map[int]*models.Player
	teams       map[int]*models.Team
	matches     map[int]*models.Match
	semiGames   []models.GameResult
	finals      *models.Finals
	finalsGames []models.GameResult
	phases      []*models.TournamentPhase
	tournaments []*models.Tournament
}

func newMemStore() *memStore {
	return &memStore{
		players: map[int]*models.Player{},
		teams:   map[int]*models.Team{},
		matches: map[int]*models.Match{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- players

type fakePlayerRepo struct{ s *memStore }

func (r fakePlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.id()
	p.CreatedAt = time.Now()
	cp := *p
	r.s.players[p.ID] = &cp
	return nil
}

func (r fakePlayerRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakePlayerRepo) sorted(keep func(*models.Player) bool) []models.Player {
	out := []models.Player{}
	for _, p := range r.s.players {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakePlayerRepo) List(_ context.Context, _ repositories.SQLExecutor, f repositories.PlayerFilter) ([]models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(p *models.Player) bool {
		if f.UnassignedOnly && p.TeamID != nil {
			return false
		}
		if f.TeamID != nil && (p.TeamID == nil || *p.TeamID != *f.TeamID) {
			return false
		}
		return true
	}), nil
}

func (r fakePlayerRepo) ListByTeamIDs(_ context.Context, _ repositories.SQLExecutor, teamIDs []int) ([]models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[int]bool{}
	for _, id := range teamIDs {
		want[id] = true
	}
	return r.sorted(func(p *models.Player) bool { return p.TeamID != nil && want[*p.TeamID] }), nil
}

func (r fakePlayerRepo) ListUnassignedIDs(_ context.Context, _ repositories.SQLExecutor) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []int{}
	for _, p := range r.sorted(func(p *models.Player) bool { return p.TeamID == nil }) {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (r fakePlayerRepo) Update(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.players[p.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	if p.TeamID != nil {
		if _, ok := r.s.teams[*p.TeamID]; !ok {
			return repositories.ErrPlayerTeamInvalid
		}
	}
	cp := *p
	r.s.players[p.ID] = &cp
	return nil
}

func (r fakePlayerRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok || p.TeamID != nil {
		return repositories.ErrPlayerNotFound
	}
	delete(r.s.players, id)
	return nil
}

func (r fakePlayerRepo) AssignTeam(_ context.Context, _ repositories.SQLExecutor, teamID int, ids []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		p, ok := r.s.players[id]
		if !ok {
			return repositories.ErrPlayerNotFound
		}
		tid := teamID
		p.TeamID = &tid
	}
	return nil
}

func (r fakePlayerRepo) AddKills(_ context.Context, _ repositories.SQLExecutor, stage repositories.KillStage, deltas []models.PlayerKills) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range deltas {
		p, ok := r.s.players[d.PlayerID]
		if !ok {
			return repositories.ErrPlayerNotFound
		}
		p.Kills += d.Kills
		p.MatchesPlayed++
		switch stage {
		case repositories.StageQualifier:
			p.QualifierKills += d.Kills
		case repositories.StageSemifinal:
			p.SemifinalKills += d.Kills
		case repositories.StageFinals:
			p.FinalsKills += d.Kills
		}
	}
	return nil
}

func (r fakePlayerRepo) ResetAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.players {
		p.TeamID = nil
		p.Kills, p.QualifierKills, p.SemifinalKills, p.FinalsKills, p.MatchesPlayed = 0, 0, 0, 0, 0
	}
	return nil
}

// ---- teams

type fakeTeamRepo struct{ s *memStore }

func (r fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.teams {
		if existing.TeamName == t.TeamName {
			return repositories.ErrTeamNameConflict
		}
	}
	t.ID = r.s.id()
	t.CreatedAt = time.Now()
	cp := *t
	r.s.teams[t.ID] = &cp
	return nil
}

func (r fakeTeamRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTeamRepo) List(_ context.Context, _ repositories.SQLExecutor, f repositories.TeamFilter) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Team{}
	for _, t := range r.s.teams {
		if f.Group != nil && t.GroupName != *f.Group {
			continue
		}
		if f.QualifiedOnly && !t.IsQualified {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalKills != out[j].TotalKills {
			return out[i].TotalKills > out[j].TotalKills
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakeTeamRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[t.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	for _, existing := range r.s.teams {
		if existing.ID != t.ID && existing.TeamName == t.TeamName {
			return repositories.ErrTeamNameConflict
		}
	}
	cp := *t
	r.s.teams[t.ID] = &cp
	return nil
}

func (r fakeTeamRepo) UpdateLogoKey(_ context.Context, _ repositories.SQLExecutor, id int, key *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.LogoKey = key
	return nil
}

func (r fakeTeamRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.s.teams, id)
	for _, p := range r.s.players {
		if p.TeamID != nil && *p.TeamID == id {
			p.TeamID = nil
		}
	}
	return nil
}

func (r fakeTeamRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.teams = map[int]*models.Team{}
	for _, p := range r.s.players {
		p.TeamID = nil
	}
	return nil
}

func (r fakeTeamRepo) AddQualifierResult(_ context.Context, _ repositories.SQLExecutor, teamID, kills, seconds, threshold int) (*models.Team, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[teamID]
	if !ok {
		return nil, false, repositories.ErrTeamNotFound
	}
	was := t.IsQualified
	t.IsQualified = t.IsQualified || t.TotalKills+kills >= threshold
	t.TotalKills += kills
	t.MatchesPlayed++
	t.TimePlayedSeconds += seconds
	cp := *t
	return &cp, cp.IsQualified && !was, nil
}

func (r fakeTeamRepo) MarkQualified(_ context.Context, _ repositories.SQLExecutor, group models.Group, threshold int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, t := range r.s.teams {
		if t.GroupName == group && !t.IsQualified && t.TotalKills >= threshold {
			t.IsQualified = true
			n++
		}
	}
	return n, nil
}

func (r fakeTeamRepo) CountByGroup(_ context.Context, _ repositories.SQLExecutor) (repositories.GroupCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := repositories.GroupCounts{Teams: map[models.Group]int{}, Qualified: map[models.Group]int{}}
	for _, t := range r.s.teams {
		counts.Teams[t.GroupName]++
		if t.IsQualified {
			counts.Qualified[t.GroupName]++
		}
	}
	return counts, nil
}

// ---- matches

type fakeMatchRepo struct{ s *memStore }

func (r fakeMatchRepo) CreateQualifier(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	m.MatchType = models.MatchTypeQualifier
	cp := *m
	r.s.matches[m.ID] = &cp
	return nil
}

func (r fakeMatchRepo) List(_ context.Context, _ repositories.SQLExecutor, mt *models.MatchType) ([]models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Match{}
	for _, m := range r.s.matches {
		if mt == nil || m.MatchType == *mt {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeMatchRepo) CreateSemifinal(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.matches {
		if existing.MatchType == models.MatchTypeSemifinal && *existing.MatchOrder == *m.MatchOrder {
			return repositories.ErrSemifinalOrderTaken
		}
	}
	m.ID = r.s.id()
	m.MatchType = models.MatchTypeSemifinal
	cp := *m
	r.s.matches[m.ID] = &cp
	return nil
}

func (r fakeMatchRepo) GetSemifinal(_ context.Context, _ repositories.SQLExecutor, id int, _ repositories.LockMode) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok || m.MatchType != models.MatchTypeSemifinal {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r fakeMatchRepo) ListSemifinals(_ context.Context, _ repositories.SQLExecutor) ([]models.SemifinalMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.SemifinalMatch{}
	for _, m := range r.s.matches {
		if m.MatchType != models.MatchTypeSemifinal {
			continue
		}
		sf := models.SemifinalMatch{Match: *m}
		if t, ok := r.s.teams[m.Team1ID]; ok {
			sf.Team1Group = t.GroupName
		}
		if m.Team2ID != nil {
			if t, ok := r.s.teams[*m.Team2ID]; ok {
				sf.Team2Group = t.GroupName
			}
		}
		out = append(out, sf)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].MatchOrder < *out[j].MatchOrder })
	return out, nil
}

func (r fakeMatchRepo) DeleteSemifinals(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.matches {
		if m.MatchType == models.MatchTypeSemifinal {
			delete(r.s.matches, id)
		}
	}
	r.s.semiGames = nil
	return nil
}

func (r fakeMatchRepo) CreateSemifinalGame(_ context.Context, _ repositories.SQLExecutor, g *models.GameResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.semiGames {
		if existing.SeriesID == g.SeriesID && existing.GameNumber == g.GameNumber {
			return repositories.ErrSemifinalGameConflict
		}
	}
	g.ID = r.s.id()
	r.s.semiGames = append(r.s.semiGames, *g)
	return nil
}

func (r fakeMatchRepo) ListSemifinalGames(_ context.Context, _ repositories.SQLExecutor, ids []int) ([]models.GameResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[int]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.GameResult{}
	for _, g := range r.s.semiGames {
		if want[g.SeriesID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r fakeMatchRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.matches = map[int]*models.Match{}
	r.s.semiGames = nil
	return nil
}

// ---- finals

type fakeFinalsRepo struct{ s *memStore }

func (r fakeFinalsRepo) Get(_ context.Context, _ repositories.SQLExecutor, _ repositories.LockMode) (*models.Finals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.finals == nil {
		return nil, repositories.ErrFinalsNotFound
	}
	cp := *r.s.finals
	return &cp, nil
}

func (r fakeFinalsRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int, lock repositories.LockMode) (*models.Finals, error) {
	f, err := r.Get(ctx, exec, lock)
	if err != nil {
		return nil, err
	}
	if f.ID != id {
		return nil, repositories.ErrFinalsNotFound
	}
	return f, nil
}

func (r fakeFinalsRepo) Create(_ context.Context, _ repositories.SQLExecutor, f *models.Finals) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.finals != nil {
		return repositories.ErrFinalsAlreadyExist
	}
	f.ID = r.s.id()
	cp := *f
	r.s.finals = &cp
	return nil
}

func (r fakeFinalsRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.FinalsStatus, winner *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.finals == nil || r.s.finals.ID != id {
		return repositories.ErrFinalsNotFound
	}
	r.s.finals.Status = status
	r.s.finals.WinnerTeamID = winner
	return nil
}

func (r fakeFinalsRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.finals = nil
	r.s.finalsGames = nil
	return nil
}

func (r fakeFinalsRepo) CreateGame(_ context.Context, _ repositories.SQLExecutor, g *models.GameResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.finalsGames {
		if existing.GameNumber == g.GameNumber {
			return repositories.ErrFinalsGameConflict
		}
	}
	g.ID = r.s.id()
	r.s.finalsGames = append(r.s.finalsGames, *g)
	return nil
}

func (r fakeFinalsRepo) ListGames(_ context.Context, _ repositories.SQLExecutor, finalsID int) ([]models.GameResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.GameResult{}
	for _, g := range r.s.finalsGames {
		if g.SeriesID == finalsID {
			out = append(out, g)
		}
	}
	return out, nil
}

// ---- phases

type fakePhaseRepo struct{ s *memStore }

func (r fakePhaseRepo) active() *models.TournamentPhase {
	for _, p := range r.s.phases {
		if p.PhaseStatus == models.PhaseStatusActive {
			return p
		}
	}
	return nil
}

func (r fakePhaseRepo) GetActive(_ context.Context, _ repositories.SQLExecutor, _ repositories.LockMode) (*models.TournamentPhase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.active()
	if p == nil {
		return nil, repositories.ErrNoActivePhase
	}
	cp := *p
	return &cp, nil
}

func (r fakePhaseRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentPhase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.phases {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPhaseNotFound
}

func (r fakePhaseRepo) List(_ context.Context, _ repositories.SQLExecutor) ([]models.TournamentPhase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.TournamentPhase, 0, len(r.s.phases))
	for _, p := range r.s.phases {
		out = append(out, *p)
	}
	return out, nil
}

func (r fakePhaseRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.TournamentPhase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.PhaseStatus == "" {
		p.PhaseStatus = models.PhaseStatusActive
	}
	if p.PhaseStatus == models.PhaseStatusActive && r.active() != nil {
		return repositories.ErrActivePhaseConflict
	}
	p.ID = r.s.id()
	p.StartedAt = time.Now()
	cp := *p
	r.s.phases = append(r.s.phases, &cp)
	return nil
}

func (r fakePhaseRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.PhaseStatus) (*models.TournamentPhase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.phases {
		if p.ID == id {
			if status == models.PhaseStatusActive && p.PhaseStatus != models.PhaseStatusActive && r.active() != nil {
				return nil, repositories.ErrActivePhaseConflict
			}
			p.PhaseStatus = status
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPhaseNotFound
}

func (r fakePhaseRepo) CloseActive(_ context.Context, _ repositories.SQLExecutor, status models.PhaseStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p := r.active(); p != nil {
		now := time.Now()
		p.PhaseStatus = status
		p.EndedAt = &now
	}
	return nil
}

func (r fakePhaseRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, p := range r.s.phases {
		if p.ID == id && p.PhaseStatus != models.PhaseStatusActive {
			r.s.phases = append(r.s.phases[:i], r.s.phases[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPhaseNotFound
}

// ---- tournaments

type fakeTournamentRepo struct{ s *memStore }

func (r fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id()
	cp := *t
	r.s.tournaments = append(r.s.tournaments, &cp)
	return nil
}

func (r fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tournaments {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r fakeTournamentRepo) GetLatest(_ context.Context, _ repositories.SQLExecutor) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.tournaments) == 0 {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *r.s.tournaments[len(r.s.tournaments)-1]
	return &cp, nil
}

func (r fakeTournamentRepo) ExistsWithStatus(_ context.Context, _ repositories.SQLExecutor, status models.TournamentStatus, excludeID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tournaments {
		if t.Status == status && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeTournamentRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.tournaments {
		if existing.ID == t.ID {
			cp := *t
			r.s.tournaments[i] = &cp
			return nil
		}
	}
	return repositories.ErrTournamentNotFound
}

// ---- stats

type fakeStatsRepo struct{ s *memStore }

func (r fakeStatsRepo) TopPlayers(_ context.Context, stage repositories.KillStage, limit int) ([]models.PlayerKillEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.PlayerKillEntry{}
	for _, p := range r.s.players {
		kills := map[repositories.KillStage]int{
			repositories.StageQualifier: p.QualifierKills,
			repositories.StageSemifinal: p.SemifinalKills,
			repositories.StageFinals:    p.FinalsKills,
		}[stage]
		if kills > 0 {
			out = append(out, models.PlayerKillEntry{ID: p.ID, Name: p.Name, Kills: kills})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeStatsRepo) TopTeams(_ context.Context, limit int) ([]models.TeamKillEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.TeamKillEntry{}
	for _, t := range r.s.teams {
		out = append(out, models.TeamKillEntry{ID: t.ID, TeamName: t.TeamName, GroupName: t.GroupName, TotalKills: t.TotalKills})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalKills > out[j].TotalKills })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeStatsRepo) Totals(_ context.Context) (models.TournamentTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := models.TournamentTotals{Players: len(r.s.players), Teams: len(r.s.teams)}
	for _, t := range r.s.teams {
		if t.IsQualified {
			totals.QualifiedTeams++
		}
	}
	return totals, nil
}

func (r fakeStatsRepo) PhaseCounters(_ context.Context) (models.PhaseStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return models.PhaseStats{TotalTeams: len(r.s.teams)}, nil
}

func (r fakeStatsRepo) FinalsWinnerID(_ context.Context) (*int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.finals == nil || r.s.finals.Status != models.FinalsCompleted {
		return nil, nil
	}
	return r.s.finals.WinnerTeamID, nil
}

// ---- uploader / notifier

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string][]byte{}}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, data io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return fmt.Sprintf("https://cdn.example.com/%s", key)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) BroadcastToRoom(_ string, event string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) has(event string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

// ---- wiring

type testEnv struct {
	store    *memStore
	notifier *recordingNotifier
	uploader *fakeUploader

	players    PlayerService
	teams      TeamService
	matches    MatchService
	phases     PhaseService
	tournament TournamentService
}

func newTestEnv(withUploader bool) *testEnv {
	st := newMemStore()
	n := &recordingNotifier{}
	logger := discardLogger()

	playerRepo := fakePlayerRepo{st}
	teamRepo := fakeTeamRepo{st}
	matchRepo := fakeMatchRepo{st}
	finalsRepo := fakeFinalsRepo{st}
	phaseRepo := fakePhaseRepo{st}
	tournamentRepo := fakeTournamentRepo{st}
	statsRepo := fakeStatsRepo{st}

	env := &testEnv{store: st, notifier: n}
	var uploader storage.FileUploader
	if withUploader {
		env.uploader = newFakeUploader()
		uploader = env.uploader
	}

	env.players = NewPlayerService(playerRepo, n, logger)
	env.teams = NewTeamService(fakeTx{}, teamRepo, playerRepo, phaseRepo, uploader, n, logger)
	env.matches = NewMatchService(fakeTx{}, matchRepo, finalsRepo, teamRepo, playerRepo, phaseRepo, uploader, n, logger)
	env.phases = NewPhaseService(fakeTx{}, phaseRepo, teamRepo, matchRepo, finalsRepo, statsRepo, n, logger)
	env.tournament = NewTournamentService(fakeTx{}, tournamentRepo, teamRepo, playerRepo, matchRepo, finalsRepo, phaseRepo, statsRepo, uploader, n, logger)
	return env
}

// setPhase принудительно делает фазу активной, минуя проверки переходов.
func (e *testEnv) setPhase(name models.PhaseName) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	for _, p := range e.store.phases {
		if p.PhaseStatus == models.PhaseStatusActive {
			p.PhaseStatus = models.PhaseStatusCompleted
		}
	}
	e.store.nextID++
	e.store.phases = append(e.store.phases, &models.TournamentPhase{
		ID: e.store.nextID, PhaseName: name, PhaseStatus: models.PhaseStatusActive, StartedAt: time.Now(),
	})
}

func (e *testEnv) addTeam(name string, group models.Group, kills, matches int, qualified bool) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	id := e.store.id()
	e.store.teams[id] = &models.Team{
		ID: id, TeamName: name, GroupName: group,
		TotalKills: kills, MatchesPlayed: matches, IsQualified: qualified,
	}
	return id
}

func (e *testEnv) addPlayer(name string, teamID *int) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	id := e.store.id()
	e.store.players[id] = &models.Player{ID: id, Name: name, TeamID: teamID}
	return id
}

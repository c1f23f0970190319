package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/Dosada05/killrace-tournament/brackets"
	"github.com/Dosada05/killrace-tournament/models"
	"github.com/Dosada05/killrace-tournament/repositories"
	"github.com/Dosada05/killrace-tournament/storage"
	"github.com/Dosada05/killrace-tournament/utils"
)

const teamLogoPrefix = "team-logos"

var allowedLogoTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	ListTeams(ctx context.Context, input ListTeamsInput) ([]models.Team, error)
	UpdateTeam(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error)
	DeleteTeam(ctx context.Context, id int) error
	GenerateTeams(ctx context.Context, input GenerateTeamsInput) ([]models.Team, error)
	UploadLogo(ctx context.Context, id int, contentType string, data io.Reader) (*models.Team, error)
}

type CreateTeamInput struct {
	TeamName  string       `json:"team_name"`
	GroupName models.Group `json:"group_name"`
	PlayerIDs []int        `json:"player_ids"`
}

type ListTeamsInput struct {
	Group         *models.Group
	QualifiedOnly bool
}

type UpdateTeamInput struct {
	TeamName  *string       `json:"team_name"`
	GroupName *models.Group `json:"group_name"`
}

// GenerateTeamsInput - нулевые значения заменяются значениями brackets.DefaultTeamLayout.
type GenerateTeamsInput struct {
	Teams          int `json:"teams"`
	PlayersPerTeam int `json:"players_per_team"`
}

type teamService struct {
	tx         repositories.TxRunner
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	phaseRepo  repositories.PhaseRepository
	uploader   storage.FileUploader
	shuffle    brackets.ShuffleFunc
	notifier   Notifier
	logger     *slog.Logger
}

// NewTeamService принимает uploader == nil, если объектное хранилище не настроено.
func NewTeamService(
	tx repositories.TxRunner,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	phaseRepo repositories.PhaseRepository,
	uploader storage.FileUploader,
	notifier Notifier,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		tx:         tx,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		phaseRepo:  phaseRepo,
		uploader:   uploader,
		shuffle:    rand.Shuffle,
		notifier:   notifierOrNoop(notifier),
		logger:     logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.TeamName)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if !input.GroupName.Valid() {
		return nil, ErrInvalidGroup
	}

	team := &models.Team{TeamName: name, GroupName: input.GroupName}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return err
		}
		return s.playerRepo.AssignTeam(ctx, exec, team.ID, input.PlayerIDs)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	if err := s.fillTeams(ctx, []*models.Team{team}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "team created", slog.Int("team_id", team.ID), slog.String("group", string(team.GroupName)))
	publish(s.notifier, EventTeamsChanged, team)
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.fillTeams(ctx, []*models.Team{team}); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, input ListTeamsInput) ([]models.Team, error) {
	if input.Group != nil && !input.Group.Valid() {
		return nil, ErrInvalidGroup
	}
	teams, err := s.teamRepo.List(ctx, nil, repositories.TeamFilter{Group: input.Group, QualifiedOnly: input.QualifiedOnly})
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.fillTeams(ctx, teamPointers(teams)); err != nil {
		return nil, err
	}
	return teams, nil
}

// UpdateTeam и DeleteTeam разрешены до сетки плей-офф: полуфиналы и финал ссылаются на команды.
func (s *teamService) UpdateTeam(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error) {
	var team *models.Team
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.checkTeamsEditable(ctx, exec); err != nil {
			return err
		}

		var err error
		team, err = s.teamRepo.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if input.TeamName != nil {
			name := strings.TrimSpace(*input.TeamName)
			if name == "" {
				return ErrTeamNameRequired
			}
			team.TeamName = name
		}
		if input.GroupName != nil {
			if !input.GroupName.Valid() {
				return ErrInvalidGroup
			}
			team.GroupName = *input.GroupName
		}
		return s.teamRepo.Update(ctx, exec, team)
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	if err := s.fillTeams(ctx, []*models.Team{team}); err != nil {
		return nil, err
	}
	publish(s.notifier, EventTeamsChanged, team)
	return team, nil
}

// DeleteTeam удаляет команду; игроки остаются без команды (ON DELETE SET NULL).
func (s *teamService) DeleteTeam(ctx context.Context, id int) error {
	var team *models.Team
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.checkTeamsEditable(ctx, exec); err != nil {
			return err
		}

		var err error
		team, err = s.teamRepo.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		return s.teamRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		return translateRepoError(err)
	}

	if team.LogoKey != nil {
		s.deleteObject(ctx, *team.LogoKey)
	}
	s.logger.InfoContext(ctx, "team deleted", slog.Int("team_id", id))
	publish(s.notifier, EventTeamsChanged, map[string]int{"deleted_id": id})
	return nil
}

func (s *teamService) checkTeamsEditable(ctx context.Context, exec repositories.SQLExecutor) error {
	phase, err := activePhaseName(ctx, s.phaseRepo, exec, repositories.LockForShare)
	if err != nil {
		return err
	}
	return brackets.CheckAction(brackets.ActionEditTeams, phase)
}

// GenerateTeams раздаёт свободных игроков по случайным командам. Доступно только в фазе набора.
func (s *teamService) GenerateTeams(ctx context.Context, input GenerateTeamsInput) ([]models.Team, error) {
	layout := brackets.DefaultTeamLayout
	if input.Teams < 0 || input.PlayersPerTeam < 0 {
		return nil, ErrInvalidCount
	}
	if input.Teams > 0 {
		layout.Teams = input.Teams
	}
	if input.PlayersPerTeam > 0 {
		layout.PlayersPerTeam = input.PlayersPerTeam
	}

	var created []models.Team
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		phase, err := activePhaseName(ctx, s.phaseRepo, exec, repositories.LockForShare)
		if err != nil {
			return err
		}
		if err := brackets.CheckAction(brackets.ActionGenerateTeams, phase); err != nil {
			return err
		}

		existing, err := s.teamRepo.List(ctx, exec, repositories.TeamFilter{})
		if err != nil {
			return err
		}
		names := make([]string, len(existing))
		for i, t := range existing {
			names[i] = t.TeamName
		}
		layout.FirstNumber = brackets.NextTeamNumber(names)

		playerIDs, err := s.playerRepo.ListUnassignedIDs(ctx, exec)
		if err != nil {
			return err
		}
		generated, err := brackets.GenerateTeams(playerIDs, layout, s.shuffle)
		if err != nil {
			return err
		}

		created = make([]models.Team, 0, len(generated))
		for _, g := range generated {
			team := models.Team{TeamName: g.Name, GroupName: g.Group}
			if err := s.teamRepo.Create(ctx, exec, &team); err != nil {
				return err
			}
			if err := s.playerRepo.AssignTeam(ctx, exec, team.ID, g.PlayerIDs); err != nil {
				return err
			}
			created = append(created, team)
		}
		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	if err := s.fillTeams(ctx, teamPointers(created)); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "teams generated",
		slog.Int("teams", layout.Teams), slog.Int("players_per_team", layout.PlayersPerTeam))
	publish(s.notifier, EventTeamsChanged, created)
	return created, nil
}

func (s *teamService) UploadLogo(ctx context.Context, id int, contentType string, data io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	ext, ok := allowedLogoTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedLogoType, contentType)
	}

	team, err := s.teamRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err)
	}

	key := storage.NewObjectKey(teamLogoPrefix, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("failed to upload logo for team %d: %w", id, err)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, nil, id, &key); err != nil {
		s.deleteObject(ctx, key)
		return nil, translateRepoError(err)
	}
	if team.LogoKey != nil {
		s.deleteObject(ctx, *team.LogoKey)
	}

	team.LogoKey = &key
	if err := s.fillTeams(ctx, []*models.Team{team}); err != nil {
		return nil, err
	}
	publish(s.notifier, EventTeamsChanged, team)
	return team, nil
}

func (s *teamService) deleteObject(ctx context.Context, key string) {
	if s.uploader == nil {
		return
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stored object", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *teamService) fillTeams(ctx context.Context, teams []*models.Team) error {
	return populateTeams(ctx, s.playerRepo, s.uploader, teams)
}

// populateTeams заполняет вычисляемые поля команд: время игры, URL логотипа и состав.
func populateTeams(ctx context.Context, playerRepo repositories.PlayerRepository, uploader storage.FileUploader, teams []*models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]int, 0, len(teams))
	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		t.TimePlayed = utils.FormatGameTime(t.TimePlayedSeconds)
		t.LogoURL = nil
		if t.LogoKey != nil && uploader != nil {
			if u := uploader.GetPublicURL(*t.LogoKey); u != "" {
				t.LogoURL = &u
			}
		}
		t.Players = []models.Player{}
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	players, err := playerRepo.ListByTeamIDs(ctx, nil, ids)
	if err != nil {
		return translateRepoError(err)
	}
	for _, p := range players {
		if p.TeamID == nil {
			continue
		}
		if t, ok := byID[*p.TeamID]; ok {
			t.Players = append(t.Players, p)
		}
	}
	return nil
}

func teamPointers(teams []models.Team) []*models.Team {
	ptrs := make([]*models.Team, len(teams))
	for i := range teams {
		ptrs[i] = &teams[i]
	}
	return ptrs
}

// activePhaseName возвращает имя активной фазы или фазу по умолчанию, если активной строки нет.
func activePhaseName(ctx context.Context, phaseRepo repositories.PhaseRepository, exec repositories.SQLExecutor, lock repositories.LockMode) (models.PhaseName, error) {
	phase, err := phaseRepo.GetActive(ctx, exec, lock)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActivePhase) {
			return brackets.DefaultPhase, nil
		}
		return "", err
	}
	return phase.PhaseName, nil
}

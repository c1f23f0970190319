package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Dosada05/killrace-tournament/models"
	"github.com/Dosada05/killrace-tournament/repositories"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type PlayerService interface {
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, id int) (*models.Player, error)
	ListPlayers(ctx context.Context, input ListPlayersInput) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, id int) error
}

type CreatePlayerInput struct {
	Name   string `json:"name"`
	TeamID *int   `json:"team_id"`
}

type ListPlayersInput struct {
	Search         string
	UnassignedOnly bool
}

// UpdatePlayerInput - частичное обновление. ClearTeam снимает игрока с команды.
type UpdatePlayerInput struct {
	Name      *string `json:"name"`
	TeamID    *int    `json:"team_id"`
	ClearTeam bool    `json:"clear_team"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	notifier   Notifier
	logger     *slog.Logger
}

func NewPlayerService(playerRepo repositories.PlayerRepository, notifier Notifier, logger *slog.Logger) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		notifier:   notifierOrNoop(notifier),
		logger:     logger,
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}

	player := &models.Player{Name: name, TeamID: input.TeamID}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "player created", slog.Int("player_id", player.ID))
	publish(s.notifier, EventPlayersChanged, player)
	return player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return player, nil
}

// ListPlayers applies a case-insensitive fuzzy match when Search is set;
// results are then ordered by match distance.
func (s *playerService) ListPlayers(ctx context.Context, input ListPlayersInput) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx, nil, repositories.PlayerFilter{UnassignedOnly: input.UnassignedOnly})
	if err != nil {
		return nil, translateRepoError(err)
	}

	search := strings.TrimSpace(input.Search)
	if search == "" {
		return players, nil
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(search, names)
	sort.Stable(ranks)

	matched := make([]models.Player, 0, len(ranks))
	for _, rank := range ranks {
		matched = append(matched, players[rank.OriginalIndex])
	}
	return matched, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrPlayerNameRequired
		}
		player.Name = name
	}
	switch {
	case input.ClearTeam:
		player.TeamID = nil
	case input.TeamID != nil:
		player.TeamID = input.TeamID
	}

	if err := s.playerRepo.Update(ctx, nil, player); err != nil {
		return nil, translateRepoError(err)
	}

	publish(s.notifier, EventPlayersChanged, player)
	return player, nil
}

// DeletePlayer удаляет только игроков без команды.
func (s *playerService) DeletePlayer(ctx context.Context, id int) error {
	player, err := s.playerRepo.GetByID(ctx, nil, id)
	if err != nil {
		return translateRepoError(err)
	}
	if player.TeamID != nil {
		return fmt.Errorf("%w: player %d is in team %d", ErrPlayerAssigned, id, *player.TeamID)
	}

	if err := s.playerRepo.Delete(ctx, nil, id); err != nil {
		return translateRepoError(err)
	}

	s.logger.InfoContext(ctx, "player deleted", slog.Int("player_id", id))
	publish(s.notifier, EventPlayersChanged, map[string]int{"deleted_id": id})
	return nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jeonghakhur/tennis-tab-sub000/brackets"
	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

const defaultGroupSize = 4

// ConfigOptions are the administrator's choices for a division's bracket.
type ConfigOptions struct {
	HasPreliminaries bool `json:"has_preliminaries"`
	ThirdPlaceMatch  bool `json:"third_place_match"`
	GroupSize        int  `json:"group_size"`
}

// TeamPlacement is one row of a committed drag-and-drop group layout.
type TeamPlacement struct {
	TeamID  int `json:"team_id"`
	GroupID int `json:"group_id"`
}

type SeedingService interface {
	GetOrCreateConfig(ctx context.Context, divisionID int, opts ConfigOptions) (*models.BracketConfig, error)
	UpdateOptions(ctx context.Context, configID int, opts ConfigOptions) (*models.BracketConfig, error)
	FormGroups(ctx context.Context, configID int) ([]*models.PreliminaryGroup, error)
	MoveTeam(ctx context.Context, teamID, targetGroupID int) error
	CommitGroupOrder(ctx context.Context, configID int, placements []TeamPlacement) error
	PreviewSeedOrder(ctx context.Context, divisionID int) ([]brackets.SlotPair, error)
}

type seedingService struct {
	db         *sql.DB
	configRepo repositories.BracketConfigRepository
	groupRepo  repositories.GroupRepository
	entryRepo  repositories.EntryRepository
	matchRepo  repositories.BracketMatchRepository
	logger     *slog.Logger
}

func NewSeedingService(
	db *sql.DB,
	configRepo repositories.BracketConfigRepository,
	groupRepo repositories.GroupRepository,
	entryRepo repositories.EntryRepository,
	matchRepo repositories.BracketMatchRepository,
	logger *slog.Logger,
) SeedingService {
	return &seedingService{
		db:         db,
		configRepo: configRepo,
		groupRepo:  groupRepo,
		entryRepo:  entryRepo,
		matchRepo:  matchRepo,
		logger:     logger,
	}
}

// GetOrCreateConfig returns the division's bracket config, creating a draft
// one on first visit. A concurrent first visit loses the insert race and
// falls back to reading the winner's row.
func (s *seedingService) GetOrCreateConfig(ctx context.Context, divisionID int, opts ConfigOptions) (*models.BracketConfig, error) {
	config, err := s.configRepo.GetByDivision(ctx, divisionID)
	if err == nil {
		return config, nil
	}
	if !errors.Is(err, repositories.ErrBracketConfigNotFound) {
		return nil, err
	}

	groupSize := opts.GroupSize
	if groupSize == 0 {
		groupSize = defaultGroupSize
	}
	if groupSize < 2 {
		return nil, ErrInvalidGroupSize
	}

	config = &models.BracketConfig{
		DivisionID:       divisionID,
		HasPreliminaries: opts.HasPreliminaries,
		ThirdPlaceMatch:  opts.ThirdPlaceMatch,
		GroupSize:        groupSize,
		Status:           models.BracketStatusDraft,
	}
	err = s.configRepo.Create(ctx, s.db, config)
	if errors.Is(err, repositories.ErrBracketConfigConflict) {
		return s.configRepo.GetByDivision(ctx, divisionID)
	}
	if err != nil {
		return nil, err
	}
	return config, nil
}

// UpdateOptions changes the bracket options of a draft config. Options are
// frozen once anything has been generated from them.
func (s *seedingService) UpdateOptions(ctx context.Context, configID int, opts ConfigOptions) (*models.BracketConfig, error) {
	config, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if config.Status != models.BracketStatusDraft {
		return nil, ErrBracketLocked
	}
	groupSize := opts.GroupSize
	if groupSize == 0 {
		groupSize = config.GroupSize
	}
	if groupSize < 2 {
		return nil, ErrInvalidGroupSize
	}
	if err := s.configRepo.UpdateOptions(ctx, s.db, configID, opts.HasPreliminaries, opts.ThirdPlaceMatch, groupSize); err != nil {
		return nil, mapRepoError(err)
	}
	return s.configRepo.GetByID(ctx, configID)
}

// FormGroups distributes the division's confirmed roster into preliminary
// groups in a snake pattern and replaces any previous layout. Only valid in
// draft, before any matches exist.
func (s *seedingService) FormGroups(ctx context.Context, configID int) ([]*models.PreliminaryGroup, error) {
	config, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if config.Status != models.BracketStatusDraft {
		return nil, ErrBracketLocked
	}
	count, err := s.matchRepo.CountPreliminary(ctx, configID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrMatchesAlreadyExist
	}

	entries, err := s.entryRepo.ListConfirmedByDivision(ctx, config.DivisionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyRoster
	}

	groupCount := (len(entries) + config.GroupSize - 1) / config.GroupSize
	distribution, err := brackets.SnakeGroups(len(entries), groupCount)
	if err != nil {
		return nil, err
	}

	groups := make([]*models.PreliminaryGroup, 0, groupCount)
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.groupRepo.DeleteGroupsByConfig(ctx, tx, configID); err != nil {
			return err
		}
		for gi, ranks := range distribution {
			group := &models.PreliminaryGroup{
				ConfigID:   configID,
				Name:       groupName(gi),
				OrderIndex: gi,
			}
			if err := s.groupRepo.CreateGroup(ctx, tx, group); err != nil {
				return err
			}
			for _, rank := range ranks {
				team := &models.GroupTeam{
					GroupID:    group.ID,
					EntryID:    entries[rank].ID,
					SeedNumber: intPtr(rank + 1),
				}
				if err := s.groupRepo.CreateTeam(ctx, tx, team); err != nil {
					return err
				}
				team.Entry = entries[rank]
				group.Teams = append(group.Teams, *team)
			}
			groups = append(groups, group)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("formed preliminary groups",
		slog.Int("config_id", configID),
		slog.Int("groups", len(groups)),
		slog.Int("entries", len(entries)))
	return groups, nil
}

// MoveTeam relocates a team into another group of the same config. Moving a
// team to the group it already occupies is a no-op, so retried drags are
// harmless.
func (s *seedingService) MoveTeam(ctx context.Context, teamID, targetGroupID int) error {
	team, err := s.groupRepo.GetTeamByID(ctx, teamID)
	if err != nil {
		return mapRepoError(err)
	}
	if team.GroupID == targetGroupID {
		return nil
	}
	source, err := s.groupRepo.GetGroupByID(ctx, team.GroupID)
	if err != nil {
		return mapRepoError(err)
	}
	target, err := s.groupRepo.GetGroupByID(ctx, targetGroupID)
	if err != nil {
		return mapRepoError(err)
	}
	if source.ConfigID != target.ConfigID {
		return ErrGroupMismatch
	}
	config, err := s.configRepo.GetByID(ctx, source.ConfigID)
	if err != nil {
		return mapRepoError(err)
	}
	if config.Status != models.BracketStatusDraft {
		return ErrBracketLocked
	}
	return mapRepoError(s.groupRepo.UpdateTeamGroup(ctx, s.db, teamID, targetGroupID))
}

// CommitGroupOrder applies a whole drag-and-drop layout in one transaction.
// Placements that match the current layout are skipped, so resubmitting the
// same layout changes nothing.
func (s *seedingService) CommitGroupOrder(ctx context.Context, configID int, placements []TeamPlacement) error {
	config, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return mapRepoError(err)
	}
	if config.Status != models.BracketStatusDraft {
		return ErrBracketLocked
	}

	groups, err := s.groupRepo.ListGroupsByConfig(ctx, configID)
	if err != nil {
		return err
	}
	valid := make(map[int]bool, len(groups))
	for _, g := range groups {
		valid[g.ID] = true
	}
	teams, err := s.groupRepo.ListTeamsByConfig(ctx, configID)
	if err != nil {
		return err
	}
	current := make(map[int]int, len(teams))
	for _, t := range teams {
		current[t.ID] = t.GroupID
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, p := range placements {
			if !valid[p.GroupID] {
				return ErrGroupMismatch
			}
			got, ok := current[p.TeamID]
			if !ok {
				return ErrTeamNotFound
			}
			if got == p.GroupID {
				continue
			}
			if err := s.groupRepo.UpdateTeamGroup(ctx, tx, p.TeamID, p.GroupID); err != nil {
				return mapRepoError(err)
			}
		}
		return nil
	})
}

// PreviewSeedOrder folds the division's confirmed roster onto the inferred
// bracket without persisting anything, for the seeding screen.
func (s *seedingService) PreviewSeedOrder(ctx context.Context, divisionID int) ([]brackets.SlotPair, error) {
	entries, err := s.entryRepo.ListConfirmedByDivision(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyRoster
	}
	size, err := brackets.InferBracketSize(len(entries))
	if err != nil {
		return nil, ErrTooManyTeams
	}
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return brackets.SeedFold(ids, size/2)
}

// groupName labels groups "Group A" through "Group Z", then falls back to
// numbers for absurdly large divisions.
func groupName(index int) string {
	if index < 26 {
		return fmt.Sprintf("Group %c", 'A'+index)
	}
	return fmt.Sprintf("Group %d", index+1)
}

package services

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jeonghakhur/tennis-tab-sub000/brackets"
	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/realtime"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

type PreliminaryService interface {
	GenerateMatches(ctx context.Context, configID int) ([]*models.BracketMatch, error)
	DeleteMatches(ctx context.Context, configID int) error
	DeleteGroups(ctx context.Context, configID int) error
	GroupStandings(ctx context.Context, groupID int) ([]models.GroupTeam, error)
	CommitFinalRanks(ctx context.Context, groupID int) ([]models.GroupTeam, error)
}

type preliminaryService struct {
	db          *sql.DB
	configRepo  repositories.BracketConfigRepository
	groupRepo   repositories.GroupRepository
	matchRepo   repositories.BracketMatchRepository
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewPreliminaryService(
	db *sql.DB,
	configRepo repositories.BracketConfigRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.BracketMatchRepository,
	broadcaster Broadcaster,
	logger *slog.Logger,
) PreliminaryService {
	return &preliminaryService{
		db:          db,
		configRepo:  configRepo,
		groupRepo:   groupRepo,
		matchRepo:   matchRepo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GenerateMatches creates the full round-robin schedule for every committed
// group and moves the bracket out of draft. Each pair of teams in a group
// meets exactly once; groups with fewer than two teams yield no matches.
func (s *preliminaryService) GenerateMatches(ctx context.Context, configID int) ([]*models.BracketMatch, error) {
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

	groups, err := s.groupRepo.ListGroupsByConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrGroupsEmpty
	}

	var created []*models.BracketMatch
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, group := range groups {
			teams, err := s.groupRepo.ListTeamsByGroup(ctx, group.ID)
			if err != nil {
				return err
			}
			if len(teams) < 2 {
				continue
			}
			ids := make([]int, len(teams))
			for i, t := range teams {
				ids[i] = t.EntryID
			}
			pairs, err := brackets.RoundRobinPairs(ids)
			if err != nil {
				return err
			}
			for i, pair := range pairs {
				match := &models.BracketMatch{
					ConfigID:     configID,
					Phase:        models.PhasePreliminary,
					GroupID:      intPtr(group.ID),
					RoundNumber:  0,
					MatchNumber:  i + 1,
					Team1EntryID: intPtr(pair.Team1),
					Team2EntryID: intPtr(pair.Team2),
					Status:       models.MatchStatusScheduled,
				}
				if err := s.matchRepo.Create(ctx, tx, match); err != nil {
					return mapRepoError(err)
				}
				created = append(created, match)
			}
		}
		return s.configRepo.UpdateStatus(ctx, tx, configID, models.BracketStatusPreliminary)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("generated preliminary round-robin",
		slog.Int("config_id", configID),
		slog.Int("matches", len(created)))
	s.broadcaster.BroadcastToRoom(realtime.RoomID(configID), realtime.Event{
		Type:    realtime.EventPreliminaryGenerated,
		Payload: map[string]int{"config_id": configID, "match_count": len(created)},
	})
	return created, nil
}

// DeleteMatches removes every preliminary match and the standings they
// produced, returning the bracket to draft. Refused while a main bracket
// exists, since its seeding was derived from those standings.
func (s *preliminaryService) DeleteMatches(ctx context.Context, configID int) error {
	if _, err := s.configRepo.GetByID(ctx, configID); err != nil {
		return mapRepoError(err)
	}
	maxRound, err := s.matchRepo.MaxMainRound(ctx, configID)
	if err != nil {
		return err
	}
	if maxRound > 0 {
		return ErrBracketAlreadyGenerated
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.DeletePreliminary(ctx, tx, configID); err != nil {
			return err
		}
		if err := s.groupRepo.ResetStandings(ctx, tx, configID); err != nil {
			return err
		}
		return s.configRepo.UpdateStatus(ctx, tx, configID, models.BracketStatusDraft)
	})
	if err != nil {
		return err
	}

	s.broadcaster.BroadcastToRoom(realtime.RoomID(configID), realtime.Event{
		Type:    realtime.EventBracketDeleted,
		Payload: map[string]interface{}{"config_id": configID, "scope": "preliminary"},
	})
	return nil
}

// DeleteGroups tears down the group layout entirely. Matches and teams go
// with their groups via cascade.
func (s *preliminaryService) DeleteGroups(ctx context.Context, configID int) error {
	if _, err := s.configRepo.GetByID(ctx, configID); err != nil {
		return mapRepoError(err)
	}
	maxRound, err := s.matchRepo.MaxMainRound(ctx, configID)
	if err != nil {
		return err
	}
	if maxRound > 0 {
		return ErrBracketAlreadyGenerated
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.DeletePreliminary(ctx, tx, configID); err != nil {
			return err
		}
		if err := s.groupRepo.DeleteGroupsByConfig(ctx, tx, configID); err != nil {
			return err
		}
		return s.configRepo.UpdateStatus(ctx, tx, configID, models.BracketStatusDraft)
	})
}

// GroupStandings returns the group's teams in their current standing order.
func (s *preliminaryService) GroupStandings(ctx context.Context, groupID int) ([]models.GroupTeam, error) {
	if _, err := s.groupRepo.GetGroupByID(ctx, groupID); err != nil {
		return nil, mapRepoError(err)
	}
	teams, err := s.groupRepo.ListTeamsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	flat := make([]models.GroupTeam, len(teams))
	for i, t := range teams {
		flat[i] = *t
	}
	return brackets.SortStandings(flat), nil
}

// CommitFinalRanks pins the group's computed standing order as final ranks,
// the administrator's override point before main-bracket seeding. Refused
// while the group still has unplayed matches.
func (s *preliminaryService) CommitFinalRanks(ctx context.Context, groupID int) ([]models.GroupTeam, error) {
	group, err := s.groupRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	phase := models.PhasePreliminary
	matches, err := s.matchRepo.ListByConfig(ctx, group.ConfigID, repositories.MatchFilter{Phase: &phase, GroupID: intPtr(groupID)})
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted {
			return nil, ErrPriorRoundIncomplete
		}
	}

	sorted, err := s.GroupStandings(ctx, groupID)
	if err != nil {
		return nil, err
	}
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for i := range sorted {
			rank := i + 1
			if err := s.groupRepo.SetFinalRank(ctx, tx, sorted[i].ID, &rank); err != nil {
				return mapRepoError(err)
			}
			sorted[i].FinalRank = intPtr(rank)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sorted, nil
}

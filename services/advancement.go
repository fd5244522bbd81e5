package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/realtime"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

// Broadcaster pushes change notifications to everyone watching a bracket.
// *realtime.Hub satisfies it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event realtime.Event)
}

// AdvancementEngine applies the downstream effects of a completed match:
// standings accumulators for group play, successor slots for bracket play.
// It runs inside the caller's transaction so a failed propagation rolls the
// result back with it.
type AdvancementEngine struct {
	matchRepo repositories.BracketMatchRepository
	groupRepo repositories.GroupRepository
}

func NewAdvancementEngine(matchRepo repositories.BracketMatchRepository, groupRepo repositories.GroupRepository) *AdvancementEngine {
	return &AdvancementEngine{matchRepo: matchRepo, groupRepo: groupRepo}
}

// ApplyCompletion propagates a decided match. winnerScore and loserScore are
// the set counts from the winner's and loser's perspective. It returns the
// IDs of matches whose slots were filled, so the caller can notify watchers.
func (e *AdvancementEngine) ApplyCompletion(ctx context.Context, exec repositories.SQLExecutor, match *models.BracketMatch, winnerID, loserID, winnerScore, loserScore int) ([]int, error) {
	var touched []int

	if match.Phase == models.PhasePreliminary && match.GroupID != nil {
		if err := e.applyStandings(ctx, exec, *match.GroupID, winnerID, loserID, winnerScore, loserScore); err != nil {
			return nil, err
		}
	}

	if match.NextMatchID != nil && match.NextMatchSlot != nil {
		err := e.matchRepo.UpdateSlot(ctx, exec, *match.NextMatchID, *match.NextMatchSlot, &winnerID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return nil, fmt.Errorf("%w: next match %d", ErrPropagationTarget, *match.NextMatchID)
			}
			return nil, err
		}
		touched = append(touched, *match.NextMatchID)
	}

	if match.LoserNextMatchID != nil && match.LoserNextMatchSlot != nil {
		err := e.matchRepo.UpdateSlot(ctx, exec, *match.LoserNextMatchID, *match.LoserNextMatchSlot, &loserID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return nil, fmt.Errorf("%w: loser next match %d", ErrPropagationTarget, *match.LoserNextMatchID)
			}
			return nil, err
		}
		touched = append(touched, *match.LoserNextMatchID)
	}

	return touched, nil
}

// RevertCompletion undoes the downstream effects of a previously completed
// group match. Used when preliminary results are rolled back one by one;
// whole-config rollbacks go through GroupRepository.ResetStandings instead.
func (e *AdvancementEngine) RevertCompletion(ctx context.Context, exec repositories.SQLExecutor, match *models.BracketMatch, winnerID, loserID, winnerScore, loserScore int) error {
	if match.Phase != models.PhasePreliminary || match.GroupID == nil {
		return nil
	}
	winTeam, loseTeam, err := e.resolveTeams(ctx, *match.GroupID, winnerID, loserID)
	if err != nil {
		return err
	}
	if err := e.groupRepo.ApplyStandingsDelta(ctx, exec, winTeam.ID, -1, 0, -winnerScore, -loserScore); err != nil {
		return err
	}
	return e.groupRepo.ApplyStandingsDelta(ctx, exec, loseTeam.ID, 0, -1, -loserScore, -winnerScore)
}

func (e *AdvancementEngine) applyStandings(ctx context.Context, exec repositories.SQLExecutor, groupID, winnerID, loserID, winnerScore, loserScore int) error {
	winTeam, loseTeam, err := e.resolveTeams(ctx, groupID, winnerID, loserID)
	if err != nil {
		return err
	}
	if err := e.groupRepo.ApplyStandingsDelta(ctx, exec, winTeam.ID, 1, 0, winnerScore, loserScore); err != nil {
		return err
	}
	return e.groupRepo.ApplyStandingsDelta(ctx, exec, loseTeam.ID, 0, 1, loserScore, winnerScore)
}

func (e *AdvancementEngine) resolveTeams(ctx context.Context, groupID, winnerID, loserID int) (winTeam, loseTeam *models.GroupTeam, err error) {
	teams, err := e.groupRepo.ListTeamsByGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	for _, t := range teams {
		switch t.EntryID {
		case winnerID:
			winTeam = t
		case loserID:
			loseTeam = t
		}
	}
	if winTeam == nil || loseTeam == nil {
		return nil, nil, fmt.Errorf("%w: group %d is missing a seated team", ErrPropagationTarget, groupID)
	}
	return winTeam, loseTeam, nil
}

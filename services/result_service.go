package services

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/realtime"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

// RecordResultInput carries a submitted match result. Scores are set counts;
// Sets is the optional per-set breakdown of a team-format tie. BestOf bounds
// the set validation; zero means "as many sets as were submitted".
type RecordResultInput struct {
	Team1Score *int               `json:"team1_score"`
	Team2Score *int               `json:"team2_score"`
	BestOf     int                `json:"best_of,omitempty"`
	Sets       []models.SetDetail `json:"sets,omitempty"`
}

type ResultService interface {
	RecordResult(ctx context.Context, matchID int, input RecordResultInput) (*models.BracketMatch, error)
}

type resultService struct {
	db          *sql.DB
	matchRepo   repositories.BracketMatchRepository
	configRepo  repositories.BracketConfigRepository
	advancement *AdvancementEngine
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewResultService(
	db *sql.DB,
	matchRepo repositories.BracketMatchRepository,
	configRepo repositories.BracketConfigRepository,
	advancement *AdvancementEngine,
	broadcaster Broadcaster,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:          db,
		matchRepo:   matchRepo,
		configRepo:  configRepo,
		advancement: advancement,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *resultService) RecordResult(ctx context.Context, matchID int, input RecordResultInput) (*models.BracketMatch, error) {
	if input.Team1Score == nil || input.Team2Score == nil {
		return nil, ErrScoreRequired
	}
	if *input.Team1Score == *input.Team2Score {
		return nil, ErrTieScore
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	switch match.Status {
	case models.MatchStatusCompleted:
		return nil, ErrMatchAlreadyCompleted
	case models.MatchStatusBye:
		return nil, ErrMatchIsBye
	}
	if match.Team1EntryID == nil || match.Team2EntryID == nil {
		return nil, ErrEmptySlot
	}

	sets := input.Sets
	if len(sets) > 0 {
		sets, err = validateSets(input.BestOf, sets, *input.Team1Score, *input.Team2Score)
		if err != nil {
			return nil, err
		}
	}

	var winnerID, loserID, winnerScore, loserScore int
	if *input.Team1Score > *input.Team2Score {
		winnerID, loserID = *match.Team1EntryID, *match.Team2EntryID
		winnerScore, loserScore = *input.Team1Score, *input.Team2Score
	} else {
		winnerID, loserID = *match.Team2EntryID, *match.Team1EntryID
		winnerScore, loserScore = *input.Team2Score, *input.Team1Score
	}

	var touched []int
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateResult(ctx, tx, matchID, input.Team1Score, input.Team2Score, &winnerID, models.MatchStatusCompleted, sets); err != nil {
			return mapRepoError(err)
		}
		touched, err = s.advancement.ApplyCompletion(ctx, tx, match, winnerID, loserID, winnerScore, loserScore)
		if err != nil {
			return err
		}
		if match.Phase == models.PhaseFinal {
			if err := s.configRepo.UpdateStatus(ctx, tx, match.ConfigID, models.BracketStatusCompleted); err != nil {
				return mapRepoError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.notify(ctx, updated, touched)
	return updated, nil
}

// notify pushes the recorded match and every slot it filled, each as a
// narrow patch.
func (s *resultService) notify(ctx context.Context, updated *models.BracketMatch, touched []int) {
	room := realtime.RoomID(updated.ConfigID)
	s.broadcaster.BroadcastToRoom(room, realtime.Event{
		Type:    realtime.EventMatchUpdated,
		Payload: models.PatchOf(updated),
	})
	for _, id := range touched {
		m, err := s.matchRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load propagated match for notification",
				slog.Int("match_id", id), slog.Any("error", err))
			continue
		}
		s.broadcaster.BroadcastToRoom(room, realtime.Event{
			Type:    realtime.EventMatchUpdated,
			Payload: models.PatchOf(m),
		})
	}
}

// validateSets checks a per-set breakdown against the submitted set counts.
// Sets past the deciding one are dropped, tie sets are rejected, and a
// player may take the court for their side in at most one set of the tie.
func validateSets(bestOf int, sets []models.SetDetail, score1, score2 int) ([]models.SetDetail, error) {
	if bestOf <= 0 {
		bestOf = len(sets)
	}
	needed := bestOf/2 + 1

	kept := make([]models.SetDetail, 0, len(sets))
	var wins1, wins2 int
	played1 := make(map[int]bool)
	played2 := make(map[int]bool)

	for _, set := range sets {
		side := set.WinnerSide()
		if side == 0 {
			return nil, ErrInvalidSetDetail
		}
		if set.Games1 < 0 || set.Games2 < 0 {
			return nil, ErrInvalidSetDetail
		}
		if err := claimPlayers(played1, set.Team1Players); err != nil {
			return nil, err
		}
		if err := claimPlayers(played2, set.Team2Players); err != nil {
			return nil, err
		}
		if side == 1 {
			wins1++
		} else {
			wins2++
		}
		set.SetNumber = len(kept) + 1
		kept = append(kept, set)
		if wins1 == needed || wins2 == needed {
			break
		}
	}

	if wins1 < needed && wins2 < needed {
		return nil, ErrMatchNotDecided
	}
	if wins1 != score1 || wins2 != score2 {
		return nil, ErrScoreSetMismatch
	}
	return kept, nil
}

func claimPlayers(played map[int]bool, lineup []int) error {
	seen := make(map[int]bool, len(lineup))
	for _, p := range lineup {
		if seen[p] {
			return ErrInvalidSetDetail
		}
		seen[p] = true
		if played[p] {
			return ErrPlayerRepeats
		}
	}
	for p := range seen {
		played[p] = true
	}
	return nil
}

package services

import (
	"context"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
	"github.com/jeonghakhur/tennis-tab-sub000/storage"
)

// MatchService serves the read side: matches joined with entry names and
// club logos for display. Writes go through ResultService and the seeding
// services.
type MatchService interface {
	ListDisplayMatches(ctx context.Context, configID int, filter repositories.MatchFilter) ([]*models.BracketMatch, error)
	GetDisplayMatch(ctx context.Context, matchID int) (*models.BracketMatch, error)
}

type matchService struct {
	matchRepo repositories.BracketMatchRepository
	entryRepo repositories.EntryRepository
	assets    storage.AssetStore
}

func NewMatchService(matchRepo repositories.BracketMatchRepository, entryRepo repositories.EntryRepository, assets storage.AssetStore) MatchService {
	return &matchService{matchRepo: matchRepo, entryRepo: entryRepo, assets: assets}
}

func (s *matchService) ListDisplayMatches(ctx context.Context, configID int, filter repositories.MatchFilter) ([]*models.BracketMatch, error) {
	matches, err := s.matchRepo.ListByConfig(ctx, configID, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachSides(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *matchService) GetDisplayMatch(ctx context.Context, matchID int) (*models.BracketMatch, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.attachSides(ctx, []*models.BracketMatch{match}); err != nil {
		return nil, err
	}
	return match, nil
}

// attachSides resolves every seated entry referenced by the matches in one
// query and hangs presentation views off the match slots.
func (s *matchService) attachSides(ctx context.Context, matches []*models.BracketMatch) error {
	idSet := make(map[int]bool)
	for _, m := range matches {
		if m.Team1EntryID != nil {
			idSet[*m.Team1EntryID] = true
		}
		if m.Team2EntryID != nil {
			idSet[*m.Team2EntryID] = true
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]int, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	entries, err := s.entryRepo.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	sides := make(map[int]*models.MatchSide, len(entries))
	for _, e := range entries {
		sides[e.ID] = s.sideOf(e)
	}

	for _, m := range matches {
		if m.Team1EntryID != nil {
			m.Team1 = sides[*m.Team1EntryID]
		}
		if m.Team2EntryID != nil {
			m.Team2 = sides[*m.Team2EntryID]
		}
	}
	return nil
}

func (s *matchService) sideOf(e *models.Entry) *models.MatchSide {
	side := &models.MatchSide{
		EntryID:    e.ID,
		PlayerName: e.DisplayName(),
		ClubName:   e.ClubName,
	}
	if e.LogoKey != nil && s.assets != nil {
		url := s.assets.GetPublicURL(*e.LogoKey)
		side.LogoURL = &url
	}
	return side
}

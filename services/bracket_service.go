package services

import (
	"context"
	"database/sql"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/jeonghakhur/tennis-tab-sub000/brackets"
	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/realtime"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
	"github.com/jeonghakhur/tennis-tab-sub000/storage"
)

type BracketService interface {
	GenerateMainBracket(ctx context.Context, configID int, seedOrder []*int, positional bool) ([]*models.BracketMatch, error)
	GenerateNextRound(ctx context.Context, configID int, seedOrder []int) ([]*models.BracketMatch, error)
	DeleteRound(ctx context.Context, configID, round int) error
	DeleteMainBracket(ctx context.Context, configID int) error
	DeleteConfig(ctx context.Context, configID int) error
	GetDivisionBracket(ctx context.Context, divisionID int) (*models.BracketConfig, error)
}

type bracketService struct {
	db           *sql.DB
	configRepo   repositories.BracketConfigRepository
	groupRepo    repositories.GroupRepository
	entryRepo    repositories.EntryRepository
	matchRepo    repositories.BracketMatchRepository
	matchService MatchService
	assets       storage.AssetStore
	broadcaster  Broadcaster
	logger       *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	configRepo repositories.BracketConfigRepository,
	groupRepo repositories.GroupRepository,
	entryRepo repositories.EntryRepository,
	matchRepo repositories.BracketMatchRepository,
	matchService MatchService,
	assets storage.AssetStore,
	broadcaster Broadcaster,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:           db,
		configRepo:   configRepo,
		groupRepo:    groupRepo,
		entryRepo:    entryRepo,
		matchRepo:    matchRepo,
		matchService: matchService,
		assets:       assets,
		broadcaster:  broadcaster,
		logger:       logger,
	}
}

// GenerateMainBracket expands a committed seed order into the whole
// elimination tree at once. The caller states which kind of order it sends:
// a positional order has bracket-size length with nil entries as open
// slots and is persisted exactly as laid out; a ranked list is folded onto
// the inferred bracket first. BYEs resolve at generation time.
func (s *bracketService) GenerateMainBracket(ctx context.Context, configID int, seedOrder []*int, positional bool) ([]*models.BracketMatch, error) {
	config, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	maxRound, err := s.matchRepo.MaxMainRound(ctx, configID)
	if err != nil {
		return nil, err
	}
	if config.BracketSize != nil || maxRound > 0 {
		return nil, ErrBracketAlreadyGenerated
	}

	order, size, err := normalizeSeedOrder(seedOrder, positional)
	if err != nil {
		return nil, err
	}

	planned, err := brackets.BuildSingleElimination(order, config.ThirdPlaceMatch)
	if err != nil {
		return nil, err
	}

	var created []*models.BracketMatch
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		created, err = s.persistPlanned(ctx, tx, configID, planned)
		if err != nil {
			return err
		}
		if err := s.configRepo.SetBracketSize(ctx, tx, configID, &size); err != nil {
			return mapRepoError(err)
		}
		return s.configRepo.UpdateStatus(ctx, tx, configID, models.BracketStatusMain)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("generated main bracket",
		slog.Int("config_id", configID),
		slog.Int("bracket_size", size),
		slog.Int("matches", len(created)))
	s.broadcaster.BroadcastToRoom(realtime.RoomID(configID), realtime.Event{
		Type:    realtime.EventBracketGenerated,
		Payload: map[string]int{"config_id": configID, "bracket_size": size},
	})
	return created, nil
}

// GenerateNextRound creates one round at a time. The first call seeds round
// one from the preliminary standings (or an explicit seed order); later
// calls fold the previous round's winners, so the administrator can reseed
// between rounds instead of committing the whole tree up front.
func (s *bracketService) GenerateNextRound(ctx context.Context, configID int, seedOrder []int) ([]*models.BracketMatch, error) {
	config, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	maxRound, err := s.matchRepo.MaxMainRound(ctx, configID)
	if err != nil {
		return nil, err
	}

	if maxRound == 0 {
		return s.generateFirstRound(ctx, config, seedOrder)
	}
	return s.generateFollowingRound(ctx, config, maxRound, seedOrder)
}

func (s *bracketService) generateFirstRound(ctx context.Context, config *models.BracketConfig, seedOrder []int) ([]*models.BracketMatch, error) {
	ranked := seedOrder
	if len(ranked) == 0 {
		var err error
		ranked, err = s.qualifiersFromStandings(ctx, config)
		if err != nil {
			return nil, err
		}
	}
	if len(ranked) == 0 {
		return nil, ErrEmptySeedOrder
	}

	size, err := brackets.InferBracketSize(len(ranked))
	if err != nil {
		return nil, ErrTooManyTeams
	}
	totalRounds := int(math.Log2(float64(size)))

	pairs, err := brackets.SeedFold(ranked, size/2)
	if err != nil {
		return nil, err
	}
	planned, err := brackets.BuildRound(pairs, 1, totalRounds)
	if err != nil {
		return nil, err
	}

	var created []*models.BracketMatch
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		created, err = s.persistPlanned(ctx, tx, config.ID, planned)
		if err != nil {
			return err
		}
		if err := s.configRepo.SetBracketSize(ctx, tx, config.ID, &size); err != nil {
			return mapRepoError(err)
		}
		return s.configRepo.UpdateStatus(ctx, tx, config.ID, models.BracketStatusMain)
	})
	if err != nil {
		return nil, err
	}

	s.notifyRound(config.ID, 1, len(created))
	return created, nil
}

func (s *bracketService) generateFollowingRound(ctx context.Context, config *models.BracketConfig, maxRound int, seedOrder []int) ([]*models.BracketMatch, error) {
	if config.BracketSize == nil {
		return nil, ErrBracketNotGenerated
	}
	totalRounds := int(math.Log2(float64(*config.BracketSize)))
	if maxRound >= totalRounds {
		return nil, ErrBracketComplete
	}

	prior, err := s.matchRepo.ListByConfig(ctx, config.ID, repositories.MatchFilter{RoundNumber: &maxRound, MainOnly: true})
	if err != nil {
		return nil, err
	}
	winnerOf := make(map[int]*models.BracketMatch, len(prior))
	winners := make([]int, 0, len(prior))
	for _, m := range prior {
		if m.Status != models.MatchStatusCompleted && m.Status != models.MatchStatusBye {
			return nil, ErrPriorRoundIncomplete
		}
		if m.WinnerEntryID == nil {
			return nil, ErrPriorRoundIncomplete
		}
		winnerOf[*m.WinnerEntryID] = m
		winners = append(winners, *m.WinnerEntryID)
	}

	ranked := winners
	if len(seedOrder) > 0 {
		if len(seedOrder) != len(winners) {
			return nil, ErrEmptySeedOrder
		}
		for _, id := range seedOrder {
			if _, ok := winnerOf[id]; !ok {
				return nil, ErrEmptySeedOrder
			}
		}
		ranked = seedOrder
	}

	nextRound := maxRound + 1
	pairs, err := brackets.SeedFold(ranked, len(prior)/2)
	if err != nil {
		return nil, err
	}
	planned, err := brackets.BuildRound(pairs, nextRound, totalRounds)
	if err != nil {
		return nil, err
	}
	if nextRound == totalRounds && config.ThirdPlaceMatch && len(prior) == 2 {
		planned = append(planned, s.planThirdPlace(prior, totalRounds))
	}

	var created []*models.BracketMatch
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		created, err = s.persistPlanned(ctx, tx, config.ID, planned)
		if err != nil {
			return err
		}
		return s.wirePriorRound(ctx, tx, prior, created, config.ThirdPlaceMatch && nextRound == totalRounds)
	})
	if err != nil {
		return nil, err
	}

	s.notifyRound(config.ID, nextRound, len(created))
	return created, nil
}

// planThirdPlace builds the bronze match from the semifinal losers. A
// semifinal decided by BYE contributes no loser; that slot stays open.
func (s *bracketService) planThirdPlace(semis []*models.BracketMatch, totalRounds int) *brackets.PlannedMatch {
	tp := &brackets.PlannedMatch{
		UID:         brackets.ThirdPlaceUID,
		Phase:       models.PhaseThirdPlace,
		Round:       totalRounds,
		MatchNumber: 2,
		Status:      models.MatchStatusScheduled,
	}
	for i, semi := range semis {
		loser := loserOf(semi)
		if i == 0 {
			tp.Team1 = loser
		} else {
			tp.Team2 = loser
		}
	}
	if tp.Team1 != nil && tp.Team2 == nil {
		tp.Status = models.MatchStatusBye
		tp.Winner = tp.Team1
	} else if tp.Team1 == nil && tp.Team2 != nil {
		tp.Status = models.MatchStatusBye
		tp.Winner = tp.Team2
	}
	return tp
}

func loserOf(m *models.BracketMatch) *int {
	if m.WinnerEntryID == nil {
		return nil
	}
	if m.Team1EntryID != nil && *m.Team1EntryID != *m.WinnerEntryID {
		return m.Team1EntryID
	}
	if m.Team2EntryID != nil && *m.Team2EntryID != *m.WinnerEntryID {
		return m.Team2EntryID
	}
	return nil
}

// persistPlanned writes planned matches in two passes: create every row
// first, then resolve UID successor links to the row IDs the inserts
// produced. BYE rows carry their winner from the start.
func (s *bracketService) persistPlanned(ctx context.Context, tx *sql.Tx, configID int, planned []*brackets.PlannedMatch) ([]*models.BracketMatch, error) {
	created := make([]*models.BracketMatch, 0, len(planned))
	idByUID := make(map[string]int, len(planned))

	for _, pm := range planned {
		match := &models.BracketMatch{
			ConfigID:      configID,
			Phase:         pm.Phase,
			RoundNumber:   pm.Round,
			MatchNumber:   pm.MatchNumber,
			Team1EntryID:  pm.Team1,
			Team2EntryID:  pm.Team2,
			WinnerEntryID: pm.Winner,
			Status:        pm.Status,
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, mapRepoError(err)
		}
		idByUID[pm.UID] = match.ID
		created = append(created, match)
	}

	for i, pm := range planned {
		if pm.NextUID != nil {
			nextID, ok := idByUID[*pm.NextUID]
			if !ok {
				return nil, ErrPropagationTarget
			}
			if err := s.matchRepo.UpdateNextMatchInfo(ctx, tx, created[i].ID, &nextID, pm.NextSlot); err != nil {
				return nil, mapRepoError(err)
			}
			created[i].NextMatchID = &nextID
			created[i].NextMatchSlot = pm.NextSlot
		}
		if pm.LoserNextUID != nil {
			loserNextID, ok := idByUID[*pm.LoserNextUID]
			if !ok {
				return nil, ErrPropagationTarget
			}
			if err := s.matchRepo.UpdateLoserNextMatchInfo(ctx, tx, created[i].ID, &loserNextID, pm.LoserNextSlot); err != nil {
				return nil, mapRepoError(err)
			}
			created[i].LoserNextMatchID = &loserNextID
			created[i].LoserNextMatchSlot = pm.LoserNextSlot
		}
	}
	return created, nil
}

// wirePriorRound points each match of the previous round at the new match
// holding its winner, and semifinals additionally at the bronze match.
func (s *bracketService) wirePriorRound(ctx context.Context, tx *sql.Tx, prior, created []*models.BracketMatch, wireLosers bool) error {
	for _, next := range created {
		if next.Phase == models.PhaseThirdPlace {
			continue
		}
		for slot, occupant := range map[int]*int{1: next.Team1EntryID, 2: next.Team2EntryID} {
			if occupant == nil {
				continue
			}
			src := findByWinner(prior, *occupant)
			if src == nil {
				return ErrPropagationTarget
			}
			slot := slot
			if err := s.matchRepo.UpdateNextMatchInfo(ctx, tx, src.ID, &next.ID, &slot); err != nil {
				return mapRepoError(err)
			}
		}
	}
	if wireLosers {
		var tp *models.BracketMatch
		for _, m := range created {
			if m.Phase == models.PhaseThirdPlace {
				tp = m
				break
			}
		}
		if tp != nil {
			for i, semi := range prior {
				slot := i + 1
				if err := s.matchRepo.UpdateLoserNextMatchInfo(ctx, tx, semi.ID, &tp.ID, &slot); err != nil {
					return mapRepoError(err)
				}
			}
		}
	}
	return nil
}

func findByWinner(matches []*models.BracketMatch, entryID int) *models.BracketMatch {
	for _, m := range matches {
		if m.WinnerEntryID != nil && *m.WinnerEntryID == entryID {
			return m
		}
	}
	return nil
}

// qualifiersFromStandings ranks group qualifiers across groups: every group
// winner first, then every runner-up, and so on, preserving group order
// within a tier. Requires all preliminary matches to be finished.
func (s *bracketService) qualifiersFromStandings(ctx context.Context, config *models.BracketConfig) ([]int, error) {
	groups, err := s.groupRepo.ListGroupsByConfig(ctx, config.ID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrEmptySeedOrder
	}

	phase := models.PhasePreliminary
	prelim, err := s.matchRepo.ListByConfig(ctx, config.ID, repositories.MatchFilter{Phase: &phase})
	if err != nil {
		return nil, err
	}
	if len(prelim) == 0 {
		return nil, ErrEmptySeedOrder
	}
	for _, m := range prelim {
		if m.Status != models.MatchStatusCompleted {
			return nil, ErrPriorRoundIncomplete
		}
	}

	tiers := make([][]int, 0)
	for _, group := range groups {
		teams, err := s.groupRepo.ListTeamsByGroup(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		flat := make([]models.GroupTeam, len(teams))
		for i, t := range teams {
			flat[i] = *t
		}
		for pos, t := range brackets.SortStandings(flat) {
			if pos >= len(tiers) {
				tiers = append(tiers, nil)
			}
			tiers[pos] = append(tiers[pos], t.EntryID)
		}
	}

	ranked := make([]int, 0)
	for _, tier := range tiers {
		ranked = append(ranked, tier...)
	}
	return ranked, nil
}

// DeleteRound removes one main round after clearing the previous round's
// successor pointers into it, reversing generation one step. Only the most
// recent round may go; a stale caller naming an earlier round is rejected
// rather than silently deleting whatever is latest now. Deleting round one
// clears the bracket size too, so generation can start over.
func (s *bracketService) DeleteRound(ctx context.Context, configID, round int) error {
	config, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return mapRepoError(err)
	}
	maxRound, err := s.matchRepo.MaxMainRound(ctx, configID)
	if err != nil {
		return err
	}
	if maxRound == 0 {
		return ErrBracketNotGenerated
	}
	if round != maxRound {
		return ErrNotLatestRound
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if maxRound > 1 {
			priorRound := maxRound - 1
			prior, err := s.matchRepo.ListByConfig(ctx, configID, repositories.MatchFilter{RoundNumber: &priorRound, MainOnly: true})
			if err != nil {
				return err
			}
			for _, m := range prior {
				if m.NextMatchID != nil {
					if err := s.matchRepo.UpdateNextMatchInfo(ctx, tx, m.ID, nil, nil); err != nil {
						return mapRepoError(err)
					}
				}
				if m.LoserNextMatchID != nil {
					if err := s.matchRepo.UpdateLoserNextMatchInfo(ctx, tx, m.ID, nil, nil); err != nil {
						return mapRepoError(err)
					}
				}
			}
		}
		if err := s.matchRepo.DeleteMainByRound(ctx, tx, configID, maxRound); err != nil {
			return err
		}
		if maxRound == 1 {
			return s.rollbackMainStatus(ctx, tx, config)
		}
		if config.Status == models.BracketStatusCompleted {
			return s.configRepo.UpdateStatus(ctx, tx, configID, models.BracketStatusMain)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcaster.BroadcastToRoom(realtime.RoomID(configID), realtime.Event{
		Type:    realtime.EventRoundDeleted,
		Payload: map[string]int{"config_id": configID, "round": maxRound},
	})
	return nil
}

// DeleteMainBracket removes every main-phase match, keeping the preliminary
// stage intact.
func (s *bracketService) DeleteMainBracket(ctx context.Context, configID int) error {
	config, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return mapRepoError(err)
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.DeleteMain(ctx, tx, configID); err != nil {
			return err
		}
		return s.rollbackMainStatus(ctx, tx, config)
	})
	if err != nil {
		return err
	}

	s.broadcaster.BroadcastToRoom(realtime.RoomID(configID), realtime.Event{
		Type:    realtime.EventBracketDeleted,
		Payload: map[string]interface{}{"config_id": configID, "scope": "main"},
	})
	return nil
}

func (s *bracketService) rollbackMainStatus(ctx context.Context, tx *sql.Tx, config *models.BracketConfig) error {
	if err := s.configRepo.SetBracketSize(ctx, tx, config.ID, nil); err != nil {
		return mapRepoError(err)
	}
	count, err := s.matchRepo.CountPreliminary(ctx, config.ID)
	if err != nil {
		return err
	}
	status := models.BracketStatusDraft
	if count > 0 {
		status = models.BracketStatusPreliminary
	}
	return mapRepoError(s.configRepo.UpdateStatus(ctx, tx, config.ID, status))
}

// DeleteConfig removes the whole bracket tree for a division. Groups, teams
// and matches go via cascade; stored logo objects of the seated entries are
// torn down afterwards, best effort.
func (s *bracketService) DeleteConfig(ctx context.Context, configID int) error {
	if _, err := s.configRepo.GetByID(ctx, configID); err != nil {
		return mapRepoError(err)
	}
	logoKeys, err := s.seatedLogoKeys(ctx, configID)
	if err != nil {
		return err
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		return mapRepoError(s.configRepo.Delete(ctx, tx, configID))
	})
	if err != nil {
		return err
	}

	for _, key := range logoKeys {
		if err := s.assets.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete stored logo",
				slog.Int("config_id", configID),
				slog.String("key", key),
				slog.Any("error", err))
		}
	}
	s.broadcaster.BroadcastToRoom(realtime.RoomID(configID), realtime.Event{
		Type:    realtime.EventBracketDeleted,
		Payload: map[string]interface{}{"config_id": configID, "scope": "all"},
	})
	return nil
}

// seatedLogoKeys collects the distinct stored logo keys of every entry
// seated in the config's groups, resolved before the cascade removes the
// seating rows.
func (s *bracketService) seatedLogoKeys(ctx context.Context, configID int) ([]string, error) {
	if s.assets == nil {
		return nil, nil
	}
	teams, err := s.groupRepo.ListTeamsByConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	entryIDs := make([]int, 0, len(teams))
	for _, t := range teams {
		entryIDs = append(entryIDs, t.EntryID)
	}
	entries, err := s.entryRepo.ListByIDs(ctx, entryIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	keys := make([]string, 0)
	for _, e := range entries {
		if e.LogoKey == nil || *e.LogoKey == "" || seen[*e.LogoKey] {
			continue
		}
		seen[*e.LogoKey] = true
		keys = append(keys, *e.LogoKey)
	}
	return keys, nil
}

// GetDivisionBracket assembles the full client view of a division: config,
// groups with seated entries, and display-ready matches, fetched
// concurrently.
func (s *bracketService) GetDivisionBracket(ctx context.Context, divisionID int) (*models.BracketConfig, error) {
	config, err := s.configRepo.GetByDivision(ctx, divisionID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var groups []models.PreliminaryGroup
	g.Go(func() error {
		loaded, err := s.loadGroupsWithEntries(gctx, config.ID)
		if err == nil {
			groups = loaded
		}
		return err
	})

	var matches []models.BracketMatch
	g.Go(func() error {
		listed, err := s.matchService.ListDisplayMatches(gctx, config.ID, repositories.MatchFilter{})
		if err != nil {
			return err
		}
		matches = make([]models.BracketMatch, len(listed))
		for i, m := range listed {
			matches[i] = *m
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	config.Groups = groups
	config.Matches = matches
	return config, nil
}

func (s *bracketService) loadGroupsWithEntries(ctx context.Context, configID int) ([]models.PreliminaryGroup, error) {
	groups, err := s.groupRepo.ListGroupsByConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	teams, err := s.groupRepo.ListTeamsByConfig(ctx, configID)
	if err != nil {
		return nil, err
	}

	entryIDs := make([]int, 0, len(teams))
	for _, t := range teams {
		entryIDs = append(entryIDs, t.EntryID)
	}
	entries, err := s.entryRepo.ListByIDs(ctx, entryIDs)
	if err != nil {
		return nil, err
	}
	entryByID := make(map[int]*models.Entry, len(entries))
	for _, e := range entries {
		if e.LogoKey != nil && s.assets != nil {
			url := s.assets.GetPublicURL(*e.LogoKey)
			e.LogoURL = &url
		}
		entryByID[e.ID] = e
	}

	byGroup := make(map[int][]models.GroupTeam, len(groups))
	for _, t := range teams {
		t.Entry = entryByID[t.EntryID]
		byGroup[t.GroupID] = append(byGroup[t.GroupID], *t)
	}

	result := make([]models.PreliminaryGroup, len(groups))
	for i, group := range groups {
		group.Teams = byGroup[group.ID]
		result[i] = *group
	}
	return result, nil
}

// normalizeSeedOrder prepares a seed order for tree building. A positional
// order must already span a bracket size; its open slots stay where the
// administrator put them. A ranked order of any length is folded onto the
// inferred bracket, regardless of whether its length happens to be a power
// of two.
func normalizeSeedOrder(seedOrder []*int, positional bool) ([]*int, int, error) {
	nonNil := make([]int, 0, len(seedOrder))
	for _, id := range seedOrder {
		if id != nil {
			nonNil = append(nonNil, *id)
		}
	}
	if len(nonNil) == 0 {
		return nil, 0, ErrEmptySeedOrder
	}

	if positional {
		n := len(seedOrder)
		if n < 4 || n > 128 || n&(n-1) != 0 {
			return nil, 0, ErrSeedOrderSize
		}
		return seedOrder, n, nil
	}

	size, err := brackets.InferBracketSize(len(nonNil))
	if err != nil {
		return nil, 0, ErrTooManyTeams
	}
	pairs, err := brackets.SeedFold(nonNil, size/2)
	if err != nil {
		return nil, 0, err
	}
	return brackets.FlattenPairs(pairs), size, nil
}

func (s *bracketService) notifyRound(configID, round, count int) {
	s.logger.Info("generated bracket round",
		slog.Int("config_id", configID),
		slog.Int("round", round),
		slog.Int("matches", count))
	s.broadcaster.BroadcastToRoom(realtime.RoomID(configID), realtime.Event{
		Type:    realtime.EventRoundGenerated,
		Payload: map[string]int{"config_id": configID, "round": round, "match_count": count},
	})
}

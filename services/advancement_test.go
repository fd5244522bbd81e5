package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

// fakeMatchRepo implements just enough of BracketMatchRepository for the
// advancement engine: slot updates against an in-memory table.
type fakeMatchRepo struct {
	repositories.BracketMatchRepository
	matches map[int]*models.BracketMatch
}

func newFakeMatchRepo(matches ...*models.BracketMatch) *fakeMatchRepo {
	repo := &fakeMatchRepo{matches: make(map[int]*models.BracketMatch)}
	for _, m := range matches {
		repo.matches[m.ID] = m
	}
	return repo
}

func (f *fakeMatchRepo) UpdateSlot(ctx context.Context, exec repositories.SQLExecutor, matchID, slot int, entryID *int) error {
	m, ok := f.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == 1 {
		m.Team1EntryID = entryID
	} else {
		m.Team2EntryID = entryID
	}
	return nil
}

// fakeGroupRepo tracks standings deltas per team.
type fakeGroupRepo struct {
	repositories.GroupRepository
	teams map[int]*models.GroupTeam
}

func newFakeGroupRepo(teams ...*models.GroupTeam) *fakeGroupRepo {
	repo := &fakeGroupRepo{teams: make(map[int]*models.GroupTeam)}
	for _, t := range teams {
		repo.teams[t.ID] = t
	}
	return repo
}

func (f *fakeGroupRepo) ListTeamsByGroup(ctx context.Context, groupID int) ([]*models.GroupTeam, error) {
	out := make([]*models.GroupTeam, 0, len(f.teams))
	for _, t := range f.teams {
		if t.GroupID == groupID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) ApplyStandingsDelta(ctx context.Context, exec repositories.SQLExecutor, teamID, winDelta, lossDelta, forDelta, againstDelta int) error {
	t, ok := f.teams[teamID]
	if !ok {
		return repositories.ErrGroupTeamNotFound
	}
	t.Wins += winDelta
	t.Losses += lossDelta
	t.PointsFor += forDelta
	t.PointsAgainst += againstDelta
	return nil
}

func TestApplyCompletionGroupMatch(t *testing.T) {
	teamA := &models.GroupTeam{ID: 1, GroupID: 5, EntryID: 100}
	teamB := &models.GroupTeam{ID: 2, GroupID: 5, EntryID: 200}
	groups := newFakeGroupRepo(teamA, teamB)
	matches := newFakeMatchRepo()
	engine := NewAdvancementEngine(matches, groups)

	match := &models.BracketMatch{
		ID:           10,
		Phase:        models.PhasePreliminary,
		GroupID:      intPtr(5),
		Team1EntryID: intPtr(100),
		Team2EntryID: intPtr(200),
	}
	touched, err := engine.ApplyCompletion(context.Background(), nil, match, 100, 200, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, touched, "group matches have no successor slots")

	assert.Equal(t, 1, teamA.Wins)
	assert.Equal(t, 2, teamA.PointsFor)
	assert.Equal(t, 1, teamA.PointsAgainst)
	assert.Equal(t, 1, teamB.Losses)
	assert.Equal(t, 1, teamB.PointsFor)
	assert.Equal(t, 2, teamB.PointsAgainst)
}

func TestApplyCompletionSeatsWinnerAndLoser(t *testing.T) {
	final := &models.BracketMatch{ID: 30}
	bronze := &models.BracketMatch{ID: 31}
	matches := newFakeMatchRepo(final, bronze)
	engine := NewAdvancementEngine(matches, newFakeGroupRepo())

	semi := &models.BracketMatch{
		ID:                 20,
		Phase:              models.PhaseSemi,
		Team1EntryID:       intPtr(100),
		Team2EntryID:       intPtr(200),
		NextMatchID:        intPtr(30),
		NextMatchSlot:      intPtr(2),
		LoserNextMatchID:   intPtr(31),
		LoserNextMatchSlot: intPtr(1),
	}
	touched, err := engine.ApplyCompletion(context.Background(), nil, semi, 200, 100, 2, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{30, 31}, touched)

	require.NotNil(t, final.Team2EntryID)
	assert.Equal(t, 200, *final.Team2EntryID)
	require.NotNil(t, bronze.Team1EntryID)
	assert.Equal(t, 100, *bronze.Team1EntryID)
}

func TestApplyCompletionMissingTarget(t *testing.T) {
	engine := NewAdvancementEngine(newFakeMatchRepo(), newFakeGroupRepo())

	match := &models.BracketMatch{
		ID:            20,
		Phase:         models.PhaseQuarter,
		Team1EntryID:  intPtr(100),
		Team2EntryID:  intPtr(200),
		NextMatchID:   intPtr(999),
		NextMatchSlot: intPtr(1),
	}
	_, err := engine.ApplyCompletion(context.Background(), nil, match, 100, 200, 2, 0)
	require.ErrorIs(t, err, ErrPropagationTarget)
}

func TestRevertCompletion(t *testing.T) {
	teamA := &models.GroupTeam{ID: 1, GroupID: 5, EntryID: 100, Wins: 1, PointsFor: 2, PointsAgainst: 1}
	teamB := &models.GroupTeam{ID: 2, GroupID: 5, EntryID: 200, Losses: 1, PointsFor: 1, PointsAgainst: 2}
	groups := newFakeGroupRepo(teamA, teamB)
	engine := NewAdvancementEngine(newFakeMatchRepo(), groups)

	match := &models.BracketMatch{
		ID:      10,
		Phase:   models.PhasePreliminary,
		GroupID: intPtr(5),
	}
	err := engine.RevertCompletion(context.Background(), nil, match, 100, 200, 2, 1)
	require.NoError(t, err)

	assert.Zero(t, teamA.Wins)
	assert.Zero(t, teamA.PointsFor)
	assert.Zero(t, teamA.PointsAgainst)
	assert.Zero(t, teamB.Losses)
	assert.Zero(t, teamB.PointsFor)
	assert.Zero(t, teamB.PointsAgainst)
}

package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/realtime"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

func set(n, g1, g2 int) models.SetDetail {
	return models.SetDetail{SetNumber: n, Games1: g1, Games2: g2}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.BracketMatch, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, matchID int, score1, score2, winnerEntryID *int, status models.MatchStatus, sets []models.SetDetail) error {
	m, ok := f.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Team1Score = score1
	m.Team2Score = score2
	m.WinnerEntryID = winnerEntryID
	m.Status = status
	m.Sets = sets
	return nil
}

type fakeConfigRepo struct {
	repositories.BracketConfigRepository
	configs map[int]*models.BracketConfig
}

func newFakeConfigRepo(configs ...*models.BracketConfig) *fakeConfigRepo {
	repo := &fakeConfigRepo{configs: make(map[int]*models.BracketConfig)}
	for _, c := range configs {
		repo.configs[c.ID] = c
	}
	return repo
}

func (f *fakeConfigRepo) GetByID(ctx context.Context, id int) (*models.BracketConfig, error) {
	c, ok := f.configs[id]
	if !ok {
		return nil, repositories.ErrBracketConfigNotFound
	}
	return c, nil
}

func (f *fakeConfigRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.BracketStatus) error {
	c, ok := f.configs[id]
	if !ok {
		return repositories.ErrBracketConfigNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeConfigRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := f.configs[id]; !ok {
		return repositories.ErrBracketConfigNotFound
	}
	delete(f.configs, id)
	return nil
}

type fakeBroadcaster struct {
	events []realtime.Event
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, event realtime.Event) {
	f.events = append(f.events, event)
}

func TestRecordResultRejectsTie(t *testing.T) {
	match := &models.BracketMatch{
		ID:           1,
		ConfigID:     9,
		Phase:        models.PhaseSemi,
		Team1EntryID: intPtr(101),
		Team2EntryID: intPtr(104),
		Status:       models.MatchStatusScheduled,
	}
	repo := newFakeMatchRepo(match)
	bc := &fakeBroadcaster{}
	svc := NewResultService(nil, repo, newFakeConfigRepo(), NewAdvancementEngine(repo, newFakeGroupRepo()), bc, discardLogger())

	_, err := svc.RecordResult(context.Background(), 1, RecordResultInput{Team1Score: intPtr(6), Team2Score: intPtr(6)})
	require.ErrorIs(t, err, ErrTieScore)
	assert.Equal(t, models.MatchStatusScheduled, match.Status, "a rejected result leaves the match untouched")
	assert.Nil(t, match.WinnerEntryID)
	assert.Empty(t, bc.events)
}

func TestRecordResultRejectsEmptySlot(t *testing.T) {
	match := &models.BracketMatch{
		ID:           1,
		ConfigID:     9,
		Phase:        models.PhaseSemi,
		Team1EntryID: intPtr(101),
		Status:       models.MatchStatusScheduled,
	}
	repo := newFakeMatchRepo(match)
	svc := NewResultService(nil, repo, newFakeConfigRepo(), NewAdvancementEngine(repo, newFakeGroupRepo()), &fakeBroadcaster{}, discardLogger())

	_, err := svc.RecordResult(context.Background(), 1, RecordResultInput{Team1Score: intPtr(2), Team2Score: intPtr(0)})
	require.ErrorIs(t, err, ErrEmptySlot)
	assert.Equal(t, models.MatchStatusScheduled, match.Status)
}

func TestRecordResultRejectsMissingScores(t *testing.T) {
	repo := newFakeMatchRepo()
	svc := NewResultService(nil, repo, newFakeConfigRepo(), NewAdvancementEngine(repo, newFakeGroupRepo()), &fakeBroadcaster{}, discardLogger())

	_, err := svc.RecordResult(context.Background(), 1, RecordResultInput{Team1Score: intPtr(2)})
	require.ErrorIs(t, err, ErrScoreRequired)
}

func TestRecordResultRejectsBye(t *testing.T) {
	match := &models.BracketMatch{
		ID:            1,
		ConfigID:      9,
		Phase:         models.PhaseSemi,
		Team1EntryID:  intPtr(101),
		WinnerEntryID: intPtr(101),
		Status:        models.MatchStatusBye,
	}
	repo := newFakeMatchRepo(match)
	svc := NewResultService(nil, repo, newFakeConfigRepo(), NewAdvancementEngine(repo, newFakeGroupRepo()), &fakeBroadcaster{}, discardLogger())

	_, err := svc.RecordResult(context.Background(), 1, RecordResultInput{Team1Score: intPtr(1), Team2Score: intPtr(0)})
	require.ErrorIs(t, err, ErrMatchIsBye)
}

// TestRecordResultBracketWalk drives a four-team bracket to completion:
// both semifinal winners get seated in the final, and recording the final
// flips the config to completed.
func TestRecordResultBracketWalk(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	final := &models.BracketMatch{
		ID: 3, ConfigID: 9, Phase: models.PhaseFinal, RoundNumber: 2, MatchNumber: 1,
		Status: models.MatchStatusScheduled,
	}
	semi1 := &models.BracketMatch{
		ID: 1, ConfigID: 9, Phase: models.PhaseSemi, RoundNumber: 1, MatchNumber: 1,
		Team1EntryID: intPtr(101), Team2EntryID: intPtr(104),
		NextMatchID: intPtr(3), NextMatchSlot: intPtr(1),
		Status: models.MatchStatusScheduled,
	}
	semi2 := &models.BracketMatch{
		ID: 2, ConfigID: 9, Phase: models.PhaseSemi, RoundNumber: 1, MatchNumber: 2,
		Team1EntryID: intPtr(102), Team2EntryID: intPtr(103),
		NextMatchID: intPtr(3), NextMatchSlot: intPtr(2),
		Status: models.MatchStatusScheduled,
	}
	repo := newFakeMatchRepo(semi1, semi2, final)
	configs := newFakeConfigRepo(&models.BracketConfig{ID: 9, Status: models.BracketStatusMain})
	bc := &fakeBroadcaster{}
	svc := NewResultService(db, repo, configs, NewAdvancementEngine(repo, newFakeGroupRepo()), bc, discardLogger())

	ctx := context.Background()
	_, err = svc.RecordResult(ctx, 1, RecordResultInput{Team1Score: intPtr(2), Team2Score: intPtr(0)})
	require.NoError(t, err)
	require.NotNil(t, final.Team1EntryID)
	assert.Equal(t, 101, *final.Team1EntryID)

	_, err = svc.RecordResult(ctx, 2, RecordResultInput{Team1Score: intPtr(2), Team2Score: intPtr(1)})
	require.NoError(t, err)
	require.NotNil(t, final.Team2EntryID)
	assert.Equal(t, 102, *final.Team2EntryID)

	updated, err := svc.RecordResult(ctx, 3, RecordResultInput{Team1Score: intPtr(2), Team2Score: intPtr(0)})
	require.NoError(t, err)
	require.NotNil(t, updated.WinnerEntryID)
	assert.Equal(t, 101, *updated.WinnerEntryID)
	assert.Equal(t, models.MatchStatusCompleted, updated.Status)

	config, err := configs.GetByID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, models.BracketStatusCompleted, config.Status)

	// Every recorded match and every slot it filled went out as a patch.
	require.NotEmpty(t, bc.events)
	first, ok := bc.events[0].Payload.(models.MatchPatch)
	require.True(t, ok)
	assert.Equal(t, realtime.EventMatchUpdated, bc.events[0].Type)
	require.NotNil(t, first.WinnerEntryID)
	assert.Equal(t, 101, *first.WinnerEntryID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordResultRejectsDoubleRecording(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	final := &models.BracketMatch{ID: 3, ConfigID: 9, Phase: models.PhaseFinal, Status: models.MatchStatusScheduled}
	semi := &models.BracketMatch{
		ID: 1, ConfigID: 9, Phase: models.PhaseSemi,
		Team1EntryID: intPtr(101), Team2EntryID: intPtr(104),
		NextMatchID: intPtr(3), NextMatchSlot: intPtr(1),
		Status: models.MatchStatusScheduled,
	}
	repo := newFakeMatchRepo(semi, final)
	svc := NewResultService(db, repo, newFakeConfigRepo(), NewAdvancementEngine(repo, newFakeGroupRepo()), &fakeBroadcaster{}, discardLogger())

	ctx := context.Background()
	_, err = svc.RecordResult(ctx, 1, RecordResultInput{Team1Score: intPtr(2), Team2Score: intPtr(0)})
	require.NoError(t, err)
	require.NotNil(t, final.Team1EntryID)

	_, err = svc.RecordResult(ctx, 1, RecordResultInput{Team1Score: intPtr(2), Team2Score: intPtr(0)})
	require.ErrorIs(t, err, ErrMatchAlreadyCompleted, "resubmission is rejected instead of propagating twice")
	assert.Equal(t, 101, *final.Team1EntryID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateSets(t *testing.T) {
	t.Run("best of three decided in straight sets", func(t *testing.T) {
		kept, err := validateSets(3, []models.SetDetail{set(1, 6, 4), set(2, 6, 2)}, 2, 0)
		require.NoError(t, err)
		assert.Len(t, kept, 2)
	})

	t.Run("sets past the deciding one are dropped", func(t *testing.T) {
		sets := []models.SetDetail{
			set(1, 6, 0), set(2, 6, 1), set(3, 6, 2),
			set(4, 0, 6), set(5, 1, 6),
		}
		kept, err := validateSets(5, sets, 3, 0)
		require.NoError(t, err)
		require.Len(t, kept, 3, "3-0 in a best of five ends after three sets")
		assert.Equal(t, 3, kept[2].SetNumber)
	})

	t.Run("kept sets are renumbered sequentially", func(t *testing.T) {
		sets := []models.SetDetail{set(9, 6, 3), set(4, 6, 4)}
		kept, err := validateSets(3, sets, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, kept[0].SetNumber)
		assert.Equal(t, 2, kept[1].SetNumber)
	})

	t.Run("tie set is rejected", func(t *testing.T) {
		_, err := validateSets(3, []models.SetDetail{set(1, 6, 6)}, 1, 0)
		require.ErrorIs(t, err, ErrInvalidSetDetail)
	})

	t.Run("undecided breakdown is rejected", func(t *testing.T) {
		_, err := validateSets(3, []models.SetDetail{set(1, 6, 4)}, 2, 0)
		require.ErrorIs(t, err, ErrMatchNotDecided)
	})

	t.Run("scores must match the set wins", func(t *testing.T) {
		sets := []models.SetDetail{set(1, 6, 4), set(2, 4, 6), set(3, 6, 2)}
		_, err := validateSets(3, sets, 2, 0)
		require.ErrorIs(t, err, ErrScoreSetMismatch)
	})

	t.Run("zero best-of takes the breakdown at face value", func(t *testing.T) {
		sets := []models.SetDetail{set(1, 6, 4), set(2, 4, 6), set(3, 7, 5)}
		kept, err := validateSets(0, sets, 2, 1)
		require.NoError(t, err)
		assert.Len(t, kept, 3)
	})
}

func TestValidateSetsLineups(t *testing.T) {
	lineupSet := func(n, g1, g2 int, p1, p2 []int) models.SetDetail {
		s := set(n, g1, g2)
		s.Team1Players = p1
		s.Team2Players = p2
		return s
	}

	t.Run("distinct lineups per set pass", func(t *testing.T) {
		sets := []models.SetDetail{
			lineupSet(1, 6, 3, []int{1, 2}, []int{10, 11}),
			lineupSet(2, 6, 4, []int{3, 4}, []int{12, 13}),
		}
		_, err := validateSets(3, sets, 2, 0)
		require.NoError(t, err)
	})

	t.Run("player repeating across sets is rejected", func(t *testing.T) {
		sets := []models.SetDetail{
			lineupSet(1, 6, 3, []int{1, 2}, []int{10, 11}),
			lineupSet(2, 6, 4, []int{2, 3}, []int{12, 13}),
		}
		_, err := validateSets(3, sets, 2, 0)
		require.ErrorIs(t, err, ErrPlayerRepeats)
	})

	t.Run("duplicate player within one lineup is rejected", func(t *testing.T) {
		sets := []models.SetDetail{
			lineupSet(1, 6, 3, []int{1, 1}, []int{10, 11}),
		}
		_, err := validateSets(1, sets, 1, 0)
		require.ErrorIs(t, err, ErrInvalidSetDetail)
	})
}

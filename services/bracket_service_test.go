package services

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

func (f *fakeGroupRepo) ListTeamsByConfig(ctx context.Context, configID int) ([]*models.GroupTeam, error) {
	out := make([]*models.GroupTeam, 0, len(f.teams))
	for _, t := range f.teams {
		out = append(out, t)
	}
	return out, nil
}

type fakeEntryRepo struct {
	repositories.EntryRepository
	entries map[int]*models.Entry
}

func newFakeEntryRepo(entries ...*models.Entry) *fakeEntryRepo {
	repo := &fakeEntryRepo{entries: make(map[int]*models.Entry)}
	for _, e := range entries {
		repo.entries[e.ID] = e
	}
	return repo
}

func (f *fakeEntryRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.Entry, error) {
	out := make([]*models.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := f.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAssetStore struct {
	deleted []string
}

func (f *fakeAssetStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeAssetStore) GetPublicURL(key string) string {
	return "https://assets.test/" + key
}

func strPtr(s string) *string { return &s }

func TestNormalizeSeedOrder(t *testing.T) {
	t.Run("positional order passes through untouched", func(t *testing.T) {
		in := []*int{intPtr(1), nil, intPtr(2), intPtr(3)}
		order, size, err := normalizeSeedOrder(in, true)
		require.NoError(t, err)
		assert.Equal(t, 4, size)
		assert.Equal(t, in, order, "open slots stay where the caller put them")
	})

	t.Run("positional order of odd length is rejected", func(t *testing.T) {
		_, _, err := normalizeSeedOrder([]*int{intPtr(1), intPtr(2), intPtr(3)}, true)
		require.ErrorIs(t, err, ErrSeedOrderSize)
	})

	t.Run("ranked list is folded onto the inferred bracket", func(t *testing.T) {
		in := []*int{intPtr(10), intPtr(20), intPtr(30), intPtr(40), intPtr(50)}
		order, size, err := normalizeSeedOrder(in, false)
		require.NoError(t, err)
		assert.Equal(t, 8, size)
		require.Len(t, order, 8)

		require.NotNil(t, order[0])
		assert.Equal(t, 10, *order[0])
		// The fifth seed folds back onto the fourth; the strong slots keep
		// their byes.
		require.NotNil(t, order[6])
		assert.Equal(t, 40, *order[6])
		require.NotNil(t, order[7])
		assert.Equal(t, 50, *order[7])
		assert.Nil(t, order[1])
	})

	t.Run("ranked list of bracket-size length still folds", func(t *testing.T) {
		in := []*int{intPtr(1), intPtr(2), intPtr(3), intPtr(4)}
		order, size, err := normalizeSeedOrder(in, false)
		require.NoError(t, err)
		assert.Equal(t, 4, size)
		require.Len(t, order, 4)

		// Seed 1 meets seed 4, seed 2 meets seed 3.
		assert.Equal(t, 1, *order[0])
		assert.Equal(t, 4, *order[1])
		assert.Equal(t, 2, *order[2])
		assert.Equal(t, 3, *order[3])
	})

	t.Run("all-nil order is rejected", func(t *testing.T) {
		_, _, err := normalizeSeedOrder([]*int{nil, nil, nil, nil}, false)
		require.ErrorIs(t, err, ErrEmptySeedOrder)
	})

	t.Run("empty order is rejected", func(t *testing.T) {
		_, _, err := normalizeSeedOrder(nil, false)
		require.ErrorIs(t, err, ErrEmptySeedOrder)
	})
}

func TestLoserOf(t *testing.T) {
	m := &models.BracketMatch{
		Team1EntryID:  intPtr(7),
		Team2EntryID:  intPtr(9),
		WinnerEntryID: intPtr(7),
	}
	loser := loserOf(m)
	require.NotNil(t, loser)
	assert.Equal(t, 9, *loser)

	bye := &models.BracketMatch{
		Team1EntryID:  intPtr(7),
		WinnerEntryID: intPtr(7),
		Status:        models.MatchStatusBye,
	}
	assert.Nil(t, loserOf(bye), "a bye has no loser to seat")

	undecided := &models.BracketMatch{Team1EntryID: intPtr(7), Team2EntryID: intPtr(9)}
	assert.Nil(t, loserOf(undecided))
}

// TestDeleteConfigTearsDownStoredLogos: deleting a config removes the
// seated entries' stored logo objects, once per distinct key.
func TestDeleteConfigTearsDownStoredLogos(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	groups := newFakeGroupRepo(
		&models.GroupTeam{ID: 1, GroupID: 5, EntryID: 100},
		&models.GroupTeam{ID: 2, GroupID: 5, EntryID: 200},
		&models.GroupTeam{ID: 3, GroupID: 5, EntryID: 300},
	)
	entries := newFakeEntryRepo(
		&models.Entry{ID: 100, LogoKey: strPtr("logos/alpha.png")},
		&models.Entry{ID: 200, LogoKey: strPtr("logos/alpha.png")},
		&models.Entry{ID: 300},
	)
	configs := newFakeConfigRepo(&models.BracketConfig{ID: 7, Status: models.BracketStatusMain})
	assets := &fakeAssetStore{}

	svc := &bracketService{
		db:          db,
		configRepo:  configs,
		groupRepo:   groups,
		entryRepo:   entries,
		assets:      assets,
		broadcaster: &fakeBroadcaster{},
		logger:      discardLogger(),
	}
	require.NoError(t, svc.DeleteConfig(context.Background(), 7))

	assert.Equal(t, []string{"logos/alpha.png"}, assets.deleted, "a shared club logo goes exactly once")
	_, err = configs.GetByID(context.Background(), 7)
	require.ErrorIs(t, err, repositories.ErrBracketConfigNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupName(t *testing.T) {
	assert.Equal(t, "Group A", groupName(0))
	assert.Equal(t, "Group D", groupName(3))
	assert.Equal(t, "Group Z", groupName(25))
	assert.Equal(t, "Group 27", groupName(26))
}

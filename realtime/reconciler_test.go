package realtime

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
)

func ip(v int) *int { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func heldMatch(id int, team1, team2 *int) *models.BracketMatch {
	m := &models.BracketMatch{
		ID:           id,
		RoundNumber:  1,
		MatchNumber:  id,
		Team1EntryID: team1,
		Team2EntryID: team2,
		Status:       models.MatchStatusScheduled,
	}
	if team1 != nil {
		m.Team1 = &models.MatchSide{EntryID: *team1, PlayerName: "Kim"}
	}
	if team2 != nil {
		m.Team2 = &models.MatchSide{EntryID: *team2, PlayerName: "Lee"}
	}
	return m
}

func TestApplyPatchPreservesDisplayFields(t *testing.T) {
	fetches := int32(0)
	r := NewReconciler(func(ctx context.Context) ([]*models.BracketMatch, error) {
		atomic.AddInt32(&fetches, 1)
		return nil, nil
	}, testLogger(), WithDebounce(time.Hour))
	defer r.Stop()

	r.Seed([]*models.BracketMatch{heldMatch(1, ip(100), ip(200))})

	r.ApplyPatch(models.MatchPatch{
		MatchID:       1,
		Team1EntryID:  ip(100),
		Team2EntryID:  ip(200),
		Team1Score:    ip(2),
		Team2Score:    ip(0),
		WinnerEntryID: ip(100),
		Status:        models.MatchStatusCompleted,
	})

	got := r.Snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, models.MatchStatusCompleted, got[0].Status)
	require.NotNil(t, got[0].Team1Score)
	assert.Equal(t, 2, *got[0].Team1Score)

	// Locally joined display data survives the merge untouched.
	require.NotNil(t, got[0].Team1)
	assert.Equal(t, "Kim", got[0].Team1.PlayerName)
	require.NotNil(t, got[0].Team2)
	assert.Equal(t, "Lee", got[0].Team2.PlayerName)

	assert.Equal(t, int32(0), atomic.LoadInt32(&fetches), "same occupants, no refetch needed")
}

func TestApplyPatchSlotChangeTriggersDebouncedRefetch(t *testing.T) {
	fetched := make(chan struct{}, 4)
	r := NewReconciler(func(ctx context.Context) ([]*models.BracketMatch, error) {
		fetched <- struct{}{}
		return []*models.BracketMatch{heldMatch(2, ip(100), ip(300))}, nil
	}, testLogger(), WithDebounce(10*time.Millisecond))
	defer r.Stop()

	r.Seed([]*models.BracketMatch{heldMatch(2, ip(100), nil)})

	// Three rapid structural patches coalesce into one fetch.
	for i := 0; i < 3; i++ {
		r.ApplyPatch(models.MatchPatch{
			MatchID:      2,
			Team1EntryID: ip(100),
			Team2EntryID: ip(300),
			Status:       models.MatchStatusScheduled,
		})
		r.ApplyPatch(models.MatchPatch{
			MatchID:      2,
			Team1EntryID: ip(100),
			Team2EntryID: nil,
			Status:       models.MatchStatusScheduled,
		})
	}

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced refetch never fired")
	}

	select {
	case <-fetched:
		t.Fatal("burst of patches caused more than one refetch")
	case <-time.After(50 * time.Millisecond):
	}

	got := r.Snapshot()
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Team2EntryID)
	assert.Equal(t, 300, *got[0].Team2EntryID)
}

func TestApplyPatchUnknownMatchSchedulesRefetch(t *testing.T) {
	fetched := make(chan struct{}, 1)
	r := NewReconciler(func(ctx context.Context) ([]*models.BracketMatch, error) {
		fetched <- struct{}{}
		return []*models.BracketMatch{heldMatch(9, ip(1), ip(2))}, nil
	}, testLogger(), WithDebounce(5*time.Millisecond))
	defer r.Stop()

	r.ApplyPatch(models.MatchPatch{MatchID: 9, Status: models.MatchStatusScheduled})

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("unknown match did not trigger a refetch")
	}
}

func TestStaleFetchResponseIsDropped(t *testing.T) {
	r := NewReconciler(nil, testLogger())
	defer r.Stop()

	stale := []*models.BracketMatch{heldMatch(1, ip(1), ip(2))}
	fresh := []*models.BracketMatch{heldMatch(1, ip(1), ip(3))}

	// Two fetches issued; the older tag finishing last must not win.
	r.mu.Lock()
	r.issued++
	oldTag := r.issued
	r.issued++
	newTag := r.issued
	r.mu.Unlock()

	r.applyFetched(newTag, fresh)
	r.applyFetched(oldTag, stale)

	got := r.Snapshot()
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Team2EntryID)
	assert.Equal(t, 3, *got[0].Team2EntryID)
}

func TestStopCancelsPendingRefetch(t *testing.T) {
	fetches := int32(0)
	r := NewReconciler(func(ctx context.Context) ([]*models.BracketMatch, error) {
		atomic.AddInt32(&fetches, 1)
		return nil, nil
	}, testLogger(), WithDebounce(10*time.Millisecond))

	r.ApplyPatch(models.MatchPatch{MatchID: 42})
	r.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetches))
}

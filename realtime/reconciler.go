package realtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
)

const defaultRefetchDebounce = 500 * time.Millisecond

// FetchFunc loads the authoritative, display-augmented match list for the
// division a reconciler serves.
type FetchFunc func(ctx context.Context) ([]*models.BracketMatch, error)

// Reconciler keeps one session's in-memory match list consistent while other
// administrators mutate the shared rows. Change notifications carry only
// authoritative fields, so the merge never discards locally joined display
// data; when a merge reveals that a slot's occupant changed (the signature
// of round-advancement propagation) a debounced refetch recovers the new
// occupant's display fields.
type Reconciler struct {
	fetch    FetchFunc
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	matches map[int]*models.BracketMatch
	timer   *time.Timer
	issued  uint64
	applied uint64
	stopped bool
}

// ReconcilerOption tweaks construction; used by tests to shrink the
// debounce window.
type ReconcilerOption func(*Reconciler)

func WithDebounce(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.debounce = d }
}

func NewReconciler(fetch FetchFunc, logger *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		fetch:    fetch,
		logger:   logger,
		debounce: defaultRefetchDebounce,
		matches:  make(map[int]*models.BracketMatch),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed installs the initial authoritative match list.
func (r *Reconciler) Seed(matches []*models.BracketMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = make(map[int]*models.BracketMatch, len(matches))
	for _, m := range matches {
		copied := *m
		r.matches[m.ID] = &copied
	}
}

// Snapshot returns the held matches ordered by round then match number.
func (r *Reconciler) Snapshot() []*models.BracketMatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.BracketMatch, 0, len(r.matches))
	for _, m := range r.matches {
		copied := *m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		if out[i].MatchNumber != out[j].MatchNumber {
			return out[i].MatchNumber < out[j].MatchNumber
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ApplyPatch merges a change notification into the held copy of the match,
// overwriting only authoritative fields. Structural changes (a slot's
// occupant differs, or the match is unknown) schedule a debounced refetch.
func (r *Reconciler) ApplyPatch(patch models.MatchPatch) {
	r.mu.Lock()

	held, ok := r.matches[patch.MatchID]
	if !ok {
		// A match this session has never seen: a newly generated round.
		r.scheduleRefetchLocked()
		r.mu.Unlock()
		return
	}

	structural := !sameOccupant(held.Team1EntryID, patch.Team1EntryID) ||
		!sameOccupant(held.Team2EntryID, patch.Team2EntryID)

	held.Team1EntryID = patch.Team1EntryID
	held.Team2EntryID = patch.Team2EntryID
	held.Team1Score = patch.Team1Score
	held.Team2Score = patch.Team2Score
	held.WinnerEntryID = patch.WinnerEntryID
	held.Status = patch.Status
	held.Court = patch.Court
	held.Sets = patch.Sets

	if structural {
		r.scheduleRefetchLocked()
	}
	r.mu.Unlock()
}

func sameOccupant(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// scheduleRefetchLocked coalesces refetch requests over the debounce window
// so a burst of rapid score entries triggers one fetch, not one per event.
func (r *Reconciler) scheduleRefetchLocked() {
	if r.stopped {
		return
	}
	if r.timer != nil {
		r.timer.Reset(r.debounce)
		return
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		r.timer = nil
		r.mu.Unlock()
		r.Refetch(context.Background())
	})
}

// Refetch issues a tagged fetch of the authoritative match list. The tag is
// monotonically increasing; a response is applied only while its tag is the
// most recent one issued, so a slow, stale fetch can never overwrite the
// result of a newer one.
func (r *Reconciler) Refetch(ctx context.Context) {
	r.mu.Lock()
	r.issued++
	tag := r.issued
	r.mu.Unlock()

	matches, err := r.fetch(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("match list refetch failed", slog.Any("error", err))
		}
		return
	}
	r.applyFetched(tag, matches)
}

func (r *Reconciler) applyFetched(tag uint64, matches []*models.BracketMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tag != r.issued || tag <= r.applied {
		// Superseded while in flight; last writer by issuance order wins.
		return
	}
	r.applied = tag
	r.matches = make(map[int]*models.BracketMatch, len(matches))
	for _, m := range matches {
		copied := *m
		r.matches[m.ID] = &copied
	}
}

// Stop cancels any pending debounced refetch.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

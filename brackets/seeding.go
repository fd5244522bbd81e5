package brackets

import "errors"

var ErrNoTeams = errors.New("cannot seed with zero teams")

// bracket sizes supported by the engine
var bracketSizes = []int{4, 8, 16, 32, 64, 128}

// InferBracketSize returns the smallest supported power of two that can
// hold count teams. Counts above 128 are not supported.
func InferBracketSize(count int) (int, error) {
	if count <= 0 {
		return 0, ErrNoTeams
	}
	for _, size := range bracketSizes {
		if count <= size {
			return size, nil
		}
	}
	return 0, errors.New("too many teams for a single bracket (max 128)")
}

// SnakeGroups distributes ranked team indices over groupCount buckets using
// snake seeding: pass 1 fills groups 0..M-1 in seed order, pass 2 fills
// M-1..0, and so on, so every group's total strength stays balanced.
// The input order is strongest first; the returned slice holds, per group,
// the 0-based ranks assigned to it.
func SnakeGroups(teamCount, groupCount int) ([][]int, error) {
	if teamCount <= 0 {
		return nil, ErrNoTeams
	}
	if groupCount <= 0 {
		return nil, errors.New("group count must be positive")
	}
	groups := make([][]int, groupCount)
	forward := true
	for rank := 0; rank < teamCount; {
		if forward {
			for g := 0; g < groupCount && rank < teamCount; g++ {
				groups[g] = append(groups[g], rank)
				rank++
			}
		} else {
			for g := groupCount - 1; g >= 0 && rank < teamCount; g-- {
				groups[g] = append(groups[g], rank)
				rank++
			}
		}
		forward = !forward
	}
	return groups, nil
}

// SlotPair is one destination slot of a seed fold: a pair of entry IDs where
// a nil second occupant means the slot's match will resolve as a BYE.
type SlotPair struct {
	Team1 *int
	Team2 *int
}

// SeedFold assigns N ranked entry IDs (strongest first) to M destination
// slots. Ranks 0..M-1 take the first position of slots 0..M-1 in order; the
// second half folds back, rank i >= M taking the second position of slot
// 2M-1-i. A full field pairs the strongest against the weakest in every
// slot; a partial field leaves the strongest slots without an opponent.
func SeedFold(entryIDs []int, slots int) ([]SlotPair, error) {
	n := len(entryIDs)
	if n == 0 {
		return nil, ErrNoTeams
	}
	if slots <= 0 {
		return nil, errors.New("slot count must be positive")
	}
	if n > 2*slots {
		return nil, errors.New("more teams than slot capacity")
	}

	pairs := make([]SlotPair, slots)
	for rank, id := range entryIDs {
		id := id
		if rank < slots {
			pairs[rank].Team1 = &id
			continue
		}
		pairs[2*slots-1-rank].Team2 = &id
	}
	return pairs, nil
}

// FlattenPairs lays slot pairs out as a seed order suitable for
// BuildSingleElimination: [slot0.team1, slot0.team2, slot1.team1, ...].
func FlattenPairs(pairs []SlotPair) []*int {
	order := make([]*int, 0, len(pairs)*2)
	for _, p := range pairs {
		order = append(order, p.Team1, p.Team2)
	}
	return order
}

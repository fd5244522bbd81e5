package brackets

import "errors"

// Pair is one round-robin pairing of two entry IDs.
type Pair struct {
	Team1 int
	Team2 int
}

// RoundRobinPairs expands a group into its full round-robin: every unordered
// pair of distinct teams exactly once, k*(k-1)/2 pairings for k teams, in a
// stable order (seed-adjacent pairings first).
func RoundRobinPairs(entryIDs []int) ([]Pair, error) {
	if len(entryIDs) < 2 {
		return nil, errors.New("round robin requires at least 2 teams")
	}
	pairs := make([]Pair, 0, len(entryIDs)*(len(entryIDs)-1)/2)
	for i := 0; i < len(entryIDs); i++ {
		for j := i + 1; j < len(entryIDs); j++ {
			pairs = append(pairs, Pair{Team1: entryIDs[i], Team2: entryIDs[j]})
		}
	}
	return pairs, nil
}

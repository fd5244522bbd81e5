package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinPairs(t *testing.T) {
	t.Run("four teams yield six pairings", func(t *testing.T) {
		pairs, err := RoundRobinPairs([]int{11, 22, 33, 44})
		require.NoError(t, err)
		require.Len(t, pairs, 6)

		seen := make(map[string]bool)
		for _, p := range pairs {
			assert.NotEqual(t, p.Team1, p.Team2, "a team never plays itself")
			key := fmt.Sprintf("%d-%d", p.Team1, p.Team2)
			assert.False(t, seen[key], "pairing %s repeated", key)
			seen[key] = true
		}
	})

	t.Run("pair count follows k(k-1)/2", func(t *testing.T) {
		for k := 2; k <= 8; k++ {
			ids := make([]int, k)
			for i := range ids {
				ids[i] = i + 1
			}
			pairs, err := RoundRobinPairs(ids)
			require.NoError(t, err)
			assert.Len(t, pairs, k*(k-1)/2, "k=%d", k)
		}
	})

	t.Run("rejects a single team", func(t *testing.T) {
		_, err := RoundRobinPairs([]int{7})
		require.Error(t, err)
	})
}

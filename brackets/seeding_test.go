package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferBracketSize(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		want    int
		wantErr bool
	}{
		{name: "below minimum rounds up to 4", count: 2, want: 4},
		{name: "exact power of two", count: 8, want: 8},
		{name: "just over a power of two", count: 9, want: 16},
		{name: "seventeen needs 32", count: 17, want: 32},
		{name: "maximum field", count: 128, want: 128},
		{name: "over capacity", count: 129, wantErr: true},
		{name: "zero teams", count: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferBracketSize(tt.count)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnakeGroups(t *testing.T) {
	t.Run("ten teams across three groups snake evenly", func(t *testing.T) {
		groups, err := SnakeGroups(10, 3)
		require.NoError(t, err)
		require.Len(t, groups, 3)

		// Forward pass 0,1,2 then reverse 2,1,0 then forward again.
		assert.Equal(t, []int{0, 5, 6}, groups[0])
		assert.Equal(t, []int{1, 4, 7}, groups[1])
		assert.Equal(t, []int{2, 3, 8, 9}, groups[2])
	})

	t.Run("every rank appears exactly once", func(t *testing.T) {
		groups, err := SnakeGroups(13, 4)
		require.NoError(t, err)

		seen := make(map[int]bool)
		for _, g := range groups {
			for _, rank := range g {
				assert.False(t, seen[rank], "rank %d assigned twice", rank)
				seen[rank] = true
			}
		}
		assert.Len(t, seen, 13)
	})

	t.Run("rejects zero groups", func(t *testing.T) {
		_, err := SnakeGroups(4, 0)
		require.Error(t, err)
	})
}

func TestSeedFold(t *testing.T) {
	t.Run("five teams onto four slots", func(t *testing.T) {
		pairs, err := SeedFold([]int{101, 102, 103, 104, 105}, 4)
		require.NoError(t, err)
		require.Len(t, pairs, 4)

		// Seeds 1-4 take the first position of each slot in order.
		require.NotNil(t, pairs[0].Team1)
		assert.Equal(t, 101, *pairs[0].Team1)
		require.NotNil(t, pairs[3].Team1)
		assert.Equal(t, 104, *pairs[3].Team1)

		// Seed 5 folds back onto seed 4, so the two weakest entrants meet
		// and the stronger slots carry the byes.
		require.NotNil(t, pairs[3].Team2)
		assert.Equal(t, 105, *pairs[3].Team2)
		assert.Nil(t, pairs[0].Team2)
		assert.Nil(t, pairs[1].Team2)
		assert.Nil(t, pairs[2].Team2)
	})

	t.Run("four teams onto two slots pair one-four and two-three", func(t *testing.T) {
		pairs, err := SeedFold([]int{1, 2, 3, 4}, 2)
		require.NoError(t, err)
		require.Len(t, pairs, 2)

		require.NotNil(t, pairs[0].Team2)
		assert.Equal(t, 1, *pairs[0].Team1)
		assert.Equal(t, 4, *pairs[0].Team2)
		require.NotNil(t, pairs[1].Team2)
		assert.Equal(t, 2, *pairs[1].Team1)
		assert.Equal(t, 3, *pairs[1].Team2)
	})

	t.Run("full field pairs strongest against weakest", func(t *testing.T) {
		pairs, err := SeedFold([]int{1, 2, 3, 4, 5, 6, 7, 8}, 4)
		require.NoError(t, err)

		for i, p := range pairs {
			require.NotNil(t, p.Team1, "slot %d first position", i)
			require.NotNil(t, p.Team2, "slot %d second position", i)
		}
		// Seed 1 meets seed 8, seed 4 meets seed 5.
		assert.Equal(t, 1, *pairs[0].Team1)
		assert.Equal(t, 8, *pairs[0].Team2)
		assert.Equal(t, 4, *pairs[3].Team1)
		assert.Equal(t, 5, *pairs[3].Team2)
	})

	t.Run("rejects overfull field", func(t *testing.T) {
		_, err := SeedFold([]int{1, 2, 3, 4, 5}, 2)
		require.Error(t, err)
	})

	t.Run("rejects empty field", func(t *testing.T) {
		_, err := SeedFold(nil, 4)
		require.ErrorIs(t, err, ErrNoTeams)
	})
}

func TestFlattenPairs(t *testing.T) {
	pairs, err := SeedFold([]int{10, 20, 30}, 2)
	require.NoError(t, err)

	order := FlattenPairs(pairs)
	require.Len(t, order, 4)
	require.NotNil(t, order[0])
	assert.Equal(t, 10, *order[0])
	require.NotNil(t, order[2])
	assert.Equal(t, 20, *order[2])
}

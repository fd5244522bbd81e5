package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
)

func team(id, wins, losses, pf, pa int, seed *int) models.GroupTeam {
	return models.GroupTeam{
		ID: id, EntryID: id,
		Wins: wins, Losses: losses,
		PointsFor: pf, PointsAgainst: pa,
		SeedNumber: seed,
	}
}

func TestSortStandings(t *testing.T) {
	t.Run("orders by win differential first", func(t *testing.T) {
		sorted := SortStandings([]models.GroupTeam{
			team(1, 1, 2, 4, 5, ip(1)),
			team(2, 3, 0, 6, 1, ip(2)),
			team(3, 2, 1, 5, 3, ip(3)),
		})
		require.Len(t, sorted, 3)
		assert.Equal(t, []int{2, 3, 1}, []int{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	})

	t.Run("breaks ties on points differential then points for", func(t *testing.T) {
		sorted := SortStandings([]models.GroupTeam{
			team(1, 2, 1, 4, 3, ip(1)),
			team(2, 2, 1, 6, 2, ip(2)),
			team(3, 2, 1, 7, 3, ip(3)),
		})
		// Both 2 and 3 are +4, but 3 scored more.
		assert.Equal(t, []int{3, 2, 1}, []int{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	})

	t.Run("seed number settles full ties", func(t *testing.T) {
		sorted := SortStandings([]models.GroupTeam{
			team(1, 1, 1, 2, 2, ip(4)),
			team(2, 1, 1, 2, 2, ip(2)),
		})
		assert.Equal(t, 2, sorted[0].ID)
	})

	t.Run("explicit final rank overrides everything", func(t *testing.T) {
		loser := team(1, 0, 3, 0, 6, ip(4))
		loser.FinalRank = ip(1)
		winner := team(2, 3, 0, 6, 0, ip(1))

		sorted := SortStandings([]models.GroupTeam{winner, loser})
		assert.Equal(t, 1, sorted[0].ID, "pinned rank beats computed record")
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		input := []models.GroupTeam{
			team(1, 0, 1, 0, 1, ip(1)),
			team(2, 1, 0, 1, 0, ip(2)),
		}
		SortStandings(input)
		assert.Equal(t, 1, input[0].ID)
	})
}

package brackets

import (
	"sort"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
)

// SortStandings orders group teams for final standings. An explicitly set
// final_rank always wins over the computed order; among unranked teams the
// order is win/loss differential, then points differential, then points for,
// then seed number for a stable result.
func SortStandings(teams []models.GroupTeam) []models.GroupTeam {
	sorted := make([]models.GroupTeam, len(teams))
	copy(sorted, teams)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.FinalRank != nil || b.FinalRank != nil {
			if a.FinalRank == nil {
				return false
			}
			if b.FinalRank == nil {
				return true
			}
			return *a.FinalRank < *b.FinalRank
		}
		adiff, bdiff := a.Wins-a.Losses, b.Wins-b.Losses
		if adiff != bdiff {
			return adiff > bdiff
		}
		apts, bpts := a.PointsFor-a.PointsAgainst, b.PointsFor-b.PointsAgainst
		if apts != bpts {
			return apts > bpts
		}
		if a.PointsFor != b.PointsFor {
			return a.PointsFor > b.PointsFor
		}
		return seedOf(a) < seedOf(b)
	})
	return sorted
}

func seedOf(t models.GroupTeam) int {
	if t.SeedNumber == nil {
		return 1 << 30
	}
	return *t.SeedNumber
}

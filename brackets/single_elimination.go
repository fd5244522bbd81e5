package brackets

import (
	"errors"
	"fmt"
	"math"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
)

const ThirdPlaceUID = "TP"

// PlannedMatch is one node of a generated bracket before persistence.
// Successor links are expressed by UID; the service resolves them to row IDs
// in a second pass once all matches exist.
type PlannedMatch struct {
	UID         string
	Phase       models.MatchPhase
	Round       int
	MatchNumber int

	Team1  *int
	Team2  *int
	Status models.MatchStatus
	Winner *int

	NextUID       *string
	NextSlot      *int
	LoserNextUID  *string
	LoserNextSlot *int
}

// MatchUID names a bracket position the way the persistence layer keys it.
func MatchUID(round, matchNumber int) string {
	return fmt.Sprintf("R%dM%d", round, matchNumber)
}

// PhaseForRound maps a round of a bracket with totalRounds rounds to its
// named phase: the final is the last round, semifinals the one before, etc.
func PhaseForRound(round, totalRounds int) models.MatchPhase {
	teams := 1 << uint(totalRounds-round+1)
	switch teams {
	case 2:
		return models.PhaseFinal
	case 4:
		return models.PhaseSemi
	case 8:
		return models.PhaseQuarter
	case 16:
		return models.PhaseRound16
	case 32:
		return models.PhaseRound32
	case 64:
		return models.PhaseRound64
	default:
		return models.PhaseRound128
	}
}

// BuildSingleElimination expands a committed seed order into a full
// single-elimination tree. The seed order length is the bracket size; nil
// entries are open slots. Round 1 pairs consecutive seeds; a pair with
// exactly one occupant becomes a BYE whose winner is pushed into round 2
// immediately, since a BYE needs no human action. Later rounds are created
// empty and wired to their successors.
func BuildSingleElimination(seedOrder []*int, thirdPlace bool) ([]*PlannedMatch, error) {
	size := len(seedOrder)
	if size < 4 || size&(size-1) != 0 {
		return nil, fmt.Errorf("seed order length must be a power of two >= 4, got %d", size)
	}
	totalRounds := int(math.Log2(float64(size)))

	planned := make([]*PlannedMatch, 0, size-1)
	byUID := make(map[string]*PlannedMatch, size-1)

	for r := 1; r <= totalRounds; r++ {
		matchesInRound := size >> uint(r)
		phase := PhaseForRound(r, totalRounds)
		for i := 0; i < matchesInRound; i++ {
			pm := &PlannedMatch{
				UID:         MatchUID(r, i+1),
				Phase:       phase,
				Round:       r,
				MatchNumber: i + 1,
				Status:      models.MatchStatusScheduled,
			}
			if r == 1 {
				pm.Team1 = seedOrder[2*i]
				pm.Team2 = seedOrder[2*i+1]
				if pm.Team1 != nil && pm.Team2 == nil {
					pm.Status = models.MatchStatusBye
					pm.Winner = pm.Team1
				} else if pm.Team1 == nil && pm.Team2 != nil {
					pm.Status = models.MatchStatusBye
					pm.Winner = pm.Team2
				}
			}
			if r < totalRounds {
				next := MatchUID(r+1, i/2+1)
				slot := i%2 + 1
				pm.NextUID = &next
				pm.NextSlot = &slot
			}
			planned = append(planned, pm)
			byUID[pm.UID] = pm
		}
	}

	if thirdPlace && totalRounds >= 2 {
		tp := &PlannedMatch{
			UID:         ThirdPlaceUID,
			Phase:       models.PhaseThirdPlace,
			Round:       totalRounds,
			MatchNumber: 2,
			Status:      models.MatchStatusScheduled,
		}
		for i := 1; i <= 2; i++ {
			semi := byUID[MatchUID(totalRounds-1, i)]
			uid := ThirdPlaceUID
			slot := i
			semi.LoserNextUID = &uid
			semi.LoserNextSlot = &slot
		}
		planned = append(planned, tp)
		byUID[tp.UID] = tp
	}

	// Eager BYE propagation: the sole occupant advances into its successor
	// slot at construction time.
	for _, pm := range planned {
		if pm.Status != models.MatchStatusBye || pm.Winner == nil || pm.NextUID == nil {
			continue
		}
		target, ok := byUID[*pm.NextUID]
		if !ok {
			return nil, fmt.Errorf("bye propagation target %s does not exist", *pm.NextUID)
		}
		if *pm.NextSlot == 1 {
			target.Team1 = pm.Winner
		} else {
			target.Team2 = pm.Winner
		}
	}

	return planned, nil
}

// BuildRound creates a single round of matches from folded slot pairs, used
// by incremental generation where each round is seeded from fresh results.
// A pair with a single occupant is a BYE resolved on the spot.
func BuildRound(pairs []SlotPair, round, totalRounds int) ([]*PlannedMatch, error) {
	if len(pairs) == 0 {
		return nil, errors.New("cannot build a round with no slots")
	}
	phase := PhaseForRound(round, totalRounds)
	planned := make([]*PlannedMatch, 0, len(pairs))
	for i, p := range pairs {
		pm := &PlannedMatch{
			UID:         MatchUID(round, i+1),
			Phase:       phase,
			Round:       round,
			MatchNumber: i + 1,
			Team1:       p.Team1,
			Team2:       p.Team2,
			Status:      models.MatchStatusScheduled,
		}
		if p.Team1 != nil && p.Team2 == nil {
			pm.Status = models.MatchStatusBye
			pm.Winner = p.Team1
		} else if p.Team1 == nil && p.Team2 != nil {
			pm.Status = models.MatchStatusBye
			pm.Winner = p.Team2
		}
		planned = append(planned, pm)
	}
	return planned, nil
}

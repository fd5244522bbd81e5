package models

import "time"

// MatchPhase identifies the tournament stage a match belongs to,
// matching the ENUM in the database.
type MatchPhase string

const (
	PhasePreliminary MatchPhase = "preliminary"
	PhaseRound128    MatchPhase = "round_128"
	PhaseRound64     MatchPhase = "round_64"
	PhaseRound32     MatchPhase = "round_32"
	PhaseRound16     MatchPhase = "round_16"
	PhaseQuarter     MatchPhase = "quarter"
	PhaseSemi        MatchPhase = "semi"
	PhaseThirdPlace  MatchPhase = "third_place"
	PhaseFinal       MatchPhase = "final"
)

// IsMain reports whether the phase belongs to the elimination bracket.
func (p MatchPhase) IsMain() bool {
	return p != PhasePreliminary
}

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusBye        MatchStatus = "bye"
)

// SetDetail is one set of a team-format tie: a singles or doubles
// sub-match with its own line-up and game score.
type SetDetail struct {
	SetNumber    int   `json:"set_number"`
	Games1       int   `json:"games1"`
	Games2       int   `json:"games2"`
	Team1Players []int `json:"team1_players,omitempty"`
	Team2Players []int `json:"team2_players,omitempty"`
}

// WinnerSide returns 1 or 2 for the side that took the set, 0 on a tie.
func (s SetDetail) WinnerSide() int {
	switch {
	case s.Games1 > s.Games2:
		return 1
	case s.Games2 > s.Games1:
		return 2
	default:
		return 0
	}
}

// BracketMatch is the central entity of the engine, used for both
// preliminary round-robin and main-bracket matches. Nil team slots mean
// the occupant is not yet resolved (awaiting a prior match's winner).
type BracketMatch struct {
	ID          int        `json:"id" db:"id"`
	ConfigID    int        `json:"config_id" db:"config_id"`
	Phase       MatchPhase `json:"phase" db:"phase"`
	GroupID     *int       `json:"group_id,omitempty" db:"group_id"`
	RoundNumber int        `json:"round_number" db:"round_number"`
	MatchNumber int        `json:"match_number" db:"match_number"`

	Team1EntryID *int `json:"team1_entry_id,omitempty" db:"team1_entry_id"`
	Team2EntryID *int `json:"team2_entry_id,omitempty" db:"team2_entry_id"`

	Team1Score    *int        `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score    *int        `json:"team2_score,omitempty" db:"team2_score"`
	WinnerEntryID *int        `json:"winner_entry_id,omitempty" db:"winner_entry_id"`
	Status        MatchStatus `json:"status" db:"status"`
	Court         *string     `json:"court,omitempty" db:"court"`

	Sets []SetDetail `json:"sets,omitempty" db:"-"`

	NextMatchID        *int `json:"next_match_id,omitempty" db:"next_match_id"`
	NextMatchSlot      *int `json:"next_match_slot,omitempty" db:"next_match_slot"`
	LoserNextMatchID   *int `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserNextMatchSlot *int `json:"loser_next_match_slot,omitempty" db:"loser_next_match_slot"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Display-only joined data, populated by MatchService, never persisted
	// and never carried by change notifications.
	Team1 *MatchSide `json:"team1,omitempty" db:"-"`
	Team2 *MatchSide `json:"team2,omitempty" db:"-"`
}

// MatchSide is the presentation view of one slot's occupant.
type MatchSide struct {
	EntryID    int     `json:"entry_id"`
	PlayerName string  `json:"player_name"`
	ClubName   *string `json:"club_name,omitempty"`
	LogoURL    *string `json:"logo_url,omitempty"`
}

// MatchPatch is the narrow delta a change notification carries: only the
// authoritative fields of a match. It is deliberately a separate type from
// BracketMatch so that merging a patch can never clobber locally joined
// display data.
type MatchPatch struct {
	MatchID       int         `json:"match_id"`
	Team1EntryID  *int        `json:"team1_entry_id"`
	Team2EntryID  *int        `json:"team2_entry_id"`
	Team1Score    *int        `json:"team1_score"`
	Team2Score    *int        `json:"team2_score"`
	WinnerEntryID *int        `json:"winner_entry_id"`
	Status        MatchStatus `json:"status"`
	Court         *string     `json:"court"`
	Sets          []SetDetail `json:"sets,omitempty"`
}

// PatchOf extracts the authoritative fields of a match into a patch.
func PatchOf(m *BracketMatch) MatchPatch {
	return MatchPatch{
		MatchID:       m.ID,
		Team1EntryID:  m.Team1EntryID,
		Team2EntryID:  m.Team2EntryID,
		Team1Score:    m.Team1Score,
		Team2Score:    m.Team2Score,
		WinnerEntryID: m.WinnerEntryID,
		Status:        m.Status,
		Court:         m.Court,
		Sets:          m.Sets,
	}
}

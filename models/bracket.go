package models

import "time"

// BracketStatus represents the lifecycle stage of a division's bracket,
// matching the ENUM in the database. It only moves forward; deleting the
// main bracket or the preliminaries is the sole way back.
type BracketStatus string

const (
	BracketStatusDraft       BracketStatus = "draft"
	BracketStatusPreliminary BracketStatus = "preliminary"
	BracketStatusMain        BracketStatus = "main"
	BracketStatusCompleted   BracketStatus = "completed"
)

// BracketConfig is the root of a division's bracket tree. One row per
// division, created lazily on first administrator visit.
type BracketConfig struct {
	ID               int           `json:"id" db:"id"`
	DivisionID       int           `json:"division_id" db:"division_id"`
	HasPreliminaries bool          `json:"has_preliminaries" db:"has_preliminaries"`
	ThirdPlaceMatch  bool          `json:"third_place_match" db:"third_place_match"`
	GroupSize        int           `json:"group_size" db:"group_size"`
	BracketSize      *int          `json:"bracket_size,omitempty" db:"bracket_size"`
	Status           BracketStatus `json:"status" db:"status"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services.
	Groups  []PreliminaryGroup `json:"groups,omitempty" db:"-"`
	Matches []BracketMatch     `json:"matches,omitempty" db:"-"`
}

// PreliminaryGroup is one round-robin pool inside a bracket config.
type PreliminaryGroup struct {
	ID         int       `json:"id" db:"id"`
	ConfigID   int       `json:"config_id" db:"config_id"`
	Name       string    `json:"name" db:"name"`
	OrderIndex int       `json:"order_index" db:"order_index"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Teams []GroupTeam `json:"teams,omitempty" db:"-"`
}

// GroupTeam is the membership of one entry in one preliminary group.
// The standings accumulators are mutated only by the advancement engine.
type GroupTeam struct {
	ID            int  `json:"id" db:"id"`
	GroupID       int  `json:"group_id" db:"group_id"`
	EntryID       int  `json:"entry_id" db:"entry_id"`
	SeedNumber    *int `json:"seed_number,omitempty" db:"seed_number"`
	FinalRank     *int `json:"final_rank,omitempty" db:"final_rank"`
	Wins          int  `json:"wins" db:"wins"`
	Losses        int  `json:"losses" db:"losses"`
	PointsFor     int  `json:"points_for" db:"points_for"`
	PointsAgainst int  `json:"points_against" db:"points_against"`

	Entry *Entry `json:"entry,omitempty" db:"-"`
}

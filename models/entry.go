package models

import "time"

// EntryStatus represents the registration state of a division entry,
// matching the ENUM in the database.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusConfirmed EntryStatus = "confirmed"
	EntryStatusCanceled  EntryStatus = "canceled"
)

// Entry is a confirmed participant of a tournament division: a player for
// singles or a pair for doubles. Entries are owned by the registration
// subsystem; the bracket engine only reads them.
type Entry struct {
	ID          int         `json:"id" db:"id"`
	DivisionID  int         `json:"division_id" db:"division_id"`
	PlayerName  string      `json:"player_name" db:"player_name"`
	PartnerName *string     `json:"partner_name,omitempty" db:"partner_name"`
	ClubName    *string     `json:"club_name,omitempty" db:"club_name"`
	SeedRating  int         `json:"seed_rating" db:"seed_rating"`
	Status      EntryStatus `json:"status" db:"status"`
	LogoKey     *string     `json:"-" db:"logo_key"`
	LogoURL     *string     `json:"logo_url,omitempty" db:"-"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// DisplayName renders the entry for score boards: "Kim" or "Kim/Lee".
func (e *Entry) DisplayName() string {
	if e == nil {
		return ""
	}
	if e.PartnerName != nil && *e.PartnerName != "" {
		return e.PlayerName + "/" + *e.PartnerName
	}
	return e.PlayerName
}

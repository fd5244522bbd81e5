package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/lib/pq"
)

var ErrEntryNotFound = errors.New("entry not found")

// EntryRepository is the roster provider boundary: the bracket engine reads
// confirmed division entries, it never creates them.
type EntryRepository interface {
	GetByID(ctx context.Context, id int) (*models.Entry, error)
	ListConfirmedByDivision(ctx context.Context, divisionID int) ([]*models.Entry, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Entry, error)
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

const entryColumns = `id, division_id, player_name, partner_name, club_name, seed_rating, status, logo_key, created_at`

func scanEntry(rowScanner interface{ Scan(...interface{}) error }) (*models.Entry, error) {
	var e models.Entry
	err := rowScanner.Scan(
		&e.ID, &e.DivisionID, &e.PlayerName, &e.PartnerName, &e.ClubName,
		&e.SeedRating, &e.Status, &e.LogoKey, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresEntryRepository) GetByID(ctx context.Context, id int) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	return scanEntry(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresEntryRepository) ListConfirmedByDivision(ctx context.Context, divisionID int) ([]*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE division_id = $1 AND status = $2
		ORDER BY seed_rating DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, divisionID, models.EntryStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for division %d: %w", divisionID, err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *postgresEntryRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Entry, error) {
	if len(ids) == 0 {
		return []*models.Entry{}, nil
	}
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by ids: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]*models.Entry, error) {
	entries := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entry rows iteration: %w", err)
	}
	return entries, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/lib/pq"
)

var (
	ErrBracketConfigNotFound = errors.New("bracket config not found")
	ErrBracketConfigConflict = errors.New("bracket config already exists for division")
)

type BracketConfigRepository interface {
	Create(ctx context.Context, exec SQLExecutor, config *models.BracketConfig) error
	GetByID(ctx context.Context, id int) (*models.BracketConfig, error)
	GetByDivision(ctx context.Context, divisionID int) (*models.BracketConfig, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.BracketStatus) error
	SetBracketSize(ctx context.Context, exec SQLExecutor, id int, size *int) error
	UpdateOptions(ctx context.Context, exec SQLExecutor, id int, hasPreliminaries, thirdPlaceMatch bool, groupSize int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresBracketConfigRepository struct {
	db *sql.DB
}

func NewPostgresBracketConfigRepository(db *sql.DB) BracketConfigRepository {
	return &postgresBracketConfigRepository{db: db}
}

func (r *postgresBracketConfigRepository) Create(ctx context.Context, exec SQLExecutor, config *models.BracketConfig) error {
	query := `
		INSERT INTO bracket_configs
			(division_id, has_preliminaries, third_place_match, group_size, bracket_size, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		config.DivisionID,
		config.HasPreliminaries,
		config.ThirdPlaceMatch,
		config.GroupSize,
		config.BracketSize,
		config.Status,
	).Scan(&config.ID, &config.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "bracket_configs_division_id_key" {
		return ErrBracketConfigConflict
	}
	return err
}

func (r *postgresBracketConfigRepository) scanConfig(rowScanner interface{ Scan(...interface{}) error }) (*models.BracketConfig, error) {
	var c models.BracketConfig
	err := rowScanner.Scan(
		&c.ID, &c.DivisionID, &c.HasPreliminaries, &c.ThirdPlaceMatch,
		&c.GroupSize, &c.BracketSize, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketConfigNotFound
		}
		return nil, err
	}
	return &c, nil
}

const bracketConfigColumns = `id, division_id, has_preliminaries, third_place_match, group_size, bracket_size, status, created_at`

func (r *postgresBracketConfigRepository) GetByID(ctx context.Context, id int) (*models.BracketConfig, error) {
	query := `SELECT ` + bracketConfigColumns + ` FROM bracket_configs WHERE id = $1`
	return r.scanConfig(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresBracketConfigRepository) GetByDivision(ctx context.Context, divisionID int) (*models.BracketConfig, error) {
	query := `SELECT ` + bracketConfigColumns + ` FROM bracket_configs WHERE division_id = $1`
	return r.scanConfig(r.db.QueryRowContext(ctx, query, divisionID))
}

func (r *postgresBracketConfigRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.BracketStatus) error {
	query := `UPDATE bracket_configs SET status = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update bracket config %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketConfigNotFound)
}

func (r *postgresBracketConfigRepository) SetBracketSize(ctx context.Context, exec SQLExecutor, id int, size *int) error {
	query := `UPDATE bracket_configs SET bracket_size = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, size, id)
	if err != nil {
		return fmt.Errorf("failed to set bracket size for config %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketConfigNotFound)
}

func (r *postgresBracketConfigRepository) UpdateOptions(ctx context.Context, exec SQLExecutor, id int, hasPreliminaries, thirdPlaceMatch bool, groupSize int) error {
	query := `UPDATE bracket_configs SET has_preliminaries = $1, third_place_match = $2, group_size = $3 WHERE id = $4`
	result, err := exec.ExecContext(ctx, query, hasPreliminaries, thirdPlaceMatch, groupSize, id)
	if err != nil {
		return fmt.Errorf("failed to update options for config %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketConfigNotFound)
}

func (r *postgresBracketConfigRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	// Groups, group teams and matches cascade via FK constraints.
	query := `DELETE FROM bracket_configs WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete bracket config %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketConfigNotFound)
}

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
	ErrGroupNotFound     = errors.New("preliminary group not found")
	ErrGroupTeamNotFound = errors.New("group team not found")
	ErrGroupEntryInvalid = errors.New("group team entry conflict or invalid")
)

type GroupRepository interface {
	CreateGroup(ctx context.Context, exec SQLExecutor, group *models.PreliminaryGroup) error
	GetGroupByID(ctx context.Context, id int) (*models.PreliminaryGroup, error)
	ListGroupsByConfig(ctx context.Context, configID int) ([]*models.PreliminaryGroup, error)
	DeleteGroupsByConfig(ctx context.Context, exec SQLExecutor, configID int) error

	CreateTeam(ctx context.Context, exec SQLExecutor, team *models.GroupTeam) error
	GetTeamByID(ctx context.Context, id int) (*models.GroupTeam, error)
	ListTeamsByGroup(ctx context.Context, groupID int) ([]*models.GroupTeam, error)
	ListTeamsByConfig(ctx context.Context, configID int) ([]*models.GroupTeam, error)
	UpdateTeamGroup(ctx context.Context, exec SQLExecutor, teamID, groupID int) error
	ApplyStandingsDelta(ctx context.Context, exec SQLExecutor, teamID, winDelta, lossDelta, forDelta, againstDelta int) error
	SetFinalRank(ctx context.Context, exec SQLExecutor, teamID int, rank *int) error
	ResetStandings(ctx context.Context, exec SQLExecutor, configID int) error
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) CreateGroup(ctx context.Context, exec SQLExecutor, group *models.PreliminaryGroup) error {
	query := `
		INSERT INTO preliminary_groups (config_id, name, order_index)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query, group.ConfigID, group.Name, group.OrderIndex).
		Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group %q for config %d: %w", group.Name, group.ConfigID, err)
	}
	return nil
}

func (r *postgresGroupRepository) GetGroupByID(ctx context.Context, id int) (*models.PreliminaryGroup, error) {
	query := `SELECT id, config_id, name, order_index, created_at FROM preliminary_groups WHERE id = $1`
	var g models.PreliminaryGroup
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.ConfigID, &g.Name, &g.OrderIndex, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group %d: %w", id, err)
	}
	return &g, nil
}

func (r *postgresGroupRepository) ListGroupsByConfig(ctx context.Context, configID int) ([]*models.PreliminaryGroup, error) {
	query := `
		SELECT id, config_id, name, order_index, created_at
		FROM preliminary_groups
		WHERE config_id = $1
		ORDER BY order_index ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for config %d: %w", configID, err)
	}
	defer rows.Close()

	groups := make([]*models.PreliminaryGroup, 0)
	for rows.Next() {
		var g models.PreliminaryGroup
		if scanErr := rows.Scan(&g.ID, &g.ConfigID, &g.Name, &g.OrderIndex, &g.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", scanErr)
		}
		groups = append(groups, &g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group rows iteration: %w", err)
	}
	return groups, nil
}

func (r *postgresGroupRepository) DeleteGroupsByConfig(ctx context.Context, exec SQLExecutor, configID int) error {
	// Group teams and preliminary matches cascade via FK constraints.
	query := `DELETE FROM preliminary_groups WHERE config_id = $1`
	_, err := exec.ExecContext(ctx, query, configID)
	if err != nil {
		return fmt.Errorf("failed to delete groups for config %d: %w", configID, err)
	}
	return nil
}

const groupTeamColumns = `id, group_id, entry_id, seed_number, final_rank, wins, losses, points_for, points_against`

func (r *postgresGroupRepository) CreateTeam(ctx context.Context, exec SQLExecutor, team *models.GroupTeam) error {
	query := `
		INSERT INTO group_teams (group_id, entry_id, seed_number, final_rank, wins, losses, points_for, points_against)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		team.GroupID, team.EntryID, team.SeedNumber, team.FinalRank,
		team.Wins, team.Losses, team.PointsFor, team.PointsAgainst,
	).Scan(&team.ID)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "group_teams_entry_id_fkey", "group_teams_entry_id_key":
			return ErrGroupEntryInvalid
		case "group_teams_group_id_fkey":
			return ErrGroupNotFound
		}
	}
	return err
}

func scanGroupTeam(rowScanner interface{ Scan(...interface{}) error }) (*models.GroupTeam, error) {
	var t models.GroupTeam
	err := rowScanner.Scan(
		&t.ID, &t.GroupID, &t.EntryID, &t.SeedNumber, &t.FinalRank,
		&t.Wins, &t.Losses, &t.PointsFor, &t.PointsAgainst,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresGroupRepository) GetTeamByID(ctx context.Context, id int) (*models.GroupTeam, error) {
	query := `SELECT ` + groupTeamColumns + ` FROM group_teams WHERE id = $1`
	return scanGroupTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresGroupRepository) ListTeamsByGroup(ctx context.Context, groupID int) ([]*models.GroupTeam, error) {
	query := `SELECT ` + groupTeamColumns + ` FROM group_teams WHERE group_id = $1 ORDER BY seed_number ASC NULLS LAST, id ASC`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for group %d: %w", groupID, err)
	}
	defer rows.Close()
	return collectGroupTeams(rows)
}

func (r *postgresGroupRepository) ListTeamsByConfig(ctx context.Context, configID int) ([]*models.GroupTeam, error) {
	query := `
		SELECT gt.id, gt.group_id, gt.entry_id, gt.seed_number, gt.final_rank,
		       gt.wins, gt.losses, gt.points_for, gt.points_against
		FROM group_teams gt
		JOIN preliminary_groups pg ON gt.group_id = pg.id
		WHERE pg.config_id = $1
		ORDER BY pg.order_index ASC, gt.seed_number ASC NULLS LAST, gt.id ASC`

	rows, err := r.db.QueryContext(ctx, query, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for config %d: %w", configID, err)
	}
	defer rows.Close()
	return collectGroupTeams(rows)
}

func collectGroupTeams(rows *sql.Rows) ([]*models.GroupTeam, error) {
	teams := make([]*models.GroupTeam, 0)
	for rows.Next() {
		t, err := scanGroupTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group team rows iteration: %w", err)
	}
	return teams, nil
}

// UpdateTeamGroup relocates a team into another group as a single atomic
// row update: the team never exists in two groups.
func (r *postgresGroupRepository) UpdateTeamGroup(ctx context.Context, exec SQLExecutor, teamID, groupID int) error {
	query := `UPDATE group_teams SET group_id = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, groupID, teamID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "group_teams_group_id_fkey" {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to move team %d to group %d: %w", teamID, groupID, err)
	}
	return checkAffectedRows(result, ErrGroupTeamNotFound)
}

func (r *postgresGroupRepository) ApplyStandingsDelta(ctx context.Context, exec SQLExecutor, teamID, winDelta, lossDelta, forDelta, againstDelta int) error {
	query := `
		UPDATE group_teams
		SET wins = wins + $1, losses = losses + $2,
		    points_for = points_for + $3, points_against = points_against + $4
		WHERE id = $5`
	result, err := exec.ExecContext(ctx, query, winDelta, lossDelta, forDelta, againstDelta, teamID)
	if err != nil {
		return fmt.Errorf("failed to apply standings delta to team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrGroupTeamNotFound)
}

func (r *postgresGroupRepository) SetFinalRank(ctx context.Context, exec SQLExecutor, teamID int, rank *int) error {
	query := `UPDATE group_teams SET final_rank = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, rank, teamID)
	if err != nil {
		return fmt.Errorf("failed to set final rank for team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrGroupTeamNotFound)
}

// ResetStandings zeroes the accumulated win/loss and points counters for every
// team under a config. Used when preliminary results are rolled back wholesale.
func (r *postgresGroupRepository) ResetStandings(ctx context.Context, exec SQLExecutor, configID int) error {
	query := `
		UPDATE group_teams
		SET wins = 0, losses = 0, points_for = 0, points_against = 0, final_rank = NULL
		WHERE group_id IN (SELECT id FROM preliminary_groups WHERE config_id = $1)`
	if _, err := exec.ExecContext(ctx, query, configID); err != nil {
		return fmt.Errorf("failed to reset standings for config %d: %w", configID, err)
	}
	return nil
}

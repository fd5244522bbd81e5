package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound     = errors.New("bracket match not found")
	ErrMatchEntryInvalid = errors.New("bracket match entry conflict or invalid")
)

// MatchFilter narrows ListByConfig; nil fields mean no filtering.
type MatchFilter struct {
	Phase       *models.MatchPhase
	GroupID     *int
	RoundNumber *int
	MainOnly    bool
}

type BracketMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.BracketMatch) error
	GetByID(ctx context.Context, id int) (*models.BracketMatch, error)
	ListByConfig(ctx context.Context, configID int, filter MatchFilter) ([]*models.BracketMatch, error)
	UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID, nextMatchSlot *int) error
	UpdateLoserNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, loserNextMatchID, loserNextMatchSlot *int) error
	UpdateSlot(ctx context.Context, exec SQLExecutor, matchID, slot int, entryID *int) error
	UpdateResult(ctx context.Context, exec SQLExecutor, matchID int, score1, score2 *int, winnerEntryID *int, status models.MatchStatus, sets []models.SetDetail) error
	MaxMainRound(ctx context.Context, configID int) (int, error)
	DeleteMainByRound(ctx context.Context, exec SQLExecutor, configID, round int) error
	DeleteMain(ctx context.Context, exec SQLExecutor, configID int) error
	DeletePreliminary(ctx context.Context, exec SQLExecutor, configID int) error
	CountPreliminary(ctx context.Context, configID int) (int, error)
}

type postgresBracketMatchRepository struct {
	db *sql.DB
}

func NewPostgresBracketMatchRepository(db *sql.DB) BracketMatchRepository {
	return &postgresBracketMatchRepository{db: db}
}

const matchColumns = `id, config_id, phase, group_id, round_number, match_number,
	team1_entry_id, team2_entry_id, team1_score, team2_score, winner_entry_id,
	status, court, sets_detail, next_match_id, next_match_slot,
	loser_next_match_id, loser_next_match_slot, created_at`

func (r *postgresBracketMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.BracketMatch) error {
	setsJSON, err := marshalSets(match.Sets)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO bracket_matches
			(config_id, phase, group_id, round_number, match_number,
			 team1_entry_id, team2_entry_id, team1_score, team2_score, winner_entry_id,
			 status, court, sets_detail, next_match_id, next_match_slot,
			 loser_next_match_id, loser_next_match_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	err = exec.QueryRowContext(ctx, query,
		match.ConfigID, match.Phase, match.GroupID, match.RoundNumber, match.MatchNumber,
		match.Team1EntryID, match.Team2EntryID, match.Team1Score, match.Team2Score, match.WinnerEntryID,
		match.Status, match.Court, setsJSON, match.NextMatchID, match.NextMatchSlot,
		match.LoserNextMatchID, match.LoserNextMatchSlot,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.BracketMatch, error) {
	var m models.BracketMatch
	var setsJSON sql.NullString
	err := rowScanner.Scan(
		&m.ID, &m.ConfigID, &m.Phase, &m.GroupID, &m.RoundNumber, &m.MatchNumber,
		&m.Team1EntryID, &m.Team2EntryID, &m.Team1Score, &m.Team2Score, &m.WinnerEntryID,
		&m.Status, &m.Court, &setsJSON, &m.NextMatchID, &m.NextMatchSlot,
		&m.LoserNextMatchID, &m.LoserNextMatchSlot, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if setsJSON.Valid && setsJSON.String != "" {
		if err := json.Unmarshal([]byte(setsJSON.String), &m.Sets); err != nil {
			return nil, fmt.Errorf("failed to decode sets detail for match %d: %w", m.ID, err)
		}
	}
	return &m, nil
}

func marshalSets(sets []models.SetDetail) (*string, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(sets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sets detail: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func (r *postgresBracketMatchRepository) GetByID(ctx context.Context, id int) (*models.BracketMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM bracket_matches WHERE id = $1`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresBracketMatchRepository) ListByConfig(ctx context.Context, configID int, filter MatchFilter) ([]*models.BracketMatch, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM bracket_matches WHERE config_id = $1`)

	args := []interface{}{configID}
	placeholderIndex := 2

	if filter.Phase != nil {
		queryBuilder.WriteString(" AND phase = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Phase)
		placeholderIndex++
	}
	if filter.MainOnly {
		queryBuilder.WriteString(" AND phase <> $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, models.PhasePreliminary)
		placeholderIndex++
	}
	if filter.GroupID != nil {
		queryBuilder.WriteString(" AND group_id = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.GroupID)
		placeholderIndex++
	}
	if filter.RoundNumber != nil {
		queryBuilder.WriteString(" AND round_number = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.RoundNumber)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY round_number ASC, match_number ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for config %d: %w", configID, err)
	}
	defer rows.Close()

	matches := make([]*models.BracketMatch, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresBracketMatchRepository) UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID, nextMatchSlot *int) error {
	query := `UPDATE bracket_matches SET next_match_id = $1, next_match_slot = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, nextMatchID, nextMatchSlot, matchID)
	if err != nil {
		return fmt.Errorf("failed to update next match info for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresBracketMatchRepository) UpdateLoserNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, loserNextMatchID, loserNextMatchSlot *int) error {
	query := `UPDATE bracket_matches SET loser_next_match_id = $1, loser_next_match_slot = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, loserNextMatchID, loserNextMatchSlot, matchID)
	if err != nil {
		return fmt.Errorf("failed to update loser next match info for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresBracketMatchRepository) UpdateSlot(ctx context.Context, exec SQLExecutor, matchID, slot int, entryID *int) error {
	if slot != 1 && slot != 2 {
		return fmt.Errorf("invalid slot %d for match %d", slot, matchID)
	}
	column := "team1_entry_id"
	if slot == 2 {
		column = "team2_entry_id"
	}
	query := fmt.Sprintf(`UPDATE bracket_matches SET %s = $1 WHERE id = $2`, column)
	result, err := exec.ExecContext(ctx, query, entryID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresBracketMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, matchID int, score1, score2 *int, winnerEntryID *int, status models.MatchStatus, sets []models.SetDetail) error {
	setsJSON, err := marshalSets(sets)
	if err != nil {
		return err
	}
	query := `
		UPDATE bracket_matches
		SET team1_score = $1, team2_score = $2, winner_entry_id = $3, status = $4, sets_detail = $5
		WHERE id = $6`
	result, err := exec.ExecContext(ctx, query, score1, score2, winnerEntryID, status, setsJSON, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresBracketMatchRepository) MaxMainRound(ctx context.Context, configID int) (int, error) {
	query := `
		SELECT COALESCE(MAX(round_number), 0)
		FROM bracket_matches
		WHERE config_id = $1 AND phase <> $2`
	var round int
	if err := r.db.QueryRowContext(ctx, query, configID, models.PhasePreliminary).Scan(&round); err != nil {
		return 0, fmt.Errorf("failed to find max round for config %d: %w", configID, err)
	}
	return round, nil
}

func (r *postgresBracketMatchRepository) DeleteMainByRound(ctx context.Context, exec SQLExecutor, configID, round int) error {
	query := `DELETE FROM bracket_matches WHERE config_id = $1 AND round_number = $2 AND phase <> $3`
	_, err := exec.ExecContext(ctx, query, configID, round, models.PhasePreliminary)
	if err != nil {
		return fmt.Errorf("failed to delete round %d for config %d: %w", round, configID, err)
	}
	return nil
}

func (r *postgresBracketMatchRepository) DeleteMain(ctx context.Context, exec SQLExecutor, configID int) error {
	query := `DELETE FROM bracket_matches WHERE config_id = $1 AND phase <> $2`
	_, err := exec.ExecContext(ctx, query, configID, models.PhasePreliminary)
	if err != nil {
		return fmt.Errorf("failed to delete main bracket for config %d: %w", configID, err)
	}
	return nil
}

func (r *postgresBracketMatchRepository) DeletePreliminary(ctx context.Context, exec SQLExecutor, configID int) error {
	query := `DELETE FROM bracket_matches WHERE config_id = $1 AND phase = $2`
	_, err := exec.ExecContext(ctx, query, configID, models.PhasePreliminary)
	if err != nil {
		return fmt.Errorf("failed to delete preliminary matches for config %d: %w", configID, err)
	}
	return nil
}

func (r *postgresBracketMatchRepository) CountPreliminary(ctx context.Context, configID int) (int, error) {
	query := `SELECT COUNT(*) FROM bracket_matches WHERE config_id = $1 AND phase = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, configID, models.PhasePreliminary).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count preliminary matches for config %d: %w", configID, err)
	}
	return count, nil
}

func (r *postgresBracketMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "bracket_matches_team1_entry_id_fkey",
			"bracket_matches_team2_entry_id_fkey",
			"bracket_matches_winner_entry_id_fkey":
			return ErrMatchEntryInvalid
		}
	}
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLite caps the number of bound parameters per statement, so bulk inserts
// are split into batches.
const insertBatchSize = 100

const (
	insertTournamentQuery = `INSERT INTO tournaments (id, owner_id, name, status, format, max_participants, best_of_sets, tiebreak_games)
        VALUES (:id, :owner_id, :name, :status, :format, :max_participants, :best_of_sets, :tiebreak_games)`

	insertParticipantQuery = `INSERT INTO participants (id, tournament_id, user_id, name, seed)
        VALUES (:id, :tournament_id, :user_id, :name, :seed)`

	updateTournamentQuery = `UPDATE tournaments SET
            name = :name,
            status = :status,
            format = :format,
            max_participants = :max_participants,
            best_of_sets = :best_of_sets,
            tiebreak_games = :tiebreak_games
        WHERE id = :id`

	insertMatchQuery = `INSERT INTO matches (id, tournament_id, bracket_side, round_number, match_order,
            participant_1_id, participant_2_id, status, winner_id, forfeited_by,
            winner_next_match_id, winner_next_slot, loser_next_match_id, loser_next_slot, is_bye, best_of_sets)
        VALUES (:id, :tournament_id, :bracket_side, :round_number, :match_order,
            :participant_1_id, :participant_2_id, :status, :winner_id, :forfeited_by,
            :winner_next_match_id, :winner_next_slot, :loser_next_match_id, :loser_next_slot, :is_bye, :best_of_sets)`

	updateMatchQuery = `UPDATE matches SET
            participant_1_id = :participant_1_id,
            participant_2_id = :participant_2_id,
            status = :status,
            winner_id = :winner_id,
            forfeited_by = :forfeited_by,
            winner_next_match_id = :winner_next_match_id,
            winner_next_slot = :winner_next_slot,
            loser_next_match_id = :loser_next_match_id,
            loser_next_slot = :loser_next_slot
        WHERE id = :id`

	insertSetQuery = `INSERT INTO sets (id, match_id, set_number, participant_1_games, participant_2_games,
            is_tiebreak, participant_1_tiebreak_points, participant_2_tiebreak_points, is_completed, winner_id)
        VALUES (:id, :match_id, :set_number, :participant_1_games, :participant_2_games,
            :is_tiebreak, :participant_1_tiebreak_points, :participant_2_tiebreak_points, :is_completed, :winner_id)`

	selectMatchesQuery = `SELECT * FROM matches WHERE tournament_id = ?
        ORDER BY CASE bracket_side WHEN 'group' THEN 0 WHEN 'winners' THEN 1 WHEN 'losers' THEN 2 ELSE 3 END,
            round_number ASC, match_order ASC`

	selectMatchesByStatusQuery = `SELECT m.* FROM matches m
        JOIN tournaments t ON t.id = m.tournament_id
        WHERE m.status = ? AND m.is_bye = 0 AND t.status = 'in_progress'
        ORDER BY m.created_at ASC, m.round_number ASC, m.match_order ASC
        LIMIT ? OFFSET ?`

	selectTournamentMatchesByStatusQuery = `SELECT * FROM matches
        WHERE tournament_id = ? AND status = ? AND is_bye = 0
        ORDER BY round_number ASC, match_order ASC`

	selectUserMatchesQuery = `SELECT DISTINCT m.* FROM matches m
        JOIN participants p ON p.id = m.participant_1_id OR p.id = m.participant_2_id
        WHERE p.user_id = ? AND m.is_bye = 0
        ORDER BY m.created_at DESC, m.round_number DESC, m.match_order ASC
        LIMIT ? OFFSET ?`

	selectUpcomingUserMatchesQuery = `SELECT DISTINCT m.* FROM matches m
        JOIN participants p ON p.id = m.participant_1_id OR p.id = m.participant_2_id
        JOIN tournaments t ON t.id = m.tournament_id
        WHERE p.user_id = ? AND m.status = 'scheduled' AND m.is_bye = 0
            AND m.participant_1_id IS NOT NULL AND m.participant_2_id IS NOT NULL
            AND t.status = 'in_progress'
        ORDER BY m.created_at ASC, m.round_number ASC, m.match_order ASC
        LIMIT ? OFFSET ?`

	selectSetsQuery = `SELECT s.* FROM sets s
        JOIN matches m ON m.id = s.match_id
        WHERE m.tournament_id = ?
        ORDER BY s.match_id, s.set_number`
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Page bounds a listing. A zero Page is the first DefaultPageSize rows.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) bounds() (int, int) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return min(limit, MaxPageSize), max(p.Offset, 0)
}

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, insertTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) CreateParticipants(ctx context.Context, tx *sqlx.Tx, participants []bracket.Participant) error {
	return insertBatches(ctx, tx, insertParticipantQuery, participants)
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	return insertBatches(ctx, tx, insertMatchQuery, matches)
}

func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q sqlx.QueryerContext, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := sqlx.GetContext(ctx, q, &tournament, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC", ownerID)
	return tournaments, err
}

// GetTournamentsByStatus lists tournaments in one status, newest first.
func (s *TournamentStore) GetTournamentsByStatus(ctx context.Context, status bracket.TournamentStatus, page Page) ([]bracket.Tournament, error) {
	limit, offset := page.bounds()
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments,
		"SELECT * FROM tournaments WHERE status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?", status, limit, offset)
	return tournaments, err
}

// UpdateTournamentTx stores the settings and status of a tournament.
func (s *TournamentStore) UpdateTournamentTx(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	res, err := tx.NamedExecContext(ctx, updateTournamentQuery, tournament)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status bracket.TournamentStatus) error {
	res, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *TournamentStore) GetParticipants(ctx context.Context, tournamentID string) ([]bracket.Participant, error) {
	return getParticipants(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetParticipantsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Participant, error) {
	return getParticipants(ctx, tx, tournamentID)
}

func getParticipants(ctx context.Context, q sqlx.QueryerContext, tournamentID string) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := sqlx.SelectContext(ctx, q, &participants, "SELECT * FROM participants WHERE tournament_id = ? ORDER BY seed ASC", tournamentID)
	return participants, err
}

func (s *TournamentStore) GetParticipant(ctx context.Context, id string) (*bracket.Participant, error) {
	var participant bracket.Participant
	if err := s.db.GetContext(ctx, &participant, "SELECT * FROM participants WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &participant, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, selectMatchesQuery, tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := tx.SelectContext(ctx, &matches, selectMatchesQuery, tournamentID)
	return matches, err
}

// GetMatchesByStatus lists non-bye matches in one status across every running
// tournament.
func (s *TournamentStore) GetMatchesByStatus(ctx context.Context, status bracket.MatchStatus, page Page) ([]bracket.Match, error) {
	limit, offset := page.bounds()
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, selectMatchesByStatusQuery, status, limit, offset)
	return matches, err
}

func (s *TournamentStore) GetTournamentMatchesByStatus(ctx context.Context, tournamentID string, status bracket.MatchStatus) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, selectTournamentMatchesByStatusQuery, tournamentID, status)
	return matches, err
}

// GetMatchesForUser lists every match a user has a slot in, most recent
// first.
func (s *TournamentStore) GetMatchesForUser(ctx context.Context, userID uuid.UUID, page Page) ([]bracket.Match, error) {
	limit, offset := page.bounds()
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, selectUserMatchesQuery, userID, limit, offset)
	return matches, err
}

// GetUpcomingMatchesForUser lists the user's matches that are ready to be
// played and have not started.
func (s *TournamentStore) GetUpcomingMatchesForUser(ctx context.Context, userID uuid.UUID, page Page) ([]bracket.Match, error) {
	limit, offset := page.bounds()
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, selectUpcomingUserMatchesQuery, userID, limit, offset)
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id string) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, id string) (*bracket.Match, error) {
	var match bracket.Match
	if err := sqlx.GetContext(ctx, q, &match, "SELECT * FROM matches WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	res, err := tx.NamedExecContext(ctx, updateMatchQuery, match)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// GetSets returns every recorded set of a tournament.
func (s *TournamentStore) GetSets(ctx context.Context, tournamentID string) ([]bracket.Set, error) {
	var sets []bracket.Set
	err := s.db.SelectContext(ctx, &sets, selectSetsQuery, tournamentID)
	return sets, err
}

func (s *TournamentStore) GetSetsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Set, error) {
	var sets []bracket.Set
	err := tx.SelectContext(ctx, &sets, selectSetsQuery, tournamentID)
	return sets, err
}

func (s *TournamentStore) GetMatchSets(ctx context.Context, matchID string) ([]bracket.Set, error) {
	var sets []bracket.Set
	err := s.db.SelectContext(ctx, &sets, "SELECT * FROM sets WHERE match_id = ? ORDER BY set_number", matchID)
	return sets, err
}

// ReplaceSetsTx overwrites the score sheet of a match.
func (s *TournamentStore) ReplaceSetsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, sets []bracket.Set) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM sets WHERE match_id = ?", matchID); err != nil {
		return err
	}
	return insertBatches(ctx, tx, insertSetQuery, sets)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testTournamentID = "0f8fad5b-d9cb-469f-a165-70867728950e"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bracket.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuild_IsReproducible(t *testing.T) {
	args := []string{"build", "--format", "double_elimination", "--seed", "7", "--tournament-id", testTournamentID, "Ana", "Ben", "Cleo", "Dev", "Eve"}

	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var doc document
	require.NoError(t, yaml.Unmarshal([]byte(first), &doc))
	assert.Equal(t, bracket.DoubleElimination, doc.Format)
	assert.Len(t, doc.Participants, 5)
	assert.NoError(t, bracket.Validate(doc.Matches))
	for _, m := range doc.Matches {
		assert.Equal(t, uuid.MustParse(testTournamentID), m.TournamentID)
	}
}

func TestBuild_Rejects(t *testing.T) {
	_, err := execute(t, "build", "--format", "swiss", "A", "B")
	assert.ErrorIs(t, err, bracket.ErrUnsupportedFormat)

	_, err = execute(t, "build", "Solo")
	assert.ErrorIs(t, err, bracket.ErrInvalidParticipantCount)

	_, err = execute(t, "build", "--max", "2", "A", "B", "C")
	assert.ErrorIs(t, err, bracket.ErrInvalidParticipantCount)
}

func TestValidate_RoundTripsBuildOutput(t *testing.T) {
	out, err := execute(t, "build", "--format", "round_robin", "--tournament-id", testTournamentID, "A", "B", "C")
	require.NoError(t, err)

	report, err := execute(t, "validate", writeFile(t, out))
	require.NoError(t, err)
	assert.Equal(t, "ok: 3 matches\n", report)
}

func TestValidate_ListsViolations(t *testing.T) {
	out, err := execute(t, "build", "--tournament-id", testTournamentID, "A", "B", "C", "D")
	require.NoError(t, err)

	var doc document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	// Point a first round match back at itself.
	slot := 1
	doc.Matches[0].WinnerNextMatchID = &doc.Matches[0].ID
	doc.Matches[0].WinnerNextSlot = &slot

	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, doc))

	report, err := execute(t, "validate", writeFile(t, buf.String()))
	assert.ErrorIs(t, err, errInvalidBracket)
	assert.Contains(t, report, "targets itself")
}

func TestStandings(t *testing.T) {
	a := uuid.MustParse("a0000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("b0000000-0000-0000-0000-000000000002")
	m := uuid.MustParse("c0000000-0000-0000-0000-000000000003")

	path := writeFile(t, `
tiebreak_games: 6
participants:
  - {id: `+a.String()+`, name: Ana, seed: 2}
  - {id: `+b.String()+`, name: Ben, seed: 1}
matches:
  - id: `+m.String()+`
    bracket_side: group
    round_number: 1
    match_order: 1
    participant_1_id: `+a.String()+`
    participant_2_id: `+b.String()+`
    status: completed
    winner_id: `+a.String()+`
sets:
  - {match_id: `+m.String()+`, set_number: 1, participant_1_games: 6, participant_2_games: 4, is_completed: true}
  - {match_id: `+m.String()+`, set_number: 2, participant_1_games: 7, participant_2_games: 6, is_completed: true}
`)

	out, err := execute(t, "standings", path)
	require.NoError(t, err)

	var got struct {
		Standings []bracket.StandingsRow `yaml:"standings"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got.Standings, 2)
	assert.Equal(t, a, got.Standings[0].ParticipantID)
	assert.Equal(t, 1, got.Standings[0].Rank)
	assert.Equal(t, 2, got.Standings[0].SetsWon)
	assert.Equal(t, 13, got.Standings[0].GamesWon)
	assert.Equal(t, b, got.Standings[1].ParticipantID)
}

func TestMissingFile(t *testing.T) {
	_, err := execute(t, "standings", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package service

import (
	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/realtime"
	"github.com/google/uuid"
)

// Publisher delivers tournament events to subscribers. realtime.Hub is the
// production implementation.
type Publisher interface {
	Publish(room, eventType string, payload any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, any) {}

func Room(tournamentID uuid.UUID) string {
	return tournamentID.String()
}

type TournamentCompletedEvent struct {
	TournamentID uuid.UUID  `json:"tournament_id"`
	ChampionID   *uuid.UUID `json:"champion_id,omitempty"`
}

type StandingsEvent struct {
	TournamentID uuid.UUID              `json:"tournament_id"`
	Standings    []bracket.StandingsRow `json:"standings"`
}

var _ Publisher = (*realtime.Hub)(nil)

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"gopkg.in/yaml.v3"
)

// document is the YAML file the commands read. build writes the same shape,
// so its output can be fed straight back into validate and standings.
type document struct {
	Format        bracket.Format        `yaml:"format,omitempty"`
	TiebreakGames int                   `yaml:"tiebreak_games,omitempty"`
	Participants  []bracket.Participant `yaml:"participants"`
	Matches       []bracket.Match       `yaml:"matches"`
	Sets          []bracket.Set         `yaml:"sets,omitempty"`
	Byes          []bracket.Bye         `yaml:"byes,omitempty"`
}

func readDocument(path string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc document
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &doc, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

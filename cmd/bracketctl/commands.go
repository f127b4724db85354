package main

import (
	"errors"
	"fmt"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func buildCmd() *cobra.Command {
	var (
		format          string
		seed            int64
		maxParticipants int
		bestOf          int
		tournament      string
	)

	cmd := &cobra.Command{
		Use:   "build NAME...",
		Short: "Generate the initial matches for a list of participants",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tournamentID := uuid.New()
			if tournament != "" {
				id, err := uuid.Parse(tournament)
				if err != nil {
					return fmt.Errorf("invalid --tournament-id: %w", err)
				}
				tournamentID = id
			}

			// Participant ids follow from the tournament and name so a fixed
			// --tournament-id and --seed reproduce the same file.
			participants := make([]bracket.Participant, len(args))
			for i, name := range args {
				participants[i] = bracket.Participant{
					ID:   uuid.NewSHA1(tournamentID, []byte(name)),
					Name: name,
				}
			}

			opts := bracket.Options{
				TournamentID:    tournamentID,
				MaxParticipants: maxParticipants,
				BestOfSets:      bestOf,
			}
			if cmd.Flags().Changed("seed") {
				opts.RandomSeed = &seed
			}

			res, err := bracket.Build(participants, bracket.Format(format), opts)
			if err != nil {
				return err
			}
			logger.Info("bracket built",
				zap.String("format", format),
				zap.Int("participants", len(participants)),
				zap.Int("matches", len(res.Matches)),
			)

			return writeYAML(cmd.OutOrStdout(), document{
				Format:       res.Format,
				Participants: res.Participants,
				Matches:      res.Matches,
				Byes:         res.Byes,
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(bracket.SingleElimination), "single_elimination, double_elimination or round_robin")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle the seeding with this seed")
	cmd.Flags().IntVar(&maxParticipants, "max", bracket.DefaultMaxParticipants, "Maximum participants, 0 for no limit")
	cmd.Flags().IntVar(&bestOf, "best-of", bracket.DefaultBestOfSets, "Sets per match")
	cmd.Flags().StringVar(&tournament, "tournament-id", "", "Tournament id, random when empty")
	return cmd
}

var errInvalidBracket = errors.New("bracket is inconsistent")

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a bracket file and list every violation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			err = bracket.Validate(doc.Matches)
			var inconsistent *bracket.InconsistentBracketError
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %d matches\n", len(doc.Matches))
				return nil
			case errors.As(err, &inconsistent):
				for _, v := range inconsistent.Violations {
					fmt.Fprintln(cmd.OutOrStdout(), v.String())
				}
				return fmt.Errorf("%w: %d violations", errInvalidBracket, len(inconsistent.Violations))
			default:
				return err
			}
		},
	}
}

func standingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standings FILE",
		Short: "Rank the participants of a bracket file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			tiebreakGames := doc.TiebreakGames
			if tiebreakGames <= 0 {
				tiebreakGames = bracket.DefaultTiebreakGames
			}
			rows := bracket.ComputeStandings(doc.Participants, doc.Matches, doc.Sets, tiebreakGames)
			return writeYAML(cmd.OutOrStdout(), map[string]any{"standings": rows})
		},
	}
}

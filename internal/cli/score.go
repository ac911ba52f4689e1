package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bidascore/bidascore-go/internal/api"
	"github.com/bidascore/bidascore-go/internal/model"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Scoring commands",
	}

	cmd.AddCommand(newScoreWinCmd())
	cmd.AddCommand(newScorePenaltyCmd())
	cmd.AddCommand(newScoreUndoCmd())

	return cmd
}

func newScoreWinCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "win <room-id> <player-id>",
		Short: "Record a head-to-head rack win",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])
			winnerID := model.PlayerID(args[1])

			guard, _, err := authorize(cmd.Context(), roomID, pin)
			if err != nil {
				return err
			}

			room, err := client.UpdateSoloScore(cmd.Context(), roomID, guard.PIN(), winnerID)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(room)
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Room PIN")
	return cmd
}

func newScorePenaltyCmd() *cobra.Command {
	var (
		pin   string
		balls []string
	)

	cmd := &cobra.Command{
		Use:   "penalty <room-id> <scorer-id> <loser-id>...",
		Short: "Record penalty balls charged by a scorer to one or more losers",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])
			scorerID := model.PlayerID(args[1])

			loserIDs := make([]model.PlayerID, 0, len(args)-2)
			for _, raw := range args[2:] {
				loserIDs = append(loserIDs, model.PlayerID(raw))
			}

			events, err := parseBallEvents(balls)
			if err != nil {
				return err
			}

			guard, _, err := authorize(cmd.Context(), roomID, pin)
			if err != nil {
				return err
			}

			room, err := client.UpdatePenaltyScore(cmd.Context(), roomID, guard.PIN(), api.PenaltyScoreParams{
				ScorerID: scorerID,
				LoserIDs: loserIDs,
				Events:   events,
			})
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(room)
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Room PIN")
	cmd.Flags().StringArrayVar(&balls, "ball", nil, "Ball event as BALL=COUNT, e.g. --ball 3=2 (repeatable)")
	_ = cmd.MarkFlagRequired("ball")

	return cmd
}

// parseBallEvents parses repeated BALL=COUNT flags
func parseBallEvents(raw []string) ([]model.BallEvent, error) {
	events := make([]model.BallEvent, 0, len(raw))
	for _, item := range raw {
		ball, count, found := strings.Cut(item, "=")
		if !found {
			return nil, fmt.Errorf("invalid ball event %q, expected BALL=COUNT", item)
		}
		ballNum, err := strconv.Atoi(ball)
		if err != nil || ballNum < 1 {
			return nil, fmt.Errorf("invalid ball number in %q", item)
		}
		countNum, err := strconv.Atoi(count)
		if err != nil || countNum < 1 {
			return nil, fmt.Errorf("invalid count in %q", item)
		}
		events = append(events, model.BallEvent{Ball: ballNum, Count: countNum})
	}
	return events, nil
}

func newScoreUndoCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "undo <room-id>",
		Short: "Undo the most recent history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])

			guard, current, err := authorize(cmd.Context(), roomID, pin)
			if err != nil {
				return err
			}

			last := current.LastEntry()
			if last == nil {
				return model.ErrHistoryEmpty
			}

			room, err := client.UndoScore(cmd.Context(), roomID, last.ID, guard.PIN())
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(room)
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Room PIN")
	return cmd
}

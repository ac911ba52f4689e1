package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bidascore/bidascore-go/internal/identity"
	"github.com/bidascore/bidascore-go/internal/model"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Card match commands",
	}

	cmd.AddCommand(newMatchClaimCmd())
	cmd.AddCommand(newMatchStartCmd())
	cmd.AddCommand(newMatchDrawCmd())
	cmd.AddCommand(newMatchDiscardCmd())
	cmd.AddCommand(newMatchResetCmd())

	return cmd
}

// actorIdentity resolves the identity used for seat-bound actions. An
// account user id from --user (or BIDASCORE_USER) takes precedence over
// the device guest token.
func actorIdentity(cmd *cobra.Command) model.Identity {
	return identity.New(cfg.UserID, store, logger).Resolve(cmd.Context())
}

func newMatchClaimCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "claim <room-id> <player-id>",
		Short: "Claim an open seat for this device's identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])
			playerID := model.PlayerID(args[1])

			if _, _, err := authorize(cmd.Context(), roomID, pin); err != nil {
				return err
			}

			room, err := client.ClaimSeat(cmd.Context(), roomID, playerID, actorIdentity(cmd))
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

func newMatchStartCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "start <room-id>",
		Short: "Deal opening hands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])

			guard, _, err := authorize(cmd.Context(), roomID, pin)
			if err != nil {
				return err
			}

			room, err := client.StartDeal(cmd.Context(), roomID, guard.PIN())
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

func newMatchDrawCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "draw <room-id> <player-id>",
		Short: "Draw the top card into the player's hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])
			playerID := model.PlayerID(args[1])

			_, current, err := authorize(cmd.Context(), roomID, pin)
			if err != nil {
				return err
			}
			if current.DeckRemaining == 0 {
				return model.ErrDeckEmpty
			}

			room, err := client.DrawCard(cmd.Context(), roomID, playerID, actorIdentity(cmd))
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

func newMatchDiscardCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "discard <room-id> <player-id> <value>",
		Short: "Discard one card of the given value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])
			playerID := model.PlayerID(args[1])

			value, err := strconv.Atoi(args[2])
			if err != nil || value < 1 || value > 13 {
				return model.ErrCardNotHeld
			}

			if _, _, err := authorize(cmd.Context(), roomID, pin); err != nil {
				return err
			}

			room, err := client.DiscardCard(cmd.Context(), roomID, playerID, value, actorIdentity(cmd))
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

func newMatchResetCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "reset <room-id>",
		Short: "Return all cards to the deck and clear card history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])

			guard, _, err := authorize(cmd.Context(), roomID, pin)
			if err != nil {
				return err
			}

			room, err := client.ResetMatch(cmd.Context(), roomID, guard.PIN())
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

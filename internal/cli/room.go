package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bidascore/bidascore-go/internal/access"
	"github.com/bidascore/bidascore-go/internal/api"
	"github.com/bidascore/bidascore-go/internal/model"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomFinishCmd())

	return cmd
}

// authorize resolves a write credential for the room: an explicit --pin
// goes through PIN submission, otherwise the stored credential is tried
func authorize(ctx context.Context, roomID model.RoomID, pin string) (*access.Guard, *model.Room, error) {
	guard := access.NewGuard(roomID, client, store, logger)

	if pin != "" {
		room, err := guard.SubmitPIN(ctx, pin)
		if err != nil {
			return nil, nil, err
		}
		return guard, room, nil
	}

	room, err := guard.Resume(ctx)
	if err != nil {
		return nil, nil, err
	}
	if room == nil {
		return nil, nil, fmt.Errorf("no stored PIN for room %s; pass --pin", roomID)
	}
	return guard, room, nil
}

func newRoomCreateCmd() *cobra.Command {
	var (
		name           string
		mode           string
		pin            string
		players        []string
		cardsPerPlayer int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(players) < 2 {
				return fmt.Errorf("at least two --player names are required")
			}
			if access.SanitizePIN(pin) != pin || len(pin) < access.MinPINLength {
				return fmt.Errorf("pin must be at least %d digits", access.MinPINLength)
			}

			room, err := client.CreateRoom(cmd.Context(), api.CreateRoomParams{
				Name:           name,
				Mode:           model.Mode(mode),
				PIN:            pin,
				PlayerNames:    players,
				CardsPerPlayer: cardsPerPlayer,
			})
			if err != nil {
				return err
			}

			// Remember the credential so follow-up commands skip --pin.
			if err := store.SavePIN(cmd.Context(), room.ID, pin); err != nil {
				logger.Warn("could not persist room PIN", "error", err)
			}

			NewOutput(cfg.Output).Print(room)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Room display name")
	cmd.Flags().StringVar(&mode, "mode", string(model.ModeSolo), "Scoring mode: solo, penalty, card")
	cmd.Flags().StringVar(&pin, "pin", "", "Room PIN (at least 4 digits)")
	cmd.Flags().StringArrayVar(&players, "player", nil, "Player name (repeatable)")
	cmd.Flags().IntVar(&cardsPerPlayer, "cards", 0, "Hand size for card mode")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := client.ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(rooms)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show a room. Without --pin the room is fetched read-only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])

			room, err := client.GetRoom(cmd.Context(), roomID, access.SanitizePIN(pin))
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

func newRoomFinishCmd() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "finish <room-id>",
		Short: "Permanently finish a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := model.RoomID(args[0])

			guard, _, err := authorize(cmd.Context(), roomID, pin)
			if err != nil {
				return err
			}

			room, err := client.FinishRoom(cmd.Context(), roomID, guard.PIN())
			if err != nil {
				return err
			}
			guard.Invalidate(cmd.Context())

			out := NewOutput(cfg.Output)
			out.Print(room)
			out.PrintMessage("room finished; stored PIN cleared")
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Room PIN")
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bidascore/bidascore-go/internal/access"
	"github.com/bidascore/bidascore-go/internal/identity"
	"github.com/bidascore/bidascore-go/internal/model"
	"github.com/bidascore/bidascore-go/internal/realtime"
	"github.com/bidascore/bidascore-go/internal/session"
)

func newWatchCmd() *cobra.Command {
	var (
		pin    string
		viewer bool
	)

	cmd := &cobra.Command{
		Use:   "watch <room-id>",
		Short: "Follow a room live over its realtime channel",
		Long: `Open a full session on the room and print each update as it
arrives. With --pin (or a stored credential) the session is read-write;
with --viewer it is read-only and no credential is stored.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(model.RoomID(args[0]), pin, viewer)
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Room PIN")
	cmd.Flags().BoolVar(&viewer, "viewer", false, "Join read-only without a credential")

	return cmd
}

// watchSink prints session signals as they arrive
type watchSink struct {
	out  *Output
	done chan struct{}
}

func (w *watchSink) RoomChanged(room *model.Room) {
	w.out.Print(room)
}

func (w *watchSink) Notify(message string) {
	w.out.PrintMessage(message)
}

func (w *watchSink) SessionEnded(roomID model.RoomID, reason string) {
	w.out.PrintMessage(fmt.Sprintf("session for %s ended: %s", roomID, reason))
	close(w.done)
}

func watchRoom(roomID model.RoomID, pin string, viewer bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &watchSink{out: NewOutput(cfg.Output), done: make(chan struct{})}

	guard := access.NewGuard(roomID, client, store, logger)
	channel := realtime.NewChannel(realtime.DefaultConfig(realtimeURL(cfg.ServerURL)), logger)
	resolver := identity.New(cfg.UserID, store, logger)
	manager := session.NewManager(roomID, client, guard, channel, resolver, sink, logger)

	if err := manager.Start(ctx); err != nil {
		return err
	}

	if !manager.Authorized() {
		switch {
		case viewer:
			if err := manager.JoinAsViewer(ctx); err != nil {
				return err
			}
		case pin != "":
			if err := manager.SubmitPIN(ctx, pin); err != nil {
				return err
			}
		default:
			return fmt.Errorf("no stored PIN for room %s; pass --pin or --viewer", roomID)
		}
	}

	if manager.ShouldPromptClaim() {
		sink.Notify("open seats available; claim one with 'bidascore match claim'")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		manager.Close()
	case <-sink.done:
	}
	return nil
}

// realtimeURL derives the websocket endpoint from the HTTP base URL
func realtimeURL(serverURL string) string {
	url := strings.TrimSuffix(serverURL, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/api/v1/ws"
}

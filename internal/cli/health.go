package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// HealthResult reports backend reachability
type HealthResult struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	Rooms     int    `json:"rooms"`
	LatencyMS int64  `json:"latency_ms"`
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			rooms, err := client.ListRooms(cmd.Context())
			if err != nil {
				return fmt.Errorf("server %s unreachable: %w", cfg.ServerURL, err)
			}

			result := HealthResult{
				Server:    cfg.ServerURL,
				Reachable: true,
				Rooms:     len(rooms),
				LatencyMS: time.Since(start).Milliseconds(),
			}

			out := NewOutput(cfg.Output)
			if cfg.Output == "json" {
				out.Print(result)
			} else {
				out.PrintMessage(fmt.Sprintf("%s ok (%d rooms, %dms)", result.Server, result.Rooms, result.LatencyMS))
			}
			return nil
		},
	}
}

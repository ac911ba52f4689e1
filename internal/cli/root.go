package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bidascore/bidascore-go/internal/api"
	"github.com/bidascore/bidascore-go/internal/clientstore"
	"github.com/bidascore/bidascore-go/internal/clientstore/file"
	redisstore "github.com/bidascore/bidascore-go/internal/clientstore/redis"
)

var (
	cfg    *Config
	client *api.Client
	store  clientstore.Store
	logger *slog.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bidascore",
		Short: "CLI for the bida score room API",
		Long: `bidascore is a CLI for shared billiards score rooms.

It covers room management, head-to-head and penalty scoring, the
thirteen-card side game, and live watching of a room over its
realtime channel.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))

			client = api.NewClient(cfg.ServerURL, cfg.Token, logger)

			var err error
			store, err = newStore(cfg)
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: BIDASCORE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Bearer token (env: BIDASCORE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.UserID, "user", cfg.UserID, "Account user id for seat ownership (env: BIDASCORE_USER)")
	rootCmd.PersistentFlags().StringVar(&cfg.StatePath, "state", cfg.StatePath, "Credential state file (env: BIDASCORE_STATE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// newStore picks the credential backend: Redis when BIDASCORE_REDIS_URL
// is set, the local state file otherwise
func newStore(cfg *Config) (clientstore.Store, error) {
	if cfg.RedisURL != "" {
		rc := redisstore.DefaultConfig()
		rc.URL = cfg.RedisURL
		return redisstore.New(rc)
	}
	return file.New(cfg.StatePath), nil
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

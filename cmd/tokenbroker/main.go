package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/averlon/tokenbroker/internal/config"
	"github.com/averlon/tokenbroker/internal/logger"
	"github.com/averlon/tokenbroker/internal/oauth/broker"
	"github.com/averlon/tokenbroker/internal/oauth/providers"
	"github.com/averlon/tokenbroker/internal/oauth/store"
	"github.com/averlon/tokenbroker/internal/requester"
	"github.com/averlon/tokenbroker/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tokenbroker",
	Short: "Multi-provider OAuth 2.0 token broker",
	Long: `tokenbroker exchanges authorization codes from third-party identity
providers for normalized, stored, auto-refreshing access credentials, and
exposes a provider-agnostic user-info lookup.`,
	RunE: runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags()
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var srv *server.Server
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		requester.Module,
		providers.Module,
		store.Module,
		broker.Module,
		server.Module,
		fx.Populate(&srv),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

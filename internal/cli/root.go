// Package cli implements the treasureland command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/TreasureLand/internal/config"
	"github.com/AaronLay10/TreasureLand/internal/logger"
	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/storage"
	"github.com/AaronLay10/TreasureLand/internal/story"
)

const (
	defaultConfigPath = "server.yaml"
	eventSource       = "treasureland"
)

type app struct {
	cfgFile string
	in      io.Reader
	out     io.Writer
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree reading from in and writing to out.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	rootCmd := &cobra.Command{
		Use:           "treasureland",
		Short:         "Treasure Land adventure game server",
		Long:          "treasureland serves the Treasure Land text adventure over HTTP and MQTT, or plays it in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", defaultConfigPath, "server config file")

	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newPlayCmd())
	rootCmd.AddCommand(a.newLeaderboardCmd())
	rootCmd.AddCommand(a.newStoryCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig reads the config file and initializes logging. The default
// path may be missing; an explicit --config must exist.
func (a *app) loadConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.LoadServerConfig(a.cfgFile, !explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", a.cfgFile, err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openGame compiles the story and opens storage. The caller closes the backend.
func openGame(ctx context.Context, cfg *config.ServerConfig) (*session.Service, *storage.Backend, error) {
	engine, err := story.Load(cfg.Story.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load story: %w", err)
	}

	backend, err := storage.Open(ctx, cfg.Storage, eventSource)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	return session.NewService(backend.Repo, engine), backend, nil
}

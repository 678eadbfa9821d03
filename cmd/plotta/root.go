package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/plotta/internal/model"
)

var (
	// Global flags
	configPath string
	debug      bool

	cfg    *model.AppConfig
	logger *zap.Logger
)

// rootCmd runs the canvas when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "plotta",
	Short: "A sticky-note canvas for the terminal",
	Long: `Plotta keeps free-form notes on a spatial canvas, one canvas per project.

Notes are stored locally and kept in sync across every open session of
the same project. Run without arguments to open your Drafts canvas.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = model.LoadConfig(configPath)
		if err != nil {
			return err
		}

		// The canvas owns the terminal, so it logs to a file.
		toFile := !cmd.HasParent()
		logger, err = buildLogger(cfg.Data.LogPath, toFile)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.NoArgs,
	RunE: runCanvas,
}

func buildLogger(logPath string, toFile bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if toFile {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		config.OutputPaths = []string{logPath}
		config.ErrorOutputPaths = []string{logPath}
	}
	return config.Build()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(listCmd, seedCmd, authCmd, configCmd)
}

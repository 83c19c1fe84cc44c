package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/Conceptual-Machines/merlai/internal/config"
	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	jsonOutput bool

	// set by Execute
	envConfig *config.Config
	appConfig *config.AppConfig
	version   = "dev"

	// progress messages for humans; structured logs go through internal/logger
	clog = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
)

var rootCmd = &cobra.Command{
	Use:   "merlai",
	Short: "Merlai - AI-powered music creation assistant",
	Long: `Merlai generates harmony, bass and drum parts for a melody and
writes the result as a MIDI file. Registered AI models are tried first
when enabled; the rule-based generator answers whenever they fail.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" && envConfig != nil {
			path = envConfig.AppConfigPath
		}
		cfg, err := config.LoadApp(path)
		if err != nil {
			return err
		}
		appConfig = cfg

		if verbose {
			clog.SetLevel(log.DebugLevel)
			env := "development"
			if envConfig != nil {
				env = envConfig.Environment
			}
			if err := logger.Init(env, "debug"); err != nil {
				return err
			}
		}
		if cfg.Path != "" {
			clog.Debug("Loaded config", "path", cfg.Path)
		}
		return nil
	},
}

// Execute runs the CLI. A failing command is reported as "Error: ..." on
// stderr and returned so the caller can flush and exit non-zero.
func Execute(ctx context.Context, cfg *config.Config, releaseVersion string) error {
	envConfig = cfg
	if releaseVersion != "" {
		version = releaseVersion
	}
	defer logger.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.merlai/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(scanPluginsCmd)
	rootCmd.AddCommand(recommendPluginsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

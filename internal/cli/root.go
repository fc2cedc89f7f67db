package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docchat/internal/app"
	"docchat/internal/config"
)

const defaultConfigPath = "./configs/config.yaml"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents using retrieval-augmented generation",
	Long: `docchat ingests documents into a local vector store and answers questions
about them with page citations, using an embedding model and a chat model
served by ollama or an OpenAI-compatible API.

Example usage:
  docchat ingest manual.pdf              # Chunk, embed and store a document
  docchat ask -q "What is the torque?"   # One-shot question
  docchat chat                           # Conversation with history`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		return configureLogger(cfg.Logging)
	},
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "config file (yaml or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func configureLogger(lc config.LoggingConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", lc.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	switch lc.Format {
	case "json":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
	}
	return nil
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return a, nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pansum/panelpipe/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "panelpipe",
	Short: "Turn long multi-speaker audio into speaker-attributed, token-bounded chunks",
	Long: `panelpipe splits audio into overlapping windows, transcribes and
diarizes each window against external services, reconciles everything into
one global speaker timeline, and emits time-aligned, token-bounded text
chunks ready for retrieval indexing.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default panelpipe.yaml in . or ~/.panelpipe)")
}

// setup loads configuration and builds the run logger.
func setup() (*config.Root, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(cfg.Pipeline.LogLvl)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Pipeline.LogLvl, err)
	}
	log.SetLevel(lvl)
	return cfg, log, nil
}

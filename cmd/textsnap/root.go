package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/textsnap/internal/config"
	"github.com/ironsheep/textsnap/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Set by the root command before any subcommand runs.
	mgr    *config.Manager
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "textsnap",
	Short: "Turn screenshots into clean, readable text",
	Long: `textsnap extracts text from screen captures and image files.

Every image goes through the same pipeline:
  - Grayscale, resize to 800px wide, contrast and sharpen
  - Adaptive binarization so text is white on black
  - Tesseract recognition (Spanish by default)
  - Text cleanup: confusable glyphs, punctuation spacing, split decimals,
    list numbering, headings and common shorthand`,
	Version:       Version,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		mgr = m

		cfg := mgr.Get()
		level, format := cfg.LogLevel, cfg.LogFormat
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}

		logger, err = logging.New(logging.Options{Level: level, Format: format})
		if err != nil {
			return err
		}
		if used := mgr.FileUsed(); used != "" {
			logger.WithField("file", used).Debug("Config loaded")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./textsnap.yaml or ~/.textsnap/textsnap.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat, "log-format", "text", "log format: text or json",
	)

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// languageOr returns flag when set, the configured language otherwise.
func languageOr(flag string) string {
	if flag != "" {
		return flag
	}
	return mgr.Get().Language
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/textsnap/internal/normalize"
	"github.com/ironsheep/textsnap/internal/ocr"
)

var (
	cleanLang  string
	cleanTrace bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file|-]",
	Short: "Clean up OCR text without running OCR",
	Long: `Run only the text cleanup over a file or standard input.

With --trace the text is printed after every cleanup layer.

Examples:
  textsnap clean raw.txt
  pbpaste | textsnap clean --trace`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang := languageOr(cleanLang)
		if !ocr.IsSupported(lang) {
			return fmt.Errorf("unsupported language %q", lang)
		}

		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		n := normalize.New(lang)
		if cleanTrace {
			for _, stage := range n.Trace(raw) {
				fmt.Fprintf(out, "--- %s ---\n%s\n", stage.Layer, stage.Output)
			}
			return nil
		}
		fmt.Fprintln(out, n.Clean(raw))
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanLang, "lang", "", "language whose lexicon applies (default from config)")
	cleanCmd.Flags().BoolVar(&cleanTrace, "trace", false, "print the text after each cleanup layer")
}

// readInput reads the named file, or stdin when no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

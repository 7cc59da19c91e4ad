package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/textsnap/internal/capture"
	"github.com/ironsheep/textsnap/internal/ocr"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the OCR engine and screen capture work",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ok := true

		info := ocr.Info()
		fmt.Fprintf(out, "OCR engine (%s)\n", info.Backend)
		if info.Available {
			fmt.Fprintf(out, "  Version:   %s\n", info.Version)
			fmt.Fprintf(out, "  Languages: %s\n", strings.Join(info.Languages, ", "))
			if len(info.Missing) > 0 {
				fmt.Fprintf(out, "  Missing:   %s\n", strings.Join(info.Missing, ", "))
			}
			if lang := mgr.Get().Language; contains(info.Missing, lang) {
				fmt.Fprintf(out, "  Configured language %q is not installed\n", lang)
				ok = false
			}
		} else {
			fmt.Fprintf(out, "  Unavailable: %s\n", info.Error)
			ok = false
		}

		fmt.Fprintln(out, "Displays")
		displays, err := capture.Displays()
		if err != nil {
			fmt.Fprintf(out, "  Unavailable: %v\n", err)
			ok = false
		}
		for i, b := range displays {
			fmt.Fprintf(out, "  #%d: %dx%d at (%d,%d)\n", i, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
		}

		if !ok {
			return errors.New("some checks failed")
		}
		return nil
	},
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/textsnap/internal/capture"
	"github.com/ironsheep/textsnap/internal/jobs"
)

var (
	captureRegion string
	captureLang   string
	captureSave   bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a screen region and extract its text",
	Long: `Capture a rectangle of the screen and print the text it contains.

Coordinates are in virtual screen space, so a region may lie on any
display. Corners may be given in any order; both sides must be at least
20 pixels.

Examples:
  textsnap capture --region 100,100,600,400
  textsnap capture --region 600,400,100,100 --save --lang eng`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if captureRegion == "" {
			return errors.New("--region is required")
		}
		r, err := capture.ParseRegion(captureRegion)
		if err != nil {
			return err
		}

		cfg := mgr.Get()
		img, err := capture.Grab(r)
		if err != nil {
			return err
		}
		logger.WithField("region", r.Normalize().String()).Debug("Screen captured")

		if captureSave {
			path, err := capture.SaveCapture(img, cfg.SaveDir, time.Now())
			if err != nil {
				return err
			}
			logger.WithField("path", path).Info("Capture saved")
		}

		runner := jobs.Retrying(newPipeline(cfg, false), jobs.Config{Attempts: cfg.Attempts, Logger: logger})
		res, err := runner.Run(cmd.Context(), img, languageOr(captureLang))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVar(&captureRegion, "region", "", "screen region x1,y1,x2,y2")
	captureCmd.Flags().StringVar(&captureLang, "lang", "", "OCR language (default from config)")
	captureCmd.Flags().BoolVar(&captureSave, "save", false, "also save the capture as captura_YYYYMMDD_HHMMSS.png in save_dir")
}

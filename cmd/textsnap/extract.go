package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/textsnap/internal/capture"
	"github.com/ironsheep/textsnap/internal/config"
	"github.com/ironsheep/textsnap/internal/imaging"
	"github.com/ironsheep/textsnap/internal/jobs"
	"github.com/ironsheep/textsnap/internal/pipeline"
)

var (
	extractRegion   string
	extractLang     string
	extractWorkers  int
	extractAttempts int
	extractRaw      bool
	extractDump     string
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>...",
	Short: "Extract text from image files",
	Long: `Extract text from one or more image files.

Images are processed concurrently and their text is printed in the order
the files were given. With several files each block is headed by the
file name.

Examples:
  textsnap extract shot.png
  textsnap extract --region 10,20,400,300 shot.png
  textsnap extract --lang eng --workers 4 *.png
  textsnap extract --raw --dump-preprocessed /tmp/seen.png shot.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mgr.Get()
		lang := languageOr(extractLang)

		var region *imaging.Region
		if extractRegion != "" {
			r, err := capture.ParseRegion(extractRegion)
			if err != nil {
				return err
			}
			n := r.Normalize()
			region = &imaging.Region{X1: n.X1, Y1: n.Y1, X2: n.X2, Y2: n.Y2}
		}

		images := make([]image.Image, len(args))
		for i, path := range args {
			img, err := imaging.LoadImage(path)
			if err != nil {
				return err
			}
			if region != nil {
				if img, err = imaging.CropRegion(img, *region); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			images[i] = img
		}

		q := jobs.New(cmd.Context(), newPipeline(cfg, extractRaw), queueConfig(cmd, cfg, len(args)))
		defer q.Close()

		order := make(map[string]int, len(args))
		for i, path := range args {
			id, err := q.Submit(jobs.Request{Image: images[i], Language: lang, Label: path})
			if err != nil {
				return err
			}
			order[id] = i
		}

		results := make([]jobs.Result, len(args))
		for range args {
			select {
			case res := <-q.Results():
				results[order[res.JobID]] = res
				q.Forget(res.JobID)
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for i, res := range results {
			if res.Err != nil {
				failed++
				logger.WithFields(logrus.Fields{
					"file":     res.Label,
					"attempts": res.Attempts,
				}).WithError(res.Err).Error("Extraction failed")
				continue
			}
			if len(args) > 1 {
				fmt.Fprintf(out, "==> %s <==\n", res.Label)
			}
			fmt.Fprintln(out, res.Text)
			if len(args) > 1 && i < len(args)-1 {
				fmt.Fprintln(out)
			}

			if extractDump != "" {
				path := dumpPath(extractDump, i, len(args))
				if err := imaging.SavePNG(res.Output.Processed, path); err != nil {
					return err
				}
				logger.WithField("path", path).Info("Preprocessed image saved")
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d images failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractRegion, "region", "", "crop to x1,y1,x2,y2 before processing")
	extractCmd.Flags().StringVar(&extractLang, "lang", "", "OCR language (default from config)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "concurrent pipeline runs (default from config)")
	extractCmd.Flags().IntVar(&extractAttempts, "attempts", 0, "tries per image when the engine times out (default from config)")
	extractCmd.Flags().BoolVar(&extractRaw, "raw", false, "print the OCR text without cleanup")
	extractCmd.Flags().StringVar(&extractDump, "dump-preprocessed", "", "save the binarized image the engine saw to this PNG path")
}

// newPipeline builds the production pipeline from cfg.
func newPipeline(cfg *config.Config, raw bool) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		TessdataPrefix: cfg.TessdataPrefix,
		SkipNormalize:  raw,
		Logger:         logger,
	})
}

// queueConfig merges the extract flags over cfg. The queue holds all n
// images so every file is accepted up front.
func queueConfig(cmd *cobra.Command, cfg *config.Config, n int) jobs.Config {
	qc := jobs.Config{
		Workers:   cfg.Workers,
		QueueSize: n,
		Attempts:  cfg.Attempts,
		Logger:    logger,
	}
	if cmd.Flags().Changed("workers") {
		qc.Workers = extractWorkers
	}
	if cmd.Flags().Changed("attempts") {
		qc.Attempts = extractAttempts
	}
	return qc
}

// dumpPath returns path for a single image and path with the image index
// before the extension otherwise, e.g. seen-2.png.
func dumpPath(path string, i, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}

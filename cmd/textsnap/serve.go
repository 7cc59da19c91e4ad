package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/textsnap/internal/config"
	"github.com/ironsheep/textsnap/internal/jobs"
	"github.com/ironsheep/textsnap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Start a Model Context Protocol server speaking line-delimited JSON-RPC
on stdin/stdout. Logs go to stderr.

Changes to language and save_dir in the config file apply without a
restart. Configure it in your MCP client, for example:

  {"command": "textsnap", "args": ["serve"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mgr.Get()

		runner := jobs.Retrying(newPipeline(cfg, false), jobs.Config{
			Attempts: cfg.Attempts,
			Logger:   logger,
		})

		srv := server.New(server.Options{
			Runner:   runner,
			Language: cfg.Language,
			SaveDir:  cfg.SaveDir,
			Version:  Version,
			Logger:   logger,
		})

		mgr.OnChange(func(c *config.Config) {
			srv.SetDefaults(c.Language, c.SaveDir)
			logger.WithField("language", c.Language).Info("Config reloaded")
		})
		mgr.WatchConfig()

		logger.WithField("version", Version).Info("MCP server starting")
		return srv.Run(cmd.Context())
	},
}

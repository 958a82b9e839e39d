package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbrandt/chorus/internal/pipeline"
	"github.com/mbrandt/chorus/internal/schedule"
	"github.com/mbrandt/chorus/internal/util"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the scheduled scan and enrichment jobs",
	Long: `Daemon starts the cron scheduler and keeps the catalog current:
inbound and staging libraries are scanned on their configured
schedules, artists are enriched against the enabled search providers
and stale search history is pruned. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	p := pipeline.New(&pipeline.Config{
		Store:       db,
		Concurrency: viper.GetInt("concurrency"),
		Logger:      logger,
	})

	scheduler := schedule.New(&schedule.Config{Store: db, Pipeline: p})
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	util.InfoLog("Scheduler running with jobs: %v", scheduler.Enabled())
	util.InfoLog("Press Ctrl+C to stop")

	<-ctx.Done()

	util.InfoLog("Shutting down, waiting for running jobs")
	scheduler.Stop()
	util.SuccessLog("Done")
	return nil
}

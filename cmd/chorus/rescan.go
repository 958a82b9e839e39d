package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbrandt/chorus/internal/pipeline"
	"github.com/mbrandt/chorus/internal/util"
)

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Rescan a single artist or album directory",
	Long: `Rescan re-ingests one artist's directory or one album directory
without walking the whole library. The scan history records which
artist or album the run was scoped to.`,
}

var rescanArtistCmd = &cobra.Command{
	Use:   "artist <id>",
	Short: "Rescan one artist's directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRescan(cmd, args[0], func(p *pipeline.Pipeline, ctx context.Context, id int64) (*pipeline.Result, error) {
			return p.RescanArtist(ctx, id)
		})
	},
}

var rescanAlbumCmd = &cobra.Command{
	Use:   "album <id>",
	Short: "Rescan one album directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRescan(cmd, args[0], func(p *pipeline.Pipeline, ctx context.Context, id int64) (*pipeline.Result, error) {
			return p.RescanAlbum(ctx, id)
		})
	},
}

func init() {
	rescanCmd.AddCommand(rescanArtistCmd)
	rescanCmd.AddCommand(rescanAlbumCmd)
	rootCmd.AddCommand(rescanCmd)
}

func runRescan(cmd *cobra.Command, rawID string, scan func(*pipeline.Pipeline, context.Context, int64) (*pipeline.Result, error)) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", rawID)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

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

	result, err := scan(p, ctx, id)
	if err != nil {
		return fmt.Errorf("rescan failed: %w", err)
	}

	util.SuccessLog("Rescan complete: %d directories, %d songs added, %d updated in %v",
		result.UnitsProcessed, result.SongsCreated, result.SongsUpdated,
		result.Duration.Round(time.Millisecond))
	return nil
}

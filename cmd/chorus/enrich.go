package main

import (
	"github.com/spf13/cobra"

	"github.com/mbrandt/chorus/internal/enrich"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/util"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich artists against the enabled search providers",
	Long: `Enrich runs one enrichment pass: unprocessed artists, and enriched
artists whose last lookup is older than the configured refresh window,
are queried against the enabled providers (MusicBrainz, Spotify,
iTunes, Last.fm) and their external ids stored. Every query is
recorded in the search history.`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := settings.Load(db)
	if err != nil {
		return err
	}

	enricher := enrich.New(&enrich.Config{Store: db, Settings: cfg})
	result, err := enricher.EnrichArtists(cmd.Context())
	if err != nil {
		return err
	}

	if result.ArtistsExamined == 0 {
		util.InfoLog("No artists need enrichment")
		return nil
	}
	util.SuccessLog("Enriched %d/%d artists (%d failed)",
		result.ArtistsEnriched, result.ArtistsExamined, result.ArtistsFailed)
	for _, err := range result.Errors {
		util.WarnLog("%v", err)
	}
	return nil
}

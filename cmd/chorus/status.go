package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbrandt/chorus/internal/report"
	"github.com/mbrandt/chorus/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog totals and recent scan activity",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("markdown", "", "write the report to a markdown file")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := report.GenerateSummaryReport(db, "")
	if err != nil {
		return err
	}
	summary.DatabasePath = viper.GetString("db")

	if outPath, _ := cmd.Flags().GetString("markdown"); outPath != "" {
		if err := report.WriteMarkdownReport(summary, outPath); err != nil {
			return err
		}
		util.SuccessLog("Report written to %s", outPath)
		return nil
	}

	util.InfoLog("Catalog: %d artists, %d albums, %d songs",
		summary.TotalArtists, summary.TotalAlbums, summary.TotalSongs)
	util.InfoLog("Search queries recorded: %d", summary.SearchQueries)

	if len(summary.Libraries) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LIBRARY\tTYPE\tARTISTS\tALBUMS\tSONGS\tLAST SCAN")
		for _, lib := range summary.Libraries {
			lastScan := "never"
			if lib.LastScanAt != nil {
				lastScan = humanize.Time(*lib.LastScanAt)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				lib.Name, lib.Type, lib.ArtistCount, lib.AlbumCount, lib.SongCount, lastScan)
		}
		w.Flush()
	}

	if len(summary.RecentScans) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RECENT SCAN\tWHEN\tARTISTS\tALBUMS\tSONGS\tERROR")
		for _, scan := range summary.RecentScans {
			errText := "-"
			if scan.Error != "" {
				errText = scan.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				scan.Library, humanize.Time(scan.At),
				scan.FoundArtists, scan.FoundAlbums, scan.FoundSongs, errText)
		}
		w.Flush()
	}

	return nil
}

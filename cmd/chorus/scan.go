package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbrandt/chorus/internal/pipeline"
	"github.com/mbrandt/chorus/internal/report"
	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan [library-type]",
	Short: "Scan a library and ingest new or changed albums",
	Long: `Scan walks a library tree, extracts and normalizes tags, resolves
artists, albums and songs against the catalog and commits each album
directory in a single transaction.

Without an argument every scannable library is processed in order.
With a library type (inbound, staging, storage) only that library is
scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Int("concurrency", 4, "metadata extraction workers")
	viper.BindPFlag("concurrency", scanCmd.Flags().Lookup("concurrency"))
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
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

	start := time.Now()
	var results []*pipeline.Result

	if len(args) == 1 {
		lib, err := libraryByTypeName(db, args[0])
		if err != nil {
			return err
		}
		result, err := p.ScanLibrary(ctx, lib.ID)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		results = append(results, result)
	} else {
		results, err = p.ScanAll(ctx)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
	}

	var units, songs, updated, duplicates, conflicts, errs int
	for _, r := range results {
		units += r.UnitsProcessed
		songs += r.SongsCreated
		updated += r.SongsUpdated
		duplicates += r.Duplicates
		conflicts += r.Conflicts
		errs += len(r.Errors)
	}

	util.InfoLog("")
	util.SuccessLog("=== Scan Summary ===")
	util.InfoLog("Libraries scanned: %d", len(results))
	util.InfoLog("Album directories: %d", units)
	util.InfoLog("Songs added: %d, updated: %d", songs, updated)
	if duplicates > 0 {
		util.WarnLog("Duplicate albums marked: %d", duplicates)
	}
	if conflicts > 0 {
		util.WarnLog("Identity conflicts: %d", conflicts)
	}
	if errs > 0 {
		util.WarnLog("Errors: %d", errs)
	}
	util.InfoLog("Total time: %v", time.Since(start).Round(time.Millisecond))
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	return nil
}

// newEventLogger builds the JSONL event logger honoring the verbosity
// flags; failures degrade to a null logger
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	return logger
}

func libraryByTypeName(db *store.Store, name string) (*store.Library, error) {
	var t store.LibraryType
	switch name {
	case "inbound":
		t = store.LibraryTypeInbound
	case "staging":
		t = store.LibraryTypeStaging
	case "storage":
		t = store.LibraryTypeStorage
	default:
		return nil, fmt.Errorf("unknown library type %q (want inbound, staging or storage)", name)
	}

	lib, err := db.GetLibraryByType(t)
	if err != nil {
		return nil, err
	}
	if lib == nil {
		return nil, fmt.Errorf("no %s library configured (use 'chorus library add')", name)
	}
	return lib, nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage catalog libraries",
}

var libraryAddCmd = &cobra.Command{
	Use:   "add <type> <path>",
	Short: "Register a library directory",
	Long: `Register a directory as a library. Each type (inbound, staging,
storage, user-images) may exist once; inbound and staging feed the
storage library through scans.`,
	Args: cobra.ExactArgs(2),
	RunE: runLibraryAdd,
}

var libraryInitCmd = &cobra.Command{
	Use:   "init <root>",
	Short: "Create and register all four library roles under one root",
	Long: `Init creates inbound/, staging/, storage/ and user-images/
directories under the given root and registers each as its library
role. Roles that already exist are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runLibraryInit,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List libraries and their counts",
	Args:  cobra.NoArgs,
	RunE:  runLibraryList,
}

func init() {
	libraryAddCmd.Flags().String("name", "", "display name (defaults to the type)")
	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryInitCmd)
	libraryCmd.AddCommand(libraryListCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibraryAdd(cmd *cobra.Command, args []string) error {
	typeName, path := args[0], args[1]

	var t store.LibraryType
	switch typeName {
	case "inbound":
		t = store.LibraryTypeInbound
	case "staging":
		t = store.LibraryTypeStaging
	case "storage":
		t = store.LibraryTypeStorage
	case "user-images":
		t = store.LibraryTypeUserImages
	default:
		return fmt.Errorf("unknown library type %q", typeName)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if stat, err := os.Stat(abs); err != nil || !stat.IsDir() {
		return fmt.Errorf("library path is not a directory: %s", abs)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if existing, err := db.GetLibraryByType(t); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("a %s library already exists at %s", typeName, existing.Path)
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = typeName
	}

	lib := &store.Library{Name: name, Path: abs, Type: t}
	if err := db.InsertLibrary(db.DB(), lib); err != nil {
		return err
	}

	util.SuccessLog("Registered %s library %q at %s", typeName, name, abs)
	return nil
}

func runLibraryInit(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	roles := []struct {
		dir string
		t   store.LibraryType
	}{
		{"inbound", store.LibraryTypeInbound},
		{"staging", store.LibraryTypeStaging},
		{"storage", store.LibraryTypeStorage},
		{"user-images", store.LibraryTypeUserImages},
	}

	for _, role := range roles {
		existing, err := db.GetLibraryByType(role.t)
		if err != nil {
			return err
		}
		if existing != nil {
			util.InfoLog("A %s library already exists at %s, skipping", role.dir, existing.Path)
			continue
		}

		path := filepath.Join(root, role.dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		lib := &store.Library{Name: role.dir, Path: path, Type: role.t}
		if err := db.InsertLibrary(db.DB(), lib); err != nil {
			return err
		}
		util.SuccessLog("Registered %s library at %s", role.dir, path)
	}
	return nil
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	libraries, err := db.ListLibraries()
	if err != nil {
		return err
	}
	if len(libraries) == 0 {
		util.InfoLog("No libraries configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tPATH\tARTISTS\tALBUMS\tSONGS\tLAST SCAN")
	for _, lib := range libraries {
		lastScan := "never"
		if lib.LastScanAt != nil {
			lastScan = humanize.Time(*lib.LastScanAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			lib.Name, lib.Type, lib.Path,
			lib.ArtistCount, lib.AlbumCount, lib.SongCount, lastScan)
	}
	return w.Flush()
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/util"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change catalog settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting value",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.ListSettings()
	if err != nil {
		return err
	}

	// Leave room for the key and category columns.
	maxValue := util.GetTerminalWidth() - 60
	if maxValue < 24 {
		maxValue = 24
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tCATEGORY")
	for _, row := range rows {
		value := row.Value
		if len(value) > maxValue {
			value = value[:maxValue-3] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.Key, value, row.Category)
	}
	return w.Flush()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := db.GetSetting(key)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("unknown setting %q", key)
	}
	if existing.IsLocked {
		return fmt.Errorf("setting %q is locked", key)
	}

	if err := db.SetSetting(key, value); err != nil {
		return err
	}

	// Re-parse so an invalid value is caught immediately, and rolled back.
	if _, err := settings.Load(db); err != nil {
		if revertErr := db.SetSetting(key, existing.Value); revertErr != nil {
			util.WarnLog("Failed to revert %s: %v", key, revertErr)
		}
		return fmt.Errorf("value rejected: %w", err)
	}

	util.SuccessLog("Set %s = %s", key, value)
	return nil
}

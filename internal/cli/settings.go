package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <key> [value...]",
	Short: "Set or clear a setting",
	Long: `Set a setting. With no value the setting is removed.

Settings back the scan and import path fallbacks:
  folio set "epub path" ~/books
  folio set "fimfarchive path" ~/fimfarchive/index.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "List settings",
	RunE:  runSettings,
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	// Settings have to work before the first scan, so the library is
	// created here if need be.
	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	key := args[0]
	value := strings.Join(args[1:], " ")

	if value == "" {
		if err := st.DeleteSetting(key); err != nil {
			return fmt.Errorf("failed to remove setting: %w", err)
		}
		fmt.Printf("Removed %q.\n", key)
		return nil
	}

	if err := st.PutSetting(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}

func runSettings(cmd *cobra.Command, args []string) error {
	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := st.Settings()
	if err != nil {
		return fmt.Errorf("failed to list settings: %w", err)
	}

	if len(settings) == 0 {
		fmt.Println("No settings.")
		return nil
	}

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("  %s = %s\n", key, settings[key])
	}
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"folio/config"
	"folio/internal/adapter/store"
)

var (
	cfgFile string
	cfg     *config.Config
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Personal e-book library with a searchable story catalog",
	Long: `Folio keeps a deduplicated library of epub books and a searchable
catalog of story metadata imported from a fimfarchive index.

Example usage:
  folio scan ~/books                   # Ingest epub files into the library
  folio import fimfarchive/index.json  # Build the story catalog
  folio search "#(Adventure) words>50000 order:wilson"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cwd, wdErr := os.Getwd()
			if wdErr != nil {
				return fmt.Errorf("failed to get working directory: %w", wdErr)
			}
			cfg, err = config.LoadFromDir(cwd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if dataDir != "" {
			cfg.Library.Dir = dataDir
		}
		dataDir, err = cfg.DataDir()
		if err != nil {
			return err
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./folio.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "", "data directory (default is ~/.folio)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetDataDir() string {
	return dataDir
}

// openLibrary opens the library database, creating the data directory on
// first use.
func openLibrary() (*store.BoltStore, error) {
	dir := GetDataDir()
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(config.LibraryDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return st, nil
}

// requireLibrary opens the library and fails when none has been created yet.
func requireLibrary() (*store.BoltStore, error) {
	dbPath := config.LibraryDBPath(GetDataDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no library found. Run 'folio scan' first")
	}
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return st, nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"folio/config"
	"folio/internal/adapter/catalog"
	"folio/internal/usecase"
)

var importForce bool

var importCmd = &cobra.Command{
	Use:   "import [index.json]",
	Short: "Build the story catalog from a fimfarchive index",
	Long: `Import story metadata from a fimfarchive index.json into the search
catalog. Wilson scores are computed at import time so searches can
filter and rank by them.

With no path the "fimfarchive path" setting is used. An existing catalog
is only replaced with --force.

Examples:
  folio import fimfarchive/index.json
  folio import --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importForce, "force", false, "replace an existing catalog")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetDataDir()

	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		st, err := openLibrary()
		if err != nil {
			return err
		}
		path, err = st.Setting("fimfarchive path")
		st.Close()
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
		if path == "" {
			return fmt.Errorf("no index given and no \"fimfarchive path\" setting. Run 'folio set \"fimfarchive path\" <file>' first")
		}
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("index does not exist: %w", err)
	}

	if err := config.EnsureDataDir(dir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	catalogPath := config.CatalogPath(dir)
	if _, err := os.Stat(catalogPath); err == nil {
		if !importForce {
			return fmt.Errorf("catalog already exists at %s. Use --force to replace it", catalogPath)
		}
		fmt.Println("Clearing existing catalog...")
		if err := os.RemoveAll(catalogPath); err != nil {
			return fmt.Errorf("failed to clear existing catalog: %w", err)
		}
	}

	cat, err := catalog.NewBleveCatalog(catalogPath, cfg.Import.BatchSize)
	if err != nil {
		return err
	}
	defer cat.Close()

	importUC := usecase.NewImportUseCase(cat, cfg.Import.BatchSize)

	fmt.Printf("Importing %s...\n", path)

	// The record count is unknown up front, so the bar runs as a spinner.
	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Importing[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	progressCallback := func(processed, total int, currentFile string) {
		bar.Set(processed)
	}

	result, err := importUC.Import(path, progressCallback)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	bar.Finish()

	count, err := cat.Count()
	if err != nil {
		return fmt.Errorf("failed to count catalog: %w", err)
	}

	fmt.Printf("\nImport complete:\n")
	fmt.Printf("  Stories imported: %d\n", result.Imported)
	fmt.Printf("  Records skipped:  %d\n", result.Skipped)
	fmt.Printf("  Catalog size:     %d\n", count)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nCatalog stored at: %s\n", catalogPath)
	return nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"folio/config"
	"folio/internal/adapter/epub"
	"folio/internal/adapter/fs"
	"folio/internal/usecase"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Ingest epub files into the library",
	Long: `Scan a directory tree for epub files and add every book not already
in the library. Books are deduplicated by content, so the same file
reached through different paths or symlinks is stored once.

With no path the "epub path" setting is used.

Examples:
  folio scan ~/books
  folio set "epub path" ~/books && folio scan`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		path, err = st.Setting("epub path")
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
		if path == "" {
			return fmt.Errorf("no path given and no \"epub path\" setting. Run 'folio set \"epub path\" <dir>' first")
		}
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	walker := fs.NewWalker(cfg.Scan.Includes, cfg.Scan.Excludes)
	scanUC := usecase.NewScanUseCase(st, walker, fs.Reader{}, epub.NewParser(), cfg.Scan.ReadWorkers, cfg.Scan.BatchSize)

	fmt.Printf("Scanning %s...\n", path)

	// Create progress bar (will be initialized once we know total files)
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time
	var initialized bool

	progressCallback := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if !initialized {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Scanning[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			initialized = true
		}

		bar.Set(processed)

		// Calculate and display ETA
		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Scanning[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := scanUC.Scan(path, progressCallback)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("\nScan complete:\n")
	fmt.Printf("  Files found:  %d\n", result.Found)
	fmt.Printf("  Books added:  %d\n", result.Added)
	fmt.Printf("  Duplicates:   %d (already in the library)\n", result.Duplicates)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nLibrary stored at: %s\n", config.LibraryDBPath(GetDataDir()))
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

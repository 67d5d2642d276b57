package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"folio/config"
	"folio/internal/adapter/cache"
	"folio/internal/adapter/catalog"
	"folio/internal/usecase"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the story catalog",
	Long: `Search the story catalog with free text and filter directives.

Directives:
  author(name)        stories by an author (repeat to OR)
  #(tag)              required tag         -#(tag)  excluded tag
  ~#(tag)             any-of tag group
  words>N  words<N    word count bounds (likewise likes, dislikes)
  wilson>F wilson<F   wilson score bounds, 0..1
  rating:teen         everyone | teen | mature
  status:complete     incomplete | complete | hiatus | cancelled
  order:wilson        relevancy | words | likes | dislikes | wilson

Examples:
  folio search "#(Adventure) -#(Romance) words>50000"
  folio search "author(Quill) order:wilson" --limit 10
  folio search "magic duel rating:teen" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	catalogPath := config.CatalogPath(GetDataDir())
	if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
		return fmt.Errorf("no catalog found. Run 'folio import' first")
	}

	cat, err := catalog.NewBleveCatalog(catalogPath, cfg.Import.BatchSize)
	if err != nil {
		return err
	}
	defer cat.Close()

	searchUC := usecase.NewSearchUseCase(cat, cfg.Search.Limit)
	searcher := cache.NewCachedSearcher(searchUC, cache.NewQueryCache(cfg.Search.CacheSize, cfg.CacheTTL()))

	query := strings.Join(args, " ")
	results, err := searcher.Search(query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(results), query)
	for i, r := range results {
		fmt.Printf("--- [%d] %s by %s ---\n", i+1, r.Title, r.Author)
		fmt.Printf("    %d words | %d likes / %d dislikes | wilson %.3f | %s | %s\n",
			r.Words, r.Likes, r.Dislikes, r.Wilson, r.Rating, r.Status)
		if len(r.Tags) > 0 {
			fmt.Printf("    tags: %s\n", strings.Join(r.Tags, ", "))
		}
		if r.Path != "" {
			fmt.Printf("    %s\n", r.Path)
		}
		fmt.Println()
	}

	return nil
}

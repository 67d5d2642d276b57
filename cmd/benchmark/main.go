package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"folio/internal/adapter/catalog"
	"folio/internal/domain"
	"folio/internal/usecase"
)

var benchQueries = []string{
	"moonlight harbor",
	"author(Luna Quill)",
	"#(Adventure) -#(Romance)",
	"~#(Comedy) ~#(Slice of Life) words>50000",
	"wilson>0.9 order:wilson",
	"likes>1000 dislikes<50 status:complete rating:teen",
	"storm #(Mystery) words>10000 words<100000 order:words",
}

func main() {
	stories := flag.Int("stories", 20000, "Number of generated stories")
	limit := flag.Int("limit", 50, "Result cap per query")
	runs := flag.Int("runs", 20, "Timed runs per query")
	query := flag.String("q", "", "Single query to time (default: built-in suite)")
	flag.Parse()

	dir, err := os.MkdirTemp("", "folio-benchmark-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	cat, err := catalog.NewBleveCatalog(filepath.Join(dir, "catalog.bleve"), 1000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating catalog: %v\n", err)
		os.Exit(1)
	}
	defer cat.Close()

	fmt.Println("CATALOG SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	start := time.Now()
	if err := indexCorpus(cat, *stories); err != nil {
		fmt.Fprintf(os.Stderr, "Error indexing corpus: %v\n", err)
		os.Exit(1)
	}
	count, _ := cat.Count()
	fmt.Printf("Indexed %d stories in %s\n", count, time.Since(start).Round(time.Millisecond))
	fmt.Println()

	searchUC := usecase.NewSearchUseCase(cat, *limit)

	queries := benchQueries
	if *query != "" {
		queries = []string{*query}
	}

	fmt.Printf("Timing %d runs per query (limit %d):\n\n", *runs, *limit)

	for _, q := range queries {
		// Warm-up run, also catches bad queries.
		results, err := searchUC.Search(q, *limit)
		if err != nil {
			fmt.Printf("%s\n    ERROR: %v\n\n", q, err)
			continue
		}

		var total, best time.Duration
		for i := 0; i < *runs; i++ {
			t0 := time.Now()
			if _, err := searchUC.Search(q, *limit); err != nil {
				fmt.Fprintf(os.Stderr, "Error running query: %v\n", err)
				os.Exit(1)
			}
			d := time.Since(t0)
			total += d
			if best == 0 || d < best {
				best = d
			}
		}
		avg := total / time.Duration(*runs)

		fmt.Printf("%s\n", q)
		fmt.Printf("    avg %-12s best %-12s hits %d\n\n",
			avg.Round(time.Microsecond), best.Round(time.Microsecond), len(results))
	}
}

var (
	benchAuthors = []string{
		"Luna Quill", "Marlowe", "Gale Writer", "Inkwell", "Night Scribe",
		"Paper Lantern", "Harold Finch", "Westerly",
	}
	benchTags = []string{
		"Adventure", "Comedy", "Romance", "Sad", "Dark",
		"Slice of Life", "Mystery", "Thriller",
	}
	benchStatuses = []string{"incomplete", "complete", "hiatus", "cancelled"}
	benchRatings  = []string{"everyone", "teen", "mature"}
	benchVocab    = []string{
		"moonlight", "harbor", "storm", "ember", "winter", "garden",
		"clockwork", "silver", "kingdom", "shadow", "letters", "voyage",
		"orchard", "lantern", "hollow", "crown",
	}
)

// indexCorpus fills the catalog with deterministic pseudo-random stories so
// runs are comparable.
func indexCorpus(cat *catalog.BleveCatalog, n int) error {
	rng := rand.New(rand.NewSource(42))

	batch := make([]domain.Story, 0, 1000)
	for i := 0; i < n; i++ {
		batch = append(batch, randomStory(rng, int64(i+1)))
		if len(batch) == cap(batch) {
			if err := cat.AddStories(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		return cat.AddStories(batch)
	}
	return nil
}

func randomStory(rng *rand.Rand, id int64) domain.Story {
	likes := rng.Int63n(5000)
	dislikes := rng.Int63n(500)

	tags := make([]string, 0, 3)
	for _, t := range rng.Perm(len(benchTags))[:1+rng.Intn(3)] {
		tags = append(tags, benchTags[t])
	}

	return domain.Story{
		ID:          id,
		Title:       phrase(rng, 3),
		Description: phrase(rng, 12),
		Author:      benchAuthors[rng.Intn(len(benchAuthors))],
		Path:        fmt.Sprintf("epub/%d.epub", id),
		Likes:       likes,
		Dislikes:    dislikes,
		Words:       1000 + rng.Int63n(400000),
		Wilson:      domain.WilsonLowerBound(likes, dislikes),
		Status:      benchStatuses[rng.Intn(len(benchStatuses))],
		Rating:      benchRatings[rng.Intn(len(benchRatings))],
		Tags:        tags,
	}
}

func phrase(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = benchVocab[rng.Intn(len(benchVocab))]
	}
	return strings.Join(parts, " ")
}

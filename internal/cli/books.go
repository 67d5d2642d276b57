package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"folio/internal/usecase"
)

var booksJSON bool

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List the books in the library",
	RunE:  runBooks,
}

func init() {
	rootCmd.AddCommand(booksCmd)
	booksCmd.Flags().BoolVar(&booksJSON, "json", false, "output as JSON")
}

type bookRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Creator  string `json:"creator,omitempty"`
	Chapters int64  `json:"chapters"`
}

func runBooks(cmd *cobra.Command, args []string) error {
	st, err := requireLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	libUC := usecase.NewLibraryUseCase(st)

	books, err := libUC.Books()
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	rows := make([]bookRow, 0, len(books))
	for _, book := range books {
		count, err := libUC.ChapterCount(book.ID)
		if err != nil {
			return fmt.Errorf("failed to count chapters of %s: %w", book.ID, err)
		}
		rows = append(rows, bookRow{
			ID:       book.ID.String(),
			Title:    book.Title,
			Creator:  book.Creator,
			Chapters: count,
		})
	}

	if booksJSON {
		output, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(rows) == 0 {
		fmt.Println("The library is empty. Run 'folio scan' first.")
		return nil
	}

	fmt.Printf("%d books:\n\n", len(rows))
	for _, row := range rows {
		title := row.Title
		if row.Creator != "" {
			title += " by " + row.Creator
		}
		fmt.Printf("  %s  %s (%d chapters)\n", row.ID, title, row.Chapters)
	}

	return nil
}

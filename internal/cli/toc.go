package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"folio/internal/usecase"
)

var tocCmd = &cobra.Command{
	Use:   "toc <book-id>",
	Short: "Show a book's table of contents",
	Long: `Show a book's table of contents with the chapter number each entry
points at. The numbers are what 'folio read' takes.`,
	Args: cobra.ExactArgs(1),
	RunE: runToc,
}

func init() {
	rootCmd.AddCommand(tocCmd)
}

func runToc(cmd *cobra.Command, args []string) error {
	bookID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid book id: %w", err)
	}

	st, err := requireLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	libUC := usecase.NewLibraryUseCase(st)

	book, err := libUC.Book(bookID)
	if err != nil {
		return err
	}
	entries, err := libUC.Toc(bookID)
	if err != nil {
		return err
	}

	if book.Creator != "" {
		fmt.Printf("%s by %s\n\n", book.Title, book.Creator)
	} else {
		fmt.Printf("%s\n\n", book.Title)
	}

	if len(entries) == 0 {
		count, err := libUC.ChapterCount(bookID)
		if err != nil {
			return err
		}
		fmt.Printf("No table of contents; the book has %d chapters.\n", count)
		return nil
	}

	for _, entry := range entries {
		// The store hands back the chapter without decompressing, which is
		// all the spine position lookup needs.
		chapter, err := st.ChapterByID(entry.ChapterID)
		if err != nil {
			return err
		}
		fmt.Printf("  %3d  %s\n", chapter.Index, entry.Title)
	}

	return nil
}

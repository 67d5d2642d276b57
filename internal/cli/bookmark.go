package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"folio/internal/usecase"
)

var bookmarkProgress float64

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark <book-id> <chapter>",
	Short: "Save the reading position for a book",
	Long: `Save the reading position for a book. Each book keeps one bookmark;
setting a new one replaces the old.

Examples:
  folio bookmark 4f6f... 12
  folio bookmark 4f6f... 12 --progress 0.5`,
	Args: cobra.ExactArgs(2),
	RunE: runBookmark,
}

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List saved reading positions",
	RunE:  runBookmarks,
}

var unbookmarkCmd = &cobra.Command{
	Use:   "unbookmark <book-id>",
	Short: "Remove a book's reading position",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnbookmark,
}

func init() {
	rootCmd.AddCommand(bookmarkCmd)
	rootCmd.AddCommand(bookmarksCmd)
	rootCmd.AddCommand(unbookmarkCmd)
	bookmarkCmd.Flags().Float64Var(&bookmarkProgress, "progress", 0, "position within the chapter, 0..1")
}

func runBookmark(cmd *cobra.Command, args []string) error {
	bookID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid book id: %w", err)
	}
	index, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chapter number: %w", err)
	}

	st, err := requireLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	mark, err := usecase.NewLibraryUseCase(st).SetBookmark(bookID, index, bookmarkProgress)
	if err != nil {
		return err
	}

	fmt.Printf("Bookmarked chapter %d (%.0f%%).\n", index, mark.Progress*100)
	return nil
}

func runBookmarks(cmd *cobra.Command, args []string) error {
	st, err := requireLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	libUC := usecase.NewLibraryUseCase(st)

	marks, err := libUC.Bookmarks()
	if err != nil {
		return fmt.Errorf("failed to list bookmarks: %w", err)
	}

	if len(marks) == 0 {
		fmt.Println("No bookmarks.")
		return nil
	}

	for _, mark := range marks {
		book, err := libUC.Book(mark.BookID)
		if err != nil {
			return err
		}
		chapter, err := st.ChapterByID(mark.ChapterID)
		if err != nil {
			return err
		}
		fmt.Printf("  %s  chapter %d (%.0f%%)  %s\n",
			book.Title, chapter.Index, mark.Progress*100, mark.Created.Format("2006-01-02 15:04"))
	}

	return nil
}

func runUnbookmark(cmd *cobra.Command, args []string) error {
	bookID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid book id: %w", err)
	}

	st, err := requireLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := usecase.NewLibraryUseCase(st).RemoveBookmark(bookID); err != nil {
		return err
	}

	fmt.Println("Bookmark removed.")
	return nil
}

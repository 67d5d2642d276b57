package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"folio/internal/usecase"
)

var readCmd = &cobra.Command{
	Use:   "read <book-id> <chapter>",
	Short: "Print a chapter to stdout",
	Long: `Print the content of one chapter to stdout. Chapters are numbered
from 1 in reading order; 'folio toc' shows the numbers.`,
	Args: cobra.ExactArgs(2),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
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

	chapter, err := usecase.NewLibraryUseCase(st).Chapter(bookID, index)
	if err != nil {
		return err
	}

	os.Stdout.Write(chapter.Content)
	return nil
}

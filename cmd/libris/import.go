// Import commands for the libris CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libris-app/libris/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records from CSV files",
}

var importAuthorsCmd = &cobra.Command{
	Use:   "authors <file>",
	Short: "Import authors from a CSV file",
	Long: `Import authors from a CSV file with columns first_name, last_name,
birth_date (YYYY-MM-DD, optional) and country (optional). Bad rows are
reported and skipped; the rest of the file still imports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("import authors", err)
		}
		defer store.Detach()

		result, err := importer.New(store).ImportAuthors(args[0])
		if err != nil {
			fail("import authors", err)
		}
		printImportResult(result)
		return nil
	},
}

var importBooksCmd = &cobra.Command{
	Use:   "books <file>",
	Short: "Import books from a CSV file",
	Long: `Import books from a CSV file with columns title, isbn, year, pages,
rating, genre (matched by name) and author (matched by name). Bad rows
are reported and skipped; the rest of the file still imports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("import books", err)
		}
		defer store.Detach()

		result, err := importer.New(store).ImportBooks(args[0])
		if err != nil {
			fail("import books", err)
		}
		printImportResult(result)
		return nil
	},
}

func printImportResult(result *importer.Result) {
	if flagJSON {
		printJSON(result)
		return
	}

	fmt.Printf("Imported %d record(s)\n", result.Imported)
	for _, rowErr := range result.Errors {
		fmt.Fprintln(os.Stderr, " ", rowErr)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "%d row(s) had errors\n", len(result.Errors))
	}
}

func init() {
	importCmd.AddCommand(importAuthorsCmd)
	importCmd.AddCommand(importBooksCmd)
}

// Book commands for the libris CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/libris-app/libris/pkg/types"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Manage the book catalog",
}

var (
	bookAddTitle   string
	bookAddISBN    string
	bookAddYear    int
	bookAddPages   int
	bookAddRating  float64
	bookAddGenre   string
	bookAddAuthors []string
)

var bookAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book to the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("book add", err)
		}
		defer store.Detach()

		book := &types.Book{
			Title:  bookAddTitle,
			ISBN:   bookAddISBN,
			Year:   bookAddYear,
			Pages:  bookAddPages,
			Rating: bookAddRating,
		}
		if bookAddGenre != "" {
			genre, err := store.GetGenreByName(bookAddGenre)
			if err != nil {
				fail("book add", err)
			}
			book.GenreID = &genre.GenreID
		}

		created, err := store.CreateBook(book)
		if err != nil {
			fail("book add", err)
		}

		if len(bookAddAuthors) > 0 {
			if err := store.SetBookAuthors(created.BookID, bookAddAuthors); err != nil {
				fail("book add", err)
			}
		}

		if flagJSON {
			full, err := store.GetBook(created.BookID)
			if err != nil {
				fail("book add", err)
			}
			printJSON(full)
		} else {
			fmt.Printf("Created book %s: %s\n", created.BookID, created.Title)
		}
		return nil
	},
}

var bookGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a book with its authors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("book get", err)
		}
		defer store.Detach()

		book, err := store.GetBook(args[0])
		if err != nil {
			fail("book get", err)
		}

		if flagJSON {
			printJSON(book)
			return nil
		}

		names := make([]string, 0, len(book.Authors))
		for _, author := range book.Authors {
			names = append(names, author.FullName())
		}
		fmt.Println("Title:    ", book.Title)
		fmt.Println("Authors:  ", strings.Join(names, ", "))
		fmt.Println("Genre:    ", book.GenreName)
		fmt.Println("ISBN:     ", book.ISBN)
		fmt.Println("Year:     ", book.Year)
		fmt.Println("Pages:    ", book.Pages)
		fmt.Println("Rating:   ", book.Rating)
		fmt.Println("Available:", book.Available)
		return nil
	},
}

var bookListAvailable bool

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("book list", err)
		}
		defer store.Detach()

		var books []*types.Book
		if bookListAvailable {
			books, err = store.ListAvailableBooks()
		} else {
			books, err = store.ListBooks()
		}
		if err != nil {
			fail("book list", err)
		}
		printBooks(books)
		return nil
	},
}

var bookSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search books by title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("book search", err)
		}
		defer store.Detach()

		books, err := store.SearchBooks(args[0])
		if err != nil {
			fail("book search", err)
		}
		printBooks(books)
		return nil
	},
}

func printBooks(books []*types.Book) {
	if flagJSON {
		printJSON(books)
		return
	}
	for _, book := range books {
		status := "available"
		if !book.Available {
			status = "on loan"
		}
		genre := book.GenreName
		if genre == "" {
			genre = "-"
		}
		fmt.Printf("%s  %-40s %-20s %s\n", book.BookID, book.Title, genre, status)
	}
}

var (
	bookUpdateTitle  string
	bookUpdateISBN   string
	bookUpdateYear   int
	bookUpdatePages  int
	bookUpdateRating float64
	bookUpdateGenre  string
)

var bookUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a book's catalog fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("book update", err)
		}
		defer store.Detach()

		book, err := store.GetBook(args[0])
		if err != nil {
			fail("book update", err)
		}

		if cmd.Flags().Changed("title") {
			book.Title = bookUpdateTitle
		}
		if cmd.Flags().Changed("isbn") {
			book.ISBN = bookUpdateISBN
		}
		if cmd.Flags().Changed("year") {
			book.Year = bookUpdateYear
		}
		if cmd.Flags().Changed("pages") {
			book.Pages = bookUpdatePages
		}
		if cmd.Flags().Changed("rating") {
			book.Rating = bookUpdateRating
		}
		if cmd.Flags().Changed("genre") {
			if bookUpdateGenre == "" {
				book.GenreID = nil
			} else {
				genre, err := store.GetGenreByName(bookUpdateGenre)
				if err != nil {
					fail("book update", err)
				}
				book.GenreID = &genre.GenreID
			}
		}

		updated, err := store.UpdateBook(book)
		if err != nil {
			fail("book update", err)
		}

		if flagJSON {
			printJSON(updated)
		} else {
			fmt.Printf("Updated book %s\n", updated.BookID)
		}
		return nil
	},
}

var bookAuthorsCmd = &cobra.Command{
	Use:   "authors <id> <author-id> [author-id...]",
	Short: "Replace a book's author list, in order",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("book authors", err)
		}
		defer store.Detach()

		if err := store.SetBookAuthors(args[0], args[1:]); err != nil {
			fail("book authors", err)
		}

		fmt.Printf("Set %d author(s) on book %s\n", len(args)-1, args[0])
		return nil
	},
}

var bookDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a book (fails while it has open loans)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("book delete", err)
		}
		defer store.Detach()

		if err := store.DeleteBook(args[0]); err != nil {
			fail("book delete", err)
		}

		fmt.Println("Deleted book", args[0])
		return nil
	},
}

func init() {
	bookAddCmd.Flags().StringVar(&bookAddTitle, "title", "", "book title (required)")
	bookAddCmd.Flags().StringVar(&bookAddISBN, "isbn", "", "ISBN")
	bookAddCmd.Flags().IntVar(&bookAddYear, "year", 0, "publication year")
	bookAddCmd.Flags().IntVar(&bookAddPages, "pages", 0, "page count")
	bookAddCmd.Flags().Float64Var(&bookAddRating, "rating", 0, "rating 0.0-5.0")
	bookAddCmd.Flags().StringVar(&bookAddGenre, "genre", "", "genre name")
	bookAddCmd.Flags().StringSliceVar(&bookAddAuthors, "author", nil, "author ID (repeatable, order kept)")
	bookAddCmd.MarkFlagRequired("title")

	bookListCmd.Flags().BoolVar(&bookListAvailable, "available", false, "only books available for checkout")

	bookUpdateCmd.Flags().StringVar(&bookUpdateTitle, "title", "", "new title")
	bookUpdateCmd.Flags().StringVar(&bookUpdateISBN, "isbn", "", "new ISBN")
	bookUpdateCmd.Flags().IntVar(&bookUpdateYear, "year", 0, "new publication year")
	bookUpdateCmd.Flags().IntVar(&bookUpdatePages, "pages", 0, "new page count")
	bookUpdateCmd.Flags().Float64Var(&bookUpdateRating, "rating", 0, "new rating 0.0-5.0")
	bookUpdateCmd.Flags().StringVar(&bookUpdateGenre, "genre", "", "new genre name (empty clears it)")

	bookCmd.AddCommand(bookAddCmd)
	bookCmd.AddCommand(bookGetCmd)
	bookCmd.AddCommand(bookListCmd)
	bookCmd.AddCommand(bookSearchCmd)
	bookCmd.AddCommand(bookUpdateCmd)
	bookCmd.AddCommand(bookAuthorsCmd)
	bookCmd.AddCommand(bookDeleteCmd)
}

// Genre commands for the libris CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libris-app/libris/pkg/types"
)

var genreCmd = &cobra.Command{
	Use:   "genre",
	Short: "Manage genres",
}

var (
	genreAddName        string
	genreAddDescription string
)

var genreAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a genre",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("genre add", err)
		}
		defer store.Detach()

		genre, err := store.CreateGenre(&types.Genre{
			Name:        genreAddName,
			Description: genreAddDescription,
		})
		if err != nil {
			fail("genre add", err)
		}

		if flagJSON {
			printJSON(genre)
		} else {
			fmt.Printf("Created genre %s: %s\n", genre.GenreID, genre.Name)
		}
		return nil
	},
}

var genreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List genres",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("genre list", err)
		}
		defer store.Detach()

		genres, err := store.ListGenres()
		if err != nil {
			fail("genre list", err)
		}

		if flagJSON {
			printJSON(genres)
			return nil
		}
		for _, genre := range genres {
			fmt.Printf("%s  %s\n", genre.GenreID, genre.Name)
		}
		return nil
	},
}

var (
	genreUpdateName        string
	genreUpdateDescription string
)

var genreUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a genre",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("genre update", err)
		}
		defer store.Detach()

		genre, err := store.GetGenre(args[0])
		if err != nil {
			fail("genre update", err)
		}

		if cmd.Flags().Changed("name") {
			genre.Name = genreUpdateName
		}
		if cmd.Flags().Changed("description") {
			genre.Description = genreUpdateDescription
		}

		updated, err := store.UpdateGenre(genre)
		if err != nil {
			fail("genre update", err)
		}

		if flagJSON {
			printJSON(updated)
		} else {
			fmt.Printf("Updated genre %s\n", updated.GenreID)
		}
		return nil
	},
}

var genreDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a genre (books keep no genre reference)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("genre delete", err)
		}
		defer store.Detach()

		if err := store.DeleteGenre(args[0]); err != nil {
			fail("genre delete", err)
		}

		fmt.Fprintln(os.Stdout, "Deleted genre", args[0])
		return nil
	},
}

func init() {
	genreAddCmd.Flags().StringVar(&genreAddName, "name", "", "genre name (required)")
	genreAddCmd.Flags().StringVar(&genreAddDescription, "description", "", "genre description")
	genreAddCmd.MarkFlagRequired("name")

	genreUpdateCmd.Flags().StringVar(&genreUpdateName, "name", "", "new genre name")
	genreUpdateCmd.Flags().StringVar(&genreUpdateDescription, "description", "", "new genre description")

	genreCmd.AddCommand(genreAddCmd)
	genreCmd.AddCommand(genreListCmd)
	genreCmd.AddCommand(genreUpdateCmd)
	genreCmd.AddCommand(genreDeleteCmd)
}

// Author commands for the libris CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libris-app/libris/pkg/types"
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Manage authors",
}

var (
	authorAddFirstName string
	authorAddLastName  string
	authorAddBirthDate string
	authorAddCountry   string
)

var authorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an author",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		author := &types.Author{
			FirstName: authorAddFirstName,
			LastName:  authorAddLastName,
			Country:   authorAddCountry,
		}
		if authorAddBirthDate != "" {
			birthDate, err := parseDate(authorAddBirthDate)
			if err != nil {
				fail("author add", err)
			}
			author.BirthDate = &birthDate
		}

		store, err := attachStore()
		if err != nil {
			fail("author add", err)
		}
		defer store.Detach()

		created, err := store.CreateAuthor(author)
		if err != nil {
			fail("author add", err)
		}

		if flagJSON {
			printJSON(created)
		} else {
			fmt.Printf("Created author %s: %s\n", created.AuthorID, created.FullName())
		}
		return nil
	},
}

var authorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("author list", err)
		}
		defer store.Detach()

		authors, err := store.ListAuthors()
		if err != nil {
			fail("author list", err)
		}
		printAuthors(authors)
		return nil
	},
}

var authorSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search authors by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("author search", err)
		}
		defer store.Detach()

		authors, err := store.SearchAuthors(args[0])
		if err != nil {
			fail("author search", err)
		}
		printAuthors(authors)
		return nil
	},
}

func printAuthors(authors []*types.Author) {
	if flagJSON {
		printJSON(authors)
		return
	}
	for _, author := range authors {
		country := author.Country
		if country == "" {
			country = "-"
		}
		fmt.Printf("%s  %-30s %s\n", author.AuthorID, author.FullName(), country)
	}
}

var (
	authorUpdateFirstName string
	authorUpdateLastName  string
	authorUpdateBirthDate string
	authorUpdateCountry   string
)

var authorUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an author",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("author update", err)
		}
		defer store.Detach()

		author, err := store.GetAuthor(args[0])
		if err != nil {
			fail("author update", err)
		}

		if cmd.Flags().Changed("first-name") {
			author.FirstName = authorUpdateFirstName
		}
		if cmd.Flags().Changed("last-name") {
			author.LastName = authorUpdateLastName
		}
		if cmd.Flags().Changed("country") {
			author.Country = authorUpdateCountry
		}
		if cmd.Flags().Changed("birth-date") {
			birthDate, err := parseDate(authorUpdateBirthDate)
			if err != nil {
				fail("author update", err)
			}
			author.BirthDate = &birthDate
		}

		updated, err := store.UpdateAuthor(author)
		if err != nil {
			fail("author update", err)
		}

		if flagJSON {
			printJSON(updated)
		} else {
			fmt.Printf("Updated author %s\n", updated.AuthorID)
		}
		return nil
	},
}

var authorDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an author (book links are removed, books stay)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("author delete", err)
		}
		defer store.Detach()

		if err := store.DeleteAuthor(args[0]); err != nil {
			fail("author delete", err)
		}

		fmt.Println("Deleted author", args[0])
		return nil
	},
}

func init() {
	authorAddCmd.Flags().StringVar(&authorAddFirstName, "first-name", "", "author first name (required)")
	authorAddCmd.Flags().StringVar(&authorAddLastName, "last-name", "", "author last name (required)")
	authorAddCmd.Flags().StringVar(&authorAddBirthDate, "birth-date", "", "birth date (YYYY-MM-DD)")
	authorAddCmd.Flags().StringVar(&authorAddCountry, "country", "", "country of origin")
	authorAddCmd.MarkFlagRequired("first-name")
	authorAddCmd.MarkFlagRequired("last-name")

	authorUpdateCmd.Flags().StringVar(&authorUpdateFirstName, "first-name", "", "new first name")
	authorUpdateCmd.Flags().StringVar(&authorUpdateLastName, "last-name", "", "new last name")
	authorUpdateCmd.Flags().StringVar(&authorUpdateBirthDate, "birth-date", "", "new birth date (YYYY-MM-DD)")
	authorUpdateCmd.Flags().StringVar(&authorUpdateCountry, "country", "", "new country")

	authorCmd.AddCommand(authorAddCmd)
	authorCmd.AddCommand(authorListCmd)
	authorCmd.AddCommand(authorSearchCmd)
	authorCmd.AddCommand(authorUpdateCmd)
	authorCmd.AddCommand(authorDeleteCmd)
}

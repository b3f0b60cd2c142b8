// Reader commands for the libris CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libris-app/libris/pkg/types"
)

var readerCmd = &cobra.Command{
	Use:   "reader",
	Short: "Manage library readers",
}

var (
	readerAddFirstName string
	readerAddLastName  string
	readerAddEmail     string
	readerAddPhone     string
)

var readerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a reader",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("reader add", err)
		}
		defer store.Detach()

		reader, err := store.CreateReader(&types.Reader{
			FirstName: readerAddFirstName,
			LastName:  readerAddLastName,
			Email:     readerAddEmail,
			Phone:     readerAddPhone,
			Active:    true,
		})
		if err != nil {
			fail("reader add", err)
		}

		if flagJSON {
			printJSON(reader)
		} else {
			fmt.Printf("Registered reader %s: %s\n", reader.ReaderID, reader.FullName())
		}
		return nil
	},
}

var readerListActive bool

var readerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List readers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("reader list", err)
		}
		defer store.Detach()

		var readers []*types.Reader
		if readerListActive {
			readers, err = store.ListActiveReaders()
		} else {
			readers, err = store.ListReaders()
		}
		if err != nil {
			fail("reader list", err)
		}

		if flagJSON {
			printJSON(readers)
			return nil
		}
		for _, reader := range readers {
			status := "active"
			if !reader.Active {
				status = "inactive"
			}
			fmt.Printf("%s  %-30s %-8s %s\n", reader.ReaderID, reader.FullName(), status, reader.Email)
		}
		return nil
	},
}

var (
	readerUpdateFirstName string
	readerUpdateLastName  string
	readerUpdateEmail     string
	readerUpdatePhone     string
	readerUpdateActive    bool
)

var readerUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a reader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("reader update", err)
		}
		defer store.Detach()

		reader, err := store.GetReader(args[0])
		if err != nil {
			fail("reader update", err)
		}

		if cmd.Flags().Changed("first-name") {
			reader.FirstName = readerUpdateFirstName
		}
		if cmd.Flags().Changed("last-name") {
			reader.LastName = readerUpdateLastName
		}
		if cmd.Flags().Changed("email") {
			reader.Email = readerUpdateEmail
		}
		if cmd.Flags().Changed("phone") {
			reader.Phone = readerUpdatePhone
		}
		if cmd.Flags().Changed("active") {
			reader.Active = readerUpdateActive
		}

		updated, err := store.UpdateReader(reader)
		if err != nil {
			fail("reader update", err)
		}

		if flagJSON {
			printJSON(updated)
		} else {
			fmt.Printf("Updated reader %s\n", updated.ReaderID)
		}
		return nil
	},
}

var readerDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a reader (fails while the reader has open loans)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("reader delete", err)
		}
		defer store.Detach()

		if err := store.DeleteReader(args[0]); err != nil {
			fail("reader delete", err)
		}

		fmt.Println("Deleted reader", args[0])
		return nil
	},
}

func init() {
	readerAddCmd.Flags().StringVar(&readerAddFirstName, "first-name", "", "reader first name (required)")
	readerAddCmd.Flags().StringVar(&readerAddLastName, "last-name", "", "reader last name (required)")
	readerAddCmd.Flags().StringVar(&readerAddEmail, "email", "", "reader email")
	readerAddCmd.Flags().StringVar(&readerAddPhone, "phone", "", "reader phone")
	readerAddCmd.MarkFlagRequired("first-name")
	readerAddCmd.MarkFlagRequired("last-name")

	readerListCmd.Flags().BoolVar(&readerListActive, "active", false, "only active readers")

	readerUpdateCmd.Flags().StringVar(&readerUpdateFirstName, "first-name", "", "new first name")
	readerUpdateCmd.Flags().StringVar(&readerUpdateLastName, "last-name", "", "new last name")
	readerUpdateCmd.Flags().StringVar(&readerUpdateEmail, "email", "", "new email")
	readerUpdateCmd.Flags().StringVar(&readerUpdatePhone, "phone", "", "new phone")
	readerUpdateCmd.Flags().BoolVar(&readerUpdateActive, "active", true, "active flag (--active=false deactivates)")

	readerCmd.AddCommand(readerAddCmd)
	readerCmd.AddCommand(readerListCmd)
	readerCmd.AddCommand(readerUpdateCmd)
	readerCmd.AddCommand(readerDeleteCmd)
}

// Loan commands for the libris CLI.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/libris-app/libris/internal/sqlite"
	"github.com/libris-app/libris/pkg/types"
)

var loanCmd = &cobra.Command{
	Use:   "loan",
	Short: "Check books out and in",
}

var (
	loanCheckoutDue  string
	loanCheckoutNote string
)

var loanCheckoutCmd = &cobra.Command{
	Use:   "checkout <book-id> <reader-id>",
	Short: "Check a book out to a reader",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dueOn, err := parseDate(loanCheckoutDue)
		if err != nil {
			fail("loan checkout", err)
		}

		store, err := attachStore()
		if err != nil {
			fail("loan checkout", err)
		}
		defer store.Detach()

		loan, err := store.Checkout(args[0], args[1], dueOn, loanCheckoutNote)
		if err != nil {
			fail("loan checkout", err)
		}

		if flagJSON {
			printJSON(loan)
		} else {
			fmt.Printf("Checked out %q to %s, due %s (loan %s)\n",
				loan.BookTitle, loan.ReaderName, formatDay(loan.DueOn), loan.LoanID)
		}
		return nil
	},
}

var loanReturnCmd = &cobra.Command{
	Use:   "return <loan-id>",
	Short: "Return a loaned book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("loan return", err)
		}
		defer store.Detach()

		loan, err := store.Return(args[0])
		if err != nil {
			fail("loan return", err)
		}

		if flagJSON {
			printJSON(loan)
		} else {
			fmt.Printf("Returned %q (loan %s)\n", loan.BookTitle, loan.LoanID)
		}
		return nil
	},
}

var loanCancelCmd = &cobra.Command{
	Use:   "cancel <loan-id>",
	Short: "Cancel an open loan and free the book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("loan cancel", err)
		}
		defer store.Detach()

		loan, err := store.Cancel(args[0])
		if err != nil {
			fail("loan cancel", err)
		}

		if flagJSON {
			printJSON(loan)
		} else {
			fmt.Printf("Cancelled loan %s for %q\n", loan.LoanID, loan.BookTitle)
		}
		return nil
	},
}

var loanGetCmd = &cobra.Command{
	Use:   "get <loan-id>",
	Short: "Show one loan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("loan get", err)
		}
		defer store.Detach()

		loan, err := store.GetLoan(args[0])
		if err != nil {
			fail("loan get", err)
		}

		if flagJSON {
			printJSON(loan)
			return nil
		}
		fmt.Println("Loan:     ", loan.LoanID)
		fmt.Println("Book:     ", loan.BookTitle)
		fmt.Println("Reader:   ", loan.ReaderName)
		fmt.Println("State:    ", loan.State)
		fmt.Println("Loaned:   ", formatDay(loan.LoanedOn))
		fmt.Println("Due:      ", formatDay(loan.DueOn))
		fmt.Println("Returned: ", formatDayPtr(loan.ReturnedOn))
		if loan.Note != "" {
			fmt.Println("Note:     ", loan.Note)
		}
		return nil
	},
}

var (
	loanListState  string
	loanListBook   string
	loanListReader string
)

var loanListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loans",
	Long: `List loans, optionally filtered by state, book, or reader.

Listing overdue loans first sweeps any active loan whose due date has
passed, so the listing matches today's calendar.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("loan list", err)
		}
		defer store.Detach()

		// Maintenance pass so an overdue listing reflects today.
		if loanListState == types.LoanOverdue {
			if _, err := store.SweepOverdue(time.Now().UTC()); err != nil {
				fail("loan list", err)
			}
		}

		loans, err := store.ListLoans(sqlite.LoanFilter{
			State:    loanListState,
			BookID:   loanListBook,
			ReaderID: loanListReader,
		})
		if err != nil {
			fail("loan list", err)
		}

		if flagJSON {
			printJSON(loans)
			return nil
		}
		for _, loan := range loans {
			fmt.Printf("%s  %-9s %-40s %-25s due %s\n",
				loan.LoanID, loan.State, loan.BookTitle, loan.ReaderName, formatDay(loan.DueOn))
		}
		return nil
	},
}

var loanSweepAsOf string

var loanSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark active loans past their due date as overdue",
	Long: `Sweep flags every active loan whose due date is strictly before
the given day as overdue. A loan due today is not overdue. Sweeping is
idempotent and never changes book availability.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		today := time.Now().UTC()
		if loanSweepAsOf != "" {
			var err error
			if today, err = parseDate(loanSweepAsOf); err != nil {
				fail("loan sweep", err)
			}
		}

		store, err := attachStore()
		if err != nil {
			fail("loan sweep", err)
		}
		defer store.Detach()

		swept, err := store.SweepOverdue(today)
		if err != nil {
			fail("loan sweep", err)
		}

		if flagJSON {
			printJSON(map[string]int64{"swept": swept})
		} else {
			fmt.Printf("Marked %d loan(s) overdue\n", swept)
		}
		return nil
	},
}

func init() {
	loanCheckoutCmd.Flags().StringVar(&loanCheckoutDue, "due", "", "due date (YYYY-MM-DD, required)")
	loanCheckoutCmd.Flags().StringVar(&loanCheckoutNote, "note", "", "loan note")
	loanCheckoutCmd.MarkFlagRequired("due")

	loanListCmd.Flags().StringVar(&loanListState, "state", "", "filter by state (active, overdue, returned, cancelled)")
	loanListCmd.Flags().StringVar(&loanListBook, "book", "", "filter by book ID")
	loanListCmd.Flags().StringVar(&loanListReader, "reader", "", "filter by reader ID")

	loanSweepCmd.Flags().StringVar(&loanSweepAsOf, "as-of", "", "sweep as of this day (YYYY-MM-DD, default today)")

	loanCmd.AddCommand(loanCheckoutCmd)
	loanCmd.AddCommand(loanReturnCmd)
	loanCmd.AddCommand(loanCancelCmd)
	loanCmd.AddCommand(loanGetCmd)
	loanCmd.AddCommand(loanListCmd)
	loanCmd.AddCommand(loanSweepCmd)
}

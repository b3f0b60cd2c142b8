// Report commands for the libris CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/libris-app/libris/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export CSV reports and summary statistics",
}

var reportBooksCmd = &cobra.Command{
	Use:   "books",
	Short: "Per-book usage report (CSV)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runReport("report books", func(w *report.Writer, out io.Writer) error {
			return w.Books(out)
		})
		return nil
	},
}

var reportLoansCmd = &cobra.Command{
	Use:   "loans",
	Short: "Circulation report with days overdue (CSV)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runReport("report loans", func(w *report.Writer, out io.Writer) error {
			return w.Loans(out, time.Now().UTC())
		})
		return nil
	},
}

var reportReadersCmd = &cobra.Command{
	Use:   "readers",
	Short: "Per-reader statistics report (CSV)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runReport("report readers", func(w *report.Writer, out io.Writer) error {
			return w.Readers(out)
		})
		return nil
	},
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Library-wide totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			fail("report summary", err)
		}
		defer store.Detach()

		summary, err := report.New(store).Summary()
		if err != nil {
			fail("report summary", err)
		}

		if flagJSON {
			printJSON(summary)
			return nil
		}
		fmt.Println("Books:          ", summary.TotalBooks)
		fmt.Println("  available:    ", summary.AvailableBooks)
		fmt.Println("Authors:        ", summary.TotalAuthors)
		fmt.Println("Readers:        ", summary.TotalReaders)
		fmt.Println("  active:       ", summary.ActiveReaders)
		fmt.Println("Loans:          ", summary.TotalLoans)
		fmt.Println("  active:       ", summary.ActiveLoans)
		fmt.Println("  overdue:      ", summary.OverdueLoans)
		return nil
	},
}

// runReport attaches the store and streams one CSV report to stdout or
// the --out file.
func runReport(op string, render func(*report.Writer, io.Writer) error) {
	store, err := attachStore()
	if err != nil {
		fail(op, err)
	}
	defer store.Detach()

	out := io.Writer(os.Stdout)
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			fail(op, err)
		}
		defer f.Close()
		out = f
	}

	if err := render(report.New(store), out); err != nil {
		fail(op, err)
	}

	if reportOut != "" {
		fmt.Println("Wrote", reportOut)
	}
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportOut, "out", "", "write the report to this file instead of stdout")

	reportCmd.AddCommand(reportBooksCmd)
	reportCmd.AddCommand(reportLoansCmd)
	reportCmd.AddCommand(reportReadersCmd)
	reportCmd.AddCommand(reportSummaryCmd)
}

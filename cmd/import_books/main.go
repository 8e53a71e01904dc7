package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"library-ledger/config"
	"library-ledger/library"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := newImportCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd(cfg config.Config) *cobra.Command {
	var dbPath, file string

	cmd := &cobra.Command{
		Use:          "import_books",
		Short:        "Register every book listed in a CSV file (title,author,isbn,quantity)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(filepath.Clean(file))
			if err != nil {
				return err
			}
			defer f.Close()

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
			ledger, err := library.NewLedger(dbPath, library.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer ledger.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Importing books from %s...\n", file)
			res, err := importCatalog(cmd.Context(), ledger, f, out)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nImport complete!\n")
			fmt.Fprintf(out, "Successfully imported: %d books\n", res.imported)
			fmt.Fprintf(out, "Errors: %d\n", res.failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", cfg.DBPath, "path to the SQLite database")
	cmd.Flags().StringVar(&file, "file", "", "CSV file with title,author,isbn,quantity rows")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type importResult struct {
	imported int
	failed   int
}

// importCatalog registers one book per CSV row. A header row whose first
// field is "title" is skipped. Row failures are reported and counted; only a
// malformed CSV stream aborts the import.
func importCatalog(ctx context.Context, ledger *library.Ledger, r io.Reader, out io.Writer) (importResult, error) {
	var res importResult

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "title") {
			continue
		}

		title, author, isbn, quantity, err := parseRow(rec)
		if err != nil {
			fmt.Fprintf(out, "Line %d: ERROR - %v\n", line, err)
			res.failed++
			continue
		}

		fmt.Fprintf(out, "Importing: %s by %s... ", library.Truncate(title, 50), library.Truncate(author, 30))
		book, err := ledger.RegisterBook(ctx, title, author, isbn, quantity)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			res.failed++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", book.ID)
		res.imported++
	}
}

func parseRow(rec []string) (title, author, isbn string, quantity int, err error) {
	if len(rec) < 2 {
		return "", "", "", 0, fmt.Errorf("%w: want at least title and author, got %d fields", library.ErrInvalidInput, len(rec))
	}
	title, author = rec[0], rec[1]
	if len(rec) > 2 {
		isbn = rec[2]
	}
	quantity = 1
	if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
		quantity, err = strconv.Atoi(strings.TrimSpace(rec[3]))
		if err != nil {
			return "", "", "", 0, fmt.Errorf("%w: quantity %q is not a number", library.ErrInvalidInput, rec[3])
		}
	}
	return title, author, isbn, quantity, nil
}

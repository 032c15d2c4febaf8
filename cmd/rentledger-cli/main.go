package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"rentledger/internal/backup"
	"rentledger/internal/config"
	"rentledger/internal/services"
	"rentledger/internal/storage"
	"rentledger/internal/transfer"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "rentledger-cli",
	Short: "Manage a rentledger database from the command line",
	Long: `rentledger-cli imports and exports ledger data as CSV and creates or
restores JSON backups, operating directly on the SQLite database used by the
rentledger server.`,
	SilenceUsage: true,
}

var importCmd = &cobra.Command{
	Use:   "import <properties|revenues|expenses> <file.csv>",
	Short: "Import records from a CSV file",
	Long: `Import reads a CSV file and inserts its rows into the ledger. Rows that
fail validation are reported with their line number; valid rows are imported
regardless.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <properties|revenues|expenses|summary>",
	Short: "Export ledger data as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var backupCmd = &cobra.Command{
	Use:   "backup <file.json>",
	Short: "Write a validated backup document of the whole ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file.json>",
	Short: "Replace the ledger with the content of a backup document",
	Long: `Restore validates the backup document end to end (version, totals, record
validity, referential integrity) before touching the database. An invalid
document leaves the ledger unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default from SQLITE_DB_PATH)")
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(importCmd, exportCmd, backupCmd, restoreCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openLedger builds the service layer over the configured database. The CLI
// never publishes events.
func openLedger() (*services.LedgerService, *services.AnalyticsService, error) {
	path := dbPath
	if path == "" {
		path = config.Load().SQLiteDBPath
	}

	store, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return services.NewLedgerService(store, nil), services.NewAnalyticsService(store), nil
}

func runImport(cmd *cobra.Command, args []string) error {
	kind, file := args[0], args[1]

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	ledger, _, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := context.Background()
	var result transfer.ImportResult
	switch kind {
	case "properties":
		result, err = transfer.ImportProperties(ctx, f, ledger)
	case "revenues":
		result, err = transfer.ImportRevenues(ctx, f, ledger)
	case "expenses":
		result, err = transfer.ImportExpenses(ctx, f, ledger)
	default:
		return fmt.Errorf("unknown import kind %q", kind)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s\n", result.Imported, kind)
	for _, rowErr := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %s\n", rowErr.Line, rowErr.Message)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d rows rejected", len(result.Errors))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	kind := args[0]

	ledger, analytics, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	var out io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	ctx := context.Background()
	switch kind {
	case "properties":
		properties, err := ledger.ListProperties(ctx)
		if err != nil {
			return err
		}
		return transfer.ExportProperties(out, properties)
	case "revenues":
		revenues, err := ledger.ListRevenues(ctx, "")
		if err != nil {
			return err
		}
		return transfer.ExportRevenues(out, revenues)
	case "expenses":
		expenses, err := ledger.ListExpenses(ctx, "")
		if err != nil {
			return err
		}
		return transfer.ExportExpenses(out, expenses)
	case "summary":
		financials, err := analytics.AllPropertyFinancials(ctx)
		if err != nil {
			return err
		}
		return transfer.ExportFinancialSummary(out, financials)
	default:
		return fmt.Errorf("unknown export kind %q", kind)
	}
}

func runBackup(cmd *cobra.Command, args []string) error {
	ledger, _, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	snap, err := ledger.Snapshot(context.Background())
	if err != nil {
		return err
	}
	doc := backup.NewDocument(snap, time.Now())

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := doc.Encode(f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backup written: %d properties, %d revenues, %d expenses\n",
		doc.Metadata.TotalProperties, doc.Metadata.TotalRevenues, doc.Metadata.TotalExpenses)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := backup.Decode(f)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid backup document: %w", err)
	}

	ledger, _, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	if err := ledger.Restore(context.Background(), doc.Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %d properties, %d revenues, %d expenses\n",
		len(doc.Properties), len(doc.Revenues), len(doc.Expenses))
	return nil
}

// Package cli holds the one-shot maintenance commands that run the
// auto-transition scans outside the in-process scheduler, e.g. from an
// external cron or a manual invocation.
package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/borrowrequests"
	"github.com/openshelf/openshelf/internal/scheduler"
)

// ScanKind selects which auto-transition scan a ScanCommand runs.
type ScanKind string

const (
	ScanOverdue ScanKind = "overdue"
	ScanExpired ScanKind = "expired"
)

// ScanCommand runs one auto-transition scan against the configured
// database and exits.
type ScanCommand struct {
	kind ScanKind

	DatabaseDriver string
	DatabasePath   string
	DatabaseDSN    string
}

// NewOverdueScanCommand creates the borrowed-to-overdue scan command.
func NewOverdueScanCommand() *ScanCommand {
	return &ScanCommand{kind: ScanOverdue}
}

// NewExpiredScanCommand creates the pending-to-expired scan command.
func NewExpiredScanCommand() *ScanCommand {
	return &ScanCommand{kind: ScanExpired}
}

// ParseFlags parses command line flags. Defaults come from the same
// environment configuration the server uses.
func (cmd *ScanCommand) ParseFlags(args []string) error {
	cfg := config.NewConfig()
	name := string(cmd.kind) + "-scan"
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	fs.StringVar(&cmd.DatabaseDriver, "driver", cfg.Database.Driver, "Database driver (sqlite or postgres)")
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the sqlite database file")
	fs.StringVar(&cmd.DatabaseDSN, "dsn", cfg.Database.DSN, "Postgres DSN (with -driver postgres)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [options]\n\n", os.Args[0], name)
		switch cmd.kind {
		case ScanOverdue:
			fmt.Fprintf(os.Stderr, "Move borrowed requests whose end date has passed to overdue.\n\n")
		case ScanExpired:
			fmt.Fprintf(os.Stderr, "Move pending requests whose start date has passed to expired.\n\n")
		}
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the scan once.
func (cmd *ScanCommand) Run() error {
	db, err := database.NewDatabase(config.Database{
		Driver: cmd.DatabaseDriver,
		Path:   cmd.DatabasePath,
		DSN:    cmd.DatabaseDSN,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := borrowrequests.NewRepository(db.DB)
	scans := scheduler.NewScanScheduler(repo, scheduler.Config{}, time.Now)

	switch cmd.kind {
	case ScanOverdue:
		scans.RunOverdueScan()
	case ScanExpired:
		scans.RunExpiredScan()
	default:
		return fmt.Errorf("unknown scan kind %q", cmd.kind)
	}
	return nil
}

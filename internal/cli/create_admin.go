package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
)

// CreateAdminCommand seeds the initial administrator account.
type CreateAdminCommand struct {
	Email    string
	Password string

	DatabaseDriver string
	DatabasePath   string
	DatabaseDSN    string
}

// NewCreateAdminCommand creates a new CreateAdminCommand.
func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	cfg := config.NewConfig()
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Email, "email", "", "Admin email address (required)")
	fs.StringVar(&cmd.Password, "password", "", "Admin password (required, min 8 characters)")
	fs.StringVar(&cmd.DatabaseDriver, "driver", cfg.Database.Driver, "Database driver (sqlite or postgres)")
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the sqlite database file")
	fs.StringVar(&cmd.DatabaseDSN, "dsn", cfg.Database.DSN, "Postgres DSN (with -driver postgres)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -email <email> -password <password>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create the initial administrator account if no admin exists yet.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Email == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("both -email and -password are required")
	}
	return nil
}

// Run creates the admin account.
func (cmd *CreateAdminCommand) Run() error {
	cfg := config.NewConfig()
	db, err := database.NewDatabase(config.Database{
		Driver: cmd.DatabaseDriver,
		Path:   cmd.DatabasePath,
		DSN:    cmd.DatabaseDSN,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, cfg.Auth)
	admin, err := service.EnsureAdmin(cmd.Email, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Admin account ready: %s (id %d)\n", admin.Email, admin.ID)
	return nil
}

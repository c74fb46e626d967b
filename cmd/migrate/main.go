package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kdimtricp/medannotate/internal/database"
	"github.com/kdimtricp/medannotate/internal/logging"
	"go.uber.org/zap"
)

func main() {
	var (
		dbType         = flag.String("db", "postgres", "Database type (postgres or sqlite)")
		host           = flag.String("host", "localhost", "Database host")
		port           = flag.Int("port", 5432, "Database port")
		user           = flag.String("user", "annotate", "Database user")
		password       = flag.String("password", "annotate_dev", "Database password")
		dbName         = flag.String("name", "annotate", "Database name")
		sqlitePath     = flag.String("sqlite-path", "./annotate.db", "SQLite database file")
		migrationsPath = flag.String("migrations", "./migrations", "Path to migrations directory")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	logger := logging.New(logging.Config{})
	defer logger.Sync()

	config := database.Config{
		Type:       *dbType,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
		SQLitePath: *sqlitePath,
	}

	// Environment variables win over flags
	if env := os.Getenv("DB_TYPE"); env != "" {
		config.Type = env
	}
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Host = env
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Name = env
	}
	if env := os.Getenv("DB_PATH"); env != "" {
		config.SQLitePath = env
	}

	db, err := database.NewDB(config, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if !*status {
		fmt.Printf("Running migrations from %s...\n", *migrationsPath)
		if err := db.RunMigrations(*migrationsPath); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		fmt.Println("Migrations completed successfully!")
		return
	}

	if config.Type != "postgres" {
		fmt.Println("SQLite schema is created at startup; no migrations are tracked.")
		return
	}

	migrator := database.NewMigrator(db.Conn(), config.Type, logger)
	if err := migrator.Initialize(); err != nil {
		logger.Fatal("failed to initialize migrator", zap.Error(err))
	}

	applied, err := migrator.GetAppliedMigrations()
	if err != nil {
		logger.Fatal("failed to get applied migrations", zap.Error(err))
	}

	migrations, err := migrator.LoadMigrations(*migrationsPath)
	if err != nil {
		logger.Fatal("failed to load migrations", zap.Error(err))
	}

	fmt.Println("Migration Status:")
	fmt.Println("=================")
	for _, m := range migrations {
		state := "pending"
		if applied[m.Version] {
			state = "applied"
		}
		fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
	}
}

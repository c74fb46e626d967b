package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

type DB struct {
	conn   *sql.DB
	gorm   *gorm.DB
	dbType string
	logger *zap.Logger
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func NewDB(config Config, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var conn *sql.DB
	var dialector gorm.Dialector
	var err error

	switch config.Type {
	case "sqlite":
		conn, err = sql.Open("sqlite3", config.SQLitePath)
		if err == nil {
			// sqlite serialises writers; one connection avoids "database is locked".
			conn.SetMaxOpenConns(1)
			dialector = sqlite.Dialector{Conn: conn}
		}
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
		conn, err = sql.Open("pgx", dsn)
		if err == nil {
			conn.SetMaxIdleConns(10)
			conn.SetMaxOpenConns(100)
			conn.SetConnMaxLifetime(time.Hour)
			dialector = postgres.New(postgres.Config{Conn: conn})
		}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	db := &DB{conn: conn, gorm: gormDB, dbType: config.Type, logger: logger.Named("database")}

	// Only create tables for SQLite
	if config.Type == "sqlite" {
		if err := db.createTables(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	db.logger.Info("database ready", zap.String("type", config.Type))
	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS medical_texts (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		task TEXT NOT NULL,
		confidence REAL,
		performance REAL,
		annotate_time INTEGER,
		annotator TEXT NOT NULL DEFAULT '',
		annotate_reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_medical_texts_confidence ON medical_texts (confidence);
	`

	_, err := db.conn.Exec(query)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) GORM() *gorm.DB {
	return db.gorm
}

package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	er "github.com/mcorbin/corbierror"
	"github.com/pulsewatch/server/internal/validator"
)

type Database struct {
	db     *sqlx.DB
	Logger *slog.Logger
}

func New(logger *slog.Logger, config Configuration) (*Database, error) {
	err := validator.Validator.Struct(config)
	if err != nil {
		return nil, err
	}
	connectionString := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s", config.Host, config.Port, config.Username, config.Database, config.Password, config.SSLMode)
	sqlDB, err := otelsql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("fail to open the database: %w", err)
	}
	db := sqlx.NewDb(sqlDB, "postgres")
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("fail to connect to the database: %w", err)
	}
	db.SetConnMaxLifetime(time.Duration(60) * time.Second)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("fail to create postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", config.Migrations),
		"postgres",
		driver)
	if err != nil {
		return nil, fmt.Errorf("fail to instantiate migrations: %w", err)
	}
	logger.Info("Applying databases migrations")
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return nil, fmt.Errorf("fail to apply migrations: %w", err)
	}
	logger.Info("Migrations applied")
	return NewFromDB(logger, db), nil
}

// NewFromDB wraps an already opened and migrated database
func NewFromDB(logger *slog.Logger, db *sqlx.DB) *Database {
	return &Database{
		db:     db,
		Logger: logger,
	}
}

func (d *Database) Close() error {
	return d.db.Close()
}

func checkResult(result sql.Result, expected int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("fail to check affected row: %w", err)
	}
	if affected != expected {
		if affected == 0 {
			return er.New("resource not found", er.NotFound, true)
		}
		return fmt.Errorf("expected %d rows changed, got %d", expected, affected)
	}
	return nil
}

func fromJSON[T any](value *string) (T, error) {
	var result T
	if value == nil {
		return result, nil
	}
	if err := json.Unmarshal([]byte(*value), &result); err != nil {
		return result, fmt.Errorf("fail to deserialize %s: %w", *value, err)
	}
	return result, nil
}

func toJSON(value any) (*string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("fail to serialize %v: %w", value, err)
	}
	result := string(b)
	return &result, nil
}

package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ConnectPostgres opens the catalog database, checks it is reachable and
// creates the catalog tables when they are missing.
func ConnectPostgres(ctx context.Context, postgresURI string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("connected to PostgreSQL")

	if err = InitPostgresTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("PostgreSQL tables initialized")
	return db, nil
}

// InitPostgresTables creates the themes and sets tables if they don't exist.
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS themes (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sets (
			set_num VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			year INTEGER,
			num_parts INTEGER,
			theme_id INTEGER REFERENCES themes(id),
			img_url VARCHAR(255)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sets_theme_id ON sets(theme_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/copyintel/shrike/internal/domain"
)

// openPostgres opens a PostgreSQL database connection using lib/pq.
func openPostgres(cfg domain.RepositoryConfig) (*sql.DB, error) {
	host := cfg.PostgresHost
	if host == "" {
		host = "localhost"
	}
	port := cfg.PostgresPort
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.PostgresDB, sslMode)
	if cfg.PostgresUser != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.PostgresUser)
	}
	if cfg.PostgresPassword != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.PostgresPassword)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	return db, nil
}

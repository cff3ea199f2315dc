package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

func openPostgres(cfg domain.RepositoryConfig) (*sql.DB, error) {
	host := cfg.PostgresHost
	if host == "" {
		host = "localhost"
	}
	port := cfg.PostgresPort
	if port == 0 {
		port = 5432
	}
	database := cfg.PostgresDB
	if database == "" {
		database = "phish"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, cfg.PostgresUser, cfg.PostgresPassword, database, getSSLMode(cfg),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func getSSLMode(cfg domain.RepositoryConfig) string {
	if cfg.PostgresSSLMode != "" {
		return cfg.PostgresSSLMode
	}
	return "disable"
}

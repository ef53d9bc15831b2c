package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %v", err)
	}

	var pool *pgxpool.Pool
	maxRetries := 10
	retryDelay := time.Second * 10

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.NewWithConfig(context.Background(), config)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to the database")
				break
			}
		}

		log.Printf("Failed to connect to the database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database after %d attempts: %v", maxRetries, err)
	}

	// Enable pgvector extension
	_, err = pool.Exec(context.Background(), "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return nil, fmt.Errorf("unable to create vector extension: %v", err)
	}

	if err := createSchema(pool); err != nil {
		return nil, err
	}

	return pool, nil
}

func createSchema(pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS rag_chunks (
			id UUID PRIMARY KEY,
			collection TEXT NOT NULL,
			source TEXT NOT NULL,
			start_offset INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			embedding vector,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rag_chunks_collection ON rag_chunks (collection)`,
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			file_type TEXT NOT NULL DEFAULT '',
			size BIGINT NOT NULL DEFAULT 0,
			last_modified TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS file_tags (
			path TEXT NOT NULL,
			tag TEXT NOT NULL REFERENCES tags(name) ON DELETE CASCADE,
			PRIMARY KEY (path, tag)
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			path TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(context.Background(), stmt); err != nil {
			return fmt.Errorf("unable to create schema: %v", err)
		}
	}
	return nil
}

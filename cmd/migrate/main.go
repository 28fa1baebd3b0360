// migrate applies the embedded console migrations to DATABASE_URL. cmd/server
// runs the same migrations at startup; this tool is for deploy pipelines.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"log"
	"time"

	"supply-console/internal/config"
	"supply-console/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const lockKey = 7462839

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	log.Println("[CONNECT] success")

	conn := acquireLock(ctx, pool)
	defer conn.Release()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	rows, err := pool.Query(ctx, `SELECT name, applied_at FROM schema_migrations ORDER BY name`)
	if err != nil {
		log.Fatalf("[ERROR] list applied migrations: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name    string
			applied time.Time
		)
		if err := rows.Scan(&name, &applied); err != nil {
			log.Fatalf("[ERROR] scan schema_migrations: %v", err)
		}
		log.Printf("[APPLIED] %s at %s", name, applied.Format(time.RFC3339))
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	log.Println("[DONE] All migrations processed.")
}

// acquireLock holds a session-level advisory lock so that two migrators never
// run at once.
func acquireLock(ctx context.Context, pool *pgxpool.Pool) *pgxpool.Conn {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("[LOCK] failed to acquire connection for lock: %v", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockKey).Scan(&locked); err != nil {
		log.Fatalf("[LOCK] failed to query advisory lock: %v", err)
	}
	if !locked {
		log.Fatalf("[LOCK] failed: another migrator is currently running")
	}

	log.Println("[LOCK] success")
	return conn
}

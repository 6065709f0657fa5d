package main

import (
	"context"
	"fmt"
	"time"

	db "github.com/TechXTT/wikidb"
	"github.com/TechXTT/wikidb/pkg/runtime"
	"github.com/google/uuid"
)

func main() {
	ctx := context.Background()

	// 1) Open the shared engine from DATABASE_URL
	eng, err := db.Open(ctx)
	if err != nil {
		panic(fmt.Errorf("open: %w", err))
	}
	defer eng.Close()

	// 2) Create a page inside one session and transaction
	id := uuid.New()
	err = eng.WithSession(ctx, func(ctx context.Context, s *runtime.Session) error {
		if _, err := s.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS pages
           (id TEXT PRIMARY KEY, title TEXT NOT NULL, created_at TIMESTAMP NOT NULL)`); err != nil {
			return err
		}
		return s.InTx(ctx, func(ctx context.Context) error {
			_, err := s.ExecContext(ctx,
				`INSERT INTO pages (id, title, created_at) VALUES ($1, $2, $3)`,
				id.String(), "Home", time.Now(),
			)
			return err
		})
	})
	if err != nil {
		panic(fmt.Errorf("create page: %w", err))
	}
	fmt.Printf("✅ Created page %s\n", id)

	// 3) Read it back with a fresh session
	var title string
	err = eng.WithSession(ctx, func(ctx context.Context, s *runtime.Session) error {
		return s.QueryRowContext(ctx, `SELECT title FROM pages WHERE id = $1`, id.String()).Scan(&title)
	})
	if err != nil {
		panic(fmt.Errorf("fetch page: %w", err))
	}
	stats := eng.Stats()
	fmt.Printf("✅ Fetched page %q (pool: open=%d idle=%d)\n", title, stats.OpenConnections, stats.Idle)
}

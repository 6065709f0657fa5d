// Package db builds the wiki service's process-wide database engine from
// the environment. Handlers get their sessions from the engine:
//
//	eng, err := db.Open(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	err = eng.WithSession(ctx, func(ctx context.Context, s *runtime.Session) error {
//		_, err := s.ExecContext(ctx, "INSERT INTO pages (title) VALUES ($1)", "Home")
//		return err
//	})
package db

import (
	"context"
	"fmt"

	"github.com/TechXTT/wikidb/pkg/config"
	"github.com/TechXTT/wikidb/pkg/runtime"
)

// Open reads DATABASE_URL (and DATABASE_ECHO) from the environment and
// opens the shared engine. An unset DATABASE_URL is a fatal configuration
// error; there is no default database.
func Open(ctx context.Context, opts ...runtime.Option) (*runtime.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts = append([]runtime.Option{runtime.WithEcho(cfg.Echo)}, opts...)
	eng, err := runtime.Open(ctx, cfg.DSN, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return eng, nil
}

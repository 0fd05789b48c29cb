package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/clipstash/clipstash/internal/config"
)

// implements server/Service repository surface
type service struct {
	db  *gorm.DB
	hub *assetEventHub
}

// DSN builds the Postgres connection string from the environment.
func DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv(config.ENV_KEY_DB_USER),
		os.Getenv(config.ENV_KEY_DB_PASSWORD),
		os.Getenv(config.ENV_KEY_DB_HOST),
		os.Getenv(config.ENV_KEY_DB_PORT),
		os.Getenv(config.ENV_KEY_DB_DATABASE),
	)
}

// Open connects GORM to Postgres with the slog logger and the OTel tracing
// plugin, and applies the pool settings from the environment.
func Open(l *slog.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(DSN()), &gorm.Config{
		Logger: NewSlogGormLogger(l),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := gormDB.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("register tracing plugin: %w", err)
	}

	db, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	if m, err := strconv.Atoi(os.Getenv(config.ENV_KEY_DB_MAX_OPEN_CONNECTIONS)); err == nil && m > 0 {
		db.SetMaxOpenConns(m)
	}

	return gormDB, nil
}

// New migrates the schema and wires the repository. eventConn is the
// dedicated LISTEN connection for the asset event hub; pass nil in
// processes that only publish (the worker).
func New(gormDB *gorm.DB, eventConn *pgx.Conn) (*service, error) {
	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return nil, fmt.Errorf("create uuid extension: %w", err)
	}

	if err := gormDB.AutoMigrate(
		Asset{},
		Collection{},
		CollectionAsset{},
		TagSuggestion{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	// GORM can't express these: the websearch expression index and the
	// jsonb containment indexes backing the facet filters.
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_assets_search_vector
		 ON assets USING GIN (to_tsvector('english', coalesce(search_text, '')))`,
	}
	for _, col := range tagColumns {
		stmts = append(stmts, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_assets_%s
			 ON assets USING GIN (%s jsonb_path_ops)`, col, col))
	}
	for _, stmt := range stmts {
		if err := gormDB.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	}

	s := &service{db: gormDB}
	if eventConn != nil {
		s.hub = newAssetEventHub(eventConn)
	}
	return s, nil
}

// Health pings the database and reports connection pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	db, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	if err := db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	dbStats := db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	return stats
}

func (s *service) Close() error {
	if s.hub != nil {
		s.hub.stop()
	}
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

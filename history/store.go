// Package history persists finished pipeline runs in a local sqlite
// database so the editor can show past executions.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/agentpipe/engine"
)

// Record is the stored form of one pipeline run.
type Record struct {
	ID         uint      `gorm:"primaryKey"`
	RunID      string    `gorm:"uniqueIndex;size:64"`
	Schema     string    `gorm:"size:32;index"`
	GraphName  string    `gorm:"size:128"`
	Status     string    `gorm:"size:16;index"`
	StartTime  time.Time
	EndTime    time.Time
	DurationMs int64
	NodeCount  int
	ErrorText  string
	NodesJSON  string
	CreatedAt  time.Time
}

// TableName keeps the table name stable across gorm versions.
func (Record) TableName() string { return "pipeline_runs" }

// Store is a sqlite-backed run history store. It implements
// engine.RunSink.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the store at the given DSN. Use ":memory:" for
// an ephemeral store in tests.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "history_store")),
	}, nil
}

// SaveRun persists a finished run history.
func (s *Store) SaveRun(ctx context.Context, h *engine.RunHistory) error {
	nodesJSON, err := json.Marshal(h.Nodes)
	if err != nil {
		return fmt.Errorf("marshal node records: %w", err)
	}
	rec := &Record{
		RunID:      h.RunID,
		Schema:     h.Schema,
		GraphName:  h.GraphName,
		Status:     string(h.Status),
		StartTime:  h.StartTime,
		EndTime:    h.EndTime,
		DurationMs: h.Duration.Milliseconds(),
		NodeCount:  len(h.Nodes),
		ErrorText:  strings.Join(h.Errors, "\n"),
		NodesJSON:  string(nodesJSON),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	s.logger.Debug("run history saved",
		zap.String("run_id", h.RunID),
		zap.String("status", string(h.Status)),
	)
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Record
	err := s.db.WithContext(ctx).
		Order("start_time DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	return out, nil
}

// ByRunID returns the record for one run id.
func (s *Store) ByRunID(ctx context.Context, runID string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	return &rec, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

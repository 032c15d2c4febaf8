package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rentledger/internal/core"
)

// DefaultDebounce batches bursts of mutations into one backup write.
const DefaultDebounce = 5 * time.Second

// SnapshotSource provides the ledger state to back up.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// Scheduler writes debounced backups: every mutation notification resets the
// timer, so a burst of changes produces a single file write.
type Scheduler struct {
	source   SnapshotSource
	path     string
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

func NewScheduler(source SnapshotSource, path string, debounce time.Duration) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Scheduler{
		source:   source,
		path:     path,
		debounce: debounce,
		done:     make(chan struct{}),
	}
}

// Notify marks the ledger dirty and (re)starts the debounce window.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.WriteBackup(context.Background()); err != nil {
			slog.Error("Scheduled backup failed", "path", s.path, "error", err)
		}
	})
}

// WriteBackup snapshots the ledger and writes the backup file atomically via
// a temp file rename.
func (s *Scheduler) WriteBackup(ctx context.Context) error {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot for backup: %w", err)
	}
	doc := NewDocument(snap, time.Now())

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".backup-*.json")
	if err != nil {
		return fmt.Errorf("create temp backup: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := doc.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace backup file: %w", err)
	}

	slog.InfoContext(ctx, "Backup written",
		"path", s.path,
		"properties", doc.Metadata.TotalProperties,
		"revenues", doc.Metadata.TotalRevenues,
		"expenses", doc.Metadata.TotalExpenses)
	return nil
}

// Stop cancels any pending write and flushes a final backup if one was due.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return nil
	default:
	}
	close(s.done)

	pending := false
	if s.timer != nil {
		pending = s.timer.Stop()
	}
	s.mu.Unlock()

	if pending {
		return s.WriteBackup(ctx)
	}
	return nil
}

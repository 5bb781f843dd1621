package backup

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/dryerwatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

// DefaultHistorySize is the number of history entries kept.
const DefaultHistorySize = 50

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	typeEmergency = "emergency_backup"
)

// HistoryEntry records one backup attempt.
type HistoryEntry struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	Type       string           `json:"type"`
	Format     Format           `json:"format"`
	Status     string           `json:"status"`
	Duration   time.Duration    `json:"duration"`
	DataPoints int              `json:"dataPoints,omitempty"`
	Errors     []CollectorError `json:"errors,omitempty"`
	Filename   string           `json:"filename,omitempty"`
	Location   string           `json:"location,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Stats summarizes the backup history.
type Stats struct {
	Total       int
	Successful  int
	Failed      int
	RecentWeek  int
	Today       int
	LastBackup  *HistoryEntry
	AvgDuration time.Duration
}

// loadHistory returns the stored history, oldest first. A corrupt value is
// treated as empty.
func (m *Manager) loadHistory(ctx context.Context) ([]HistoryEntry, error) {
	var h []HistoryEntry
	_, err := metadata.GetJSON(ctx, m.store, common.KeyBackupHistory, &h)
	if errors.Is(err, metadata.ErrCorrupt) {
		m.log.Warn(ctx, "discarding unreadable backup history", "error", err)
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("load backup history: %w", err)
	}
	return h, nil
}

func (m *Manager) addToHistory(ctx context.Context, e HistoryEntry) {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()

	h, err := m.loadHistory(ctx)
	if err != nil {
		m.log.Warn(ctx, "backup history not updated", "error", err)
		return
	}

	if e.ID == "" {
		e.ID = newID()
	}
	h = append(h, e)
	if len(h) > m.historySize {
		h = h[len(h)-m.historySize:]
	}

	if err := metadata.SetJSON(ctx, m.store, common.KeyBackupHistory, h); err != nil {
		m.log.Warn(ctx, "backup history not saved", "error", err)
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "backup_" + uuid.NewString()
	}
	return "backup_" + id.String()
}

// History returns the recorded backups, newest first.
func (m *Manager) History(ctx context.Context) ([]HistoryEntry, error) {
	m.historyMu.Lock()
	h, err := m.loadHistory(ctx)
	m.historyMu.Unlock()
	if err != nil {
		return nil, err
	}
	slices.Reverse(h)
	return h, nil
}

// ClearHistory removes every history entry.
func (m *Manager) ClearHistory(ctx context.Context) error {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()

	if err := m.store.Delete(ctx, common.KeyBackupHistory); err != nil {
		return fmt.Errorf("clear backup history: %w", err)
	}
	return nil
}

func (m *Manager) Stats(ctx context.Context, now time.Time) (Stats, error) {
	h, err := m.History(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{Total: len(h)}
	var total time.Duration
	for i := range h {
		e := h[i]
		switch e.Status {
		case StatusSuccess:
			s.Successful++
			total += e.Duration
		case StatusFailed:
			s.Failed++
		}

		age := now.Sub(e.Timestamp)
		if age < 7*24*time.Hour {
			s.RecentWeek++
		}
		if age < 24*time.Hour {
			s.Today++
		}
	}

	if len(h) > 0 {
		s.LastBackup = &h[0]
	}
	if s.Successful > 0 {
		s.AvgDuration = total / time.Duration(s.Successful)
	}
	return s, nil
}

// ShouldPerform reports whether no backup was attempted in the last hour.
func (m *Manager) ShouldPerform(ctx context.Context, now time.Time) bool {
	h, err := m.History(ctx)
	if err != nil || len(h) == 0 {
		return true
	}
	return now.Sub(h[0].Timestamp) > time.Hour
}

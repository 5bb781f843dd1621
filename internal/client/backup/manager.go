// Package backup builds emergency snapshots of the dryer's data on the
// operator's machine and keeps a history of those attempts.
package backup

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/dryerwatch/internal/client/export"
	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/dryerwatch/internal/filex"
	"github.com/dmitrijs2005/dryerwatch/internal/logging"
)

var (
	ErrInProgress    = errors.New("backup already in progress")
	ErrInvalidFormat = errors.New("invalid backup format")
	ErrInvalidDate   = errors.New("invalid backup date")
)

type Format string

const (
	FormatExcel Format = "excel"
	FormatCSV   Format = "csv"
)

// ParseFormat accepts "excel" (or "xlsx") and "csv". An empty string means
// Excel.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "excel", "xlsx":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

func (f Format) ext() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return "csv"
}

// API is the part of the dashboard client the backup reads from.
type API interface {
	CurrentTemperature(ctx context.Context) (*models.Reading, error)
	TodayAggregates(ctx context.Context) ([]models.AggregateRecord, error)
	SystemStats(ctx context.Context) (models.SystemStats, error)
	SystemStatus(ctx context.Context) (map[string]any, error)
	Health(ctx context.Context) (*models.HealthReport, error)
	Liveness(ctx context.Context) (*models.HealthReport, error)
	Readiness(ctx context.Context) (*models.HealthReport, error)
	Backups(ctx context.Context) ([]models.BackupFile, error)
	DownloadBackup(ctx context.Context, kind, date string) (io.ReadCloser, error)
}

// Reporter receives failures for the error queue.
type Reporter interface {
	ReportAPIError(ctx context.Context, err error, endpoint, method string, requestData any) string
	ReportUserActionError(ctx context.Context, action string, err error, userData map[string]any) string
}

// Identity names the operator in the overview sheet.
type Identity interface {
	UserID(ctx context.Context) string
}

// Uploader copies a finished backup file off the machine and returns where
// it went.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

type Manager struct {
	api         API
	store       metadata.Repository
	reporter    Reporter
	identity    Identity
	uploader    Uploader
	online      func() bool
	outDir      string
	historySize int
	now         func() time.Time
	log         logging.Logger

	inProgress atomic.Bool
	historyMu  sync.Mutex
}

type Option func(*Manager)

func WithReporter(r Reporter) Option { return func(m *Manager) { m.reporter = r } }
func WithIdentity(i Identity) Option { return func(m *Manager) { m.identity = i } }
func WithUploader(u Uploader) Option { return func(m *Manager) { m.uploader = u } }
func WithOutputDir(dir string) Option { return func(m *Manager) { m.outDir = dir } }
func WithOnline(fn func() bool) Option { return func(m *Manager) { m.online = fn } }
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }
func WithLogger(l logging.Logger) Option { return func(m *Manager) { m.log = l } }

func WithHistorySize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.historySize = n
		}
	}
}

func NewManager(api API, store metadata.Repository, opts ...Option) *Manager {
	m := &Manager{
		api:         api,
		store:       store,
		outDir:      ".",
		historySize: DefaultHistorySize,
		online:      func() bool { return true },
		now:         time.Now,
		log:         logging.Discard(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// InProgress reports whether Perform is running.
func (m *Manager) InProgress() bool {
	return m.inProgress.Load()
}

// CollectorError records one data source that could not be read.
type CollectorError struct {
	Collector string    `json:"collector"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is everything gathered for one backup.
type Snapshot struct {
	Timestamp   time.Time
	User        string
	Host        string
	Online      bool
	Temperature *models.Reading
	Aggregates  []models.AggregateRecord
	Stats       models.SystemStats
	Status      map[string]any
	Health      *models.HealthReport
	Liveness    *models.HealthReport
	Readiness   *models.HealthReport
	Backups     []models.BackupFile
	Errors      []CollectorError
}

// DataPoints counts the temperature samples in the snapshot.
func (s *Snapshot) DataPoints() int {
	n := len(s.Aggregates)
	if s.Temperature != nil {
		n++
	}
	return n
}

// Result describes a finished backup.
type Result struct {
	Filename   string
	Location   string
	Duration   time.Duration
	DataPoints int
	Errors     []CollectorError
}

// Collect reads every data source in parallel. A failing source is recorded
// in Snapshot.Errors and does not stop the others.
func (m *Manager) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		Timestamp: m.now(),
		User:      "Anonymous",
		Online:    m.online(),
	}
	if m.identity != nil {
		snap.User = m.identity.UserID(ctx)
	}
	if host, err := os.Hostname(); err == nil {
		snap.Host = host
	}

	var mu sync.Mutex
	fail := func(collector, endpoint string, err error) {
		if m.reporter != nil {
			m.reporter.ReportAPIError(ctx, err, endpoint, "GET", nil)
		}
		m.log.Warn(ctx, "backup collector failed", "collector", collector, "error", err)

		mu.Lock()
		defer mu.Unlock()
		snap.Errors = append(snap.Errors, CollectorError{Collector: collector, Error: err.Error(), Timestamp: m.now()})
	}

	var g errgroup.Group
	g.Go(func() error {
		t, err := m.api.CurrentTemperature(ctx)
		if err != nil {
			fail("temperature", "/sensor/current", err)
			return nil
		}
		snap.Temperature = t
		return nil
	})
	g.Go(func() error {
		a, err := m.api.TodayAggregates(ctx)
		if err != nil {
			fail("aggregates", "/sensor/aggregate/today", err)
			return nil
		}
		snap.Aggregates = a
		return nil
	})
	g.Go(func() error {
		s, err := m.api.SystemStats(ctx)
		if err != nil {
			fail("stats", "/sensor/stats", err)
		} else {
			snap.Stats = s
		}
		st, err := m.api.SystemStatus(ctx)
		if err != nil {
			fail("status", "/system/status", err)
		} else {
			snap.Status = st
		}
		return nil
	})
	g.Go(func() error {
		h, err := m.api.Health(ctx)
		if err != nil {
			fail("health", "/health", err)
		} else {
			snap.Health = h
		}
		l, err := m.api.Liveness(ctx)
		if err != nil {
			fail("liveness", "/health/live", err)
		} else {
			snap.Liveness = l
		}
		r, err := m.api.Readiness(ctx)
		if err != nil {
			fail("readiness", "/health/ready", err)
		} else {
			snap.Readiness = r
		}
		return nil
	})
	g.Go(func() error {
		b, err := m.api.Backups(ctx)
		if err != nil {
			fail("backups", "/backup", err)
			return nil
		}
		snap.Backups = b
		return nil
	})
	_ = g.Wait()

	slices.SortFunc(snap.Errors, func(a, b CollectorError) int {
		return cmp.Compare(a.Collector, b.Collector)
	})
	return snap
}

// Perform collects a snapshot, writes it to the output directory in the
// given format, uploads it when an uploader is set and records the attempt.
// It returns ErrInProgress while another Perform is running.
func (m *Manager) Perform(ctx context.Context, format Format) (*Result, error) {
	if format != FormatExcel && format != FormatCSV {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	if !m.inProgress.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer m.inProgress.Store(false)

	start := m.now()
	m.log.Info(ctx, "emergency backup started", "format", format)

	snap := m.Collect(ctx)

	path, err := m.write(snap, format)
	if err != nil {
		duration := m.now().Sub(start)
		m.addToHistory(ctx, HistoryEntry{
			Timestamp: start.UTC(),
			Type:      typeEmergency,
			Format:    format,
			Status:    StatusFailed,
			Duration:  duration,
			Errors:    snap.Errors,
			Error:     err.Error(),
		})
		if m.reporter != nil {
			m.reporter.ReportUserActionError(ctx, typeEmergency, err, map[string]any{
				"format":   string(format),
				"duration": duration.Milliseconds(),
			})
		}
		m.log.Error(ctx, "emergency backup failed", "format", format, "error", err)
		return nil, fmt.Errorf("emergency backup: %w", err)
	}

	res := &Result{
		Filename:   path,
		DataPoints: snap.DataPoints(),
		Errors:     snap.Errors,
	}

	if m.uploader != nil {
		loc, err := m.uploader.Upload(ctx, path)
		if err != nil {
			m.log.Warn(ctx, "backup upload failed", "file", path, "error", err)
			res.Errors = append(res.Errors, CollectorError{Collector: "upload", Error: err.Error(), Timestamp: m.now()})
		} else {
			res.Location = loc
		}
	}

	res.Duration = m.now().Sub(start)
	m.addToHistory(ctx, HistoryEntry{
		Timestamp:  start.UTC(),
		Type:       typeEmergency,
		Format:     format,
		Status:     StatusSuccess,
		Duration:   res.Duration,
		DataPoints: res.DataPoints,
		Errors:     res.Errors,
		Filename:   path,
		Location:   res.Location,
	})

	m.log.Info(ctx, "emergency backup completed", "file", path, "dataPoints", res.DataPoints, "duration", res.Duration)
	return res, nil
}

func (m *Manager) write(snap *Snapshot, format Format) (string, error) {
	if format == FormatCSV {
		return export.CSVFile(m.outDir, typeEmergency, export.AggregateRows(snap.Aggregates), export.AggregateOptions(), snap.Timestamp)
	}
	return export.ExcelFile(m.outDir, typeEmergency, Sheets(snap), export.Options{}, snap.Timestamp)
}

// DownloadServerBackup saves the server's backup of the given kind ("excel"
// or "csv") and date into dir as emergency_backup_<date>.<ext>.
func (m *Manager) DownloadServerBackup(ctx context.Context, kind, date, dir string) (string, error) {
	format, err := ParseFormat(kind)
	if err != nil {
		return "", err
	}
	if date == "" {
		return "", fmt.Errorf("%w: missing date", ErrInvalidFormat)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return "", fmt.Errorf("%w: %q, want YYYY-MM-DD", ErrInvalidDate, date)
	}

	body, err := m.api.DownloadBackup(ctx, string(format), date)
	if err != nil {
		return "", fmt.Errorf("download %s backup for %s: %w", format, date, err)
	}
	defer body.Close()

	f, err := filex.Create(dir, fmt.Sprintf("%s_%s.%s", typeEmergency, date, format.ext()))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("save backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save backup: %w", err)
	}
	return f.Name(), nil
}

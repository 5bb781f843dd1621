// Package health polls the backend's liveness, health and readiness probes and
// turns them into a connection status for the CLI prompt and status view.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/dryerwatch/internal/client/api"
	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/logging"
)

// Status labels.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusError     = "error"
	StatusUnknown   = "unknown"
)

// API is the subset of the backend client used by the poller.
type API interface {
	Liveness(ctx context.Context) (*models.HealthReport, error)
	Health(ctx context.Context) (*models.HealthReport, error)
	Readiness(ctx context.Context) (*models.HealthReport, error)
	SystemStats(ctx context.Context) (models.SystemStats, error)
	CurrentTemperature(ctx context.Context) (*models.Reading, error)
}

// Connectivity is told whether the backend is reachable after every poll.
type Connectivity interface {
	SetOnline(ctx context.Context, online bool)
}

type Config struct {
	Interval      time.Duration
	RetryAttempts uint64
	RetryDelay    time.Duration
	ProbeTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:      30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    5 * time.Second,
		ProbeTimeout:  10 * time.Second,
	}
}

type APIStatus struct {
	Connected bool
	Status    string
	Error     string
}

type Component struct {
	Connected bool
	Status    string
	Latency   *int64
	Broker    string
	Topic     string
}

type Status struct {
	Overall   string
	API       APIStatus
	Database  Component
	MQTT      Component
	LastCheck time.Time
	Error     string
}

// Stats is the statistics object with the latest reading attached.
type Stats struct {
	Values          models.SystemStats
	LastTemperature *models.Reading
}

// Full is the outcome of CheckFull. Either report may be nil with its error
// set.
type Full struct {
	Health       *models.HealthReport
	HealthErr    error
	Readiness    *models.HealthReport
	ReadinessErr error
}

type Poller struct {
	api          API
	cfg          Config
	log          logging.Logger
	connectivity Connectivity
	onChange     func(Status, Stats)
	now          func() time.Time

	mu    sync.Mutex
	last  Status
	stats Stats
}

type Option func(*Poller)

func WithConfig(c Config) Option {
	return func(p *Poller) { p.cfg = c }
}

func WithLogger(l logging.Logger) Option {
	return func(p *Poller) { p.log = l }
}

func WithConnectivity(c Connectivity) Option {
	return func(p *Poller) { p.connectivity = c }
}

// OnStatusChange registers fn to receive every completed poll.
func OnStatusChange(fn func(Status, Stats)) Option {
	return func(p *Poller) { p.onChange = fn }
}

func NewPoller(a API, opts ...Option) *Poller {
	p := &Poller{
		api: a,
		cfg: DefaultConfig(),
		log: logging.Discard(),
		now: time.Now,
		last: Status{
			Overall:  StatusUnknown,
			API:      APIStatus{Status: StatusUnknown},
			Database: Component{Status: StatusUnknown},
			MQTT:     Component{Status: StatusUnknown},
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CheckAPI probes /health/live, retrying with a fixed delay before giving up.
func (p *Poller) CheckAPI(ctx context.Context) APIStatus {
	var last APIStatus
	attempt := 0

	backoff := retry.WithMaxRetries(p.cfg.RetryAttempts, retry.NewConstant(max(p.cfg.RetryDelay, time.Millisecond)))
	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		last = p.probe(ctx)
		if last.Connected {
			return nil
		}
		p.log.Warn(ctx, "health check attempt failed", "attempt", attempt, "status", last.Status, "error", last.Error)
		return retry.RetryableError(errors.New(last.Error))
	})

	if last.Status == "" {
		last = APIStatus{Status: StatusError, Error: "health check cancelled"}
	}
	return last
}

func (p *Poller) probe(ctx context.Context) APIStatus {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	_, err := p.api.Liveness(ctx)
	if err == nil {
		return APIStatus{Connected: true, Status: StatusHealthy}
	}
	if code := api.StatusCode(err); code != 0 {
		return APIStatus{Status: StatusUnhealthy, Error: fmt.Sprintf("HTTP %d", code)}
	}
	return APIStatus{Status: StatusError, Error: err.Error()}
}

// CheckFull fetches health and readiness in parallel. Each outcome is kept
// on its own.
func (p *Poller) CheckFull(ctx context.Context) Full {
	var f Full
	var g errgroup.Group

	g.Go(func() error {
		f.Health, f.HealthErr = p.api.Health(ctx)
		return nil
	})
	g.Go(func() error {
		f.Readiness, f.ReadinessErr = p.api.Readiness(ctx)
		return nil
	})
	_ = g.Wait()

	return f
}

// SystemStats fetches statistics and the current reading in parallel. A
// failed part is left empty.
func (p *Poller) SystemStats(ctx context.Context) Stats {
	var s Stats
	var g errgroup.Group

	g.Go(func() error {
		v, err := p.api.SystemStats(ctx)
		if err != nil {
			p.log.Warn(ctx, "system stats fetch failed", "error", err)
			return nil
		}
		s.Values = v
		return nil
	})
	g.Go(func() error {
		r, err := p.api.CurrentTemperature(ctx)
		if err != nil {
			p.log.Warn(ctx, "current temperature fetch failed", "error", err)
			return nil
		}
		s.LastTemperature = r
		return nil
	})
	_ = g.Wait()

	if s.Values == nil {
		s.Values = models.SystemStats{}
	}
	return s
}

// Poll runs one complete check and publishes the result.
func (p *Poller) Poll(ctx context.Context) Status {
	apiStatus := p.CheckAPI(ctx)

	var (
		status Status
		stats  Stats
	)

	if !apiStatus.Connected {
		status = Status{
			Overall:   StatusError,
			API:       apiStatus,
			Database:  Component{Status: StatusError},
			MQTT:      Component{Status: StatusError},
			LastCheck: p.now(),
			Error:     apiStatus.Error,
		}
		stats = Stats{Values: models.SystemStats{}}
	} else {
		full := p.CheckFull(ctx)
		stats = p.SystemStats(ctx)
		status = buildStatus(apiStatus, full)
		status.LastCheck = p.now()
	}

	p.mu.Lock()
	p.last = status
	p.stats = stats
	p.mu.Unlock()

	if p.connectivity != nil {
		p.connectivity.SetOnline(ctx, apiStatus.Connected)
	}
	if p.onChange != nil {
		p.onChange(status, stats)
	}

	p.log.Info(ctx, "health check completed",
		"overall", status.Overall,
		"api", status.API.Connected,
		"database", status.Database.Connected,
		"mqtt", status.MQTT.Connected,
	)
	return status
}

func buildStatus(apiStatus APIStatus, full Full) Status {
	s := Status{
		Overall:  StatusUnknown,
		API:      apiStatus,
		Database: Component{Status: StatusUnknown},
		MQTT:     Component{Status: StatusUnknown},
	}

	if full.HealthErr != nil && full.ReadinessErr != nil {
		s.Error = full.HealthErr.Error()
	}

	h := full.Health
	if h == nil {
		return s
	}
	if h.Status != "" {
		s.Overall = h.Status
	}
	if d := h.Database; d != nil {
		s.Database = Component{Connected: d.Connected, Status: orUnknown(d.Status), Latency: d.Latency}
	}
	if m := h.MQTT; m != nil {
		s.MQTT = Component{Connected: m.Connected, Status: orUnknown(m.Status), Broker: m.Broker, Topic: m.Topic}
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return StatusUnknown
	}
	return s
}

// Last returns the most recent poll result and statistics.
func (p *Poller) Last() (Status, Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.stats
}

// Tick runs one poll and returns the delay before the next. It is the step
// function for a schedule loop owned by the caller.
func (p *Poller) Tick(ctx context.Context) (time.Duration, bool) {
	p.Poll(ctx)
	return p.cfg.Interval, p.cfg.Interval > 0
}

// StatusColor maps a status label to the indicator colour.
func StatusColor(status string) string {
	switch status {
	case "healthy", "connected":
		return "green"
	case "degraded", "warning":
		return "yellow"
	case "unhealthy", "error", "disconnected":
		return "red"
	default:
		return "gray"
	}
}

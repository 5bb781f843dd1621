// Package tokenwatch polls the session token's expiry claim and logs the
// operator out before the backend starts rejecting requests. The polling
// interval tightens as expiry approaches.
package tokenwatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/schedule"
	"github.com/dmitrijs2005/dryerwatch/internal/client/token"
	"github.com/dmitrijs2005/dryerwatch/internal/logging"
)

// Telemetry action labels.
const (
	ActionAutoLogout   = "auto_logout"
	ActionAutoRefresh  = "auto_refresh"
	ActionTokenRefresh = "token_refresh"
)

var (
	errTokenExpired      = errors.New("token expired")
	errVerificationFails = errors.New("token verification failed")
)

// Session is what the watcher needs from the session manager.
type Session interface {
	Token() string
	Verify(ctx context.Context) bool
	Logout(ctx context.Context)
}

// Reporter records auth failures.
type Reporter interface {
	ReportAuthError(ctx context.Context, err error, action string) string
}

type Config struct {
	BaseInterval     time.Duration
	WarningThreshold time.Duration
	NearInterval     time.Duration
	CriticalWindow   time.Duration
	CriticalInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseInterval:     5 * time.Minute,
		WarningThreshold: 10 * time.Minute,
		NearInterval:     time.Minute,
		CriticalWindow:   2 * time.Minute,
		CriticalInterval: 30 * time.Second,
	}
}

// NextInterval picks the delay before the next check for a token that
// expires in until.
func (c Config) NextInterval(until time.Duration) time.Duration {
	next := c.BaseInterval
	if until <= c.WarningThreshold {
		next = min(c.BaseInterval, c.NearInterval)
	}
	if until < c.CriticalWindow {
		next = c.CriticalInterval
	}
	return next
}

// Outcome of a single check.
type Outcome string

const (
	OutcomeIdle        Outcome = "idle"
	OutcomeVerified    Outcome = "verified"
	OutcomeLoggedOut   Outcome = "logged_out"
	OutcomeNoToken     Outcome = "no_token"
	OutcomeUndecodable Outcome = "undecodable"
	OutcomeCancelled   Outcome = "cancelled"
)

// Result tells the caller what a check did and when to check again.
// Continue is false once there is no session left to watch.
type Result struct {
	Outcome  Outcome
	Next     time.Duration
	Continue bool
}

type Watcher struct {
	cfg      Config
	session  Session
	reporter Reporter
	log      logging.Logger
	now      func() time.Time
}

type Option func(*Watcher)

func WithConfig(c Config) Option {
	return func(w *Watcher) { w.cfg = c }
}

func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

func New(s Session, r Reporter, opts ...Option) *Watcher {
	w := &Watcher{
		cfg:      DefaultConfig(),
		session:  s,
		reporter: r,
		log:      logging.Discard(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Watcher) Config() Config {
	return w.cfg
}

// Check evaluates the current token once.
func (w *Watcher) Check(ctx context.Context) Result {
	raw := w.session.Token()
	if raw == "" {
		return Result{Outcome: OutcomeNoToken}
	}

	claims, err := token.Parse(raw)
	if err != nil {
		w.log.Warn(ctx, "unable to check token expiry", "error", err)
		w.report(ctx, err, ActionTokenRefresh)
		return Result{Outcome: OutcomeUndecodable, Next: w.cfg.BaseInterval, Continue: true}
	}

	until := claims.TimeUntilExpiry(w.now())
	if until <= 0 {
		w.log.Warn(ctx, "token has expired, logging out")
		w.report(ctx, errTokenExpired, ActionAutoLogout)
		w.session.Logout(ctx)
		return Result{Outcome: OutcomeLoggedOut}
	}

	next := w.cfg.NextInterval(until)
	if until > w.cfg.WarningThreshold {
		return Result{Outcome: OutcomeIdle, Next: next, Continue: true}
	}

	w.log.Info(ctx, "token nearing expiry, verifying", "remaining", until)
	if !w.session.Verify(ctx) {
		if ctx.Err() != nil {
			// The loop was stopped mid-verify; the token was never rejected.
			return Result{Outcome: OutcomeCancelled}
		}
		w.log.Warn(ctx, "token verification failed, logging out")
		w.report(ctx, errVerificationFails, ActionAutoRefresh)
		w.session.Logout(ctx)
		return Result{Outcome: OutcomeLoggedOut}
	}
	return Result{Outcome: OutcomeVerified, Next: next, Continue: true}
}

func (w *Watcher) report(ctx context.Context, err error, action string) {
	if w.reporter != nil {
		w.reporter.ReportAuthError(ctx, err, action)
	}
}

// Run checks immediately and keeps rescheduling until ctx is done or the
// session is gone.
func (w *Watcher) Run(ctx context.Context) {
	schedule.Run(ctx, 0, w.tick)
}

func (w *Watcher) tick(ctx context.Context) (time.Duration, bool) {
	r := w.Check(ctx)
	if r.Continue {
		w.log.Debug(ctx, "next token check scheduled", "in", r.Next, "outcome", r.Outcome)
	}
	return r.Next, r.Continue
}

// TokenStatus is a point-in-time view of the token for display.
type TokenStatus struct {
	HasToken        bool
	IsValid         bool
	IsExpired       bool
	IsNearExpiry    bool
	TimeUntilExpiry *time.Duration
	ExpiryTime      *time.Time
}

// Status reports the current token's expiry without contacting the backend.
// An undecodable token is shown as expired.
func (w *Watcher) Status() TokenStatus {
	raw := w.session.Token()
	if raw == "" {
		return TokenStatus{}
	}

	claims, err := token.Parse(raw)
	if err != nil {
		return TokenStatus{HasToken: true, IsExpired: true, IsNearExpiry: true}
	}

	until := claims.TimeUntilExpiry(w.now())
	exp := claims.ExpiresAt
	return TokenStatus{
		HasToken:        true,
		IsValid:         until > 0,
		IsExpired:       until <= 0,
		IsNearExpiry:    until <= w.cfg.WarningThreshold,
		TimeUntilExpiry: &until,
		ExpiryTime:      &exp,
	}
}

// Supervisor keeps exactly one watcher loop running per session token.
type Supervisor struct {
	w    *Watcher
	loop schedule.Loop

	mu    sync.Mutex
	token string
}

func NewSupervisor(w *Watcher) *Supervisor {
	return &Supervisor{w: w}
}

// Update starts a loop for a new token and cancels it when the token is
// gone. It may be called from inside the loop.
func (s *Supervisor) Update(ctx context.Context, tok string) {
	s.mu.Lock()
	changed := tok != s.token
	s.token = tok
	s.mu.Unlock()

	if tok == "" {
		s.loop.Cancel()
		return
	}
	if changed || !s.loop.Running() {
		s.loop.Start(ctx, 0, s.w.tick)
	}
}

func (s *Supervisor) Running() bool {
	return s.loop.Running()
}

// Stop ends the loop and waits for it.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.loop.Stop()
}

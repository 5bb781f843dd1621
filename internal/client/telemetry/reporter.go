// Package telemetry queues error reports durably and delivers them to the
// backend when it is reachable. Nothing captured is dropped except by
// successful delivery or by eviction once the queue is full.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/dryerwatch/internal/client/api"
	"github.com/dmitrijs2005/dryerwatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/dryerwatch/internal/common"
	"github.com/dmitrijs2005/dryerwatch/internal/logging"
)

// DefaultQueueSize is the queue cap when none is configured.
const DefaultQueueSize = 100

const recentWindow = time.Hour

// Sender delivers one entry.
type Sender interface {
	SendReport(ctx context.Context, report any) error
}

// Identity describes who is logged in.
type Identity interface {
	UserID(ctx context.Context) string
	HasToken(ctx context.Context) bool
}

type Reporter struct {
	store     metadata.Repository
	sender    Sender
	identity  Identity
	log       logging.Logger
	cap       int
	env       string
	sessionID string
	now       func() time.Time

	mu       sync.Mutex
	queue    []Entry
	online   bool
	inFlight map[string]struct{}

	wg sync.WaitGroup
}

type Option func(*Reporter)

func WithLogger(l logging.Logger) Option {
	return func(r *Reporter) { r.log = l }
}

func WithQueueSize(n int) Option {
	return func(r *Reporter) {
		if n > 0 {
			r.cap = n
		}
	}
}

func WithEnvironment(env string) Option {
	return func(r *Reporter) { r.env = env }
}

func WithIdentity(id Identity) Option {
	return func(r *Reporter) { r.identity = id }
}

// WithOnline sets the initial connectivity. The default is online.
func WithOnline(online bool) Option {
	return func(r *Reporter) { r.online = online }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

func NewReporter(store metadata.Repository, sender Sender, opts ...Option) *Reporter {
	r := &Reporter{
		store:     store,
		sender:    sender,
		log:       logging.Discard(),
		cap:       DefaultQueueSize,
		env:       common.EnvProduction,
		sessionID: "session_" + uuid.NewString(),
		now:       time.Now,
		online:    true,
		inFlight:  make(map[string]struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "error_" + uuid.NewString()
	}
	return "error_" + id.String()
}

// Load restores the persisted queue. A corrupt record is discarded.
func (r *Reporter) Load(ctx context.Context) error {
	var q []Entry
	_, err := metadata.GetJSON(ctx, r.store, common.KeyErrorQueue, &q)
	if errors.Is(err, metadata.ErrCorrupt) {
		r.log.Warn(ctx, "discarding unreadable error queue", "error", err)
		q = nil
	} else if err != nil {
		return fmt.Errorf("load error queue: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(q) > r.cap {
		q = q[len(q)-r.cap:]
	}
	r.queue = q
	return nil
}

// Capture queues a report and, when online, starts delivering it in the
// background. It returns the entry ID.
func (r *Reporter) Capture(ctx context.Context, rep Report, reportCtx map[string]any) string {
	e := Entry{
		ID:            newID(),
		Timestamp:     r.now().UTC(),
		SessionID:     r.sessionID,
		Type:          rep.Type,
		Message:       rep.Message,
		Stack:         rep.Stack,
		Severity:      Classify(rep.Type, rep.Status),
		Environment:   r.env,
		Payload:       SanitizeMap(rep.Fields),
		Context:       SanitizeMap(reportCtx),
		DeliveryState: Pending,
	}
	if r.identity != nil {
		e.UserID = r.identity.UserID(ctx)
	} else {
		e.UserID = "anonymous"
	}
	if rep.Status != 0 {
		if e.Payload == nil {
			e.Payload = map[string]any{}
		}
		e.Payload["status"] = rep.Status
	}

	r.mu.Lock()
	r.queue = append(r.queue, e)
	if over := len(r.queue) - r.cap; over > 0 {
		r.queue = append([]Entry(nil), r.queue[over:]...)
	}
	r.persistLocked(ctx)
	online := r.online
	r.mu.Unlock()

	if r.env == common.EnvDevelopment {
		r.log.Error(ctx, "error report", "severity", e.Severity, "type", e.Type, "message", e.Message, "context", e.Context)
	} else {
		r.log.Debug(ctx, "error report queued", "id", e.ID, "type", e.Type)
	}

	if online {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.deliver(context.WithoutCancel(ctx), e)
		}()
	}
	return e.ID
}

func (r *Reporter) persistLocked(ctx context.Context) {
	if err := metadata.SetJSON(ctx, r.store, common.KeyErrorQueue, r.queue); err != nil {
		r.log.Warn(ctx, "failed to store error queue", "error", err)
	}
}

// deliver sends e unless it is already being sent or has left the queue.
func (r *Reporter) deliver(ctx context.Context, e Entry) bool {
	if r.sender == nil || !r.claim(e.ID) {
		return false
	}
	defer r.release(e.ID)

	if err := r.sender.SendReport(ctx, e); err != nil {
		r.log.Warn(ctx, "failed to send error report", "id", e.ID, "error", err)
		return false
	}
	r.remove(ctx, e.ID)
	return true
}

func (r *Reporter) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.inFlight[id]; busy {
		return false
	}
	if !slices.ContainsFunc(r.queue, func(e Entry) bool { return e.ID == id }) {
		return false
	}
	r.inFlight[id] = struct{}{}
	return true
}

func (r *Reporter) release(id string) {
	r.mu.Lock()
	delete(r.inFlight, id)
	r.mu.Unlock()
}

func (r *Reporter) remove(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.queue[:0:0]
	for _, e := range r.queue {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	r.queue = kept
	r.persistLocked(ctx)
}

// Flush tries every pending entry once, in order, and returns how many were
// delivered. A failed entry stays queued and does not stop the pass.
func (r *Reporter) Flush(ctx context.Context) int {
	r.mu.Lock()
	if !r.online || len(r.queue) == 0 {
		r.mu.Unlock()
		return 0
	}
	pending := append([]Entry(nil), r.queue...)
	r.mu.Unlock()

	sent := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			break
		}
		if r.deliver(ctx, e) {
			sent++
		}
	}
	if sent > 0 {
		r.log.Info(ctx, "error queue flushed", "sent", sent, "pending", len(pending)-sent)
	}
	return sent
}

// SetOnline records connectivity. Going from offline to online flushes the
// queue.
func (r *Reporter) SetOnline(ctx context.Context, online bool) {
	r.mu.Lock()
	was := r.online
	r.online = online
	r.mu.Unlock()

	if online && !was {
		r.Flush(ctx)
	}
}

func (r *Reporter) Online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

// Pending returns a copy of the queue, oldest first.
func (r *Reporter) Pending() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.queue...)
}

// Stats counts the queue, with a type and severity breakdown of the last
// hour.
func (r *Reporter) Stats(now time.Time) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Total:        len(r.queue),
		ByType:       map[string]int{},
		BySeverity:   map[Severity]int{},
		QueueSize:    len(r.queue),
		MaxQueueSize: r.cap,
	}
	for _, e := range r.queue {
		if now.Sub(e.Timestamp) >= recentWindow {
			continue
		}
		s.RecentCount++
		s.ByType[e.Type]++
		s.BySeverity[e.Severity]++
	}
	return s
}

// Clear empties the queue and removes it from storage.
func (r *Reporter) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = nil
	return r.store.Delete(ctx, common.KeyErrorQueue)
}

// Close waits for background deliveries to finish.
func (r *Reporter) Close() {
	r.wg.Wait()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (r *Reporter) ReportAPIError(ctx context.Context, err error, endpoint, method string, requestData any) string {
	if method == "" {
		method = "GET"
	}
	status := api.StatusCode(err)
	fields := map[string]any{
		"endpoint": endpoint,
		"method":   method,
	}
	if requestData != nil {
		fields["requestData"] = requestData
	}
	return r.Capture(ctx, Report{Type: TypeAPI, Message: errMessage(err), Status: status, Fields: fields},
		map[string]any{"category": "api", "endpoint": endpoint, "method": method})
}

func (r *Reporter) ReportAuthError(ctx context.Context, err error, action string) string {
	hasToken := false
	if r.identity != nil {
		hasToken = r.identity.HasToken(ctx)
	}
	return r.Capture(ctx, Report{Type: TypeAuth, Message: errMessage(err), Fields: map[string]any{
		"action":      action,
		"tokenExists": hasToken,
	}}, map[string]any{"category": "authentication", "action": action})
}

func (r *Reporter) ReportComponentError(ctx context.Context, err error, component, stack string, props map[string]any) string {
	fields := map[string]any{"componentName": component}
	if props != nil {
		fields["props"] = props
	}
	return r.Capture(ctx, Report{Type: TypeComponent, Message: errMessage(err), Stack: stack, Fields: fields},
		map[string]any{"category": "component", "componentName": component})
}

// ReportPerformanceError records a threshold breach. Breaches of more than
// twice the threshold are marked with a high impact.
func (r *Reporter) ReportPerformanceError(ctx context.Context, metric string, threshold, actual float64) string {
	impact := string(SeverityMedium)
	if actual > threshold*2 {
		impact = string(SeverityHigh)
	}
	return r.Capture(ctx, Report{
		Type:    TypePerformance,
		Message: "performance threshold exceeded: " + metric,
		Fields: map[string]any{
			"metric":    metric,
			"threshold": threshold,
			"actual":    actual,
			"impact":    impact,
		},
	}, map[string]any{"category": "performance", "metric": metric})
}

func (r *Reporter) ReportUserActionError(ctx context.Context, action string, err error, userData map[string]any) string {
	fields := map[string]any{"action": action}
	if userData != nil {
		fields["userData"] = userData
	}
	return r.Capture(ctx, Report{Type: TypeUserAction, Message: errMessage(err), Fields: fields},
		map[string]any{"category": "user_action", "action": action})
}

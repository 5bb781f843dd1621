package tokenwatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func tokenExpiringIn(t *testing.T, d time.Duration) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":      now.Add(d).Unix(),
		"username": "op",
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

type fakeSession struct {
	mu          sync.Mutex
	token       string
	verifyOK    bool
	verifyHang  chan struct{}
	VerifyCalls int
	LogoutCalls int
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Verify(ctx context.Context) bool {
	f.mu.Lock()
	f.VerifyCalls++
	ok, hang := f.verifyOK, f.verifyHang
	f.mu.Unlock()

	if hang != nil {
		close(hang)
		<-ctx.Done()
		return false
	}
	return ok
}

func (f *fakeSession) logouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LogoutCalls
}

func (f *fakeSession) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
	f.token = ""
}

type fakeReporter struct {
	mu      sync.Mutex
	Actions []string
	Errors  []error
}

func (f *fakeReporter) ReportAuthError(_ context.Context, err error, action string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Actions = append(f.Actions, action)
	f.Errors = append(f.Errors, err)
	return "id"
}

func newWatcher(s Session, r Reporter) *Watcher {
	return New(s, r, WithClock(func() time.Time { return now }))
}

func TestNextInterval_Tiers(t *testing.T) {
	c := DefaultConfig()

	tests := []struct {
		until time.Duration
		want  time.Duration
	}{
		{time.Hour, 5 * time.Minute},
		{10*time.Minute + time.Second, 5 * time.Minute},
		{10 * time.Minute, time.Minute},
		{3 * time.Minute, time.Minute},
		{2 * time.Minute, time.Minute},
		{2*time.Minute - time.Second, 30 * time.Second},
		{30 * time.Second, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.NextInterval(tt.until), "until=%s", tt.until)
	}

	c.BaseInterval = 20 * time.Second
	assert.Equal(t, 20*time.Second, c.NextInterval(5*time.Minute), "near tier never exceeds base")
}

func TestCheck_NoToken_Stops(t *testing.T) {
	r := newWatcher(&fakeSession{}, &fakeReporter{}).Check(context.Background())
	assert.Equal(t, OutcomeNoToken, r.Outcome)
	assert.False(t, r.Continue)
}

func TestCheck_FarFromExpiry_Idle(t *testing.T) {
	s := &fakeSession{token: tokenExpiringIn(t, time.Hour)}
	rep := &fakeReporter{}

	r := newWatcher(s, rep).Check(context.Background())

	assert.Equal(t, OutcomeIdle, r.Outcome)
	assert.Equal(t, 5*time.Minute, r.Next)
	assert.True(t, r.Continue)
	assert.Zero(t, s.VerifyCalls)
	assert.Empty(t, rep.Actions)
}

func TestCheck_Expired_LogsOutAndReports(t *testing.T) {
	s := &fakeSession{token: tokenExpiringIn(t, -time.Second)}
	rep := &fakeReporter{}

	r := newWatcher(s, rep).Check(context.Background())

	assert.Equal(t, OutcomeLoggedOut, r.Outcome)
	assert.False(t, r.Continue)
	assert.Equal(t, 1, s.LogoutCalls)
	assert.Zero(t, s.VerifyCalls)
	assert.Equal(t, []string{ActionAutoLogout}, rep.Actions)
}

func TestCheck_ThirtySecondsLeft_VerifiesOnCriticalTier(t *testing.T) {
	s := &fakeSession{token: tokenExpiringIn(t, 30*time.Second), verifyOK: true}
	rep := &fakeReporter{}

	r := newWatcher(s, rep).Check(context.Background())

	assert.Equal(t, OutcomeVerified, r.Outcome)
	assert.Equal(t, 30*time.Second, r.Next)
	assert.True(t, r.Continue)
	assert.Equal(t, 1, s.VerifyCalls)
	assert.Zero(t, s.LogoutCalls)
}

func TestCheck_NearExpiry_VerifyFails_LogsOut(t *testing.T) {
	s := &fakeSession{token: tokenExpiringIn(t, 5*time.Minute), verifyOK: false}
	rep := &fakeReporter{}

	r := newWatcher(s, rep).Check(context.Background())

	assert.Equal(t, OutcomeLoggedOut, r.Outcome)
	assert.False(t, r.Continue)
	assert.Equal(t, 1, s.LogoutCalls)
	assert.Equal(t, []string{ActionAutoRefresh}, rep.Actions)
}

func TestCheck_Undecodable_ReportsAndKeepsPolling(t *testing.T) {
	s := &fakeSession{token: "not-a-token"}
	rep := &fakeReporter{}

	r := newWatcher(s, rep).Check(context.Background())

	assert.Equal(t, OutcomeUndecodable, r.Outcome)
	assert.True(t, r.Continue)
	assert.Equal(t, 5*time.Minute, r.Next)
	assert.Zero(t, s.LogoutCalls)
	assert.Equal(t, []string{ActionTokenRefresh}, rep.Actions)
}

func TestStatus(t *testing.T) {
	s := &fakeSession{}
	w := newWatcher(s, nil)

	assert.Equal(t, TokenStatus{}, w.Status())

	s.token = tokenExpiringIn(t, 5*time.Minute)
	st := w.Status()
	assert.True(t, st.HasToken)
	assert.True(t, st.IsValid)
	assert.False(t, st.IsExpired)
	assert.True(t, st.IsNearExpiry)
	require.NotNil(t, st.TimeUntilExpiry)
	assert.Equal(t, 5*time.Minute, *st.TimeUntilExpiry)
	assert.True(t, st.ExpiryTime.Equal(now.Add(5*time.Minute)))

	s.token = "garbage"
	st = w.Status()
	assert.True(t, st.HasToken)
	assert.False(t, st.IsValid)
	assert.True(t, st.IsExpired)
	assert.Nil(t, st.TimeUntilExpiry)
}

func TestRun_ExitsAfterLogout(t *testing.T) {
	s := &fakeSession{token: tokenExpiringIn(t, -time.Minute)}
	w := newWatcher(s, &fakeReporter{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher kept running without a session")
	}
	assert.Equal(t, 1, s.LogoutCalls)
}

func TestSupervisor_StartsAndCancels(t *testing.T) {
	s := &fakeSession{token: tokenExpiringIn(t, time.Hour)}
	sup := NewSupervisor(newWatcher(s, &fakeReporter{}))
	ctx := context.Background()

	sup.Update(ctx, s.Token())
	require.Eventually(t, sup.Running, time.Second, time.Millisecond)

	sup.Update(ctx, "")
	require.Eventually(t, func() bool { return !sup.Running() }, time.Second, time.Millisecond)

	sup.Update(ctx, s.Token())
	require.Eventually(t, sup.Running, time.Second, time.Millisecond)
	sup.Stop()
	assert.False(t, sup.Running())
}

func TestCheck_CancelledVerifyKeepsSession(t *testing.T) {
	s := &fakeSession{token: tokenExpiringIn(t, 5*time.Minute), verifyHang: make(chan struct{})}
	rep := &fakeReporter{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan Result)
	go func() { done <- newWatcher(s, rep).Check(ctx) }()

	<-s.verifyHang
	cancel()
	r := <-done

	assert.Equal(t, OutcomeCancelled, r.Outcome)
	assert.False(t, r.Continue)
	assert.Zero(t, s.logouts())
	assert.Empty(t, rep.Actions)
}

func TestSupervisor_StopDuringVerifyKeepsSession(t *testing.T) {
	tok := tokenExpiringIn(t, 5*time.Minute)
	s := &fakeSession{token: tok, verifyHang: make(chan struct{})}
	rep := &fakeReporter{}
	sup := NewSupervisor(newWatcher(s, rep))

	sup.Update(context.Background(), tok)
	select {
	case <-s.verifyHang:
	case <-time.After(time.Second):
		t.Fatal("verify never started")
	}
	sup.Stop()

	assert.False(t, sup.Running())
	assert.Zero(t, s.logouts())
	assert.Equal(t, tok, s.Token())
	assert.Empty(t, rep.Actions)
}

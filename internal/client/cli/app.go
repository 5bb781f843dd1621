package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/api"
	"github.com/dmitrijs2005/dryerwatch/internal/client/backup"
	"github.com/dmitrijs2005/dryerwatch/internal/client/config"
	"github.com/dmitrijs2005/dryerwatch/internal/client/guard"
	"github.com/dmitrijs2005/dryerwatch/internal/client/health"
	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/dryerwatch/internal/client/schedule"
	"github.com/dmitrijs2005/dryerwatch/internal/client/session"
	"github.com/dmitrijs2005/dryerwatch/internal/client/storage"
	"github.com/dmitrijs2005/dryerwatch/internal/client/telemetry"
	"github.com/dmitrijs2005/dryerwatch/internal/client/tokenstore"
	"github.com/dmitrijs2005/dryerwatch/internal/client/tokenwatch"
	"github.com/dmitrijs2005/dryerwatch/internal/logging"
)

// SessionService is the session surface the commands use.
type SessionService interface {
	State() session.State
	Init(ctx context.Context)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Subscribe(fn func(session.State)) func()
}

// DataAPI is the read-only dashboard data the commands display.
type DataAPI interface {
	CurrentTemperature(ctx context.Context) (*models.Reading, error)
	TodayAggregates(ctx context.Context) ([]models.AggregateRecord, error)
	Backups(ctx context.Context) ([]models.BackupFile, error)
	BatchSystemInfo(ctx context.Context) api.SystemInfo
	Users(ctx context.Context) ([]models.User, error)
	TestConnection(ctx context.Context) bool
}

type HealthService interface {
	Poll(ctx context.Context) health.Status
	Last() (health.Status, health.Stats)
	Tick(ctx context.Context) (time.Duration, bool)
}

type BackupService interface {
	Perform(ctx context.Context, format backup.Format) (*backup.Result, error)
	History(ctx context.Context) ([]backup.HistoryEntry, error)
	Stats(ctx context.Context, now time.Time) (backup.Stats, error)
	ShouldPerform(ctx context.Context, now time.Time) bool
	ClearHistory(ctx context.Context) error
	DownloadServerBackup(ctx context.Context, kind, date, dir string) (string, error)
}

type ErrorQueue interface {
	Stats(now time.Time) telemetry.Stats
	Pending() []telemetry.Entry
	Flush(ctx context.Context) int
	Clear(ctx context.Context) error
	Online() bool
}

type TokenStatus interface {
	Status() tokenwatch.TokenStatus
}

type App struct {
	config   *config.Config
	log      logging.Logger
	session  SessionService
	data     DataAPI
	health   HealthService
	backups  BackupService
	queue    ErrorQueue
	tokens   TokenStatus
	boundary telemetry.Boundary
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time

	poller     schedule.Loop
	supervisor *tokenwatch.Supervisor
	reporter   *telemetry.Reporter
	db         *sql.DB
}

// NewApp opens the local database and wires every client component:
// token store, API client, session, error reporter, health poller, token
// watcher and backup manager.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewLogger(logging.ParseLevel(c.LogLevel), c.LogFormat)

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	tokens := tokenstore.New(db)
	repo := metadata.NewSQLiteRepository(db)

	var sess *session.Manager
	client := api.New(c.APIURL, tokens,
		api.WithLogger(log),
		api.WithAuthFailureHandler(func(ctx context.Context) { sess.Expire(ctx) }),
	)
	sess = session.NewManager(client, tokens, session.WithLogger(log))
	log.Info(ctx, "api client ready", "url", client.BaseURL())

	reporter := telemetry.NewReporter(repo, client,
		telemetry.WithLogger(log),
		telemetry.WithQueueSize(c.ErrorQueueSize),
		telemetry.WithEnvironment(c.Environment),
		telemetry.WithIdentity(tokens),
	)
	if err := reporter.Load(ctx); err != nil {
		log.Warn(ctx, "error queue not restored", "error", err)
	}

	poller := health.NewPoller(client,
		health.WithConfig(c.HealthConfig()),
		health.WithLogger(log),
		health.WithConnectivity(reporter),
		health.OnStatusChange(func(s health.Status, _ health.Stats) {
			log.Debug(context.Background(), "health check completed", "overall", s.Overall, "api", s.API.Connected)
		}),
	)

	watcher := tokenwatch.New(sess, reporter, tokenwatch.WithConfig(c.TokenConfig()), tokenwatch.WithLogger(log))

	backupOpts := []backup.Option{
		backup.WithReporter(reporter),
		backup.WithIdentity(tokens),
		backup.WithOnline(reporter.Online),
		backup.WithOutputDir(c.ExportDir),
		backup.WithHistorySize(c.BackupHistorySize),
		backup.WithLogger(log),
	}
	if s3cfg, ok := c.S3Config(); ok {
		up, err := backup.NewS3Uploader(ctx, s3cfg)
		if err != nil {
			log.Warn(ctx, "s3 upload disabled", "error", err)
		} else {
			backupOpts = append(backupOpts, backup.WithUploader(up))
		}
	}

	return &App{
		config:     c,
		log:        log,
		session:    sess,
		data:       client,
		health:     poller,
		backups:    backup.NewManager(client, repo, backupOpts...),
		queue:      reporter,
		tokens:     watcher,
		boundary:   telemetry.DefaultBoundary{Reporter: reporter, Environment: c.Environment},
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		now:        time.Now,
		supervisor: tokenwatch.NewSupervisor(watcher),
		reporter:   reporter,
		db:         db,
	}, nil
}

// Run restores the stored session, starts the background loops and blocks in
// the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer a.Close()
	defer cancel()

	unsubscribe := a.session.Subscribe(func(s session.State) {
		if a.supervisor != nil {
			a.supervisor.Update(ctx, s.Token)
		}
	})
	defer unsubscribe()

	if !a.data.TestConnection(ctx) {
		a.printf("Backend %s is unreachable; queued reports will be sent once it is back.\n", a.config.APIURL)
	}

	a.session.Init(ctx)
	if s := a.session.State(); s.IsAuthenticated() {
		a.printf("Welcome back, %s\n", s.User.Username)
	}

	a.poller.Start(ctx, 0, a.pollHealth)

	printlnFn("dryerwatch CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// pollHealth runs one health poll behind the error boundary. A panicking
// poll ends the loop.
func (a *App) pollHealth(ctx context.Context) (time.Duration, bool) {
	var next time.Duration
	var ok bool
	err := telemetry.Guard(ctx, "health-poller", a.boundary, func(ctx context.Context) error {
		next, ok = a.health.Tick(ctx)
		return nil
	})
	if err != nil {
		return 0, false
	}
	return next, ok
}

// Close stops the background loops and waits for them before the reporter
// and the database are released.
func (a *App) Close() {
	a.poller.Stop()
	if a.supervisor != nil {
		a.supervisor.Stop()
	}
	if a.reporter != nil {
		a.reporter.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State().IsAuthenticated()
}

// getStatus renders the prompt prefix: user name and connectivity.
func (a *App) getStatus() string {
	s := ""
	if st := a.session.State(); st.IsAuthenticated() {
		s = st.User.Username + " "
	}
	if a.queue != nil && a.queue.Online() {
		s += "online"
	} else {
		s += "offline"
	}
	return fmt.Sprintf("(%s)", s)
}

// protected runs fn only for an authenticated session, behind the error
// boundary.
func (a *App) protected(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := guard.Require(a.session.State()); err != nil {
		return err
	}
	return telemetry.Guard(ctx, name, a.boundary, fn)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/bulletin/internal/client/announcements"
	"github.com/dmitrijs2005/bulletin/internal/client/collections"
	"github.com/dmitrijs2005/bulletin/internal/client/config"
	"github.com/dmitrijs2005/bulletin/internal/client/credentials"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway/grpcgw"
	"github.com/dmitrijs2005/bulletin/internal/client/gateway/pggw"
	"github.com/dmitrijs2005/bulletin/internal/client/guard"
	"github.com/dmitrijs2005/bulletin/internal/client/logs"
	"github.com/dmitrijs2005/bulletin/internal/client/media"
	"github.com/dmitrijs2005/bulletin/internal/client/metrics"
	"github.com/dmitrijs2005/bulletin/internal/client/navigation"
	"github.com/dmitrijs2005/bulletin/internal/client/session"
	"github.com/dmitrijs2005/bulletin/internal/client/storage"
	"github.com/dmitrijs2005/bulletin/internal/logging"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	session  *session.Manager
	router   *navigation.Router
	anns     *announcements.Store
	logs     *logs.Store
	registry *prometheus.Registry
	mode     string
	reader   *bufio.Reader
	out      io.Writer
	closers  []func() error
}

// deps are the collaborators assemble needs. NewApp builds the real ones;
// tests pass fakes.
type deps struct {
	identity    gateway.Identity
	collections gateway.Collections
	store       credentials.Store
	uploader    media.Uploader
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(os.Stderr, c.LogBackend, c.LogLevel)

	var closers []func() error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		log.Error(ctx, "client start failed", "error", err)
		return nil, err
	}

	db, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("error initializing database: %w", err))
	}
	closers = append(closers, db.Close)

	var store credentials.Store
	switch c.CredentialBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr, DB: c.RedisDB})
		closers = append(closers, rdb.Close)
		store = credentials.NewRedisStore(rdb, credentials.DefaultRedisPrefix)
	default:
		store = credentials.NewSQLiteStore(db)
	}

	gw, err := grpcgw.New(c.ServerEndpointAddr,
		grpcgw.WithLogger(log),
		grpcgw.WithTimeout(c.RequestTimeout),
		grpcgw.WithRefreshListener(func(access, refresh string) {
			persistRefreshed(context.Background(), store, log, access, refresh)
		}),
	)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, gw.Close)

	rec, err := store.Load(ctx)
	switch {
	case err == nil:
		gw.SetTokens(rec.AccessToken, rec.RefreshToken)
	case errors.Is(err, credentials.ErrNoCredentials):
	default:
		log.Warn(ctx, "ignoring stored credentials", "error", err)
	}

	d := deps{identity: gw, collections: gw, store: store}
	mode := "grpc"
	if c.CollectionsBackend == "postgres" {
		pg, err := pggw.Open(c.PostgresDSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pg.Close)
		d.collections = pggw.New(pg, log)
		mode = "postgres"
	}

	if c.S3Bucket != "" {
		up, err := media.NewS3Uploader(ctx, media.Config{
			Bucket:        c.S3Bucket,
			Region:        c.S3Region,
			Endpoint:      c.S3Endpoint,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			PublicBaseURL: c.S3PublicBaseURL,
		})
		if err != nil {
			return fail(err)
		}
		d.uploader = up
	}

	a := assemble(c, log, d, os.Stdin, os.Stdout)
	a.mode = mode
	a.closers = closers
	return a, nil
}

// persistRefreshed stores tokens rotated by the gateway client so the next
// start reuses them.
func persistRefreshed(ctx context.Context, store credentials.Store, log logging.Logger, access, refresh string) {
	userID, ok, err := store.Get(ctx, credentials.KeyUserID)
	if err != nil || !ok {
		log.Warn(ctx, "refreshed tokens not persisted", "error", err)
		return
	}
	rec := credentials.Record{AccessToken: access, RefreshToken: refresh, UserID: userID}
	if err := store.Save(ctx, rec); err != nil {
		log.Warn(ctx, "refreshed tokens not persisted", "error", err)
	}
}

func assemble(c *config.Config, log logging.Logger, d deps, in io.Reader, out io.Writer) *App {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	a := &App{
		config:   c,
		log:      log,
		registry: reg,
		mode:     "grpc",
		reader:   bufio.NewReader(in),
		out:      out,
	}

	a.session = session.NewManager(d.identity, d.store, log)

	copts := []collections.Option{collections.WithLogger(log), collections.WithMetrics(m)}
	a.anns = announcements.NewStore(d.collections, a.session, d.uploader, c.PageSize, copts...)
	a.logs = logs.NewStore(d.collections, c.PageSize, copts...)

	a.router = navigation.NewRouter(a.session, d.store,
		navigation.WithNotifier(a),
		navigation.WithView(a),
		navigation.WithMetrics(m),
		navigation.WithLogger(log),
		navigation.WithNotFound(a.notFoundPage),
	)
	a.registerPages()

	a.session.SetNavigator(a.router)
	a.session.OnSignOut(func(ctx context.Context) {
		a.anns.Clear()
		a.logs.Clear()
	})
	return a
}

// Run restores any stored session, shows the current page and runs the REPL
// until the user leaves.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.session.Restore(ctx)
	if err := a.router.Navigate(ctx, a.router.Current()); err != nil {
		a.printf("error: %v\n", err)
	}

	a.printf("Welcome to the bulletin board (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

// getStatus renders the prompt suffix: current path, user and backend mode.
func (a *App) getStatus() string {
	user := "guest"
	if a.isLoggedIn() {
		user = a.session.Email()
	}
	return fmt.Sprintf("(%s %s %s)", a.router.Current(), user, a.mode)
}

// Notify implements navigation.Notifier.
func (a *App) Notify(_ context.Context, n guard.Notice) {
	a.printf("[%s] %s\n", n.Severity, n.Message)
}

// Show implements navigation.View.
func (a *App) Show(ctx context.Context, path string, p navigation.Page) {
	a.printf("== %s ==\n", p.Title())
	if err := p.Render(ctx, a.out); err != nil {
		a.log.Warn(ctx, "page render failed", "path", path, "error", err)
	}
}

// Go navigates to the path given as the first argument.
func (a *App) Go(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: go <path>\n")
		return nil
	}
	if err := a.router.Navigate(ctx, args[0]); err != nil {
		a.printf("error: %v\n", err)
		return err
	}
	return nil
}

// Stats prints the client's metrics in the Prometheus text format.
func (a *App) Stats(_ context.Context) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(a.out, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// enter makes sure the router is at section (or below it), navigating
// there if needed. It reports false when the guard sent the user elsewhere.
func (a *App) enter(ctx context.Context, section string) bool {
	if !within(a.router.Current(), section) {
		if err := a.router.Navigate(ctx, section); err != nil {
			a.printf("error: %v\n", err)
			return false
		}
	}
	return within(a.router.Current(), section)
}

func within(path, section string) bool {
	return path == section || strings.HasPrefix(path, section+"/")
}

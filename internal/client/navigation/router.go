// Package navigation moves the application between pages. Every attempt is
// checked by the route guard against the live session state, redirect
// chains are followed (and re-checked) up to a bound, and a failed page
// load is retried once through a full reload guarded by a durable flag.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/bulletin/internal/client/guard"
	"github.com/dmitrijs2005/bulletin/internal/client/metrics"
	"github.com/dmitrijs2005/bulletin/internal/logging"
)

// ReloadFlagKey marks that a reload was already attempted.
const ReloadFlagKey = "router:dynamic-reload"

const maxRedirects = 8

var (
	// ErrModuleLoad is returned by loaders whose page could not be loaded
	// for transient reasons; the router retries it once.
	ErrModuleLoad = errors.New("failed to load page module")

	ErrRedirectLoop = errors.New("too many redirects")
)

type Page interface {
	Title() string
	Render(ctx context.Context, w io.Writer) error
}

// Loader builds the page for path. Routes registered for a prefix receive
// the full path, e.g. "/announcements/12".
type Loader func(ctx context.Context, path string) (Page, error)

// AuthState is the part of the session the router consults.
type AuthState interface {
	IsAuthenticated() bool
}

// Flags is the durable key/value space holding the reload marker.
type Flags interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, n guard.Notice)
}

// View receives every page the router settles on.
type View interface {
	Show(ctx context.Context, path string, p Page)
}

type Router struct {
	table    guard.Table
	auth     AuthState
	flags    Flags
	notifier Notifier
	view     View
	metrics  *metrics.Metrics
	log      logging.Logger

	routes   map[string]Loader
	notFound Loader

	mu      sync.Mutex
	current string
	page    Page
}

type Option func(*Router)

func WithNotifier(n Notifier) Option        { return func(r *Router) { r.notifier = n } }
func WithView(v View) Option                { return func(r *Router) { r.view = v } }
func WithMetrics(m *metrics.Metrics) Option { return func(r *Router) { r.metrics = m } }
func WithLogger(l logging.Logger) Option    { return func(r *Router) { r.log = l } }
func WithTable(t guard.Table) Option        { return func(r *Router) { r.table = t } }
func WithNotFound(l Loader) Option          { return func(r *Router) { r.notFound = l } }

func NewRouter(auth AuthState, flags Flags, opts ...Option) *Router {
	r := &Router{
		table:    guard.DefaultTable,
		auth:     auth,
		flags:    flags,
		log:      logging.Nop(),
		routes:   make(map[string]Loader),
		notFound: notFoundLoader,
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With("module", "router")
	return r
}

// Handle registers l for path and everything below it.
func (r *Router) Handle(path string, l Loader) {
	r.routes[guard.Normalize(path)] = l
}

// Current returns the last path the router settled on.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" {
		return "/"
	}
	return r.current
}

func (r *Router) CurrentPage() Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.page
}

// match picks the exact route, else the longest registered prefix.
func (r *Router) match(path string) Loader {
	if l, ok := r.routes[path]; ok {
		return l
	}
	prefixes := make([]string, 0, len(r.routes))
	for p := range r.routes {
		if p != "/" && strings.HasPrefix(path, p+"/") {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return nil
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return r.routes[prefixes[0]]
}

func (r *Router) notify(ctx context.Context, n *guard.Notice) {
	if n == nil || r.notifier == nil {
		return
	}
	r.notifier.Notify(ctx, *n)
}

// guardPath follows redirects until the guard allows a path.
func (r *Router) guardPath(ctx context.Context, path string) (string, error) {
	for hops := 0; ; hops++ {
		if hops > maxRedirects {
			r.metrics.RecordNavigation("failed")
			return "", fmt.Errorf("navigate %s: %w", path, ErrRedirectLoop)
		}
		d := guard.Decide(path, r.table, r.auth.IsAuthenticated())
		r.notify(ctx, d.Notice)
		if d.Allow {
			r.metrics.RecordNavigation("allow")
			return guard.Normalize(path), nil
		}
		r.metrics.RecordNavigation("redirect")
		r.log.Debug(ctx, "redirect", "from", path, "to", d.Redirect)
		path = d.Redirect
	}
}

// Navigate moves to path, or wherever the guard redirects it.
func (r *Router) Navigate(ctx context.Context, path string) error {
	target, err := r.guardPath(ctx, path)
	if err != nil {
		return err
	}
	return r.resolve(ctx, target)
}

func (r *Router) resolve(ctx context.Context, target string) error {
	loader := r.match(target)
	if loader == nil {
		r.metrics.RecordNavigation("not_found")
		loader = r.notFound
	}

	page, err := loader(ctx, target)
	if err != nil {
		if errors.Is(err, ErrModuleLoad) {
			return r.recover(ctx, target, err)
		}
		r.metrics.RecordNavigation("failed")
		r.log.Error(ctx, "page load failed", "path", target, "error", err)
		return fmt.Errorf("navigate %s: %w", target, err)
	}

	if err := r.flags.Delete(ctx, ReloadFlagKey); err != nil {
		r.log.Warn(ctx, "failed to clear reload flag", "error", err)
	}

	r.mu.Lock()
	r.current, r.page = target, page
	r.mu.Unlock()

	if r.view != nil {
		r.view.Show(ctx, target, page)
	}
	return nil
}

// recover performs the single full reload of target. A second consecutive
// failure is reported rather than retried.
func (r *Router) recover(ctx context.Context, target string, cause error) error {
	_, already, ferr := r.flags.Get(ctx, ReloadFlagKey)
	if ferr != nil {
		r.log.Warn(ctx, "failed to read reload flag", "error", ferr)
	}
	if already || ferr != nil {
		r.metrics.RecordNavigation("failed")
		r.log.Error(ctx, "page load failed again after reload", "path", target, "error", cause)
		r.notify(ctx, &guard.Notice{Severity: guard.SeverityError, Message: "This page could not be loaded."})
		return fmt.Errorf("navigate %s: %w", target, cause)
	}

	if err := r.flags.Set(ctx, ReloadFlagKey, "true"); err != nil {
		return fmt.Errorf("navigate %s: set reload flag: %w", target, err)
	}
	r.metrics.RecordNavigation("reload")
	r.log.Info(ctx, "reloading page after module load failure", "path", target)
	return r.Navigate(ctx, target)
}

type textPage struct {
	title string
	body  string
}

func (p textPage) Title() string { return p.title }

func (p textPage) Render(_ context.Context, w io.Writer) error {
	_, err := fmt.Fprintln(w, p.body)
	return err
}

// StaticPage is a page with fixed text.
func StaticPage(title, body string) Page { return textPage{title: title, body: body} }

func notFoundLoader(_ context.Context, path string) (Page, error) {
	return StaticPage("Not Found", fmt.Sprintf("Nothing lives at %s.", path)), nil
}
